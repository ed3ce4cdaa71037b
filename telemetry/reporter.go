package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rigado/coex"
)

// DefaultSysfsRoot is where the kernel lists Bluetooth adapters.
const DefaultSysfsRoot = "/sys/class/bluetooth"

const (
	stackName   = "bluedroid"
	maxClassLen = 99
	maxPropLen  = 99
)

// Adapter attributes attached to every record.
var sysProps = []string{
	"bus",
	"class",
	"features",
	"hci_revision",
	"hci_version",
	"manufacturer",
	"name",
	"sniff_max_interval",
	"sniff_min_interval",
	"type",
	"uevent",
	"power/control",
	"power/runtime_status",
	"device/modalias",
	"device/power/runtime_status",
	"device/power/runtime_enabled",
}

// Reporter builds records for the adapter it is pointed at and hands them to
// a sink. It implements coex.Reporter.
type Reporter struct {
	sink   Sink
	root   string
	intf   atomic.Int32
	now    func() time.Time
	logger coex.Logger
}

// New returns a Reporter reading adapter attributes below root. An empty root
// means DefaultSysfsRoot.
func New(sink Sink, root string) *Reporter {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &Reporter{
		sink:   sink,
		root:   root,
		now:    time.Now,
		logger: coex.GetLogger().ChildLogger(map[string]interface{}{"component": "bt_tm"}),
	}
}

// SetInterface selects the hciN adapter described in later records.
func (r *Reporter) SetInterface(id int) {
	r.intf.Store(int32(id))
}

// Interface returns the adapter id in use.
func (r *Reporter) Interface() int {
	return int(r.intf.Load())
}

// Report sends an error record of class bluetooth/<component>/<errorClass>.
// Failures are logged, never returned.
func (r *Reporter) Report(component, errorClass string) {
	r.ReportSeverity(component, errorClass, SeverityError)
}

func (r *Reporter) ReportSeverity(component, errorClass string, sev Severity) {
	rec := r.Record(component, errorClass, sev)
	if err := r.sink.Send(rec); err != nil {
		r.logger.Errorf("report send error: %v", err)
	}
}

// Record builds the record Report would send.
func (r *Reporter) Record(component, errorClass string, sev Severity) Record {
	class := fmt.Sprintf("bluetooth/%s/%s", component, errorClass)
	if len(class) > maxClassLen {
		class = class[:maxClassLen]
	}

	dev := fmt.Sprintf("hci%d", r.Interface())
	rec := Record{
		Time:     r.now(),
		Severity: sev,
		Class:    class,
		Device:   dev,
		Stack:    stackName,
	}

	dir := filepath.Join(r.root, dev)
	for _, name := range sysProps {
		rec.Props = append(rec.Props, readProp(dir, name))
	}
	return rec
}

func readProp(dir, name string) Prop {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return Prop{Name: name, Note: "no prop"}
	}
	defer f.Close()

	b := make([]byte, maxPropLen+1)
	n, err := f.Read(b)
	switch {
	case err == io.EOF || (err == nil && n == 0):
		return Prop{Name: name, Note: "is empty"}
	case err != nil:
		return Prop{Name: name, Note: "read error"}
	}

	if n > maxPropLen {
		n = maxPropLen
	}
	return Prop{Name: name, Value: string(b[:n])}
}
