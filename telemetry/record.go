package telemetry

import (
	"fmt"
	"strings"
	"time"
)

// Severity of a record.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityError
)

var severityNames = map[Severity]string{
	SeverityLow:    "low",
	SeverityMedium: "medium",
	SeverityHigh:   "high",
	SeverityError:  "error",
}

func (s Severity) String() string {
	if n, ok := severityNames[s]; ok {
		return n
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// MarshalText lets records carry the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	for k, v := range severityNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", b)
}

// Prop is one sysfs attribute of the adapter, or a note on why it is missing.
type Prop struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
	Note  string `json:"note,omitempty"`
}

// Record is a telemetry event.
type Record struct {
	Time     time.Time `json:"time"`
	Severity Severity  `json:"severity"`
	Class    string    `json:"class"`
	Device   string    `json:"device"`
	Stack    string    `json:"stack"`
	Props    []Prop    `json:"props,omitempty"`
}

// Text renders the record body the way the telemetry daemon expects it.
func (r Record) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<device> : %s\n", r.Device)
	fmt.Fprintf(&sb, "<stack> : %s\n", r.Stack)
	for _, p := range r.Props {
		switch {
		case p.Note != "":
			fmt.Fprintf(&sb, "<%s> %s\n", p.Name, p.Note)
		default:
			// sysfs values carry their own newline
			fmt.Fprintf(&sb, "<%s> : %s", p.Name, p.Value)
		}
	}
	return sb.String()
}
