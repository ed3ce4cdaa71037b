package telemetry

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sink delivers records.
type Sink interface {
	Send(r Record) error
}

type writerSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink writes each record to w as one JSON line.
func NewWriterSink(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (s *writerSink) Send(r Record) error {
	out, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "can't encode record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(append(out, '\n'))
	return errors.Wrap(err, "can't write record")
}

// FileSink appends records to a JSON lines file.
type FileSink struct {
	filename string
	lock     sync.RWMutex
}

func NewFileSink(filename string) *FileSink {
	return &FileSink{filename: filename}
}

func (fs *FileSink) Send(r Record) error {
	out, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "can't encode record")
	}

	fs.lock.Lock()
	defer fs.lock.Unlock()

	f, err := os.OpenFile(fs.filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "can't open %v", fs.filename)
	}
	defer f.Close()

	_, err = f.Write(append(out, '\n'))
	return errors.Wrapf(err, "can't write %v", fs.filename)
}

// Load returns the records stored so far, oldest first.
func (fs *FileSink) Load() ([]Record, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	in, err := os.ReadFile(fs.filename)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "can't read %v", fs.filename)
	}

	var out []Record
	sc := bufio.NewScanner(bytes.NewReader(in))
	for line := 1; sc.Scan(); line++ {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return nil, errors.Wrapf(err, "%v:%d", fs.filename, line)
		}
		out = append(out, r)
	}
	return out, errors.Wrapf(sc.Err(), "can't scan %v", fs.filename)
}

// Clear drops all stored records.
func (fs *FileSink) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	err := os.Remove(fs.filename)
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrapf(err, "can't remove %v", fs.filename)
}
