package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rigado/coex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterface(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"hci1", 1, false},
		{"3", 3, false},
		{" hci2\n", 2, false},
		{"", 0, true},
		{"hci", 0, true},
		{"bt0", 0, true},
		{"-1", 0, true},
		{"any", InterfaceAny, false},
		{" ANY ", InterfaceAny, false},
	}

	for _, tc := range tests {
		got, err := ParseInterface(tc.in)
		assert.Equal(t, tc.want, got, "%q", tc.in)
		if tc.wantErr {
			assert.Error(t, err, "%q", tc.in)
		} else {
			assert.NoError(t, err, "%q", tc.in)
		}
	}
}

func TestLoadMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Empty(t, cfg.Options())
}

func TestLoad(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "coex.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(`
log_level: debug
properties:
  bluetooth.interface: hci1
transport:
  h4_socket: 127.0.0.1:9000
coex:
  network: tcp
  addr: 127.0.0.1:7000
service:
  command_timeout: 250ms
  retry_step: 2s
`), 0600))

	cfg, err := Load(fn)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	v, ok := cfg.Property(PropInterface)
	assert.True(t, ok)
	assert.Equal(t, "hci1", v)
	assert.Equal(t, "127.0.0.1:9000", cfg.Transport.H4Socket)
	assert.Equal(t, 5*time.Second, cfg.Transport.DialTimeout)
	assert.Equal(t, Coex{Network: "tcp", Addr: "127.0.0.1:7000"}, cfg.Coex)
	assert.Equal(t, 250*time.Millisecond, cfg.Service.CommandTimeout)
	assert.Len(t, cfg.Options(), 2)
}

func TestLoadInvalid(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "coex.yaml")
	require.NoError(t, os.WriteFile(fn, []byte("service: [1, 2"), 0600))

	_, err := Load(fn)
	assert.Error(t, err)
}

func TestOptionsRetryDefaults(t *testing.T) {
	cfg := Default()
	cfg.Service.RetryMax = 20 * time.Second
	opts := cfg.Options()
	require.Len(t, opts, 1)

	var got retrySetter
	require.NoError(t, opts[0](&got))
	assert.Equal(t, retrySetter{time.Second, time.Second, 20 * time.Second}, got)

	cfg = Default()
	cfg.Service.RetryInitial = 2 * time.Second
	got = retrySetter{}
	require.NoError(t, cfg.Options()[0](&got))
	assert.Equal(t, retrySetter{2 * time.Second, time.Second, 10 * time.Second}, got)
}

// retrySetter captures what the options would configure on a gateway.
type retrySetter struct {
	initial, step, max time.Duration
}

func (r *retrySetter) SetCommandTimeout(time.Duration) error { return nil }
func (r *retrySetter) SetErrorHandler(func(error)) error     { return nil }
func (r *retrySetter) SetReporter(coex.Reporter) error { return nil }

func (r *retrySetter) SetRetryDelay(initial, step, max time.Duration) error {
	r.initial, r.step, r.max = initial, step, max
	return nil
}
