package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rigado/coex"
	"gopkg.in/yaml.v3"
)

// PropInterface names the HCI adapter the vendor library binds, as "hciN" or
// "N", or "any" for the first adapter that can be bound.
const PropInterface = "bluetooth.interface"

// InterfaceAny is the adapter id standing for the first available one.
const InterfaceAny = -1

// Config holds the gateway configuration.
type Config struct {
	LogLevel   string            `yaml:"log_level"`
	Properties map[string]string `yaml:"properties"`

	Transport Transport `yaml:"transport"`
	Coex      Coex      `yaml:"coex"`
	Service   Service   `yaml:"service"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Transport selects how HCI reaches the controller. Without an H4 setting the
// user channel socket of the configured interface is used.
type Transport struct {
	H4Uart      string        `yaml:"h4_uart"`
	H4Socket    string        `yaml:"h4_socket"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// Coex is where the coexistence service listens.
type Coex struct {
	Network string `yaml:"network"`
	Addr    string `yaml:"addr"`
}

// Service tunes the command gateway. Zero values keep the built-in defaults.
type Service struct {
	CommandTimeout time.Duration `yaml:"command_timeout"`
	RetryInitial   time.Duration `yaml:"retry_initial"`
	RetryStep      time.Duration `yaml:"retry_step"`
	RetryMax       time.Duration `yaml:"retry_max"`
}

type Telemetry struct {
	File      string `yaml:"file"`
	SysfsRoot string `yaml:"sysfs_root"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		Properties: map[string]string{},
		Transport:  Transport{DialTimeout: 5 * time.Second},
		Coex:       Coex{Network: "unix", Addr: "/run/coex/bt.sock"},
		Telemetry:  Telemetry{SysfsRoot: "/sys/class/bluetooth"},
	}
}

// Load reads the configuration from the given YAML file path.
// If the file does not exist, it returns the default Config with no error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "can't read %v", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "can't parse %v", path)
	}
	if cfg.Properties == nil {
		cfg.Properties = map[string]string{}
	}

	return cfg, nil
}

// Property looks up a system property.
func (c *Config) Property(key string) (string, bool) {
	v, ok := c.Properties[key]
	return v, ok
}

// Options maps the service section to gateway options.
func (c *Config) Options() []coex.Option {
	var opts []coex.Option
	s := c.Service
	if s.CommandTimeout != 0 {
		opts = append(opts, coex.OptCommandTimeout(s.CommandTimeout))
	}
	if s.RetryInitial != 0 || s.RetryStep != 0 || s.RetryMax != 0 {
		initial, step, max := s.RetryInitial, s.RetryStep, s.RetryMax
		if initial == 0 {
			initial = time.Second
		}
		if step == 0 {
			step = time.Second
		}
		if max == 0 {
			max = 10 * time.Second
		}
		opts = append(opts, coex.OptRetryDelay(initial, step, max))
	}
	return opts
}

// ParseInterface turns an interface property into an adapter id. "hci1" and
// "1" both give 1, "any" gives InterfaceAny. Anything unparsable gives 0
// along with the error.
func ParseInterface(v string) (int, error) {
	s := strings.TrimSpace(v)
	if strings.EqualFold(s, "any") {
		return InterfaceAny, nil
	}
	s = strings.TrimPrefix(s, "hci")

	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid interface %q", v)
	}
	if id < 0 {
		return 0, errors.Errorf("invalid interface %q", v)
	}
	return id, nil
}
