package client

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultChannelCapacity bounds the facade's output channel when the config
// does not say otherwise.
const DefaultChannelCapacity = 10000

// Config describes one native consumer. Immutable once handed to a driver.
type Config struct {
	// Brokers is a comma-separated bootstrap list, native-client convention.
	Brokers string `koanf:"brokers"`

	// Options are native client tunables passed through verbatim
	// (e.g. "group.id", "auto.offset.reset"). Unknown names fail
	// construction with the driver's diagnostic.
	Options map[string]string `koanf:"options"`

	Driver          string `koanf:"driver"`
	ChannelCapacity int    `koanf:"channel_capacity"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Brokers) == "" {
		return errors.New("consumer config must have non-empty key 'brokers' which contains string")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

// LoadConfig merges YAML (if present) with env-vars
// (prefix `KAFKABRIDGE_KAFKA__`, delimiter `__`).
//
// The koanf instance uses "/" as its path delimiter so that dotted native
// option names ("auto.offset.reset") survive flattening intact.
func LoadConfig(path string) (Config, error) {
	k := koanf.New("/")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	// schema version check (only when YAML is present)
	sv := k.String("schema_version")
	if sv != "" && sv != "v1" {
		return Config{}, fmt.Errorf("consumer schema_version %q not supported (want v1)", sv)
	}

	_ = k.Load(env.Provider("KAFKABRIDGE_KAFKA__", "__", nil), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ---------------------------------------------------------------------------
// defaults
// ---------------------------------------------------------------------------

func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = "sarama"
	}
	if c.ChannelCapacity <= 0 {
		c.ChannelCapacity = DefaultChannelCapacity
	}
}
