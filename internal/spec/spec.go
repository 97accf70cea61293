package spec

// File is the top-level bridge.yml document.
type File struct {
	SchemaVersion string `yaml:"schema_version"`

	Consumer struct {
		Driver string `yaml:"driver"` // registry name, e.g. "sarama"
		Config string `yaml:"config"` // path to the consumer config YAML
	} `yaml:"consumer"`

	// Topics the bridge subscribes to on startup.
	Topics []string `yaml:"topics"`

	MetricsPort int `yaml:"metrics_port"`
}
