package config

import (
	"kafkabridge/client"
)

// LoadConsumerConfig delegates to the client loader while centralizing
// loader entrypoints under internal/config.
func LoadConsumerConfig(path string) (client.Config, error) {
	return client.LoadConfig(path)
}
