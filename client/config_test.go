package client

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "consumer.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `schema_version: v1
brokers: "b1:9092, b2:9092"
driver: sarama
channel_capacity: 5000
options:
  group.id: bridge-test
  auto.offset.reset: earliest
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Brokers != "b1:9092, b2:9092" {
		t.Fatalf("brokers: got %q", cfg.Brokers)
	}
	if cfg.ChannelCapacity != 5000 {
		t.Fatalf("channel_capacity: want 5000, got %d", cfg.ChannelCapacity)
	}
	// dotted native option names must survive loading intact
	if cfg.Options["group.id"] != "bridge-test" {
		t.Fatalf("options[group.id]: got %q", cfg.Options["group.id"])
	}
	if cfg.Options["auto.offset.reset"] != "earliest" {
		t.Fatalf("options[auto.offset.reset]: got %q", cfg.Options["auto.offset.reset"])
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "brokers: localhost:9092\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Driver != "sarama" {
		t.Fatalf("default driver: want sarama, got %q", cfg.Driver)
	}
	if cfg.ChannelCapacity != DefaultChannelCapacity {
		t.Fatalf("default capacity: want %d, got %d", DefaultChannelCapacity, cfg.ChannelCapacity)
	}
}

func TestLoadConfig_InvalidSchema(t *testing.T) {
	path := writeConfig(t, "schema_version: v999\nbrokers: localhost:9092\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unsupported schema_version")
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{Brokers: "localhost:9092"}).Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if err := (Config{}).Validate(); err == nil {
		t.Fatal("missing brokers must fail validation")
	}
	if err := (Config{Brokers: "   "}).Validate(); err == nil {
		t.Fatal("blank brokers must fail validation")
	}
}
