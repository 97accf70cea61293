package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBridgeSpec_ResolvesRelativeConsumerConfigAndSchema(t *testing.T) {
	dir := t.TempDir()
	bridge := []byte(`schema_version: v1
consumer:
  driver: sarama
  config: consumer.yml
topics: [orders]
metrics_port: 9100
`)
	if err := os.WriteFile(filepath.Join(dir, "bridge.yml"), bridge, 0o644); err != nil {
		t.Fatalf("write bridge: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "consumer.yml"), []byte("schema_version: v1\n"), 0o644); err != nil {
		t.Fatalf("write consumer cfg: %v", err)
	}

	cfg, abs, err := LoadBridgeSpec(filepath.Join(dir, "bridge.yml"))
	if err != nil {
		t.Fatalf("LoadBridgeSpec: %v", err)
	}
	if cfg.SchemaVersion != SupportedSchema {
		t.Fatalf("want schema %s, got %s", SupportedSchema, cfg.SchemaVersion)
	}
	if len(cfg.Topics) != 1 || cfg.Topics[0] != "orders" {
		t.Fatalf("topics: got %v", cfg.Topics)
	}
	if abs == "" || !filepath.IsAbs(abs) {
		t.Fatalf("want absolute consumer config path, got %q", abs)
	}
}

func TestLoadBridgeSpec_InvalidSchema(t *testing.T) {
	dir := t.TempDir()
	bridge := []byte(`schema_version: v999
consumer: { driver: sarama, config: cf.yml }
topics: [orders]
`)
	if err := os.WriteFile(filepath.Join(dir, "bridge.yml"), bridge, 0o644); err != nil {
		t.Fatalf("write bridge: %v", err)
	}
	if _, _, err := LoadBridgeSpec(filepath.Join(dir, "bridge.yml")); err == nil {
		t.Fatal("expected error for invalid schema_version")
	}
}
