package client

import (
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
)

func TestParseOptions_Recognized(t *testing.T) {
	opts, err := parseOptions(map[string]string{
		"group.id":                "g1",
		"client.id":               "bridge",
		"auto.offset.reset":       "earliest",
		"enable.auto.commit":      "false",
		"auto.commit.interval.ms": "2500",
		"session.timeout.ms":      "15000",
	})
	if err != nil {
		t.Fatalf("parseOptions: %v", err)
	}
	if opts.groupID != "g1" || opts.clientID != "bridge" {
		t.Fatalf("ids: %+v", opts)
	}
	if opts.initialOffset != sarama.OffsetOldest {
		t.Fatal("auto.offset.reset=earliest must map to OffsetOldest")
	}
	if opts.autoCommit {
		t.Fatal("enable.auto.commit=false not honored")
	}
	if opts.commitInterval != 2500*time.Millisecond {
		t.Fatalf("commit interval: got %v", opts.commitInterval)
	}
	if opts.sessionTimeout != 15*time.Second {
		t.Fatalf("session timeout: got %v", opts.sessionTimeout)
	}
}

func TestParseOptions_Defaults(t *testing.T) {
	opts, err := parseOptions(nil)
	if err != nil {
		t.Fatalf("parseOptions: %v", err)
	}
	if opts.initialOffset != sarama.OffsetNewest {
		t.Fatal("default initial offset must be newest")
	}
	if !opts.autoCommit || opts.commitInterval != 5*time.Second {
		t.Fatalf("default commit settings: %+v", opts)
	}
}

func TestParseOptions_UnknownProperty(t *testing.T) {
	_, err := parseOptions(map[string]string{"bogus.option": "1"})
	if err == nil || !strings.Contains(err.Error(), "unknown configuration property") {
		t.Fatalf("want unknown-property diagnostic, got %v", err)
	}
}

func TestParseOptions_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"auto.offset.reset":       "sideways",
		"enable.auto.commit":      "maybe",
		"auto.commit.interval.ms": "-5",
		"session.timeout.ms":      "soon",
		"broker.version.fallback": "not.a.version",
	}
	for k, v := range cases {
		if _, err := parseOptions(map[string]string{k: v}); err == nil {
			t.Errorf("%s=%s: expected error", k, v)
		}
	}
}

func TestSplitBrokers(t *testing.T) {
	got := splitBrokers(" b1:9092 , ,b2:9092,")
	if len(got) != 2 || got[0] != "b1:9092" || got[1] != "b2:9092" {
		t.Fatalf("splitBrokers: got %v", got)
	}
	if splitBrokers(" , ,") != nil {
		t.Fatal("blank list must yield nil")
	}
}
