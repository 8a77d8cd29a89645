package config

import (
	"os"
	"testing"

	"github.com/meshflow/mediator/state"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	tmp, err := os.CreateTemp("", "mediator-config-*.json")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	if _, err := tmp.Write([]byte(body)); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	tmp.Close()
	t.Cleanup(func() { os.Remove(tmp.Name()) })
	return tmp.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, `{
		"state": {"driver": "sqlite", "dsn": "data/mediator.db"},
		"bus": {"driver": "nats", "url": "nats://localhost:4222"},
		"definitions_dir": "workflows",
		"log": {"level": "debug"},
		"metrics": {"enabled": true, "addr": ":9090"}
	}`)

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if c.State.Driver != "sqlite" || c.State.DSN != "data/mediator.db" {
		t.Errorf("unexpected State: %+v", c.State)
	}
	if c.Bus.Driver != "nats" || c.Bus.URL != "nats://localhost:4222" {
		t.Errorf("unexpected Bus: %+v", c.Bus)
	}
	if c.DefinitionsDir != "workflows" {
		t.Errorf("unexpected DefinitionsDir: %q", c.DefinitionsDir)
	}
	if c.Log.Level != "debug" {
		t.Errorf("unexpected Log: %+v", c.Log)
	}
	if !c.Metrics.Enabled || c.Metrics.Addr != ":9090" {
		t.Errorf("unexpected Metrics: %+v", c.Metrics)
	}
}

func TestLoadConfig_Partial(t *testing.T) {
	path := writeTempConfig(t, `{"state": {"driver": "sqlite", "dsn": "u"}}`)

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if c.State.Driver != "sqlite" || c.State.DSN != "u" {
		t.Errorf("unexpected State: %+v", c.State)
	}
	if c.Bus.Driver != "" {
		t.Errorf("expected zero Bus, got %+v", c.Bus)
	}
}

func TestLoadConfig_FileNotExist(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/path/config.json"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeTempConfig(t, "not a json")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for invalid JSON, got nil")
	}
}

func TestWithDefaults(t *testing.T) {
	c := Config{}.WithDefaults()
	if c.State.Driver != "memory" {
		t.Errorf("expected default state driver memory, got %q", c.State.Driver)
	}
	if c.Bus.Driver != "memory" {
		t.Errorf("expected default bus driver memory, got %q", c.Bus.Driver)
	}
	if c.DefinitionsDir != DefaultDefinitionsDir {
		t.Errorf("expected default definitions dir, got %q", c.DefinitionsDir)
	}
	if c.Log.Level != "production" {
		t.Errorf("expected default log level, got %q", c.Log.Level)
	}
}

func TestWithDefaults_SqliteGetsDefaultDSN(t *testing.T) {
	c := Config{State: state.Config{Driver: "sqlite"}}.WithDefaults()
	if c.State.DSN != DefaultSQLiteDSN {
		t.Errorf("expected default sqlite dsn, got %q", c.State.DSN)
	}
}
