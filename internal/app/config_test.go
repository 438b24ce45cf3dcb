package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.Location().String() != "Europe/Berlin" {
		t.Errorf("Location() = %s, want Europe/Berlin", cfg.Location())
	}
	if cfg.AckDelay() != time.Second {
		t.Errorf("AckDelay() = %v, want 1s", cfg.AckDelay())
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partyplaner.yaml")
	content := `
server:
  port: 9090
storage:
  backend: sqlite
  driver: sqlite
  data_dir: /var/lib/partyplaner
remote:
  location: https://example.org/parties.xml
  format: xml
  policy: merge
  refresh_schedule: "@hourly"
ack:
  transport: none
timezone: UTC
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.Backend != BackendSQLite || cfg.Storage.Driver != DriverPureGo {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Remote.Format != FormatXML || cfg.Remote.Policy != SyncMerge || cfg.Remote.RefreshSchedule != "@hourly" {
		t.Errorf("Remote = %+v", cfg.Remote)
	}
	if cfg.Ack.Transport != AckNone {
		t.Errorf("Ack.Transport = %s, want none", cfg.Ack.Transport)
	}
	// Unset keys keep their defaults
	if cfg.Ack.DelayMS != 1000 {
		t.Errorf("Ack.DelayMS = %d, want default 1000", cfg.Ack.DelayMS)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PARTYPLANER_DATA_DIR", "/tmp/partys")
	t.Setenv("PARTYPLANER_REMOTE", "")
	t.Setenv("AUTH_FILE", "/etc/partyplaner/auth.secret")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Storage.DataDir != "/tmp/partys" {
		t.Errorf("DataDir = %s", cfg.Storage.DataDir)
	}
	if cfg.Remote.Location != "" {
		t.Errorf("Remote.Location = %q, want empty (remote disabled)", cfg.Remote.Location)
	}
	if cfg.Server.AuthFile != "/etc/partyplaner/auth.secret" {
		t.Errorf("AuthFile = %s", cfg.Server.AuthFile)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing config file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("server: [port"), 0644)
	if _, err := LoadConfig(path); err == nil {
		t.Error("malformed YAML should fail")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, ErrInvalidPort},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, ErrInvalidPort},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, ErrInvalidBackend},
		{"unknown driver", func(c *Config) { c.Storage.Backend = BackendSQLite; c.Storage.Driver = "pg" }, ErrInvalidDriver},
		{"no data dir", func(c *Config) { c.Storage.DataDir = "" }, ErrMissingDataDir},
		{"unknown format", func(c *Config) { c.Remote.Format = "yaml" }, ErrInvalidFormatName},
		{"unknown policy", func(c *Config) { c.Remote.Policy = "union" }, ErrInvalidPolicy},
		{"watch url", func(c *Config) { c.Remote.Location = "https://example.org/p.json"; c.Remote.Watch = true }, ErrWatchNeedsFile},
		{"watch nothing", func(c *Config) { c.Remote.Location = ""; c.Remote.Watch = true }, ErrWatchNeedsFile},
		{"unknown ack", func(c *Config) { c.Ack.Transport = "smtp" }, ErrInvalidAck},
		{"caldav without url", func(c *Config) { c.Ack.Transport = AckCalDAV }, ErrMissingCalDAV},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus_Mons" }, ErrInvalidTimezone},
		{"watch local file", func(c *Config) { c.Remote.Watch = true }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
