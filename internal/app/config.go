package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Constants
const (
	BackupSuffix    = ".backup"
	TmpSuffix       = ".tmp"
	FilePermissions = 0644

	// Error messages
	ErrInvalidDateFormat = "Ungültiges Datum"
	ErrDateNotInFuture   = "Das Datum muss in der Zukunft liegen."
	ErrInvalidRequest    = "Invalid request"
	ErrInvalidFormat     = "Invalid format"
	ErrInternalServer    = "Internal server error"
	ErrFailedToSave      = "Failed to save parties"
	ErrFailedToRefresh   = "Failed to refresh parties"

	// ICS constants
	ICSProductID = "-//Winterberg//Partyplaner//DE"
	ICSUIDDomain = "partyplaner.winterberg.de"
)

// Persistence backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Acknowledgement transports
const (
	AckSimulated = "simulated"
	AckCalDAV    = "caldav"
	AckNone      = "none"
)

// Configuration validation errors.
var (
	ErrInvalidPort       = errors.New("server.port must be between 1 and 65535")
	ErrInvalidBackend    = errors.New("storage.backend must be 'file' or 'sqlite'")
	ErrInvalidDriver     = errors.New("storage.driver must be 'sqlite3' or 'sqlite'")
	ErrMissingDataDir    = errors.New("storage.data_dir is required")
	ErrInvalidFormatName = errors.New("remote.format must be 'json' or 'xml'")
	ErrInvalidPolicy     = errors.New("remote.policy must be 'replace' or 'merge'")
	ErrInvalidAck        = errors.New("ack.transport must be 'simulated', 'caldav' or 'none'")
	ErrMissingCalDAV     = errors.New("ack.caldav.url and ack.caldav.calendar are required")
	ErrInvalidTimezone   = errors.New("timezone is not a known location")
	ErrWatchNeedsFile    = errors.New("remote.watch requires a local file document")
)

// Config represents the complete service configuration.
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Storage  StorageConfig `yaml:"storage"`
	Remote   RemoteConfig  `yaml:"remote"`
	Ack      AckConfig     `yaml:"ack"`
	Timezone string        `yaml:"timezone"`
}

// ServerConfig contains HTTP settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	AuthFile string `yaml:"auth_file"`
}

// StorageConfig selects where the party list is persisted.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Driver  string `yaml:"driver"`
	DataDir string `yaml:"data_dir"`
}

// RemoteConfig describes the document the list is synced from.
type RemoteConfig struct {
	Location        string `yaml:"location"`
	Format          string `yaml:"format"`
	Policy          string `yaml:"policy"`
	RefreshSchedule string `yaml:"refresh_schedule"`
	Watch           bool   `yaml:"watch"`
}

// AckConfig selects how changes are acknowledged to a remote service.
type AckConfig struct {
	Transport string       `yaml:"transport"`
	DelayMS   int          `yaml:"delay_ms"`
	CalDAV    CalDAVConfig `yaml:"caldav"`
}

// CalDAVConfig holds CalDAV server credentials.
type CalDAVConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Calendar string `yaml:"calendar"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Storage: StorageConfig{
			Backend: BackendFile,
			Driver:  DriverCGO,
			DataDir: "data",
		},
		Remote: RemoteConfig{
			Location: "parties.json",
			Format:   FormatJSON,
			Policy:   SyncReplace,
		},
		Ack: AckConfig{
			Transport: AckSimulated,
			DelayMS:   int(DefaultAckDelay / time.Millisecond),
		},
		Timezone: "Europe/Berlin",
	}
}

// LoadConfig reads a YAML file over the defaults and applies environment overrides.
// An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PARTYPLANER_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v, ok := os.LookupEnv("PARTYPLANER_REMOTE"); ok {
		c.Remote.Location = v
	}
	if v := os.Getenv("AUTH_FILE"); v != "" {
		c.Server.AuthFile = v
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}

	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		return ErrInvalidBackend
	}
	if c.Storage.Backend == BackendSQLite && c.Storage.Driver != DriverCGO && c.Storage.Driver != DriverPureGo {
		return ErrInvalidDriver
	}
	if c.Storage.DataDir == "" {
		return ErrMissingDataDir
	}

	switch c.Remote.Format {
	case "", FormatJSON, FormatXML:
	default:
		return ErrInvalidFormatName
	}
	switch c.Remote.Policy {
	case "", SyncReplace, SyncMerge:
	default:
		return ErrInvalidPolicy
	}
	if c.Remote.Watch && (c.Remote.Location == "" || !(document{location: c.Remote.Location}).IsFile()) {
		return ErrWatchNeedsFile
	}

	switch c.Ack.Transport {
	case "", AckSimulated, AckNone:
	case AckCalDAV:
		if c.Ack.CalDAV.URL == "" || c.Ack.CalDAV.Calendar == "" {
			return ErrMissingCalDAV
		}
	default:
		return ErrInvalidAck
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimezone, c.Timezone)
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// AckDelay returns the simulated acknowledgement latency.
func (c *Config) AckDelay() time.Duration {
	return time.Duration(c.Ack.DelayMS) * time.Millisecond
}
