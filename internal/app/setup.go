package app

import (
	"fmt"
	"log"
	"path/filepath"
)

// OpenPersister opens the configured storage backend.
// The returned close function is never nil.
func OpenPersister(cfg *Config) (Persister, func() error, error) {
	switch cfg.Storage.Backend {
	case BackendSQLite:
		path := filepath.Join(cfg.Storage.DataDir, "partyplaner.db")
		store, err := NewSQLStore(cfg.Storage.Driver, path)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Storage: SQLite %s (driver %s)", path, cfg.Storage.Driver)
		return store, store.Close, nil
	default:
		store, err := NewFileStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Storage: %s", store.Path(StorageKey))
		return store, func() error { return nil }, nil
	}
}

// NewAcknowledger builds the configured acknowledgement transport (nil for none)
func NewAcknowledger(cfg *Config) (Acknowledger, error) {
	switch cfg.Ack.Transport {
	case AckNone:
		return nil, nil
	case AckCalDAV:
		c := cfg.Ack.CalDAV
		ack, err := NewCalDAVAcknowledger(c.URL, c.Username, c.Password, c.Calendar, cfg.Location())
		if err != nil {
			return nil, fmt.Errorf("caldav: %w", err)
		}
		return ack, nil
	default:
		return SimulatedAcknowledger{Delay: cfg.AckDelay()}, nil
	}
}

// OpenStore wires a Store from cfg. Init has not been called yet.
func OpenStore(cfg *Config) (*Store, func() error, error) {
	persister, closeFn, err := OpenPersister(cfg)
	if err != nil {
		return nil, nil, err
	}

	remote, err := NewRemoteSource(cfg.Remote.Location, cfg.Remote.Format, cfg.Location())
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	ack, err := NewAcknowledger(cfg)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	store := NewStore(StoreOptions{
		Persister:    persister,
		Remote:       remote,
		Acknowledger: ack,
		SyncPolicy:   cfg.Remote.Policy,
		Location:     cfg.Location(),
	})
	return store, closeFn, nil
}
