package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() failed: %v", err)
	}

	if _, err := store.Load(StorageKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() on empty store error = %v, want ErrNotFound", err)
	}

	if err := store.Save(StorageKey, []byte(`[1]`)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := store.Save(StorageKey, []byte(`[2]`)); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}

	got, err := store.Load(StorageKey)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if string(got) != `[2]` {
		t.Errorf("Load() = %s, want [2]", got)
	}

	backup, err := os.ReadFile(store.Path(StorageKey) + BackupSuffix)
	if err != nil {
		t.Fatalf("backup not written: %v", err)
	}
	if string(backup) != `[1]` {
		t.Errorf("backup = %s, want previous version [1]", backup)
	}

	if _, err := os.Stat(store.Path(StorageKey) + TmpSuffix); !os.IsNotExist(err) {
		t.Error("tmp file should be renamed away after save")
	}
}

func TestSQLStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "partyplaner.db")
	store, err := NewSQLStore(DriverPureGo, path)
	if err != nil {
		t.Fatalf("NewSQLStore() failed: %v", err)
	}
	defer store.Close()

	if _, err := store.Load(StorageKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() on empty store error = %v, want ErrNotFound", err)
	}

	for _, value := range []string{`[]`, `[{"id":"x"}]`} {
		if err := store.Save(StorageKey, []byte(value)); err != nil {
			t.Fatalf("Save(%s) failed: %v", value, err)
		}
		got, err := store.Load(StorageKey)
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if string(got) != value {
			t.Errorf("Load() = %s, want %s", got, value)
		}
	}
}

func TestSQLStoreRejectsUnknownDriver(t *testing.T) {
	if _, err := NewSQLStore("postgres", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Error("NewSQLStore() should reject unknown drivers")
	}
}

func TestStoreOnSQLStoreSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partyplaner.db")

	db, err := NewSQLStore(DriverPureGo, path)
	if err != nil {
		t.Fatal(err)
	}
	store := newTestStore(db, nil, nil)
	store.Init(t.Context())
	party, err := store.AddEvent(t.Context(), "2027-06-01", "Sommerfest", "Kahler Asten")
	if err != nil {
		t.Fatalf("AddEvent() failed: %v", err)
	}
	db.Close()

	db, err = NewSQLStore(DriverPureGo, path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	reopened := newTestStore(db, nil, nil)
	reopened.Init(t.Context())

	got := reopened.Parties()
	if len(got) != 1 || got[0] != party {
		t.Errorf("Parties() after restart = %+v, want [%+v]", got, party)
	}
}
