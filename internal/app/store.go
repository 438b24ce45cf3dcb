package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// StorageKey is the persistence key of the party list
const StorageKey = "parties"

// Sync policies applied when the remote document is fetched
const (
	// SyncReplace treats the remote document as the source of truth
	SyncReplace = "replace"
	// SyncMerge keeps local-only parties and lets remote records win by ID
	SyncMerge = "merge"
)

// StoreOptions configures a Store
type StoreOptions struct {
	Persister    Persister
	Remote       RemoteSource // optional
	Acknowledger Acknowledger // optional
	SyncPolicy   string
	Location     *time.Location
	Now          func() time.Time
}

// Store owns the party list and keeps it sorted, persisted and rendered
type Store struct {
	mu      sync.Mutex
	parties []Party

	persister  Persister
	remote     RemoteSource
	ack        Acknowledger
	policy     string
	loc        *time.Location
	now        func() time.Time
	observers  []func(View)
	pendingAck sync.WaitGroup
}

// NewStore creates a store. Call Init before use.
func NewStore(opts StoreOptions) *Store {
	s := &Store{
		parties:   []Party{},
		persister: opts.Persister,
		remote:    opts.Remote,
		ack:       opts.Acknowledger,
		policy:    opts.SyncPolicy,
		loc:       opts.Location,
		now:       opts.Now,
	}
	if s.policy == "" {
		s.policy = SyncReplace
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Subscribe registers fn to receive a fresh View after every change
func (s *Store) Subscribe(fn func(View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Init loads the persisted list, refreshes it from the remote document
// once and renders the result. A failed refresh keeps the local list.
func (s *Store) Init(ctx context.Context) {
	s.mu.Lock()
	s.parties = s.loadLocked()
	s.sortLocked()
	s.mu.Unlock()

	if s.remote != nil {
		if err := s.FetchRemote(ctx); err != nil {
			log.Printf("There was a problem with the fetch operation: %v", err)
		}
	}

	s.mu.Lock()
	s.renderLocked()
	s.mu.Unlock()
}

// loadLocked returns the persisted list, or an empty one if there is none
func (s *Store) loadLocked() []Party {
	data, err := s.persister.Load(StorageKey)
	if errors.Is(err, ErrNotFound) {
		return []Party{}
	}
	if err != nil {
		log.Printf("⚠️  Failed to load persisted parties: %v", err)
		return []Party{}
	}

	var parties []Party
	if err := json.Unmarshal(data, &parties); err != nil {
		log.Printf("⚠️  Persisted parties are not valid JSON, starting empty: %v", err)
		return []Party{}
	}
	if parties == nil {
		parties = []Party{}
	}
	ensureIDs(parties)
	return parties
}

// FetchRemote syncs the list from the remote document. On error nothing changes.
func (s *Store) FetchRemote(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}
	fetched, err := s.remote.Fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := fetched
	if s.policy == SyncMerge {
		next = mergeByID(s.parties, fetched)
	}
	if next == nil {
		next = []Party{}
	}
	if err := s.commitLocked(next); err != nil {
		return err
	}
	log.Printf("✅ Synced %d parties from remote (%s)", len(s.parties), s.policy)
	return nil
}

// mergeByID overlays remote on local: matching IDs take the remote record,
// local-only parties are kept
func mergeByID(local, remote []Party) []Party {
	index := make(map[string]int, len(remote))
	merged := make([]Party, 0, len(local)+len(remote))
	for _, p := range remote {
		index[p.ID] = len(merged)
		merged = append(merged, p)
	}
	for _, p := range local {
		if _, ok := index[p.ID]; !ok {
			merged = append(merged, p)
		}
	}
	return merged
}

// AddEvent adds a party dated strictly in the future
func (s *Store) AddEvent(ctx context.Context, date, description, location string) (Party, error) {
	when, err := ParseDate(date, s.loc)
	if err != nil {
		return Party{}, &ValidationError{Field: "date", Message: ErrInvalidDateFormat}
	}
	if !when.After(s.now()) {
		return Party{}, &ValidationError{Field: "date", Message: ErrDateNotInFuture}
	}

	party := NewParty(date, description, location)

	s.mu.Lock()
	next := make([]Party, len(s.parties), len(s.parties)+1)
	copy(next, s.parties)
	next = append(next, party)
	if err := s.commitLocked(next); err != nil {
		s.mu.Unlock()
		return Party{}, err
	}
	s.mu.Unlock()

	s.acknowledge(ctx, "add", party, s.submitCreate)
	return party, nil
}

// DeleteEvent removes the party at index
func (s *Store) DeleteEvent(ctx context.Context, index int) (Party, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.parties) {
		s.mu.Unlock()
		return Party{}, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(s.parties))
	}
	removed, err := s.removeLocked(index)
	s.mu.Unlock()
	if err != nil {
		return Party{}, err
	}

	s.acknowledge(ctx, "delete", removed, s.submitDelete)
	return removed, nil
}

// DeleteByID removes the party with the given identifier
func (s *Store) DeleteByID(ctx context.Context, id string) (Party, error) {
	s.mu.Lock()
	index := -1
	for i, p := range s.parties {
		if p.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		s.mu.Unlock()
		return Party{}, fmt.Errorf("%w: %s", ErrPartyNotFound, id)
	}
	removed, err := s.removeLocked(index)
	s.mu.Unlock()
	if err != nil {
		return Party{}, err
	}

	s.acknowledge(ctx, "delete", removed, s.submitDelete)
	return removed, nil
}

func (s *Store) removeLocked(index int) (Party, error) {
	removed := s.parties[index]
	next := make([]Party, 0, len(s.parties)-1)
	next = append(next, s.parties[:index]...)
	next = append(next, s.parties[index+1:]...)
	if err := s.commitLocked(next); err != nil {
		return Party{}, err
	}
	return removed, nil
}

// Parties returns a copy of the current list
func (s *Store) Parties() []Party {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Party, len(s.parties))
	copy(out, s.parties)
	return out
}

// View returns the current view description
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BuildView(s.parties, s.now(), s.loc)
}

// Wait blocks until all pending acknowledgements have finished
func (s *Store) Wait() {
	s.pendingAck.Wait()
}

// commitLocked sorts next, persists it and only then makes it current.
// On a persistence error the current list stays as it was.
func (s *Store) commitLocked(next []Party) error {
	sortParties(next, s.loc)
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode parties: %w", err)
	}
	if err := s.persister.Save(StorageKey, data); err != nil {
		return fmt.Errorf("%s: %w", ErrFailedToSave, err)
	}
	s.parties = next
	s.renderLocked()
	return nil
}

func (s *Store) sortLocked() {
	sortParties(s.parties, s.loc)
}

func (s *Store) renderLocked() {
	if len(s.observers) == 0 {
		return
	}
	view := BuildView(s.parties, s.now(), s.loc)
	for _, fn := range s.observers {
		fn(view)
	}
}

func (s *Store) submitCreate(ctx context.Context, p Party) error {
	return s.ack.SubmitCreate(ctx, p)
}

func (s *Store) submitDelete(ctx context.Context, p Party) error {
	return s.ack.SubmitDelete(ctx, p)
}

// acknowledge runs submit in the background and logs its outcome
func (s *Store) acknowledge(ctx context.Context, op string, p Party, submit func(context.Context, Party) error) {
	if s.ack == nil {
		return
	}
	// The request that triggered the change may finish before the acknowledgement does
	ctx = context.WithoutCancel(ctx)

	s.pendingAck.Add(1)
	go func() {
		defer s.pendingAck.Done()
		if err := submit(ctx, p); err != nil {
			log.Printf("Error acknowledging %s of party %s: %v", op, p.ID, err)
			return
		}
		log.Printf("Party %s acknowledged by server and local: %s %q", op, p.Date, p.Description)
	}()
}

var farFuture = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// sortParties sorts ascending by parsed date, keeping the relative order of ties.
// Unparseable dates sort last.
func sortParties(parties []Party, loc *time.Location) {
	keys := make(map[string]time.Time, len(parties))
	for _, p := range parties {
		if _, ok := keys[p.Date]; ok {
			continue
		}
		t, err := ParseDate(p.Date, loc)
		if err != nil {
			t = farFuture
		}
		keys[p.Date] = t
	}
	sort.SliceStable(parties, func(i, j int) bool {
		return keys[parties[i].Date].Before(keys[parties[j].Date])
	})
}
