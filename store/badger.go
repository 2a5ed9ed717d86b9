package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/SusanAcharya/f1-simulation/sim"
)

const (
	liveRaceKey   = "race/live"
	historyPrefix = "history/"
)

// Badger backs both persistence ports: the single live-race snapshot slot
// and the race-history store. Values are msgpack, keys are entity-prefixed.
type Badger struct {
	db *badger.DB
}

func Open(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return &Badger{db: db}, nil
}

// OpenInMemory is for tests.
func OpenInMemory() (*Badger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory db: %w", err)
	}
	return &Badger{db: db}, nil
}

// Close compacts and shuts the database down.
func (s *Badger) Close() error {
	if err := s.db.Flatten(4); err != nil {
		log.Warn().Err(err).Msg("flatten on close")
	}
	if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		log.Warn().Err(err).Msg("value log gc on close")
	}
	return s.db.Close()
}

// Load returns the stored live-race snapshot, or (nil, nil) when the slot is
// empty. Unreadable data is reported as an error for the caller to treat as
// "no snapshot".
func (s *Badger) Load() (*sim.RaceState, error) {
	var state sim.RaceState
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(liveRaceKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &state)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load race snapshot: %w", err)
	}
	return &state, nil
}

func (s *Badger) Save(state *sim.RaceState) error {
	buf, err := msgpack.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal race snapshot: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(liveRaceKey), buf)
	})
}

func (s *Badger) Clear() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(liveRaceKey))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}
