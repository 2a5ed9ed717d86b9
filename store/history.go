package store

import (
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/segmentio/ksuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/SusanAcharya/f1-simulation/sim"
)

const maxHistoryEntries = 50 // keep the most recent races only

// RaceHistoryEntry is one archived race.
type RaceHistoryEntry struct {
	ID                string            `json:"id"`
	RaceName          string            `json:"raceName"`
	Track             string            `json:"track"`
	Date              time.Time         `json:"date"`
	TotalLaps         int               `json:"totalLaps"`
	Participants      []sim.Participant `json:"participants"`
	Winner            *sim.Participant  `json:"winner,omitempty"`
	Podium            []sim.Participant `json:"podium"`
	TotalParticipants int               `json:"totalParticipants"`
}

// UserStats aggregates one user's archived results.
type UserStats struct {
	TotalRaces      int     `json:"totalRaces"`
	Wins            int     `json:"wins"`
	Podiums         int     `json:"podiums"`
	TotalPoints     int     `json:"totalPoints"`
	TotalTokens     int     `json:"totalTokens"`
	AveragePosition float64 `json:"averagePosition"`
	BestPosition    int     `json:"bestPosition"`
	DNFCount        int     `json:"dnfCount"`
}

func newHistoryEntry(state *sim.RaceState) RaceHistoryEntry {
	entry := RaceHistoryEntry{
		ID:                state.ID,
		RaceName:          state.Name,
		Track:             state.Track,
		Date:              time.Now().UTC(),
		TotalLaps:         state.TotalLaps,
		Participants:      make([]sim.Participant, 0, len(state.Participants)),
		TotalParticipants: len(state.Participants),
	}
	for _, p := range state.Participants {
		entry.Participants = append(entry.Participants, *p)
		if p.Position == 1 {
			winner := *p
			entry.Winner = &winner
		}
	}
	for pos := 1; pos <= 3; pos++ {
		for _, p := range state.Participants {
			if p.Position == pos {
				entry.Podium = append(entry.Podium, *p)
			}
		}
	}
	return entry
}

// SaveRace archives a finished race, pruning the oldest entries beyond the
// cap. Keys embed a zero-padded nanosecond timestamp so lexical order is
// chronological; the ksuid suffix keeps same-instant keys unique.
func (s *Badger) SaveRace(state *sim.RaceState) error {
	entry := newHistoryEntry(state)
	buf, err := msgpack.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}
	key := []byte(fmt.Sprintf("%s%020d/%s", historyPrefix, time.Now().UnixNano(), ksuid.New().String()))

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, buf); err != nil {
			return err
		}
		return pruneHistory(txn)
	})
}

func pruneHistory(txn *badger.Txn) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	prefix := []byte(historyPrefix)
	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	for len(keys) > maxHistoryEntries {
		if err := txn.Delete(keys[0]); err != nil {
			return err
		}
		keys = keys[1:]
	}
	return nil
}

// ListHistory returns archived races, most recent first.
func (s *Badger) ListHistory() ([]RaceHistoryEntry, error) {
	var entries []RaceHistoryEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(historyPrefix)
		seek := append(append([]byte(nil), prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var e RaceHistoryEntry
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list race history: %w", err)
	}
	return entries, nil
}

// UserHistory returns the archived races a user took part in, most recent
// first.
func (s *Badger) UserHistory(userID string) ([]RaceHistoryEntry, error) {
	all, err := s.ListHistory()
	if err != nil {
		return nil, err
	}
	var entries []RaceHistoryEntry
	for _, e := range all {
		for _, p := range e.Participants {
			if p.UserID == userID {
				entries = append(entries, e)
				break
			}
		}
	}
	return entries, nil
}

// UserStats aggregates a user's archived results.
func (s *Badger) UserStats(userID string) (UserStats, error) {
	races, err := s.UserHistory(userID)
	if err != nil {
		return UserStats{}, err
	}

	var stats UserStats
	best := math.MaxInt
	totalPosition := 0
	for _, race := range races {
		for _, p := range race.Participants {
			if p.UserID != userID {
				continue
			}
			stats.TotalRaces++
			stats.TotalPoints += p.EarnedPoints
			stats.TotalTokens += p.EarnedTokens
			totalPosition += p.Position
			if p.Position == 1 {
				stats.Wins++
			}
			if p.Position <= 3 {
				stats.Podiums++
			}
			if p.DNF {
				stats.DNFCount++
			}
			if p.Position < best {
				best = p.Position
			}
			break
		}
	}
	if stats.TotalRaces > 0 {
		stats.AveragePosition = math.Round(float64(totalPosition)/float64(stats.TotalRaces)*10) / 10
		stats.BestPosition = best
	}
	return stats, nil
}
