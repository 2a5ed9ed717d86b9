package sim

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Result is the per-participant outcome reported to the backend when a race
// completes.
type Result struct {
	UserID   string `json:"userId"`
	Position int    `json:"position"`
	Points   int    `json:"points"`
	Tokens   int    `json:"tokens"`
}

// Reporter delivers final results to the backend collaborator. Calls are
// best effort: failures are logged, never retried and never block.
type Reporter interface {
	ReportResults(raceID string, results []Result) error
}

// HistoryStore archives finished races.
type HistoryStore interface {
	SaveRace(state *RaceState) error
}

// Coordinator holds at most one live Simulation per process, fans its state
// updates out to subscribers and archives finished races. It owns the engine
// exclusively; nothing else mutates race state.
type Coordinator struct {
	mu           sync.Mutex
	sim          *Simulation
	store        SnapshotStore
	history      HistoryStore
	reporter     Reporter
	listeners    map[int]func(*RaceState)
	nextListener int
	current      *RaceState
}

func NewCoordinator(store SnapshotStore, history HistoryStore, reporter Reporter) *Coordinator {
	return &Coordinator{
		store:     store,
		history:   history,
		reporter:  reporter,
		listeners: make(map[int]func(*RaceState)),
	}
}

// InitializeRace tears down any existing simulation and builds a new one.
// With no entrants it yields a degenerate empty race in waiting status
// instead of failing.
func (c *Coordinator) InitializeRace(info RaceInfo, entrants []Entrant) {
	c.mu.Lock()
	if c.sim != nil {
		c.sim.Destroy()
		c.sim = nil
	}

	if len(entrants) == 0 {
		c.current = &RaceState{
			ID:           "empty-race",
			Name:         "No Race Available",
			Track:        "Empty Track",
			Status:       StatusWaiting,
			Participants: []*Participant{},
			CurrentLap:   0,
			TotalLaps:    DefaultTotalLaps,
			LapTimes:     map[string][]float64{},
		}
		c.mu.Unlock()
		c.notify()
		return
	}

	s := NewSimulation(info, entrants, c.store)
	s.OnRaceUpdate(func(state *RaceState) {
		c.mu.Lock()
		c.current = state
		c.mu.Unlock()
		c.notify()
	})
	s.OnRaceFinished(c.handleFinished)

	c.sim = s
	c.current = s.GetRaceState()
	c.mu.Unlock()
	c.notify()
}

// handleFinished archives the final state, reports results best-effort and
// clears the live snapshot. The in-process history record is authoritative
// regardless of backend outcome.
func (c *Coordinator) handleFinished(final *RaceState) {
	c.mu.Lock()
	c.current = final
	s := c.sim
	c.mu.Unlock()
	c.notify()

	if c.history != nil {
		if err := c.history.SaveRace(final); err != nil {
			log.Err(err).Str("race", final.ID).Msg("failed to save race to history")
		}
	}

	if c.reporter != nil {
		results := make([]Result, 0, len(final.Participants))
		for _, p := range final.Participants {
			results = append(results, Result{
				UserID:   p.UserID,
				Position: p.Position,
				Points:   p.EarnedPoints,
				Tokens:   p.EarnedTokens,
			})
		}
		if err := c.reporter.ReportResults(final.ID, results); err != nil {
			log.Warn().Err(err).Str("race", final.ID).Msg("failed to persist race results")
		}
	}

	if s != nil {
		s.ClearStoredState()
	}
}

// StartRace begins the countdown on the live simulation, if any.
func (c *Coordinator) StartRace() {
	c.mu.Lock()
	s := c.sim
	c.mu.Unlock()
	if s != nil {
		s.StartRace()
	}
}

// ResetRace discards the live simulation and its stored snapshot.
func (c *Coordinator) ResetRace() {
	c.mu.Lock()
	s := c.sim
	c.sim = nil
	c.current = nil
	c.mu.Unlock()
	if s != nil {
		s.Destroy()
		s.ClearStoredState()
	}
}

// GetRaceState returns the latest known snapshot, nil when no race exists.
func (c *Coordinator) GetRaceState() *RaceState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Subscribe registers a listener and returns its unsubscribe handle. A new
// subscriber is immediately replayed the latest known state if one exists.
func (c *Coordinator) Subscribe(fn func(*RaceState)) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	current := c.current
	c.mu.Unlock()

	if current != nil {
		fn(current)
	}

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Coordinator) notify() {
	c.mu.Lock()
	current := c.current
	fns := make([]func(*RaceState), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	if current == nil {
		return
	}
	for _, fn := range fns {
		fn(current)
	}
}

// Destroy tears down the live simulation and all subscriptions.
func (c *Coordinator) Destroy() {
	c.mu.Lock()
	s := c.sim
	c.sim = nil
	c.current = nil
	c.listeners = make(map[int]func(*RaceState))
	c.mu.Unlock()
	if s != nil {
		s.Destroy()
	}
}
