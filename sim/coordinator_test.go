package sim

import (
	"errors"
	"math/rand"
	"testing"
)

type fakeHistory struct {
	saved []*RaceState
	err   error
}

func (f *fakeHistory) SaveRace(state *RaceState) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, state)
	return nil
}

type fakeReporter struct {
	raceID  string
	results []Result
	calls   int
	err     error
}

func (f *fakeReporter) ReportResults(raceID string, results []Result) error {
	f.calls++
	f.raceID = raceID
	f.results = results
	return f.err
}

func TestCoordinatorEmptyRace(t *testing.T) {
	c := NewCoordinator(&memStore{}, nil, nil)
	c.InitializeRace(RaceInfo{}, nil)
	defer c.Destroy()

	state := c.GetRaceState()
	if state == nil {
		t.Fatalf("expected degenerate empty race, got nil")
	}
	if state.ID != "empty-race" || state.Status != StatusWaiting {
		t.Fatalf("empty race = %q/%q, want empty-race/waiting", state.ID, state.Status)
	}
	if len(state.Participants) != 0 {
		t.Fatalf("empty race has %d participants, want 0", len(state.Participants))
	}
}

func TestCoordinatorSubscribeReplayAndUnsubscribe(t *testing.T) {
	c := NewCoordinator(&memStore{}, nil, nil)
	defer c.Destroy()
	c.InitializeRace(RaceInfo{ID: "race-sub"}, make([]Entrant, 2))

	var got []*RaceState
	unsubscribe := c.Subscribe(func(state *RaceState) {
		got = append(got, state)
	})
	if len(got) != 1 {
		t.Fatalf("new subscriber replayed %d states, want 1", len(got))
	}
	if got[0].ID != "race-sub" {
		t.Fatalf("replayed state id = %q, want race-sub", got[0].ID)
	}

	unsubscribe()
	c.InitializeRace(RaceInfo{ID: "race-other"}, make([]Entrant, 2))
	if len(got) != 1 {
		t.Fatalf("unsubscribed listener still notified, saw %d states", len(got))
	}
}

func TestCoordinatorFinishFlow(t *testing.T) {
	ms := &memStore{}
	history := &fakeHistory{}
	reporter := &fakeReporter{}
	c := NewCoordinator(ms, history, reporter)
	defer c.Destroy()

	c.InitializeRace(RaceInfo{ID: "race-finish", TotalLaps: 1}, make([]Entrant, 3))

	var finishedSeen bool
	c.Subscribe(func(state *RaceState) {
		if state.Status == StatusFinished {
			finishedSeen = true
		}
	})

	s := c.sim
	s.rng = rand.New(rand.NewSource(9))
	s.mu.Lock()
	s.state.Status = StatusRacing
	s.mu.Unlock()

	maxTicks := int(MaxLapMs/TickMs) + 10
	for tick := 0; tick < maxTicks && c.GetRaceState().Status != StatusFinished; tick++ {
		s.advance(TickMs)
	}

	final := c.GetRaceState()
	if final.Status != StatusFinished {
		t.Fatalf("race did not finish")
	}
	if !finishedSeen {
		t.Fatalf("subscriber never observed finished state")
	}

	if len(history.saved) != 1 {
		t.Fatalf("history saved %d races, want 1", len(history.saved))
	}
	if reporter.calls != 1 {
		t.Fatalf("reporter called %d times, want 1", reporter.calls)
	}
	if reporter.raceID != "race-finish" {
		t.Fatalf("reported race id = %q, want race-finish", reporter.raceID)
	}
	if len(reporter.results) != 3 {
		t.Fatalf("reported %d results, want 3", len(reporter.results))
	}
	for _, res := range reporter.results {
		points, tokens := calculatePointsAndTokens(res.Position)
		if res.Points != points || res.Tokens != tokens {
			t.Fatalf("result for position %d carries %d/%d, want %d/%d", res.Position, res.Points, res.Tokens, points, tokens)
		}
	}

	if ms.stored() != nil {
		t.Fatalf("live snapshot not cleared after race completion")
	}
}

func TestCoordinatorReporterFailureIsNonFatal(t *testing.T) {
	ms := &memStore{}
	history := &fakeHistory{}
	reporter := &fakeReporter{err: errors.New("backend down")}
	c := NewCoordinator(ms, history, reporter)
	defer c.Destroy()

	c.InitializeRace(RaceInfo{ID: "race-flaky", TotalLaps: 1}, make([]Entrant, 2))
	s := c.sim
	s.rng = rand.New(rand.NewSource(11))
	s.mu.Lock()
	s.state.Status = StatusRacing
	s.mu.Unlock()

	maxTicks := int(MaxLapMs/TickMs) + 10
	for tick := 0; tick < maxTicks && c.GetRaceState().Status != StatusFinished; tick++ {
		s.advance(TickMs)
	}

	if c.GetRaceState().Status != StatusFinished {
		t.Fatalf("race did not finish")
	}
	// Local history is authoritative regardless of backend outcome.
	if len(history.saved) != 1 {
		t.Fatalf("history saved %d races, want 1", len(history.saved))
	}
	if ms.stored() != nil {
		t.Fatalf("snapshot not cleared after failed report")
	}
}

func TestCoordinatorResetClearsState(t *testing.T) {
	ms := &memStore{}
	c := NewCoordinator(ms, nil, nil)
	c.InitializeRace(RaceInfo{ID: "race-reset"}, make([]Entrant, 2))

	s := c.sim
	s.mu.Lock()
	s.state.Status = StatusRacing
	s.mu.Unlock()
	s.advance(TickMs)
	if ms.stored() == nil {
		t.Fatalf("expected stored snapshot before reset")
	}

	c.ResetRace()
	if c.GetRaceState() != nil {
		t.Fatalf("race state not nil after reset")
	}
	if ms.stored() != nil {
		t.Fatalf("stored snapshot not cleared by reset")
	}
}
