package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SnapshotStore is the persistence port for the single live-race slot.
// Load returns (nil, nil) when no snapshot is stored.
type SnapshotStore interface {
	Load() (*RaceState, error)
	Save(*RaceState) error
	Clear() error
}

type eventKind int

const (
	evLapComplete eventKind = iota
	evPositionChange
	evFinished
	evUpdate
)

// event is a queued callback invocation. Events are collected while the
// engine lock is held and dispatched after it is released, preserving
// within-tick order.
type event struct {
	kind          eventKind
	participantID string
	lap           int
	lapTimeMs     float64
	position      int
	state         *RaceState
}

// Simulation owns one race: the tick loop, progress accumulation, ordering,
// finish detection and rewards. All mutation happens under mu; observers
// only ever see post-tick deep copies.
type Simulation struct {
	mu            sync.Mutex
	state         *RaceState
	store         SnapshotStore
	rng           *rand.Rand
	finishCounter int

	lastUpdate time.Time
	quit       chan struct{}
	running    bool
	countdown  *time.Timer

	onUpdate         func(*RaceState)
	onLapComplete    func(participantID string, lap int, lapTimeMs float64)
	onPositionChange func(participantID string, position int)
	onFinished       func(*RaceState)
}

// NewSimulation builds a race from the given descriptor and entrants. If the
// store holds a snapshot that is still racing and younger than
// SnapshotMaxAge it is adopted instead and the tick loop resumes from it;
// otherwise the snapshot is discarded.
func NewSimulation(info RaceInfo, entrants []Entrant, store SnapshotStore) *Simulation {
	s := &Simulation{
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if saved := s.loadSnapshot(); saved != nil {
		s.state = saved
		s.rehydrate()
		log.Info().Str("race", saved.ID).Msg("resuming existing race")
		s.startSimulation()
		return s
	}

	s.state = newRaceState(info, entrants)
	return s
}

// loadSnapshot returns a stored racing-state snapshot if it passes the
// freshness gate, clearing anything stale. Load failures read as "no
// snapshot"; they never propagate.
func (s *Simulation) loadSnapshot() *RaceState {
	if s.store == nil {
		return nil
	}
	saved, err := s.store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load race snapshot")
		return nil
	}
	if saved == nil {
		return nil
	}
	fresh := saved.StartTime > 0 &&
		time.Since(time.UnixMilli(saved.StartTime)) < SnapshotMaxAge
	if saved.Status != StatusRacing || !fresh {
		if err := s.store.Clear(); err != nil {
			log.Warn().Err(err).Msg("failed to clear stale race snapshot")
		}
		return nil
	}
	return saved
}

// rehydrate recomputes derived fields a snapshot may lack: per-lap timing
// and the finish counter.
func (s *Simulation) rehydrate() {
	for _, p := range s.state.Participants {
		if p.FinishOrder > s.finishCounter {
			s.finishCounter = p.FinishOrder
		}
		if p.Retired || p.Finished {
			continue
		}
		if p.CurrentLapPlannedMs <= 0 {
			p.CurrentLapPlannedMs = effectiveLapMs(p, s.rng)
		}
		if p.CurrentLapElapsedMs <= 0 && p.LapProgress > 0 {
			elapsed := p.LapProgress / 100 * p.CurrentLapPlannedMs
			p.CurrentLapElapsedMs = math.Max(0, math.Min(p.CurrentLapPlannedMs, elapsed))
		}
	}
	if s.state.LapTimes == nil {
		s.state.LapTimes = make(map[string][]float64)
		for _, p := range s.state.Participants {
			s.state.LapTimes[p.ID] = append([]float64(nil), p.LapTimes...)
		}
	}
}

// StartRace begins the countdown and flips to racing once it elapses.
func (s *Simulation) StartRace() {
	s.mu.Lock()
	if s.state.Status != StatusWaiting {
		s.mu.Unlock()
		return
	}
	s.state.Status = StatusCountdown
	s.state.StartTime = time.Now().UnixMilli()
	s.countdown = time.AfterFunc(CountdownDuration, s.finishCountdown)
	events := []event{{kind: evUpdate, state: s.state.Clone()}}
	s.mu.Unlock()
	s.dispatch(events)
}

func (s *Simulation) finishCountdown() {
	s.mu.Lock()
	if s.state.Status != StatusCountdown {
		s.mu.Unlock()
		return
	}
	s.state.Status = StatusRacing
	s.state.StartTime = time.Now().UnixMilli()
	s.startSimulation()
	events := []event{{kind: evUpdate, state: s.state.Clone()}}
	s.mu.Unlock()
	s.dispatch(events)
}

// StartRaceImmediately skips the countdown.
func (s *Simulation) StartRaceImmediately() {
	s.mu.Lock()
	if s.state.Status != StatusWaiting {
		s.mu.Unlock()
		return
	}
	s.state.Status = StatusRacing
	s.state.StartTime = time.Now().UnixMilli()
	s.startSimulation()
	events := []event{{kind: evUpdate, state: s.state.Clone()}}
	s.mu.Unlock()
	s.dispatch(events)
}

// startSimulation launches the scheduler goroutine. Caller holds mu.
func (s *Simulation) startSimulation() {
	if s.running {
		return
	}
	s.running = true
	s.lastUpdate = time.Now()
	s.quit = make(chan struct{})
	go s.run(s.quit)
}

// run polls faster than the logical tick and fires a tick only once a full
// tick's worth of wall-clock time has accumulated, so irregular scheduling
// can neither skip nor double-count simulated time.
func (s *Simulation) run(quit chan struct{}) {
	ticker := time.NewTicker(SchedulerInterval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case now := <-ticker.C:
			if !s.tick(now) {
				return
			}
		}
	}
}

func (s *Simulation) tick(now time.Time) bool {
	s.mu.Lock()
	if !s.running || s.state.Status != StatusRacing {
		s.running = false
		s.mu.Unlock()
		return false
	}
	delta := now.Sub(s.lastUpdate)
	if float64(delta.Milliseconds()) < TickMs {
		s.mu.Unlock()
		return true
	}
	s.lastUpdate = now
	events := s.step(float64(delta.Milliseconds()))
	s.mu.Unlock()
	s.dispatch(events)
	return true
}

// step advances one logical tick. Caller holds mu.
func (s *Simulation) step(deltaMs float64) []event {
	var events []event

	for _, p := range s.state.Participants {
		if p.Retired || p.Finished {
			continue
		}

		if p.CurrentLapPlannedMs <= 0 {
			p.CurrentLapPlannedMs = effectiveLapMs(p, s.rng)
			p.CurrentLapElapsedMs = 0
		}

		// Re-evaluated every tick so mid-lap resource depletion slows the
		// driver organically.
		eff := effectiveLapMs(p, s.rng)
		p.CurrentEffectiveLapMs = eff
		progressIncrement := deltaMs / eff * 100

		if p.CurrentLap > DNFEligibleLap {
			if s.rng.Float64() < tickDNFProbability(p, s.rng) {
				p.Retired = true
				p.DNF = true
				log.Info().Str("participant", p.Username).Int("lap", p.CurrentLap).Msg("retired from race")
				continue
			}
		}

		p.LapProgress += progressIncrement
		p.CurrentLapElapsedMs += deltaMs

		if p.LapProgress >= 100 {
			events = append(events, s.completeLap(p)...)
		}

		p.LapTime = formatLapMs(p.CurrentLapElapsedMs)
	}

	s.updatePositions(&events)
	s.checkRaceFinish(&events)
	s.saveState()

	events = append(events, event{kind: evUpdate, state: s.state.Clone()})
	return events
}

func (s *Simulation) completeLap(p *Participant) []event {
	lapTime := p.CurrentLapElapsedMs

	p.LapTimes = append(p.LapTimes, lapTime)
	s.state.LapTimes[p.ID] = append(s.state.LapTimes[p.ID], lapTime)

	if p.BestLap == ZeroTime || lapTime < parseLapMs(p.BestLap) {
		p.BestLap = formatLapMs(lapTime)
	}

	p.CurrentLap++
	p.LapProgress = 0
	p.LastLapTime = lapTime
	p.TotalTime = formatLapMs(p.totalLapMs())
	p.CurrentLapPlannedMs = effectiveLapMs(p, s.rng)
	p.CurrentLapElapsedMs = 0

	events := []event{{
		kind:          evLapComplete,
		participantID: p.ID,
		lap:           p.CurrentLap - 1,
		lapTimeMs:     lapTime,
	}}

	if p.CurrentLap > s.state.TotalLaps {
		p.Finished = true
		p.CurrentLap = s.state.TotalLaps
		p.LapProgress = 100
		s.finishCounter++
		p.FinishOrder = s.finishCounter
	}
	return events
}

// lessRank is the ranking comparator: finishers first by finish order, then
// active ahead of retired, then laps, progress (with tieband), best lap,
// cumulative time.
func lessRank(a, b *Participant) bool {
	if a.Finished != b.Finished {
		return a.Finished
	}
	if a.Finished && b.Finished {
		return finishOrderKey(a) < finishOrderKey(b)
	}

	if a.Retired != b.Retired {
		return !a.Retired
	}
	if a.Retired && b.Retired {
		return a.CurrentLap < b.CurrentLap
	}

	if a.CurrentLap != b.CurrentLap {
		return a.CurrentLap > b.CurrentLap
	}
	if math.Abs(a.LapProgress-b.LapProgress) > ProgressTieband {
		return a.LapProgress > b.LapProgress
	}
	aBest, bBest := a.bestLapMs(), b.bestLapMs()
	if aBest != bBest {
		return aBest < bBest
	}
	return a.totalLapMs() < b.totalLapMs()
}

func finishOrderKey(p *Participant) int {
	if p.FinishOrder == 0 {
		return math.MaxInt
	}
	return p.FinishOrder
}

// updatePositions resorts the whole field, assigns positions and recomputes
// gaps to the leader. Caller holds mu.
func (s *Simulation) updatePositions(events *[]event) {
	if len(s.state.Participants) == 0 {
		return
	}

	sorted := append([]*Participant(nil), s.state.Participants...)
	sort.SliceStable(sorted, func(i, j int) bool { return lessRank(sorted[i], sorted[j]) })

	leader := sorted[0]
	s.state.CurrentLap = leader.CurrentLap

	for i, p := range sorted {
		position := i + 1
		if position != p.Position {
			p.Position = position
			*events = append(*events, event{
				kind:          evPositionChange,
				participantID: p.ID,
				position:      position,
			})
		}

		if position == 1 {
			p.Gap = GapNone
			continue
		}
		gap := gapToLeader(p, leader)
		if math.IsNaN(gap) {
			p.Gap = GapNone
		} else {
			p.Gap = fmt.Sprintf("+%.3f", gap)
		}
	}
}

// gapToLeader estimates the time gap in seconds using the trailing
// participant's own pace, not the leader's. A slower car's gap grows
// faster per unit of progress difference. NaN marks a gap with no
// meaningful value.
func gapToLeader(p, leader *Participant) float64 {
	if p.Retired || p.DNF {
		return math.NaN()
	}
	if leader.Finished && !p.Finished {
		return math.NaN()
	}
	if p.CurrentLap < leader.CurrentLap {
		// A full lap or more behind.
		return math.NaN()
	}

	effective := p.CurrentEffectiveLapMs
	if effective <= 0 {
		effective = p.CurrentLapPlannedMs
	}
	if effective <= 0 {
		effective = MaxLapMs
	}
	progressDiff := leader.LapProgress - p.LapProgress
	return progressDiff / 100 * effective / 1000
}

// checkRaceFinish transitions to finished once every participant is retired
// or done, freezing the ordering and paying out rewards. Caller holds mu.
func (s *Simulation) checkRaceFinish(events *[]event) {
	if s.state.Status != StatusRacing {
		return
	}
	for _, p := range s.state.Participants {
		if !p.Retired && !p.Finished && p.CurrentLap <= s.state.TotalLaps {
			return
		}
	}

	s.state.Status = StatusFinished
	s.state.EndTime = time.Now().UnixMilli()
	s.updatePositions(events)
	s.assignPointsAndTokens()
	log.Info().Str("race", s.state.ID).Msg("race finished")

	*events = append(*events, event{kind: evFinished, state: s.state.Clone()})
}

// calculatePointsAndTokens is the pure payout lookup for a final position.
func calculatePointsAndTokens(position int) (points, tokens int) {
	if position >= 1 && position <= len(pointsTable) {
		return pointsTable[position-1], tokensTable[position-1]
	}
	return 0, participationTokens
}

func (s *Simulation) assignPointsAndTokens() {
	for _, p := range s.state.Participants {
		p.EarnedPoints, p.EarnedTokens = calculatePointsAndTokens(p.Position)
		// A retired participant is a non-finisher for reward purposes even
		// though it holds a numeric position.
		p.DNF = p.Retired
	}
}

func (s *Simulation) saveState() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(s.state.Clone()); err != nil {
		log.Warn().Err(err).Msg("failed to save race snapshot")
	}
}

// advance drives one logical tick directly, bypassing the wall clock.
func (s *Simulation) advance(deltaMs float64) {
	s.mu.Lock()
	events := s.step(deltaMs)
	s.mu.Unlock()
	s.dispatch(events)
}

func (s *Simulation) dispatch(events []event) {
	s.mu.Lock()
	onUpdate := s.onUpdate
	onLap := s.onLapComplete
	onPosition := s.onPositionChange
	onFinished := s.onFinished
	s.mu.Unlock()

	for _, e := range events {
		switch e.kind {
		case evLapComplete:
			if onLap != nil {
				onLap(e.participantID, e.lap, e.lapTimeMs)
			}
		case evPositionChange:
			if onPosition != nil {
				onPosition(e.participantID, e.position)
			}
		case evFinished:
			if onFinished != nil {
				onFinished(e.state)
			}
		case evUpdate:
			if onUpdate != nil {
				onUpdate(e.state)
			}
		}
	}
}

// GetRaceState returns a deep copy of the current state.
func (s *Simulation) GetRaceState() *RaceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Simulation) OnRaceUpdate(fn func(*RaceState)) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

func (s *Simulation) OnLapComplete(fn func(participantID string, lap int, lapTimeMs float64)) {
	s.mu.Lock()
	s.onLapComplete = fn
	s.mu.Unlock()
}

func (s *Simulation) OnPositionChange(fn func(participantID string, position int)) {
	s.mu.Lock()
	s.onPositionChange = fn
	s.mu.Unlock()
}

func (s *Simulation) OnRaceFinished(fn func(*RaceState)) {
	s.mu.Lock()
	s.onFinished = fn
	s.mu.Unlock()
}

// StopSimulation cancels the scheduler; no tick fires after it returns.
func (s *Simulation) StopSimulation() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

func (s *Simulation) stopLocked() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
	if s.running {
		close(s.quit)
		s.running = false
	}
}

// ClearStoredState drops the persisted live-race snapshot.
func (s *Simulation) ClearStoredState() {
	if s.store == nil {
		return
	}
	if err := s.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to clear race snapshot")
	}
}

// Destroy stops the simulation permanently.
func (s *Simulation) Destroy() {
	s.StopSimulation()
}
