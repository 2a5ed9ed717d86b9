package sim

import "fmt"

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusCountdown Status = "countdown"
	StatusRacing    Status = "racing"
	StatusFinished  Status = "finished"
)

// RaceState is the full race aggregate. Participant order in the slice is
// the entry order; ranking lives in each participant's Position.
type RaceState struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Track        string         `json:"track"`
	Status       Status         `json:"status"`
	Participants []*Participant `json:"participants"`

	// CurrentLap is display only, tracking the leading active lap. Each
	// participant owns its real lap counter.
	CurrentLap int `json:"currentLap"`
	TotalLaps  int `json:"totalLaps"`

	StartTime int64 `json:"startTime"` // unix ms, 0 = not started
	EndTime   int64 `json:"endTime"`   // unix ms, 0 = not ended

	LapTimes map[string][]float64 `json:"lapTimes"` // participant id -> completed laps, ms
}

// Clone deep-copies the aggregate so observers can never reach back into
// live engine state.
func (r *RaceState) Clone() *RaceState {
	cp := *r
	cp.Participants = make([]*Participant, len(r.Participants))
	for i, p := range r.Participants {
		cp.Participants[i] = p.clone()
	}
	cp.LapTimes = make(map[string][]float64, len(r.LapTimes))
	for id, laps := range r.LapTimes {
		cp.LapTimes[id] = append([]float64(nil), laps...)
	}
	return &cp
}

// RaceInfo describes a race to be created. Zero fields fall back to the
// defaults below.
type RaceInfo struct {
	ID        string
	Name      string
	Track     string
	TotalLaps int
}

func (i RaceInfo) withDefaults() RaceInfo {
	if i.ID == "" {
		i.ID = "race-1"
	}
	if i.Name == "" {
		i.Name = "Pixel Speedway Circuit"
	}
	if i.Track == "" {
		i.Track = "Circuit 1"
	}
	if i.TotalLaps <= 0 {
		i.TotalLaps = DefaultTotalLaps
	}
	return i
}

// Entrant is the initialization input for one racer. Nil driver/car blocks
// are substituted with neutral defaults rather than failing construction.
type Entrant struct {
	ID         string
	UserID     string
	Username   string
	ProfilePic string
	CarPic     string
	Driver     *Driver
	Car        *Car
}

func newRaceState(info RaceInfo, entrants []Entrant) *RaceState {
	info = info.withDefaults()
	state := &RaceState{
		ID:           info.ID,
		Name:         info.Name,
		Track:        info.Track,
		Status:       StatusWaiting,
		Participants: make([]*Participant, 0, len(entrants)),
		CurrentLap:   1,
		TotalLaps:    info.TotalLaps,
		LapTimes:     make(map[string][]float64),
	}

	for i, e := range entrants {
		state.Participants = append(state.Participants, newParticipant(e, i))
	}
	for _, p := range state.Participants {
		state.LapTimes[p.ID] = []float64{}
	}
	return state
}

func newParticipant(e Entrant, index int) *Participant {
	userID := e.UserID
	if userID == "" {
		userID = fmt.Sprintf("user-%d", index)
	}
	username := e.Username
	if username == "" {
		username = fmt.Sprintf("Driver %d", index+1)
	}
	id := e.ID
	if id == "" {
		id = fmt.Sprintf("participant-%d", index)
	}

	driver := DefaultDriver(userID, username)
	if e.Driver != nil {
		driver = *e.Driver
	}
	car := DefaultCar(userID)
	if e.Car != nil {
		car = *e.Car
	}

	profilePic := e.ProfilePic
	if profilePic == "" {
		profilePic = fmt.Sprintf("/assets/profile-pics/profile-pic%d.png", index%12+1)
	}
	carPic := e.CarPic
	if carPic == "" {
		carPic = fmt.Sprintf("/assets/cars/racecar%d.png", index%12+1)
	}

	gap := GapNone
	if index > 0 {
		gap = "+0.000"
	}

	return &Participant{
		ID:            id,
		UserID:        userID,
		Username:      username,
		ProfilePic:    profilePic,
		CarPic:        carPic,
		Driver:        driver,
		Car:           car,
		Position:      index + 1,
		CurrentLap:    1,
		LapTime:       ZeroTime,
		BestLap:       ZeroTime,
		TotalTime:     ZeroTime,
		Gap:           gap,
		LapTimes:      []float64{},
		FuelRemaining: 100,
		TireRemaining: 100,
	}
}
