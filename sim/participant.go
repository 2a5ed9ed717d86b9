package sim

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Participant is one racer's full in-race state. Driver and car blocks are
// snapshots taken at race start; only the simulation mutates them (wear).
type Participant struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic,omitempty"`
	CarPic     string `json:"carPic,omitempty"`

	Driver Driver `json:"driver"`
	Car    Car    `json:"car"`

	Position    int     `json:"position"`
	CurrentLap  int     `json:"currentLap"`
	LapProgress float64 `json:"lapProgress"` // 0-100 through the current lap
	LapTime     string  `json:"lapTime"`
	BestLap     string  `json:"bestLap"`
	TotalTime   string  `json:"totalTime"`
	Gap         string  `json:"gap"`

	Retired     bool `json:"retired"`
	Finished    bool `json:"finished"`
	DNF         bool `json:"dnf"`
	FinishOrder int  `json:"finishOrder,omitempty"`

	LastLapTime float64   `json:"lastLapTime"`
	LapTimes    []float64 `json:"lapTimes"` // completed laps, ms

	// Derived per-lap timing. Absent from older snapshots and recomputed
	// on resume.
	CurrentLapPlannedMs   float64 `json:"currentLapPlannedMs,omitempty"`
	CurrentLapElapsedMs   float64 `json:"currentLapElapsedMs"`
	CurrentEffectiveLapMs float64 `json:"currentEffectiveLapMs,omitempty"`

	FuelRemaining float64 `json:"fuelRemaining"`
	TireRemaining float64 `json:"tireRemaining"`

	EarnedPoints int `json:"earnedPoints"`
	EarnedTokens int `json:"earnedTokens"`
}

// bestLapMs is the fastest completed lap, or +Inf with no laps on record.
func (p *Participant) bestLapMs() float64 {
	best := math.Inf(1)
	for _, t := range p.LapTimes {
		if t < best {
			best = t
		}
	}
	return best
}

func (p *Participant) totalLapMs() float64 {
	var sum float64
	for _, t := range p.LapTimes {
		sum += t
	}
	return sum
}

func (p *Participant) clone() *Participant {
	cp := *p
	cp.LapTimes = append([]float64(nil), p.LapTimes...)
	return &cp
}

// formatLapMs renders milliseconds as m:ss.cc for display fields.
func formatLapMs(ms float64) string {
	totalSeconds := int(ms) / 1000
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	hundredths := (int(ms) % 1000) / 10
	return fmt.Sprintf("%d:%02d.%02d", minutes, seconds, hundredths)
}

// parseLapMs is the inverse of formatLapMs, tolerant of the zero sentinel.
func parseLapMs(s string) float64 {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	secParts := strings.SplitN(parts[1], ".", 2)
	if len(secParts) != 2 {
		return 0
	}
	minutes, _ := strconv.Atoi(parts[0])
	seconds, _ := strconv.Atoi(secParts[0])
	frac, _ := strconv.Atoi(secParts[1])
	return float64((minutes*60+seconds)*1000 + frac*10)
}
