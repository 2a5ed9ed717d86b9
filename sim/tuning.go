package sim

import "time"

const (
	TickMs            = 1000.0 // one in-game second of lap progress per tick
	SchedulerInterval = 100 * time.Millisecond
	CountdownDuration = 3 * time.Second
	DefaultTotalLaps  = 10

	BaseLapMs = 55000.0
	MinLapMs  = 45000.0
	MaxLapMs  = 60000.0

	CorneringWeight  = 0.25
	AggressionWeight = 0.15
	ComposureWeight  = 0.20

	SpeedWeight        = 0.25
	AccelerationWeight = 0.20
	BrakingWeight      = 0.15
	AeroWeight         = 0.15
	GripWeight         = 0.15

	PerformanceGainMs = 80.0  // ms shaved per combined performance point
	PenaltyCostMs     = 20.0  // ms added back per penalty point
	LapVarianceMs     = 500.0 // max random swing before composure damping

	FuelBurnPerTick      = 0.8  // minus fuel stat / 200
	TireWearPerTick      = 0.7  // minus tireWear stat / 200
	ConditionWearPerTick = 0.05 // flat

	DNFEligibleLap = 4     // no retirements until the lap counter passes this
	MaxTickDNF     = 0.001 // per-tick retirement probability cap

	ProgressTieband = 0.1 // lapProgress differences below this rank as equal

	SnapshotMaxAge = 5 * time.Minute

	GapNone  = "--" // leader, lapped, or otherwise not meaningfully comparable
	ZeroTime = "0:00.000"
)

// F1-style payout tables, indexed by final position minus one. Positions
// beyond the table earn zero points and the participation token minimum.
var (
	pointsTable = [10]int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1}
	tokensTable = [10]int{50, 40, 35, 30, 25, 20, 15, 10, 8, 5}
)

const participationTokens = 2
