package sim

import (
	"math"
	"math/rand"
)

// effectiveLapMs computes the lap duration the participant is currently on
// pace for, clamped to [MinLapMs, MaxLapMs], and applies this tick's
// resource wear as a side effect. Called once per active participant per
// tick, so the wear accumulates for the whole race.
func effectiveLapMs(p *Participant, rng *rand.Rand) float64 {
	d := p.Driver.Stats
	c := p.Car.Stats

	driverPerf := d.Cornering*CorneringWeight +
		d.Aggression*AggressionWeight +
		d.Composure*ComposureWeight
	carPerf := c.Speed*SpeedWeight +
		c.Acceleration*AccelerationWeight +
		c.Braking*BrakingWeight +
		c.Aero*AeroWeight +
		c.Grip*GripWeight

	// Penalties scale with consumed resource, mitigated by the matching stat.
	fuelPenalty := (100 - p.FuelRemaining) * (1 - c.Fuel/200)
	tirePenalty := (100 - p.TireRemaining) * (1 - c.Grip/200)
	durabilityPenalty := (100 - p.Car.Condition) * (1 - c.Durability/200)

	// Composure damps the per-lap randomness as well as helping raw pace.
	lapRng := (rng.Float64()*2 - 1) * (1 - d.Composure/100)

	lapMs := BaseLapMs -
		(driverPerf+carPerf)*PerformanceGainMs +
		(fuelPenalty+tirePenalty+durabilityPenalty)*PenaltyCostMs +
		lapRng*LapVarianceMs
	lapMs = math.Max(MinLapMs, math.Min(MaxLapMs, lapMs))

	p.FuelRemaining = math.Max(0, p.FuelRemaining-(FuelBurnPerTick-c.Fuel/200))
	p.TireRemaining = math.Max(0, p.TireRemaining-(TireWearPerTick-c.TireWear/200))
	p.Car.Condition = math.Max(0, p.Car.Condition-ConditionWearPerTick)

	return lapMs
}
