package sim

import (
	"math"
	"math/rand"
)

// tickDNFProbability is the chance a participant's race ends this tick.
// Only consulted once the participant's lap counter passes DNFEligibleLap.
// Crash risk needs above-average aggression, mechanical failure needs worn
// durability/condition, blowout risk grows once the tires are gone.
func tickDNFProbability(p *Participant, rng *rand.Rand) float64 {
	d := p.Driver.Stats
	c := p.Car.Stats

	crashChance := (d.Aggression - 50) * (100 - d.Composure) / 50000 * randBetween(rng, 0.3, 0.7)
	failureChance := (100 - c.Durability) * (100 - p.Car.Condition) / 100000 * randBetween(rng, 0.3, 0.7)
	blowoutChance := math.Max(0, 100-p.TireRemaining) / 10000 * randBetween(rng, 0.3, 0.7)

	total := crashChance + failureChance + blowoutChance
	return math.Max(0, math.Min(MaxTickDNF, total))
}

func randBetween(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}
