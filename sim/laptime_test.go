package sim

import (
	"math/rand"
	"testing"
)

func randomFormulaParticipant(rng *rand.Rand) *Participant {
	p := newParticipant(Entrant{}, 0)
	p.Driver.Stats = DriverStats{
		Cornering:  rng.Float64() * 100,
		Overtaking: rng.Float64() * 100,
		Defending:  rng.Float64() * 100,
		Aggression: rng.Float64() * 100,
		Composure:  rng.Float64() * 100,
	}
	p.Car.Stats = CarStats{
		Speed:        rng.Float64() * 100,
		Acceleration: rng.Float64() * 100,
		Braking:      rng.Float64() * 100,
		Aero:         rng.Float64() * 100,
		Fuel:         rng.Float64() * 100,
		TireWear:     rng.Float64() * 100,
		Grip:         rng.Float64() * 100,
		Durability:   rng.Float64() * 100,
	}
	p.Car.Condition = rng.Float64() * 100
	p.FuelRemaining = rng.Float64() * 100
	p.TireRemaining = rng.Float64() * 100
	return p
}

func TestEffectiveLapMsBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		p := randomFormulaParticipant(rng)
		lapMs := effectiveLapMs(p, rng)
		if lapMs < MinLapMs || lapMs > MaxLapMs {
			t.Fatalf("lap %d: effectiveLapMs = %f, want within [%f, %f]", i, lapMs, float64(MinLapMs), float64(MaxLapMs))
		}
	}
}

func TestResourceDepletionMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	p := newParticipant(Entrant{}, 0)

	fuel, tire, condition := p.FuelRemaining, p.TireRemaining, p.Car.Condition
	for i := 0; i < 600; i++ {
		effectiveLapMs(p, rng)
		if p.FuelRemaining > fuel {
			t.Fatalf("tick %d: fuel increased %f -> %f", i, fuel, p.FuelRemaining)
		}
		if p.TireRemaining > tire {
			t.Fatalf("tick %d: tire increased %f -> %f", i, tire, p.TireRemaining)
		}
		if p.Car.Condition > condition {
			t.Fatalf("tick %d: condition increased %f -> %f", i, condition, p.Car.Condition)
		}
		if p.FuelRemaining < 0 || p.TireRemaining < 0 || p.Car.Condition < 0 {
			t.Fatalf("tick %d: resource below zero: fuel=%f tire=%f condition=%f", i, p.FuelRemaining, p.TireRemaining, p.Car.Condition)
		}
		fuel, tire, condition = p.FuelRemaining, p.TireRemaining, p.Car.Condition
	}
	if fuel >= 100 || tire >= 100 {
		t.Fatalf("expected wear after 600 ticks, fuel=%f tire=%f", fuel, tire)
	}
}

func TestHigherStatsMeanFasterLaps(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		strong := newParticipant(Entrant{}, 0)
		strong.Driver.Stats = DriverStats{Cornering: 100, Overtaking: 100, Defending: 100, Aggression: 100, Composure: 100}
		strong.Car.Stats = CarStats{Speed: 100, Acceleration: 100, Braking: 100, Aero: 100, Fuel: 100, TireWear: 100, Grip: 100, Durability: 100}

		weak := newParticipant(Entrant{}, 1)
		weak.Driver.Stats = DriverStats{}
		weak.Car.Stats = CarStats{}

		fast := effectiveLapMs(strong, rng)
		slow := effectiveLapMs(weak, rng)
		if fast >= slow {
			t.Fatalf("trial %d: maxed stats lap %f not faster than zeroed stats lap %f", i, fast, slow)
		}
	}
}
