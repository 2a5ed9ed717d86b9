package server

import (
	"fmt"

	"github.com/SusanAcharya/f1-simulation/sim"
)

var demoNames = []string{
	"Ace", "Blaze", "Drift", "Nitro", "Turbo", "Viper",
	"Comet", "Rocket", "Shadow", "Storm", "Flash", "Bolt",
}

// DemoEntrants builds n entrants with neutral stat blocks, used when the
// service runs without a backend feeding real participants.
func DemoEntrants(n int) []sim.Entrant {
	entrants := make([]sim.Entrant, 0, n)
	for i := 0; i < n; i++ {
		entrants = append(entrants, sim.Entrant{
			ID:       fmt.Sprintf("demo-%d", i+1),
			UserID:   fmt.Sprintf("demo-user-%d", i+1),
			Username: demoNames[i%len(demoNames)],
		})
	}
	return entrants
}
