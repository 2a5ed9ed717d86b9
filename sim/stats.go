package sim

// DriverStats are the trainable driver attributes, each on a 0-100 scale.
type DriverStats struct {
	Cornering  float64 `json:"cornering"`
	Overtaking float64 `json:"overtaking"`
	Defending  float64 `json:"defending"`
	Aggression float64 `json:"aggression"`
	Composure  float64 `json:"composure"`
}

// CarStats are the upgradeable car attributes, each on a 0-100 scale.
type CarStats struct {
	Speed        float64 `json:"speed"`
	Acceleration float64 `json:"acceleration"`
	Braking      float64 `json:"braking"`
	Aero         float64 `json:"aero"`
	Fuel         float64 `json:"fuel"`
	TireWear     float64 `json:"tireWear"`
	Grip         float64 `json:"grip"`
	Durability   float64 `json:"durability"`
}

type Driver struct {
	ID     string      `json:"id"`
	UserID string      `json:"userId"`
	Name   string      `json:"name"`
	Stats  DriverStats `json:"stats"`
}

// Car carries the stat block plus overall condition. Condition degrades
// during a race and is only restored outside of it.
type Car struct {
	ID        string   `json:"id"`
	UserID    string   `json:"userId"`
	Name      string   `json:"name"`
	Stats     CarStats `json:"stats"`
	Condition float64  `json:"condition"`
}

// DefaultDriver fills in a neutral stat block for entrants that join
// without driver data.
func DefaultDriver(userID, name string) Driver {
	return Driver{
		ID:     "driver-" + userID,
		UserID: userID,
		Name:   name,
		Stats: DriverStats{
			Cornering:  50,
			Overtaking: 50,
			Defending:  50,
			Aggression: 50,
			Composure:  50,
		},
	}
}

// DefaultCar fills in a neutral car for entrants that join without car data.
func DefaultCar(userID string) Car {
	return Car{
		ID:     "car-" + userID,
		UserID: userID,
		Name:   "Default Car",
		Stats: CarStats{
			Speed:        50,
			Acceleration: 50,
			Braking:      50,
			Aero:         50,
			Fuel:         50,
			TireWear:     50,
			Grip:         50,
			Durability:   50,
		},
		Condition: 100,
	}
}
