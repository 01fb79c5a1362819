package model

import "math"

// RacerSpec is the identity part of a racer, used to build a new field for each race.
type RacerSpec struct {
	Name        string  `json:"name" yaml:"name"`
	Color       string  `json:"color" yaml:"color"`
	IsPlayer    bool    `json:"isPlayer" yaml:"isPlayer"`
	StartOffset float64 `json:"startOffset" yaml:"startOffset"`
}

// Racer is a simulated car. Kinematic and race fields are reset at each race start.
type Racer struct {
	Name     string
	Color    string
	IsPlayer bool
	// StartOffset shifts the grid slot and seeds the autonomous phase terms.
	StartOffset float64

	Position Vec2
	Velocity Vec2
	Heading  float64

	CompletedLaps int
	LapHistory    []float64 // elapsed race time at each lap completion
	LastAngle     float64
	// Distance sums speed samples on track since the last lap. Informational only.
	Distance   float64
	Finished   bool
	FinishTime float64
}

func NewRacer(spec RacerSpec) *Racer {
	return &Racer{
		Name:        spec.Name,
		Color:       spec.Color,
		IsPlayer:    spec.IsPlayer,
		StartOffset: spec.StartOffset,
		Heading:     -math.Pi / 2,
		LapHistory:  make([]float64, 0, 4),
	}
}

func (r *Racer) Speed() float64 {
	return math.Hypot(r.Velocity.X, r.Velocity.Y)
}

// DefaultRoster is the player and three rivals.
func DefaultRoster() []RacerSpec {
	return []RacerSpec{
		{Name: "You", Color: "#f72585", IsPlayer: true, StartOffset: 0},
		{Name: "Bink Nova", Color: "#4cc9f0", StartOffset: 0.17},
		{Name: "Solar Bink", Color: "#fee440", StartOffset: -0.18},
		{Name: "Midnight Bink", Color: "#48cae4", StartOffset: 0.33},
	}
}
