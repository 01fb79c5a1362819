package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// LeaderboardEntry is a finished race. The json names match the stored format
// of earlier versions ({"name":..,"time":..}).
type LeaderboardEntry struct {
	ID         uuid.UUID `json:"id"`
	Label      string    `json:"name"`
	Time       float64   `json:"time"` // seconds
	RecordedAt time.Time `json:"recordedAt"`
	Laps       []float64 `json:"laps,omitempty"` // elapsed race time at each lap
}
