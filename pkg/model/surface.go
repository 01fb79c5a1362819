package model

// Surface describes the ground at a position. It is derived on every query and
// never stored.
type Surface struct {
	Grip     float64 `json:"grip"`
	MaxSpeed float64 `json:"maxSpeed"`
	Boost    float64 `json:"boost"`
	OffTrack bool    `json:"offTrack"`
}
