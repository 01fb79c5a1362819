package model

// Input is the per tick snapshot of the human controls.
type Input struct {
	Forward  bool `json:"forward"`
	Backward bool `json:"backward"`
	Left     bool `json:"left"`
	Right    bool `json:"right"`
	Drift    bool `json:"drift"`
}

// Steer returns the net steering in {-1,0,1}. Left and right together cancel out.
func (in Input) Steer() float64 {
	return b2f(in.Right) - b2f(in.Left)
}

func (in Input) Throttle() float64 {
	return b2f(in.Forward)
}

func (in Input) Brake() float64 {
	return b2f(in.Backward)
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
