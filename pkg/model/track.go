package model

import (
	"errors"
	"fmt"
	"math"
)

var ErrInconsistentGeometry = errors.New("inconsistent track geometry")

// Vec2 is a position or vector in canvas space (y grows downwards).
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{X: v.X * f, Y: v.Y * f}
}

func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Direction returns the unit vector for angle a.
func Direction(a float64) Vec2 {
	return Vec2{X: math.Cos(a), Y: math.Sin(a)}
}

// Ellipse is an axis aligned ellipse given by its semi-axes, centered on the track center.
type Ellipse struct {
	RX float64 `json:"rx" yaml:"rx"`
	RY float64 `json:"ry" yaml:"ry"`
}

// BoostPad is an angular zone along the lane ellipse.
type BoostPad struct {
	Angle float64 `json:"angle" yaml:"angle"` // center, radians
	Span  float64 `json:"span" yaml:"span"`   // full width, radians
}

//nolint:tagliatelle // keep names in sync with track files
type Track struct {
	Name      string     `json:"name" yaml:"name"`
	Center    Vec2       `json:"center" yaml:"center"`
	Outer     Ellipse    `json:"outer" yaml:"outer"`
	Inner     Ellipse    `json:"inner" yaml:"inner"`
	Lane      Ellipse    `json:"lane" yaml:"lane"`
	Detail    Ellipse    `json:"detail" yaml:"detail"`
	BoostPads []BoostPad `json:"boostPads" yaml:"boostPads"`
}

// DefaultTrack returns the stock oval laid out on a 960x600 canvas.
func DefaultTrack() *Track {
	return &Track{
		Name:   "bink oval",
		Center: Vec2{X: 480, Y: 300},
		Outer:  Ellipse{RX: 360, RY: 210},
		Inner:  Ellipse{RX: 188, RY: 116},
		Lane:   Ellipse{RX: 270, RY: 155},
		Detail: Ellipse{RX: 310, RY: 185},
		BoostPads: []BoostPad{
			{Angle: math.Pi * 0.08, Span: 0.32},
			{Angle: math.Pi * 1.05, Span: 0.28},
			{Angle: math.Pi * 1.65, Span: 0.25},
		},
	}
}

// Validate checks inner < lane < detail < outer on both axes.
func (t *Track) Validate() error {
	for _, e := range []Ellipse{t.Inner, t.Lane, t.Detail, t.Outer} {
		if e.RX <= 0 || e.RY <= 0 {
			return fmt.Errorf("%w: radii must be positive (%+v)", ErrInconsistentGeometry, e)
		}
	}
	ordered := func(get func(Ellipse) float64) bool {
		return get(t.Inner) < get(t.Lane) &&
			get(t.Lane) < get(t.Detail) &&
			get(t.Detail) < get(t.Outer)
	}
	if !ordered(func(e Ellipse) float64 { return e.RX }) {
		return fmt.Errorf("%w: rx not ordered inner<lane<detail<outer", ErrInconsistentGeometry)
	}
	if !ordered(func(e Ellipse) float64 { return e.RY }) {
		return fmt.Errorf("%w: ry not ordered inner<lane<detail<outer", ErrInconsistentGeometry)
	}
	for i, p := range t.BoostPads {
		if p.Span <= 0 {
			return fmt.Errorf("%w: boost pad %d has no span", ErrInconsistentGeometry, i)
		}
	}
	return nil
}
