package model

import (
	"fmt"
	"strings"
)

const (
	DefaultTotalLaps = 3
	CountdownSeconds = 3
	GoDisplaySeconds = 0.65
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCountdown
	PhaseRunning
	PhaseFinished
)

var phaseNames = map[Phase]string{
	PhaseIdle:      "idle",
	PhaseCountdown: "countdown",
	PhaseRunning:   "running",
	PhaseFinished:  "finished",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for k, v := range phaseNames {
		if strings.EqualFold(v, string(text)) {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(text))
}

// RaceState is the single active race. It is replaced as a whole on restart.
type RaceState struct {
	ID             string
	Phase          Phase
	Elapsed        float64
	Countdown      int
	CountdownTimer float64
	GoTimer        float64
	TotalLaps      int
	Racers         []*Racer
	Player         *Racer
	Position       int // 1-based standing of Player
}

// CurrentLap is the lap the player is on, as shown to the driver.
func (s *RaceState) CurrentLap() int {
	if s.Player == nil {
		return 0
	}
	if s.Player.Finished {
		return s.TotalLaps
	}
	return min(s.Player.CompletedLaps+1, s.TotalLaps)
}

type EventType string

const (
	EventPhaseChanged  EventType = "phase"
	EventLapCompleted  EventType = "lap"
	EventRacerFinished EventType = "finish"
)

// Event is emitted by a simulation tick.
type Event struct {
	Type    EventType `json:"type"`
	Racer   string    `json:"racer,omitempty"`
	Lap     int       `json:"lap,omitempty"`
	Elapsed float64   `json:"elapsed"`
	Phase   Phase     `json:"phase"`
}

// RacerView is the read-only part of a racer handed to renderers.
type RacerView struct {
	Name          string    `json:"name"`
	Color         string    `json:"color"`
	IsPlayer      bool      `json:"isPlayer"`
	Position      Vec2      `json:"position"`
	Heading       float64   `json:"heading"`
	Speed         float64   `json:"speed"`
	CompletedLaps int       `json:"completedLaps"`
	LapHistory    []float64 `json:"lapHistory"`
	Distance      float64   `json:"distance"`
	Finished      bool      `json:"finished"`
	FinishTime    float64   `json:"finishTime,omitempty"`
}

// Snapshot is the per tick state handed to rendering collaborators.
type Snapshot struct {
	RaceID     string      `json:"raceId"`
	Phase      Phase       `json:"phase"`
	Elapsed    float64     `json:"elapsed"`
	Countdown  int         `json:"countdown"`
	GoTimer    float64     `json:"goTimer"`
	Lap        int         `json:"lap"`
	TotalLaps  int         `json:"totalLaps"`
	Position   int         `json:"position"`
	Racers     []RacerView `json:"racers"`
	PlayerName string      `json:"playerName,omitempty"`
	Events     []Event     `json:"events,omitempty"` // emitted by the tick that produced this snapshot
}

func ViewOf(r *Racer) RacerView {
	return RacerView{
		Name:          r.Name,
		Color:         r.Color,
		IsPlayer:      r.IsPlayer,
		Position:      r.Position,
		Heading:       r.Heading,
		Speed:         r.Speed(),
		CompletedLaps: r.CompletedLaps,
		LapHistory:    append([]float64(nil), r.LapHistory...),
		Distance:      r.Distance,
		Finished:      r.Finished,
		FinishTime:    r.FinishTime,
	}
}
