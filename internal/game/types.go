package game

import (
	"errors"
	"time"

	"brickworld.dev/internal/sim/world"
)

var (
	ErrUnknownLevel = errors.New("unknown level")
	ErrGameOver     = errors.New("game over")
)

type CommandKind string

const (
	CmdLeft  CommandKind = "LEFT"
	CmdRight CommandKind = "RIGHT"
	CmdJump  CommandKind = "JUMP"
	CmdDuck  CommandKind = "DUCK"
	// CmdReset restarts the run at the start level with full health and zero score.
	CmdReset CommandKind = "RESET"
	// CmdLoad switches to the level named by Arg: a level id, or a file path.
	CmdLoad CommandKind = "LOAD"
)

type Command struct {
	Kind CommandKind `json:"kind"`
	Arg  string      `json:"arg,omitempty"`
}

// Frame is what renderers and observers see after a tick.
type Frame struct {
	Tick      uint64             `json:"tick"`
	LevelTick uint64             `json:"level_tick"`
	Level     string             `json:"level"`
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Player    world.PlayerState  `json:"player"`
	PlayerPos world.Vec2         `json:"player_pos"`
	Things    []world.ThingState `json:"things"`
	Events    []world.Event      `json:"events,omitempty"`
	GameOver  bool               `json:"game_over,omitempty"`
}

// TickLogEntry is one line of the tick log. Replaying the commands with the
// recorded timestamps reproduces Digest.
type TickLogEntry struct {
	Tick     uint64        `json:"tick"`
	Level    string        `json:"level"`
	NowMs    int64         `json:"now_ms"`
	Commands []Command     `json:"commands,omitempty"`
	Events   []world.Event `json:"events,omitempty"`
	Digest   string        `json:"digest"`
}

func (e TickLogEntry) Now() time.Time { return time.UnixMilli(e.NowMs).UTC() }

type MilestoneKind string

const (
	MilestoneLevelStart MilestoneKind = "LEVEL_START"
	MilestoneLevelClear MilestoneKind = "LEVEL_CLEAR"
	MilestoneDeath      MilestoneKind = "DEATH"
	MilestoneReset      MilestoneKind = "RESET"
)

type Milestone struct {
	Tick   uint64        `json:"tick"`
	Kind   MilestoneKind `json:"kind"`
	Level  string        `json:"level"`
	Score  int           `json:"score"`
	Health int           `json:"health"`
	At     time.Time     `json:"at"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// Recorder receives the run's read-model rows. Implementations must not block.
type Recorder interface {
	RecordTick(entry TickLogEntry)
	RecordMilestone(m Milestone)
}

type FrameSink interface {
	PublishFrame(f Frame)
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(f Frame)

func (fn FrameSinkFunc) PublishFrame(f Frame) { fn(f) }
