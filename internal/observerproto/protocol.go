package observerproto

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Version is the observer protocol version.
const Version = "0.1"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeInput     = "INPUT"
	TypeFrame     = "FRAME"
	TypeError     = "ERROR"
)

// Client -> Server. First message on the observer WS connection, and can be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// EveryTicks thins the stream to one frame per N published frames.
	EveryTicks int  `json:"every_ticks,omitempty"`
	NoEvents   bool `json:"no_events,omitempty"`
}

// Client -> Server. Commands are applied on the next tick.
type InputMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Commands        []CommandMsg `json:"commands"`
}

type CommandMsg struct {
	Kind string `json:"kind"`
	Arg  string `json:"arg,omitempty"`
}

// HTTP response for GET /v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	Level           string      `json:"level"`
	Tick            uint64      `json:"tick"`
	Params          WorldParams `json:"params"`
	Kinds           []string    `json:"kinds"`
	Levels          []string    `json:"levels"`
}

type WorldParams struct {
	TickRateHz      int     `json:"tick_rate_hz"`
	FrameEveryTicks int     `json:"frame_every_ticks"`
	BlockSize       float64 `json:"block_size"`
}

// Server -> Client. Sent for every published frame the subscription selects.
type FrameMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	LevelTick       uint64 `json:"level_tick"`
	Level           string `json:"level"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Player PlayerState  `json:"player"`
	Things []ThingState `json:"things"`
	Events []EventMsg   `json:"events,omitempty"`

	GameOver bool `json:"game_over,omitempty"`
}

type PlayerState struct {
	Name          string     `json:"name"`
	Pos           [2]float64 `json:"pos"`
	Health        int        `json:"health"`
	MaxHealth     int        `json:"max_health"`
	Score         int        `json:"score"`
	Invincible    bool       `json:"invincible"`
	SwitchLocked  bool       `json:"switch_locked"`
	PendingBricks int        `json:"pending_bricks"`
}

type ThingState struct {
	ID       uint64     `json:"id"`
	Kind     string     `json:"kind"`
	Category string     `json:"category"`
	Pos      [2]float64 `json:"pos"`
	Size     [2]float64 `json:"size"`
	Active   *bool      `json:"active,omitempty"`
}

type EventMsg struct {
	Kind  string `json:"kind"`
	A     string `json:"a,omitempty"`
	B     string `json:"b,omitempty"`
	Side  string `json:"side,omitempty"`
	Value int    `json:"value,omitempty"`
}

// Server -> Client. Sent before closing on a protocol violation, or in reply to a bad INPUT.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Message         string `json:"message"`
}

//go:embed frame.schema.json
var frameSchemaJSON string

var frameSchema = jsonschema.MustCompileString("frame.schema.json", frameSchemaJSON)

// ValidateFrame checks a raw FRAME message against the published schema.
func ValidateFrame(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	if err := frameSchema.Validate(v); err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	return nil
}
