package observerproto

import (
	"encoding/json"
	"testing"
)

func TestValidateFrame(t *testing.T) {
	ok := FrameMsg{
		Type:            TypeFrame,
		ProtocolVersion: Version,
		Tick:            3,
		Level:           "level1",
		Width:           320,
		Height:          240,
		Player:          PlayerState{Name: "Mario", Pos: [2]float64{16, 16}, Health: 5, MaxHealth: 5},
		Things:          []ThingState{{ID: 1, Kind: "brick", Category: "block", Pos: [2]float64{8, 8}, Size: [2]float64{16, 16}}},
		Events:          []EventMsg{{Kind: "CONTACT", Side: "ABOVE"}},
	}
	raw, _ := json.Marshal(ok)
	if err := ValidateFrame(raw); err != nil {
		t.Fatalf("valid frame rejected: %v", err)
	}

	bad := ok
	bad.Things = []ThingState{{ID: 1, Kind: "brick", Category: "wall", Pos: [2]float64{8, 8}, Size: [2]float64{16, 16}}}
	raw, _ = json.Marshal(bad)
	if err := ValidateFrame(raw); err == nil {
		t.Fatalf("unknown category accepted")
	}

	bad = ok
	bad.Type = TypeInput
	raw, _ = json.Marshal(bad)
	if err := ValidateFrame(raw); err == nil {
		t.Fatalf("non-FRAME type accepted")
	}

	if err := ValidateFrame([]byte("{")); err == nil {
		t.Fatalf("malformed json accepted")
	}
}
