package world

import (
	"testing"
	"time"
)

const testDT = 1.0 / 60

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func block16() Vec2 { return Vec2{X: 16, Y: 16} }

// newTestWorld builds a gravity-free world so tests control every velocity.
func newTestWorld(t *testing.T) (*World, *Player) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Gravity = Vec2{}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	p, err := NewPlayer("mario", block16(), 5)
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	w.AddPlayer(p, 16, 16)
	return w, p
}

func stepAt(w *World, now time.Time) {
	w.Step(testDT, &Context{Now: now})
}

func countKind(w *World, kind string) int {
	n := 0
	for _, th := range w.Things() {
		if th.Base().Kind() == kind {
			n++
		}
	}
	return n
}

func countCategory(w *World, cat Category) int {
	n := 0
	for _, th := range w.Things() {
		if th.Base().Category() == cat {
			n++
		}
	}
	return n
}

func countEvents(evs []Event, kind EventKind) int {
	n := 0
	for _, e := range evs {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
