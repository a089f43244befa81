package archive

import (
	"errors"
	"os"
	"testing"
	"time"

	"brickworld.dev/internal/game"
	"brickworld.dev/internal/sim/catalogs"
	"brickworld.dev/internal/sim/clock"
	"brickworld.dev/internal/sim/level"
	"brickworld.dev/internal/sim/tuning"
)

func TestRunSummary_RoundTrip(t *testing.T) {
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	levels, err := level.LoadDir("../../../levels")
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	tune := tuning.Defaults()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	g, err := game.New(game.Config{Tuning: tune, Catalogs: cats, Levels: levels, Clock: clock.NewFake(start)})
	if err != nil {
		t.Fatalf("game: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := g.TickAt(start.Add(time.Duration(i)*tune.TickDuration()), nil); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}

	ms := []game.Milestone{{Kind: game.MilestoneLevelStart}, {Kind: game.MilestoneDeath}, {Kind: game.MilestoneLevelStart}}
	s := Summarize("r1", tune.StartLevel, g, ms)
	dir := t.TempDir()
	if err := WriteRunSummary(dir, s); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadRunSummary(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Ticks != 3 || got.FinalDigest != g.Digest() || got.Level != tune.StartLevel {
		t.Fatalf("summary=%+v", got)
	}
	if got.Milestones["LEVEL_START"] != 2 || got.Milestones["DEATH"] != 1 {
		t.Fatalf("milestones=%v", got.Milestones)
	}
	if got.Health != tune.Player.MaxHealth {
		t.Fatalf("health=%d", got.Health)
	}
}

func TestReadRunSummary_Missing(t *testing.T) {
	if _, err := ReadRunSummary(t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v", err)
	}
}
