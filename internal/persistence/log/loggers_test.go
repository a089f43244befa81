package log

import (
	"errors"
	"testing"
	"time"

	"brickworld.dev/internal/game"
	"brickworld.dev/internal/sim/world"
)

func TestTickLogger_RoundTripAcrossSegments(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)

	base := time.Date(2024, 3, 1, 9, 59, 59, 0, time.UTC)
	entries := []game.TickLogEntry{
		{Tick: 0, Level: "level1", NowMs: base.UnixMilli(), Digest: "a"},
		{Tick: 1, Level: "level1", NowMs: base.Add(500 * time.Millisecond).UnixMilli(),
			Commands: []game.Command{{Kind: game.CmdRight}},
			Events:   []world.Event{{Tick: 1, Kind: world.EventContact, A: "player", B: "brick", Side: world.SideAbove}},
			Digest:   "b"},
		{Tick: 2, Level: "level2", NowMs: base.Add(2 * time.Second).UnixMilli(),
			Commands: []game.Command{{Kind: game.CmdLoad, Arg: "level2"}}, Digest: "c"},
	}
	for _, e := range entries {
		if err := l.WriteTick(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	paths, err := Segments(dir+"/ticks", "ticks")
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("segments=%v want 2 hourly files", paths)
	}

	var got []game.TickLogEntry
	if err := ReadTicks(dir, func(e game.TickLogEntry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("read %d entries", len(got))
	}
	for i := range got {
		if got[i].Tick != entries[i].Tick || got[i].Digest != entries[i].Digest || got[i].NowMs != entries[i].NowMs {
			t.Fatalf("entry %d: %+v", i, got[i])
		}
	}
	if ev := got[1].Events[0]; ev.Side != world.SideAbove || ev.Kind != world.EventContact {
		t.Fatalf("event decoded as %+v", ev)
	}
	if c := got[2].Commands[0]; c.Kind != game.CmdLoad || c.Arg != "level2" {
		t.Fatalf("command decoded as %+v", c)
	}
}

func TestReadTicks_StopsEarly(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := l.WriteTick(game.TickLogEntry{Tick: uint64(i), NowMs: now.UnixMilli()}); err != nil {
			t.Fatal(err)
		}
	}
	_ = l.Close()

	n := 0
	err := ReadTicks(dir, func(e game.TickLogEntry) error {
		n++
		if e.Tick == 2 {
			return ErrStop
		}
		return nil
	})
	if err != nil || n != 3 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestReadTicks_EmptyDir(t *testing.T) {
	if err := ReadTicks(t.TempDir(), func(game.TickLogEntry) error { return nil }); err == nil {
		t.Fatalf("expected error for a run without a tick log")
	}
}

type countingRecorder struct{ ticks, milestones int }

func (c *countingRecorder) RecordTick(game.TickLogEntry)  { c.ticks++ }
func (c *countingRecorder) RecordMilestone(game.Milestone) { c.milestones++ }

func TestMilestoneLogger_WritesAndForwards(t *testing.T) {
	dir := t.TempDir()
	next := &countingRecorder{}
	l := NewMilestoneLogger(dir)
	l.Next = next

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l.RecordMilestone(game.Milestone{Tick: 0, Kind: game.MilestoneLevelStart, Level: "level1", Health: 5, At: at})
	l.RecordTick(game.TickLogEntry{Tick: 0})
	l.RecordMilestone(game.Milestone{Tick: 90, Kind: game.MilestoneLevelClear, Level: "level1", Score: 3, Health: 5, At: at.Add(time.Second)})
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	ms, err := ReadMilestones(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(ms) != 2 || ms[1].Kind != game.MilestoneLevelClear || ms[1].Score != 3 || !ms[1].At.Equal(at.Add(time.Second)) {
		t.Fatalf("milestones=%+v", ms)
	}
	if next.ticks != 1 || next.milestones != 2 {
		t.Fatalf("forwarded ticks=%d milestones=%d", next.ticks, next.milestones)
	}
}

func TestScanJSONL_PropagatesErrors(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "x")
	if err := w.WriteAt(time.Unix(0, 0), map[string]int{"n": 1}); err != nil {
		t.Fatal(err)
	}
	_ = w.Close()
	paths, _ := Segments(dir, "x")
	boom := errors.New("boom")
	if err := ScanJSONL(paths, func(string, []byte) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
}

func TestJSONLZstdWriter_ReportsClosedSegments(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "ticks")
	var closed []string
	w.OnSegmentClosed(func(path string) { closed = append(closed, path) })

	base := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	for _, at := range []time.Time{base, base.Add(time.Minute), base.Add(time.Hour)} {
		if err := w.WriteAt(at, map[string]int{"n": 1}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if len(closed) != 1 || closed[0] != w.pathForHour("2024-03-01-10") {
		t.Fatalf("after rotation closed=%v", closed)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(closed) != 2 || closed[1] != w.pathForHour("2024-03-01-11") {
		t.Fatalf("after close closed=%v", closed)
	}
	if err := w.Close(); err != nil || len(closed) != 2 {
		t.Fatalf("second close reported again: %v %v", err, closed)
	}
}
