// Package game drives a world: it owns the player across levels, applies input,
// polls timed effects, steps physics and handles death and level transitions.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"brickworld.dev/internal/sim/catalogs"
	"brickworld.dev/internal/sim/clock"
	"brickworld.dev/internal/sim/level"
	"brickworld.dev/internal/sim/tuning"
	"brickworld.dev/internal/sim/world"
)

type Config struct {
	Tuning   tuning.Tuning
	Catalogs *catalogs.Catalogs
	Levels   *level.Set
	Clock    clock.Clock
	Logger   *log.Logger

	TickLogger TickLogger
	Recorder   Recorder
	Sinks      []FrameSink

	// InboxSize bounds buffered commands between ticks.
	InboxSize int
}

// Game is single-goroutine: Run (or the caller of TickAt) owns all state.
// Other goroutines talk to it through Submit and frame sinks.
type Game struct {
	cfg     Config
	tune    tuning.Tuning
	builder *level.Builder
	levels  *level.Set
	clock   clock.Clock
	logger  *log.Logger

	inbox chan Command

	world  *world.World
	player *world.Player
	level  *level.Level

	tick uint64
	over bool
}

func New(cfg Config) (*Game, error) {
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, err
	}
	if cfg.Catalogs == nil || cfg.Levels == nil {
		return nil, fmt.Errorf("game: catalogs and levels are required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 64
	}
	p, err := cfg.Tuning.NewPlayer()
	if err != nil {
		return nil, err
	}
	g := &Game{
		cfg:     cfg,
		tune:    cfg.Tuning,
		builder: level.NewBuilder(cfg.Tuning, cfg.Catalogs),
		levels:  cfg.Levels,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
		inbox:   make(chan Command, cfg.InboxSize),
		player:  p,
	}
	if err := g.LoadLevel(cfg.Tuning.StartLevel); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) World() *world.World   { return g.world }
func (g *Game) Player() *world.Player { return g.player }
func (g *Game) Level() *level.Level   { return g.level }
func (g *Game) Tick() uint64          { return g.tick }
func (g *Game) Over() bool            { return g.over }

// Submit queues a command for the next tick. It never blocks; a full inbox drops c.
func (g *Game) Submit(c Command) bool {
	select {
	case g.inbox <- c:
		return true
	default:
		return false
	}
}

// Run ticks at the tuned rate until ctx ends or the run is over.
func (g *Game) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.tune.TickDuration())
	defer ticker.Stop()

	var pending []Command
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-g.inbox:
			pending = append(pending, c)
		case <-ticker.C:
			err := g.TickAt(g.clock.Now(), pending)
			pending = pending[:0]
			if err != nil {
				return err
			}
		}
	}
}

// TickAt advances one tick at wall time now. Order: commands, effect polling,
// physics step, death check, transition check, frame publication.
func (g *Game) TickAt(now time.Time, cmds []Command) error {
	if g.over {
		return ErrGameOver
	}
	// Millisecond resolution keeps live runs and replays identical.
	now = time.UnixMilli(now.UnixMilli()).UTC()
	levelID := g.level.ID

	for _, c := range cmds {
		if err := g.apply(c, now); err != nil {
			g.logger.Printf("command %s %q: %v", c.Kind, c.Arg, err)
		}
	}

	g.player.PollEffects(now, g.world)
	g.world.Step(g.tune.TickDuration().Seconds(), &world.Context{Now: now})
	events := g.world.DrainEvents()
	levelTick := g.world.CurrentTick()

	var runErr error
	if g.player.IsDead() {
		g.milestone(MilestoneDeath, now)
		if g.tune.RestartOnDeath {
			g.logger.Printf("player died on %s; restarting", g.level.ID)
			if err := g.Reset(now); err != nil {
				runErr = err
			}
		} else {
			g.over = true
			runErr = ErrGameOver
		}
	} else if next, ok := g.player.ConsumeTransition(); ok {
		g.milestone(MilestoneLevelClear, now)
		if err := g.loadLevelAt(next, now); err != nil {
			g.logger.Printf("transition from %s: %v", g.level.ID, err)
		}
	}

	// Entries carry the post-tick digest, counter included.
	tick := g.tick
	g.tick++
	entry := TickLogEntry{
		Tick:     tick,
		Level:    levelID,
		NowMs:    now.UnixMilli(),
		Commands: append([]Command(nil), cmds...),
		Events:   events,
		Digest:   g.Digest(),
	}
	if g.cfg.TickLogger != nil {
		if err := g.cfg.TickLogger.WriteTick(entry); err != nil {
			g.logger.Printf("tick log: %v", err)
		}
	}
	if g.cfg.Recorder != nil {
		g.cfg.Recorder.RecordTick(entry)
	}

	if len(g.cfg.Sinks) > 0 && (g.over || tick%uint64(g.tune.FrameEveryTicks) == 0) {
		f := g.frame(tick, levelTick, events)
		for _, s := range g.cfg.Sinks {
			s.PublishFrame(f)
		}
	}
	return runErr
}

func (g *Game) apply(c Command, now time.Time) error {
	speed := g.tune.Player.MoveSpeed
	switch c.Kind {
	case CmdLeft:
		g.player.Move(-speed, 0)
	case CmdRight:
		g.player.Move(speed, 0)
	case CmdJump:
		g.player.Jump()
	case CmdDuck:
		g.player.Duck()
	case CmdReset:
		return g.Reset(now)
	case CmdLoad:
		if _, ok := g.levels.Get(c.Arg); ok {
			return g.loadLevelAt(c.Arg, now)
		}
		return g.loadFileAt(c.Arg, now)
	default:
		return fmt.Errorf("unknown command %q", c.Kind)
	}
	return nil
}

// Digest covers the world and the run-level counters.
func (g *Game) Digest() string {
	return fmt.Sprintf("%s:%d:%s", g.level.ID, g.tick, g.world.StateDigest())
}

// Reset restores full health and zero score, then reloads the start level.
func (g *Game) Reset(now time.Time) error {
	g.player.ResetProgress()
	g.milestone(MilestoneReset, now)
	return g.loadLevelAt(g.tune.StartLevel, now)
}

// LoadLevel switches to the level with the given id. The player keeps its
// health and score.
func (g *Game) LoadLevel(id string) error {
	return g.loadLevelAt(id, g.clock.Now())
}

// LoadFile reads a level document from path, adds it to the level set and switches to it.
func (g *Game) LoadFile(path string) error {
	return g.loadFileAt(path, g.clock.Now())
}

func (g *Game) loadFileAt(path string, now time.Time) error {
	l, err := level.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrUnknownLevel, path)
		}
		return err
	}
	g.levels.Add(l)
	return g.loadLevelAt(l.ID, now)
}

func (g *Game) loadLevelAt(id string, now time.Time) error {
	l, ok := g.levels.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLevel, id)
	}
	w, err := g.builder.Build(l)
	if err != nil {
		return err
	}
	start := g.builder.PlayerStart(l)
	w.AddPlayer(g.player, start.X, start.Y)
	w.DrainEvents()
	g.world = w
	g.level = l
	g.logger.Printf("level %s loaded (%d things)", l.ID, len(w.Things()))
	g.milestone(MilestoneLevelStart, now)
	return nil
}

func (g *Game) milestone(kind MilestoneKind, now time.Time) {
	if g.cfg.Recorder == nil {
		return
	}
	g.cfg.Recorder.RecordMilestone(Milestone{
		Tick:   g.tick,
		Kind:   kind,
		Level:  g.level.ID,
		Score:  g.player.Score(),
		Health: g.player.Health(),
		At:     now,
	})
}

func (g *Game) frame(tick, levelTick uint64, events []world.Event) Frame {
	w, h := g.world.PixelSize()
	return Frame{
		Tick:      tick,
		LevelTick: levelTick,
		Level:     g.level.ID,
		Width:     w,
		Height:    h,
		Player:    g.player.State(),
		PlayerPos: g.player.Pos,
		Things:    g.world.Snapshot(),
		Events:    events,
		GameOver:  g.over,
	}
}
