package world

import (
	"fmt"
	"math"
	"time"
)

// Config holds simulation constants. Durations are wall-clock windows compared
// against Context.Now.
type Config struct {
	Width     float64
	Height    float64
	BlockSize float64
	Gravity   Vec2

	InvincibleFor time.Duration
	SwitchLockFor time.Duration
	SwitchRadius  float64

	BounceSpeed float64
	StompBounce float64
	FlagHeal    int
}

func DefaultConfig() Config {
	return Config{
		BlockSize:     16,
		Gravity:       Vec2{X: 0, Y: 300},
		InvincibleFor: 10 * time.Second,
		SwitchLockFor: 3 * time.Second,
		SwitchRadius:  65,
		BounceSpeed:   300,
		StompBounce:   120,
		FlagHeal:      3,
	}
}

func (c Config) Validate() error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: world size must be >= 0", ErrInvalidConfig)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block size must be > 0", ErrInvalidConfig)
	}
	if c.InvincibleFor < 0 || c.SwitchLockFor < 0 {
		return fmt.Errorf("%w: effect durations must be >= 0", ErrInvalidConfig)
	}
	if c.SwitchRadius < 0 || math.IsNaN(c.SwitchRadius) {
		return fmt.Errorf("%w: switch radius must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// World owns every thing in a level. It is single-threaded: all calls must come
// from the loop driver's goroutine.
type World struct {
	cfg      Config
	dispatch *Dispatcher

	things []Thing
	nextID ThingID
	player *Player

	// Contacts that began on an earlier tick, with their solidity verdict.
	active map[pairKey]bool

	tick   uint64
	events []Event
}

type pairKey struct {
	a, b ThingID
}

func New(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &World{
		cfg:      cfg,
		dispatch: NewDispatcher(),
		active:   map[pairKey]bool{},
	}
	InstallRules(w.dispatch)
	return w, nil
}

func (w *World) Config() Config            { return w.cfg }
func (w *World) Dispatcher() *Dispatcher   { return w.dispatch }
func (w *World) Player() *Player           { return w.player }
func (w *World) CurrentTick() uint64       { return w.tick }
func (w *World) SetGravity(gx, gy float64) { w.cfg.Gravity = Vec2{X: gx, Y: gy} }

// PixelSize returns the level dimensions in world pixels.
func (w *World) PixelSize() (float64, float64) { return w.cfg.Width, w.cfg.Height }

func (w *World) add(t Thing, cat Category, x, y float64) ThingID {
	b := t.Base()
	w.nextID++
	b.id = w.nextID
	b.cat = cat
	b.removed = false
	b.Pos = Vec2{X: x, Y: y}
	w.things = append(w.things, t)
	w.record(EventSpawn, t, nil, SideNone, 0)
	return b.id
}

// AddThing adds an opaque thing that takes part in no collision rules.
func (w *World) AddThing(t Thing, x, y float64) ThingID {
	return w.add(t, CategoryNone, x, y)
}

func (w *World) AddBlock(t Thing, x, y float64) ThingID {
	t.Base().Static = true
	return w.add(t, CategoryBlock, x, y)
}

func (w *World) AddMob(t Thing, x, y float64) ThingID  { return w.add(t, CategoryMob, x, y) }
func (w *World) AddItem(t Thing, x, y float64) ThingID { return w.add(t, CategoryItem, x, y) }

// AddPlayer installs p as the world's only player, replacing any previous one.
func (w *World) AddPlayer(p *Player, x, y float64) ThingID {
	if w.player != nil && w.player != p {
		w.remove(w.player)
	} else if w.player == p && !p.removed {
		p.Pos = Vec2{X: x, Y: y}
		return p.id
	}
	p.enterWorld()
	w.player = p
	return w.add(p, CategoryPlayer, x, y)
}

// AddBoundaries walls off the left, right and top edges of the level.
func (w *World) AddBoundaries() {
	if w.cfg.Width <= 0 || w.cfg.Height <= 0 {
		return
	}
	t := w.cfg.BlockSize
	h := w.cfg.Height + 2*t
	walls := []struct {
		x, y, sw, sh float64
	}{
		{-t / 2, w.cfg.Height / 2, t, h},
		{w.cfg.Width + t/2, w.cfg.Height / 2, t, h},
		{w.cfg.Width / 2, -t / 2, w.cfg.Width + 2*t, t},
	}
	for _, wall := range walls {
		b := NewBody(KindBoundary, Vec2{X: wall.sw, Y: wall.sh})
		b.Static = true
		w.add(b, CategoryBoundary, wall.x, wall.y)
	}
}

// Remove takes t out of the world immediately. Removing a thing twice is a no-op.
func (w *World) Remove(t Thing) {
	if t == nil {
		return
	}
	b := t.Base()
	if b.removed || b.id == 0 {
		return
	}
	if p, ok := t.(*Player); ok && p == w.player {
		// The player is never removed; it only leaves when replaced.
		return
	}
	w.remove(t)
}

func (w *World) RemoveBlock(t Thing) { w.Remove(t) }
func (w *World) RemoveMob(t Thing)   { w.Remove(t) }
func (w *World) RemoveItem(t Thing)  { w.Remove(t) }

func (w *World) remove(t Thing) {
	b := t.Base()
	b.removed = true
	for k := range w.active {
		if k.a == b.id || k.b == b.id {
			delete(w.active, k)
		}
	}
	w.record(EventRemove, t, nil, SideNone, 0)
}

// compact drops tombstoned things from the registry.
func (w *World) compact() {
	n := 0
	for _, t := range w.things {
		if t.Base().removed {
			continue
		}
		w.things[n] = t
		n++
	}
	for i := n; i < len(w.things); i++ {
		w.things[i] = nil
	}
	w.things = w.things[:n]
}

// Things returns the live things in registration order.
func (w *World) Things() []Thing {
	out := make([]Thing, 0, len(w.things))
	for _, t := range w.things {
		if !t.Base().removed {
			out = append(out, t)
		}
	}
	return out
}

// ThingsInRange returns the live things whose centre lies within radius of (x, y),
// in registration order.
func (w *World) ThingsInRange(x, y, radius float64) []Thing {
	c := Vec2{X: x, Y: y}
	var out []Thing
	for _, t := range w.things {
		b := t.Base()
		if b.removed {
			continue
		}
		if b.Pos.Dist(c) <= radius {
			out = append(out, t)
		}
	}
	return out
}

// Lookup finds a live thing by id.
func (w *World) Lookup(id ThingID) (Thing, bool) {
	for _, t := range w.things {
		if b := t.Base(); b.id == id && !b.removed {
			return t, true
		}
	}
	return nil, false
}
