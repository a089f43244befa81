package level

import (
	"fmt"

	"brickworld.dev/internal/sim/catalogs"
	"brickworld.dev/internal/sim/tuning"
	"brickworld.dev/internal/sim/world"
)

// Spawn describes one placement after catalog resolution. X and Y are the
// centre of the thing in world pixels.
type Spawn struct {
	Symbol rune
	Def    catalogs.ThingDef
	X, Y   float64
	Size   world.Vec2
	// Next is the level a goal block leads to.
	Next string
}

// SpawnFunc adds the thing described by s to w.
type SpawnFunc func(w *world.World, s Spawn) error

// Builder turns level placements into world mutations. Factories are keyed by
// category; symbols missing from the catalog go to the fallback.
type Builder struct {
	tune      tuning.Tuning
	things    catalogs.ThingCatalog
	factories map[world.Category]SpawnFunc
	fallback  SpawnFunc
}

func NewBuilder(tune tuning.Tuning, cats *catalogs.Catalogs) *Builder {
	b := &Builder{
		tune:      tune,
		things:    cats.Things,
		factories: map[world.Category]SpawnFunc{},
	}
	b.Register(world.CategoryBlock, b.createBlock)
	b.Register(world.CategoryItem, b.createItem)
	b.Register(world.CategoryMob, b.createMob)
	b.SetFallback(createUnknown)
	return b
}

func (b *Builder) Register(cat world.Category, f SpawnFunc) { b.factories[cat] = f }
func (b *Builder) SetFallback(f SpawnFunc)                  { b.fallback = f }

// Build creates a fresh world for l. The player is not added; it belongs to the caller.
func (b *Builder) Build(l *Level) (*world.World, error) {
	bs := b.tune.BlockSize
	width, height := l.PixelSize(bs)
	w, err := world.New(b.tune.WorldConfig(width, height))
	if err != nil {
		return nil, err
	}
	w.AddBoundaries()

	for _, p := range l.Placements {
		def, ok := b.things.Lookup(p.Symbol)
		f := b.fallback
		size := world.Vec2{X: bs, Y: bs}
		if ok {
			if cf, has := b.factories[def.Cat()]; has {
				f = cf
			}
			size = def.PixelSize(bs)
		}
		if f == nil {
			continue
		}
		s := Spawn{
			Symbol: p.Symbol,
			Def:    def,
			Size:   size,
			Next:   l.GoalTarget(def.Kind),
		}
		s.X, s.Y = cellAnchor(p.Col, p.Row, bs, size)
		if err := f(w, s); err != nil {
			return nil, fmt.Errorf("%w: %s at (%d,%d): %v", ErrBadLevel, string(p.Symbol), p.Col, p.Row, err)
		}
	}
	return w, nil
}

// PlayerStart is where the player enters l.
func (b *Builder) PlayerStart(l *Level) world.Vec2 {
	if len(l.Start) == 2 {
		bs := b.tune.BlockSize
		return world.Vec2{X: l.Start[0]*bs + bs/2, Y: l.Start[1]*bs + bs/2}
	}
	return world.VecFromArray(b.tune.Player.Start)
}

// cellAnchor places a thing top-aligned in its cell. Narrow things are centred
// in the cell, wide ones extend to the right.
func cellAnchor(col, row int, bs float64, size world.Vec2) (float64, float64) {
	x := float64(col) * bs
	if size.X < bs {
		x += bs / 2
	} else {
		x += size.X / 2
	}
	y := float64(row)*bs + size.Y/2
	return x, y
}

func (b *Builder) createBlock(w *world.World, s Spawn) error {
	var t world.Thing
	switch s.Def.Kind {
	case world.KindMysteryEmpty, world.KindMysteryCoin:
		t = world.NewMysteryBlock(s.Def.Kind, s.Size, s.Def.Drop, s.Def.DropRange)
	case world.KindBounce:
		t = world.NewBounceBlock(s.Size)
	case world.KindSwitch:
		t = world.NewSwitch(s.Size)
	case world.KindTunnel:
		t = world.NewTunnel(s.Size, s.Next)
	case world.KindFlag:
		t = world.NewFlag(s.Size, s.Next)
	default:
		t = world.NewBlock(s.Def.Kind, s.Size)
	}
	w.AddBlock(t, s.X, s.Y)
	return nil
}

func (b *Builder) createItem(w *world.World, s Spawn) error {
	var t world.Thing
	switch s.Def.Kind {
	case world.KindCoin:
		t = world.NewCoin(s.Size, b.tune.Mobs.CoinValue)
	case world.KindStar:
		t = world.NewStar(s.Size)
	default:
		t = world.NewItem(s.Def.Kind, s.Size)
	}
	w.AddItem(t, s.X, s.Y)
	return nil
}

func (b *Builder) createMob(w *world.World, s Spawn) error {
	m := b.tune.Mobs
	var t world.Thing
	switch s.Def.Kind {
	case world.KindCloud:
		t = world.NewCloud(s.Size, m.CloudTempo, m.CloudRange)
	case world.KindFireball:
		t = world.NewFireball(s.Size, m.FireballDamage)
	case world.KindMushroom:
		t = world.NewMushroom(s.Size, -m.MushroomTempo, m.MushroomDamage, m.MushroomKnockback)
	default:
		t = world.NewMob(s.Def.Kind, s.Size, 0)
	}
	w.AddMob(t, s.X, s.Y)
	return nil
}

func createUnknown(w *world.World, s Spawn) error {
	w.AddThing(world.NewBody(string(s.Symbol), s.Size), s.X, s.Y)
	return nil
}
