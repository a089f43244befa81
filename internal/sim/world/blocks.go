package world

import "time"

const (
	KindBrick        = "brick"
	KindBrickBase    = "brick_base"
	KindCube         = "cube"
	KindMysteryEmpty = "mystery_empty"
	KindMysteryCoin  = "mystery_coin"
	KindBounce       = "bounce"
	KindSwitch       = "switch"
	KindTunnel       = "tunnel"
	KindFlag         = "flag"
	KindBoundary     = "boundary"
)

// Block is an immovable thing. Plain blocks (brick, cube, ...) have no behavior.
type Block struct {
	Body
}

func NewBlock(kind string, size Vec2) *Block {
	return &Block{Body: Body{kind: kind, Size: size, Static: true}}
}

// MysteryBlock drops items the first time it is struck from below.
type MysteryBlock struct {
	Block

	active    bool
	DropKind  string
	DropRange [2]int
}

func NewMysteryBlock(kind string, size Vec2, drop string, dropRange [2]int) *MysteryBlock {
	return &MysteryBlock{
		Block:     Block{Body: Body{kind: kind, Size: size, Static: true}},
		active:    true,
		DropKind:  drop,
		DropRange: dropRange,
	}
}

func (m *MysteryBlock) Active() bool { return m.active }

func (m *MysteryBlock) OnHit(side Side, ctx *Context) {
	if side != SideBelow || !m.active {
		return
	}
	m.active = false
	ctx.World.record(EventMystery, m, nil, side, 0)
	if m.DropKind == "" {
		return
	}
	n := m.dropCount()
	for i := 0; i < n; i++ {
		item := NewItemOfKind(m.DropKind, m.Size)
		y := m.Pos.Y - m.Size.Y/2 - item.Base().Size.Y/2 - float64(i)*item.Base().Size.Y
		ctx.World.AddItem(item, m.Pos.X, y)
	}
}

// dropCount picks a count in DropRange from the block's position so the result
// does not depend on any global random source.
func (m *MysteryBlock) dropCount() int {
	lo, hi := m.DropRange[0], m.DropRange[1]
	if lo <= 0 && hi <= 0 {
		return 1
	}
	if hi < lo {
		hi = lo
	}
	span := uint64(hi - lo + 1)
	return lo + int(hash2(int(m.Pos.X), int(m.Pos.Y))%span)
}

// BounceBlock launches a player that lands on it.
type BounceBlock struct {
	Block
}

func NewBounceBlock(size Vec2) *BounceBlock {
	return &BounceBlock{Block: Block{Body: Body{kind: KindBounce, Size: size, Static: true}}}
}

func (b *BounceBlock) OnHit(side Side, ctx *Context) {
	if side != SideAbove || ctx.Player == nil {
		return
	}
	p := ctx.Player
	p.Vel.Y = -ctx.World.cfg.BounceSpeed
	p.jumping = true
	ctx.World.record(EventBounce, b, p, side, 0)
}

// Switch removes nearby bricks when pressed from above and stays inactive until
// the switch-lock window has elapsed.
type Switch struct {
	Block

	active    bool
	pressedAt time.Time
}

func NewSwitch(size Vec2) *Switch {
	return &Switch{Block: Block{Body: Body{kind: KindSwitch, Size: size, Static: true}}, active: true}
}

func (s *Switch) Active() bool { return s.active }

func (s *Switch) OnHit(side Side, ctx *Context) {
	if side != SideAbove || !s.active || ctx.Player == nil {
		return
	}
	p := ctx.Player
	if p.SwitchLocked() {
		return
	}
	w := ctx.World
	var removed []Vec2
	for _, t := range w.ThingsInRange(s.Pos.X, s.Pos.Y, w.cfg.SwitchRadius) {
		b := t.Base()
		if b.cat != CategoryBlock || b.kind != KindBrick {
			continue
		}
		removed = append(removed, b.Pos)
		w.RemoveBlock(t)
	}
	p.lockSwitch(ctx.Now, removed)
	s.active = false
	s.pressedAt = ctx.Now
	w.record(EventSwitch, s, p, side, len(removed))
}

func (s *Switch) Step(dt float64, ctx *Context) {
	if s.active {
		return
	}
	if ctx.Now.Sub(s.pressedAt) > ctx.World.cfg.SwitchLockFor {
		s.active = true
	}
}

// Tunnel marks the player as standing on it; ducking there moves to NextLevel.
type Tunnel struct {
	Block

	NextLevel string
}

func NewTunnel(size Vec2, next string) *Tunnel {
	return &Tunnel{Block: Block{Body: Body{kind: KindTunnel, Size: size, Static: true}}, NextLevel: next}
}

func (t *Tunnel) OnHit(side Side, ctx *Context) {
	if side != SideAbove || ctx.Player == nil {
		return
	}
	ctx.Player.onTunnel = true
	ctx.Player.nextLevel = t.NextLevel
}

// Flag heals a player landing on top of it once per approach; touching the pole
// from any other side finishes the level.
type Flag struct {
	Block

	NextLevel string
}

func NewFlag(size Vec2, next string) *Flag {
	return &Flag{Block: Block{Body: Body{kind: KindFlag, Size: size, Static: true}}, NextLevel: next}
}

func (f *Flag) OnHit(side Side, ctx *Context) {
	p := ctx.Player
	if p == nil {
		return
	}
	if side == SideAbove {
		if p.onFlag {
			return
		}
		p.onFlag = true
		heal := ctx.World.cfg.FlagHeal
		p.ChangeHealth(heal)
		ctx.World.record(EventHeal, f, p, side, heal)
		return
	}
	p.RequestTransition(f.NextLevel)
	ctx.World.record(EventTransition, f, p, side, 0)
}
