package world

const (
	KindCloud    = "cloud"
	KindFireball = "fireball"
	KindMushroom = "mushroom"
)

// Mob is an autonomous dynamic thing. Tempo is its signed horizontal walking speed.
type Mob struct {
	Body

	Tempo float64
}

func NewMob(kind string, size Vec2, tempo float64) *Mob {
	return &Mob{Body: Body{kind: kind, Size: size, GravityScale: 1}, Tempo: tempo}
}

func (m *Mob) FlipTempo()     { m.Tempo = -m.Tempo }
func (m *Mob) tempo() float64 { return m.Tempo }

type tempoFlipper interface {
	FlipTempo()
	tempo() float64
}

// Cloud drifts back and forth around where it was placed, ignoring gravity.
type Cloud struct {
	Mob

	Range  float64
	origin Vec2
	placed bool
}

func NewCloud(size Vec2, tempo, wander float64) *Cloud {
	return &Cloud{Mob: Mob{Body: Body{kind: KindCloud, Size: size}, Tempo: tempo}, Range: wander}
}

func (c *Cloud) Step(dt float64, ctx *Context) {
	if !c.placed {
		c.origin = c.Pos
		c.placed = true
	}
	if c.Range > 0 {
		if c.Tempo > 0 && c.Pos.X >= c.origin.X+c.Range {
			c.FlipTempo()
		} else if c.Tempo < 0 && c.Pos.X <= c.origin.X-c.Range {
			c.FlipTempo()
		}
	}
	c.Vel = Vec2{X: c.Tempo}
}

// Fireball falls under gravity and burns whatever brick it lands on.
type Fireball struct {
	Mob

	Damage int
}

func NewFireball(size Vec2, damage int) *Fireball {
	return &Fireball{Mob: Mob{Body: Body{kind: KindFireball, Size: size, GravityScale: 1}}, Damage: damage}
}

func (f *Fireball) OnHit(side Side, ctx *Context) {
	if p := ctx.Player; p != nil && f.Damage > 0 {
		p.ChangeHealth(-f.Damage)
		ctx.World.record(EventDamage, f, p, side, f.Damage)
	}
	ctx.World.RemoveMob(f)
}

// Mushroom walks at a constant tempo and turns around at walls.
type Mushroom struct {
	Mob

	Damage    int
	Knockback float64
}

func NewMushroom(size Vec2, tempo float64, damage int, knockback float64) *Mushroom {
	return &Mushroom{
		Mob:       Mob{Body: Body{kind: KindMushroom, Size: size, GravityScale: 1}, Tempo: tempo},
		Damage:    damage,
		Knockback: knockback,
	}
}

func (m *Mushroom) Step(dt float64, ctx *Context) {
	m.Vel.X = m.Tempo
}

func (m *Mushroom) OnHit(side Side, ctx *Context) {
	p := ctx.Player
	if p == nil {
		return
	}
	w := ctx.World
	switch side {
	case SideAbove:
		w.RemoveMob(m)
		p.Vel.Y = -w.cfg.StompBounce
		p.jumping = true
		w.record(EventStomp, p, m, side, 0)
	case SideLeft, SideRight:
		p.ChangeHealth(-m.Damage)
		if side == SideLeft {
			p.Vel.X = -m.Knockback
		} else {
			p.Vel.X = m.Knockback
		}
		w.record(EventDamage, m, p, side, m.Damage)
	}
}
