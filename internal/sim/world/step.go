package world

import "sort"

type contact struct {
	a, b Thing
	key  pairKey
	side Side
}

// Step advances the world by dt seconds: behaviors react to time, bodies are
// integrated, contacts are detected and dispatched, and solid contacts are
// pushed apart. ctx.Now is used only by behaviors; Step never reads the clock.
func (w *World) Step(dt float64, ctx *Context) {
	if ctx == nil {
		ctx = &Context{}
	}
	ctx.World = w
	ctx.Player = w.player

	w.compact()

	// Things spawned by a behavior this tick are stepped from the next tick on.
	n := len(w.things)
	for i := 0; i < n; i++ {
		if t := w.things[i]; !t.Base().removed {
			t.Step(dt, ctx)
		}
	}

	w.integrate(dt)
	w.cull()

	contacts := w.detect()
	w.separateEnded(contacts, ctx)
	// Landing takes precedence over side bumps: vertical contacts are resolved
	// first, and a side contact whose overlap they already removed is dropped.
	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].side.Vertical() && !contacts[j].side.Vertical()
	})
	for _, c := range contacts {
		w.resolve(c, ctx)
	}

	w.compact()
	w.tick++
}

func (w *World) integrate(dt float64) {
	g := w.cfg.Gravity
	for _, t := range w.things {
		b := t.Base()
		if b.removed || b.Static {
			continue
		}
		if b.GravityScale != 0 {
			b.Vel = b.Vel.Add(g.Scale(b.GravityScale * dt))
		}
		b.Pos = b.Pos.Add(b.Vel.Scale(dt))
	}
}

// cull drops things that fell below the level. A falling player loses all health instead.
func (w *World) cull() {
	if w.cfg.Height <= 0 {
		return
	}
	limit := w.cfg.Height + w.cfg.BlockSize
	for _, t := range w.things {
		b := t.Base()
		if b.removed || b.Static || b.Box().Min.Y <= limit {
			continue
		}
		if p, ok := t.(*Player); ok {
			if p.health > 0 {
				p.ChangeHealth(-p.maxHealth)
				w.record(EventFell, p, nil, SideNone, 0)
			}
			continue
		}
		w.remove(t)
	}
}

// detect collects overlapping pairs whose categories have a registered rule,
// ordered as the rule expects.
func (w *World) detect() []contact {
	var out []contact
	for i := 0; i < len(w.things); i++ {
		ti := w.things[i]
		bi := ti.Base()
		if bi.removed {
			continue
		}
		boxI := bi.Box()
		for j := i + 1; j < len(w.things); j++ {
			tj := w.things[j]
			bj := tj.Base()
			if bj.removed || (bi.Static && bj.Static) {
				continue
			}
			if !w.dispatch.Registered(bi.cat, bj.cat) {
				continue
			}
			if !boxI.Intersects(bj.Box()) {
				continue
			}
			a, b, _, _, _ := w.dispatch.order(ti, tj)
			out = append(out, contact{
				a:    a,
				b:    b,
				key:  pairKey{a: a.Base().id, b: b.Base().id},
				side: ApproachSide(a.Base().Box(), b.Base().Box()),
			})
		}
	}
	return out
}

// separateEnded fires separate handlers for contacts that no longer overlap.
func (w *World) separateEnded(current []contact, ctx *Context) {
	if len(w.active) == 0 {
		return
	}
	still := make(map[pairKey]bool, len(current))
	for _, c := range current {
		still[c.key] = true
	}
	var ended []pairKey
	for k := range w.active {
		if !still[k] {
			ended = append(ended, k)
		}
	}
	sort.Slice(ended, func(i, j int) bool {
		if ended[i].a != ended[j].a {
			return ended[i].a < ended[j].a
		}
		return ended[i].b < ended[j].b
	})
	for _, k := range ended {
		delete(w.active, k)
		a, okA := w.Lookup(k.a)
		b, okB := w.Lookup(k.b)
		if !okA || !okB {
			continue
		}
		w.dispatch.Separate(a, b, ctx)
		w.record(EventSeparate, a, b, SideNone, 0)
	}
}

func (w *World) resolve(c contact, ctx *Context) {
	if c.a.Base().removed || c.b.Base().removed {
		return
	}
	side := ApproachSide(c.a.Base().Box(), c.b.Base().Box())
	if side == SideNone {
		return
	}
	solid, seen := w.active[c.key]
	if !seen {
		w.record(EventContact, c.a, c.b, side, 0)
		solid = w.dispatch.Begin(c.a, c.b, ctx, side)
		if c.a.Base().removed || c.b.Base().removed {
			return
		}
		w.active[c.key] = solid
	}
	if solid {
		pushApart(c.a, c.b, ApproachSide(c.a.Base().Box(), c.b.Base().Box()))
	}
}

// pushApart moves the non-static body out of the other along the contact axis
// and cancels velocity pointing into the surface.
func pushApart(a, b Thing, side Side) {
	if side == SideNone {
		return
	}
	mover, other := a, b
	if a.Base().Static {
		if b.Base().Static {
			return
		}
		mover, other, side = b, a, side.Opposite()
	}
	m := mover.Base()
	box := other.Base().Box()
	switch side {
	case SideAbove:
		m.Pos.Y = box.Min.Y - m.Size.Y/2
		if m.Vel.Y > 0 {
			m.Vel.Y = 0
		}
		if p, ok := mover.(*Player); ok && p.Vel.Y >= 0 {
			p.jumping = false
		}
	case SideBelow:
		m.Pos.Y = box.Max.Y + m.Size.Y/2
		if m.Vel.Y < 0 {
			m.Vel.Y = 0
		}
	case SideLeft:
		m.Pos.X = box.Min.X - m.Size.X/2
		if m.Vel.X > 0 {
			m.Vel.X = 0
		}
	case SideRight:
		m.Pos.X = box.Max.X + m.Size.X/2
		if m.Vel.X < 0 {
			m.Vel.X = 0
		}
	}
}
