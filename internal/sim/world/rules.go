package world

// InstallRules registers the game's collision table on d.
func InstallRules(d *Dispatcher) {
	d.Register(CategoryPlayer, CategoryItem, playerItemBegin, nil)
	d.Register(CategoryPlayer, CategoryBlock, playerBlockBegin, playerBlockSeparate)
	d.Register(CategoryPlayer, CategoryMob, playerMobBegin, nil)
	d.Register(CategoryMob, CategoryBlock, mobBlockBegin, nil)
	d.Register(CategoryMob, CategoryMob, mobMobBegin, nil)
	d.Register(CategoryMob, CategoryItem, func(a, b Thing, ctx *Context, side Side) bool { return false }, nil)
	d.Register(CategoryPlayer, CategoryBoundary, func(a, b Thing, ctx *Context, side Side) bool { return true }, nil)
	d.Register(CategoryMob, CategoryBoundary, mobBoundaryBegin, nil)
}

func playerItemBegin(a, b Thing, ctx *Context, side Side) bool {
	p, ok := a.(*Player)
	if !ok {
		return false
	}
	if c, ok := b.(Collectible); ok {
		c.Collect(p, ctx)
	}
	ctx.World.record(EventCollect, p, b, side, 0)
	ctx.World.RemoveItem(b)
	return false
}

func playerBlockBegin(a, b Thing, ctx *Context, side Side) bool {
	if s, ok := b.(*Switch); ok && !s.Active() {
		return false
	}
	b.OnHit(side, ctx)
	return true
}

// playerBlockSeparate clears the standing flags once the player leaves a goal block.
func playerBlockSeparate(a, b Thing, ctx *Context) {
	p, ok := a.(*Player)
	if !ok {
		return
	}
	switch b.(type) {
	case *Tunnel:
		p.onTunnel = false
	case *Flag:
		p.onFlag = false
	}
}

func playerMobBegin(a, b Thing, ctx *Context, side Side) bool {
	if p, ok := a.(*Player); ok && p.Invincible() {
		ctx.World.RemoveMob(b)
		return false
	}
	b.OnHit(side, ctx)
	return true
}

func mobBlockBegin(a, b Thing, ctx *Context, side Side) bool {
	switch m := a.(type) {
	case *Fireball:
		if b.Base().kind == KindBrick {
			ctx.World.RemoveBlock(b)
		}
		ctx.World.RemoveMob(m)
	case *Mushroom:
		if !side.Vertical() {
			m.FlipTempo()
		}
	}
	return true
}

func mobMobBegin(a, b Thing, ctx *Context, side Side) bool {
	_, fa := a.(*Fireball)
	_, fb := b.(*Fireball)
	if fa || fb {
		ctx.World.RemoveMob(a)
		ctx.World.RemoveMob(b)
		return false
	}
	_, ma := a.(*Mushroom)
	_, mb := b.(*Mushroom)
	if ma || mb {
		for _, t := range []Thing{a, b} {
			if f, ok := t.(tempoFlipper); ok {
				f.FlipTempo()
			}
		}
	}
	return false
}

// mobBoundaryBegin keeps mobs inside the level: walkers turn around, fireballs burn out.
func mobBoundaryBegin(a, b Thing, ctx *Context, side Side) bool {
	switch m := a.(type) {
	case *Fireball:
		ctx.World.RemoveMob(m)
		return false
	case *Mushroom:
		m.FlipTempo()
	}
	return true
}
