package world

import "time"

// cooldown is a wall-clock window keyed by an absolute start timestamp, so its
// length does not depend on the tick rate.
type cooldown struct {
	active bool
	since  time.Time
}

func (c *cooldown) start(now time.Time) {
	c.active = true
	c.since = now
}

func (c *cooldown) expired(now time.Time, d time.Duration) bool {
	return c.active && now.Sub(c.since) > d
}

func (p *Player) Invincible() bool             { return p.invincible.active }
func (p *Player) InvincibleSince() time.Time   { return p.invincible.since }
func (p *Player) SwitchLocked() bool           { return p.switchLock.active }
func (p *Player) SwitchLockedSince() time.Time { return p.switchLock.since }

// PendingBricks returns a copy of the brick positions awaiting restoration.
func (p *Player) PendingBricks() []Vec2 {
	return append([]Vec2(nil), p.pendingBricks...)
}

func (p *Player) startInvincible(now time.Time) {
	p.invincible.start(now)
}

func (p *Player) lockSwitch(now time.Time, bricks []Vec2) {
	p.switchLock.start(now)
	p.pendingBricks = append(p.pendingBricks, bricks...)
}

// PollEffects advances both timed state machines. The loop driver calls it once
// per tick, before stepping the world.
func (p *Player) PollEffects(now time.Time, w *World) {
	cfg := w.cfg
	if p.invincible.expired(now, cfg.InvincibleFor) {
		p.invincible = cooldown{}
		w.record(EventInvincibleEnd, p, nil, SideNone, 0)
	}
	if p.switchLock.expired(now, cfg.SwitchLockFor) {
		bricks := p.pendingBricks
		p.pendingBricks = nil
		p.switchLock = cooldown{}
		for _, pos := range bricks {
			w.AddBlock(NewBlock(KindBrick, Vec2{X: cfg.BlockSize, Y: cfg.BlockSize}), pos.X, pos.Y)
		}
		w.record(EventRestore, p, nil, SideNone, len(bricks))
	}
}
