package world

import (
	"fmt"
	"math"
)

const KindPlayer = "player"

// Player is the single controlled thing. It outlives worlds: the loop driver
// re-adds the same Player to each freshly loaded level.
type Player struct {
	Body

	name      string
	health    int
	maxHealth int
	score     int
	mass      float64
	maxSpeed  float64

	JumpSpeed float64
	DuckSpeed float64
	// Friction is the fraction of horizontal speed shed per second while grounded.
	Friction float64

	jumping bool

	onTunnel         bool
	onFlag           bool
	nextLevel        string
	pendingNextLevel string
	shouldTransition bool

	invincible cooldown
	switchLock cooldown
	// Bricks removed by the active switch press, restored when the lock expires.
	pendingBricks []Vec2
}

func NewPlayer(name string, size Vec2, maxHealth int) (*Player, error) {
	p := &Player{
		Body:     Body{kind: KindPlayer, Size: size, GravityScale: 1},
		name:     name,
		mass:     300,
		maxSpeed: 100,
	}
	if err := p.SetMaxHealth(maxHealth); err != nil {
		return nil, err
	}
	p.health = p.maxHealth
	return p, nil
}

func (p *Player) Name() string        { return p.name }
func (p *Player) SetName(name string) { p.name = name }
func (p *Player) Health() int         { return p.health }
func (p *Player) MaxHealth() int      { return p.maxHealth }
func (p *Player) Score() int          { return p.score }
func (p *Player) Mass() float64       { return p.mass }
func (p *Player) MaxSpeed() float64   { return p.maxSpeed }
func (p *Player) IsDead() bool        { return p.health <= 0 }
func (p *Player) Jumping() bool       { return p.jumping }
func (p *Player) OnTunnel() bool      { return p.onTunnel }
func (p *Player) OnFlag() bool        { return p.onFlag }
func (p *Player) NextLevel() string   { return p.nextLevel }

// SetMaxHealth rejects non-positive values and clamps current health into range.
func (p *Player) SetMaxHealth(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: max health must be > 0, got %d", ErrInvalidConfig, n)
	}
	p.maxHealth = n
	p.health = clampInt(p.health, 0, n)
	return nil
}

func (p *Player) SetMass(m float64) error {
	if m <= 0 || math.IsNaN(m) {
		return fmt.Errorf("%w: mass must be > 0, got %v", ErrInvalidConfig, m)
	}
	p.mass = m
	return nil
}

func (p *Player) SetMaxSpeed(v float64) error {
	if v <= 0 || math.IsNaN(v) {
		return fmt.Errorf("%w: max speed must be > 0, got %v", ErrInvalidConfig, v)
	}
	p.maxSpeed = v
	return nil
}

// ChangeHealth adds delta and clamps the result to [0, max health].
func (p *Player) ChangeHealth(delta int) {
	p.health = clampInt(p.health+delta, 0, p.maxHealth)
}

func (p *Player) ChangeScore(delta int) { p.score += delta }

// Move sets horizontal speed and adds vertical speed. Physics applies it on the next step.
func (p *Player) Move(dx, dy float64) {
	p.Vel.X = dx
	p.Vel.Y += dy
}

// Jump only works while grounded; landing on something solid re-arms it.
func (p *Player) Jump() {
	if p.jumping {
		return
	}
	p.Vel.Y -= p.JumpSpeed
	p.jumping = true
}

// Duck pushes the player down; on a tunnel it requests the tunnel's level.
func (p *Player) Duck() {
	p.Vel.Y += p.DuckSpeed
	if p.onTunnel && p.nextLevel != "" {
		p.RequestTransition(p.nextLevel)
	}
}

func (p *Player) RequestTransition(level string) {
	p.pendingNextLevel = level
	p.shouldTransition = true
}

func (p *Player) ShouldTransition() bool { return p.shouldTransition }

func (p *Player) PendingNextLevel() (string, bool) {
	return p.pendingNextLevel, p.pendingNextLevel != ""
}

// ConsumeTransition reports and clears a pending level transition.
func (p *Player) ConsumeTransition() (string, bool) {
	if !p.shouldTransition {
		return "", false
	}
	level := p.pendingNextLevel
	p.shouldTransition = false
	p.pendingNextLevel = ""
	return level, true
}

// ResetProgress restores full health and zero score.
func (p *Player) ResetProgress() {
	p.score = 0
	p.health = p.maxHealth
}

// enterWorld clears state that belongs to the previous level.
func (p *Player) enterWorld() {
	p.removed = false
	p.Vel = Vec2{}
	p.jumping = false
	p.onTunnel = false
	p.onFlag = false
	p.nextLevel = ""
	p.pendingNextLevel = ""
	p.shouldTransition = false
	p.invincible = cooldown{}
	p.switchLock = cooldown{}
	p.pendingBricks = nil
}

func (p *Player) Step(dt float64, ctx *Context) {
	if !p.jumping && p.Friction > 0 {
		k := 1 - p.Friction*dt
		if k < 0 {
			k = 0
		}
		p.Vel.X *= k
	}
	if p.maxSpeed > 0 {
		if p.Vel.X > p.maxSpeed {
			p.Vel.X = p.maxSpeed
		} else if p.Vel.X < -p.maxSpeed {
			p.Vel.X = -p.maxSpeed
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
