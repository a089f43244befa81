package world

import (
	"testing"
	"time"
)

func TestStar_InvincibilityWindow(t *testing.T) {
	w, p := newTestWorld(t)
	star := NewStar(block16())
	w.AddItem(star, 16, 16)

	stepAt(w, t0)
	if !star.Removed() {
		t.Fatalf("star not collected")
	}
	if !p.Invincible() || !p.InvincibleSince().Equal(t0) {
		t.Fatalf("invincible=%v since=%v", p.Invincible(), p.InvincibleSince())
	}

	p.PollEffects(t0.Add(5*time.Second), w)
	if !p.Invincible() {
		t.Fatalf("invincibility ended early at 5s")
	}
	p.PollEffects(t0.Add(10*time.Second), w)
	if !p.Invincible() {
		t.Fatalf("invincibility must last strictly longer than the window")
	}
	p.PollEffects(t0.Add(11*time.Second), w)
	if p.Invincible() {
		t.Fatalf("still invincible at 11s")
	}
	if got := countEvents(w.DrainEvents(), EventInvincibleEnd); got != 1 {
		t.Fatalf("invincible end events=%d want 1", got)
	}
}

func TestStar_ShieldsUntilExpiryThenMobsHurt(t *testing.T) {
	w, p := newTestWorld(t)
	w.AddItem(NewStar(block16()), 16, 16)
	stepAt(w, t0)
	if !p.Invincible() {
		t.Fatalf("star not applied")
	}

	walkInto := func(now time.Time) *Mushroom {
		m := NewMushroom(block16(), 0, 1, 80)
		w.AddMob(m, 100, 100)
		m.GravityScale = 0
		p.SetPosition(V(83, 100))
		p.SetVelocity(V(120, 0))
		p.PollEffects(now, w)
		stepAt(w, now)
		return m
	}

	first := walkInto(t0.Add(5 * time.Second))
	if !first.Removed() {
		t.Fatalf("mushroom survived contact with an invincible player")
	}
	if p.Health() != 5 {
		t.Fatalf("health=%d while invincible, want 5", p.Health())
	}

	second := walkInto(t0.Add(11 * time.Second))
	if p.Invincible() {
		t.Fatalf("still invincible at 11s")
	}
	if second.Removed() {
		t.Fatalf("side contact after expiry must not kill the mushroom")
	}
	if p.Health() != 4 {
		t.Fatalf("health=%d after expiry, want 4", p.Health())
	}
	if got := countEvents(w.DrainEvents(), EventInvincibleEnd); got != 1 {
		t.Fatalf("invincible end events=%d want 1", got)
	}
}

func TestCoin_AddsScoreOnce(t *testing.T) {
	w, p := newTestWorld(t)
	w.AddItem(NewCoin(block16(), 5), 16, 16)

	stepAt(w, t0)
	stepAt(w, t0)

	if p.Score() != 5 {
		t.Fatalf("score=%d want 5", p.Score())
	}
	if countCategory(w, CategoryItem) != 0 {
		t.Fatalf("collected coin still in the world")
	}
	if p.Vel != (Vec2{}) {
		t.Fatalf("items must never block movement, vel=%v", p.Vel)
	}
}

func TestPlayer_HealthStaysInBounds(t *testing.T) {
	p, err := NewPlayer("mario", block16(), 5)
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	p.ChangeHealth(-100)
	if p.Health() != 0 || !p.IsDead() {
		t.Fatalf("health=%d dead=%v", p.Health(), p.IsDead())
	}
	p.ChangeHealth(100)
	if p.Health() != 5 || p.IsDead() {
		t.Fatalf("health=%d want 5", p.Health())
	}
	if err := p.SetMaxHealth(3); err != nil {
		t.Fatalf("set max health: %v", err)
	}
	if p.Health() != 3 {
		t.Fatalf("health=%d not clamped to new max", p.Health())
	}
	p.ChangeScore(7)
	p.ChangeHealth(-2)
	p.ResetProgress()
	if p.Score() != 0 || p.Health() != 3 {
		t.Fatalf("reset left score=%d health=%d", p.Score(), p.Health())
	}
}

func TestPlayer_JumpOnlyWhenGrounded(t *testing.T) {
	p, _ := NewPlayer("mario", block16(), 5)
	p.JumpSpeed = 150
	p.Jump()
	p.Jump()
	if p.Vel.Y != -150 {
		t.Fatalf("double jump applied: vel.y=%v", p.Vel.Y)
	}
}

func TestPlayer_EnterWorldClearsLevelState(t *testing.T) {
	w, p := newTestWorld(t)
	p.startInvincible(t0)
	p.lockSwitch(t0, []Vec2{V(1, 2)})
	p.RequestTransition("level2")

	w2, err := New(w.Config())
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	w2.AddPlayer(p, 32, 32)
	if p.Invincible() || p.SwitchLocked() || len(p.PendingBricks()) != 0 || p.ShouldTransition() {
		t.Fatalf("level state survived the move to a new world")
	}
	if w2.Player() != p {
		t.Fatalf("player not installed")
	}
}
