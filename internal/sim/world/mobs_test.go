package world

import "testing"

func TestFireball_BurnsBrickAndItself(t *testing.T) {
	w, _ := newTestWorld(t)
	brick := NewBlock(KindBrick, block16())
	w.AddBlock(brick, 100, 100)
	fb := NewFireball(block16(), 0)
	w.AddMob(fb, 100, 83)
	fb.SetVelocity(V(0, 120))

	stepAt(w, t0)

	if !fb.Removed() || !brick.Removed() {
		t.Fatalf("fireball removed=%v brick removed=%v, want both", fb.Removed(), brick.Removed())
	}
	if countKind(w, KindBrick) != 0 || countKind(w, KindFireball) != 0 {
		t.Fatalf("registry still holds removed things")
	}
}

func TestFireball_SparesNonBrick(t *testing.T) {
	w, _ := newTestWorld(t)
	cube := NewBlock(KindCube, block16())
	w.AddBlock(cube, 100, 100)
	fb := NewFireball(block16(), 0)
	w.AddMob(fb, 100, 83)
	fb.SetVelocity(V(0, 120))

	stepAt(w, t0)

	if !fb.Removed() {
		t.Fatalf("fireball should burn out on any block")
	}
	if cube.Removed() {
		t.Fatalf("cube must survive a fireball")
	}
}

func TestMushroom_StompedFromAbove(t *testing.T) {
	w, p := newTestWorld(t)
	m := NewMushroom(block16(), 0, 1, 80)
	w.AddMob(m, 100, 100)
	m.GravityScale = 0

	p.SetPosition(V(100, 83))
	p.SetVelocity(V(0, 120))
	stepAt(w, t0)

	if !m.Removed() {
		t.Fatalf("stomped mushroom not removed")
	}
	if p.Vel.Y != -w.Config().StompBounce || !p.Jumping() {
		t.Fatalf("stomp bounce vel=%v jumping=%v", p.Vel.Y, p.Jumping())
	}
	if p.Health() != p.MaxHealth() {
		t.Fatalf("stomp must not hurt: health=%d", p.Health())
	}
}

func TestMushroom_SideContactHurtsAndKnocksBack(t *testing.T) {
	w, p := newTestWorld(t)
	m := NewMushroom(block16(), 0, 1, 80)
	w.AddMob(m, 100, 100)
	m.GravityScale = 0

	p.SetPosition(V(83, 100))
	p.SetVelocity(V(120, 0))
	stepAt(w, t0)

	if m.Removed() {
		t.Fatalf("side contact must not kill the mushroom")
	}
	if p.Health() != 4 {
		t.Fatalf("health=%d want 4", p.Health())
	}
	if p.Vel.X != -80 {
		t.Fatalf("knockback vel.x=%v want -80", p.Vel.X)
	}
	if p.Pos.X != 84 {
		t.Fatalf("player x=%v want 84 (pushed out)", p.Pos.X)
	}
}

func TestMushroom_InvinciblePlayerPassesThrough(t *testing.T) {
	w, p := newTestWorld(t)
	m := NewMushroom(block16(), 0, 1, 80)
	w.AddMob(m, 100, 100)
	m.GravityScale = 0
	p.startInvincible(t0)

	p.SetPosition(V(83, 100))
	p.SetVelocity(V(120, 0))
	stepAt(w, t0)

	if !m.Removed() {
		t.Fatalf("invincible contact should remove the mob")
	}
	if p.Health() != p.MaxHealth() || p.Vel.X != p.MaxSpeed() {
		t.Fatalf("invincible player affected: health=%d vel.x=%v", p.Health(), p.Vel.X)
	}
}

func TestMushroom_TurnsAtWalls(t *testing.T) {
	w, _ := newTestWorld(t)
	w.AddBlock(NewBlock(KindCube, block16()), 100, 100)
	m := NewMushroom(block16(), 40, 1, 80)
	m.GravityScale = 0
	// Right edge 0.5px short of the wall; one tick moves it 2/3px.
	w.AddMob(m, 83.5, 100)

	stepAt(w, t0)

	if m.Tempo != -40 {
		t.Fatalf("tempo=%v want -40", m.Tempo)
	}
	if m.Pos.X != 84 {
		t.Fatalf("mushroom x=%v want 84", m.Pos.X)
	}
}

func TestMushrooms_BounceOffEachOther(t *testing.T) {
	w, _ := newTestWorld(t)
	a := NewMushroom(block16(), 40, 1, 80)
	b := NewMushroom(block16(), -40, 1, 80)
	a.GravityScale, b.GravityScale = 0, 0
	w.AddMob(a, 100, 100)
	w.AddMob(b, 116.5, 100)

	stepAt(w, t0)

	if a.Tempo != -40 || b.Tempo != 40 {
		t.Fatalf("tempos=(%v,%v) want (-40,40)", a.Tempo, b.Tempo)
	}
}

func TestFireball_DestroysOtherMob(t *testing.T) {
	w, _ := newTestWorld(t)
	m := NewMushroom(block16(), 0, 1, 80)
	fb := NewFireball(block16(), 0)
	m.GravityScale = 0
	w.AddMob(m, 100, 100)
	w.AddMob(fb, 100, 83)
	fb.SetVelocity(V(0, 120))
	fb.GravityScale = 0

	stepAt(w, t0)

	if !m.Removed() || !fb.Removed() {
		t.Fatalf("mob x fireball must remove both")
	}
}

func TestCloud_WandersWithinRange(t *testing.T) {
	w, _ := newTestWorld(t)
	c := NewCloud(V(32, 16), 30, 20)
	w.AddMob(c, 160, 40)

	for i := 0; i < 600; i++ {
		stepAt(w, t0)
		if c.Pos.X < 160-21 || c.Pos.X > 160+21 {
			t.Fatalf("cloud wandered to x=%v", c.Pos.X)
		}
		if c.Pos.Y != 40 {
			t.Fatalf("cloud fell to y=%v", c.Pos.Y)
		}
	}
}
