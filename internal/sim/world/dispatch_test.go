package world

import "testing"

func TestDispatcher_OrdersPairAndFlipsSide(t *testing.T) {
	d := NewDispatcher()
	var gotA, gotB Thing
	var gotSide Side
	d.Register(CategoryPlayer, CategoryBlock, func(a, b Thing, ctx *Context, side Side) bool {
		gotA, gotB, gotSide = a, b, side
		return true
	}, nil)

	p := &Player{Body: Body{cat: CategoryPlayer}}
	blk := NewBlock(KindBrick, block16())
	blk.cat = CategoryBlock

	if !d.Begin(blk, p, &Context{}, SideAbove) {
		t.Fatalf("expected solid verdict")
	}
	if gotA != Thing(p) || gotB != Thing(blk) {
		t.Fatalf("handler got (%v, %v), want (player, block)", gotA, gotB)
	}
	if gotSide != SideBelow {
		t.Fatalf("side=%s want BELOW after swap", gotSide)
	}
}

func TestDispatcher_UnregisteredPairIsNonSolid(t *testing.T) {
	d := NewDispatcher()
	InstallRules(d)
	a := NewBody("mystery_symbol", block16())
	b := &Player{Body: Body{cat: CategoryPlayer}}
	if d.Registered(a.cat, b.cat) {
		t.Fatalf("entity x player must not be registered")
	}
	if d.Begin(a, b, &Context{}, SideLeft) {
		t.Fatalf("fallback verdict must be non-solid")
	}
	d.Separate(a, b, &Context{})
}

func TestInstallRules_RegistersGamePairs(t *testing.T) {
	d := NewDispatcher()
	InstallRules(d)
	pairs := [][2]Category{
		{CategoryPlayer, CategoryItem},
		{CategoryPlayer, CategoryBlock},
		{CategoryPlayer, CategoryMob},
		{CategoryMob, CategoryBlock},
		{CategoryMob, CategoryMob},
		{CategoryMob, CategoryItem},
		{CategoryPlayer, CategoryBoundary},
		{CategoryMob, CategoryBoundary},
	}
	for _, pr := range pairs {
		if !d.Registered(pr[0], pr[1]) || !d.Registered(pr[1], pr[0]) {
			t.Fatalf("pair %s x %s not registered", pr[0], pr[1])
		}
	}
	if d.Registered(CategoryBlock, CategoryItem) {
		t.Fatalf("block x item should be unregistered")
	}
}
