package catalogs

import (
	"strings"
	"testing"

	"brickworld.dev/internal/sim/world"
)

func TestLoad_RepoCatalog(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cases := map[rune]struct {
		kind string
		cat  world.Category
	}{
		'#': {world.KindBrick, world.CategoryBlock},
		'$': {world.KindMysteryCoin, world.CategoryBlock},
		'S': {world.KindSwitch, world.CategoryBlock},
		'C': {world.KindCoin, world.CategoryItem},
		'*': {world.KindStar, world.CategoryItem},
		'@': {world.KindMushroom, world.CategoryMob},
		'F': {world.KindFireball, world.CategoryMob},
	}
	for sym, want := range cases {
		d, ok := c.Things.Lookup(sym)
		if !ok {
			t.Fatalf("symbol %q missing", sym)
		}
		if d.Kind != want.kind || d.Cat() != want.cat {
			t.Fatalf("symbol %q -> %s/%s want %s/%s", sym, d.Kind, d.Cat(), want.kind, want.cat)
		}
	}
	if d := c.Things.ByKind[world.KindMysteryCoin]; d.Drop != world.KindCoin || d.DropRange != [2]int{3, 6} {
		t.Fatalf("mystery coin drop %q %v", d.Drop, d.DropRange)
	}
	if got := c.Things.ByKind[world.KindFlag].PixelSize(16); got != (world.Vec2{X: 3.2, Y: 144}) {
		t.Fatalf("flag size %v", got)
	}
	if got := c.Things.ByKind[world.KindBrick].PixelSize(16); got != (world.Vec2{X: 16, Y: 16}) {
		t.Fatalf("brick size %v", got)
	}
	if c.Things.Digest == "" || len(c.Things.Kinds) != len(c.Things.ByKind) {
		t.Fatalf("digest/palette not built")
	}
}

func TestParseThings_Rejects(t *testing.T) {
	cases := map[string]string{
		"multi-char symbol": `[{"symbol":"##","kind":"brick","category":"block"}]`,
		"unknown category":  `[{"symbol":"#","kind":"brick","category":"wall"}]`,
		"duplicate symbol":  `[{"symbol":"#","kind":"brick","category":"block"},{"symbol":"#","kind":"cube","category":"block"}]`,
		"reversed range":    `[{"symbol":"$","kind":"m","category":"block","drop":"coin","drop_range":[6,3]}]`,
		"bad json":          `{`,
	}
	for name, raw := range cases {
		var out ThingCatalog
		if err := parseThings([]byte(raw), &out); err == nil {
			t.Fatalf("%s: expected error", name)
		} else if !strings.Contains(err.Error(), "things.json") {
			t.Fatalf("%s: error %q lacks file context", name, err)
		}
	}
}
