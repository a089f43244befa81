package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"brickworld.dev/internal/sim/world"
)

type Catalogs struct {
	Things ThingCatalog
}

// ThingCatalog maps level symbols to the kind of thing they spawn.
type ThingCatalog struct {
	BySymbol map[rune]ThingDef
	ByKind   map[string]ThingDef
	// Kinds is the sorted kind palette.
	Kinds  []string
	Digest string
}

type ThingDef struct {
	Symbol    string `json:"symbol"`
	Kind      string `json:"kind"`
	Category  string `json:"category"`
	Drop      string `json:"drop,omitempty"`
	DropRange [2]int `json:"drop_range,omitempty"`
	// Size in blocks; zero means one block.
	Size [2]float64 `json:"size,omitempty"`
}

// PixelSize scales Size by the block edge length.
func (d ThingDef) PixelSize(block float64) world.Vec2 {
	w, h := d.Size[0], d.Size[1]
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return world.Vec2{X: w * block, Y: h * block}
}

func (d ThingDef) Cat() world.Category { return world.ParseCategory(d.Category) }

func (d ThingDef) SymbolRune() rune {
	r, _ := utf8.DecodeRuneInString(d.Symbol)
	return r
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadThings(filepath.Join(configDir, "things.json"), &c.Things); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadThings(path string, out *ThingCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return parseThings(raw, out)
}

func parseThings(raw []byte, out *ThingCatalog) error {
	out.Digest = sha256Hex(raw)

	var defs []ThingDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("things.json: %w", err)
	}
	out.BySymbol = map[rune]ThingDef{}
	out.ByKind = map[string]ThingDef{}
	for _, d := range defs {
		if utf8.RuneCountInString(d.Symbol) != 1 {
			return fmt.Errorf("things.json: symbol %q must be a single character", d.Symbol)
		}
		if d.Kind == "" {
			return fmt.Errorf("things.json: empty kind for symbol %q", d.Symbol)
		}
		if d.Cat() == world.CategoryNone {
			return fmt.Errorf("things.json: unknown category %q for %s", d.Category, d.Kind)
		}
		if d.Size[0] < 0 || d.Size[1] < 0 {
			return fmt.Errorf("things.json: negative size for %s", d.Kind)
		}
		if d.DropRange[1] < d.DropRange[0] {
			return fmt.Errorf("things.json: drop_range of %s is reversed", d.Kind)
		}
		r := d.SymbolRune()
		if prev, dup := out.BySymbol[r]; dup {
			return fmt.Errorf("things.json: symbol %q used by %s and %s", d.Symbol, prev.Kind, d.Kind)
		}
		out.BySymbol[r] = d
		out.ByKind[d.Kind] = d
	}

	kinds := make([]string, 0, len(out.ByKind))
	for k := range out.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	out.Kinds = kinds
	return nil
}

// Lookup resolves a level symbol.
func (c ThingCatalog) Lookup(symbol rune) (ThingDef, bool) {
	d, ok := c.BySymbol[symbol]
	return d, ok
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
