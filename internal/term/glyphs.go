package term

import (
	"github.com/gdamore/tcell/v2"

	"brickworld.dev/internal/sim/world"
)

type Glyph struct {
	Rune  rune
	Style tcell.Style
}

func fg(c tcell.Color) tcell.Style { return tcell.StyleDefault.Foreground(c) }

// DefaultGlyphs is keyed by thing kind. Unknown kinds fall back by category.
var DefaultGlyphs = map[string]Glyph{
	world.KindPlayer:       {'M', fg(tcell.ColorRed).Bold(true)},
	world.KindBrick:        {'▓', fg(tcell.ColorSienna)},
	world.KindBrickBase:    {'█', fg(tcell.ColorSaddleBrown)},
	world.KindCube:         {'▒', fg(tcell.ColorSilver)},
	world.KindMysteryEmpty: {'?', fg(tcell.ColorYellow).Bold(true)},
	world.KindMysteryCoin:  {'?', fg(tcell.ColorGold).Bold(true)},
	world.KindBounce:       {'≈', fg(tcell.ColorAqua)},
	world.KindSwitch:       {'▀', fg(tcell.ColorBlue).Bold(true)},
	world.KindTunnel:       {'▌', fg(tcell.ColorGreen)},
	world.KindFlag:         {'|', fg(tcell.ColorWhite)},
	world.KindCoin:         {'o', fg(tcell.ColorGold)},
	world.KindStar:         {'*', fg(tcell.ColorYellow).Bold(true)},
	world.KindCloud:        {'~', fg(tcell.ColorWhite)},
	world.KindMushroom:     {'m', fg(tcell.ColorMaroon).Bold(true)},
	world.KindFireball:     {'@', fg(tcell.ColorOrangeRed)},
}

var (
	spentGlyph   = Glyph{'■', fg(tcell.ColorGray)}
	unknownGlyph = Glyph{'#', fg(tcell.ColorPurple)}
)

// GlyphFor picks the glyph for t. Spent mystery blocks and pressed switches
// render dimmed.
func GlyphFor(glyphs map[string]Glyph, t world.ThingState) Glyph {
	if t.Active != nil && !*t.Active {
		return spentGlyph
	}
	if g, ok := glyphs[t.Kind]; ok {
		return g
	}
	switch t.Category {
	case world.CategoryBlock:
		return glyphs[world.KindBrick]
	case world.CategoryItem:
		return glyphs[world.KindCoin]
	case world.CategoryMob:
		return glyphs[world.KindMushroom]
	}
	return unknownGlyph
}

// HealthColor is green above half health, orange above a quarter, red otherwise.
func HealthColor(health, max int) tcell.Color {
	if max <= 0 {
		return tcell.ColorRed
	}
	switch r := float64(health) / float64(max); {
	case r > 0.5:
		return tcell.ColorGreen
	case r > 0.25:
		return tcell.ColorOrange
	default:
		return tcell.ColorRed
	}
}
