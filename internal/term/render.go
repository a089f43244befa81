package term

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"brickworld.dev/internal/game"
	"brickworld.dev/internal/sim/world"
)

const hudRows = 1

// Renderer draws frames onto a tcell screen. One terminal row covers one block;
// one column covers half a block, since cells are about twice as tall as wide.
type Renderer struct {
	screen tcell.Screen
	colPx  float64
	rowPx  float64
	Glyphs map[string]Glyph
}

func NewRenderer(screen tcell.Screen, blockSize float64) *Renderer {
	return &Renderer{
		screen: screen,
		colPx:  blockSize / 2,
		rowPx:  blockSize,
		Glyphs: DefaultGlyphs,
	}
}

// ViewWidth is how many world pixels fit across the screen.
func (r *Renderer) ViewWidth() float64 {
	w, _ := r.screen.Size()
	return float64(w) * r.colPx
}

// Draw renders f and shows it.
func (r *Renderer) Draw(f game.Frame) {
	r.screen.Clear()
	scroll := Scroll(f.PlayerPos.X, f.Width, r.ViewWidth())

	var player *world.ThingState
	for i := range f.Things {
		t := f.Things[i]
		switch t.Category {
		case world.CategoryBoundary:
			continue
		case world.CategoryPlayer:
			player = &f.Things[i]
			continue
		}
		r.fill(t, scroll, GlyphFor(r.Glyphs, t))
	}
	if player != nil {
		g := GlyphFor(r.Glyphs, *player)
		if f.Player.Invincible {
			g.Style = g.Style.Blink(true).Foreground(tcell.ColorYellow)
		}
		r.fill(*player, scroll, g)
	}
	r.drawHUD(f)
	if f.GameOver {
		r.center("GAME OVER", tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true))
	}
	r.screen.Show()
}

// fill covers every cell the thing's box touches.
func (r *Renderer) fill(t world.ThingState, scroll float64, g Glyph) {
	box := world.BoxAt(t.Pos, t.Size)
	c0 := int(math.Floor((box.Min.X - scroll) / r.colPx))
	c1 := int(math.Ceil((box.Max.X-scroll)/r.colPx)) - 1
	r0 := int(math.Floor(box.Min.Y / r.rowPx))
	r1 := int(math.Ceil(box.Max.Y/r.rowPx)) - 1
	if c1 < c0 {
		c1 = c0
	}
	if r1 < r0 {
		r1 = r0
	}
	w, h := r.screen.Size()
	for row := r0; row <= r1; row++ {
		y := row + hudRows
		if y < hudRows || y >= h {
			continue
		}
		for col := c0; col <= c1; col++ {
			if col < 0 || col >= w {
				continue
			}
			r.screen.SetContent(col, y, g.Rune, nil, g.Style)
		}
	}
}

func (r *Renderer) drawHUD(f game.Frame) {
	p := f.Player
	x := r.text(0, 0, fmt.Sprintf("%s ", p.Name), tcell.StyleDefault.Bold(true))

	bar := tcell.StyleDefault.Foreground(HealthColor(p.Health, p.MaxHealth))
	for i := 0; i < p.MaxHealth; i++ {
		ch := '♥'
		st := bar
		if i >= p.Health {
			ch = '♡'
			st = tcell.StyleDefault.Foreground(tcell.ColorGray)
		}
		r.screen.SetContent(x, 0, ch, nil, st)
		x++
	}
	x = r.text(x, 0, fmt.Sprintf("  score %d  %s", p.Score, f.Level), tcell.StyleDefault)
	if p.Invincible {
		x = r.text(x, 0, "  STAR", tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true))
	}
	if p.SwitchLocked {
		r.text(x, 0, fmt.Sprintf("  LOCK %d", p.PendingBricks), tcell.StyleDefault.Foreground(tcell.ColorBlue))
	}
}

func (r *Renderer) text(x, y int, s string, st tcell.Style) int {
	w, _ := r.screen.Size()
	for _, ch := range s {
		if x >= w {
			break
		}
		r.screen.SetContent(x, y, ch, nil, st)
		x++
	}
	return x
}

func (r *Renderer) center(s string, st tcell.Style) {
	w, h := r.screen.Size()
	x := (w - len([]rune(s))) / 2
	if x < 0 {
		x = 0
	}
	r.text(x, h/2, s, st)
}
