package world

import "time"

// Category is the coarse classification used as the collision dispatch key.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryPlayer
	CategoryBlock
	CategoryMob
	CategoryItem
	CategoryBoundary
)

func (c Category) String() string {
	switch c {
	case CategoryPlayer:
		return "player"
	case CategoryBlock:
		return "block"
	case CategoryMob:
		return "mob"
	case CategoryItem:
		return "item"
	case CategoryBoundary:
		return "boundary"
	default:
		return "entity"
	}
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}

// ParseCategory maps a catalog name back to a Category. Unknown names map to CategoryNone.
func ParseCategory(s string) Category {
	switch s {
	case "player":
		return CategoryPlayer
	case "block":
		return CategoryBlock
	case "mob":
		return CategoryMob
	case "item":
		return CategoryItem
	case "boundary":
		return CategoryBoundary
	default:
		return CategoryNone
	}
}

type ThingID uint64

// Body is the physical part shared by every thing in the world.
// Pos is the centre of the bounding box.
type Body struct {
	id      ThingID
	kind    string
	cat     Category
	removed bool

	Pos  Vec2
	Vel  Vec2
	Size Vec2

	// Static bodies are never integrated and never pushed by contacts.
	Static bool
	// GravityScale multiplies world gravity for this body (0 = floats).
	GravityScale float64
}

// Context is handed to behaviors. Now is supplied by the loop driver; the world
// never reads the wall clock itself.
type Context struct {
	World  *World
	Player *Player
	Now    time.Time
}

// Thing is implemented by the fixed set of world objects in this package
// (blocks, mobs, items, the player and opaque bodies).
type Thing interface {
	Base() *Body
	// Step reacts to elapsed time before physics integration.
	Step(dt float64, ctx *Context)
	// OnHit reacts to a contact begun by the player, side being the face of this thing that was struck.
	OnHit(side Side, ctx *Context)
	sealed()
}

// Collectible items react to being picked up by the player.
type Collectible interface {
	Thing
	Collect(p *Player, ctx *Context)
}

// NewBody returns an opaque thing with no behavior; level loaders use it for unknown symbols.
func NewBody(kind string, size Vec2) *Body {
	return &Body{kind: kind, Size: size}
}

func (b *Body) Base() *Body                   { return b }
func (b *Body) Step(dt float64, ctx *Context) {}
func (b *Body) OnHit(side Side, ctx *Context) {}
func (b *Body) sealed()                       {}

func (b *Body) ID() ThingID        { return b.id }
func (b *Body) Kind() string       { return b.kind }
func (b *Body) Category() Category { return b.cat }
func (b *Body) Removed() bool      { return b.removed }
func (b *Body) Box() Box           { return BoxAt(b.Pos, b.Size) }
func (b *Body) SetVelocity(v Vec2) { b.Vel = v }
func (b *Body) SetPosition(p Vec2) { b.Pos = p }
