package world

const (
	KindCoin = "coin"
	KindStar = "star"
)

// Item is a collectible that never blocks movement. A plain Item does nothing when collected.
type Item struct {
	Body
}

func NewItem(kind string, size Vec2) *Item {
	return &Item{Body: Body{kind: kind, Size: size}}
}

func (i *Item) Collect(p *Player, ctx *Context) {}

type Coin struct {
	Item

	Value int
}

func NewCoin(size Vec2, value int) *Coin {
	return &Coin{Item: Item{Body: Body{kind: KindCoin, Size: size}}, Value: value}
}

func (c *Coin) Collect(p *Player, ctx *Context) {
	p.ChangeScore(c.Value)
}

// Star grants timed invincibility.
type Star struct {
	Item
}

func NewStar(size Vec2) *Star {
	return &Star{Item: Item{Body: Body{kind: KindStar, Size: size}}}
}

func (s *Star) Collect(p *Player, ctx *Context) {
	p.startInvincible(ctx.Now)
	ctx.World.record(EventInvincible, p, s, SideNone, 0)
}

// NewItemOfKind builds the collectible used for mystery block drops.
func NewItemOfKind(kind string, size Vec2) Collectible {
	switch kind {
	case KindCoin:
		return NewCoin(size, 1)
	case KindStar:
		return NewStar(size)
	default:
		return NewItem(kind, size)
	}
}
