package world

// BeginFunc handles the first tick two things overlap. a has the first
// registered category, side is the face of b that a penetrates. The result is
// the solidity verdict: true keeps the two apart.
type BeginFunc func(a, b Thing, ctx *Context, side Side) bool

// SeparateFunc handles the tick two previously overlapping things stop overlapping.
type SeparateFunc func(a, b Thing, ctx *Context)

type catPair struct {
	lo, hi Category
}

func makeCatPair(a, b Category) catPair {
	if a > b {
		a, b = b, a
	}
	return catPair{lo: a, hi: b}
}

type rule struct {
	first    Category
	begin    BeginFunc
	separate SeparateFunc
}

// Dispatcher maps unordered category pairs to collision handlers.
type Dispatcher struct {
	rules map[catPair]rule
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{rules: map[catPair]rule{}}
}

// Register installs handlers for (a, b). Handlers always receive things in
// (a, b) order. separate may be nil.
func (d *Dispatcher) Register(a, b Category, begin BeginFunc, separate SeparateFunc) {
	d.rules[makeCatPair(a, b)] = rule{first: a, begin: begin, separate: separate}
}

func (d *Dispatcher) Registered(a, b Category) bool {
	_, ok := d.rules[makeCatPair(a, b)]
	return ok
}

// order puts x and y into registration order; swapped reports whether they were flipped.
func (d *Dispatcher) order(x, y Thing) (a, b Thing, r rule, swapped, ok bool) {
	r, ok = d.rules[makeCatPair(x.Base().cat, y.Base().cat)]
	if !ok {
		return x, y, r, false, false
	}
	if x.Base().cat != r.first {
		return y, x, r, true, true
	}
	return x, y, r, false, true
}

// Begin runs the begin handler for the pair. Unregistered pairs get the
// fallback verdict: non-solid, no effect.
func (d *Dispatcher) Begin(x, y Thing, ctx *Context, side Side) bool {
	a, b, r, swapped, ok := d.order(x, y)
	if !ok || r.begin == nil {
		return false
	}
	if swapped {
		side = side.Opposite()
	}
	return r.begin(a, b, ctx, side)
}

func (d *Dispatcher) Separate(x, y Thing, ctx *Context) {
	a, b, r, _, ok := d.order(x, y)
	if !ok || r.separate == nil {
		return
	}
	r.separate(a, b, ctx)
}
