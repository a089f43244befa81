package world

import "math"

// Vec2 is a position or velocity in world pixels. Y grows downwards.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2       { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec2) Scale(k float64) Vec2  { return Vec2{X: v.X * k, Y: v.Y * k} }
func (v Vec2) Dist(o Vec2) float64   { return math.Hypot(v.X-o.X, v.Y-o.Y) }
func (v Vec2) ToArray() [2]float64   { return [2]float64{v.X, v.Y} }
func V(x, y float64) Vec2            { return Vec2{X: x, Y: y} }
func VecFromArray(a [2]float64) Vec2 { return Vec2{X: a[0], Y: a[1]} }

// Box is an axis-aligned bounding box.
type Box struct {
	Min Vec2
	Max Vec2
}

func BoxAt(center, size Vec2) Box {
	return Box{
		Min: Vec2{X: center.X - size.X/2, Y: center.Y - size.Y/2},
		Max: Vec2{X: center.X + size.X/2, Y: center.Y + size.Y/2},
	}
}

func (b Box) Center() Vec2 {
	return Vec2{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
}

// Overlap returns the penetration depth on each axis. Both are > 0 only when the
// boxes interpenetrate; touching edges do not count.
func (b Box) Overlap(o Box) (dx, dy float64) {
	dx = math.Min(b.Max.X, o.Max.X) - math.Max(b.Min.X, o.Min.X)
	dy = math.Min(b.Max.Y, o.Max.Y) - math.Max(b.Min.Y, o.Min.Y)
	return dx, dy
}

func (b Box) Intersects(o Box) bool {
	dx, dy := b.Overlap(o)
	return dx > 0 && dy > 0
}

// Side is the face of the struck thing that the other thing penetrates.
type Side uint8

const (
	SideNone Side = iota
	SideAbove
	SideBelow
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideAbove:
		return "ABOVE"
	case SideBelow:
		return "BELOW"
	case SideLeft:
		return "LEFT"
	case SideRight:
		return "RIGHT"
	default:
		return "NONE"
	}
}

func (s Side) Opposite() Side {
	switch s {
	case SideAbove:
		return SideBelow
	case SideBelow:
		return SideAbove
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return SideNone
	}
}

func (s Side) Vertical() bool { return s == SideAbove || s == SideBelow }

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ABOVE":
		*s = SideAbove
	case "BELOW":
		*s = SideBelow
	case "LEFT":
		*s = SideLeft
	case "RIGHT":
		*s = SideRight
	default:
		*s = SideNone
	}
	return nil
}

// ApproachSide classifies how box a penetrates box b using the minimum
// penetration axis. Equal depths resolve vertically so landings win over bumps.
func ApproachSide(a, b Box) Side {
	dx, dy := a.Overlap(b)
	if dx <= 0 || dy <= 0 {
		return SideNone
	}
	ac, bc := a.Center(), b.Center()
	if dy <= dx {
		if ac.Y < bc.Y {
			return SideAbove
		}
		return SideBelow
	}
	if ac.X < bc.X {
		return SideLeft
	}
	return SideRight
}
