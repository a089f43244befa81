package term

// Scroll returns the world x shown at the left edge of a view viewW wide. The
// view is centred on focusX except near the world's edges.
func Scroll(focusX, worldW, viewW float64) float64 {
	if worldW <= viewW {
		return 0
	}
	left := focusX - viewW/2
	if left < 0 {
		return 0
	}
	if max := worldW - viewW; left > max {
		return max
	}
	return left
}
