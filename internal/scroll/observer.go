package scroll

// Observer reports threshold crossings of section visibility, the way a
// browser intersection observer does. Callbacks fire only on change.
type Observer struct {
	Threshold float64
	OnChange  func(index int, intersecting bool)

	state map[int]bool
}

func NewObserver(threshold float64, onChange func(index int, intersecting bool)) *Observer {
	return &Observer{Threshold: threshold, OnChange: onChange, state: make(map[int]bool)}
}

// IntersectionRatio is the fraction of a section visible at offset y.
func IntersectionRatio(y, viewportHeight, top, height float64) float64 {
	if height <= 0 {
		return 0
	}
	lo := max(y, top)
	hi := min(y+viewportHeight, top+height)
	if hi <= lo {
		return 0
	}
	return (hi - lo) / height
}

// Observe evaluates one section at offset y.
func (o *Observer) Observe(index int, y, viewportHeight, top, height float64) {
	ratio := IntersectionRatio(y, viewportHeight, top, height)
	in := ratio > 0 && ratio >= o.Threshold
	prev, seen := o.state[index]
	o.state[index] = in
	if (!seen || prev != in) && o.OnChange != nil {
		o.OnChange(index, in)
	}
}

// Reset forgets every section so the next Observe reports again.
func (o *Observer) Reset() {
	clear(o.state)
}
