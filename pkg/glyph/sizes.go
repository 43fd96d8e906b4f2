package glyph

// Factory builds a fresh measurer at a pixel size.
type Factory func(size float64) *Measurer

// Sizes memoizes measurers per font size for the duration of one render.
// It is not safe for concurrent use.
type Sizes struct {
	base    float64
	factory Factory
	byPx    map[float64]*Measurer
}

// NewSizes returns a cache whose zero size resolves to base.
func NewSizes(base float64, factory Factory) *Sizes {
	return &Sizes{base: base, factory: factory, byPx: make(map[float64]*Measurer)}
}

// Base returns the default font size.
func (s *Sizes) Base() float64 { return s.base }

// Size returns size, or the base size when size is not positive.
func (s *Sizes) Size(size float64) float64 {
	if size <= 0 {
		return s.base
	}
	return size
}

// For returns the measurer for size, building it on first use.
func (s *Sizes) For(size float64) *Measurer {
	size = s.Size(size)
	if m, ok := s.byPx[size]; ok {
		return m
	}
	m := s.factory(size)
	s.byPx[size] = m
	return m
}

// LineHeight returns int(size * 1.5) for the resolved size.
func (s *Sizes) LineHeight(size float64) int {
	return int(s.Size(size) * 1.5)
}
