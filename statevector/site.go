package statevector

// Site is a titratable site's view into the vector: the contiguous
// range of global instance indices it owns, which one is currently
// active, and its own ordinal within the vector.
type Site struct {
	// IndexSite is the site's own ordinal in the vector.
	IndexSite int
	// IndexFirst and IndexLast bound the site's global instance range,
	// inclusive.
	IndexFirst, IndexLast int
	// IndexActive is the currently selected global instance index.
	IndexActive int
	// IsSubstate marks membership in the substate view.
	IsSubstate bool
}

// width returns the number of instances the site owns.
func (s *Site) width() int {
	return s.IndexLast - s.IndexFirst + 1
}

// movable reports whether the site has more than one instance, and can
// therefore take part in Move/DoubleMove instance draws. A
// single-instance site can never satisfy the "differs from current"
// redraw loop, so callers must exclude it from the eligible-site pool
// rather than looping forever.
func (s *Site) movable() bool {
	return s.width() > 1
}

// Pair is a strongly-interacting pair of sites, referenced by site
// ordinal (not pointer) so clone/copy never has to fix up aliasing.
type Pair struct {
	SiteA, SiteB int
	// Wmax is the maximum |W| observed between any two instances of
	// SiteA and SiteB.
	Wmax float64
}
