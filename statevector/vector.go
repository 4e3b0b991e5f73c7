// Package statevector implements the mixed-radix counter over per-site
// instance indices that both the exact-enumeration path and the Monte
// Carlo engine drive: one Site per titratable site, an optional
// substate view restricting the odometer to a subset of sites, and a
// pairs table recording strongly-interacting site pairs for correlated
// double moves.
package statevector

import (
	"fmt"

	"github.com/mroth/weightedrand"

	"github.com/efliks/pcetk/rng"
)

// StateVector holds one Site per titratable site, an optional substate
// view (non-owning references into Sites, by ordinal), and an optional
// pairs table of strongly-interacting site pairs.
type StateVector struct {
	Sites         []Site
	substateSites []int // indices into Sites
	Pairs         []Pair
}

// Allocate creates a StateVector with nsites sites, all zero-valued
// (SetSite must be called for each before use). No substate or pairs
// table is allocated.
func Allocate(nsites int) (*StateVector, error) {
	if nsites < 0 {
		return nil, fmt.Errorf("statevector: allocate %d sites: %w", nsites, ErrAllocationFailure)
	}
	return &StateVector{Sites: make([]Site, nsites)}, nil
}

// NumSites returns the number of sites.
func (v *StateVector) NumSites() int {
	return len(v.Sites)
}

// NumPairs returns the number of allocated pairs.
func (v *StateVector) NumPairs() int {
	return len(v.Pairs)
}

// AllocateSubstate reserves the substate view over nssites sites. It
// fails if a substate is already allocated.
func (v *StateVector) AllocateSubstate(nssites int) error {
	if v.substateSites != nil {
		return fmt.Errorf("statevector: substate already allocated: %w", ErrAllocationFailure)
	}
	v.substateSites = make([]int, nssites)
	return nil
}

// AllocatePairs reserves a pairs table of exactly npairs entries.
// Reallocating an existing table discards the old one first.
func (v *StateVector) AllocatePairs(npairs int) error {
	if npairs < 0 {
		return fmt.Errorf("statevector: allocate %d pairs: %w", npairs, ErrAllocationFailure)
	}
	v.Pairs = make([]Pair, npairs)
	return nil
}

// SetSite stores the instance range owned by site indexSite and resets
// its active instance to indexFirst.
func (v *StateVector) SetSite(indexSite, indexFirst, indexLast int) error {
	if indexSite < 0 || indexSite >= len(v.Sites) {
		return fmt.Errorf("statevector: site %d: %w", indexSite, ErrIndexOutOfRange)
	}
	v.Sites[indexSite] = Site{
		IndexSite:   indexSite,
		IndexFirst:  indexFirst,
		IndexLast:   indexLast,
		IndexActive: indexFirst,
		IsSubstate:  false,
	}
	return nil
}

// SetSubstateItem marks selectedSiteIndex as the index-th member of the
// substate view, and flags that site's IsSubstate.
func (v *StateVector) SetSubstateItem(selectedSiteIndex, index int) error {
	if v.substateSites == nil || index < 0 || index >= len(v.substateSites) {
		return fmt.Errorf("statevector: substate index %d: %w", index, ErrIndexOutOfRange)
	}
	if selectedSiteIndex < 0 || selectedSiteIndex >= len(v.Sites) {
		return fmt.Errorf("statevector: substate site %d: %w", selectedSiteIndex, ErrValueError)
	}
	v.substateSites[index] = selectedSiteIndex
	v.Sites[selectedSiteIndex].IsSubstate = true
	return nil
}

// GetSubstateItem returns the site ordinal stored at substate slot
// index.
func (v *StateVector) GetSubstateItem(index int) (int, error) {
	if v.substateSites == nil || index < 0 || index >= len(v.substateSites) {
		return -1, fmt.Errorf("statevector: substate index %d: %w", index, ErrIndexOutOfRange)
	}
	return v.substateSites[index], nil
}

// SetPair records a strongly-interacting pair of sites by ordinal.
func (v *StateVector) SetPair(indexPair, siteA, siteB int, wmax float64) error {
	if indexPair < 0 || indexPair >= len(v.Pairs) {
		return fmt.Errorf("statevector: pair %d: %w", indexPair, ErrIndexOutOfRange)
	}
	v.Pairs[indexPair] = Pair{SiteA: siteA, SiteB: siteB, Wmax: wmax}
	return nil
}

// GetPair returns the pair stored at indexPair.
func (v *StateVector) GetPair(indexPair int) (Pair, error) {
	if indexPair < 0 || indexPair >= len(v.Pairs) {
		return Pair{}, fmt.Errorf("statevector: pair %d: %w", indexPair, ErrIndexOutOfRange)
	}
	return v.Pairs[indexPair], nil
}

// Reset sets every site's active instance to its IndexFirst.
func (v *StateVector) Reset() {
	for i := range v.Sites {
		v.Sites[i].IndexActive = v.Sites[i].IndexFirst
	}
}

// ResetToMaximum sets every site's active instance to its IndexLast.
func (v *StateVector) ResetToMaximum() {
	for i := range v.Sites {
		v.Sites[i].IndexActive = v.Sites[i].IndexLast
	}
}

// ResetSubstate applies Reset only to the sites referenced by the
// substate view; sites outside it keep their current value.
func (v *StateVector) ResetSubstate() {
	for _, siteIndex := range v.substateSites {
		v.Sites[siteIndex].IndexActive = v.Sites[siteIndex].IndexFirst
	}
}

// Randomize draws a uniformly random active instance for every site.
func (v *StateVector) Randomize(generator *rng.Generator) {
	for i := range v.Sites {
		site := &v.Sites[i]
		site.IndexActive = site.IndexFirst + generator.UniformInt(site.width())
	}
}

// WeightedRandomize draws an active instance for every site, weighted
// by weight(instanceIndex) rather than uniformly. Typical use is
// biasing equilibration's initial state toward low-intrinsic-energy
// instances (weight = exp(-Gintr/RT)) to shorten burn-in; it does not
// replace Randomize, which remains the uniform-start primitive
// detailed-balance tests rely on.
//
// Candidate weights are staged as github.com/mroth/weightedrand
// Choices so the cumulative-weight bookkeeping matches that package's
// convention, but the draw itself consumes generator.NextReal() rather
// than weightedrand's own source: every instance drawn anywhere in the
// engine must come from the same seeded MT19937 stream, or two runs
// seeded identically would diverge.
func (v *StateVector) WeightedRandomize(generator *rng.Generator, weight func(instanceIndex int) float64) error {
	for i := range v.Sites {
		site := &v.Sites[i]
		choices := make([]weightedrand.Choice, 0, site.width())
		var total float64
		for instance := site.IndexFirst; instance <= site.IndexLast; instance++ {
			w := weight(instance)
			if w <= 0 {
				continue
			}
			choices = append(choices, weightedrand.Choice{Item: instance, Weight: uint(w * 1e6)})
			total += w
		}
		if len(choices) == 0 {
			site.IndexActive = site.IndexFirst
			continue
		}
		draw := generator.NextReal() * total
		var cumulative float64
		chosen := choices[len(choices)-1].Item.(int)
		for _, choice := range choices {
			cumulative += float64(choice.Weight) / 1e6
			if draw <= cumulative {
				chosen = choice.Item.(int)
				break
			}
		}
		site.IndexActive = chosen
	}
	return nil
}

// GetItem returns the local (zero-based within the site) index of
// indexSite's active instance.
func (v *StateVector) GetItem(indexSite int) (int, error) {
	if indexSite < 0 || indexSite >= len(v.Sites) {
		return -1, fmt.Errorf("statevector: site %d: %w", indexSite, ErrIndexOutOfRange)
	}
	site := v.Sites[indexSite]
	return site.IndexActive - site.IndexFirst, nil
}

// SetItem sets indexSite's active instance from a local index.
func (v *StateVector) SetItem(indexSite, value int) error {
	if indexSite < 0 || indexSite >= len(v.Sites) {
		return fmt.Errorf("statevector: site %d: %w", indexSite, ErrIndexOutOfRange)
	}
	site := &v.Sites[indexSite]
	actual := value + site.IndexFirst
	if actual < site.IndexFirst || actual > site.IndexLast {
		return fmt.Errorf("statevector: local instance %d at site %d: %w", value, indexSite, ErrValueError)
	}
	site.IndexActive = actual
	return nil
}

// GetActualItem returns the global active instance index of indexSite.
func (v *StateVector) GetActualItem(indexSite int) (int, error) {
	if indexSite < 0 || indexSite >= len(v.Sites) {
		return -1, fmt.Errorf("statevector: site %d: %w", indexSite, ErrIndexOutOfRange)
	}
	return v.Sites[indexSite].IndexActive, nil
}

// SetActualItem sets indexSite's active instance from a global index.
func (v *StateVector) SetActualItem(indexSite, value int) error {
	if indexSite < 0 || indexSite >= len(v.Sites) {
		return fmt.Errorf("statevector: site %d: %w", indexSite, ErrIndexOutOfRange)
	}
	site := &v.Sites[indexSite]
	if value < site.IndexFirst || value > site.IndexLast {
		return fmt.Errorf("statevector: global instance %d at site %d: %w", value, indexSite, ErrValueError)
	}
	site.IndexActive = value
	return nil
}

// Increment is the mixed-radix successor: the first site (scanning from
// index 0) whose active instance is below its maximum is incremented
// and true is returned; every site before it is rewound to its minimum.
// If every site is already at its maximum, all sites are rewound and
// false is returned.
func (v *StateVector) Increment() bool {
	for i := range v.Sites {
		site := &v.Sites[i]
		if site.IndexActive < site.IndexLast {
			site.IndexActive++
			return true
		}
		site.IndexActive = site.IndexFirst
	}
	return false
}

// IncrementSubstate is the same rule as Increment but scans only the
// sites referenced by the substate view; sites outside it are
// untouched.
func (v *StateVector) IncrementSubstate() bool {
	for _, siteIndex := range v.substateSites {
		site := &v.Sites[siteIndex]
		if site.IndexActive < site.IndexLast {
			site.IndexActive++
			return true
		}
		site.IndexActive = site.IndexFirst
	}
	return false
}

// Clone returns a deep copy of v.
func (v *StateVector) Clone() *StateVector {
	clone := &StateVector{
		Sites: append([]Site(nil), v.Sites...),
		Pairs: append([]Pair(nil), v.Pairs...),
	}
	if v.substateSites != nil {
		clone.substateSites = append([]int(nil), v.substateSites...)
	}
	return clone
}

// CopyTo overwrites other's contents with v's. It fails with
// ErrNonConformableSizes if the two vectors have a different number of
// sites.
func (v *StateVector) CopyTo(other *StateVector) error {
	if len(v.Sites) != len(other.Sites) {
		return fmt.Errorf("statevector: copy %d sites onto %d: %w", len(v.Sites), len(other.Sites), ErrNonConformableSizes)
	}
	copy(other.Sites, v.Sites)
	other.Pairs = append([]Pair(nil), v.Pairs...)
	if v.substateSites != nil {
		other.substateSites = append([]int(nil), v.substateSites...)
	} else {
		other.substateSites = nil
	}
	return nil
}

// eligibleMoveSites returns the indices of sites with more than one
// instance. Single-instance sites are excluded from move selection
// (see DESIGN.md for the open question this resolves).
func (v *StateVector) eligibleMoveSites() []int {
	eligible := make([]int, 0, len(v.Sites))
	for i := range v.Sites {
		if v.Sites[i].movable() {
			eligible = append(eligible, i)
		}
	}
	return eligible
}

// Move proposes a new active instance for a uniformly chosen
// (multi-instance) site: it draws repeatedly until the candidate
// differs from the site's current active instance. It returns the
// chosen site's ordinal and its previous active instance so the caller
// can restore it on reject, and applies the new instance immediately.
func (v *StateVector) Move(generator *rng.Generator) (siteIndex, oldActive int, err error) {
	eligible := v.eligibleMoveSites()
	if len(eligible) == 0 {
		return 0, 0, fmt.Errorf("statevector: no movable site (all sites single-instance): %w", ErrValueError)
	}
	siteIndex = eligible[generator.UniformInt(len(eligible))]
	site := &v.Sites[siteIndex]
	oldActive = site.IndexActive

	var candidate int
	for {
		candidate = site.IndexFirst + generator.UniformInt(site.width())
		if candidate != oldActive {
			break
		}
	}
	site.IndexActive = candidate
	return siteIndex, oldActive, nil
}

// DoubleMove proposes new active instances for both endpoint sites of a
// uniformly chosen pair, each drawn independently so it differs from
// its site's current value. Pairs with a single-instance endpoint are
// excluded from the draw. It returns both site ordinals and their
// previous active instances for reject-restore, and applies the new
// instances immediately.
func (v *StateVector) DoubleMove(generator *rng.Generator) (siteA, siteB, oldA, oldB int, err error) {
	if len(v.Pairs) == 0 {
		return 0, 0, 0, 0, fmt.Errorf("statevector: no pairs allocated: %w", ErrValueError)
	}
	eligible := make([]int, 0, len(v.Pairs))
	for i, p := range v.Pairs {
		if v.Sites[p.SiteA].movable() && v.Sites[p.SiteB].movable() {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return 0, 0, 0, 0, fmt.Errorf("statevector: no pair with two movable sites: %w", ErrValueError)
	}
	pair := v.Pairs[eligible[generator.UniformInt(len(eligible))]]
	siteA, siteB = pair.SiteA, pair.SiteB

	sa := &v.Sites[siteA]
	sb := &v.Sites[siteB]
	oldA, oldB = sa.IndexActive, sb.IndexActive

	var candidateA int
	for {
		candidateA = sa.IndexFirst + generator.UniformInt(sa.width())
		if candidateA != oldA {
			break
		}
	}
	var candidateB int
	for {
		candidateB = sb.IndexFirst + generator.UniformInt(sb.width())
		if candidateB != oldB {
			break
		}
	}
	sa.IndexActive = candidateA
	sb.IndexActive = candidateB
	return siteA, siteB, oldA, oldB, nil
}
