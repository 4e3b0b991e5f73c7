// Package energy owns the intrinsic and interaction energy tables for
// a set of titratable instances, the microstate-energy kernel, the
// exact-enumeration partition function and probability routines, and
// pair discovery for Monte Carlo double moves.
package energy

import (
	"fmt"
	"math"

	"github.com/efliks/pcetk/numeric"
	"github.com/efliks/pcetk/rng"
	"github.com/efliks/pcetk/statevector"
)

// Gas constant in kcal·mol⁻¹·K⁻¹, and natural log of 10, matching the
// original extension's constants exactly so energies reproduce
// bit-for-bit against reference runs.
const (
	GasConstant = 0.001987165392
	Ln10        = 2.302585092994
)

// Model owns the energy tables and probability accumulator for a fixed
// set of titratable instances, plus the private StateVector that the
// exact-enumeration routines drive.
type Model struct {
	protons   []int
	intrinsic numeric.Vector
	models    numeric.Vector // Gmodel, unfolded reference; optional

	interactions    *numeric.Dense2D
	symmetricmatrix *numeric.PackedSymmetric

	probabilities numeric.Vector

	vector *statevector.StateVector

	nstates     int
	ninstances  int
	temperature float64
}

// NewModel allocates a Model over nsites sites and ninstances total
// instances. Callers must still call SetSite for each site (via
// Vector().SetSite) and populate Protons/Intrinsic/Interactions before
// any energy routine is usable.
func NewModel(nsites, ninstances int, temperature float64) (*Model, error) {
	if nsites < 0 || ninstances < 0 {
		return nil, fmt.Errorf("energy: new model nsites=%d ninstances=%d: %w", nsites, ninstances, ErrAllocationFailure)
	}
	if temperature <= 0 {
		return nil, fmt.Errorf("energy: temperature %g: %w", temperature, ErrValueError)
	}
	vector, err := statevector.Allocate(nsites)
	if err != nil {
		return nil, fmt.Errorf("energy: new model: %w", err)
	}
	return &Model{
		protons:         make([]int, ninstances),
		intrinsic:       numeric.NewVector(ninstances),
		models:          numeric.NewVector(ninstances),
		interactions:    numeric.NewDense2D(ninstances),
		symmetricmatrix: numeric.NewPackedSymmetric(ninstances),
		probabilities:   numeric.NewVector(ninstances),
		vector:          vector,
		ninstances:      ninstances,
		temperature:     temperature,
	}, nil
}

// Vector returns the model's private StateVector, for SetSite and
// AllocatePairs calls during setup.
func (m *Model) Vector() *statevector.StateVector {
	return m.vector
}

// Temperature returns the model's temperature in Kelvin.
func (m *Model) Temperature() float64 {
	return m.temperature
}

// NInstances returns the total instance count.
func (m *Model) NInstances() int {
	return m.ninstances
}

// SetNStates stores the declared number of microstates. Callers compute
// this as the product, over sites, of (indexLast-indexFirst+1); it is
// checked against AnalyticStatesCap before exact enumeration runs.
func (m *Model) SetNStates(nstates int) {
	m.nstates = nstates
}

// NStates returns the declared number of microstates.
func (m *Model) NStates() int {
	return m.nstates
}

// SetGintr stores the intrinsic free energy of instance i.
func (m *Model) SetGintr(i int, value float64) error {
	if i < 0 || i >= m.ninstances {
		return fmt.Errorf("energy: gintr index %d: %w", i, ErrIndexOutOfRange)
	}
	m.intrinsic[i] = value
	return nil
}

// GetGintr returns the intrinsic free energy of instance i.
func (m *Model) GetGintr(i int) (float64, error) {
	if i < 0 || i >= m.ninstances {
		return 0, fmt.Errorf("energy: gintr index %d: %w", i, ErrIndexOutOfRange)
	}
	return m.intrinsic[i], nil
}

// SetGmodel stores the unfolded-reference free energy of instance i.
func (m *Model) SetGmodel(i int, value float64) error {
	if i < 0 || i >= m.ninstances {
		return fmt.Errorf("energy: gmodel index %d: %w", i, ErrIndexOutOfRange)
	}
	m.models[i] = value
	return nil
}

// SetProtons stores the bound-proton count of instance i.
func (m *Model) SetProtons(i int, protons int) error {
	if i < 0 || i >= m.ninstances {
		return fmt.Errorf("energy: protons index %d: %w", i, ErrIndexOutOfRange)
	}
	if protons < 0 {
		return fmt.Errorf("energy: protons %d at instance %d: %w", protons, i, ErrValueError)
	}
	m.protons[i] = protons
	return nil
}

// GetProtons returns the bound-proton count of instance i.
func (m *Model) GetProtons(i int) (int, error) {
	if i < 0 || i >= m.ninstances {
		return 0, fmt.Errorf("energy: protons index %d: %w", i, ErrIndexOutOfRange)
	}
	return m.protons[i], nil
}

// SetInteraction stores the raw (possibly asymmetric) interaction
// between instances i and j.
func (m *Model) SetInteraction(i, j int, value float64) error {
	if i < 0 || i >= m.ninstances || j < 0 || j >= m.ninstances {
		return fmt.Errorf("energy: interaction (%d,%d): %w", i, j, ErrIndexOutOfRange)
	}
	m.interactions.Set(i, j, value)
	return nil
}

// GetInteraction returns the raw interactions[i][j] entry, unsymmetrized.
func (m *Model) GetInteraction(i, j int) (float64, error) {
	if i < 0 || i >= m.ninstances || j < 0 || j >= m.ninstances {
		return 0, fmt.Errorf("energy: interaction (%d,%d): %w", i, j, ErrIndexOutOfRange)
	}
	return m.interactions.Get(i, j), nil
}

// GetProbability returns the accumulated probability of instance i.
func (m *Model) GetProbability(i int) (float64, error) {
	if i < 0 || i >= m.ninstances {
		return 0, fmt.Errorf("energy: probability index %d: %w", i, ErrIndexOutOfRange)
	}
	return m.probabilities[i], nil
}

// ResetProbabilities zeroes the probability accumulator. The MC
// production scan calls this once before accumulating.
func (m *Model) ResetProbabilities() {
	m.probabilities.Set(0)
}

// AddProbability adds delta into instance i's probability accumulator.
func (m *Model) AddProbability(i int, delta float64) error {
	if i < 0 || i >= m.ninstances {
		return fmt.Errorf("energy: probability index %d: %w", i, ErrIndexOutOfRange)
	}
	m.probabilities[i] += delta
	return nil
}

// ScaleProbabilities multiplies every probability by factor in place.
// The MC production scan calls this with 1/nprod once accumulation is
// complete.
func (m *Model) ScaleProbabilities(factor float64) {
	m.probabilities.Scale(factor)
}

// muPH returns the proton chemical potential at the given pH:
// −R·T·ln10·pH.
func (m *Model) muPH(pH float64) float64 {
	return -GasConstant * m.temperature * Ln10 * pH
}

// MuPH is the exported form of muPH, used by the MC engine's
// incremental ΔG computation.
func (m *Model) MuPH(pH float64) float64 {
	return m.muPH(pH)
}

// RT returns R·T in kcal/mol.
func (m *Model) RT() float64 {
	return GasConstant * m.temperature
}

// CheckInteractionsSymmetric reports whether the raw interaction table
// is symmetric within tolerance, and the largest deviation found.
func (m *Model) CheckInteractionsSymmetric(tolerance float64) (bool, float64) {
	return m.interactions.IsSymmetric(tolerance)
}

// SymmetrizeInteractions copies the averaged lower triangle of
// interactions into the packed symmetric matrix:
// symmetricmatrix[i,j] = ½(interactions[i,j] + interactions[j,i]).
func (m *Model) SymmetrizeInteractions() {
	for i := 0; i < m.ninstances; i++ {
		for j := 0; j <= i; j++ {
			averaged := 0.5 * (m.interactions.Get(i, j) + m.interactions.Get(j, i))
			m.symmetricmatrix.Set(i, j, averaged)
		}
	}
}

// ResetInteractions zeroes the packed symmetric matrix.
func (m *Model) ResetInteractions() {
	m.symmetricmatrix.Reset()
}

// ScaleInteractions multiplies the packed symmetric matrix by alpha in
// place.
func (m *Model) ScaleInteractions(alpha float64) {
	m.symmetricmatrix.Scale(alpha)
}

// GetInterSymmetric returns the symmetrized interaction between
// instances i and j.
func (m *Model) GetInterSymmetric(i, j int) (float64, error) {
	if i < 0 || i >= m.ninstances || j < 0 || j >= m.ninstances {
		return 0, fmt.Errorf("energy: symmetric interaction (%d,%d): %w", i, j, ErrIndexOutOfRange)
	}
	return m.symmetricmatrix.Get(i, j), nil
}

// GetDeviation returns ½(W_ij+W_ji) − W_ij for the raw interaction
// table, the same quantity CheckInteractionsSymmetric maximizes over.
func (m *Model) GetDeviation(i, j int) (float64, error) {
	if i < 0 || i >= m.ninstances || j < 0 || j >= m.ninstances {
		return 0, fmt.Errorf("energy: deviation (%d,%d): %w", i, j, ErrIndexOutOfRange)
	}
	wij := m.interactions.Get(i, j)
	wji := m.interactions.Get(j, i)
	return 0.5*(wij+wji) - wij, nil
}

// CalculateMicrostateEnergy returns G(pH) for the vector's current
// active instances, folded variant:
//
//	G(pH) = Σ intrinsic[a_i] + ΣΣ_{j<=i} W[a_i,a_j] − nprotons·μ(pH)
//
// The inner loop indexes directly into the packed row starting at
// offset a_i(a_i+1)/2, so it never pays for the (i,j)-swap normalizing
// branch in PackedSymmetric.Get.
func (m *Model) CalculateMicrostateEnergy(pH float64) (float64, error) {
	return m.microstateEnergy(pH, m.intrinsic, true)
}

// CalculateMicrostateEnergyUnfolded returns the unfolded-reference
// energy of the vector's current active instances: intrinsic is
// replaced by models and all pairwise terms vanish.
func (m *Model) CalculateMicrostateEnergyUnfolded(pH float64) (float64, error) {
	return m.microstateEnergy(pH, m.models, false)
}

func (m *Model) microstateEnergy(pH float64, perInstance numeric.Vector, includeInteractions bool) (float64, error) {
	sites := m.vector.Sites
	actives := make([]int, len(sites))
	var energy float64
	var nprotons int
	for idx, site := range sites {
		a := site.IndexActive
		actives[idx] = a
		if a < 0 || a >= m.ninstances {
			return 0, fmt.Errorf("energy: microstate active instance %d at site %d: %w", a, idx, ErrIndexOutOfRange)
		}
		energy += perInstance[a]
		nprotons += m.protons[a]
	}
	if includeInteractions {
		for i, ai := range actives {
			row := m.symmetricmatrix.Row(ai)
			for j := 0; j <= i; j++ {
				energy += row[actives[j]]
			}
		}
	}
	energy -= float64(nprotons) * m.muPH(pH)
	return energy, nil
}

// CalculateZ is the generic exact-enumeration partition function: it
// resets the private vector, walks every microstate via repeated
// Increment, evaluates energyFn at each, and returns
// Σ exp(-(G-gzero)/RT). Both CalculateZfolded and CalculateZunfolded
// are thin wrappers supplying the folded/unfolded energy function.
func (m *Model) CalculateZ(pH, gzero float64, energyFn func(pH float64) (float64, error)) (float64, error) {
	m.vector.Reset()
	rt := m.RT()
	var z float64
	for {
		g, err := energyFn(pH)
		if err != nil {
			return 0, err
		}
		z += math.Exp(-(g - gzero) / rt)
		if !m.vector.Increment() {
			break
		}
	}
	return z, nil
}

// CalculateZfolded is CalculateZ specialized to the folded microstate
// energy.
func (m *Model) CalculateZfolded(pH, gzero float64) (float64, error) {
	return m.CalculateZ(pH, gzero, m.CalculateMicrostateEnergy)
}

// CalculateZunfolded is CalculateZ specialized to the unfolded
// (denaturation reference) microstate energy.
func (m *Model) CalculateZunfolded(pH, gzero float64) (float64, error) {
	return m.CalculateZ(pH, gzero, m.CalculateMicrostateEnergyUnfolded)
}

// CalculateProbabilitiesAnalytically computes per-instance probabilities
// at pH by exact enumeration over all nstates microstates. It fails
// with ErrTooManyStates if nstates exceeds cap.
func (m *Model) CalculateProbabilitiesAnalytically(pH float64, analyticCap int) error {
	return m.calculateProbabilitiesAnalytically(pH, analyticCap, m.CalculateMicrostateEnergy)
}

// CalculateProbabilitiesAnalyticallyUnfolded is the unfolded-reference
// counterpart of CalculateProbabilitiesAnalytically.
func (m *Model) CalculateProbabilitiesAnalyticallyUnfolded(pH float64, analyticCap int) error {
	return m.calculateProbabilitiesAnalytically(pH, analyticCap, m.CalculateMicrostateEnergyUnfolded)
}

func (m *Model) calculateProbabilitiesAnalytically(pH float64, analyticCap int, energyFn func(pH float64) (float64, error)) error {
	if m.nstates > analyticCap {
		return fmt.Errorf("energy: nstates %d exceeds cap %d: %w", m.nstates, analyticCap, ErrTooManyStates)
	}
	bfactors := numeric.NewVector(m.nstates)

	m.vector.Reset()
	for i := 0; i < m.nstates; i++ {
		g, err := energyFn(pH)
		if err != nil {
			return err
		}
		bfactors[i] = g
		if i < m.nstates-1 {
			m.vector.Increment()
		}
	}

	gzero, _ := bfactors.Min()
	bfactors.AddScalar(-gzero)
	bfactors.Scale(-1.0 / m.RT())
	bfactors.Exp()
	ztotal := bfactors.Sum()

	m.probabilities.Set(0)
	m.vector.Reset()
	for i := 0; i < m.nstates; i++ {
		factor := bfactors[i]
		for _, site := range m.vector.Sites {
			m.probabilities[site.IndexActive] += factor
		}
		if i < m.nstates-1 {
			m.vector.Increment()
		}
	}
	m.probabilities.Scale(1.0 / ztotal)
	return nil
}

// FindMaxInteraction returns the maximum |W| over all instance pairs
// (i,j) with i ranging over siteA's instances and j over siteB's.
func (m *Model) FindMaxInteraction(siteA, siteB statevector.Site) float64 {
	var maxAbs float64
	for i := siteA.IndexFirst; i <= siteA.IndexLast; i++ {
		for j := siteB.IndexFirst; j <= siteB.IndexLast; j++ {
			w := m.symmetricmatrix.Get(i, j)
			if w < 0 {
				w = -w
			}
			if w > maxAbs {
				maxAbs = w
			}
		}
	}
	return maxAbs
}

// FindPairs is the two-phase pair-discovery pattern. With npairs<=0 it
// is a dry run: it counts site pairs whose FindMaxInteraction is at
// least limit and returns the count without touching the vector's
// pairs table. With npairs>0 it is a fill run: it (re)allocates the
// pairs table to exactly npairs entries and re-scans, calling SetPair
// for each qualifying pair.
func (m *Model) FindPairs(limit float64, npairs int) (int, error) {
	sites := m.vector.Sites
	if npairs <= 0 {
		count := 0
		for i := 1; i < len(sites); i++ {
			for j := 0; j < i; j++ {
				if m.FindMaxInteraction(sites[i], sites[j]) >= limit {
					count++
				}
			}
		}
		return count, nil
	}

	if err := m.vector.AllocatePairs(npairs); err != nil {
		return 0, fmt.Errorf("energy: find pairs: %w", err)
	}
	index := 0
	for i := 1; i < len(sites); i++ {
		for j := 0; j < i; j++ {
			wmax := m.FindMaxInteraction(sites[i], sites[j])
			if wmax >= limit {
				if index >= npairs {
					return index, fmt.Errorf("energy: find pairs: more qualifying pairs than npairs=%d: %w", npairs, ErrValueError)
				}
				if err := m.vector.SetPair(index, sites[i].IndexSite, sites[j].IndexSite, wmax); err != nil {
					return index, fmt.Errorf("energy: find pairs: %w", err)
				}
				index++
			}
		}
	}
	return index, nil
}

// RNGGenerator seeds a fresh deterministic generator for an MC engine
// linking to this model.
func (m *Model) RNGGenerator(seed uint32) *rng.Generator {
	return rng.New(seed)
}

