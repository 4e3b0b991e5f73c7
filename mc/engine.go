// Package mc implements the Metropolis Monte Carlo engine: single and
// double move proposals with incremental ΔG, the acceptance criterion,
// scans, equilibration, and production with probability accumulation.
package mc

import (
	"fmt"
	"math"

	"github.com/lunny/log"

	"github.com/efliks/pcetk/energy"
	"github.com/efliks/pcetk/rng"
	"github.com/efliks/pcetk/statevector"
)

// Phase is the engine's state-machine position.
type Phase int

const (
	// Unlinked is the initial phase: no EnergyModel attached yet.
	Unlinked Phase = iota
	// Linked means LinkToEnergyModel has run; the working vector is a
	// clone of the model's.
	Linked
	// Equilibrated means at least one equilibration scan set has run.
	Equilibrated
	// Producing is set only transiently during Production; callers never
	// observe it between calls.
	Producing
	// Done marks a production run that has accumulated and scaled
	// probabilities. An engine may cycle back to Equilibrated to run
	// another Production at a different pH.
	Done
)

// Engine runs Metropolis Monte Carlo against a linked energy.Model. Its
// working StateVector is its own clone of the model's; Production
// accumulates into the linked model's probability table, so engines
// sharing one model overwrite each other's results.
type Engine struct {
	model     *energy.Model
	vector    *statevector.StateVector
	generator *rng.Generator
	phase     Phase
	nmoves    int
}

// NewEngine constructs an unlinked engine seeded with seed. nmoves is
// the number of trial moves per scan; if zero, Equilibration and
// Production default it to nsites+npairs once the model is linked.
func NewEngine(seed uint32, nmoves int) *Engine {
	return &Engine{
		generator: rng.New(seed),
		phase:     Unlinked,
		nmoves:    nmoves,
	}
}

// Phase returns the engine's current state-machine position.
func (e *Engine) Phase() Phase {
	return e.phase
}

// LinkToEnergyModel clones model's StateVector into the engine's own
// working vector and transitions Unlinked → Linked.
func (e *Engine) LinkToEnergyModel(model *energy.Model) error {
	e.model = model
	e.vector = model.Vector().Clone()
	e.phase = Linked
	return nil
}

// FindPairs discovers strongly-interacting site pairs on the linked
// model (delegating to energy.Model.FindPairs) and refreshes the
// engine's working vector's pairs table to match.
func (e *Engine) FindPairs(limit float64, npairs int) (int, error) {
	if e.phase == Unlinked {
		return 0, fmt.Errorf("mc: find pairs: %w", ErrNotLinked)
	}
	count, err := e.model.FindPairs(limit, npairs)
	if err != nil {
		return count, fmt.Errorf("mc: find pairs: %w", err)
	}
	if npairs > 0 {
		e.vector.Pairs = append([]statevector.Pair(nil), e.model.Vector().Pairs...)
	}
	return count, nil
}

// scanSize is the number of trial moves per scan: the caller-supplied
// nmoves, or nsites+npairs if unset.
func (e *Engine) scanSize() int {
	if e.nmoves > 0 {
		return e.nmoves
	}
	return e.vector.NumSites() + e.vector.NumPairs()
}

// metropolis applies the acceptance criterion for a proposed move whose
// total free-energy change is deltaG, in kcal/mol, given RT. It
// returns true if the move is accepted.
func metropolis(deltaG, rt float64, generator *rng.Generator) bool {
	ratio := deltaG / rt
	if ratio < 0 {
		return true
	}
	if -ratio < -500 {
		return false // underflow guard: silently reject, not an error
	}
	return generator.NextReal() < math.Exp(-ratio)
}

// otherSitesDeltaW sums, over every site other than exclude (and
// exclude2 when >=0), the change in symmetric interaction energy
// between that site's current active instance and the two endpoints of
// the move: W[newInstance, other] - W[oldInstance, other]. It adds the
// moving instance's own diagonal change W[new,new] - W[old,old], which
// the microstate energy counts once per site.
func (e *Engine) otherSitesDeltaW(newInstance, oldInstance, exclude, exclude2 int) (float64, error) {
	selfNew, err := e.model.GetInterSymmetric(newInstance, newInstance)
	if err != nil {
		return 0, err
	}
	selfOld, err := e.model.GetInterSymmetric(oldInstance, oldInstance)
	if err != nil {
		return 0, err
	}
	deltaW := selfNew - selfOld
	for _, site := range e.vector.Sites {
		if site.IndexSite == exclude || site.IndexSite == exclude2 {
			continue
		}
		a := site.IndexActive
		wNew, err := e.model.GetInterSymmetric(newInstance, a)
		if err != nil {
			return 0, err
		}
		wOld, err := e.model.GetInterSymmetric(oldInstance, a)
		if err != nil {
			return 0, err
		}
		deltaW += wNew - wOld
	}
	return deltaW, nil
}

// Move proposes, scores, and accepts or rejects a single-site move. It
// returns whether the move was accepted.
func (e *Engine) Move(pH float64) (bool, error) {
	siteIndex, oldActive, err := e.vector.Move(e.generator)
	if err != nil {
		return false, fmt.Errorf("mc: move: %w", ErrNoMovableSite)
	}
	newActive, err := e.vector.GetActualItem(siteIndex)
	if err != nil {
		return false, err
	}

	deltaG, err := e.singleMoveDeltaG(pH, siteIndex, newActive, oldActive)
	if err != nil {
		return false, err
	}

	accepted := metropolis(deltaG, e.model.RT(), e.generator)
	if !accepted {
		if err := e.vector.SetActualItem(siteIndex, oldActive); err != nil {
			return false, err
		}
	}
	return accepted, nil
}

func (e *Engine) singleMoveDeltaG(pH float64, siteIndex, newInstance, oldInstance int) (float64, error) {
	gNew, err := e.model.GetGintr(newInstance)
	if err != nil {
		return 0, err
	}
	gOld, err := e.model.GetGintr(oldInstance)
	if err != nil {
		return 0, err
	}
	protonsNew, err := e.model.GetProtons(newInstance)
	if err != nil {
		return 0, err
	}
	protonsOld, err := e.model.GetProtons(oldInstance)
	if err != nil {
		return 0, err
	}

	deltaW, err := e.otherSitesDeltaW(newInstance, oldInstance, siteIndex, -1)
	if err != nil {
		return 0, err
	}

	deltaGintr := gNew - gOld
	deltaNProtons := float64(protonsNew - protonsOld)
	deltaG := deltaGintr - deltaNProtons*e.model.MuPH(pH) + deltaW
	return deltaG, nil
}

// DoubleMove proposes, scores, and accepts or rejects a correlated
// double-site move drawn from the pairs table. It returns whether the
// move was accepted.
func (e *Engine) DoubleMove(pH float64) (bool, error) {
	siteA, siteB, oldA, oldB, err := e.vector.DoubleMove(e.generator)
	if err != nil {
		return false, fmt.Errorf("mc: double move: %w", err)
	}
	newA, err := e.vector.GetActualItem(siteA)
	if err != nil {
		return false, err
	}
	newB, err := e.vector.GetActualItem(siteB)
	if err != nil {
		return false, err
	}

	deltaG, err := e.doubleMoveDeltaG(pH, siteA, siteB, newA, newB, oldA, oldB)
	if err != nil {
		return false, err
	}

	accepted := metropolis(deltaG, e.model.RT(), e.generator)
	if !accepted {
		if err := e.vector.SetActualItem(siteA, oldA); err != nil {
			return false, err
		}
		if err := e.vector.SetActualItem(siteB, oldB); err != nil {
			return false, err
		}
	}
	return accepted, nil
}

func (e *Engine) doubleMoveDeltaG(pH float64, siteA, siteB, newA, newB, oldA, oldB int) (float64, error) {
	gNewA, err := e.model.GetGintr(newA)
	if err != nil {
		return 0, err
	}
	gOldA, err := e.model.GetGintr(oldA)
	if err != nil {
		return 0, err
	}
	gNewB, err := e.model.GetGintr(newB)
	if err != nil {
		return 0, err
	}
	gOldB, err := e.model.GetGintr(oldB)
	if err != nil {
		return 0, err
	}

	protonsNewA, err := e.model.GetProtons(newA)
	if err != nil {
		return 0, err
	}
	protonsOldA, err := e.model.GetProtons(oldA)
	if err != nil {
		return 0, err
	}
	protonsNewB, err := e.model.GetProtons(newB)
	if err != nil {
		return 0, err
	}
	protonsOldB, err := e.model.GetProtons(oldB)
	if err != nil {
		return 0, err
	}

	// The scan over other sites k != siteA,siteB picks up both sites'
	// change in one pass each; doing it twice (once per endpoint) and
	// summing is equivalent to a single combined scan.
	deltaWA, err := e.otherSitesDeltaW(newA, oldA, siteA, siteB)
	if err != nil {
		return 0, err
	}
	deltaWB, err := e.otherSitesDeltaW(newB, oldB, siteA, siteB)
	if err != nil {
		return 0, err
	}

	wNewCross, err := e.model.GetInterSymmetric(newA, newB)
	if err != nil {
		return 0, err
	}
	wOldCross, err := e.model.GetInterSymmetric(oldA, oldB)
	if err != nil {
		return 0, err
	}
	crossTerm := wNewCross - wOldCross

	deltaGintr := (gNewA - gOldA) + (gNewB - gOldB)
	deltaNProtons := float64((protonsNewA - protonsOldA) + (protonsNewB - protonsOldB))
	deltaG := deltaGintr - deltaNProtons*e.model.MuPH(pH) + deltaWA + deltaWB + crossTerm
	return deltaG, nil
}

// Scan runs one scan of scanSize trial moves, each uniformly chosen to
// be a single or double move depending on a selector in
// [0, nsites+npairs).
func (e *Engine) Scan(pH float64) error {
	nsites := e.vector.NumSites()
	npairs := e.vector.NumPairs()
	total := nsites + npairs
	if total == 0 {
		return nil
	}
	for i := 0; i < e.scanSize(); i++ {
		selector := e.generator.UniformInt(total)
		if selector < nsites {
			if _, err := e.Move(pH); err != nil {
				return fmt.Errorf("mc: scan: %w", err)
			}
		} else {
			if _, err := e.DoubleMove(pH); err != nil {
				return fmt.Errorf("mc: scan: %w", err)
			}
		}
	}
	return nil
}

// Equilibration randomizes the working vector, then runs nequil scans.
// It does not touch the model's probabilities.
func (e *Engine) Equilibration(pH float64, nequil int) error {
	if e.phase == Unlinked {
		return fmt.Errorf("mc: equilibration: %w", ErrNotLinked)
	}
	e.vector.Randomize(e.generator)
	for i := 0; i < nequil; i++ {
		if err := e.Scan(pH); err != nil {
			return err
		}
	}
	e.phase = Equilibrated
	return nil
}

// Production zeroes the model's probability accumulator, runs nprod
// scans, and after each scan adds 1 into every site's current active
// instance's probability slot. Finally it scales by 1/nprod.
func (e *Engine) Production(pH float64, nprod int) error {
	if e.phase == Unlinked {
		return fmt.Errorf("mc: production: %w", ErrNotLinked)
	}
	e.phase = Producing
	e.model.ResetProbabilities()
	log.Infof("mc: production start pH=%.3f nprod=%d nsites=%d npairs=%d", pH, nprod, e.vector.NumSites(), e.vector.NumPairs())

	for i := 0; i < nprod; i++ {
		if err := e.Scan(pH); err != nil {
			return err
		}
		for _, site := range e.vector.Sites {
			if err := e.model.AddProbability(site.IndexActive, 1.0); err != nil {
				return err
			}
		}
	}
	if nprod > 0 {
		e.model.ScaleProbabilities(1.0 / float64(nprod))
	}
	e.phase = Done
	log.Infof("mc: production done pH=%.3f", pH)
	return nil
}
