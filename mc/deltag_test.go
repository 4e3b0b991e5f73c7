package mc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/efliks/pcetk/energy"
)

// newThreeSiteModelWithInteractions builds a model with enough sites and
// nonzero, symmetrized interactions that otherSitesDeltaW and the
// double-move cross term both contribute a nonzero term to check.
func newThreeSiteModelWithInteractions(t *testing.T) *energy.Model {
	t.Helper()
	model, err := energy.NewModel(3, 6, 300)
	assert.NoError(t, err)
	assert.NoError(t, model.Vector().SetSite(0, 0, 1))
	assert.NoError(t, model.Vector().SetSite(1, 2, 3))
	assert.NoError(t, model.Vector().SetSite(2, 4, 5))
	model.SetNStates(8)

	gintr := []float64{0.0, 1.2, 0.0, 0.8, 0.0, 1.5}
	protons := []int{0, 1, 0, 1, 0, 1}
	for i, g := range gintr {
		assert.NoError(t, model.SetGintr(i, g))
		assert.NoError(t, model.SetProtons(i, protons[i]))
	}

	interactions := []struct {
		i, j  int
		value float64
	}{
		{0, 2, 0.4}, {1, 2, -0.3}, {0, 3, 0.2}, {1, 3, 0.6},
		{0, 4, -0.1}, {1, 4, 0.25}, {2, 4, 0.35}, {3, 5, -0.2},
	}
	for _, w := range interactions {
		assert.NoError(t, model.SetInteraction(w.i, w.j, w.value))
		assert.NoError(t, model.SetInteraction(w.j, w.i, w.value))
	}
	model.SymmetrizeInteractions()
	return model
}

// TestSingleMoveDeltaGMatchesBruteForceDifference is Testable Property
// 5: a single move's incremental deltaG must equal the difference of
// two full CalculateMicrostateEnergy evaluations, taken before and
// after the move is applied to the working vector.
func TestSingleMoveDeltaGMatchesBruteForceDifference(t *testing.T) {
	model := newThreeSiteModelWithInteractions(t)
	engine := NewEngine(11, 0)
	assert.NoError(t, engine.LinkToEnergyModel(model))

	const pH = 7.0
	for trial := 0; trial < 50; trial++ {
		assert.NoError(t, engine.vector.CopyTo(model.Vector()))
		before, err := model.CalculateMicrostateEnergy(pH)
		assert.NoError(t, err)

		siteIndex, oldActive, err := engine.vector.Move(engine.generator)
		assert.NoError(t, err)
		newActive, err := engine.vector.GetActualItem(siteIndex)
		assert.NoError(t, err)

		deltaG, err := engine.singleMoveDeltaG(pH, siteIndex, newActive, oldActive)
		assert.NoError(t, err)

		assert.NoError(t, engine.vector.CopyTo(model.Vector()))
		after, err := model.CalculateMicrostateEnergy(pH)
		assert.NoError(t, err)

		assert.InDelta(t, after-before, deltaG, 1e-9,
			"trial %d: incremental deltaG must match the brute-force energy difference", trial)
	}
}

// TestDoubleMoveDeltaGMatchesBruteForceDifference is the double-move
// counterpart of TestSingleMoveDeltaGMatchesBruteForceDifference,
// covering the cross term and both endpoints' otherSitesDeltaW.
func TestDoubleMoveDeltaGMatchesBruteForceDifference(t *testing.T) {
	model := newThreeSiteModelWithInteractions(t)
	engine := NewEngine(13, 0)
	assert.NoError(t, engine.LinkToEnergyModel(model))
	_, err := engine.FindPairs(0.0, 3)
	assert.NoError(t, err)

	const pH = 7.0
	for trial := 0; trial < 50; trial++ {
		assert.NoError(t, engine.vector.CopyTo(model.Vector()))
		before, err := model.CalculateMicrostateEnergy(pH)
		assert.NoError(t, err)

		siteA, siteB, oldA, oldB, err := engine.vector.DoubleMove(engine.generator)
		assert.NoError(t, err)
		newA, err := engine.vector.GetActualItem(siteA)
		assert.NoError(t, err)
		newB, err := engine.vector.GetActualItem(siteB)
		assert.NoError(t, err)

		deltaG, err := engine.doubleMoveDeltaG(pH, siteA, siteB, newA, newB, oldA, oldB)
		assert.NoError(t, err)

		assert.NoError(t, engine.vector.CopyTo(model.Vector()))
		after, err := model.CalculateMicrostateEnergy(pH)
		assert.NoError(t, err)

		assert.InDelta(t, after-before, deltaG, 1e-9,
			"trial %d: incremental deltaG must match the brute-force energy difference", trial)
	}
}

// TestMoveDeltaGMatchesBruteForceOnRejection re-checks the same
// property when the proposed move is rejected and the vector restored:
// the deltaG computed for the proposal must still equal the brute-force
// difference between the proposed and prior states, even though the
// engine rolls the state back afterward.
func TestMoveDeltaGMatchesBruteForceOnRejection(t *testing.T) {
	model := newThreeSiteModelWithInteractions(t)
	engine := NewEngine(17, 0)
	assert.NoError(t, engine.LinkToEnergyModel(model))

	const pH = 7.0
	rejections := 0
	for trial := 0; trial < 200 && rejections < 10; trial++ {
		assert.NoError(t, engine.vector.CopyTo(model.Vector()))
		before, err := model.CalculateMicrostateEnergy(pH)
		assert.NoError(t, err)

		siteIndex, oldActive, err := engine.vector.Move(engine.generator)
		assert.NoError(t, err)
		newActive, err := engine.vector.GetActualItem(siteIndex)
		assert.NoError(t, err)

		deltaG, err := engine.singleMoveDeltaG(pH, siteIndex, newActive, oldActive)
		assert.NoError(t, err)

		assert.NoError(t, engine.vector.CopyTo(model.Vector()))
		proposed, err := model.CalculateMicrostateEnergy(pH)
		assert.NoError(t, err)
		assert.InDelta(t, proposed-before, deltaG, 1e-9)

		accepted := metropolis(deltaG, model.RT(), engine.generator)
		if !accepted {
			assert.NoError(t, engine.vector.SetActualItem(siteIndex, oldActive))
			rejections++
		}
	}
	assert.Greater(t, rejections, 0, "test needs at least one rejected move to check the restore path")
}
