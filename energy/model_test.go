package energy_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/efliks/pcetk/energy"
)

func newSingleSiteTwoInstanceModel(t *testing.T) *energy.Model {
	t.Helper()
	model, err := energy.NewModel(1, 2, 300)
	assert.NoError(t, err)
	assert.NoError(t, model.Vector().SetSite(0, 0, 1))
	model.SetNStates(2)

	assert.NoError(t, model.SetProtons(0, 0))
	assert.NoError(t, model.SetProtons(1, 1))
	assert.NoError(t, model.SetGintr(0, 0.0))
	assert.NoError(t, model.SetGintr(1, 1.0))

	model.SymmetrizeInteractions() // interactions are all-zero by default
	return model
}

func TestSingleSiteTwoInstancesAtModelPKa(t *testing.T) {
	model := newSingleSiteTwoInstanceModel(t)

	pKaModel := 1.0 / (energy.Ln10 * energy.GasConstant * 300)
	assert.InDelta(t, 0.728, pKaModel, 0.001)

	err := model.CalculateProbabilitiesAnalytically(pKaModel, 65536)
	assert.NoError(t, err)

	p0, _ := model.GetProbability(0)
	p1, _ := model.GetProbability(1)
	assert.InDelta(t, 0.5, p0, 1e-6)
	assert.InDelta(t, 0.5, p1, 1e-6)
	assert.InDelta(t, 1.0, p0+p1, 1e-9)
}

func TestTwoIndependentSitesFactorize(t *testing.T) {
	model, err := energy.NewModel(2, 4, 300)
	assert.NoError(t, err)
	assert.NoError(t, model.Vector().SetSite(0, 0, 1))
	assert.NoError(t, model.Vector().SetSite(1, 2, 3))
	model.SetNStates(4)

	for _, instance := range []int{0, 2} {
		assert.NoError(t, model.SetProtons(instance, 0))
		assert.NoError(t, model.SetGintr(instance, 0.0))
	}
	for _, instance := range []int{1, 3} {
		assert.NoError(t, model.SetProtons(instance, 1))
		assert.NoError(t, model.SetGintr(instance, 1.0))
	}
	model.SymmetrizeInteractions()

	err = model.CalculateProbabilitiesAnalytically(7.0, 65536)
	assert.NoError(t, err)

	var total float64
	for i := 0; i < 4; i++ {
		p, _ := model.GetProbability(i)
		total += p
	}
	assert.InDelta(t, 2.0, total, 1e-9, "one unit of probability per site")

	p0, _ := model.GetProbability(0)
	p1, _ := model.GetProbability(1)
	p2, _ := model.GetProbability(2)
	p3, _ := model.GetProbability(3)
	assert.InDelta(t, p0, p2, 1e-9, "identical independent sites have identical marginals")
	assert.InDelta(t, p1, p3, 1e-9)
}

func TestCheckInteractionsSymmetricTolerances(t *testing.T) {
	model, err := energy.NewModel(1, 2, 300)
	assert.NoError(t, err)
	assert.NoError(t, model.SetInteraction(0, 1, 1.0))
	assert.NoError(t, model.SetInteraction(1, 0, 0.8))

	isSymmetric, maxDeviation := model.CheckInteractionsSymmetric(0.05)
	assert.False(t, isSymmetric)
	assert.InDelta(t, 0.1, maxDeviation, 1e-9)

	isSymmetric, _ = model.CheckInteractionsSymmetric(0.2)
	assert.True(t, isSymmetric)
}

func TestSymmetrizeInteractionsMatchesAverage(t *testing.T) {
	model, err := energy.NewModel(1, 2, 300)
	assert.NoError(t, err)
	assert.NoError(t, model.SetInteraction(0, 1, 1.0))
	assert.NoError(t, model.SetInteraction(1, 0, 0.8))
	model.SymmetrizeInteractions()

	w01, err := model.GetInterSymmetric(0, 1)
	assert.NoError(t, err)
	w10, err := model.GetInterSymmetric(1, 0)
	assert.NoError(t, err)
	assert.Equal(t, w01, w10)
	assert.InDelta(t, 0.9, w01, 1e-9)
}

func TestFindPairsDryRunThenFillRun(t *testing.T) {
	model, err := energy.NewModel(2, 4, 300)
	assert.NoError(t, err)
	assert.NoError(t, model.Vector().SetSite(0, 0, 1))
	assert.NoError(t, model.Vector().SetSite(1, 2, 3))

	// |W| values {0.1, 0.4, 3.0, 0.2} across the four (A,B) instance pairs.
	// Both triangles are set so SymmetrizeInteractions leaves them unchanged.
	assert.NoError(t, model.SetInteraction(0, 2, 0.1))
	assert.NoError(t, model.SetInteraction(2, 0, 0.1))
	assert.NoError(t, model.SetInteraction(0, 3, 0.4))
	assert.NoError(t, model.SetInteraction(3, 0, 0.4))
	assert.NoError(t, model.SetInteraction(1, 2, 3.0))
	assert.NoError(t, model.SetInteraction(2, 1, 3.0))
	assert.NoError(t, model.SetInteraction(1, 3, 0.2))
	assert.NoError(t, model.SetInteraction(3, 1, 0.2))
	model.SymmetrizeInteractions()

	count, err := model.FindPairs(1.0, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	filled, err := model.FindPairs(1.0, 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, filled)

	pair, err := model.Vector().GetPair(0)
	assert.NoError(t, err)
	assert.InDelta(t, 3.0, pair.Wmax, 1e-9)
}

func TestCalculateZMatchesSumOfBoltzmannFactors(t *testing.T) {
	model := newSingleSiteTwoInstanceModel(t)
	z, err := model.CalculateZfolded(7.0, 0.0)
	assert.NoError(t, err)
	assert.Greater(t, z, 0.0)
	assert.False(t, math.IsNaN(z))

	// Instance 0 has G=0; instance 1 has G = 1.0 - 1*mu(7).
	g1 := 1.0 - model.MuPH(7.0)
	assert.InDelta(t, 1.0+math.Exp(-g1/model.RT()), z, 1e-12)
}
