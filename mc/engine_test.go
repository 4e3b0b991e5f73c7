package mc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/efliks/pcetk/energy"
	"github.com/efliks/pcetk/mc"
)

func newTwoSiteModel(t *testing.T) *energy.Model {
	t.Helper()
	model, err := energy.NewModel(2, 4, 300)
	assert.NoError(t, err)
	assert.NoError(t, model.Vector().SetSite(0, 0, 1))
	assert.NoError(t, model.Vector().SetSite(1, 2, 3))
	model.SetNStates(4)

	assert.NoError(t, model.SetProtons(0, 0))
	assert.NoError(t, model.SetProtons(1, 1))
	assert.NoError(t, model.SetProtons(2, 0))
	assert.NoError(t, model.SetProtons(3, 1))
	assert.NoError(t, model.SetGintr(0, 0.0))
	assert.NoError(t, model.SetGintr(1, 1.0))
	assert.NoError(t, model.SetGintr(2, 0.0))
	assert.NoError(t, model.SetGintr(3, 1.0))
	model.SymmetrizeInteractions()
	return model
}

func TestMoveAcceptOrRejectRestoresState(t *testing.T) {
	model := newTwoSiteModel(t)
	engine := mc.NewEngine(1, 0)
	assert.NoError(t, engine.LinkToEnergyModel(model))

	for i := 0; i < 100; i++ {
		_, err := engine.Move(7.0)
		assert.NoError(t, err)
	}
}

func TestEquilibrationTransitionsPhase(t *testing.T) {
	model := newTwoSiteModel(t)
	engine := mc.NewEngine(2, 0)
	assert.NoError(t, engine.LinkToEnergyModel(model))
	assert.Equal(t, mc.Linked, engine.Phase())

	assert.NoError(t, engine.Equilibration(7.0, 10))
	assert.Equal(t, mc.Equilibrated, engine.Phase())
}

func TestProductionScalesProbabilitiesToOnePerSite(t *testing.T) {
	model := newTwoSiteModel(t)
	engine := mc.NewEngine(3, 0)
	assert.NoError(t, engine.LinkToEnergyModel(model))
	assert.NoError(t, engine.Equilibration(7.0, 200))
	assert.NoError(t, engine.Production(7.0, 2000))
	assert.Equal(t, mc.Done, engine.Phase())

	p0, _ := model.GetProbability(0)
	p1, _ := model.GetProbability(1)
	assert.InDelta(t, 1.0, p0+p1, 1e-9, "site 0's instances must sum to 1")

	p2, _ := model.GetProbability(2)
	p3, _ := model.GetProbability(3)
	assert.InDelta(t, 1.0, p2+p3, 1e-9, "site 1's instances must sum to 1")
}

func TestMCAgreesWithAnalyticProbabilities(t *testing.T) {
	model := newTwoSiteModel(t)

	err := model.CalculateProbabilitiesAnalytically(7.0, 65536)
	assert.NoError(t, err)
	analyticP0, _ := model.GetProbability(0)

	engine := mc.NewEngine(99, 0)
	assert.NoError(t, engine.LinkToEnergyModel(model))
	assert.NoError(t, engine.Equilibration(7.0, 2000))
	assert.NoError(t, engine.Production(7.0, 50000))

	mcP0, _ := model.GetProbability(0)
	assert.InDelta(t, analyticP0, mcP0, 0.02, "MC probability should approach the analytic value")
}

func TestDoubleMoveRequiresPairsTable(t *testing.T) {
	model := newTwoSiteModel(t)
	engine := mc.NewEngine(5, 0)
	assert.NoError(t, engine.LinkToEnergyModel(model))

	_, err := engine.DoubleMove(7.0)
	assert.Error(t, err, "no pairs allocated yet")
}

func TestDoubleMoveAfterFindPairs(t *testing.T) {
	model := newTwoSiteModel(t)
	assert.NoError(t, model.SetInteraction(1, 3, 2.0))
	assert.NoError(t, model.SetInteraction(3, 1, 2.0))
	model.SymmetrizeInteractions()

	engine := mc.NewEngine(6, 0)
	assert.NoError(t, engine.LinkToEnergyModel(model))

	count, err := engine.FindPairs(1.0, 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	for i := 0; i < 50; i++ {
		_, err := engine.DoubleMove(7.0)
		assert.NoError(t, err)
	}
}
