// Package report selects and runs an evaluation path against a
// populated energy.Model, and renders its resulting probabilities as
// text. The Strategy interface mirrors the host's
// config.EngineConfig.Method selector, the way a bioinformatics task
// table dispatches on a configured tool name.
package report

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/exp/slices"

	"github.com/efliks/pcetk/config"
	"github.com/efliks/pcetk/energy"
	"github.com/efliks/pcetk/mc"
)

// Strategy runs one evaluation path at a single pH and returns the
// resulting per-instance probabilities.
type Strategy interface {
	Run(model *energy.Model, pH float64) ([]float64, error)
}

// AnalyticStrategy runs exact enumeration, guarded by a states cap.
type AnalyticStrategy struct {
	StatesCap int
}

// Run implements Strategy.
func (s AnalyticStrategy) Run(model *energy.Model, pH float64) ([]float64, error) {
	if err := model.CalculateProbabilitiesAnalytically(pH, s.StatesCap); err != nil {
		return nil, fmt.Errorf("report: analytic strategy: %w", err)
	}
	return probabilitiesOf(model)
}

// MonteCarloStrategy runs the Metropolis MC engine: link, optional pair
// discovery, equilibration, then production.
type MonteCarloStrategy struct {
	Seed      uint32
	NEquil    int
	NProd     int
	NMoves    int
	FindPairs bool
	PairLimit float64
	MaxPairs  int
}

// Run implements Strategy.
func (s MonteCarloStrategy) Run(model *energy.Model, pH float64) ([]float64, error) {
	engine := mc.NewEngine(s.Seed, s.NMoves)
	if err := engine.LinkToEnergyModel(model); err != nil {
		return nil, fmt.Errorf("report: monte carlo strategy: %w", err)
	}
	if s.FindPairs {
		if _, err := engine.FindPairs(s.PairLimit, s.MaxPairs); err != nil {
			return nil, fmt.Errorf("report: monte carlo strategy: %w", err)
		}
	}
	if err := engine.Equilibration(pH, s.NEquil); err != nil {
		return nil, fmt.Errorf("report: monte carlo strategy: %w", err)
	}
	if err := engine.Production(pH, s.NProd); err != nil {
		return nil, fmt.Errorf("report: monte carlo strategy: %w", err)
	}
	return probabilitiesOf(model)
}

func probabilitiesOf(model *energy.Model) ([]float64, error) {
	probabilities := make([]float64, model.NInstances())
	for i := range probabilities {
		p, err := model.GetProbability(i)
		if err != nil {
			return nil, err
		}
		probabilities[i] = p
	}
	return probabilities, nil
}

// StrategyFor selects a Strategy from a loaded config.EngineConfig.
func StrategyFor(cfg config.EngineConfig) (Strategy, error) {
	switch cfg.Method {
	case config.MethodAnalytic:
		return AnalyticStrategy{StatesCap: cfg.AnalyticStatesCap}, nil
	case config.MethodMonteCarlo:
		return MonteCarloStrategy{
			Seed:      cfg.MonteCarlo.Seed,
			NEquil:    cfg.MonteCarlo.NEquil,
			NProd:     cfg.MonteCarlo.NProd,
			NMoves:    cfg.MonteCarlo.NMoves,
			FindPairs: cfg.MonteCarlo.FindPairs,
			PairLimit: cfg.MonteCarlo.PairLimit,
			MaxPairs:  cfg.MonteCarlo.MaxPairs,
		}, nil
	default:
		return nil, fmt.Errorf("report: unknown method %q", cfg.Method)
	}
}

// Text renders a probability vector as a wrapped, human-readable
// summary, grouped by instance index order.
func Text(probabilities []float64, width uint) string {
	var b strings.Builder
	indices := make([]int, len(probabilities))
	for i := range indices {
		indices[i] = i
	}
	slices.Sort(indices)

	for _, i := range indices {
		fmt.Fprintf(&b, "instance %d: probability %.6f\n", i, probabilities[i])
	}
	return wordwrap.WrapString(b.String(), width)
}
