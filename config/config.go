// Package config loads the YAML-encoded settings a titration driver
// passes in: which evaluation path to run, its pH range, and the MC
// scan/seed parameters.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/efliks/pcetk/checks"
)

// Method selects the evaluation path a report.Strategy runs.
type Method string

const (
	// MethodAnalytic selects exact enumeration.
	MethodAnalytic Method = "analytic"
	// MethodMonteCarlo selects the Metropolis MC engine.
	MethodMonteCarlo Method = "monte_carlo"
)

// EngineConfig is the top-level settings document.
type EngineConfig struct {
	Method      Method    `yaml:"method"`
	Temperature float64   `yaml:"temperature"`
	PHValues    []float64 `yaml:"ph_values"`

	// AnalyticStatesCap bounds nstates for MethodAnalytic; exceeding it
	// is an error rather than a silent fallback to MC.
	AnalyticStatesCap int `yaml:"analytic_states_cap"`

	MonteCarlo MonteCarloConfig `yaml:"monte_carlo"`
}

// MonteCarloConfig holds MC-path parameters.
type MonteCarloConfig struct {
	Seed      uint32  `yaml:"seed"`
	NEquil    int     `yaml:"nequil"`
	NProd     int     `yaml:"nprod"`
	NMoves    int     `yaml:"nmoves"`
	PairLimit float64 `yaml:"pair_limit"`
	FindPairs bool    `yaml:"find_pairs"`
	MaxPairs  int     `yaml:"max_pairs"`
}

// defaultAnalyticStatesCap matches the source's ANALYTIC_STATES guard.
const defaultAnalyticStatesCap = 65536

// Load reads and decodes an EngineConfig from path, filling
// AnalyticStatesCap with its default when the document omits it.
func Load(path string) (EngineConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	var parsed EngineConfig
	if err := yaml.NewDecoder(file).Decode(&parsed); err != nil {
		return EngineConfig{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if parsed.AnalyticStatesCap == 0 {
		parsed.AnalyticStatesCap = defaultAnalyticStatesCap
	}
	if !checks.IsValidTemperature(parsed.Temperature) {
		return EngineConfig{}, fmt.Errorf("config: %s: temperature %g is not positive", path, parsed.Temperature)
	}
	for _, pH := range parsed.PHValues {
		if !checks.IsValidPH(pH) {
			return EngineConfig{}, fmt.Errorf("config: %s: pH %g outside [0,14]", path, pH)
		}
	}
	return parsed, nil
}
