package bot

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/freeeve/towerline/pkg/grid"
)

// Tuning holds the scoring weights, phase thresholds, and structure prices
// the planner runs with.
type Tuning struct {
	Preset string `yaml:"preset,omitempty"`

	EarlyGameTurns     int     `yaml:"early_game_turns"`
	LateGameTurn       int     `yaml:"late_game_turn"`
	PopulationWeight   float64 `yaml:"population_weight"`
	CostWeight         float64 `yaml:"cost_weight"`
	PositionWeight     float64 `yaml:"position_weight"`
	PopulationNorm     float64 `yaml:"population_norm"`
	EnemyDistanceScale float64 `yaml:"enemy_distance_scale"`
	PositionMode       string  `yaml:"position_mode"`
	Fallback           bool    `yaml:"fallback"`
	LateFortifyCap     float64 `yaml:"late_fortify_cap"`

	Costs CostConfig `yaml:"costs"`
}

// Opening position modes.
const (
	// PositionBalance favors cells on the line where the scaled distance to
	// the own generators equals the distance to the enemy generators.
	PositionBalance = "balance"
	// PositionFrontier favors cells closer to the enemy generators than to
	// the own ones.
	PositionFrontier = "frontier"
)

// CostConfig is the YAML form of the structure cost table.
type CostConfig struct {
	Road  float64 `yaml:"road"`
	Tower float64 `yaml:"tower"`
}

// Table converts the config into a grid.CostTable.
func (c CostConfig) Table() grid.Costs {
	return grid.Costs{grid.Road: c.Road, grid.Tower: c.Tower}
}

// StandardTuning is the tuned planner: population dominates the score, the
// opening pushes toward the balance line between the generators, and the
// defensive fallback is enabled.
func StandardTuning() Tuning {
	return Tuning{
		Preset:             "standard",
		EarlyGameTurns:     20,
		LateGameTurn:       120,
		PopulationWeight:   5,
		CostWeight:         1,
		PositionWeight:     1,
		PopulationNorm:     10,
		EnemyDistanceScale: 1.2,
		PositionMode:       PositionBalance,
		Fallback:           true,
		LateFortifyCap:     50,
		Costs:              CostConfig{Road: 10, Tower: 250},
	}
}

// ClassicTuning is the first-generation planner: equal weights, a longer
// opening, and no defensive fallback.
func ClassicTuning() Tuning {
	t := StandardTuning()
	t.Preset = "classic"
	t.EarlyGameTurns = 40
	t.PopulationWeight = 1
	t.EnemyDistanceScale = 1.0
	t.PositionMode = PositionFrontier
	t.Fallback = false
	return t
}

// TuningForPreset returns the named preset. An empty name selects standard.
func TuningForPreset(name string) (Tuning, error) {
	switch name {
	case "", "standard":
		return StandardTuning(), nil
	case "classic":
		return ClassicTuning(), nil
	}
	return Tuning{}, fmt.Errorf("unknown tuning preset %q", name)
}

// LoadTuning reads a YAML tuning file. Fields missing from the file keep the
// values of the preset the file names (standard by default).
func LoadTuning(path string) (Tuning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, err
	}
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return Tuning{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	t, err := TuningForPreset(head.Preset)
	if err != nil {
		return Tuning{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Tuning{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects tunings the planner cannot run with.
func (t Tuning) Validate() error {
	var errs []error
	if t.EarlyGameTurns < 0 {
		errs = append(errs, errors.New("early_game_turns must be >= 0"))
	}
	if t.LateGameTurn < 0 {
		errs = append(errs, errors.New("late_game_turn must be >= 0"))
	}
	if t.PopulationNorm <= 0 {
		errs = append(errs, errors.New("population_norm must be > 0"))
	}
	if t.EnemyDistanceScale < 0 {
		errs = append(errs, errors.New("enemy_distance_scale must be >= 0"))
	}
	if t.PositionMode != PositionBalance && t.PositionMode != PositionFrontier {
		errs = append(errs, fmt.Errorf("position_mode must be %q or %q", PositionBalance, PositionFrontier))
	}
	if t.LateFortifyCap < 0 {
		errs = append(errs, errors.New("late_fortify_cap must be >= 0"))
	}
	if t.Costs.Road <= 0 || t.Costs.Tower <= 0 {
		errs = append(errs, errors.New("costs.road and costs.tower must be > 0"))
	}
	return errors.Join(errs...)
}

// early reports whether turn falls in the opening phase.
func (t Tuning) early(turn int) bool { return turn < t.EarlyGameTurns }

// ResolveTuning loads path when it is set and falls back to the named preset.
func ResolveTuning(preset, path string) (Tuning, error) {
	if path != "" {
		return LoadTuning(path)
	}
	return TuningForPreset(preset)
}
