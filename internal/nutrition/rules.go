package nutrition

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Energy density of each macronutrient (kcal per gram).
const (
	KcalPerGramProtein = 4
	KcalPerGramCarbs   = 4
	KcalPerGramFat     = 9
)

// DayThresholds are inclusive lower bounds on total training minutes.
type DayThresholds struct {
	Hard     int `yaml:"hard"`
	Moderate int `yaml:"moderate"`
	Easy     int `yaml:"easy"`
}

// GoalRatios holds a per-kg value for each goal category.
type GoalRatios struct {
	Lose        float64 `yaml:"lose"`
	Performance float64 `yaml:"performance"`
	Maintain    float64 `yaml:"maintain"`
}

func (g GoalRatios) forGoal(goal Goal) float64 {
	switch goal {
	case GoalLose:
		return g.Lose
	case GoalPerformance:
		return g.Performance
	default:
		return g.Maintain
	}
}

// LoadRatios holds the extra kcal/kg added for each day type.
type LoadRatios struct {
	Rest     float64 `yaml:"rest"`
	Easy     float64 `yaml:"easy"`
	Moderate float64 `yaml:"moderate"`
	Hard     float64 `yaml:"hard"`
}

func (l LoadRatios) forDay(d DayType) float64 {
	switch d {
	case DayHard:
		return l.Hard
	case DayModerate:
		return l.Moderate
	case DayEasy:
		return l.Easy
	default:
		return l.Rest
	}
}

// IntraCarbStep gives grams of carbohydrate per hour of training for days
// whose training hours are below UnderHours.
type IntraCarbStep struct {
	UnderHours float64 `yaml:"under_hours"`
	GramsPerH  int     `yaml:"grams_per_hour"`
}

// Rules is every tunable constant the target engine reads. The zero value is
// not usable; start from DefaultRules.
type Rules struct {
	DefaultWeightKg        float64       `yaml:"default_weight_kg"`
	MinWeightKg            float64       `yaml:"min_weight_kg"`
	MaxWeightKg            float64       `yaml:"max_weight_kg"`
	StrengthDefaultMinutes int           `yaml:"strength_default_minutes"`
	MaxTrainingMinutes     int           `yaml:"max_training_minutes"` // caps one session and the day's total
	Thresholds             DayThresholds `yaml:"day_thresholds"`
	BaseKcalPerKg          GoalRatios    `yaml:"base_kcal_per_kg"`
	LoadKcalPerKg          LoadRatios    `yaml:"load_kcal_per_kg"`
	ProteinGPerKg          GoalRatios    `yaml:"protein_g_per_kg"`
	FatGPerKg              float64       `yaml:"fat_g_per_kg"`

	// Steps are checked in order; hours past the last step get IntraCarbMaxGPerH.
	IntraCarbSteps    []IntraCarbStep `yaml:"intra_carb_steps"`
	IntraCarbMaxGPerH int             `yaml:"intra_carb_max_grams_per_hour"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	return Rules{
		DefaultWeightKg:        70,
		MinWeightKg:            40,
		MaxWeightKg:            250,
		StrengthDefaultMinutes: 60,
		MaxTrainingMinutes:     24 * 60,
		Thresholds:             DayThresholds{Hard: 120, Moderate: 60, Easy: 20},
		BaseKcalPerKg:          GoalRatios{Lose: 28, Performance: 34, Maintain: 30},
		LoadKcalPerKg:          LoadRatios{Rest: 0, Easy: 2, Moderate: 5, Hard: 8},
		ProteinGPerKg:          GoalRatios{Lose: 2.0, Performance: 1.8, Maintain: 1.8},
		FatGPerKg:              0.9,
		IntraCarbSteps: []IntraCarbStep{
			{UnderHours: 1.0, GramsPerH: 0},
			{UnderHours: 1.5, GramsPerH: 30},
			{UnderHours: 2.5, GramsPerH: 60},
		},
		IntraCarbMaxGPerH: 75,
	}
}

// LoadRules reads a YAML rule file and overlays it on DefaultRules, so a file
// only needs the keys it changes.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return rules, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return rules, nil
}

// Validate rejects rule sets that would break classification or produce
// negative targets.
func (r Rules) Validate() error {
	t := r.Thresholds
	if !(t.Hard > t.Moderate && t.Moderate > t.Easy && t.Easy > 0) {
		return fmt.Errorf("day thresholds must satisfy hard > moderate > easy > 0, got %d/%d/%d", t.Hard, t.Moderate, t.Easy)
	}
	if r.MinWeightKg <= 0 || r.DefaultWeightKg < r.MinWeightKg || r.MaxWeightKg < r.DefaultWeightKg || math.IsInf(r.MaxWeightKg, 0) {
		return fmt.Errorf("weights must satisfy 0 < min_weight_kg <= default_weight_kg <= max_weight_kg")
	}
	if r.StrengthDefaultMinutes < 0 {
		return fmt.Errorf("strength_default_minutes must not be negative")
	}
	if r.MaxTrainingMinutes < t.Hard || r.MaxTrainingMinutes < r.StrengthDefaultMinutes {
		return fmt.Errorf("max_training_minutes must be at least day_thresholds.hard and strength_default_minutes")
	}
	for name, v := range map[string]float64{
		"base_kcal_per_kg.lose":        r.BaseKcalPerKg.Lose,
		"base_kcal_per_kg.performance": r.BaseKcalPerKg.Performance,
		"base_kcal_per_kg.maintain":    r.BaseKcalPerKg.Maintain,
		"protein_g_per_kg.lose":        r.ProteinGPerKg.Lose,
		"protein_g_per_kg.performance": r.ProteinGPerKg.Performance,
		"protein_g_per_kg.maintain":    r.ProteinGPerKg.Maintain,
		"fat_g_per_kg":                 r.FatGPerKg,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a positive number", name)
		}
	}
	for name, v := range map[string]float64{
		"load_kcal_per_kg.rest":     r.LoadKcalPerKg.Rest,
		"load_kcal_per_kg.easy":     r.LoadKcalPerKg.Easy,
		"load_kcal_per_kg.moderate": r.LoadKcalPerKg.Moderate,
		"load_kcal_per_kg.hard":     r.LoadKcalPerKg.Hard,
	} {
		if !(v >= 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	l := r.LoadKcalPerKg
	if !(l.Rest <= l.Easy && l.Easy <= l.Moderate && l.Moderate <= l.Hard) {
		return fmt.Errorf("load_kcal_per_kg must not decrease from rest to hard")
	}
	prev := 0.0
	for i, s := range r.IntraCarbSteps {
		if s.UnderHours <= prev || s.GramsPerH < 0 {
			return fmt.Errorf("intra_carb_steps[%d] must have increasing hours and non-negative grams", i)
		}
		prev = s.UnderHours
	}
	return nil
}
