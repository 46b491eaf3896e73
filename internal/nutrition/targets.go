// Package nutrition derives daily calorie and macro targets from training
// load, and scales recipe quantities. Everything here is pure and safe for
// concurrent use.
package nutrition

import (
	"math"
	"strings"
)

// DayType classifies a day's total training load.
type DayType string

const (
	DayRest     DayType = "rest"
	DayEasy     DayType = "easy"
	DayModerate DayType = "moderate"
	DayHard     DayType = "hard"
)

// Goal is the athlete's body-composition goal category.
type Goal string

const (
	GoalLose        Goal = "lose"
	GoalPerformance Goal = "performance"
	GoalMaintain    Goal = "maintain"
)

// Sport is the category a free-text workout type maps to.
type Sport string

const (
	SportSwim     Sport = "swim"
	SportBike     Sport = "bike"
	SportRun      Sport = "run"
	SportStrength Sport = "strength"
	SportOther    Sport = "other"
)

type matchRule[T any] struct {
	substr string
	value  T
}

// goalRules and sportRules are evaluated in order; the first substring hit wins.
var goalRules = []matchRule[Goal]{
	{"lose", GoalLose},
	{"performance", GoalPerformance},
}

var sportRules = []matchRule[Sport]{
	{"swim", SportSwim},
	{"bike", SportBike},
	{"run", SportRun},
	{"strength", SportStrength},
}

func firstMatch[T any](s string, rules []matchRule[T], fallback T) T {
	s = strings.ToLower(s)
	for _, r := range rules {
		if strings.Contains(s, r.substr) {
			return r.value
		}
	}
	return fallback
}

// ParseGoal maps free text to a goal category. Empty or unrecognised text is
// GoalMaintain.
func ParseGoal(s string) Goal {
	return firstMatch(strings.TrimSpace(s), goalRules, GoalMaintain)
}

// ClassifySport maps a workout type to a sport category; nil is SportOther.
func ClassifySport(workoutType *string) Sport {
	if workoutType == nil {
		return SportOther
	}
	return firstMatch(*workoutType, sportRules, SportOther)
}

// Session is one training session on the day being planned. Nil hours mean
// the value was not recorded.
type Session struct {
	WorkoutType  *string  `json:"workout_type"`
	PlannedHours *float64 `json:"planned_hours"`
	ActualHours  *float64 `json:"actual_hours"`
}

// Targets is the day's computed nutrition target.
type Targets struct {
	Kcal            int     `json:"target_kcal"`
	ProteinG        int     `json:"target_protein_g"`
	CarbsG          int     `json:"target_carbs_g"`
	FatG            int     `json:"target_fat_g"`
	DayType         DayType `json:"training_day_type"`
	TrainingMinutes int     `json:"training_minutes"`
	IntraCarbsGPerH int     `json:"intra_cho_g_per_h"`
}

// ComputeTargets evaluates DefaultRules. See Rules.ComputeTargets.
func ComputeTargets(weightKg float64, goal string, sessions []Session) Targets {
	return DefaultRules().ComputeTargets(weightKg, goal, sessions)
}

// ComputeTargets derives the day's targets. It is total: missing or invalid
// inputs are coerced to defaults instead of rejected.
func (r Rules) ComputeTargets(weightKg float64, goal string, sessions []Session) Targets {
	weight := r.effectiveWeight(weightKg)
	g := ParseGoal(goal)

	minutes := 0
	for _, s := range sessions {
		minutes = min(minutes+r.SessionMinutes(s), r.MaxTrainingMinutes)
	}
	day := r.ClassifyDay(minutes)

	kcal := int(math.Round(r.BaseKcalPerKg.forGoal(g)*weight + r.LoadKcalPerKg.forDay(day)*weight))
	protein := int(math.Round(r.ProteinGPerKg.forGoal(g) * weight))
	fat := int(math.Round(r.FatGPerKg * weight))

	remaining := float64(kcal - protein*KcalPerGramProtein - fat*KcalPerGramFat)
	if remaining < 0 {
		remaining = 0
	}
	carbs := int(math.Round(remaining / KcalPerGramCarbs))

	return Targets{
		Kcal:            kcal,
		ProteinG:        protein,
		CarbsG:          carbs,
		FatG:            fat,
		DayType:         day,
		TrainingMinutes: minutes,
		IntraCarbsGPerH: r.IntraCarbs(float64(minutes) / 60),
	}
}

func (r Rules) effectiveWeight(w float64) float64 {
	if w == 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		w = r.DefaultWeightKg
	}
	return math.Min(r.MaxWeightKg, math.Max(r.MinWeightKg, w))
}

// SessionMinutes is the session's duration in whole minutes, between 0 and
// MaxTrainingMinutes. Strength work with no recorded hours (missing or zero)
// counts as StrengthDefaultMinutes; negative hours count as 0.
func (r Rules) SessionMinutes(s Session) int {
	hours := 0.0
	switch {
	case s.ActualHours != nil:
		hours = *s.ActualHours
	case s.PlannedHours != nil:
		hours = *s.PlannedHours
	}
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		hours = 0
	}
	if hours == 0 && ClassifySport(s.WorkoutType) == SportStrength {
		return r.StrengthDefaultMinutes
	}
	if hours <= 0 {
		return 0
	}
	// Saturate before converting so huge values cannot overflow int.
	return int(math.Round(math.Min(hours*60, float64(r.MaxTrainingMinutes))))
}

// ClassifyDay maps total training minutes to a day type. Ties go to the
// higher category.
func (r Rules) ClassifyDay(totalMinutes int) DayType {
	switch {
	case totalMinutes >= r.Thresholds.Hard:
		return DayHard
	case totalMinutes >= r.Thresholds.Moderate:
		return DayModerate
	case totalMinutes >= r.Thresholds.Easy:
		return DayEasy
	default:
		return DayRest
	}
}

// IntraCarbs returns the suggested in-session carbohydrate intake (g/h) for
// a day with the given training hours.
func (r Rules) IntraCarbs(hours float64) int {
	for _, s := range r.IntraCarbSteps {
		if hours < s.UnderHours {
			return s.GramsPerH
		}
	}
	return r.IntraCarbMaxGPerH
}
