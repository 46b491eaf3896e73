package tpimport

import (
	"time"

	"github.com/Josep-Roura/Cooked-sub004/internal/nutrition"
)

// Session converts the row into the target engine's input.
func (r Row) Session() nutrition.Session {
	s := nutrition.Session{PlannedHours: r.PlannedHours, ActualHours: r.ActualHours}
	if r.WorkoutType != "" {
		t := r.WorkoutType
		s.WorkoutType = &t
	}
	return s
}

// SessionsByDay groups rows into engine sessions keyed by "YYYY-MM-DD".
func SessionsByDay(rows []Row) map[string][]nutrition.Session {
	out := make(map[string][]nutrition.Session)
	for _, r := range rows {
		day := r.WorkoutDay.Format(time.DateOnly)
		out[day] = append(out[day], r.Session())
	}
	return out
}
