package nutrition

import (
	"time"
)

// PlanDay is one row of a multi-day plan.
type PlanDay struct {
	Date    time.Time
	Targets Targets
}

// BuildPlan computes targets for every calendar day in [start, end], using the
// sessions keyed by "YYYY-MM-DD". Days without sessions are rest days. An end
// before start yields an empty plan.
func (r Rules) BuildPlan(weightKg float64, goal string, start, end time.Time, sessionsByDay map[string][]Session) []PlanDay {
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return nil
	}

	days := make([]PlanDay, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, PlanDay{
			Date:    d,
			Targets: r.ComputeTargets(weightKg, goal, sessionsByDay[d.Format(time.DateOnly)]),
		})
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
