package nutrition

import (
	"testing"
	"time"
)

func TestBuildPlan_FillsEveryDay(t *testing.T) {
	start := time.Date(2026, 3, 30, 15, 4, 0, 0, time.UTC) // time of day is ignored
	end := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	sessions := map[string][]Session{
		"2026-03-31": {{WorkoutType: strPtr("Run"), PlannedHours: floatPtr(1)}},
		"2026-04-02": {{WorkoutType: strPtr("Bike"), PlannedHours: floatPtr(3)}},
	}

	plan := DefaultRules().BuildPlan(70, "maintain", start, end, sessions)

	wantDays := []struct {
		date string
		day  DayType
	}{
		{"2026-03-30", DayRest},
		{"2026-03-31", DayModerate},
		{"2026-04-01", DayRest},
		{"2026-04-02", DayHard},
	}
	if len(plan) != len(wantDays) {
		t.Fatalf("len(plan) = %d, want %d", len(plan), len(wantDays))
	}
	for i, w := range wantDays {
		if got := plan[i].Date.Format(time.DateOnly); got != w.date {
			t.Errorf("plan[%d].Date = %s, want %s", i, got, w.date)
		}
		if plan[i].Targets.DayType != w.day {
			t.Errorf("plan[%d] day type = %s, want %s", i, plan[i].Targets.DayType, w.day)
		}
	}
	if plan[3].Targets.IntraCarbsGPerH != 75 {
		t.Errorf("3h day intra carbs = %d, want 75", plan[3].Targets.IntraCarbsGPerH)
	}
}

func TestBuildPlan_EndBeforeStart(t *testing.T) {
	start := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	if plan := DefaultRules().BuildPlan(70, "", start, start.AddDate(0, 0, -1), nil); len(plan) != 0 {
		t.Errorf("len(plan) = %d, want 0", len(plan))
	}
}
