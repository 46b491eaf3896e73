package nutrition

import (
	"math"
	"testing"
)

func strPtr(s string) *string { return &s }
func floatPtr(f float64) *float64 { return &f }

/* ─── Baseline ───────────────────────────────────────────────────────── */

// TestComputeTargets_MaintainRestDay checks the documented 70 kg maintain
// example: 30 kcal/kg, 1.8 g/kg protein, 0.9 g/kg fat, carbs fill the rest.
func TestComputeTargets_MaintainRestDay(t *testing.T) {
	got := ComputeTargets(70, "maintain", nil)

	want := Targets{
		Kcal:            2100,
		ProteinG:        126,
		CarbsG:          257, // (2100 - 126*4 - 63*9) / 4 = 257.25
		FatG:            63,
		DayType:         DayRest,
		TrainingMinutes: 0,
		IntraCarbsGPerH: 0,
	}
	if got != want {
		t.Errorf("ComputeTargets(70, maintain, nil) = %+v, want %+v", got, want)
	}
}

func TestComputeTargets_NoSessionsIsRest(t *testing.T) {
	for _, sessions := range [][]Session{nil, {}} {
		got := ComputeTargets(82, "performance", sessions)
		if got.DayType != DayRest || got.TrainingMinutes != 0 {
			t.Errorf("sessions=%v: got day=%s minutes=%d, want rest/0", sessions, got.DayType, got.TrainingMinutes)
		}
	}
}

/* ─── Weight and goal coercion ───────────────────────────────────────── */

func TestComputeTargets_WeightCoercion(t *testing.T) {
	cases := []struct {
		name   string
		weight float64
		want   int // maintain rest-day kcal = 30 * effective weight
	}{
		{"zero uses default 70", 0, 2100},
		{"NaN uses default 70", math.NaN(), 2100},
		{"Inf uses default 70", math.Inf(1), 2100},
		{"negative clamps to 40", -5, 1200},
		{"below floor clamps to 40", 30, 1200},
		{"exactly 40", 40, 1200},
		{"normal weight", 80, 2400},
		{"exactly 250", 250, 7500},
		{"above ceiling clamps to 250", 300, 7500},
		{"huge finite clamps to 250", 1e300, 7500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTargets(tc.weight, "", nil)
			if got.Kcal != tc.want {
				t.Errorf("kcal = %d, want %d", got.Kcal, tc.want)
			}
		})
	}
}

func TestParseGoal(t *testing.T) {
	cases := []struct {
		in   string
		want Goal
	}{
		{"", GoalMaintain},
		{"maintain", GoalMaintain},
		{"Lose weight", GoalLose},
		{"  LOSE_FAT ", GoalLose},
		{"performance", GoalPerformance},
		{"Race Performance", GoalPerformance},
		{"lose weight for performance", GoalLose}, // first rule wins
		{"gain muscle", GoalMaintain},
		{"loose", GoalMaintain},
	}
	for _, tc := range cases {
		if got := ParseGoal(tc.in); got != tc.want {
			t.Errorf("ParseGoal(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestComputeTargets_GoalRatios(t *testing.T) {
	lose := ComputeTargets(70, "Lose", nil)
	if lose.Kcal != 1960 || lose.ProteinG != 140 {
		t.Errorf("lose: kcal=%d protein=%d, want 1960/140", lose.Kcal, lose.ProteinG)
	}
	perf := ComputeTargets(70, "performance", nil)
	if perf.Kcal != 2380 || perf.ProteinG != 126 {
		t.Errorf("performance: kcal=%d protein=%d, want 2380/126", perf.Kcal, perf.ProteinG)
	}
}

/* ─── Sessions ───────────────────────────────────────────────────────── */

func TestClassifySport(t *testing.T) {
	cases := []struct {
		in   *string
		want Sport
	}{
		{nil, SportOther},
		{strPtr(""), SportOther},
		{strPtr("Swim"), SportSwim},
		{strPtr("Open Water Swimming"), SportSwim},
		{strPtr("Bike"), SportBike},
		{strPtr("MTB bike"), SportBike},
		{strPtr("Run"), SportRun},
		{strPtr("TRAIL RUNNING"), SportRun},
		{strPtr("Strength"), SportStrength},
		{strPtr("Brick bike/run"), SportBike},
		{strPtr("Yoga"), SportOther},
	}
	for _, tc := range cases {
		if got := ClassifySport(tc.in); got != tc.want {
			name := "<nil>"
			if tc.in != nil {
				name = *tc.in
			}
			t.Errorf("ClassifySport(%q) = %s, want %s", name, got, tc.want)
		}
	}
}

func TestSessionMinutes(t *testing.T) {
	r := DefaultRules()
	cases := []struct {
		name string
		s    Session
		want int
	}{
		{"actual preferred over planned", Session{WorkoutType: strPtr("Run"), PlannedHours: floatPtr(2), ActualHours: floatPtr(0.5)}, 30},
		{"planned when actual missing", Session{WorkoutType: strPtr("Run"), PlannedHours: floatPtr(1.25)}, 75},
		{"recorded zero actual does not fall back", Session{WorkoutType: strPtr("Bike"), PlannedHours: floatPtr(1), ActualHours: floatPtr(0)}, 0},
		{"nothing recorded", Session{WorkoutType: strPtr("Swim")}, 0},
		{"negative floors at zero", Session{WorkoutType: strPtr("Run"), PlannedHours: floatPtr(-1)}, 0},
		{"rounds to nearest minute", Session{PlannedHours: floatPtr(0.341)}, 20},
		{"strength without hours is 60", Session{WorkoutType: strPtr("Strength")}, 60},
		{"strength with zero planned is 60", Session{WorkoutType: strPtr("strength"), PlannedHours: floatPtr(0)}, 60},
		{"strength with logged hours uses them", Session{WorkoutType: strPtr("Strength"), ActualHours: floatPtr(0.75)}, 45},
		{"strength with negative hours is 0", Session{WorkoutType: strPtr("Strength"), PlannedHours: floatPtr(-1)}, 0},
		{"exactly 24h", Session{WorkoutType: strPtr("Bike"), PlannedHours: floatPtr(24)}, 1440},
		{"huge hours saturate", Session{WorkoutType: strPtr("Run"), PlannedHours: floatPtr(1e300)}, 1440},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.SessionMinutes(tc.s); got != tc.want {
				t.Errorf("SessionMinutes = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestComputeTargets_StrengthOnly(t *testing.T) {
	got := ComputeTargets(70, "maintain", []Session{{WorkoutType: strPtr("Strength"), PlannedHours: floatPtr(0)}})
	if got.TrainingMinutes < 60 {
		t.Errorf("training_minutes = %d, want >= 60", got.TrainingMinutes)
	}
	if got.DayType != DayModerate {
		t.Errorf("day type = %s, want moderate", got.DayType)
	}
}

/* ─── Day-type thresholds ────────────────────────────────────────────── */

// TestClassifyDay_Boundaries exercises each threshold and the minute below it.
func TestClassifyDay_Boundaries(t *testing.T) {
	r := DefaultRules()
	cases := []struct {
		minutes int
		want    DayType
	}{
		{0, DayRest},
		{r.Thresholds.Easy - 1, DayRest},
		{r.Thresholds.Easy, DayEasy},
		{r.Thresholds.Moderate - 1, DayEasy},
		{r.Thresholds.Moderate, DayModerate},
		{r.Thresholds.Hard - 1, DayModerate},
		{r.Thresholds.Hard, DayHard},
		{600, DayHard},
	}
	for _, tc := range cases {
		if got := r.ClassifyDay(tc.minutes); got != tc.want {
			t.Errorf("ClassifyDay(%d) = %s, want %s", tc.minutes, got, tc.want)
		}
	}
}

func TestComputeTargets_LoadAddOn(t *testing.T) {
	cases := []struct {
		hours float64
		day   DayType
		kcal  int
	}{
		{0.5, DayEasy, 2240},     // (30+2)*70
		{1.0, DayModerate, 2450}, // (30+5)*70
		{2.0, DayHard, 2660},     // (30+8)*70
	}
	for _, tc := range cases {
		got := ComputeTargets(70, "maintain", []Session{{WorkoutType: strPtr("Run"), PlannedHours: floatPtr(tc.hours)}})
		if got.DayType != tc.day || got.Kcal != tc.kcal {
			t.Errorf("%.2fh: got %s/%d, want %s/%d", tc.hours, got.DayType, got.Kcal, tc.day, tc.kcal)
		}
	}
}

// TestComputeTargets_Monotonic verifies more training never lowers kcal or carbs.
func TestComputeTargets_Monotonic(t *testing.T) {
	for _, goal := range []string{"lose", "maintain", "performance"} {
		prev := ComputeTargets(68, goal, nil)
		for m := 1; m <= 300; m++ {
			cur := ComputeTargets(68, goal, []Session{{WorkoutType: strPtr("Bike"), PlannedHours: floatPtr(float64(m) / 60)}})
			if cur.Kcal < prev.Kcal || cur.CarbsG < prev.CarbsG {
				t.Fatalf("goal=%s minutes=%d: kcal %d->%d carbs %d->%d decreased", goal, m, prev.Kcal, cur.Kcal, prev.CarbsG, cur.CarbsG)
			}
			prev = cur
		}
	}
}

func TestComputeTargets_SumsMultipleSessions(t *testing.T) {
	got := ComputeTargets(70, "", []Session{
		{WorkoutType: strPtr("Swim"), ActualHours: floatPtr(0.5)},
		{WorkoutType: strPtr("Run"), PlannedHours: floatPtr(0.5)},
		{WorkoutType: strPtr("Strength")},
	})
	if got.TrainingMinutes != 120 || got.DayType != DayHard {
		t.Errorf("got %d minutes (%s), want 120 (hard)", got.TrainingMinutes, got.DayType)
	}
}

// TestComputeTargets_HugeHoursStayHard covers hour values far beyond a day:
// minutes saturate instead of overflowing, so the day stays hard.
func TestComputeTargets_HugeHoursStayHard(t *testing.T) {
	cases := []struct {
		name     string
		sessions []Session
	}{
		{"one huge session", []Session{{WorkoutType: strPtr("Run"), PlannedHours: floatPtr(1e300)}}},
		{"many long sessions", []Session{
			{WorkoutType: strPtr("Run"), PlannedHours: floatPtr(20)},
			{WorkoutType: strPtr("Bike"), ActualHours: floatPtr(20)},
			{WorkoutType: strPtr("Swim"), PlannedHours: floatPtr(1e12)},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTargets(70, "maintain", tc.sessions)
			if got.TrainingMinutes != 1440 || got.DayType != DayHard {
				t.Errorf("got %d minutes (%s), want 1440 (hard)", got.TrainingMinutes, got.DayType)
			}
			if got.Kcal != 2660 || got.IntraCarbsGPerH != 75 {
				t.Errorf("got kcal=%d intra=%d, want 2660/75", got.Kcal, got.IntraCarbsGPerH)
			}
		})
	}
}

func TestComputeTargets_HugeWeightStaysPositive(t *testing.T) {
	got := ComputeTargets(1e300, "lose", nil)
	want := ComputeTargets(250, "lose", nil)
	if got != want {
		t.Errorf("ComputeTargets(1e300) = %+v, want %+v", got, want)
	}
	if got.Kcal <= 0 || got.ProteinG <= 0 || got.FatG <= 0 || got.CarbsG < 0 {
		t.Errorf("non-positive targets: %+v", got)
	}
}

func TestComputeTargets_CarbsNeverNegative(t *testing.T) {
	r := DefaultRules()
	r.FatGPerKg = 5 // fat alone exceeds the calorie budget
	got := r.ComputeTargets(70, "", nil)
	if got.CarbsG != 0 {
		t.Errorf("carbs = %d, want 0", got.CarbsG)
	}
}

/* ─── Intra-workout carbs ────────────────────────────────────────────── */

func TestIntraCarbs(t *testing.T) {
	r := DefaultRules()
	cases := []struct {
		hours float64
		want  int
	}{
		{0, 0}, {0.99, 0}, {1.0, 30}, {1.49, 30}, {1.5, 60}, {2.49, 60}, {2.5, 75}, {6, 75},
	}
	for _, tc := range cases {
		if got := r.IntraCarbs(tc.hours); got != tc.want {
			t.Errorf("IntraCarbs(%.2f) = %d, want %d", tc.hours, got, tc.want)
		}
	}
}

/* ─── Rationale ──────────────────────────────────────────────────────── */

func TestBuildRationale_CoversEveryDayType(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range []DayType{DayRest, DayEasy, DayModerate, DayHard} {
		s := BuildRationale(Targets{DayType: d})
		if s == "" {
			t.Errorf("empty rationale for %s", d)
		}
		if seen[s] {
			t.Errorf("rationale for %s duplicates another day type", d)
		}
		seen[s] = true
	}
}
