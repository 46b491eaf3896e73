package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Josep-Roura/Cooked-sub004/internal/nutrition"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(time.DateOnly) + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"`+time.DateOnly+`"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns into DateOnly. NULL zeroes the time so *DateOnly fields can be nil.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. AuthToken and Password are hidden from JSON responses.
type user struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	AuthToken string     `json:"-" db:"auth_token"`
	Password  string     `json:"-" db:"password"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// athleteProfile maps to athlete_profiles, one row per user. WeightKg and
// Goal feed the target engine when no weight log entry exists.
type athleteProfile struct {
	UserID      int        `json:"user_id"       db:"user_id"`
	WeightKg    *float64   `json:"weight_kg"     db:"weight_kg"`
	Goal        string     `json:"goal"          db:"goal"`
	Sex         *string    `json:"sex"           db:"sex"`
	HeightCM    *float64   `json:"height_cm"     db:"height_cm"`
	DateOfBirth *DateOnly  `json:"date_of_birth" db:"date_of_birth"`
	Units       string     `json:"units"         db:"units"`
	UpdatedAt   *time.Time `json:"updated_at"    db:"updated_at"`
}

// weightEntry maps to weight_log. One entry per user per date.
type weightEntry struct {
	ID        int        `json:"id" db:"id"`
	UserID    int        `json:"user_id" db:"user_id"`
	Date      DateOnly   `json:"date" db:"date"`
	WeightKg  float64    `json:"weight_kg" db:"weight_kg"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// foodLogItem maps to food_log_items. Nullable numeric fields use pointers
// so pgx can scan NULLs.
type foodLogItem struct {
	ID        int        `json:"id" db:"id"`
	UserID    int        `json:"user_id" db:"user_id"`
	Date      DateOnly   `json:"date" db:"date"`
	ItemName  string     `json:"item_name" db:"item_name"`
	Meal      string     `json:"meal" db:"meal"`
	Qty       *float64   `json:"qty" db:"qty"`
	Unit      *string    `json:"unit" db:"unit"`
	Calories  int        `json:"calories" db:"calories"`
	ProteinG  *float64   `json:"protein_g" db:"protein_g"`
	CarbsG    *float64   `json:"carbs_g" db:"carbs_g"`
	FatG      *float64   `json:"fat_g" db:"fat_g"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// workout maps to tp_workouts. Title and WorkoutType are '' rather than NULL
// so the (user_id, workout_day, title, workout_type) key stays unique.
type workout struct {
	ID              int        `json:"id"               db:"id"`
	UserID          int        `json:"user_id"          db:"user_id"`
	WorkoutDay      DateOnly   `json:"workout_day"      db:"workout_day"`
	Title           string     `json:"title"            db:"title"`
	WorkoutType     string     `json:"workout_type"     db:"workout_type"`
	Description     *string    `json:"description"      db:"description"`
	StartTime       *string    `json:"start_time"       db:"start_time"`
	PlannedHours    *float64   `json:"planned_hours"    db:"planned_hours"`
	ActualHours     *float64   `json:"actual_hours"     db:"actual_hours"`
	PlannedKm       *float64   `json:"planned_km"       db:"planned_km"`
	ActualKm        *float64   `json:"actual_km"        db:"actual_km"`
	TSS             *float64   `json:"tss"              db:"tss"`
	IF              *float64   `json:"if"               db:"if_factor"`
	PowerAvg        *float64   `json:"power_avg"        db:"power_avg"`
	HRAvg           *float64   `json:"hr_avg"           db:"hr_avg"`
	RPE             *float64   `json:"rpe"              db:"rpe"`
	Feeling         *float64   `json:"feeling"          db:"feeling"`
	CoachComments   *string    `json:"coach_comments"   db:"coach_comments"`
	AthleteComments *string    `json:"athlete_comments" db:"athlete_comments"`
	Source          string     `json:"source"           db:"source"`
	CreatedAt       *time.Time `json:"created_at"       db:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"       db:"updated_at"`
}

// session converts a stored workout into the target engine's input.
func (w workout) session() nutrition.Session {
	s := nutrition.Session{PlannedHours: w.PlannedHours, ActualHours: w.ActualHours}
	if w.WorkoutType != "" {
		t := w.WorkoutType
		s.WorkoutType = &t
	}
	return s
}

// nutritionPlan maps to nutrition_plans. RowCount is computed by the list
// and get queries; Rows is filled separately for GET /plans/:id.
type nutritionPlan struct {
	ID             uuid.UUID  `json:"id"              db:"id"`
	UserID         int        `json:"-"               db:"user_id"`
	SourceFilename *string    `json:"source_filename" db:"source_filename"`
	WeightKg       float64    `json:"weight_kg"       db:"weight_kg"`
	Goal           string     `json:"goal"            db:"goal"`
	StartDate      DateOnly   `json:"start_date"      db:"start_date"`
	EndDate        DateOnly   `json:"end_date"        db:"end_date"`
	CreatedAt      *time.Time `json:"created_at"      db:"created_at"`
	RowCount       int        `json:"row_count"       db:"row_count"`
	Rows           []planRow  `json:"rows,omitempty"  db:"-"`
}

// planRow is one day of a stored plan.
type planRow struct {
	Date            DateOnly `json:"date"              db:"date"`
	DayType         string   `json:"day_type"          db:"day_type"`
	TrainingMinutes int      `json:"training_minutes"  db:"training_minutes"`
	Kcal            int      `json:"kcal"              db:"kcal"`
	ProteinG        int      `json:"protein_g"         db:"protein_g"`
	CarbsG          int      `json:"carbs_g"           db:"carbs_g"`
	FatG            int      `json:"fat_g"             db:"fat_g"`
	IntraCarbsGPerH int      `json:"intra_cho_g_per_h" db:"intra_cho_g_per_h"`
}

// recipe maps to recipes. Ingredients are loaded with a second query.
type recipe struct {
	ID          int                    `json:"id"          db:"id"`
	Title       string                 `json:"title"       db:"title"`
	Servings    float64                `json:"servings"    db:"servings"`
	Source      *string                `json:"source"      db:"source"`
	CreatedAt   *time.Time             `json:"created_at"  db:"created_at"`
	Ingredients []nutrition.Ingredient `json:"ingredients" db:"-"`
}

// recipeIngredient is the scan shape of recipe_ingredients.
type recipeIngredient struct {
	Position int      `db:"position"`
	Name     string   `db:"name"`
	Quantity *float64 `db:"quantity"`
	Unit     string   `db:"unit"`
	Notes    string   `db:"notes"`
	RawLine  string   `db:"raw_line"`
}

func (ri recipeIngredient) ingredient() nutrition.Ingredient {
	return nutrition.Ingredient{
		Position: ri.Position,
		Name:     ri.Name,
		Quantity: ri.Quantity,
		Unit:     ri.Unit,
		Notes:    ri.Notes,
		RawLine:  ri.RawLine,
	}
}

/* ─── Responses ──────────────────────────────────────────────────────── */

// targetsResponse is the response shape for the targets endpoints: the
// engine output plus the inputs it was evaluated with.
type targetsResponse struct {
	Date     string  `json:"date,omitempty"`
	WeightKg float64 `json:"weight_kg"`
	Goal     string  `json:"goal"`
	nutrition.Targets
	Rationale string `json:"rationale"`
}

// macroTotals holds kcal and grams for one side of the daily comparison.
type macroTotals struct {
	Kcal     int     `json:"kcal"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// dailySummary is the response shape for GET /food-log/daily: the day's
// items and totals compared against the computed targets.
type dailySummary struct {
	Date      string          `json:"date"`
	Targets   targetsResponse `json:"targets"`
	Consumed  macroTotals     `json:"consumed"`
	Remaining macroTotals     `json:"remaining"`
	Items     []foodLogItem   `json:"items"`
}

/* ─── Requests ───────────────────────────────────────────────────────── */

// patchProfileRequest is the request body for PATCH /api/profile.
// All fields are pointers; only non-nil fields get written to the database.
type patchProfileRequest struct {
	WeightKg    *float64 `json:"weight_kg"`
	Goal        *string  `json:"goal"`
	Sex         *string  `json:"sex"`
	HeightCM    *float64 `json:"height_cm"`
	DateOfBirth *string  `json:"date_of_birth"` // YYYY-MM-DD string, stored as date
	Units       *string  `json:"units"`
}

// createFoodLogItemRequest is the request body for POST /api/food-log/items.
type createFoodLogItemRequest struct {
	Date     string   `json:"date"`
	ItemName string   `json:"item_name"`
	Meal     string   `json:"meal"`
	Qty      *float64 `json:"qty"`
	Unit     *string  `json:"unit"`
	Calories int      `json:"calories"`
	ProteinG *float64 `json:"protein_g"`
	CarbsG   *float64 `json:"carbs_g"`
	FatG     *float64 `json:"fat_g"`
}

// previewTargetsRequest is the request body for POST /api/nutrition/targets/preview.
type previewTargetsRequest struct {
	WeightKg float64             `json:"weight_kg"`
	Goal     string              `json:"goal"`
	Sessions []nutrition.Session `json:"sessions"`
}

// createPlanRequest is the request body for POST /api/nutrition/plans.
// WeightKg and Goal default to the athlete's stored values.
type createPlanRequest struct {
	Start          string   `json:"start"`
	End            string   `json:"end"`
	WeightKg       *float64 `json:"weight_kg"`
	Goal           *string  `json:"goal"`
	SourceFilename *string  `json:"source_filename"`
}

// scaleRecipeRequest is the request body for POST /api/recipes/scale.
type scaleRecipeRequest struct {
	OriginalServings float64                `json:"original_servings"`
	NewServings      float64                `json:"new_servings"`
	Ingredients      []nutrition.Ingredient `json:"ingredients"`
}

// parseIngredientsRequest is the request body for POST /api/recipes/parse-ingredients.
type parseIngredientsRequest struct {
	Lines []string `json:"lines"`
}
