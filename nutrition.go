package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Josep-Roura/Cooked-sub004/internal/nutrition"
)

// maxPlanDays caps the span of a single nutrition plan.
const maxPlanDays = 366

/* ─── Engine inputs ──────────────────────────────────────────────────── */

// sessionsInRange loads the user's stored workouts in [start, end] grouped
// by day as engine sessions.
func (h *Handler) sessionsInRange(c *gin.Context, userID int, start, end time.Time) (map[string][]nutrition.Session, error) {
	workouts, err := queryMany[workout](h.db, c,
		`SELECT * FROM tp_workouts
		 WHERE user_id = @userID AND workout_day >= @start AND workout_day <= @end
		 ORDER BY workout_day, id`,
		pgx.NamedArgs{
			"userID": userID,
			"start":  start.Format(time.DateOnly),
			"end":    end.Format(time.DateOnly),
		})
	if err != nil {
		return nil, err
	}
	byDay := make(map[string][]nutrition.Session)
	for _, w := range workouts {
		day := w.WorkoutDay.Format(time.DateOnly)
		byDay[day] = append(byDay[day], w.session())
	}
	return byDay, nil
}

// targetsForDay evaluates the engine over the user's stored workouts, weight
// and goal for one day.
func (h *Handler) targetsForDay(c *gin.Context, userID int, day time.Time) (targetsResponse, error) {
	weightKg, goal, err := h.athleteInputs(c, userID, day)
	if err != nil {
		return targetsResponse{}, err
	}
	sessions, err := h.sessionsInRange(c, userID, day, day)
	if err != nil {
		return targetsResponse{}, err
	}
	date := day.Format(time.DateOnly)
	return newTargetsResponse(date, weightKg, goal, h.rules.ComputeTargets(weightKg, goal, sessions[date])), nil
}

func newTargetsResponse(date string, weightKg float64, goal string, t nutrition.Targets) targetsResponse {
	return targetsResponse{
		Date:      date,
		WeightKg:  weightKg,
		Goal:      string(nutrition.ParseGoal(goal)),
		Targets:   t,
		Rationale: nutrition.BuildRationale(t),
	}
}

/* ─── Targets ────────────────────────────────────────────────────────── */

// getTargets returns the computed targets for one day.
// GET /api/nutrition/targets?date=YYYY-MM-DD (defaults to today).
func (h *Handler) getTargets(c *gin.Context) {
	userID := c.GetInt("user_id")
	date := c.DefaultQuery("date", time.Now().Format(time.DateOnly))

	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	resp, err := h.targetsForDay(c, userID, day)
	if err != nil {
		log.Printf("[getTargets] user %d on %s: %v", userID, date, err)
		apiError(c, http.StatusInternalServerError, "failed to compute targets")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// previewTargets runs the engine over the request body without touching the
// database. POST /api/nutrition/targets/preview. Invalid weights are coerced
// by the engine rather than rejected.
func (h *Handler) previewTargets(c *gin.Context) {
	var body previewTargetsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	t := h.rules.ComputeTargets(body.WeightKg, body.Goal, body.Sessions)
	c.JSON(http.StatusOK, newTargetsResponse("", body.WeightKg, body.Goal, t))
}

/* ─── Plans ──────────────────────────────────────────────────────────── */

// createPlan computes per-day targets over [start, end] from stored workouts
// and persists them as a plan. POST /api/nutrition/plans.
func (h *Handler) createPlan(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body createPlanRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	start, err := time.Parse(time.DateOnly, body.Start)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse(time.DateOnly, body.End)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return
	}
	if start.After(end) {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}
	if end.Sub(start).Hours()/24 >= maxPlanDays {
		apiError(c, http.StatusBadRequest, "plan must not span more than 366 days")
		return
	}
	if body.WeightKg != nil && !validWeightKg(*body.WeightKg) {
		apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 250")
		return
	}

	weightKg, goal, err := h.athleteInputs(c, userID, start)
	if err != nil {
		log.Printf("[createPlan] athlete inputs for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to load athlete profile")
		return
	}
	if body.WeightKg != nil {
		weightKg = *body.WeightKg
	}
	if body.Goal != nil {
		goal = *body.Goal
	}
	goal = string(nutrition.ParseGoal(goal))

	sessions, err := h.sessionsInRange(c, userID, start, end)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch workouts")
		return
	}
	days := h.rules.BuildPlan(weightKg, goal, start, end, sessions)

	plan := nutritionPlan{
		ID:             uuid.New(),
		UserID:         userID,
		SourceFilename: body.SourceFilename,
		WeightKg:       weightKg,
		Goal:           goal,
		StartDate:      DateOnly{start},
		EndDate:        DateOnly{end},
		RowCount:       len(days),
		Rows:           make([]planRow, len(days)),
	}
	for i, d := range days {
		plan.Rows[i] = planRow{
			Date:            DateOnly{d.Date},
			DayType:         string(d.Targets.DayType),
			TrainingMinutes: d.Targets.TrainingMinutes,
			Kcal:            d.Targets.Kcal,
			ProteinG:        d.Targets.ProteinG,
			CarbsG:          d.Targets.CarbsG,
			FatG:            d.Targets.FatG,
			IntraCarbsGPerH: d.Targets.IntraCarbsGPerH,
		}
	}

	createdAt, err := h.savePlan(c, plan)
	if err != nil {
		log.Printf("[createPlan] save plan for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to save plan")
		return
	}
	plan.CreatedAt = &createdAt

	c.JSON(http.StatusCreated, plan)
}

// savePlan writes the plan and its rows in one transaction.
func (h *Handler) savePlan(c *gin.Context, plan nutritionPlan) (time.Time, error) {
	tx, err := h.db.Begin(c)
	if err != nil {
		return time.Time{}, err
	}
	defer tx.Rollback(c)

	var createdAt time.Time
	err = tx.QueryRow(c,
		`INSERT INTO nutrition_plans (id, user_id, source_filename, weight_kg, goal, start_date, end_date)
		 VALUES (@id, @userID, @sourceFilename, @weightKg, @goal, @startDate, @endDate)
		 RETURNING created_at`,
		pgx.NamedArgs{
			"id": plan.ID.String(), "userID": plan.UserID, "sourceFilename": plan.SourceFilename,
			"weightKg": plan.WeightKg, "goal": plan.Goal,
			"startDate": plan.StartDate.Format(time.DateOnly),
			"endDate":   plan.EndDate.Format(time.DateOnly),
		}).Scan(&createdAt)
	if err != nil {
		return time.Time{}, err
	}

	batch := &pgx.Batch{}
	for _, r := range plan.Rows {
		batch.Queue(
			`INSERT INTO nutrition_plan_rows
			 (plan_id, date, day_type, training_minutes, kcal, protein_g, carbs_g, fat_g, intra_cho_g_per_h)
			 VALUES (@planID, @date, @dayType, @minutes, @kcal, @proteinG, @carbsG, @fatG, @intra)`,
			pgx.NamedArgs{
				"planID": plan.ID.String(), "date": r.Date.Format(time.DateOnly),
				"dayType": r.DayType, "minutes": r.TrainingMinutes, "kcal": r.Kcal,
				"proteinG": r.ProteinG, "carbsG": r.CarbsG, "fatG": r.FatG,
				"intra": r.IntraCarbsGPerH,
			})
	}
	if err := tx.SendBatch(c, batch).Close(); err != nil {
		return time.Time{}, err
	}
	return createdAt, tx.Commit(c)
}

// parsePaging reads limit (1..100, default 20) and offset (>= 0, default 0).
func parsePaging(c *gin.Context) (limit, offset int, ok bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		apiError(c, http.StatusBadRequest, "limit must be between 1 and 100")
		return 0, 0, false
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		apiError(c, http.StatusBadRequest, "offset must not be negative")
		return 0, 0, false
	}
	return limit, offset, true
}

const planColumnsSQL = `SELECT p.*,
	(SELECT count(*) FROM nutrition_plan_rows r WHERE r.plan_id = p.id)::int AS row_count
 FROM nutrition_plans p`

// listPlans returns the user's plans, newest first.
// GET /api/nutrition/plans?limit=20&offset=0.
func (h *Handler) listPlans(c *gin.Context) {
	userID := c.GetInt("user_id")
	limit, offset, ok := parsePaging(c)
	if !ok {
		return
	}

	plans, err := queryMany[nutritionPlan](h.db, c,
		planColumnsSQL+`
		 WHERE p.user_id = @userID
		 ORDER BY p.created_at DESC
		 LIMIT @limit OFFSET @offset`,
		pgx.NamedArgs{"userID": userID, "limit": limit, "offset": offset})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to list plans")
		return
	}
	if plans == nil {
		plans = []nutritionPlan{}
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans, "limit": limit, "offset": offset})
}

// getPlan returns one plan with its rows in date order.
// GET /api/nutrition/plans/:id.
func (h *Handler) getPlan(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid plan id")
		return
	}

	plan, err := queryOne[nutritionPlan](h.db, c,
		planColumnsSQL+` WHERE p.id = @id AND p.user_id = @userID`,
		pgx.NamedArgs{"id": id.String(), "userID": userID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "plan not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch plan")
		}
		return
	}

	rows, err := queryMany[planRow](h.db, c,
		`SELECT date, day_type, training_minutes, kcal, protein_g, carbs_g, fat_g, intra_cho_g_per_h
		 FROM nutrition_plan_rows WHERE plan_id = @id ORDER BY date`,
		pgx.NamedArgs{"id": id.String()})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch plan rows")
		return
	}
	plan.Rows = rows
	if plan.Rows == nil {
		plan.Rows = []planRow{}
	}

	c.JSON(http.StatusOK, plan)
}
