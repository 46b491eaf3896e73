package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/Josep-Roura/Cooked-sub004/internal/nutrition"
)

// maxWeightKg bounds stored body weights; anything above is a typo.
const maxWeightKg = 250

var validUnits = map[string]bool{"metric": true, "imperial": true}

// getProfile returns the athlete profile for the authenticated user.
// GET /api/profile.
func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := queryOne[athleteProfile](h.db, c,
		"SELECT * FROM athlete_profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "profile not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		}
		return
	}

	c.JSON(http.StatusOK, p)
}

// patchProfile updates only the provided profile fields.
// PATCH /api/profile. Goals are stored in canonical form (lose, performance,
// maintain) so every reader classifies them the same way.
func (h *Handler) patchProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	setClauses := []string{}
	args := pgx.NamedArgs{"userID": userID}

	if body.WeightKg != nil {
		if *body.WeightKg <= 0 || *body.WeightKg > maxWeightKg {
			apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 250")
			return
		}
		setClauses = append(setClauses, "weight_kg = @weightKg")
		args["weightKg"] = *body.WeightKg
	}
	if body.Goal != nil {
		setClauses = append(setClauses, "goal = @goal")
		args["goal"] = string(nutrition.ParseGoal(*body.Goal))
	}
	if body.Sex != nil {
		setClauses = append(setClauses, "sex = @sex")
		args["sex"] = strings.ToLower(strings.TrimSpace(*body.Sex))
	}
	if body.HeightCM != nil {
		if *body.HeightCM <= 0 || *body.HeightCM > 300 {
			apiError(c, http.StatusBadRequest, "height_cm must be between 0 and 300")
			return
		}
		setClauses = append(setClauses, "height_cm = @heightCM")
		args["heightCM"] = *body.HeightCM
	}
	if body.DateOfBirth != nil {
		if _, err := time.Parse(time.DateOnly, *body.DateOfBirth); err != nil {
			apiError(c, http.StatusBadRequest, "invalid date_of_birth, expected YYYY-MM-DD")
			return
		}
		setClauses = append(setClauses, "date_of_birth = @dateOfBirth")
		args["dateOfBirth"] = *body.DateOfBirth
	}
	if body.Units != nil {
		if !validUnits[*body.Units] {
			apiError(c, http.StatusBadRequest, "units must be one of: metric, imperial")
			return
		}
		setClauses = append(setClauses, "units = @units")
		args["units"] = *body.Units
	}

	if len(setClauses) == 0 {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	query := "UPDATE athlete_profiles SET " +
		strings.Join(setClauses, ", ") +
		", updated_at = now() WHERE user_id = @userID RETURNING *"

	p, err := queryOne[athleteProfile](h.db, c, query, args)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "profile not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to update profile")
		}
		return
	}

	c.JSON(http.StatusOK, p)
}

// athleteInputs returns the weight and goal the target engine should use for
// date: the latest weight log entry on or before date, else the profile
// weight. A missing weight comes back as 0, which the engine replaces with
// its default.
func (h *Handler) athleteInputs(c *gin.Context, userID int, date time.Time) (weightKg float64, goal string, err error) {
	goal = string(nutrition.GoalMaintain)
	p, err := queryOne[athleteProfile](h.db, c,
		"SELECT * FROM athlete_profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	switch {
	case err == nil:
		goal = p.Goal
		if p.WeightKg != nil {
			weightKg = *p.WeightKg
		}
	case !errors.Is(err, pgx.ErrNoRows):
		return 0, "", err
	}

	latest, err := h.latestWeight(c, userID, date)
	if err != nil {
		return 0, "", err
	}
	if latest != nil {
		weightKg = *latest
	}
	return weightKg, goal, nil
}
