package main

import (
	"errors"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// validMeals is the set of allowed values for food_log_items.meal.
var validMeals = map[string]bool{
	"breakfast":     true,
	"lunch":         true,
	"dinner":        true,
	"snack":         true,
	"intra_workout": true,
}

// getDailySummary returns the day's food log items with totals compared
// against the computed targets for that day.
// GET /api/food-log/daily?date=YYYY-MM-DD (defaults to today).
func (h *Handler) getDailySummary(c *gin.Context) {
	userID := c.GetInt("user_id")
	date := c.DefaultQuery("date", time.Now().Format(time.DateOnly))

	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	items, err := queryMany[foodLogItem](h.db, c,
		`SELECT * FROM food_log_items
		 WHERE user_id = @userID AND date = @date
		 ORDER BY created_at`,
		pgx.NamedArgs{"userID": userID, "date": date})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch items")
		return
	}
	if items == nil {
		items = []foodLogItem{}
	}

	targets, err := h.targetsForDay(c, userID, day)
	if err != nil {
		log.Printf("[getDailySummary] targets for user %d on %s: %v", userID, date, err)
		apiError(c, http.StatusInternalServerError, "failed to compute targets")
		return
	}

	consumed := sumFoodLog(items)
	c.JSON(http.StatusOK, dailySummary{
		Date:      date,
		Targets:   targets,
		Consumed:  consumed,
		Remaining: remainingMacros(targets, consumed),
		Items:     items,
	})
}

// sumFoodLog totals the logged items. Missing macros count as zero.
func sumFoodLog(items []foodLogItem) macroTotals {
	var t macroTotals
	for _, item := range items {
		t.Kcal += item.Calories
		if item.ProteinG != nil {
			t.ProteinG += *item.ProteinG
		}
		if item.CarbsG != nil {
			t.CarbsG += *item.CarbsG
		}
		if item.FatG != nil {
			t.FatG += *item.FatG
		}
	}
	return t
}

// remainingMacros is target minus consumed; negative values mean the target
// was exceeded. Grams are rounded to one decimal.
func remainingMacros(t targetsResponse, consumed macroTotals) macroTotals {
	round1 := func(v float64) float64 { return math.Round(v*10) / 10 }
	return macroTotals{
		Kcal:     t.Kcal - consumed.Kcal,
		ProteinG: round1(float64(t.ProteinG) - consumed.ProteinG),
		CarbsG:   round1(float64(t.CarbsG) - consumed.CarbsG),
		FatG:     round1(float64(t.FatG) - consumed.FatG),
	}
}

// createFoodLogItem inserts a new food log entry.
// POST /api/food-log/items. Defaults date to today if omitted.
func (h *Handler) createFoodLogItem(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body createFoodLogItemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ItemName == "" {
		apiError(c, http.StatusBadRequest, "item_name is required")
		return
	}
	if !validMeals[body.Meal] {
		apiError(c, http.StatusBadRequest, "meal must be one of: breakfast, lunch, dinner, snack, intra_workout")
		return
	}
	if body.Calories < 0 {
		apiError(c, http.StatusBadRequest, "calories must not be negative")
		return
	}
	if body.Date == "" {
		body.Date = time.Now().Format(time.DateOnly)
	} else if _, err := time.Parse(time.DateOnly, body.Date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	item, err := queryOne[foodLogItem](h.db, c,
		`INSERT INTO food_log_items (user_id, date, item_name, meal, qty, unit, calories, protein_g, carbs_g, fat_g)
		 VALUES (@userID, @date, @itemName, @meal, @qty, @unit, @calories, @proteinG, @carbsG, @fatG)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "date": body.Date, "itemName": body.ItemName,
			"meal": body.Meal, "qty": body.Qty, "unit": body.Unit,
			"calories": body.Calories, "proteinG": body.ProteinG,
			"carbsG": body.CarbsG, "fatG": body.FatG,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create item")
		return
	}

	c.JSON(http.StatusCreated, item)
}

// updateFoodLogItem updates an existing food log entry.
// PUT /api/food-log/items/:id. Omitted fields keep their current value.
func (h *Handler) updateFoodLogItem(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	var body struct {
		Date     *string  `json:"date"`
		ItemName *string  `json:"item_name"`
		Meal     *string  `json:"meal"`
		Qty      *float64 `json:"qty"`
		Unit     *string  `json:"unit"`
		Calories *int     `json:"calories"`
		ProteinG *float64 `json:"protein_g"`
		CarbsG   *float64 `json:"carbs_g"`
		FatG     *float64 `json:"fat_g"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Meal != nil && !validMeals[*body.Meal] {
		apiError(c, http.StatusBadRequest, "meal must be one of: breakfast, lunch, dinner, snack, intra_workout")
		return
	}
	if body.Date != nil {
		if _, err := time.Parse(time.DateOnly, *body.Date); err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
	}

	item, err := queryOne[foodLogItem](h.db, c,
		`UPDATE food_log_items SET
			date = COALESCE(@date, date),
			item_name = COALESCE(@itemName, item_name),
			meal = COALESCE(@meal, meal),
			qty = COALESCE(@qty, qty),
			unit = COALESCE(@unit, unit),
			calories = COALESCE(@calories, calories),
			protein_g = COALESCE(@proteinG, protein_g),
			carbs_g = COALESCE(@carbsG, carbs_g),
			fat_g = COALESCE(@fatG, fat_g),
			updated_at = now()
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{
			"id": id, "userID": userID,
			"date": body.Date, "itemName": body.ItemName, "meal": body.Meal,
			"qty": body.Qty, "unit": body.Unit, "calories": body.Calories,
			"proteinG": body.ProteinG, "carbsG": body.CarbsG, "fatG": body.FatG,
		})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "item not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to update item")
		}
		return
	}

	c.JSON(http.StatusOK, item)
}

// deleteFoodLogItem removes a food log entry. Returns 204 on success.
// DELETE /api/food-log/items/:id.
func (h *Handler) deleteFoodLogItem(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	result, err := h.db.Exec(c,
		"DELETE FROM food_log_items WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "item not found")
		return
	}

	c.Status(http.StatusNoContent)
}
