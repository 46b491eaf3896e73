package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/Josep-Roura/Cooked-sub004/internal/nutrition"
)

// maxIngredientLines bounds a single parse request.
const maxIngredientLines = 200

// getRecipe returns a recipe with its ingredients, scaled when servings is given.
// GET /api/recipes/:id?servings=N.
func (h *Handler) getRecipe(c *gin.Context) {
	id := c.Param("id")

	var newServings *float64
	if s := c.Query("servings"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			apiError(c, http.StatusBadRequest, "servings must be a number")
			return
		}
		newServings = &v
	}

	r, err := queryOne[recipe](h.db, c,
		"SELECT id, title, servings, source, created_at FROM recipes WHERE id = @id",
		pgx.NamedArgs{"id": id})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "recipe not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch recipe")
		}
		return
	}

	rows, err := queryMany[recipeIngredient](h.db, c,
		`SELECT position, name, quantity, unit, notes, raw_line
		 FROM recipe_ingredients WHERE recipe_id = @id ORDER BY position`,
		pgx.NamedArgs{"id": id})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch ingredients")
		return
	}
	r.Ingredients = make([]nutrition.Ingredient, len(rows))
	for i, row := range rows {
		r.Ingredients[i] = row.ingredient()
	}

	if newServings != nil {
		scaled, err := nutrition.ScaleIngredients(r.Ingredients, r.Servings, *newServings)
		if err != nil {
			scaleError(c, err)
			return
		}
		r.Ingredients = scaled
		r.Servings = *newServings
	}

	c.JSON(http.StatusOK, r)
}

// scaleRecipe scales the ingredients in the request body.
// POST /api/recipes/scale.
func (h *Handler) scaleRecipe(c *gin.Context) {
	var body scaleRecipeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	scaled, err := nutrition.ScaleIngredients(body.Ingredients, body.OriginalServings, body.NewServings)
	if err != nil {
		scaleError(c, err)
		return
	}
	if scaled == nil {
		scaled = []nutrition.Ingredient{}
	}

	c.JSON(http.StatusOK, gin.H{"servings": body.NewServings, "ingredients": scaled})
}

// scaleError maps scaler validation errors to 400.
func scaleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, nutrition.ErrInvalidServings), errors.Is(err, nutrition.ErrInvalidQuantity):
		apiError(c, http.StatusBadRequest, err.Error())
	default:
		apiError(c, http.StatusInternalServerError, "failed to scale recipe")
	}
}

// parseIngredients splits free-text ingredient lines into quantity, unit and name.
// POST /api/recipes/parse-ingredients.
func (h *Handler) parseIngredients(c *gin.Context) {
	var body parseIngredientsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Lines) == 0 {
		apiError(c, http.StatusBadRequest, "lines is required")
		return
	}
	if len(body.Lines) > maxIngredientLines {
		apiError(c, http.StatusBadRequest, "at most 200 lines per request")
		return
	}

	parsed := make([]nutrition.ParsedIngredient, len(body.Lines))
	for i, line := range body.Lines {
		parsed[i] = nutrition.ParseIngredientLine(line)
	}

	c.JSON(http.StatusOK, gin.H{"ingredients": parsed})
}
