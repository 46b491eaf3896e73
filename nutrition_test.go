package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Josep-Roura/Cooked-sub004/internal/nutrition"
)

// setupPureRoutes registers the handlers that never touch the database.
func setupPureRoutes() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := Handler{rules: nutrition.DefaultRules()}
	router := gin.New()
	router.GET("/health", h.health)
	router.POST("/api/nutrition/targets/preview", h.previewTargets)
	router.POST("/api/recipes/scale", h.scaleRecipe)
	router.POST("/api/recipes/parse-ingredients", h.parseIngredients)
	router.POST("/api/workouts/import/preview", h.previewWorkoutImport)
	router.POST("/api/workouts/import", h.importWorkouts)
	router.GET("/paging", func(c *gin.Context) {
		if limit, offset, ok := parsePaging(c); ok {
			c.JSON(http.StatusOK, gin.H{"limit": limit, "offset": offset})
		}
	})
	router.GET("/range", func(c *gin.Context) {
		if _, _, ok := parseDateRange(c); ok {
			c.Status(http.StatusNoContent)
		}
	})
	return router
}

func TestHealth(t *testing.T) {
	router := setupPureRoutes()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK || w.Body.String() != `{"ok":true}` {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
}

/* ─── Targets preview ────────────────────────────────────────────────── */

func TestPreviewTargets(t *testing.T) {
	router := setupPureRoutes()

	cases := []struct {
		name    string
		body    string
		kcal    int
		dayType nutrition.DayType
		goal    string
	}{
		{"documented maintain rest day", `{"weight_kg":70,"goal":"maintain"}`, 2100, nutrition.DayRest, "maintain"},
		{"missing weight uses default", `{"goal":"maintain","sessions":[]}`, 2100, nutrition.DayRest, "maintain"},
		{"hard day", `{"weight_kg":70,"goal":"maintain","sessions":[{"workout_type":"Bike","planned_hours":2.5}]}`, 2660, nutrition.DayHard, "maintain"},
		{"goal is canonicalized", `{"weight_kg":70,"goal":"Lose weight"}`, 1960, nutrition.DayRest, "lose"},
		{"strength defaults to an hour", `{"weight_kg":70,"sessions":[{"workout_type":"Strength"}]}`, 2450, nutrition.DayModerate, "maintain"},
		{"huge weight clamps to 250", `{"weight_kg":1e300}`, 7500, nutrition.DayRest, "maintain"},
		{"huge hours saturate as hard", `{"weight_kg":70,"sessions":[{"workout_type":"Run","planned_hours":1e300}]}`, 2660, nutrition.DayHard, "maintain"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSONRequest(router, "POST", "/api/nutrition/targets/preview", tc.body)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}
			var resp targetsResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if resp.Kcal != tc.kcal || resp.DayType != tc.dayType || resp.Goal != tc.goal {
				t.Errorf("got kcal=%d day=%s goal=%s, want %d/%s/%s", resp.Kcal, resp.DayType, resp.Goal, tc.kcal, tc.dayType, tc.goal)
			}
			if resp.Rationale == "" {
				t.Error("rationale should not be empty")
			}
		})
	}
}

func TestPreviewTargets_ResponseShape(t *testing.T) {
	router := setupPureRoutes()
	w := doJSONRequest(router, "POST", "/api/nutrition/targets/preview", `{"weight_kg":70}`)

	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	for _, key := range []string{"target_kcal", "target_protein_g", "target_carbs_g", "target_fat_g", "training_day_type", "training_minutes", "intra_cho_g_per_h", "rationale"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("response missing %q: %s", key, w.Body.String())
		}
	}
}

func TestPreviewTargets_InvalidBody(t *testing.T) {
	router := setupPureRoutes()
	w := doJSONRequest(router, "POST", "/api/nutrition/targets/preview", `{"weight_kg":"heavy"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

/* ─── Query helpers ──────────────────────────────────────────────────── */

func TestParsePaging(t *testing.T) {
	router := setupPureRoutes()
	cases := []struct {
		query string
		code  int
		body  string
	}{
		{"", http.StatusOK, `{"limit":20,"offset":0}`},
		{"?limit=100&offset=40", http.StatusOK, `{"limit":100,"offset":40}`},
		{"?limit=0", http.StatusBadRequest, ""},
		{"?limit=101", http.StatusBadRequest, ""},
		{"?limit=abc", http.StatusBadRequest, ""},
		{"?offset=-1", http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/paging"+tc.query, nil))
		if w.Code != tc.code {
			t.Errorf("%q: status %d, want %d", tc.query, w.Code, tc.code)
		}
		if tc.body != "" && w.Body.String() != tc.body {
			t.Errorf("%q: body %s, want %s", tc.query, w.Body.String(), tc.body)
		}
	}
}

func TestParseDateRange(t *testing.T) {
	router := setupPureRoutes()
	cases := []struct {
		query string
		code  int
	}{
		{"?start=2026-03-01&end=2026-03-31", http.StatusNoContent},
		{"?start=2026-03-01&end=2026-03-01", http.StatusNoContent},
		{"?start=2026-03-01", http.StatusBadRequest},
		{"?start=2026-3-1&end=2026-03-31", http.StatusBadRequest},
		{"?start=2026-03-31&end=2026-03-01", http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/range"+tc.query, nil))
		if w.Code != tc.code {
			t.Errorf("%q: status %d, want %d", tc.query, w.Code, tc.code)
		}
	}
}
