package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Josep-Roura/Cooked-sub004/internal/nutrition"
)

// Handler holds shared dependencies (db pool, config) for all route handlers.
type Handler struct {
	db            *pgxpool.Pool
	rules         nutrition.Rules
	openAIBaseURL string // Base URL for OpenAI API (overridable for tests)
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors for debugging (e.g. struct/column mismatches).
func queryOne[T any](pool *pgxpool.Pool, c *gin.Context, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := pool.Query(c, sql, args)
	if err != nil {
		log.Printf("[queryOne] Query error: %v", err)
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("[queryOne] Scan error: %v", err)
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
func queryMany[T any](pool *pgxpool.Pool, c *gin.Context, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := pool.Query(c, sql, args)
	if err != nil {
		log.Printf("[queryMany] Query error: %v", err)
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Printf("[queryMany] Scan error: %v", err)
	}
	return results, err
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// apiErrorDetails is apiError with a machine-readable payload, e.g. the
// per-line errors of a rejected import.
func apiErrorDetails(c *gin.Context, status int, message string, details any) {
	c.JSON(status, gin.H{"error": message, "details": details})
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// getDBPool creates a connection pool shared by all handlers. DB_URL may point
// at the hosted Postgres directly or at its connection pooler.
func getDBPool() *pgxpool.Pool {
	config, err := pgxpool.ParseConfig(os.Getenv("DB_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to parse DB URL: %v\n", err)
		os.Exit(1)
	}
	// Simple protocol: transaction-mode poolers (Supabase's included) don't keep
	// prepared statements across transactions.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	log.Println("DB pool ready")
	return pool
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.GET("/health", h.health)
	router.POST("/api/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/profile", h.getProfile)
	api.PATCH("/profile", h.patchProfile)
	api.GET("/weight-log", h.getWeightLog)
	api.POST("/weight-log", h.upsertWeightEntry)
	api.PUT("/weight-log/:id", h.updateWeightEntry)
	api.DELETE("/weight-log/:id", h.deleteWeightEntry)
	api.GET("/food-log/daily", h.getDailySummary)
	api.POST("/food-log/items", h.createFoodLogItem)
	api.PUT("/food-log/items/:id", h.updateFoodLogItem)
	api.DELETE("/food-log/items/:id", h.deleteFoodLogItem)
	api.GET("/nutrition/targets", h.getTargets)
	api.POST("/nutrition/targets/preview", h.previewTargets)
	api.POST("/nutrition/plans", h.createPlan)
	api.GET("/nutrition/plans", h.listPlans)
	api.GET("/nutrition/plans/:id", h.getPlan)
	api.GET("/recipes/:id", h.getRecipe)
	api.POST("/recipes/scale", h.scaleRecipe)
	api.POST("/recipes/parse-ingredients", h.parseIngredients)
	api.GET("/workouts", h.listWorkouts)
	api.DELETE("/workouts/:id", h.deleteWorkout)
	api.POST("/workouts/import/preview", h.previewWorkoutImport)
	api.POST("/workouts/import", h.importWorkouts)
	api.POST("/meal-plans/generate", h.generateMealPlan)
	api.POST("/meal-plans/edit", h.editMealPlan)
}
