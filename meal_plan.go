package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Josep-Roura/Cooked-sub004/internal/nutrition"
)

/* ─── Request / Response types ───────────────────────────────────────── */

// generateMealPlanRequest is the request body for POST /api/meal-plans/generate.
// Start defaults to the current Monday; Days defaults to 7.
type generateMealPlanRequest struct {
	Start       string `json:"start"`
	Days        int    `json:"days"`
	MealsPerDay int    `json:"meals_per_day"`
	Preferences string `json:"preferences"`
}

// editMealPlanRequest is the request body for POST /api/meal-plans/edit.
type editMealPlanRequest struct {
	Plan        mealPlan `json:"plan"`
	Instruction string   `json:"instruction"`
}

type plannedMeal struct {
	Meal        string   `json:"meal"`
	Name        string   `json:"name"`
	Kcal        int      `json:"kcal"`
	ProteinG    int      `json:"protein_g"`
	CarbsG      int      `json:"carbs_g"`
	FatG        int      `json:"fat_g"`
	Ingredients []string `json:"ingredients"`
}

type mealPlanDay struct {
	Date  string        `json:"date"`
	Meals []plannedMeal `json:"meals"`
}

// mealPlan is the structured plan returned by the AI.
type mealPlan struct {
	Days         []mealPlanDay `json:"days"`
	ShoppingList []string      `json:"shopping_list"`
}

// dayTargets is one day of targets as sent to the AI and returned to the client.
type dayTargets struct {
	Date string `json:"date"`
	nutrition.Targets
}

/* ─── OpenAI prompt constants ────────────────────────────────────────── */

const mealPlanSystemPrompt = `You are a sports nutritionist planning meals for an endurance athlete.
You receive one entry per day with the day's targets: "target_kcal", "target_protein_g",
"target_carbs_g", "target_fat_g", "training_day_type" and "intra_cho_g_per_h".
Plan %d meals per day. Each day's meals must add up to within 5%% of that day's
calorie and macro targets. Put the most carbohydrate around training on moderate and
hard days. When "intra_cho_g_per_h" is above 0, add an "intra_workout" meal covering it.

Return a JSON object with:
- "days": array of {"date": "YYYY-MM-DD", "meals": [{"meal", "name", "kcal", "protein_g", "carbs_g", "fat_g", "ingredients"}]}
  where "meal" is one of breakfast, lunch, dinner, snack, intra_workout, and "ingredients" is
  an array of strings like "120 g rolled oats"
- "shopping_list": array of strings, combined quantities for the whole plan

Return only valid JSON, no explanation.`

const editMealPlanSystemPrompt = `You are a sports nutritionist editing an existing meal plan.
You receive the current plan as JSON and an instruction from the athlete. Apply the instruction,
keep every other meal unchanged, keep each day's totals as close as before to its targets,
and update the shopping list to match.

Return the full plan in the same JSON shape: {"days": [...], "shopping_list": [...]}.
Return only valid JSON, no explanation.`

/* ─── OpenAI HTTP client ─────────────────────────────────────────────── */

const (
	defaultOpenAIModel = "gpt-4o-mini"
	openAITimeout      = 60 * time.Second
	openAIMaxRetries   = 2
)

// openAIRetryDelay is the pause before the first retry; it doubles per attempt.
var openAIRetryDelay = time.Second

// openAIMessage is a single message in the OpenAI chat completions request.
type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIRequest is the request body for the OpenAI chat completions API.
type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat map[string]any  `json:"response_format"`
}

var (
	// errRetryable marks failures worth another attempt: transport errors, 429 and 5xx.
	errRetryable = errors.New("retryable")
	// errOpenAIKeyMissing is a server configuration problem, not a provider failure.
	errOpenAIKeyMissing = errors.New("OPENAI_API_KEY not set")
)

// callOpenAI sends a chat completions request and returns the content of the
// first choice, retrying transient failures up to openAIMaxRetries times.
func callOpenAI(ctx context.Context, messages []openAIMessage, baseURL string) (string, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", errOpenAIKeyMissing
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultOpenAIModel
	}

	bodyBytes, err := json.Marshal(openAIRequest{
		Model:          model,
		Messages:       messages,
		Temperature:    0.4,
		ResponseFormat: map[string]any{"type": "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: openAITimeout}
	delay := openAIRetryDelay
	for attempt := 0; ; attempt++ {
		content, err := doOpenAIRequest(ctx, client, baseURL, apiKey, bodyBytes)
		if err == nil || !errors.Is(err, errRetryable) || attempt == openAIMaxRetries {
			return content, err
		}
		log.Printf("[callOpenAI] attempt %d failed, retrying: %v", attempt+1, err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func doOpenAIRequest(ctx context.Context, client *http.Client, baseURL, apiKey string, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: http request: %v", errRetryable, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", errRetryable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", fmt.Errorf("%w: openai returned status %d: %s", errRetryable, resp.StatusCode, string(respBytes))
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return result.Choices[0].Message.Content, nil
}

// decodeMealPlan parses the AI's content into a plan with at least one day.
func decodeMealPlan(content string) (mealPlan, error) {
	var plan mealPlan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		return mealPlan{}, fmt.Errorf("parse meal plan: %w", err)
	}
	if len(plan.Days) == 0 {
		return mealPlan{}, fmt.Errorf("meal plan has no days")
	}
	if plan.ShoppingList == nil {
		plan.ShoppingList = []string{}
	}
	return plan, nil
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// planTargets computes targets for each day in [start, start+days). Without
// a database it falls back to the engine defaults (70 kg, maintain, rest days).
func (h *Handler) planTargets(c *gin.Context, userID int, start time.Time, days int) ([]dayTargets, error) {
	end := start.AddDate(0, 0, days-1)

	var weightKg float64
	goal := string(nutrition.GoalMaintain)
	sessions := map[string][]nutrition.Session{}
	if h.db != nil {
		var err error
		if weightKg, goal, err = h.athleteInputs(c, userID, start); err != nil {
			return nil, err
		}
		if sessions, err = h.sessionsInRange(c, userID, start, end); err != nil {
			return nil, err
		}
	}

	plan := h.rules.BuildPlan(weightKg, goal, start, end, sessions)
	out := make([]dayTargets, len(plan))
	for i, d := range plan {
		out[i] = dayTargets{Date: d.Date.Format(time.DateOnly), Targets: d.Targets}
	}
	return out, nil
}

// generateMealPlan asks the AI for a meal plan that meets each day's
// computed targets. POST /api/meal-plans/generate.
func (h *Handler) generateMealPlan(c *gin.Context) {
	userID := c.GetInt("user_id")

	var req generateMealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Days == 0 {
		req.Days = 7
	}
	if req.Days < 1 || req.Days > 14 {
		apiError(c, http.StatusBadRequest, "days must be between 1 and 14")
		return
	}
	if req.MealsPerDay == 0 {
		req.MealsPerDay = 3
	}
	if req.MealsPerDay < 1 || req.MealsPerDay > 6 {
		apiError(c, http.StatusBadRequest, "meals_per_day must be between 1 and 6")
		return
	}
	start := currentMonday()
	if req.Start != "" {
		t, err := time.Parse(time.DateOnly, req.Start)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
			return
		}
		start = t
	}

	targets, err := h.planTargets(c, userID, start, req.Days)
	if err != nil {
		log.Printf("[generateMealPlan] targets for user %d: %v", userID, err)
		apiError(c, http.StatusInternalServerError, "failed to compute targets")
		return
	}

	targetsJSON, err := json.Marshal(targets)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to compute targets")
		return
	}
	userMsg := "Daily targets:\n" + string(targetsJSON)
	if p := strings.TrimSpace(req.Preferences); p != "" {
		userMsg += "\n\nPreferences: " + p
	}
	messages := []openAIMessage{
		{Role: "system", Content: fmt.Sprintf(mealPlanSystemPrompt, req.MealsPerDay)},
		{Role: "user", Content: userMsg},
	}

	content, err := callOpenAI(c.Request.Context(), messages, h.openAIBaseURL)
	if err != nil {
		log.Printf("[generateMealPlan] OpenAI error: %v", err)
		openAIError(c, err)
		return
	}
	plan, err := decodeMealPlan(content)
	if err != nil {
		log.Printf("[generateMealPlan] %v", err)
		apiError(c, http.StatusBadGateway, "openai returned an invalid plan")
		return
	}

	c.JSON(http.StatusOK, gin.H{"targets": targets, "plan": plan})
}

// openAIError maps a callOpenAI failure to 500 for missing configuration and
// 502 for everything the provider did wrong.
func openAIError(c *gin.Context, err error) {
	if errors.Is(err, errOpenAIKeyMissing) {
		apiError(c, http.StatusInternalServerError, "openai is not configured")
		return
	}
	apiError(c, http.StatusBadGateway, "openai request failed")
}

// editMealPlan applies a free-text instruction to an existing plan.
// POST /api/meal-plans/edit.
func (h *Handler) editMealPlan(c *gin.Context) {
	var req editMealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Instruction) == "" {
		apiError(c, http.StatusBadRequest, "instruction is required")
		return
	}
	if len(req.Plan.Days) == 0 {
		apiError(c, http.StatusBadRequest, "plan must have at least one day")
		return
	}

	planJSON, err := json.Marshal(req.Plan)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid plan")
		return
	}
	messages := []openAIMessage{
		{Role: "system", Content: editMealPlanSystemPrompt},
		{Role: "user", Content: "Current plan:\n" + string(planJSON) + "\n\nInstruction: " + req.Instruction},
	}

	content, err := callOpenAI(c.Request.Context(), messages, h.openAIBaseURL)
	if err != nil {
		log.Printf("[editMealPlan] OpenAI error: %v", err)
		openAIError(c, err)
		return
	}
	plan, err := decodeMealPlan(content)
	if err != nil {
		log.Printf("[editMealPlan] %v", err)
		apiError(c, http.StatusBadGateway, "openai returned an invalid plan")
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}
