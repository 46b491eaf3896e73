package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Josep-Roura/Cooked-sub004/internal/nutrition"
)

type mockResponse struct {
	status int
	body   any
}

// mockOpenAI serves the queued responses in order, repeating the last one,
// and records every request body it receives.
type mockOpenAI struct {
	mu        sync.Mutex
	responses []mockResponse
	requests  []openAIRequest
}

func (m *mockOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var req openAIRequest
	body, _ := io.ReadAll(r.Body)
	json.Unmarshal(body, &req)
	m.requests = append(m.requests, req)

	resp := m.responses[min(len(m.requests), len(m.responses))-1]
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	json.NewEncoder(w).Encode(resp.body)
}

func (m *mockOpenAI) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// setupMealPlanTest creates a Gin engine with a mock OpenAI server. No DB is
// needed: targets fall back to the engine defaults.
func setupMealPlanTest(t *testing.T, responses ...mockResponse) (*gin.Engine, *mockOpenAI) {
	t.Helper()
	mock := &mockOpenAI{responses: responses}
	server := httptest.NewServer(mock)
	t.Cleanup(server.Close)

	prevDelay := openAIRetryDelay
	openAIRetryDelay = 0
	t.Cleanup(func() { openAIRetryDelay = prevDelay })
	t.Setenv("OPENAI_API_KEY", "test-key")

	gin.SetMode(gin.TestMode)
	h := Handler{rules: nutrition.DefaultRules(), openAIBaseURL: server.URL}
	router := gin.New()
	setUser := func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Next()
	}
	router.POST("/api/meal-plans/generate", setUser, h.generateMealPlan)
	router.POST("/api/meal-plans/edit", setUser, h.editMealPlan)
	return router, mock
}

func doJSONRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// openAIChatResponse wraps a content string in the OpenAI chat completions
// response shape (choices[0].message.content).
func openAIChatResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

const samplePlan = `{"days":[{"date":"2026-03-02","meals":[{"meal":"breakfast","name":"Oats","kcal":600,"protein_g":25,"carbs_g":95,"fat_g":12,"ingredients":["100 g rolled oats"]}]}],"shopping_list":["100 g rolled oats"]}`

func okResponse(content string) mockResponse {
	return mockResponse{http.StatusOK, openAIChatResponse(content)}
}

/* ─── Generate ───────────────────────────────────────────────────────── */

func TestGenerateMealPlan_Success(t *testing.T) {
	router, mock := setupMealPlanTest(t, okResponse(samplePlan))

	w := doJSONRequest(router, "POST", "/api/meal-plans/generate",
		`{"start":"2026-03-02","days":2,"preferences":"vegetarian"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Targets []dayTargets `json:"targets"`
		Plan    mealPlan     `json:"plan"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Targets) != 2 || resp.Targets[0].Date != "2026-03-02" || resp.Targets[1].Date != "2026-03-03" {
		t.Fatalf("targets = %+v, want 2026-03-02 and 2026-03-03", resp.Targets)
	}
	if resp.Targets[0].Kcal != 2100 || resp.Targets[0].DayType != nutrition.DayRest {
		t.Errorf("default targets = %+v, want 2100 kcal rest day", resp.Targets[0].Targets)
	}
	if len(resp.Plan.Days) != 1 || resp.Plan.Days[0].Meals[0].Name != "Oats" {
		t.Errorf("plan = %+v", resp.Plan)
	}

	if mock.calls() != 1 {
		t.Fatalf("expected 1 OpenAI call, got %d", mock.calls())
	}
	sent := mock.requests[0]
	if sent.Model != defaultOpenAIModel {
		t.Errorf("model = %q, want %q", sent.Model, defaultOpenAIModel)
	}
	user := sent.Messages[1].Content
	if !strings.Contains(user, `"target_kcal":2100`) || !strings.Contains(user, "vegetarian") {
		t.Errorf("user message missing targets or preferences: %s", user)
	}
	if !strings.Contains(sent.Messages[0].Content, "Plan 3 meals per day") {
		t.Errorf("system prompt should default to 3 meals: %s", sent.Messages[0].Content)
	}
}

func TestGenerateMealPlan_ModelFromEnv(t *testing.T) {
	router, mock := setupMealPlanTest(t, okResponse(samplePlan))
	t.Setenv("OPENAI_MODEL", "gpt-test")

	w := doJSONRequest(router, "POST", "/api/meal-plans/generate", `{"days":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if mock.requests[0].Model != "gpt-test" {
		t.Errorf("model = %q, want gpt-test", mock.requests[0].Model)
	}
}

func TestGenerateMealPlan_InvalidInput(t *testing.T) {
	router, mock := setupMealPlanTest(t, okResponse(samplePlan))

	cases := []struct {
		name string
		body string
	}{
		{"too many days", `{"days":15}`},
		{"negative days", `{"days":-1}`},
		{"too many meals", `{"meals_per_day":7}`},
		{"bad start", `{"start":"03/02/2026"}`},
		{"not json", `nope`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSONRequest(router, "POST", "/api/meal-plans/generate", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
	if mock.calls() != 0 {
		t.Errorf("invalid requests should not reach OpenAI, got %d calls", mock.calls())
	}
}

/* ─── Retries ────────────────────────────────────────────────────────── */

func TestGenerateMealPlan_RetriesServerErrors(t *testing.T) {
	router, mock := setupMealPlanTest(t,
		mockResponse{http.StatusInternalServerError, map[string]string{"error": "server error"}})

	w := doJSONRequest(router, "POST", "/api/meal-plans/generate", `{"days":1}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
	if mock.calls() != 1+openAIMaxRetries {
		t.Errorf("expected %d attempts, got %d", 1+openAIMaxRetries, mock.calls())
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "openai request failed" {
		t.Errorf("expected error 'openai request failed', got '%s'", resp["error"])
	}
}

func TestGenerateMealPlan_RecoversAfterRateLimit(t *testing.T) {
	router, mock := setupMealPlanTest(t,
		mockResponse{http.StatusTooManyRequests, map[string]string{"error": "slow down"}},
		okResponse(samplePlan))

	w := doJSONRequest(router, "POST", "/api/meal-plans/generate", `{"days":1}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if mock.calls() != 2 {
		t.Errorf("expected 2 attempts, got %d", mock.calls())
	}
}

func TestGenerateMealPlan_NoRetryOnClientError(t *testing.T) {
	router, mock := setupMealPlanTest(t,
		mockResponse{http.StatusBadRequest, map[string]string{"error": "bad request"}})

	w := doJSONRequest(router, "POST", "/api/meal-plans/generate", `{"days":1}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
	if mock.calls() != 1 {
		t.Errorf("expected 1 attempt, got %d", mock.calls())
	}
}

func TestGenerateMealPlan_MissingAPIKey(t *testing.T) {
	router, mock := setupMealPlanTest(t, okResponse(samplePlan))
	t.Setenv("OPENAI_API_KEY", "")

	w := doJSONRequest(router, "POST", "/api/meal-plans/generate", `{"days":1}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	if mock.calls() != 0 {
		t.Errorf("expected no OpenAI calls, got %d", mock.calls())
	}
}

func TestGenerateMealPlan_MalformedPlan(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"not json", `not valid json at all`},
		{"no days", `{"days":[],"shopping_list":[]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := setupMealPlanTest(t, okResponse(tc.content))
			w := doJSONRequest(router, "POST", "/api/meal-plans/generate", `{"days":1}`)
			if w.Code != http.StatusBadGateway {
				t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

/* ─── Edit ───────────────────────────────────────────────────────────── */

func TestEditMealPlan_Success(t *testing.T) {
	router, mock := setupMealPlanTest(t, okResponse(samplePlan))

	body := `{"plan":` + samplePlan + `,"instruction":"swap oats for eggs"}`
	w := doJSONRequest(router, "POST", "/api/meal-plans/edit", body)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	user := mock.requests[0].Messages[1].Content
	if !strings.Contains(user, "swap oats for eggs") || !strings.Contains(user, `"name":"Oats"`) {
		t.Errorf("user message missing plan or instruction: %s", user)
	}
}

func TestEditMealPlan_MissingAPIKey(t *testing.T) {
	router, mock := setupMealPlanTest(t, okResponse(samplePlan))
	t.Setenv("OPENAI_API_KEY", "")

	body := `{"plan":` + samplePlan + `,"instruction":"swap oats for eggs"}`
	w := doJSONRequest(router, "POST", "/api/meal-plans/edit", body)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	if mock.calls() != 0 {
		t.Errorf("expected no OpenAI calls, got %d", mock.calls())
	}
}

func TestEditMealPlan_InvalidInput(t *testing.T) {
	router, mock := setupMealPlanTest(t, okResponse(samplePlan))

	cases := []struct {
		name string
		body string
	}{
		{"missing instruction", `{"plan":` + samplePlan + `}`},
		{"blank instruction", `{"plan":` + samplePlan + `,"instruction":"  "}`},
		{"empty plan", `{"plan":{"days":[]},"instruction":"more protein"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSONRequest(router, "POST", "/api/meal-plans/edit", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
	if mock.calls() != 0 {
		t.Errorf("expected no OpenAI calls, got %d", mock.calls())
	}
}
