package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Josep-Roura/Cooked-sub004/internal/nutrition"
)

const defaultOpenAIBaseURL = "https://api.openai.com"

func main() {
	log.SetPrefix("cooked-api: ")

	// .env is optional for the server; deployed environments set variables directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading .env: %v", err)
	}

	rules := nutrition.DefaultRules()
	if path := os.Getenv("NUTRITION_RULES_PATH"); path != "" {
		loaded, err := nutrition.LoadRules(path)
		if err != nil {
			log.Fatalf("Error loading nutrition rules: %v", err)
		}
		rules = loaded
		log.Printf("Nutrition rules loaded from %s", path)
	}

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	pool := getDBPool()
	defer pool.Close()

	h := &Handler{db: pool, rules: rules, openAIBaseURL: baseURL}

	router := gin.Default()
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	log.Printf("Listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// health reports liveness. GET /health (public).
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
