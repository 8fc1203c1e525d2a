package handlers

import (
	"net/http"
	"os"

	"flowerbelle-pos/internal/ai"
	"flowerbelle-pos/internal/database"
	"flowerbelle-pos/internal/services"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

// --- POST: /api/ask (OWNER only) ---
// The assistant can read inventory and sales, and update prices, so it
// carries the same authority as the owner asking.
func AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured"})
		return
	}

	response, err := ai.RunAgent(req.Message, apiKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Assistant request failed"})
		return
	}

	services.CreateAuditLog(database.DB, currentUserID(c), "CREATE", "assistant", 0,
		"Assistant query", c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"reply": response})
}
