package handlers

import (
	"net/http"

	"flowerbelle-pos/internal/database"
	"flowerbelle-pos/internal/utils"

	"github.com/gin-gonic/gin"
)

const appVersion = "1.2.0"

// GetSystemStatus feeds the settings screen: terminal identity, version, and
// whether the database is reachable.
func GetSystemStatus(c *gin.Context) {
	dbStatus := "online"
	if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "offline"
	}

	c.JSON(http.StatusOK, gin.H{
		"terminal_id": utils.GetTerminalID(),
		"version":     appVersion,
		"database":    dbStatus,
	})
}
