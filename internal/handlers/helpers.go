package handlers

import (
	"log"
	"net/http"
	"time"

	"flowerbelle-pos/internal/cache"
	"flowerbelle-pos/internal/services"

	"github.com/gin-gonic/gin"
)

func currentUserID(c *gin.Context) uint {
	return c.MustGet("userID").(uint)
}

// respondBusinessError maps service-layer rejections to structured 4xx
// responses. Returns false when the error is not a business rejection and
// the caller should surface a 500 instead.
func respondBusinessError(c *gin.Context, err error) bool {
	code := services.ErrorCode(err)
	if code == "" {
		return false
	}

	status := http.StatusBadRequest
	if code == "NOT_FOUND" {
		status = http.StatusNotFound
	}

	c.JSON(status, gin.H{"error": err.Error(), "code": code})
	return true
}

// parseDateRange reads start_date/end_date (YYYY-MM-DD) from the query,
// defaulting to the last defaultDays days. The returned end is exclusive:
// the day after end_date at midnight.
func parseDateRange(c *gin.Context, defaultDays int) (time.Time, time.Time, error) {
	now := time.Now()
	start := now.AddDate(0, 0, -defaultDays)
	end := now

	if s := c.Query("start_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = parsed
	}
	if e := c.Query("end_date"); e != "" {
		parsed, err := time.Parse("2006-01-02", e)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = parsed.AddDate(0, 0, 1) // include the whole end day
	}

	return start, end, nil
}

// startOfDay truncates to local midnight
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// invalidateDashboard drops the cached overview snapshot after a sale or
// void, so the dashboard never shows pre-mutation totals for the rest of
// the TTL. No-op when Redis is not configured.
func invalidateDashboard() {
	if cache.Default == nil {
		return
	}
	if err := cache.Default.Invalidate(dashboardCacheKey); err != nil {
		log.Printf("⚠️ Failed to invalidate dashboard snapshot: %v", err)
	}
}
