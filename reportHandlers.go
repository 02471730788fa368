package main

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/models/reports"
	"github.com/gin-gonic/gin"
)

// reportRange parses ?from=YYYY-MM-DD&to=YYYY-MM-DD in the store timezone,
// defaulting to the last 30 days. The upper bound is exclusive.
func reportRange(c *gin.Context) (time.Time, time.Time, bool) {
	loc := config.GetStoreLocation()
	now := time.Now().In(loc)

	from := now.AddDate(0, 0, -30)
	to := now.Add(24 * time.Hour)

	if v := c.Query("from"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
		to = parsed.Add(24 * time.Hour)
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func dailySalesReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := reportRange(c)
		if !ok {
			return
		}
		rows, err := reports.GetDailySalesReport(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func salesByEmployeeReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := reportRange(c)
		if !ok {
			return
		}
		rows, err := reports.GetSalesByEmployeeReport(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}
