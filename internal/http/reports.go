package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/boardpulse/boardpulse/internal/repository"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// activityReportHandler serves per-workspace daily activity counts from the
// ClickHouse mirror.
func activityReportHandler(analytics repository.AnalyticsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		workspaceID := strings.TrimSpace(c.QueryParam("workspace_id"))
		if workspaceID == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing workspace_id"})
		}

		days := 30
		if v := c.QueryParam("days"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 90 {
				days = n
			}
		}

		rows, err := analytics.WorkspaceDailyCounts(c.Request().Context(), workspaceID, days)
		if err != nil {
			log.Errorf("clickhouse report failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"workspace_id": workspaceID,
			"days":         days,
			"results":      rows,
		})
	}
}
