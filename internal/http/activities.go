package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/boardpulse/boardpulse/internal/model"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type listFunc func(ctx context.Context, id string, page, pageSize int) ([]model.Activity, error)

// listActivitiesHandler serves one scope of the activity query surface; the
// scope is fixed by the listFunc bound at route setup.
func listActivitiesHandler(list listFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if id == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing id"})
		}

		page, pageSize := pageParams(c)

		items, err := list(c.Request().Context(), id, page, pageSize)
		if err != nil {
			log.Errorf("list activities failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"page":      page,
			"page_size": pageSize,
			"count":     len(items),
			"results":   items,
		})
	}
}

// pageParams parses page/page_size with the documented defaults. The service
// layer clamps page_size; this only rejects garbage.
func pageParams(c echo.Context) (page, pageSize int) {
	page, pageSize = 1, 50
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := c.QueryParam("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	return page, pageSize
}
