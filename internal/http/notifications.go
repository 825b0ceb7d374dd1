package http

import (
	"net/http"

	"github.com/boardpulse/boardpulse/internal/http/middleware"
	"github.com/boardpulse/boardpulse/internal/service/notify"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

func listNotificationsHandler(svc *notify.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		page, pageSize := pageParams(c)

		items, err := svc.ListByUser(c.Request().Context(), userID, page, pageSize)
		if err != nil {
			log.Errorf("list notifications failed: %v", err)
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

func unreadCountHandler(svc *notify.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		n, err := svc.UnreadCount(c.Request().Context(), userID)
		if err != nil {
			log.Errorf("unread count failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{"unread": n})
	}
}

func markReadHandler(svc *notify.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		id := c.Param("id")
		if id == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing id"})
		}

		if err := svc.MarkRead(c.Request().Context(), userID, id); err != nil {
			log.Errorf("mark read failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "update failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{"read": true, "id": id})
	}
}
