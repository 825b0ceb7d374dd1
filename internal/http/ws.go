package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/boardpulse/boardpulse/internal/http/middleware"
	"github.com/boardpulse/boardpulse/internal/service/notify"
	"github.com/boardpulse/boardpulse/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsHandler upgrades the connection and runs the client until disconnect.
// Identity comes from the authenticated claims at handshake time; the client
// is auto-joined to its own user group only.
func wsHandler(reg *ws.Registry, svc *notify.Service, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := middleware.UserIDFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		sock, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}

		client := ws.NewClient(sock, userID, reg, svc, log)
		client.Run(c.Request().Context())
		return nil
	}
}
