package http

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	echo "github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/boardpulse/boardpulse/internal/config"
	"github.com/boardpulse/boardpulse/internal/http/middleware"
	"github.com/boardpulse/boardpulse/internal/repository"
	"github.com/boardpulse/boardpulse/internal/service/activity"
	"github.com/boardpulse/boardpulse/internal/service/notify"
	"github.com/boardpulse/boardpulse/internal/ws"
)

type Server struct{ e *echo.Echo }

// NewServer wires the query/push API: activity listings, notification
// queries, the ClickHouse report, and the websocket endpoint.
func NewServer(
	cfg config.Config,
	clickhouseDB *sqlx.DB,
	rds *redis.Client,
	groups *ws.Registry,
	activitySvc *activity.Service,
	notifySvc *notify.Service,
	log *zap.Logger,
) *Server {
	analyticsRepo := repository.NewAnalyticsRepository(clickhouseDB)

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.JWTMiddleware(cfg.Auth.Secret)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:     rds,
		RPS:       cfg.RateLimit.RPS,
		KeyPrefix: "rl:user:",
		Window:    time.Second,
	})

	// routes
	v1 := e.Group("/v1", authMW, rlMW)

	v1.GET("/activities/workspace/:id", listActivitiesHandler(activitySvc.ListByWorkspace))
	v1.GET("/activities/board/:id", listActivitiesHandler(activitySvc.ListByBoard))
	v1.GET("/activities/list/:id", listActivitiesHandler(activitySvc.ListByList))
	v1.GET("/activities/card/:id", listActivitiesHandler(activitySvc.ListByCard))
	v1.GET("/activities/user/:id", listActivitiesHandler(activitySvc.ListByUser))

	v1.GET("/notifications", listNotificationsHandler(notifySvc))
	v1.GET("/notifications/unread-count", unreadCountHandler(notifySvc))
	v1.POST("/notifications/:id/read", markReadHandler(notifySvc))

	v1.GET("/reports/activity", activityReportHandler(analyticsRepo))

	v1.GET("/ws", wsHandler(groups, notifySvc, log))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
