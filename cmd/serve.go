package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boardpulse/boardpulse/internal/config"
	"github.com/boardpulse/boardpulse/internal/consumer"
	"github.com/boardpulse/boardpulse/internal/db"
	"github.com/boardpulse/boardpulse/internal/event"
	httpSrv "github.com/boardpulse/boardpulse/internal/http"
	"github.com/boardpulse/boardpulse/internal/logger"
	"github.com/boardpulse/boardpulse/internal/metrics"
	"github.com/boardpulse/boardpulse/internal/repository"
	"github.com/boardpulse/boardpulse/internal/service/activity"
	"github.com/boardpulse/boardpulse/internal/service/notify"
	"github.com/boardpulse/boardpulse/internal/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the query/push API and the notifier consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)
		log := logger.Log

		metrics.MustRegister(prometheus.DefaultRegisterer)

		mysqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.Opts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer mysqlDB.Close()

		chDB, err := db.NewClickHouseConnection(cfg.ClickHouse.DSN, db.Opts{
			MaxOpenConns:    cfg.ClickHouse.MaxOpenConns,
			MaxIdleConns:    cfg.ClickHouse.MaxIdleConns,
			ConnMaxLifetime: cfg.ClickHouse.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ClickHouse.ConnMaxIdleTime,
			PingTimeout:     cfg.ClickHouse.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("clickhouse connect: %w", err)
		}
		defer func() { _ = chDB.Close() }()

		redisClient, err := db.NewRedisClient(db.RedisOpts{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		// repos + services
		activitiesRepo := repository.NewActivitiesRepository(mysqlDB)
		notificationsRepo := repository.NewNotificationsRepository(mysqlDB)

		groups := ws.NewRegistry()
		activitySvc := activity.New(activitiesRepo, cfg.Pagination.MaxPageSize)
		notifySvc := notify.New(notificationsRepo, groups, redisClient, cfg.Notify.UnreadCacheTTL, log)

		// The notifier consumer runs in this process: pushes target the
		// in-process connection registry.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reg := event.NewRegistry()
		engine := consumer.New(consumer.Config{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Kafka.Topic,
			MinBytes:       cfg.Kafka.MinBytes,
			MaxBytes:       cfg.Kafka.MaxBytes,
			HandlerRetries: cfg.Consumer.HandlerRetries,
			RetryBackoff:   cfg.Consumer.RetryBackoff,
		}, reg, log)

		if err := engine.SubscribeAll(ctx, "notifier", notify.EventTypes(), notifySvc.HandleEvent); err != nil {
			return fmt.Errorf("subscribe notifier: %w", err)
		}

		server := httpSrv.NewServer(cfg, chDB, redisClient, groups, activitySvc, notifySvc, log)

		errCh := make(chan error, 1)
		go func() {
			log.Info("starting http", zap.String("addr", cfg.HTTP.Addr))
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil {
				log.Error("http server exited", zap.Error(err))
			}
		}

		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
		engine.Wait()

		return nil
	},
}
