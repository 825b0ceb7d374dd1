package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boardpulse/boardpulse/internal/config"
	"github.com/boardpulse/boardpulse/internal/consumer"
	"github.com/boardpulse/boardpulse/internal/db"
	"github.com/boardpulse/boardpulse/internal/event"
	"github.com/boardpulse/boardpulse/internal/logger"
	"github.com/boardpulse/boardpulse/internal/metrics"
	"github.com/boardpulse/boardpulse/internal/repository"
	"github.com/boardpulse/boardpulse/internal/service/activity"
	"github.com/boardpulse/boardpulse/internal/worker"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Run the activity ledger consumer",
	RunE:  runActivity,
}

func runActivity(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
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

	// The ClickHouse mirror is optional: a standalone ledger worker still
	// appends when analytics is down at startup.
	var analytics repository.AnalyticsRepository
	chDB, err := db.NewClickHouseConnection(cfg.ClickHouse.DSN, db.Opts{
		MaxOpenConns:    cfg.ClickHouse.MaxOpenConns,
		MaxIdleConns:    cfg.ClickHouse.MaxIdleConns,
		ConnMaxLifetime: cfg.ClickHouse.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ClickHouse.ConnMaxIdleTime,
		PingTimeout:     cfg.ClickHouse.PingTimeout,
	})
	if err != nil {
		log.Warn("clickhouse unavailable, mirror disabled", zap.Error(err))
	} else {
		defer func() { _ = chDB.Close() }()
		analytics = repository.NewAnalyticsRepository(chDB)
	}

	reg := event.NewRegistry()
	ledger := activity.New(repository.NewActivitiesRepository(mysqlDB), cfg.Pagination.MaxPageSize)
	w := worker.NewActivityWorker(ledger, analytics, reg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := consumer.New(consumer.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topic,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		HandlerRetries: cfg.Consumer.HandlerRetries,
		RetryBackoff:   cfg.Consumer.RetryBackoff,
	}, reg, log)

	// The ledger records every event type the registry knows.
	if err := engine.SubscribeAll(ctx, "activity", reg.Types(), w.Handle); err != nil {
		return fmt.Errorf("subscribe activity: %w", err)
	}

	log.Info("activity worker running", zap.Int("subscriptions", len(reg.Types())))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("signal received, shutting down", zap.String("signal", sig.String()))

	cancel()
	engine.Wait()
	return nil
}
