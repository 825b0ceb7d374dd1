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
	"github.com/boardpulse/boardpulse/internal/service/notify"
	"github.com/boardpulse/boardpulse/internal/ws"
)

// notifierCmd runs the notifier consumer without the API process. Pushes
// land on this process's empty connection registry, so live delivery is a
// no-op here; notifications are still persisted for clients to poll. Use
// `serve` for a deployment that pushes to connected clients.
var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Run the notification consumer (persist-only)",
	RunE:  runNotifier,
}

func runNotifier(cmd *cobra.Command, args []string) error {
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

	reg := event.NewRegistry()
	groups := ws.NewRegistry()
	svc := notify.New(repository.NewNotificationsRepository(mysqlDB), groups, redisClient, cfg.Notify.UnreadCacheTTL, log)

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

	if err := engine.SubscribeAll(ctx, "notifier", notify.EventTypes(), svc.HandleEvent); err != nil {
		return fmt.Errorf("subscribe notifier: %w", err)
	}

	log.Info("notifier worker running", zap.Int("subscriptions", len(notify.EventTypes())))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("signal received, shutting down", zap.String("signal", sig.String()))

	cancel()
	engine.Wait()
	return nil
}
