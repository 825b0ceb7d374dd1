package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boardpulse/boardpulse/internal/config"
	"github.com/boardpulse/boardpulse/internal/event"
	"github.com/boardpulse/boardpulse/internal/kafka"
	"github.com/boardpulse/boardpulse/internal/model"
	"github.com/spf13/cobra"
)

var (
	publishType    string
	publishPayload string
)

// publishCmd is a dev utility: production events come from the entity
// services' own relays, but local testing needs a way to put one envelope on
// the topic.
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish one domain event to the shared topic (dev utility)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		reg := event.NewRegistry()

		// Validate before publishing so a typo'd payload fails here, not in a
		// consumer log.
		ev, err := reg.Decode(publishType, []byte(publishPayload))
		if err != nil {
			return fmt.Errorf("invalid event: %w", err)
		}

		pub := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = pub.Close() }()

		env := model.Envelope{Type: publishType, Payload: json.RawMessage(publishPayload)}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := pub.Publish(ctx, env, ev.Scope().WorkspaceID); err != nil {
			return fmt.Errorf("publish: %w", err)
		}

		fmt.Printf(">> Published %s to %s\n", publishType, cfg.Kafka.Topic)
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishType, "type", "", "event type name (e.g. BoardCreated)")
	publishCmd.Flags().StringVar(&publishPayload, "payload", "", "JSON event payload")
	_ = publishCmd.MarkFlagRequired("type")
	_ = publishCmd.MarkFlagRequired("payload")
}
