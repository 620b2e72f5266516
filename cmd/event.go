package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/trail-report/internal/core/events"
	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/frahmantamala/trail-report/internal/submission"
	"github.com/frahmantamala/trail-report/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish sample report events and inspect how they are routed on the event bus`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [save|submit|state|poll]",
	Short: "Publish a sample report notification",
	Long:  `Publish a sample report notification to the event bus for testing and debugging`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(cmd.Context(), submission.Topic(args[0]))
	},
}

var (
	eventData     string
	eventKind     string
	eventReportID string
)

func publishTestEvent(ctx context.Context, topic submission.Topic) error {
	switch topic {
	case submission.TopicSave, submission.TopicSubmit, submission.TopicState, submission.TopicPoll:
	default:
		return fmt.Errorf("unknown topic %q", topic)
	}

	log := logger.LoggerWrapper()
	bus := events.NewEventBus(log)
	bus.Subscribe(events.Wildcard, func(ctx context.Context, event events.Event) error {
		log.Info("handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	reportID := eventReportID
	if reportID == "" {
		reportID = report.NewID()
	}
	notification := submission.Notification{
		ID:        uuid.NewString(),
		ReportID:  reportID,
		Topic:     topic,
		Kind:      submission.Kind(eventKind),
		Code:      "CLI_TEST",
		Message:   eventData,
		State:     report.StateDraft,
		CreatedAt: time.Now(),
	}

	log.Info("publishing notification", "topic", topic, "kind", eventKind, "report_id", reportID)
	events.NewNotifier(bus).Notify(ctx, notification)
	bus.Close()
	log.Info("notification published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Notification message")
	publishEventCmd.Flags().StringVar(&eventKind, "kind", string(submission.KindInfo), "Notification kind: success, info, warning or error")
	publishEventCmd.Flags().StringVar(&eventReportID, "report", "", "Report id (random when empty)")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
