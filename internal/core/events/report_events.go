package events

import (
	"context"
	"time"

	"github.com/frahmantamala/trail-report/internal/submission"
	"github.com/google/uuid"
)

const (
	EventTypeReportSaved            = "report.saved"
	EventTypeReportSubmitted        = "report.submitted"
	EventTypeReportSubmissionFailed = "report.submission_failed"
	EventTypeReportStateChanged     = "report.state_changed"
	EventTypeReportPollingStopped   = "report.polling_stopped"
	EventTypeReportSaveFailed       = "report.save_failed"
	EventTypeReportSaveSkipped      = "report.save_skipped"
)

// ReportEvent carries one lifecycle notification as a bus event.
type ReportEvent struct {
	BaseEvent
	Notification submission.Notification `json:"notification"`
}

func NewReportEvent(n submission.Notification) *ReportEvent {
	return &ReportEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventTypeFor(n),
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"report_id":       n.ReportID,
				"notification_id": n.ID,
				"kind":            string(n.Kind),
				"code":            n.Code,
				"state":           string(n.State),
			},
		},
		Notification: n,
	}
}

func eventTypeFor(n submission.Notification) string {
	switch n.Topic {
	case submission.TopicSave:
		switch n.Code {
		case submission.CodeSaved:
			return EventTypeReportSaved
		case submission.CodeNothingToSave:
			return EventTypeReportSaveSkipped
		default:
			return EventTypeReportSaveFailed
		}
	case submission.TopicSubmit:
		if n.Kind == submission.KindSuccess {
			return EventTypeReportSubmitted
		}
		return EventTypeReportSubmissionFailed
	case submission.TopicState:
		return EventTypeReportStateChanged
	default:
		return EventTypeReportPollingStopped
	}
}

// Notifier publishes lifecycle notifications on the bus.
type Notifier struct {
	bus *EventBus
}

func NewNotifier(bus *EventBus) *Notifier {
	return &Notifier{bus: bus}
}

func (n *Notifier) Notify(ctx context.Context, notification submission.Notification) {
	event := NewReportEvent(notification)
	if err := n.bus.Publish(ctx, event); err != nil {
		n.bus.logger.Debug("report event dropped",
			"event_type", event.EventType(),
			"report_id", notification.ReportID,
			"code", notification.Code,
			"error", err)
	}
}
