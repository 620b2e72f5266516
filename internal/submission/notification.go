package submission

import (
	"context"
	"time"

	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/google/uuid"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Topic groups notifications by the lifecycle activity that raised them.
type Topic string

const (
	TopicSave   Topic = "save"
	TopicSubmit Topic = "submit"
	TopicState  Topic = "state"
	TopicPoll   Topic = "poll"
)

const (
	CodeSaved              = "SAVED"
	CodeNothingToSave      = "NOTHING_TO_SAVE"
	CodeSubmitted          = "SUBMITTED"
	CodeStateChanged       = "STATE_CHANGED"
	CodeStatusUnrecognized = "STATUS_UNRECOGNIZED"
	CodeStatusUnverified   = "STATUS_UNVERIFIED"
	CodeStatusPending      = "STATUS_PENDING"
)

// Notification is a structured signal for whatever renders feedback to the
// user. Silent notifications are recorded but not shown as toasts.
type Notification struct {
	ID        string       `json:"id"`
	ReportID  string       `json:"report_id"`
	Topic     Topic        `json:"topic"`
	Kind      Kind         `json:"kind"`
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Details   interface{}  `json:"details,omitempty"`
	State     report.State `json:"state"`
	Silent    bool         `json:"silent,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Notifier receives lifecycle notifications. Notify is called while the
// lifecycle holds its lock, so implementations must not call back into it.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Notifiers fans a notification out to several receivers in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, n Notification) {
	for _, notifier := range ns {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

func newNotification(reportID string, topic Topic, kind Kind, code, message string, state report.State) Notification {
	return Notification{
		ID:        uuid.NewString(),
		ReportID:  reportID,
		Topic:     topic,
		Kind:      kind,
		Code:      code,
		Message:   message,
		State:     state,
		CreatedAt: time.Now(),
	}
}
