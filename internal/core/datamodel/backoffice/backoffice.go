package backoffice

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/frahmantamala/trail-report/internal/compensation"
	"github.com/frahmantamala/trail-report/internal/report"
)

// SavePayload is the full report body accepted by the back-office save endpoint.
type SavePayload struct {
	ReportID     string                          `json:"report_id"`
	OrderID      string                          `json:"order_id"`
	OrderType    report.OrderType                `json:"order_type"`
	State        report.State                    `json:"state"`
	TeamMembers  []report.TeamMember             `json:"team_members"`
	Logistics    report.Logistics                `json:"logistics"`
	WorkOutput   report.WorkOutput               `json:"work_output"`
	Compensation map[string]*compensation.Result `json:"compensation,omitempty"`
}

func NewSavePayload(r *report.Report, target report.State, results map[string]*compensation.Result) *SavePayload {
	return &SavePayload{
		ReportID:     r.ID,
		OrderID:      r.OrderID,
		OrderType:    r.OrderType,
		State:        target,
		TeamMembers:  r.TeamMembers,
		Logistics:    r.Logistics,
		WorkOutput:   r.WorkOutput,
		Compensation: results,
	}
}

func (p *SavePayload) Validate() error {
	if p.ReportID == "" {
		return errors.New("report_id is required")
	}
	if p.State != report.StateDraft && p.State != report.StateSend {
		return errors.New("state must be draft or send")
	}
	return nil
}

type SaveAck struct {
	ReportID string       `json:"report_id"`
	State    report.State `json:"state"`
	SentAt   *time.Time   `json:"sent_at,omitempty"`
	Message  string       `json:"message,omitempty"`
}

// Status is the external view of a report. State may carry values this service
// does not recognize; callers check State.IsValid.
type Status struct {
	ReportID     string       `json:"report_id"`
	State        report.State `json:"state"`
	SentAt       *time.Time   `json:"sent_at,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	ErrorCode    string       `json:"error_code,omitempty"`
}

// ErrorBody is the structured error the back office answers non-2xx requests with.
type ErrorBody struct {
	Message string          `json:"message"`
	Code    string          `json:"code,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}
