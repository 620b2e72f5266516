package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type Code string

// Part A codes.
const (
	CodeNoTrips                 Code = "NO_TRIPS"
	CodeVehicleWithoutDriver    Code = "VEHICLE_WITHOUT_DRIVER"
	CodeVehicleWithoutPlate     Code = "VEHICLE_WITHOUT_PLATE"
	CodeDriverNotParticipant    Code = "DRIVER_NOT_PARTICIPANT"
	CodeSegmentMissingDate      Code = "SEGMENT_MISSING_DATE"
	CodeSegmentMissingPlaces    Code = "SEGMENT_MISSING_PLACES"
	CodeSegmentMissingTimes     Code = "SEGMENT_MISSING_TIMES"
	CodeSegmentInvalidMode      Code = "SEGMENT_INVALID_MODE"
	CodeInvalidKilometers       Code = "INVALID_KILOMETERS"
	CodeTransportCostMissing    Code = "TRANSPORT_COST_MISSING"
	CodeTransportCostZero       Code = "TRANSPORT_COST_ZERO"
	CodeTransportReceiptMissing Code = "TRANSPORT_RECEIPT_MISSING"
	CodeMissingDate             Code = "MISSING_DATE"
	CodeMissingDescription      Code = "MISSING_DESCRIPTION"
	CodeInvalidAmount           Code = "INVALID_AMOUNT"
	CodeReceiptMissing          Code = "RECEIPT_MISSING"
	CodeTooFewTrips             Code = "TOO_FEW_TRIPS"
)

// Part B codes.
const (
	CodeMarkerConditionMissing   Code = "MARKER_CONDITION_MISSING"
	CodeMarkerYearMissing        Code = "MARKER_YEAR_MISSING"
	CodeMarkerOrientationMissing Code = "MARKER_ORIENTATION_MISSING"
	CodeWorkDescriptionMissing   Code = "WORK_DESCRIPTION_MISSING"
	CodeWorkDescriptionShort     Code = "WORK_DESCRIPTION_SHORT"
	CodeWorkAttachmentMissing    Code = "WORK_ATTACHMENT_MISSING"
)

// Issue is a single classified finding. Field is a JSON-path-like pointer into
// the report, EntityID the id of the offending group, segment or item.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Field    string   `json:"field"`
	EntityID string   `json:"entity_id,omitempty"`
	Message  string   `json:"message"`
}

type Result struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// CanComplete reports whether the result carries no errors. Warnings never block.
func (r Result) CanComplete() bool {
	return len(r.Errors) == 0
}

func (r Result) Issues() []Issue {
	issues := make([]Issue, 0, len(r.Errors)+len(r.Warnings))
	issues = append(issues, r.Errors...)
	return append(issues, r.Warnings...)
}

type collector struct {
	result Result
}

func newCollector() *collector {
	return &collector{result: Result{Errors: []Issue{}, Warnings: []Issue{}}}
}

func (c *collector) add(severity Severity, field, entityID string, code Code, format string, args ...interface{}) {
	issue := Issue{
		Severity: severity,
		Code:     code,
		Field:    field,
		EntityID: entityID,
		Message:  fmt.Sprintf(format, args...),
	}
	if severity == SeverityError {
		c.result.Errors = append(c.result.Errors, issue)
		return
	}
	c.result.Warnings = append(c.result.Warnings, issue)
}

func (c *collector) errorf(field, entityID string, code Code, format string, args ...interface{}) {
	c.add(SeverityError, field, entityID, code, format, args...)
}

func (c *collector) warnf(field, entityID string, code Code, format string, args ...interface{}) {
	c.add(SeverityWarning, field, entityID, code, format, args...)
}

// Field starts a chain of checks on one value, mirroring how request DTOs are
// validated elsewhere in the service.
func (c *collector) Field(path, entityID string) *FieldCheck {
	return &FieldCheck{c: c, path: path, entityID: entityID}
}

type FieldCheck struct {
	c        *collector
	path     string
	entityID string
	failed   bool
}

// Failed reports whether any check in the chain recorded an issue.
func (f *FieldCheck) Failed() bool {
	return f.failed
}

func (f *FieldCheck) Required(value string, code Code, message string) *FieldCheck {
	if f.failed || strings.TrimSpace(value) != "" {
		return f
	}
	f.c.errorf(f.path, f.entityID, code, "%s", message)
	f.failed = true
	return f
}

func (f *FieldCheck) Positive(value decimal.Decimal, code Code, message string) *FieldCheck {
	if f.failed || value.IsPositive() {
		return f
	}
	f.c.errorf(f.path, f.entityID, code, "%s", message)
	f.failed = true
	return f
}

// Recommended records a warning instead of an error when the value is empty.
func (f *FieldCheck) Recommended(present bool, code Code, message string) *FieldCheck {
	if present {
		return f
	}
	f.c.warnf(f.path, f.entityID, code, "%s", message)
	return f
}
