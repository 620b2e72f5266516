package backoffice

import (
	"net/http"

	"github.com/frahmantamala/trail-report/internal"
)

var (
	ErrMalformedReport = internal.NewExternalError(
		"The report could not be read by the back office. Please check the entered data and try again.",
		internal.ErrCodeMalformedReport, http.StatusBadRequest)
	ErrAlreadySubmitted = alreadySubmitted()
	ErrUnprocessable    = internal.NewExternalError(
		"The back office could not process the report data. Please review the highlighted sections.",
		internal.ErrCodeUnprocessableReport, http.StatusUnprocessableEntity)
	ErrUnavailable = internal.NewExternalError(
		"The back office is temporarily unavailable. Please try again in a few minutes.",
		internal.ErrCodeBackOfficeUnavailable, http.StatusServiceUnavailable)
	ErrRejected = internal.NewExternalError(
		"The back office refused the report. Please contact the office if this keeps happening.",
		internal.ErrCodeBackOfficeRejected, http.StatusForbidden)
	ErrSubmissionTimeout = internal.NewNetworkError(
		"The back office did not answer in time. Please check your connection and submit again.",
		internal.ErrCodeSubmissionTimeout, nil)
	ErrConnectionFailed = internal.NewNetworkError(
		"Could not reach the back office. Please check your connection and try again.",
		internal.ErrCodeConnectionFailed, nil)
)

// A conflict means the back office already holds a sent copy; it is reported
// as information, not as a failure of the user's work.
func alreadySubmitted() *internal.AppError {
	err := internal.NewExternalError(
		"This report has already been submitted and is being processed.",
		internal.ErrCodeAlreadySubmitted, http.StatusConflict)
	err.Severity = internal.SeverityInfo
	return err
}

func errorForStatus(status int) *internal.AppError {
	switch {
	case status == http.StatusBadRequest:
		return ErrMalformedReport
	case status == http.StatusConflict:
		return ErrAlreadySubmitted
	case status == http.StatusUnprocessableEntity:
		return ErrUnprocessable
	case status >= http.StatusInternalServerError:
		return ErrUnavailable
	default:
		return ErrRejected
	}
}
