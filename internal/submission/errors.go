package submission

import (
	"context"
	"errors"

	"github.com/frahmantamala/trail-report/internal"
	"github.com/frahmantamala/trail-report/internal/backoffice"
)

var (
	ErrSessionClosed = internal.NewConflictError("The report session has been closed", internal.ErrCodeInvalidState)
	ErrNotEditable   = internal.NewConflictError("The report can only be changed while it is a draft", internal.ErrCodeInvalidState)
	ErrNotRejected   = internal.NewConflictError("Only a rejected report can be reopened", internal.ErrCodeInvalidState)
)

// asAppError turns any failure of a save or submission into the structured
// error shown to the user.
func asAppError(err error) *internal.AppError {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return backoffice.ErrSubmissionTimeout.WithCause(err)
	}
	return internal.NewInternalError("The report could not be saved. Please try again.", err)
}

func kindFor(err *internal.AppError) Kind {
	switch err.Severity {
	case internal.SeverityInfo:
		return KindInfo
	case internal.SeverityWarning:
		return KindWarning
	default:
		return KindError
	}
}
