package validation

import (
	"net/http"

	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/frahmantamala/trail-report/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
}

func NewHandler() *Handler {
	return &Handler{BaseHandler: transport.NewBaseHandler(nil)}
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var body report.Report
	if err := h.DecodeJSON(r, &body); err != nil {
		h.Logger.Warn("Validate: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	verdict := Validate(&body)
	h.Logger.Debug("Validate: report checked",
		"report_id", body.ID,
		"errors", verdict.ErrorCount(),
		"warnings", verdict.WarningCount())
	h.WriteJSON(w, http.StatusOK, verdict)
}
