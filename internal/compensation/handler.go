package compensation

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/trail-report/internal"
	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/frahmantamala/trail-report/internal/transport"
	"github.com/frahmantamala/trail-report/pkg/logger"
)

type ServiceAPI interface {
	CalculateReport(ctx context.Context, r *report.Report) (map[string]*Result, error)
}

type CalculationResponse struct {
	ReportID string             `json:"report_id"`
	Results  map[string]*Result `json:"results"`
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var body report.Report
	if err := h.DecodeJSON(r, &body); err != nil {
		h.Logger.Warn("Calculate: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	results, err := h.Service.CalculateReport(r.Context(), &body)
	if err != nil {
		h.Logger.Error("Calculate: service error", "error", err, "report_id", body.ID)
		h.HandleServiceError(w, err)
		return
	}
	if results == nil {
		h.HandleServiceError(w, internal.ErrTariffNotFound)
		return
	}

	h.WriteJSON(w, http.StatusOK, CalculationResponse{ReportID: body.ID, Results: results})
}
