package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/frahmantamala/trail-report/internal/transport"
	"github.com/frahmantamala/trail-report/pkg/logger"
)

type ServiceAPI interface {
	Open(ctx context.Context, r *report.Report) (*Projection, error)
	Get(ctx context.Context, reportID string) (*Projection, error)
	Update(ctx context.Context, reportID string, r *report.Report) (*Projection, error)
	Save(ctx context.Context, reportID string) (*Projection, error)
	Submit(ctx context.Context, reportID string) (*Projection, error)
	Reopen(ctx context.Context, reportID string) (*Projection, error)
	Close(ctx context.Context, reportID string) error
	Export(ctx context.Context, reportID string, w io.Writer) error
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

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "id")
	lg := logger.ForReport(r.Context(), reportID)

	var body report.Report
	if err := h.DecodeJSON(r, &body); err != nil {
		lg.Warn("OpenSession: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	body.ID = reportID

	projection, err := h.Service.Open(r.Context(), &body)
	if err != nil {
		lg.Warn("OpenSession: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	lg.Info("OpenSession: session opened", "state", projection.State)
	h.WriteJSON(w, http.StatusCreated, projection)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "id")

	projection, err := h.Service.Get(r.Context(), reportID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, projection)
}

func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "id")
	lg := logger.ForReport(r.Context(), reportID)

	var body report.Report
	if err := h.DecodeJSON(r, &body); err != nil {
		lg.Warn("UpdateReport: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	projection, err := h.Service.Update(r.Context(), reportID, &body)
	if err != nil {
		lg.Warn("UpdateReport: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, projection)
}

func (h *Handler) SaveReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "id")

	projection, err := h.Service.Save(r.Context(), reportID)
	if err != nil {
		logger.ForReport(r.Context(), reportID).Warn("SaveReport: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, projection)
}

func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "id")
	lg := logger.ForReport(r.Context(), reportID)

	projection, err := h.Service.Submit(r.Context(), reportID)
	if err != nil {
		lg.Warn("SubmitReport: submission failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	lg.Info("SubmitReport: report submitted", "state", projection.State)
	h.WriteJSON(w, http.StatusAccepted, projection)
}

func (h *Handler) ReopenReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "id")

	projection, err := h.Service.Reopen(r.Context(), reportID)
	if err != nil {
		logger.ForReport(r.Context(), reportID).Warn("ReopenReport: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, projection)
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "id")

	if err := h.Service.Close(r.Context(), reportID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	logger.ForReport(r.Context(), reportID).Info("CloseSession: session closed")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ExportCompensation(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "id")
	lg := logger.ForReport(r.Context(), reportID)

	var buf bytes.Buffer
	if err := h.Service.Export(r.Context(), reportID, &buf); err != nil {
		lg.Warn("ExportCompensation: export failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "compensation-"+reportID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		lg.Error("ExportCompensation: failed to write workbook", "error", err)
	}
}
