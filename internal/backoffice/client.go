package backoffice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/trail-report/internal"
	backofficetypes "github.com/frahmantamala/trail-report/internal/core/datamodel/backoffice"
)

const maxErrorBody = 64 << 10

// TraceHeader carries the caller's trace id to the back office.
const TraceHeader = "X-Trace-ID"

type Config struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	StatusTimeout  time.Duration
}

// Client talks to the back-office report endpoints. It never retries on its
// own; every failure is returned to the caller classified as an AppError.
type Client struct {
	baseURL        string
	apiKey         string
	requestTimeout time.Duration
	statusTimeout  time.Duration
	httpClient     *http.Client
	logger         *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	requestTimeout := config.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	statusTimeout := config.StatusTimeout
	if statusTimeout <= 0 {
		statusTimeout = 10 * time.Second
	}

	return &Client{
		baseURL:        strings.TrimRight(config.BaseURL, "/"),
		apiKey:         config.APIKey,
		requestTimeout: requestTimeout,
		statusTimeout:  statusTimeout,
		httpClient:     &http.Client{},
		logger:         logger,
	}
}

// SaveReport stores the report under the target state carried by the payload.
func (c *Client) SaveReport(ctx context.Context, payload *backofficetypes.SavePayload) (*backofficetypes.SaveAck, error) {
	if err := payload.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeMalformedRequest)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal save payload: %w", err)
	}

	ctx, cancel := internal.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.reportURL(payload.ReportID), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(req)

	c.logger.Info("saving report to back office",
		"report_id", payload.ReportID,
		"state", payload.State)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		appErr := classifyResponse(resp)
		c.logger.Warn("back office rejected report",
			"report_id", payload.ReportID,
			"status", resp.StatusCode,
			"code", appErr.Code)
		return nil, appErr
	}

	ack := &backofficetypes.SaveAck{ReportID: payload.ReportID, State: payload.State}
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(ack); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode save acknowledgment: %w", err)
		}
	}
	return ack, nil
}

// ReportStatus reads the current external state of a report.
func (c *Client) ReportStatus(ctx context.Context, reportID string) (*backofficetypes.Status, error) {
	ctx, cancel := internal.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.reportURL(reportID)+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyResponse(resp)
	}

	var status backofficetypes.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode report status: %w", err)
	}
	if status.ReportID == "" {
		status.ReportID = reportID
	}

	c.logger.Debug("back office report status",
		"report_id", reportID,
		"state", status.State)

	return &status, nil
}

func (c *Client) reportURL(reportID string) string {
	return fmt.Sprintf("%s/reports/%s", c.baseURL, url.PathEscape(reportID))
}

// decorate adds credentials and forwards the trace id of the inbound request.
func (c *Client) decorate(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if traceID := internal.TraceIDFromContext(req.Context()); traceID != "" {
		req.Header.Set(TraceHeader, traceID)
	}
}

func classifyTransportError(err error) *internal.AppError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return ErrSubmissionTimeout.WithCause(err)
	}
	return ErrConnectionFailed.WithCause(err)
}

// classifyResponse maps a non-2xx answer to its AppError and keeps whatever
// structured body the server sent as details.
func classifyResponse(resp *http.Response) *internal.AppError {
	appErr := errorForStatus(resp.StatusCode)

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(bytes.TrimSpace(raw)) == 0 {
		return appErr
	}

	var body backofficetypes.ErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && (body.Message != "" || body.Code != "") {
		return appErr.WithDetails(body)
	}
	return appErr.WithDetails(backofficetypes.ErrorBody{Message: strings.TrimSpace(string(raw))})
}
