package submission

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/trail-report/internal"
	"github.com/frahmantamala/trail-report/internal/compensation"
	backofficetypes "github.com/frahmantamala/trail-report/internal/core/datamodel/backoffice"
	"github.com/frahmantamala/trail-report/internal/metrics"
	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/frahmantamala/trail-report/internal/validation"
)

type BackOffice interface {
	SaveReport(ctx context.Context, payload *backofficetypes.SavePayload) (*backofficetypes.SaveAck, error)
	ReportStatus(ctx context.Context, reportID string) (*backofficetypes.Status, error)
}

type Calculator interface {
	CalculateReport(ctx context.Context, r *report.Report) (map[string]*compensation.Result, error)
}

type Config struct {
	AutosaveDebounce time.Duration
	SubmitTimeout    time.Duration
	Poll             PollConfig
}

func DefaultConfig() Config {
	return Config{
		AutosaveDebounce: 2 * time.Second,
		SubmitTimeout:    45 * time.Second,
		Poll:             DefaultPollConfig(),
	}
}

func ConfigFrom(cfg internal.LifecycleConfig) Config {
	return Config{
		AutosaveDebounce: cfg.AutosaveDebounce,
		SubmitTimeout:    cfg.SubmitTimeout,
		Poll: PollConfig{
			Interval:    cfg.PollInterval,
			MaxAttempts: cfg.PollMaxAttempts,
			Timeout:     cfg.PollTimeout,
			MaxFailures: cfg.PollMaxFailures,
		},
	}
}

type Dependencies struct {
	BackOffice BackOffice
	Calculator Calculator
	Notifier   Notifier
	Metrics    *metrics.Recorder
	Logger     *slog.Logger
}

// View is a read-only projection of a lifecycle.
type View struct {
	ReportID  string             `json:"report_id"`
	State     report.State       `json:"state"`
	Report    *report.Report     `json:"report"`
	LastError *internal.AppError `json:"last_error,omitempty"`
	Busy      bool               `json:"busy"`
	Polling   bool               `json:"polling"`
	Dirty     bool               `json:"dirty"`
}

// Lifecycle owns the editing session of one report: its form data, its local
// state and the timers for autosave, submission and status polling.
type Lifecycle struct {
	mu     sync.Mutex
	saveMu sync.Mutex

	config     Config
	backOffice BackOffice
	calculator Calculator
	notifier   Notifier
	metrics    *metrics.Recorder
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	report    *report.Report
	state     report.State
	lastSaved []byte
	lastError *internal.AppError
	busy      bool
	closed    bool

	debounce *Debouncer
	poller   *Poller
}

// Open starts a session for r in its current state. The initial data counts as
// already saved, so opening a session never writes anything. A report that is
// already sent starts polling straight away.
func Open(r *report.Report, deps Dependencies, config Config) (*Lifecycle, error) {
	if r == nil || r.ID == "" {
		return nil, internal.NewValidationError("report id is required", internal.ErrCodeMalformedRequest)
	}

	state := r.State
	if state == "" {
		state = report.StateDraft
	}
	if !state.IsValid() {
		return nil, internal.NewValidationError(fmt.Sprintf("unknown report state %q", state), internal.ErrCodeInvalidState)
	}

	owned, err := r.Clone()
	if err != nil {
		return nil, err
	}
	owned.State = state
	fingerprint, err := owned.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint report: %w", err)
	}

	defaults := DefaultConfig()
	if config.AutosaveDebounce <= 0 {
		config.AutosaveDebounce = defaults.AutosaveDebounce
	}
	if config.SubmitTimeout <= 0 {
		config.SubmitTimeout = defaults.SubmitTimeout
	}
	if deps.Notifier == nil {
		deps.Notifier = Notifiers{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Lifecycle{
		config:     config,
		backOffice: deps.BackOffice,
		calculator: deps.Calculator,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		logger:     deps.Logger.With("report_id", owned.ID),
		ctx:        ctx,
		cancel:     cancel,
		report:     owned,
		state:      state,
		lastSaved:  fingerprint,
	}
	l.debounce = NewDebouncer(config.AutosaveDebounce, l.autosave)
	l.poller = NewPoller(config.Poll, l.pollTick, l.pollTerminal, l.logger)

	if state == report.StateSend {
		l.poller.Start(l.ctx)
	}

	l.logger.Info("report session opened", "state", state)
	return l, nil
}

func (l *Lifecycle) ReportID() string {
	return l.report.ID
}

func (l *Lifecycle) State() report.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Lifecycle) Snapshot() View {
	l.mu.Lock()
	defer l.mu.Unlock()

	clone, err := l.report.Clone()
	if err != nil {
		clone = l.report
	}
	clone.State = l.state

	return View{
		ReportID:  l.report.ID,
		State:     l.state,
		Report:    clone,
		LastError: l.lastError,
		Busy:      l.busy,
		Polling:   l.poller.Running(),
		Dirty:     l.dirtyLocked(),
	}
}

// Update replaces the form data and schedules an autosave. Only drafts accept changes.
func (l *Lifecycle) Update(r *report.Report) error {
	if r == nil {
		return internal.NewValidationError("report is required", internal.ErrCodeMalformedRequest)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrSessionClosed
	}
	if !l.state.IsEditable() || l.busy {
		return ErrNotEditable
	}

	owned, err := r.Clone()
	if err != nil {
		return err
	}
	owned.ID = l.report.ID
	owned.State = l.state
	l.report = owned

	if l.dirtyLocked() {
		l.debounce.Trigger()
	}
	return nil
}

// SaveDraft saves the current draft immediately and reports the outcome to the user.
func (l *Lifecycle) SaveDraft(ctx context.Context) error {
	l.debounce.Stop()
	return l.saveDraft(ctx, metrics.TriggerExplicit)
}

func (l *Lifecycle) autosave() {
	ctx, cancel := context.WithTimeout(l.ctx, l.config.SubmitTimeout)
	defer cancel()

	if err := l.saveDraft(ctx, metrics.TriggerAuto); err != nil {
		l.logger.Debug("autosave not completed", "error", err)
	}
}

func (l *Lifecycle) saveDraft(ctx context.Context, trigger string) error {
	l.saveMu.Lock()
	defer l.saveMu.Unlock()

	silent := trigger == metrics.TriggerAuto

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrSessionClosed
	}
	if l.state != report.StateDraft || l.busy {
		l.mu.Unlock()
		l.metrics.Save(trigger, metrics.OutcomeSkipped)
		if silent {
			return nil
		}
		return ErrNotEditable
	}

	fingerprint, err := l.report.Fingerprint()
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("failed to fingerprint report: %w", err)
	}
	if bytes.Equal(fingerprint, l.lastSaved) {
		if !silent {
			l.notifyLocked(newNotification(l.report.ID, TopicSave, KindInfo, CodeNothingToSave, "There are no changes to save", l.state))
		}
		l.mu.Unlock()
		l.metrics.Save(trigger, metrics.OutcomeSkipped)
		return nil
	}
	r, err := l.report.Clone()
	l.mu.Unlock()
	if err != nil {
		return err
	}

	err = l.persist(ctx, r, report.StateDraft)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err != nil {
		appErr := asAppError(err)
		l.lastError = appErr
		l.metrics.Save(trigger, metrics.OutcomeFailure)
		l.logger.Warn("draft save failed", "trigger", trigger, "code", appErr.Code, "error", err)
		l.notifyLocked(l.failureNotification(TopicSave, appErr))
		return appErr
	}

	l.lastSaved = fingerprint
	l.lastError = nil
	l.metrics.Save(trigger, metrics.OutcomeSuccess)
	l.logger.Info("draft saved", "trigger", trigger)

	n := newNotification(l.report.ID, TopicSave, KindSuccess, CodeSaved, "Draft saved", l.state)
	n.Silent = silent
	l.notifyLocked(n)
	return nil
}

// Submit validates the report, moves it to send and hands it to the back
// office. Any failure rolls the state back to draft and is kept as LastError,
// after which the report may be submitted again.
func (l *Lifecycle) Submit(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrSessionClosed
	}
	if l.busy {
		l.mu.Unlock()
		return internal.ErrInProgress
	}
	if l.state != report.StateDraft {
		l.mu.Unlock()
		return internal.ErrInvalidState
	}

	verdict := validation.Validate(l.report)
	if !verdict.CanComplete {
		appErr := internal.ErrReportIncomplete.WithDetails(verdict)
		l.lastError = appErr
		l.metrics.Submission(metrics.OutcomeRejected)
		l.notifyLocked(l.failureNotification(TopicSubmit, appErr))
		l.mu.Unlock()
		return appErr
	}

	r, err := l.report.Clone()
	if err != nil {
		l.mu.Unlock()
		return err
	}
	fingerprint, err := r.Fingerprint()
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("failed to fingerprint report: %w", err)
	}

	l.busy = true
	l.lastError = nil
	l.setStateLocked(report.StateSend, "", false)
	l.mu.Unlock()

	l.debounce.Stop()
	l.saveMu.Lock()
	defer l.saveMu.Unlock()

	// detached from the caller; only SubmitTimeout ends the call
	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.config.SubmitTimeout)
	defer cancel()

	l.logger.Info("submitting report")
	err = l.persist(submitCtx, r, report.StateSend)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false

	if err != nil {
		appErr := asAppError(err)
		l.lastError = appErr
		l.setStateLocked(report.StateDraft, "", false)
		l.metrics.Submission(metrics.OutcomeFailure)
		l.logger.Warn("submission failed, report returned to draft", "code", appErr.Code, "error", err)
		l.notifyLocked(l.failureNotification(TopicSubmit, appErr))
		return appErr
	}

	l.lastSaved = fingerprint
	l.metrics.Submission(metrics.OutcomeSuccess)
	l.logger.Info("report submitted")
	l.notifyLocked(newNotification(l.report.ID, TopicSubmit, KindSuccess, CodeSubmitted,
		"Report submitted. The office will review it shortly.", l.state))

	if l.closed || l.state != report.StateSend {
		return nil
	}
	l.poller.Start(l.ctx)
	return nil
}

// Reopen returns a rejected report to draft so it can be corrected and resubmitted.
func (l *Lifecycle) Reopen(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrSessionClosed
	}
	if l.state != report.StateRejected {
		return ErrNotRejected
	}

	l.setStateLocked(report.StateDraft, "", true)
	l.lastSaved = nil
	l.debounce.Trigger()
	return nil
}

// Close cancels every timer owned by the session. It is safe to call more than once.
func (l *Lifecycle) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	l.debounce.Stop()
	l.poller.Stop()
	l.cancel()
	l.logger.Info("report session closed", "state", l.state)
}

// Wait blocks until a running poll has fully stopped. Used by callers that
// need to observe the final state, such as the CLI.
func (l *Lifecycle) Wait() {
	l.poller.Wait()
}

func (l *Lifecycle) persist(ctx context.Context, r *report.Report, target report.State) error {
	var results map[string]*compensation.Result
	if l.calculator != nil {
		var err error
		results, err = l.calculator.CalculateReport(ctx, r)
		if err != nil {
			return fmt.Errorf("failed to calculate compensation: %w", err)
		}
	}

	_, err := l.backOffice.SaveReport(ctx, backofficetypes.NewSavePayload(r, target, results))
	return err
}

func (l *Lifecycle) pollTick(ctx context.Context, attempt int) (bool, error) {
	status, err := l.backOffice.ReportStatus(ctx, l.report.ID)
	if err != nil {
		l.metrics.Poll(metrics.OutcomeFailure)
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if ctx.Err() != nil || l.closed {
		return true, nil
	}
	l.metrics.Poll(metrics.OutcomeSuccess)

	observed := status.State
	if observed == l.state {
		return false, nil
	}

	if !observed.IsValid() || !l.state.CanTransitionTo(observed) {
		l.logger.Warn("unrecognized report status from back office", "observed", observed, "attempt", attempt)
		n := newNotification(l.report.ID, TopicPoll, KindWarning, CodeStatusUnrecognized,
			"The office reported an unexpected status. Please refresh and verify the report.", l.state)
		n.Details = status
		l.notifyLocked(n)
		return true, nil
	}

	l.setStateLocked(observed, status.ErrorMessage, true)
	return true, nil
}

func (l *Lifecycle) pollTerminal(reason StopReason, attempts int) {
	l.metrics.PollStop(string(reason))

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || reason == StopCancelled {
		return
	}
	l.logger.Info("status polling ended", "reason", reason, "attempts", attempts, "state", l.state)

	switch reason {
	case StopFailures:
		l.notifyLocked(newNotification(l.report.ID, TopicPoll, KindWarning, CodeStatusUnverified,
			"The report status could not be checked. Please refresh the page to verify it.", l.state))
	case StopMaxAttempts, StopTimeout:
		l.notifyLocked(newNotification(l.report.ID, TopicPoll, KindInfo, CodeStatusPending,
			"The office has not decided yet. Please refresh later to see the result.", l.state))
	}
}

// setStateLocked applies a state change and raises its state-specific
// notification. Changes the user caused directly are recorded silently.
func (l *Lifecycle) setStateLocked(next report.State, message string, announce bool) {
	prev := l.state
	if prev == next {
		return
	}
	l.state = next
	l.report.State = next
	l.logger.Info("report state changed", "from", prev, "to", next)

	kind, text := stateCopy(prev, next)
	if message != "" {
		text = text + " " + message
	}
	n := newNotification(l.report.ID, TopicState, kind, CodeStateChanged, text, next)
	n.Silent = !announce
	n.Details = map[string]report.State{"from": prev, "to": next}
	l.notifyLocked(n)
}

func stateCopy(prev, next report.State) (Kind, string) {
	switch next {
	case report.StateSubmitted:
		return KindSuccess, "The report has been accepted by the office."
	case report.StateApproved:
		return KindSuccess, "The report has been approved."
	case report.StateRejected:
		return KindWarning, "The report was rejected. Reopen it, correct the data and submit again."
	case report.StateSend:
		return KindInfo, "The report is being submitted."
	default:
		if prev == report.StateSend {
			return KindWarning, "The office returned the report to draft. Please review it and submit again."
		}
		return KindInfo, "The report is open for correction."
	}
}

func (l *Lifecycle) failureNotification(topic Topic, appErr *internal.AppError) Notification {
	n := newNotification(l.report.ID, topic, kindFor(appErr), string(appErr.Code), appErr.Message, l.state)
	n.Details = appErr.Details
	return n
}

func (l *Lifecycle) dirtyLocked() bool {
	fingerprint, err := l.report.Fingerprint()
	if err != nil {
		return true
	}
	return !bytes.Equal(fingerprint, l.lastSaved)
}

func (l *Lifecycle) notifyLocked(n Notification) {
	l.notifier.Notify(l.ctx, n)
}
