package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/frahmantamala/trail-report/internal"
	"github.com/frahmantamala/trail-report/internal/metrics"
	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/frahmantamala/trail-report/internal/submission"
)

const defaultFeedLength = 50

// Feed keeps the most recent notifications of one session.
type Feed struct {
	mu    sync.Mutex
	limit int
	items []submission.Notification
}

func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = defaultFeedLength
	}
	return &Feed{limit: limit}
}

func (f *Feed) Notify(_ context.Context, n submission.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, n)
	if over := len(f.items) - f.limit; over > 0 {
		f.items = append(f.items[:0:0], f.items[over:]...)
	}
}

// Items returns the feed oldest first.
func (f *Feed) Items() []submission.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := make([]submission.Notification, len(f.items))
	copy(items, f.items)
	return items
}

type Session struct {
	Lifecycle *submission.Lifecycle
	Feed      *Feed
	OpenedAt  time.Time
}

// Registry holds one open lifecycle per report id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	deps       submission.Dependencies
	config     submission.Config
	feedLength int
	metrics    *metrics.Recorder
	logger     *slog.Logger
}

func NewRegistry(deps submission.Dependencies, config submission.Config, feedLength int) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Registry{
		sessions:   make(map[string]*Session),
		deps:       deps,
		config:     config,
		feedLength: feedLength,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

func (reg *Registry) Open(r *report.Report) (*Session, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.sessions[r.ID]; ok {
		return nil, internal.ErrSessionExists
	}

	feed := NewFeed(reg.feedLength)
	deps := reg.deps
	deps.Notifier = submission.Notifiers{feed, reg.deps.Notifier}

	lifecycle, err := submission.Open(r, deps, reg.config)
	if err != nil {
		return nil, err
	}

	s := &Session{Lifecycle: lifecycle, Feed: feed, OpenedAt: time.Now()}
	reg.sessions[r.ID] = s
	reg.metrics.SessionOpened()
	return s, nil
}

func (reg *Registry) Get(reportID string) (*Session, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	s, ok := reg.sessions[reportID]
	if !ok {
		return nil, internal.ErrSessionNotFound
	}
	return s, nil
}

func (reg *Registry) Close(reportID string) error {
	reg.mu.Lock()
	s, ok := reg.sessions[reportID]
	delete(reg.sessions, reportID)
	reg.mu.Unlock()

	if !ok {
		return internal.ErrSessionNotFound
	}
	s.Lifecycle.Close()
	reg.metrics.SessionClosed()
	return nil
}

// CloseAll closes every session; used on shutdown.
func (reg *Registry) CloseAll() {
	reg.mu.Lock()
	sessions := reg.sessions
	reg.sessions = make(map[string]*Session)
	reg.mu.Unlock()

	for _, s := range sessions {
		s.Lifecycle.Close()
		reg.metrics.SessionClosed()
	}
	if len(sessions) > 0 {
		reg.logger.Info("report sessions closed", "count", len(sessions))
	}
}

func (reg *Registry) IDs() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	ids := make([]string, 0, len(reg.sessions))
	for id := range reg.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
