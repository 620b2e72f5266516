package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trail_report"

const (
	TriggerAuto     = "auto"
	TriggerExplicit = "explicit"

	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
)

// Recorder counts lifecycle activity. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	saves       *prometheus.CounterVec
	submissions *prometheus.CounterVec
	polls       *prometheus.CounterVec
	pollStops   *prometheus.CounterVec
	sessions    prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Draft saves by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Report submissions by outcome.",
		}, []string{"outcome"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Status polls by outcome.",
		}, []string{"outcome"}),
		pollStops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_stops_total",
			Help:      "Status polling runs ended, by reason.",
		}, []string{"reason"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_sessions",
			Help:      "Report editing sessions currently open.",
		}),
	}

	r.registry.MustRegister(
		r.saves,
		r.submissions,
		r.polls,
		r.pollStops,
		r.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) Save(trigger, outcome string) {
	if r == nil {
		return
	}
	r.saves.WithLabelValues(trigger, outcome).Inc()
}

func (r *Recorder) Submission(outcome string) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Poll(outcome string) {
	if r == nil {
		return
	}
	r.polls.WithLabelValues(outcome).Inc()
}

func (r *Recorder) PollStop(reason string) {
	if r == nil {
		return
	}
	r.pollStops.WithLabelValues(reason).Inc()
}

func (r *Recorder) SessionOpened() {
	if r == nil {
		return
	}
	r.sessions.Inc()
}

func (r *Recorder) SessionClosed() {
	if r == nil {
		return
	}
	r.sessions.Dec()
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
