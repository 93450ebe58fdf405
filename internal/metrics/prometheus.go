package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports counters through a dedicated registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	subscribersCreated  prometheus.Counter
	subscriberConflicts prometheus.Counter
	validationFailures  prometheus.Counter
	storeErrors         prometheus.Counter
	referralRedirects   *prometheus.CounterVec
}

// NewPrometheus registers the application counters on a fresh registry.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		subscribersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "landing_subscribers_created_total",
			Help: "Total number of subscribers registered",
		}),
		subscriberConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "landing_subscriber_conflicts_total",
			Help: "Total number of registrations rejected because the email already exists",
		}),
		validationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "landing_subscriber_validation_failures_total",
			Help: "Total number of registration payloads rejected by validation",
		}),
		storeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "landing_store_errors_total",
			Help: "Total number of subscriber store failures",
		}),
		referralRedirects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landing_referral_requests_total",
			Help: "Total number of referral requests by outcome",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// IncSubscriberCreated increments the created counter.
func (p *PrometheusRecorder) IncSubscriberCreated() {
	p.subscribersCreated.Inc()
}

// IncSubscriberConflict increments the conflict counter.
func (p *PrometheusRecorder) IncSubscriberConflict() {
	p.subscriberConflicts.Inc()
}

// IncValidationFailed increments the validation failure counter.
func (p *PrometheusRecorder) IncValidationFailed() {
	p.validationFailures.Inc()
}

// IncStoreError increments the store error counter.
func (p *PrometheusRecorder) IncStoreError() {
	p.storeErrors.Inc()
}

// IncReferralRedirect counts a referral request as "redirect" or "no_code".
func (p *PrometheusRecorder) IncReferralRedirect(hasCode bool) {
	outcome := "no_code"
	if hasCode {
		outcome = "redirect"
	}
	p.referralRedirects.WithLabelValues(outcome).Inc()
}
