// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Registration metrics
	IncSubscriberCreated()
	IncSubscriberConflict()
	IncValidationFailed()
	IncStoreError()

	// Referral metrics
	IncReferralRedirect(hasCode bool)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
