package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSubscriberCreated is a no-op.
func (n *NoopRecorder) IncSubscriberCreated() {}

// IncSubscriberConflict is a no-op.
func (n *NoopRecorder) IncSubscriberConflict() {}

// IncValidationFailed is a no-op.
func (n *NoopRecorder) IncValidationFailed() {}

// IncStoreError is a no-op.
func (n *NoopRecorder) IncStoreError() {}

// IncReferralRedirect is a no-op.
func (n *NoopRecorder) IncReferralRedirect(hasCode bool) {}
