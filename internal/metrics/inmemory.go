package metrics

import (
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	SubscribersCreated   uint64
	SubscriberConflicts  uint64
	ValidationFailures   uint64
	StoreErrors          uint64
	ReferralsWithCode    uint64
	ReferralsWithoutCode uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	subscribersCreated   atomic.Uint64
	subscriberConflicts  atomic.Uint64
	validationFailures   atomic.Uint64
	storeErrors          atomic.Uint64
	referralsWithCode    atomic.Uint64
	referralsWithoutCode atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		SubscribersCreated:   m.subscribersCreated.Load(),
		SubscriberConflicts:  m.subscriberConflicts.Load(),
		ValidationFailures:   m.validationFailures.Load(),
		StoreErrors:          m.storeErrors.Load(),
		ReferralsWithCode:    m.referralsWithCode.Load(),
		ReferralsWithoutCode: m.referralsWithoutCode.Load(),
	}
}

// IncSubscriberCreated increments the created counter.
func (m *InMemoryRecorder) IncSubscriberCreated() {
	m.subscribersCreated.Add(1)
}

// IncSubscriberConflict increments the conflict counter.
func (m *InMemoryRecorder) IncSubscriberConflict() {
	m.subscriberConflicts.Add(1)
}

// IncValidationFailed increments the validation failure counter.
func (m *InMemoryRecorder) IncValidationFailed() {
	m.validationFailures.Add(1)
}

// IncStoreError increments the store error counter.
func (m *InMemoryRecorder) IncStoreError() {
	m.storeErrors.Add(1)
}

// IncReferralRedirect increments one of the referral counters.
func (m *InMemoryRecorder) IncReferralRedirect(hasCode bool) {
	if hasCode {
		m.referralsWithCode.Add(1)
		return
	}
	m.referralsWithoutCode.Add(1)
}
