package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	m := NewInMemory()
	m.IncSubscriberCreated()
	m.IncSubscriberCreated()
	m.IncSubscriberConflict()
	m.IncValidationFailed()
	m.IncStoreError()
	m.IncReferralRedirect(true)
	m.IncReferralRedirect(false)
	m.IncReferralRedirect(false)

	got := m.Snapshot()
	want := Snapshot{
		SubscribersCreated:   2,
		SubscriberConflicts:  1,
		ValidationFailures:   1,
		StoreErrors:          1,
		ReferralsWithCode:    1,
		ReferralsWithoutCode: 2,
	}
	if got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
}

func TestPrometheusRecorder_Counters(t *testing.T) {
	p := NewPrometheus()
	p.IncSubscriberCreated()
	p.IncSubscriberConflict()
	p.IncSubscriberConflict()
	p.IncReferralRedirect(true)

	if got := testutil.ToFloat64(p.subscribersCreated); got != 1 {
		t.Errorf("subscribers created = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.subscriberConflicts); got != 2 {
		t.Errorf("subscriber conflicts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.referralRedirects.WithLabelValues("redirect")); got != 1 {
		t.Errorf("referral redirects = %v, want 1", got)
	}
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	p := NewPrometheus()
	p.IncStoreError()

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "landing_store_errors_total 1") {
		t.Errorf("expected store error counter in exposition, got:\n%s", body)
	}
}

var (
	_ Recorder = (*NoopRecorder)(nil)
	_ Recorder = (*InMemoryRecorder)(nil)
	_ Recorder = (*PrometheusRecorder)(nil)
)
