package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mineos/landing/internal/metrics"
)

// ReferralQueryParam carries the referral code on /register.
const ReferralQueryParam = "ref_code"

const msgNoReferralCode = "No referral code provided."

// ReferralHandler forwards referral links into the mobile app.
type ReferralHandler struct {
	scheme  string
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewReferralHandler creates a ReferralHandler that targets <scheme>://signup.
func NewReferralHandler(scheme string, logger *slog.Logger, recorder metrics.Recorder) *ReferralHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ReferralHandler{
		scheme:  scheme,
		logger:  logger,
		metrics: recorder,
	}
}

// Register handles GET /register and GET /register/.
//
// A non-empty ref_code is forwarded verbatim as the refercode parameter of
// the app's signup deep link. Without one the response is a plain notice.
func (h *ReferralHandler) Register(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get(ReferralQueryParam)
	if code == "" {
		h.metrics.IncReferralRedirect(false)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, msgNoReferralCode)
		return
	}

	h.metrics.IncReferralRedirect(true)
	h.logger.Debug("referral_redirect", "code_length", len(code))

	w.Header().Set("Location", h.SignupURL(code))
	w.WriteHeader(http.StatusFound)
}

// SignupURL builds the deep link for a referral code.
func (h *ReferralHandler) SignupURL(code string) string {
	return fmt.Sprintf("%s://signup?refercode=%s", h.scheme, code)
}
