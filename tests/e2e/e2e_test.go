//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mineos/landing/internal/repository"
)

type subscriberResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("LANDING_BASE_URL", "http://localhost:8080")

	email := fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano())

	var created subscriberResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/subscribers", "", map[string]any{"email": email}, &created)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from subscriber create, got %d", status)
	}
	if created.ID == "" || created.Email != email || created.CreatedAt.IsZero() {
		t.Fatalf("subscriber create response missing fields: %+v", created)
	}

	var conflict errorResponse
	status = doJSON(t, http.MethodPost, baseURL+"/api/subscribers", "", map[string]any{"email": email}, &conflict)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", status)
	}
	if conflict.Message != "Email already subscribed" {
		t.Fatalf("unexpected conflict message: %q", conflict.Message)
	}

	assertPersisted(t, email, created.ID)
	assertReferralRedirect(t, baseURL, "e2e-code")
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// assertPersisted reads the row back when the server runs on Postgres.
func assertPersisted(t *testing.T, email, id string) {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Log("DATABASE_URL not set; skipping persistence check")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer repo.Close()

	stored, err := repo.FindByEmail(ctx, strings.ToUpper(email))
	if err != nil {
		t.Fatalf("find subscriber: %v", err)
	}
	if stored.ID != id {
		t.Fatalf("expected stored id %s, got %s", id, stored.ID)
	}
}

func assertReferralRedirect(t *testing.T, baseURL, code string) {
	t.Helper()

	client := &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(baseURL + "/register?ref_code=" + code)
	if err != nil {
		t.Fatalf("referral request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 from referral, got %d", resp.StatusCode)
	}

	scheme := envOrDefault("APP_SCHEME", "mineos")
	want := scheme + "://signup?refercode=" + code
	if loc := resp.Header.Get("Location"); loc != want {
		t.Fatalf("expected Location %s, got %s", want, loc)
	}
}

func doJSON(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()

	var buf io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		buf = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && resp.ContentLength != 0 {
			t.Fatalf("decode response: %v", err)
		}
	}

	return resp.StatusCode
}

// TestE2EConcurrentSignup validates that racing signups for one email yield one 201.
func TestE2EConcurrentSignup(t *testing.T) {
	baseURL := envOrDefault("LANDING_BASE_URL", "http://localhost:8080")
	email := fmt.Sprintf("e2e-race-%d@example.com", time.Now().UnixNano())

	const workers = 4
	payload := fmt.Sprintf(`{"email":%q}`, email)
	client := &http.Client{Timeout: 15 * time.Second}

	type outcome struct {
		status int
		err    error
	}
	results := make(chan outcome, workers)
	for i := 0; i < workers; i++ {
		go func() {
			resp, err := client.Post(baseURL+"/api/subscribers", "application/json", strings.NewReader(payload))
			if err != nil {
				results <- outcome{err: err}
				return
			}
			resp.Body.Close()
			results <- outcome{status: resp.StatusCode}
		}()
	}

	counts := map[int]int{}
	for i := 0; i < workers; i++ {
		res := <-results
		if res.err != nil {
			t.Fatalf("request failed: %v", res.err)
		}
		counts[res.status]++
	}

	if counts[http.StatusCreated] != 1 {
		t.Fatalf("expected exactly one 201, got %v", counts)
	}
	if counts[http.StatusCreated]+counts[http.StatusConflict]+counts[http.StatusTooManyRequests] != workers {
		t.Fatalf("unexpected statuses: %v", counts)
	}
}

// TestE2ERateLimiting validates that signup throttling returns 429 with proper headers.
func TestE2ERateLimiting(t *testing.T) {
	baseURL := envOrDefault("LANDING_BASE_URL", "http://localhost:8080")
	if os.Getenv("REDIS_URL") == "" {
		t.Skip("REDIS_URL not set; server runs without signup rate limiting")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	var rateLimited bool
	var lastResp *http.Response

	// Default burst is 5; try 20 signups rapidly
	for i := 0; i < 20; i++ {
		payload := fmt.Sprintf(`{"email":"e2e-rl-%d-%d@example.com"}`, time.Now().UnixNano(), i)
		req, err := http.NewRequest(http.MethodPost, baseURL+"/api/subscribers", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("create request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			rateLimited = true
			lastResp = resp
			break
		}
		resp.Body.Close()
	}

	if !rateLimited {
		t.Fatalf("expected 429 rate limit after burst, but never hit rate limit")
	}

	defer lastResp.Body.Close()

	if lastResp.Header.Get("X-RateLimit-Limit") == "" {
		t.Error("missing X-RateLimit-Limit header on 429 response")
	}
	if remaining := lastResp.Header.Get("X-RateLimit-Remaining"); remaining != "0" {
		t.Errorf("expected X-RateLimit-Remaining=0, got %s", remaining)
	}
	if lastResp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header on 429 response")
	}

	var errResp errorResponse
	if err := json.NewDecoder(lastResp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode 429 response: %v", err)
	}
	if errResp.Message == "" {
		t.Error("429 response missing 'message' field")
	}
}

// TestE2ENoSecretsInResponses validates that admin tokens are never echoed back.
func TestE2ENoSecretsInResponses(t *testing.T) {
	baseURL := envOrDefault("LANDING_BASE_URL", "http://localhost:8080")

	client := &http.Client{Timeout: 10 * time.Second}

	fakeToken := "mla_" + strings.Repeat("f", 64)
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/admin/subscribers", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+fakeToken)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if strings.Contains(string(body), fakeToken) {
		t.Error("SECURITY: Error response leaked Authorization header value")
	}

	adminToken := os.Getenv("TEST_ADMIN_TOKEN")
	if adminToken == "" {
		return
	}

	var page map[string]any
	status := doJSON(t, http.MethodGet, baseURL+"/api/admin/subscribers?limit=1", adminToken, nil, &page)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from admin listing, got %d", status)
	}
	raw, _ := json.Marshal(page)
	if strings.Contains(string(raw), adminToken) {
		t.Error("SECURITY: Successful response echoed back the admin token")
	}
}
