package crm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/tylercasey2263/hubspot-contact-upload/app/crm"
	"github.com/tylercasey2263/hubspot-contact-upload/config"
)

const testToken = "test-token"

type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, d)
}

func (s *sleepRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func testConfig() *config.Config {
	return &config.Config{
		AccessToken:    testToken,
		BatchSize:      100,
		PageSize:       100,
		RateLimitPause: 10 * time.Second,
		HTTPTimeout:    5 * time.Second,
	}
}

func newTestClient(baseURL string) *crm.Client {
	return crm.NewClient(baseURL, testToken, 5*time.Second)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encode response failed: %v", err)
	}
}
