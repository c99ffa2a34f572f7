//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tylercasey2263/hubspot-contact-upload/app/crm"
	"github.com/tylercasey2263/hubspot-contact-upload/app/dto"
	"github.com/tylercasey2263/hubspot-contact-upload/app/service"
	"github.com/tylercasey2263/hubspot-contact-upload/config"
)

// Runs against a CRM stub started with `contact-upload stub`.
const defaultBaseURL = "http://localhost:8080/crm/v3/objects"

func baseURL() string {
	if v := os.Getenv("E2E_CRM_BASE_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultBaseURL
}

func writeRoster(t *testing.T, rows []string) string {
	t.Helper()

	header := "Player Name,Parent 1 Name,Parent 1 Email,Parent 1 Phone,Parent 2 Name,Parent 2 Email,Parent 2 Phone"
	path := filepath.Join(t.TempDir(), "roster.csv")
	if err := os.WriteFile(path, []byte(header+"\n"+strings.Join(rows, "\n")+"\n"), 0600); err != nil {
		t.Fatalf("write roster failed: %v", err)
	}
	return path
}

func listAll(t *testing.T) map[string]dto.ContactProperties {
	t.Helper()

	out := make(map[string]dto.ContactProperties)
	after := ""
	for {
		url := baseURL() + crm.ContactsPath + "?limit=100"
		if after != "" {
			url += "&after=" + after
		}
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			t.Fatalf("new request failed: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+os.Getenv("CRM_ACCESS_TOKEN"))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		var page dto.ListContactsResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		for _, r := range page.Results {
			out[strings.ToLower(r.Properties.Email)] = r.Properties
		}
		if after = page.NextAfter(); after == "" {
			return out
		}
	}
}

func newSyncer() *service.Syncer {
	cfg := &config.Config{
		AccessToken:          os.Getenv("CRM_ACCESS_TOKEN"),
		BaseURL:              baseURL(),
		BatchSize:            100,
		PageSize:             100,
		RateLimitPause:       100 * time.Millisecond,
		HTTPTimeout:          10 * time.Second,
		ReservedEmailDomains: []string{"example.com"},
	}
	client := crm.NewClient(cfg.BaseURL, cfg.AccessToken, cfg.HTTPTimeout)
	return service.NewSyncer(
		service.NewExtractor(cfg.ReservedEmailDomains),
		crm.NewReader(client, cfg),
		crm.NewUploader(client, cfg),
		nil,
	)
}

func TestSyncIsIdempotentAcrossRuns(t *testing.T) {
	suffix := time.Now().UnixNano()
	rows := make([]string, 0, 130)
	for i := 0; i < 130; i++ {
		rows = append(rows, fmt.Sprintf("Kid %d,Parent %d Doe,e2e-%d-%d@school.org,555-%04d,QA,qa%d@example.com,", i, i, suffix, i, i, i))
	}
	// same parent listed again with a different name and case
	rows = append(rows, fmt.Sprintf("Kid X,Other Name,E2E-%d-0@School.org,555-9999,,,", suffix))
	path := writeRoster(t, rows)

	first, err := newSyncer().Sync(context.Background(), path, false)
	if err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	if first.Extracted != 130 || first.Created+first.Failed != first.Candidates {
		t.Fatalf("unexpected first summary: %+v", first)
	}

	stored := listAll(t)
	p0, ok := stored[fmt.Sprintf("e2e-%d-0@school.org", suffix)]
	if !ok || p0.FirstName != "Parent" || p0.LastName != "0 Doe" {
		t.Fatalf("expected first occurrence to be stored, got %+v (found=%v)", p0, ok)
	}

	second, err := newSyncer().Sync(context.Background(), path, false)
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if second.Candidates != first.Failed {
		t.Fatalf("expected only previously failed contacts to be retried, got %+v", second)
	}
}
