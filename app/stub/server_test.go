package stub_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tylercasey2263/hubspot-contact-upload/app/crm"
	"github.com/tylercasey2263/hubspot-contact-upload/app/dto"
	"github.com/tylercasey2263/hubspot-contact-upload/app/entity"
	"github.com/tylercasey2263/hubspot-contact-upload/app/repository"
	"github.com/tylercasey2263/hubspot-contact-upload/app/stub"
	"github.com/tylercasey2263/hubspot-contact-upload/config"
)

const prefix = "/crm/v3/objects"

func noSleep(context.Context, time.Duration) {}

func newStub(t *testing.T, opts stub.Options) (*repository.ContactMemoryRepository, string) {
	t.Helper()

	contacts := repository.NewContactMemoryRepository()
	srv := httptest.NewServer(stub.NewServer(opts, contacts))
	t.Cleanup(srv.Close)
	return contacts, srv.URL + opts.Prefix
}

func seed(t *testing.T, contacts *repository.ContactMemoryRepository, n int) {
	t.Helper()

	inputs := make([]dto.ContactProperties, 0, n)
	for i := 0; i < n; i++ {
		inputs = append(inputs, dto.ContactProperties{Email: fmt.Sprintf("Existing%03d@School.org", i)})
	}
	if _, err := contacts.CreateBatch(inputs); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func TestStub_ReaderAndUploaderRoundTrip(t *testing.T) {
	contacts, baseURL := newStub(t, stub.Options{Token: "secret", RateLimitEvery: 3, Prefix: prefix})
	seed(t, contacts, 45)

	cfg := &config.Config{BatchSize: 100, PageSize: 10, RateLimitPause: time.Second}
	client := crm.NewClient(baseURL, "secret", 5*time.Second)

	existing := crm.NewReader(client, cfg).WithSleeper(noSleep).FetchExistingEmails(context.Background())
	if len(existing) != 45 {
		t.Fatalf("expected all 45 seeded emails despite rate limiting, got %d", len(existing))
	}
	if !existing.Has("existing007@school.org") {
		t.Fatalf("expected lowercased seeded email in set")
	}

	mapping := entity.NewContactMapping()
	mapping.Add(entity.ParentContact{Email: "existing001@school.org"})
	for i := 0; i < 120; i++ {
		mapping.Add(entity.ParentContact{Email: fmt.Sprintf("new%03d@school.org", i), FirstName: "New"})
	}
	candidates := mapping.Without(existing)
	if len(candidates) != 120 {
		t.Fatalf("expected 120 candidates, got %d", len(candidates))
	}

	// Requests 1-7 were the listing (3rd and 6th limited). The 9th request,
	// the second batch, is limited and absorbed by its single retry.
	result := crm.NewUploader(client, cfg).WithSleeper(noSleep).Upload(context.Background(), candidates)
	if result.Created != 120 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if contacts.Count() != 165 {
		t.Fatalf("expected store to hold 165 contacts, got %d", contacts.Count())
	}
}

func TestStub_RejectsWrongToken(t *testing.T) {
	_, baseURL := newStub(t, stub.Options{Token: "secret", Prefix: prefix})

	req, err := http.NewRequest(http.MethodGet, baseURL+crm.ContactsPath, nil)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestStub_UploadWithoutRateLimit(t *testing.T) {
	contacts, baseURL := newStub(t, stub.Options{Prefix: prefix})

	cfg := &config.Config{BatchSize: 100, PageSize: 100}
	client := crm.NewClient(baseURL, "", 5*time.Second)

	batch := make([]entity.ParentContact, 0, 250)
	for i := 0; i < 250; i++ {
		batch = append(batch, entity.ParentContact{Email: fmt.Sprintf("p%03d@school.org", i)})
	}
	result := crm.NewUploader(client, cfg).WithSleeper(noSleep).Upload(context.Background(), batch)
	if result.Created != 250 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	existing := crm.NewReader(client, cfg).WithSleeper(noSleep).FetchExistingEmails(context.Background())
	if len(existing) != 250 || contacts.Count() != 250 {
		t.Fatalf("expected 250 stored contacts, got set=%d store=%d", len(existing), contacts.Count())
	}

	// uploading the same contacts again conflicts on every batch
	again := crm.NewUploader(client, cfg).WithSleeper(noSleep).Upload(context.Background(), batch)
	if again.Created != 0 || again.Failed != 250 {
		t.Fatalf("expected conflicts, got %+v", again)
	}
}
