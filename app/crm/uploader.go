package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tylercasey2263/hubspot-contact-upload/app/dto"
	"github.com/tylercasey2263/hubspot-contact-upload/app/entity"
	"github.com/tylercasey2263/hubspot-contact-upload/config"
)

// Uploader submits new contacts to the batch-create endpoint.
type Uploader struct {
	client    *Client
	batchSize int
	pause     time.Duration
	sleep     Sleeper
}

func NewUploader(client *Client, cfg *config.Config) *Uploader {
	batchSize := cfg.BatchSize
	if batchSize <= 0 || batchSize > config.MaxBatchSize {
		batchSize = config.MaxBatchSize
	}
	return &Uploader{
		client:    client,
		batchSize: batchSize,
		pause:     cfg.RateLimitPause,
		sleep:     sleepContext,
	}
}

func (u *Uploader) WithSleeper(sleep Sleeper) *Uploader {
	u.sleep = sleep
	return u
}

// Upload sends contacts in order, one batch at a time. A rate-limited batch
// is retried exactly once after the pause. A batch that fails is counted in
// full since the CRM does not say which inputs were rejected.
func (u *Uploader) Upload(ctx context.Context, contacts []entity.ParentContact) dto.UploadResult {
	var result dto.UploadResult

	for start := 0; start < len(contacts); start += u.batchSize {
		end := min(start+u.batchSize, len(contacts))
		batch := contacts[start:end]
		n := start/u.batchSize + 1
		log := logrus.WithField("batch", n)

		req := newBatchCreateRequest(batch)
		var created, attempts int
		err := retryRateLimited(ctx, rateLimitPolicy(ctx, u.pause, 1), u.sleep,
			func(_ error, pause time.Duration) {
				log.WithField("pause", pause.String()).Warn("Rate limited, pausing and retrying batch")
			},
			func(attempt int) error {
				attempts = attempt
				var err error
				created, err = u.post(ctx, req)
				return err
			})

		label := fmt.Sprintf("Batch %d", n)
		if attempts > 1 {
			label += " (retry)"
		}
		if err != nil {
			result.Failed += len(batch)
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				log = log.WithFields(logrus.Fields{
					"status": statusErr.Status,
					"body":   statusErr.Body,
				})
			} else {
				log = log.WithError(err)
			}
			log.Errorf("%s FAILED", label)
		} else {
			result.Created += created
			log.Infof("%s: created %d contacts", label, created)
		}

		if end < len(contacts) {
			u.sleep(ctx, u.pause)
		}
	}

	return result
}

// post returns the number of contacts the CRM reports as created. Any status
// other than 201 comes back as a *StatusError.
func (u *Uploader) post(ctx context.Context, req dto.BatchCreateRequest) (int, error) {
	body, status, err := u.client.do(ctx, http.MethodPost, BatchCreatePath, nil, req)
	if err != nil {
		return 0, err
	}
	if status != http.StatusCreated {
		return 0, &StatusError{Status: status, Body: truncateBody(body)}
	}

	var resp dto.BatchCreateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode batch response: %w", err)
	}
	return len(resp.Results), nil
}

func newBatchCreateRequest(batch []entity.ParentContact) dto.BatchCreateRequest {
	req := dto.BatchCreateRequest{Inputs: make([]dto.BatchCreateInput, 0, len(batch))}
	for _, c := range batch {
		req.Inputs = append(req.Inputs, dto.BatchCreateInput{
			Properties: dto.ContactProperties{
				Email:     c.Email,
				FirstName: c.FirstName,
				LastName:  c.LastName,
				Phone:     c.Phone,
			},
		})
	}
	return req
}
