package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tylercasey2263/hubspot-contact-upload/app/dto"
	"github.com/tylercasey2263/hubspot-contact-upload/app/entity"
	"github.com/tylercasey2263/hubspot-contact-upload/app/service"
	"github.com/tylercasey2263/hubspot-contact-upload/config"
)

// Reader collects the emails of every contact already stored in the CRM.
type Reader struct {
	client     *Client
	pageSize   int
	pause      time.Duration
	maxRetries int
	sleep      Sleeper
}

func NewReader(client *Client, cfg *config.Config) *Reader {
	return &Reader{
		client:     client,
		pageSize:   cfg.PageSize,
		pause:      cfg.RateLimitPause,
		maxRetries: cfg.PageMaxRetries,
		sleep:      sleepContext,
	}
}

func (r *Reader) WithSleeper(sleep Sleeper) *Reader {
	r.sleep = sleep
	return r
}

// FetchExistingEmails pages through the contact listing. A 429 pauses and
// retries the same page, without limit unless PageMaxRetries is set; any
// other failure stops paging and the emails gathered so far are returned,
// so the set may undercount.
func (r *Reader) FetchExistingEmails(ctx context.Context) entity.EmailSet {
	existing := make(entity.EmailSet)
	query := url.Values{}
	query.Set("limit", strconv.Itoa(r.pageSize))
	query.Set("properties", "email")

	page := 1
	for {
		if err := ctx.Err(); err != nil {
			logrus.WithError(err).Warn("Contact listing interrupted")
			return existing
		}

		var resp dto.ListContactsResponse
		err := retryRateLimited(ctx, rateLimitPolicy(ctx, r.pause, r.maxRetries), r.sleep,
			func(_ error, pause time.Duration) {
				logrus.WithFields(logrus.Fields{
					"page":  page,
					"pause": pause.String(),
				}).Warn("Rate limited, pausing")
			},
			func(int) error {
				return r.fetchPage(ctx, query, &resp)
			})
		if err != nil {
			log := logrus.WithError(err).WithField("page", page)
			var statusErr *StatusError
			switch {
			case ctx.Err() != nil:
				log.Warn("Contact listing interrupted")
			case errors.Is(err, ErrRateLimited):
				log.WithField("retries", r.maxRetries).Error("Still rate limited, giving up on contact listing")
			case errors.As(err, &statusErr):
				log.WithFields(logrus.Fields{
					"status": statusErr.Status,
					"body":   statusErr.Body,
				}).Error("Error fetching contacts")
			default:
				log.Error("Error fetching contacts")
			}
			return existing
		}

		for _, contact := range resp.Results {
			if email := service.NormalizeEmail(contact.Properties.Email); email != "" {
				existing.Add(email)
			}
		}

		logrus.WithFields(logrus.Fields{
			"page":    page,
			"fetched": len(resp.Results),
			"total":   len(existing),
		}).Infof("Page %d: fetched %d contacts (%d total)", page, len(resp.Results), len(existing))

		after := resp.NextAfter()
		if after == "" {
			return existing
		}
		query.Set("after", after)
		page++
	}
}

func (r *Reader) fetchPage(ctx context.Context, query url.Values, resp *dto.ListContactsResponse) error {
	body, status, err := r.client.do(ctx, http.MethodGet, ContactsPath, query, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &StatusError{Status: status, Body: truncateBody(body)}
	}
	if err := json.Unmarshal(body, resp); err != nil {
		return fmt.Errorf("decode contact page: %w", err)
	}
	return nil
}
