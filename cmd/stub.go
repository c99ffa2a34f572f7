package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tylercasey2263/hubspot-contact-upload/app/dto"
	"github.com/tylercasey2263/hubspot-contact-upload/app/repository"
	"github.com/tylercasey2263/hubspot-contact-upload/app/stub"
	"github.com/tylercasey2263/hubspot-contact-upload/config"
)

var (
	stubHost           string
	stubPrefix         string
	stubRateLimitEvery int
	stubSeedEmails     []string
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Run an in-memory CRM stub for rehearsal syncs",
	Long: `Serves the contact list and batch-create endpoints from memory so a sync can be
rehearsed locally. Point CRM_BASE_URL at http://<host>:<port><prefix>.`,
	Args: cobra.NoArgs,
	RunE: runStub,
}

func init() {
	stubCmd.Flags().StringVar(&stubHost, "host", "127.0.0.1", "listen host")
	stubCmd.Flags().StringVar(&stubPrefix, "prefix", "/crm/v3/objects", "route prefix for the contact endpoints")
	stubCmd.Flags().IntVar(&stubRateLimitEvery, "rate-limit-every", 0, "answer every Nth request with 429 (0 disables)")
	stubCmd.Flags().StringSliceVar(&stubSeedEmails, "seed", nil, "emails to pre-load as existing contacts")
	rootCmd.AddCommand(stubCmd)
}

func runStub(_ *cobra.Command, _ []string) error {
	cfg := config.LoadStub()
	if err := configureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	contacts := repository.NewContactMemoryRepository()
	if len(stubSeedEmails) > 0 {
		seed := make([]dto.ContactProperties, 0, len(stubSeedEmails))
		for _, email := range stubSeedEmails {
			if email = strings.TrimSpace(email); email != "" {
				seed = append(seed, dto.ContactProperties{Email: email})
			}
		}
		if _, err := contacts.CreateBatch(seed); err != nil {
			return err
		}
	}

	e := stub.NewServer(stub.Options{
		Token:          cfg.AccessToken,
		RateLimitEvery: stubRateLimitEvery,
		Prefix:         stubPrefix,
	}, contacts)
	e.Use(requestLogger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(stubHost, cfg.StubHTTPPort)
	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":     addr,
			"prefix":   stubPrefix,
			"contacts": contacts.Count(),
		}).Info("Starting CRM stub")
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logrus.WithField("contacts", contacts.Count()).Info("Stopping CRM stub")
	return e.Shutdown(shutdownCtx)
}

func requestLogger() echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	})
}
