package stub

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/tylercasey2263/hubspot-contact-upload/app/controller"
	"github.com/tylercasey2263/hubspot-contact-upload/app/crm"
	"github.com/tylercasey2263/hubspot-contact-upload/app/middleware"
	"github.com/tylercasey2263/hubspot-contact-upload/app/repository"
)

// Options configure the local CRM stub.
type Options struct {
	// Token, when set, is the only bearer token accepted.
	Token string
	// RateLimitEvery answers every Nth request with 429; 0 disables it.
	RateLimitEvery int
	// Prefix is prepended to the contact routes, e.g. "/crm/v3/objects".
	Prefix string
}

// NewServer builds the echo instance serving the contact endpoints out of
// contacts.
func NewServer(opts Options, contacts *repository.ContactMemoryRepository) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomiddleware.Recover())

	ctrl := controller.NewContactsController(contacts)
	bearer := middleware.NewBearerMiddleware(opts.Token)
	limiter := middleware.NewRateLimitMiddleware(opts.RateLimitEvery)

	g := e.Group(opts.Prefix, bearer.RequireToken, limiter.Limit)
	g.GET(crm.ContactsPath, ctrl.List)
	g.POST(crm.BatchCreatePath, ctrl.BatchCreate)

	return e
}
