package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/tylercasey2263/hubspot-contact-upload/app/dto"
	"github.com/tylercasey2263/hubspot-contact-upload/app/repository"
	"github.com/tylercasey2263/hubspot-contact-upload/config"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// ContactsController serves the CRM contact endpoints from the in-memory stub store.
type ContactsController struct {
	contacts *repository.ContactMemoryRepository
}

func NewContactsController(contacts *repository.ContactMemoryRepository) *ContactsController {
	return &ContactsController{contacts: contacts}
}

func (c *ContactsController) List(ctx echo.Context) error {
	limit := defaultListLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Status: "error", Message: "invalid limit"})
		}
		limit = min(n, maxListLimit)
	}

	records, next, err := c.contacts.List(ctx.QueryParam("after"), limit)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Status: "error", Message: err.Error()})
	}

	properties := requestedProperties(ctx.QueryParam("properties"))
	for i := range records {
		records[i].Properties = filterProperties(records[i].Properties, properties)
	}

	resp := dto.ListContactsResponse{Results: records}
	if next != "" {
		resp.Paging = &dto.Paging{Next: &dto.PagingNext{After: next}}
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (c *ContactsController) BatchCreate(ctx echo.Context) error {
	var req dto.BatchCreateRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind batch create request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Status: "error", Message: "invalid request body"})
	}

	if len(req.Inputs) == 0 {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Status: "error", Message: "inputs are required"})
	}
	if len(req.Inputs) > config.MaxBatchSize {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Status:  "error",
			Message: "batch size exceeds " + strconv.Itoa(config.MaxBatchSize),
		})
	}

	inputs := make([]dto.ContactProperties, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		if strings.TrimSpace(in.Properties.Email) == "" {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Status: "error", Message: "email is required"})
		}
		inputs = append(inputs, in.Properties)
	}

	created, err := c.contacts.CreateBatch(inputs)
	if err != nil {
		if errors.Is(err, repository.ErrContactExists) {
			return ctx.JSON(http.StatusConflict, dto.ErrorResponse{Status: "error", Message: err.Error()})
		}
		logrus.WithError(err).Error("Batch create failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Status: "error", Message: "internal server error"})
	}

	return ctx.JSON(http.StatusCreated, dto.BatchCreateResponse{Status: "COMPLETE", Results: created})
}

func requestedProperties(raw string) map[string]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, p := range strings.Split(raw, ",") {
		out[strings.ToLower(strings.TrimSpace(p))] = true
	}
	return out
}

// filterProperties keeps only the requested properties; nil keeps all.
func filterProperties(p dto.ContactProperties, keep map[string]bool) dto.ContactProperties {
	if keep == nil {
		return p
	}
	var out dto.ContactProperties
	if keep["email"] {
		out.Email = p.Email
	}
	if keep["firstname"] {
		out.FirstName = p.FirstName
	}
	if keep["lastname"] {
		out.LastName = p.LastName
	}
	if keep["phone"] {
		out.Phone = p.Phone
	}
	return out
}
