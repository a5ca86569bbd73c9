package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sci-ndp/ndp-affinities/pkg/events"
	"github.com/sci-ndp/ndp-affinities/pkg/metrics"
	"github.com/sci-ndp/ndp-affinities/pkg/models"
	"github.com/sci-ndp/ndp-affinities/pkg/repositories"
	"github.com/sci-ndp/ndp-affinities/pkg/utils"
)

// ServiceHandler handles service API requests
type ServiceHandler struct {
	repo    repositories.ServiceRepo
	emitter *events.Emitter
}

// NewServiceHandler creates a new service handler
func NewServiceHandler(repo repositories.ServiceRepo, emitter *events.Emitter) *ServiceHandler {
	return &ServiceHandler{
		repo:    repo,
		emitter: emitter,
	}
}

// CreateServiceRequest is the request body for creating a service
type CreateServiceRequest struct {
	Type       *string        `json:"type,omitempty"`
	OpenAPIURL *string        `json:"openapi_url,omitempty"`
	Version    *string        `json:"version,omitempty"`
	SourceEP   *string        `json:"source_ep,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// RegisterRoutes registers the service routes
func (h *ServiceHandler) RegisterRoutes(g *echo.Group) {
	services := g.Group("/services")
	services.POST("", h.Create)
	services.GET("", h.List)
	services.GET("/:uid", h.Get)
	services.PUT("/:uid", h.Update)
	services.DELETE("/:uid", h.Delete)
}

// Create handles POST /services
func (h *ServiceHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[CreateServiceRequest](c)
	if err != nil {
		return err
	}

	service, err := h.repo.Create(ctx, &models.Service{
		Type:       req.Type,
		OpenAPIURL: req.OpenAPIURL,
		Version:    req.Version,
		SourceEP:   req.SourceEP,
		Metadata:   req.Metadata,
	})
	if err != nil {
		metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "service", "operation": "create", "outcome": "error"}).Inc()
		return err
	}

	metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "service", "operation": "create", "outcome": "success"}).Inc()
	h.emitter.EmitCreated(ctx, "service", service.UID, service)

	return CreatedResponse(c, service)
}

// List handles GET /services
func (h *ServiceHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	skip, limit, err := ParseListParams(c)
	if err != nil {
		return err
	}

	services, err := h.repo.List(ctx, skip, limit)
	if err != nil {
		return err
	}

	return SuccessResponse(c, services)
}

// Get handles GET /services/:uid
func (h *ServiceHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := ParseUUID(c, "uid")
	if err != nil {
		return err
	}

	service, err := h.repo.Get(ctx, uid)
	if err != nil {
		return err
	}

	return SuccessResponse(c, service)
}

// Update handles PUT /services/:uid
func (h *ServiceHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := ParseUUID(c, "uid")
	if err != nil {
		return err
	}

	update, err := utils.BindRequest[repositories.ServiceUpdate](c)
	if err != nil {
		return err
	}

	service, err := h.repo.Update(ctx, uid, update)
	if err != nil {
		metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "service", "operation": "update", "outcome": "error"}).Inc()
		return err
	}

	metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "service", "operation": "update", "outcome": "success"}).Inc()
	h.emitter.EmitUpdated(ctx, "service", service.UID, service)

	return SuccessResponse(c, service)
}

// Delete handles DELETE /services/:uid
func (h *ServiceHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := ParseUUID(c, "uid")
	if err != nil {
		return err
	}

	if err := h.repo.Delete(ctx, uid); err != nil {
		metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "service", "operation": "delete", "outcome": "error"}).Inc()
		return err
	}

	metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "service", "operation": "delete", "outcome": "success"}).Inc()
	h.emitter.EmitDeleted(ctx, "service", uid)

	return NoContentResponse(c)
}
