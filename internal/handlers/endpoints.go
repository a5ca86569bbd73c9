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

// EndpointHandler handles endpoint API requests
type EndpointHandler struct {
	repo    repositories.EndpointRepo
	emitter *events.Emitter
}

// NewEndpointHandler creates a new endpoint handler
func NewEndpointHandler(repo repositories.EndpointRepo, emitter *events.Emitter) *EndpointHandler {
	return &EndpointHandler{
		repo:    repo,
		emitter: emitter,
	}
}

// CreateEndpointRequest is the request body for creating an endpoint
type CreateEndpointRequest struct {
	Kind     string         `json:"kind" validate:"required"`
	URL      *string        `json:"url,omitempty"`
	SourceEP *string        `json:"source_ep,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RegisterRoutes registers the endpoint routes. The collection path is /ep,
// kept short because endpoint uids show up in URLs a lot.
func (h *EndpointHandler) RegisterRoutes(g *echo.Group) {
	endpoints := g.Group("/ep")
	endpoints.POST("", h.Create)
	endpoints.GET("", h.List)
	endpoints.GET("/:uid", h.Get)
	endpoints.PUT("/:uid", h.Update)
	endpoints.DELETE("/:uid", h.Delete)
}

// Create handles POST /ep
func (h *EndpointHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[CreateEndpointRequest](c)
	if err != nil {
		return err
	}

	endpoint, err := h.repo.Create(ctx, &models.Endpoint{
		Kind:     req.Kind,
		URL:      req.URL,
		SourceEP: req.SourceEP,
		Metadata: req.Metadata,
	})
	if err != nil {
		metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "endpoint", "operation": "create", "outcome": "error"}).Inc()
		return err
	}

	metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "endpoint", "operation": "create", "outcome": "success"}).Inc()
	h.emitter.EmitCreated(ctx, "endpoint", endpoint.UID, endpoint)

	return CreatedResponse(c, endpoint)
}

// List handles GET /ep
func (h *EndpointHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	skip, limit, err := ParseListParams(c)
	if err != nil {
		return err
	}

	endpoints, err := h.repo.List(ctx, skip, limit)
	if err != nil {
		return err
	}

	return SuccessResponse(c, endpoints)
}

// Get handles GET /ep/:uid
func (h *EndpointHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := ParseUUID(c, "uid")
	if err != nil {
		return err
	}

	endpoint, err := h.repo.Get(ctx, uid)
	if err != nil {
		return err
	}

	return SuccessResponse(c, endpoint)
}

// Update handles PUT /ep/:uid
func (h *EndpointHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := ParseUUID(c, "uid")
	if err != nil {
		return err
	}

	update, err := utils.BindRequest[repositories.EndpointUpdate](c)
	if err != nil {
		return err
	}

	endpoint, err := h.repo.Update(ctx, uid, update)
	if err != nil {
		metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "endpoint", "operation": "update", "outcome": "error"}).Inc()
		return err
	}

	metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "endpoint", "operation": "update", "outcome": "success"}).Inc()
	h.emitter.EmitUpdated(ctx, "endpoint", endpoint.UID, endpoint)

	return SuccessResponse(c, endpoint)
}

// Delete handles DELETE /ep/:uid
func (h *EndpointHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := ParseUUID(c, "uid")
	if err != nil {
		return err
	}

	if err := h.repo.Delete(ctx, uid); err != nil {
		metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "endpoint", "operation": "delete", "outcome": "error"}).Inc()
		return err
	}

	metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "endpoint", "operation": "delete", "outcome": "success"}).Inc()
	h.emitter.EmitDeleted(ctx, "endpoint", uid)

	return NoContentResponse(c)
}
