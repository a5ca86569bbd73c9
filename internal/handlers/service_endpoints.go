package handlers

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sci-ndp/ndp-affinities/pkg/events"
	"github.com/sci-ndp/ndp-affinities/pkg/models"
	"github.com/sci-ndp/ndp-affinities/pkg/repositories"
	"github.com/sci-ndp/ndp-affinities/pkg/utils"
)

// ServiceEndpointHandler handles service-endpoint link API requests
type ServiceEndpointHandler struct {
	repo      repositories.ServiceEndpointRepo
	services  repositories.ServiceRepo
	endpoints repositories.EndpointRepo
	emitter   *events.Emitter
}

// NewServiceEndpointHandler creates a new service-endpoint link handler
func NewServiceEndpointHandler(
	repo repositories.ServiceEndpointRepo,
	services repositories.ServiceRepo,
	endpoints repositories.EndpointRepo,
	emitter *events.Emitter,
) *ServiceEndpointHandler {
	return &ServiceEndpointHandler{
		repo:      repo,
		services:  services,
		endpoints: endpoints,
		emitter:   emitter,
	}
}

// CreateServiceEndpointRequest is the request body for creating a link
type CreateServiceEndpointRequest struct {
	ServiceUID  uuid.UUID      `json:"service_uid" validate:"required"`
	EndpointUID uuid.UUID      `json:"endpoint_uid" validate:"required"`
	Role        *string        `json:"role,omitempty"`
	Attrs       map[string]any `json:"attrs,omitempty"`
}

// RegisterRoutes registers the service-endpoint link routes
func (h *ServiceEndpointHandler) RegisterRoutes(g *echo.Group) {
	links := g.Group("/service-endpoints")
	links.POST("", h.Create)
	links.GET("", h.List)
	links.GET("/:service_uid/:endpoint_uid", h.Get)
	links.DELETE("/:service_uid/:endpoint_uid", h.Delete)
}

func (h *ServiceEndpointHandler) checkReferences(ctx context.Context, serviceUID, endpointUID uuid.UUID) error {
	if ok, err := h.services.Exists(ctx, serviceUID); err != nil {
		return err
	} else if !ok {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "Service '%s' not found", serviceUID)
	}

	if ok, err := h.endpoints.Exists(ctx, endpointUID); err != nil {
		return err
	} else if !ok {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "Endpoint '%s' not found", endpointUID)
	}

	return nil
}

// Create handles POST /service-endpoints. Re-posting an existing pair
// overwrites role/attrs instead of erroring.
func (h *ServiceEndpointHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[CreateServiceEndpointRequest](c)
	if err != nil {
		return err
	}

	if err := h.checkReferences(ctx, req.ServiceUID, req.EndpointUID); err != nil {
		return err
	}

	link, err := h.repo.Upsert(ctx, &models.ServiceEndpoint{
		ServiceUID:  req.ServiceUID,
		EndpointUID: req.EndpointUID,
		Role:        req.Role,
		Attrs:       req.Attrs,
	})
	if err != nil {
		return err
	}

	h.emitter.EmitLinkCreated(ctx, "service_endpoint", link.ServiceUID, link.EndpointUID)

	return CreatedResponse(c, link)
}

// List handles GET /service-endpoints
func (h *ServiceEndpointHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	skip, limit, err := ParseListParams(c)
	if err != nil {
		return err
	}

	links, err := h.repo.List(ctx, skip, limit)
	if err != nil {
		return err
	}

	return SuccessResponse(c, links)
}

// Get handles GET /service-endpoints/:service_uid/:endpoint_uid
func (h *ServiceEndpointHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	serviceUID, err := ParseUUID(c, "service_uid")
	if err != nil {
		return err
	}
	endpointUID, err := ParseUUID(c, "endpoint_uid")
	if err != nil {
		return err
	}

	link, err := h.repo.GetByPair(ctx, serviceUID, endpointUID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, link)
}

// Delete handles DELETE /service-endpoints/:service_uid/:endpoint_uid
func (h *ServiceEndpointHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	serviceUID, err := ParseUUID(c, "service_uid")
	if err != nil {
		return err
	}
	endpointUID, err := ParseUUID(c, "endpoint_uid")
	if err != nil {
		return err
	}

	if err := h.repo.DeleteByPair(ctx, serviceUID, endpointUID); err != nil {
		return err
	}

	h.emitter.EmitLinkDeleted(ctx, "service_endpoint", serviceUID, endpointUID)

	return NoContentResponse(c)
}
