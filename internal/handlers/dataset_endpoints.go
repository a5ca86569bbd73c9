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

// DatasetEndpointHandler handles dataset-endpoint link API requests
type DatasetEndpointHandler struct {
	repo      repositories.DatasetEndpointRepo
	datasets  repositories.DatasetRepo
	endpoints repositories.EndpointRepo
	emitter   *events.Emitter
}

// NewDatasetEndpointHandler creates a new dataset-endpoint link handler
func NewDatasetEndpointHandler(
	repo repositories.DatasetEndpointRepo,
	datasets repositories.DatasetRepo,
	endpoints repositories.EndpointRepo,
	emitter *events.Emitter,
) *DatasetEndpointHandler {
	return &DatasetEndpointHandler{
		repo:      repo,
		datasets:  datasets,
		endpoints: endpoints,
		emitter:   emitter,
	}
}

// CreateDatasetEndpointRequest is the request body for creating a link
type CreateDatasetEndpointRequest struct {
	DatasetUID  uuid.UUID      `json:"dataset_uid" validate:"required"`
	EndpointUID uuid.UUID      `json:"endpoint_uid" validate:"required"`
	Role        *string        `json:"role,omitempty"`
	Attrs       map[string]any `json:"attrs,omitempty"`
}

// RegisterRoutes registers the dataset-endpoint link routes
func (h *DatasetEndpointHandler) RegisterRoutes(g *echo.Group) {
	links := g.Group("/dataset-endpoints")
	links.POST("", h.Create)
	links.GET("", h.List)
	links.GET("/:dataset_uid/:endpoint_uid", h.Get)
	links.DELETE("/:dataset_uid/:endpoint_uid", h.Delete)
}

// checkReferences verifies both sides of the link exist before insert
func (h *DatasetEndpointHandler) checkReferences(ctx context.Context, datasetUID, endpointUID uuid.UUID) error {
	if ok, err := h.datasets.Exists(ctx, datasetUID); err != nil {
		return err
	} else if !ok {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "Dataset '%s' not found", datasetUID)
	}

	if ok, err := h.endpoints.Exists(ctx, endpointUID); err != nil {
		return err
	} else if !ok {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "Endpoint '%s' not found", endpointUID)
	}

	return nil
}

// Create handles POST /dataset-endpoints. Re-posting an existing pair
// overwrites role/attrs instead of erroring.
func (h *DatasetEndpointHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[CreateDatasetEndpointRequest](c)
	if err != nil {
		return err
	}

	if err := h.checkReferences(ctx, req.DatasetUID, req.EndpointUID); err != nil {
		return err
	}

	link, err := h.repo.Upsert(ctx, &models.DatasetEndpoint{
		DatasetUID:  req.DatasetUID,
		EndpointUID: req.EndpointUID,
		Role:        req.Role,
		Attrs:       req.Attrs,
	})
	if err != nil {
		return err
	}

	h.emitter.EmitLinkCreated(ctx, "dataset_endpoint", link.DatasetUID, link.EndpointUID)

	return CreatedResponse(c, link)
}

// List handles GET /dataset-endpoints
func (h *DatasetEndpointHandler) List(c echo.Context) error {
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

// Get handles GET /dataset-endpoints/:dataset_uid/:endpoint_uid
func (h *DatasetEndpointHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	datasetUID, err := ParseUUID(c, "dataset_uid")
	if err != nil {
		return err
	}
	endpointUID, err := ParseUUID(c, "endpoint_uid")
	if err != nil {
		return err
	}

	link, err := h.repo.GetByPair(ctx, datasetUID, endpointUID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, link)
}

// Delete handles DELETE /dataset-endpoints/:dataset_uid/:endpoint_uid
func (h *DatasetEndpointHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	datasetUID, err := ParseUUID(c, "dataset_uid")
	if err != nil {
		return err
	}
	endpointUID, err := ParseUUID(c, "endpoint_uid")
	if err != nil {
		return err
	}

	if err := h.repo.DeleteByPair(ctx, datasetUID, endpointUID); err != nil {
		return err
	}

	h.emitter.EmitLinkDeleted(ctx, "dataset_endpoint", datasetUID, endpointUID)

	return NoContentResponse(c)
}
