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

// DatasetServiceHandler handles dataset-service link API requests
type DatasetServiceHandler struct {
	repo     repositories.DatasetServiceRepo
	datasets repositories.DatasetRepo
	services repositories.ServiceRepo
	emitter  *events.Emitter
}

// NewDatasetServiceHandler creates a new dataset-service link handler
func NewDatasetServiceHandler(
	repo repositories.DatasetServiceRepo,
	datasets repositories.DatasetRepo,
	services repositories.ServiceRepo,
	emitter *events.Emitter,
) *DatasetServiceHandler {
	return &DatasetServiceHandler{
		repo:     repo,
		datasets: datasets,
		services: services,
		emitter:  emitter,
	}
}

// CreateDatasetServiceRequest is the request body for creating a link
type CreateDatasetServiceRequest struct {
	DatasetUID uuid.UUID      `json:"dataset_uid" validate:"required"`
	ServiceUID uuid.UUID      `json:"service_uid" validate:"required"`
	Role       *string        `json:"role,omitempty"`
	Attrs      map[string]any `json:"attrs,omitempty"`
}

// RegisterRoutes registers the dataset-service link routes
func (h *DatasetServiceHandler) RegisterRoutes(g *echo.Group) {
	links := g.Group("/dataset-services")
	links.POST("", h.Create)
	links.GET("", h.List)
	links.GET("/:dataset_uid/:service_uid", h.Get)
	links.DELETE("/:dataset_uid/:service_uid", h.Delete)
}

func (h *DatasetServiceHandler) checkReferences(ctx context.Context, datasetUID, serviceUID uuid.UUID) error {
	if ok, err := h.datasets.Exists(ctx, datasetUID); err != nil {
		return err
	} else if !ok {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "Dataset '%s' not found", datasetUID)
	}

	if ok, err := h.services.Exists(ctx, serviceUID); err != nil {
		return err
	} else if !ok {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "Service '%s' not found", serviceUID)
	}

	return nil
}

// Create handles POST /dataset-services. Re-posting an existing pair
// overwrites role/attrs instead of erroring.
func (h *DatasetServiceHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[CreateDatasetServiceRequest](c)
	if err != nil {
		return err
	}

	if err := h.checkReferences(ctx, req.DatasetUID, req.ServiceUID); err != nil {
		return err
	}

	link, err := h.repo.Upsert(ctx, &models.DatasetService{
		DatasetUID: req.DatasetUID,
		ServiceUID: req.ServiceUID,
		Role:       req.Role,
		Attrs:      req.Attrs,
	})
	if err != nil {
		return err
	}

	h.emitter.EmitLinkCreated(ctx, "dataset_service", link.DatasetUID, link.ServiceUID)

	return CreatedResponse(c, link)
}

// List handles GET /dataset-services
func (h *DatasetServiceHandler) List(c echo.Context) error {
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

// Get handles GET /dataset-services/:dataset_uid/:service_uid
func (h *DatasetServiceHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	datasetUID, err := ParseUUID(c, "dataset_uid")
	if err != nil {
		return err
	}
	serviceUID, err := ParseUUID(c, "service_uid")
	if err != nil {
		return err
	}

	link, err := h.repo.GetByPair(ctx, datasetUID, serviceUID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, link)
}

// Delete handles DELETE /dataset-services/:dataset_uid/:service_uid
func (h *DatasetServiceHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	datasetUID, err := ParseUUID(c, "dataset_uid")
	if err != nil {
		return err
	}
	serviceUID, err := ParseUUID(c, "service_uid")
	if err != nil {
		return err
	}

	if err := h.repo.DeleteByPair(ctx, datasetUID, serviceUID); err != nil {
		return err
	}

	h.emitter.EmitLinkDeleted(ctx, "dataset_service", datasetUID, serviceUID)

	return NoContentResponse(c)
}
