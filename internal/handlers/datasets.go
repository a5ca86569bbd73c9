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

// DatasetHandler handles dataset API requests
type DatasetHandler struct {
	repo    repositories.DatasetRepo
	emitter *events.Emitter
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(repo repositories.DatasetRepo, emitter *events.Emitter) *DatasetHandler {
	return &DatasetHandler{
		repo:    repo,
		emitter: emitter,
	}
}

// CreateDatasetRequest is the request body for creating a dataset
type CreateDatasetRequest struct {
	Title    *string        `json:"title,omitempty"`
	SourceEP *string        `json:"source_ep,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RegisterRoutes registers the dataset routes
func (h *DatasetHandler) RegisterRoutes(g *echo.Group) {
	datasets := g.Group("/datasets")
	datasets.POST("", h.Create)
	datasets.GET("", h.List)
	datasets.GET("/:uid", h.Get)
	datasets.PUT("/:uid", h.Update)
	datasets.DELETE("/:uid", h.Delete)
}

// Create handles POST /datasets
func (h *DatasetHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[CreateDatasetRequest](c)
	if err != nil {
		return err
	}

	dataset, err := h.repo.Create(ctx, &models.Dataset{
		Title:    req.Title,
		SourceEP: req.SourceEP,
		Metadata: req.Metadata,
	})
	if err != nil {
		metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "dataset", "operation": "create", "outcome": "error"}).Inc()
		return err
	}

	metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "dataset", "operation": "create", "outcome": "success"}).Inc()
	h.emitter.EmitCreated(ctx, "dataset", dataset.UID, dataset)

	return CreatedResponse(c, dataset)
}

// List handles GET /datasets
func (h *DatasetHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	skip, limit, err := ParseListParams(c)
	if err != nil {
		return err
	}

	datasets, err := h.repo.List(ctx, skip, limit)
	if err != nil {
		return err
	}

	return SuccessResponse(c, datasets)
}

// Get handles GET /datasets/:uid
func (h *DatasetHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := ParseUUID(c, "uid")
	if err != nil {
		return err
	}

	dataset, err := h.repo.Get(ctx, uid)
	if err != nil {
		return err
	}

	return SuccessResponse(c, dataset)
}

// Update handles PUT /datasets/:uid
func (h *DatasetHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := ParseUUID(c, "uid")
	if err != nil {
		return err
	}

	update, err := utils.BindRequest[repositories.DatasetUpdate](c)
	if err != nil {
		return err
	}

	dataset, err := h.repo.Update(ctx, uid, update)
	if err != nil {
		metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "dataset", "operation": "update", "outcome": "error"}).Inc()
		return err
	}

	metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "dataset", "operation": "update", "outcome": "success"}).Inc()
	h.emitter.EmitUpdated(ctx, "dataset", dataset.UID, dataset)

	return SuccessResponse(c, dataset)
}

// Delete handles DELETE /datasets/:uid
func (h *DatasetHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := ParseUUID(c, "uid")
	if err != nil {
		return err
	}

	if err := h.repo.Delete(ctx, uid); err != nil {
		metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "dataset", "operation": "delete", "outcome": "error"}).Inc()
		return err
	}

	metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "dataset", "operation": "delete", "outcome": "success"}).Inc()
	h.emitter.EmitDeleted(ctx, "dataset", uid)

	return NoContentResponse(c)
}
