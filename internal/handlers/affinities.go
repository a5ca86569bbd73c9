package handlers

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sci-ndp/ndp-affinities/pkg/events"
	"github.com/sci-ndp/ndp-affinities/pkg/metrics"
	"github.com/sci-ndp/ndp-affinities/pkg/models"
	"github.com/sci-ndp/ndp-affinities/pkg/repositories"
	"github.com/sci-ndp/ndp-affinities/pkg/utils"
)

// AffinityHandler handles affinity triple API requests
type AffinityHandler struct {
	repo     repositories.AffinityRepo
	datasets repositories.DatasetRepo
	emitter  *events.Emitter
}

// NewAffinityHandler creates a new affinity triple handler
func NewAffinityHandler(
	repo repositories.AffinityRepo,
	datasets repositories.DatasetRepo,
	emitter *events.Emitter,
) *AffinityHandler {
	return &AffinityHandler{
		repo:     repo,
		datasets: datasets,
		emitter:  emitter,
	}
}

// CreateAffinityRequest is the request body for creating an affinity triple.
// All fields are optional; a triple need not reference any entity.
type CreateAffinityRequest struct {
	DatasetUID   *uuid.UUID     `json:"dataset_uid,omitempty"`
	EndpointUIDs []uuid.UUID    `json:"endpoint_uids,omitempty"`
	ServiceUIDs  []uuid.UUID    `json:"service_uids,omitempty"`
	Attrs        map[string]any `json:"attrs,omitempty"`
	Version      *int           `json:"version,omitempty"`
}

// RegisterRoutes registers the affinity triple routes
func (h *AffinityHandler) RegisterRoutes(g *echo.Group) {
	affinities := g.Group("/affinities")
	affinities.POST("", h.Create)
	affinities.GET("", h.List)
	affinities.GET("/:triple_uid", h.Get)
	affinities.PUT("/:triple_uid", h.Update)
	affinities.DELETE("/:triple_uid", h.Delete)
}

// checkDataset verifies a referenced dataset exists. Endpoint and service
// membership lists are deliberately unchecked; dangling members are
// tolerated by the resolver.
func (h *AffinityHandler) checkDataset(ctx context.Context, datasetUID *uuid.UUID) error {
	if datasetUID == nil {
		return nil
	}

	if ok, err := h.datasets.Exists(ctx, *datasetUID); err != nil {
		return err
	} else if !ok {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "Dataset '%s' not found", *datasetUID)
	}

	return nil
}

// Create handles POST /affinities
func (h *AffinityHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[CreateAffinityRequest](c)
	if err != nil {
		return err
	}

	if err := h.checkDataset(ctx, req.DatasetUID); err != nil {
		return err
	}

	triple, err := h.repo.Create(ctx, &models.AffinityTriple{
		DatasetUID:   req.DatasetUID,
		EndpointUIDs: req.EndpointUIDs,
		ServiceUIDs:  req.ServiceUIDs,
		Attrs:        req.Attrs,
		Version:      req.Version,
	})
	if err != nil {
		metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "affinity", "operation": "create", "outcome": "error"}).Inc()
		return err
	}

	metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "affinity", "operation": "create", "outcome": "success"}).Inc()
	h.emitter.EmitCreated(ctx, "affinity", triple.TripleUID, triple)

	return CreatedResponse(c, triple)
}

// List handles GET /affinities
func (h *AffinityHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	skip, limit, err := ParseListParams(c)
	if err != nil {
		return err
	}

	triples, err := h.repo.List(ctx, skip, limit)
	if err != nil {
		return err
	}

	return SuccessResponse(c, triples)
}

// Get handles GET /affinities/:triple_uid
func (h *AffinityHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	tripleUID, err := ParseUUID(c, "triple_uid")
	if err != nil {
		return err
	}

	triple, err := h.repo.Get(ctx, tripleUID)
	if err != nil {
		return err
	}

	return SuccessResponse(c, triple)
}

// Update handles PUT /affinities/:triple_uid
func (h *AffinityHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	tripleUID, err := ParseUUID(c, "triple_uid")
	if err != nil {
		return err
	}

	update, err := utils.BindRequest[repositories.AffinityUpdate](c)
	if err != nil {
		return err
	}

	if err := h.checkDataset(ctx, update.DatasetUID); err != nil {
		return err
	}

	triple, err := h.repo.Update(ctx, tripleUID, update)
	if err != nil {
		metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "affinity", "operation": "update", "outcome": "error"}).Inc()
		return err
	}

	metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "affinity", "operation": "update", "outcome": "success"}).Inc()
	h.emitter.EmitUpdated(ctx, "affinity", triple.TripleUID, triple)

	return SuccessResponse(c, triple)
}

// Delete handles DELETE /affinities/:triple_uid
func (h *AffinityHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	tripleUID, err := ParseUUID(c, "triple_uid")
	if err != nil {
		return err
	}

	if err := h.repo.Delete(ctx, tripleUID); err != nil {
		metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "affinity", "operation": "delete", "outcome": "error"}).Inc()
		return err
	}

	metrics.EntityOperationsTotal.With(prometheus.Labels{"kind": "affinity", "operation": "delete", "outcome": "success"}).Inc()
	h.emitter.EmitDeleted(ctx, "affinity", tripleUID)

	return NoContentResponse(c)
}
