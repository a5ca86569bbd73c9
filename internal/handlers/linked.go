package handlers

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sci-ndp/ndp-affinities/pkg/linked"
	"github.com/sci-ndp/ndp-affinities/pkg/metrics"
)

// LinkedHandler serves the linked-entities query
type LinkedHandler struct {
	resolver *linked.Resolver
}

// NewLinkedHandler creates a new linked-entities handler
func NewLinkedHandler(resolver *linked.Resolver) *LinkedHandler {
	return &LinkedHandler{resolver: resolver}
}

// RegisterRoutes registers the linked-entities route
func (h *LinkedHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/linked/:uid", h.Resolve)
}

// Resolve handles GET /linked/:uid
func (h *LinkedHandler) Resolve(c echo.Context) error {
	ctx := c.Request().Context()

	uid, err := ParseUUID(c, "uid")
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := h.resolver.Resolve(ctx, uid)
	if err != nil {
		return err
	}

	metrics.LinkedResolutionDuration.Observe(time.Since(start).Seconds())
	metrics.LinkedResolutionsTotal.With(prometheus.Labels{"input_kind": string(result.InputType)}).Inc()
	metrics.LinkedResolutionNeighbors.Observe(float64(len(result.Datasets) + len(result.Endpoints) + len(result.Services)))

	return SuccessResponse(c, result)
}
