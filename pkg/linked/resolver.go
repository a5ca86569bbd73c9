package linked

import (
	"context"
	"net/http"
	"sort"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/sci-ndp/ndp-affinities/pkg/models"
	"github.com/sci-ndp/ndp-affinities/pkg/repositories"
	"github.com/sci-ndp/ndp-affinities/pkg/tracing"
)

// Resolver computes the one-hop linked-entities view. Given any uid it
// determines which entity kind the uid belongs to, gathers neighbor uids
// from the pairwise link tables and from affinity triple membership,
// deduplicates across both sources, strips the input itself, and
// materializes the survivors as {uid, name} nodes sorted by string uid.
type Resolver struct {
	datasets         repositories.DatasetRepo
	endpoints        repositories.EndpointRepo
	services         repositories.ServiceRepo
	datasetEndpoints repositories.DatasetEndpointRepo
	datasetServices  repositories.DatasetServiceRepo
	serviceEndpoints repositories.ServiceEndpointRepo
	affinities       repositories.AffinityRepo
	logger           ectologger.Logger
}

// NewResolver creates a new linked-entities resolver
func NewResolver(
	datasets repositories.DatasetRepo,
	endpoints repositories.EndpointRepo,
	services repositories.ServiceRepo,
	datasetEndpoints repositories.DatasetEndpointRepo,
	datasetServices repositories.DatasetServiceRepo,
	serviceEndpoints repositories.ServiceEndpointRepo,
	affinities repositories.AffinityRepo,
	logger ectologger.Logger,
) *Resolver {
	return &Resolver{
		datasets:         datasets,
		endpoints:        endpoints,
		services:         services,
		datasetEndpoints: datasetEndpoints,
		datasetServices:  datasetServices,
		serviceEndpoints: serviceEndpoints,
		affinities:       affinities,
		logger:           logger,
	}
}

// uidSet collects neighbor uids with identifier-equality deduplication.
type uidSet map[uuid.UUID]struct{}

func (s uidSet) add(uid uuid.UUID) {
	s[uid] = struct{}{}
}

func (s uidSet) addAll(uids []uuid.UUID) {
	for _, uid := range uids {
		s[uid] = struct{}{}
	}
}

func (s uidSet) remove(uid uuid.UUID) {
	delete(s, uid)
}

func (s uidSet) slice() []uuid.UUID {
	uids := make([]uuid.UUID, 0, len(s))
	for uid := range s {
		uids = append(uids, uid)
	}
	return uids
}

// Resolve returns every dataset, endpoint, and service one hop away from
// uid. Fails with NotFound only when uid matches no entity table; dangling
// references in link or affinity rows are silently absent from the result.
func (r *Resolver) Resolve(ctx context.Context, uid uuid.UUID) (*models.LinkedEntities, error) {
	ctx, span := tracing.StartSpan(ctx, "Resolver.Resolve")
	defer span.End()

	kind, err := r.classify(ctx, uid)
	if err != nil {
		return nil, err
	}

	datasetUIDs := uidSet{}
	endpointUIDs := uidSet{}
	serviceUIDs := uidSet{}

	switch kind {
	case models.EntityKindDataset:
		err = r.gatherForDataset(ctx, uid, endpointUIDs, serviceUIDs)
	case models.EntityKindEndpoint:
		err = r.gatherForEndpoint(ctx, uid, datasetUIDs, endpointUIDs, serviceUIDs)
	case models.EntityKindService:
		err = r.gatherForService(ctx, uid, datasetUIDs, endpointUIDs, serviceUIDs)
	}
	if err != nil {
		return nil, err
	}

	// The input never appears in its own neighborhood, even when an
	// affinity membership list references it.
	datasetUIDs.remove(uid)
	endpointUIDs.remove(uid)
	serviceUIDs.remove(uid)

	result := &models.LinkedEntities{
		InputUID:  uid,
		InputType: kind,
	}

	if result.Datasets, err = r.materializeDatasets(ctx, datasetUIDs); err != nil {
		return nil, err
	}
	if result.Endpoints, err = r.materializeEndpoints(ctx, endpointUIDs); err != nil {
		return nil, err
	}
	if result.Services, err = r.materializeServices(ctx, serviceUIDs); err != nil {
		return nil, err
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"uid":       uid,
		"kind":      kind,
		"datasets":  len(result.Datasets),
		"endpoints": len(result.Endpoints),
		"services":  len(result.Services),
	}).Debug("Resolved linked entities")

	return result, nil
}

// classify determines which entity table holds uid. At most one table can
// match since uids are drawn from a single namespace.
func (r *Resolver) classify(ctx context.Context, uid uuid.UUID) (models.EntityKind, error) {
	if ok, err := r.datasets.Exists(ctx, uid); err != nil {
		return "", err
	} else if ok {
		return models.EntityKindDataset, nil
	}

	if ok, err := r.services.Exists(ctx, uid); err != nil {
		return "", err
	} else if ok {
		return models.EntityKindService, nil
	}

	if ok, err := r.endpoints.Exists(ctx, uid); err != nil {
		return "", err
	} else if ok {
		return models.EntityKindEndpoint, nil
	}

	return "", httperror.NewHTTPError(http.StatusNotFound, "No dataset, endpoint, or service found for the given uid")
}

// gatherForDataset collects neighbors of a dataset. Datasets never yield
// dataset neighbors; resolution is one hop and dataset adjacency only flows
// inward from endpoints and services.
func (r *Resolver) gatherForDataset(ctx context.Context, uid uuid.UUID, endpointUIDs, serviceUIDs uidSet) error {
	epLinks, err := r.datasetEndpoints.ListByDataset(ctx, uid)
	if err != nil {
		return err
	}
	for _, link := range epLinks {
		endpointUIDs.add(link.EndpointUID)
	}

	svcLinks, err := r.datasetServices.ListByDataset(ctx, uid)
	if err != nil {
		return err
	}
	for _, link := range svcLinks {
		serviceUIDs.add(link.ServiceUID)
	}

	triples, err := r.affinities.ListByDataset(ctx, uid)
	if err != nil {
		return err
	}
	for _, triple := range triples {
		endpointUIDs.addAll(triple.EndpointUIDs)
		serviceUIDs.addAll(triple.ServiceUIDs)
	}

	return nil
}

func (r *Resolver) gatherForEndpoint(ctx context.Context, uid uuid.UUID, datasetUIDs, endpointUIDs, serviceUIDs uidSet) error {
	dsLinks, err := r.datasetEndpoints.ListByEndpoint(ctx, uid)
	if err != nil {
		return err
	}
	for _, link := range dsLinks {
		datasetUIDs.add(link.DatasetUID)
	}

	svcLinks, err := r.serviceEndpoints.ListByEndpoint(ctx, uid)
	if err != nil {
		return err
	}
	for _, link := range svcLinks {
		serviceUIDs.add(link.ServiceUID)
	}

	triples, err := r.affinities.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, triple := range triples {
		if !ectolinq.Contains(triple.EndpointUIDs, uid) {
			continue
		}
		if triple.DatasetUID != nil {
			datasetUIDs.add(*triple.DatasetUID)
		}
		endpointUIDs.addAll(triple.EndpointUIDs)
		serviceUIDs.addAll(triple.ServiceUIDs)
	}

	return nil
}

func (r *Resolver) gatherForService(ctx context.Context, uid uuid.UUID, datasetUIDs, endpointUIDs, serviceUIDs uidSet) error {
	dsLinks, err := r.datasetServices.ListByService(ctx, uid)
	if err != nil {
		return err
	}
	for _, link := range dsLinks {
		datasetUIDs.add(link.DatasetUID)
	}

	epLinks, err := r.serviceEndpoints.ListByService(ctx, uid)
	if err != nil {
		return err
	}
	for _, link := range epLinks {
		endpointUIDs.add(link.EndpointUID)
	}

	triples, err := r.affinities.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, triple := range triples {
		if !ectolinq.Contains(triple.ServiceUIDs, uid) {
			continue
		}
		if triple.DatasetUID != nil {
			datasetUIDs.add(*triple.DatasetUID)
		}
		endpointUIDs.addAll(triple.EndpointUIDs)
		serviceUIDs.addAll(triple.ServiceUIDs)
	}

	return nil
}

func (r *Resolver) materializeDatasets(ctx context.Context, uids uidSet) ([]models.LinkedNode, error) {
	datasets, err := r.datasets.GetByUIDs(ctx, uids.slice())
	if err != nil {
		return nil, err
	}

	nodes := ectolinq.Map(datasets, func(d models.Dataset) models.LinkedNode {
		return models.LinkedNode{UID: d.UID, Name: d.Title}
	})
	return sortNodes(nodes), nil
}

func (r *Resolver) materializeEndpoints(ctx context.Context, uids uidSet) ([]models.LinkedNode, error) {
	endpoints, err := r.endpoints.GetByUIDs(ctx, uids.slice())
	if err != nil {
		return nil, err
	}

	nodes := ectolinq.Map(endpoints, func(e models.Endpoint) models.LinkedNode {
		name := e.DisplayName()
		return models.LinkedNode{UID: e.UID, Name: &name}
	})
	return sortNodes(nodes), nil
}

func (r *Resolver) materializeServices(ctx context.Context, uids uidSet) ([]models.LinkedNode, error) {
	services, err := r.services.GetByUIDs(ctx, uids.slice())
	if err != nil {
		return nil, err
	}

	nodes := ectolinq.Map(services, func(s models.Service) models.LinkedNode {
		name := s.DisplayName()
		return models.LinkedNode{UID: s.UID, Name: &name}
	})
	return sortNodes(nodes), nil
}

// sortNodes orders by string uid. The ordering carries no meaning; it only
// makes output deterministic.
func sortNodes(nodes []models.LinkedNode) []models.LinkedNode {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].UID.String() < nodes[j].UID.String()
	})
	return nodes
}
