package linked

import (
	"context"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sci-ndp/ndp-affinities/pkg/models"
	"github.com/sci-ndp/ndp-affinities/pkg/repositories"
)

// graph is an in-memory stand-in for the seven table repositories, enough
// to drive the resolver without a database.
type graph struct {
	datasets         []models.Dataset
	endpoints        []models.Endpoint
	services         []models.Service
	datasetEndpoints []models.DatasetEndpoint
	datasetServices  []models.DatasetService
	serviceEndpoints []models.ServiceEndpoint
	affinities       []models.AffinityTriple
}

func (g *graph) resolver() *Resolver {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewResolver(
		&fakeDatasets{g},
		&fakeEndpoints{g},
		&fakeServices{g},
		&fakeDatasetEndpoints{g},
		&fakeDatasetServices{g},
		&fakeServiceEndpoints{g},
		&fakeAffinities{g},
		logger,
	)
}

type fakeDatasets struct{ g *graph }

func (f *fakeDatasets) List(ctx context.Context, offset, limit int) ([]models.Dataset, error) {
	panic("not used")
}

func (f *fakeDatasets) Get(ctx context.Context, uid uuid.UUID) (*models.Dataset, error) {
	panic("not used")
}

func (f *fakeDatasets) GetByUIDs(ctx context.Context, uids []uuid.UUID) ([]models.Dataset, error) {
	return ectolinq.Filter(f.g.datasets, func(d models.Dataset) bool {
		return ectolinq.Contains(uids, d.UID)
	}), nil
}

func (f *fakeDatasets) Exists(ctx context.Context, uid uuid.UUID) (bool, error) {
	for _, d := range f.g.datasets {
		if d.UID == uid {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDatasets) Create(ctx context.Context, dataset *models.Dataset) (*models.Dataset, error) {
	panic("not used")
}

func (f *fakeDatasets) Update(ctx context.Context, uid uuid.UUID, update repositories.DatasetUpdate) (*models.Dataset, error) {
	panic("not used")
}

func (f *fakeDatasets) Delete(ctx context.Context, uid uuid.UUID) error {
	panic("not used")
}

type fakeEndpoints struct{ g *graph }

func (f *fakeEndpoints) List(ctx context.Context, offset, limit int) ([]models.Endpoint, error) {
	panic("not used")
}

func (f *fakeEndpoints) Get(ctx context.Context, uid uuid.UUID) (*models.Endpoint, error) {
	panic("not used")
}

func (f *fakeEndpoints) GetByUIDs(ctx context.Context, uids []uuid.UUID) ([]models.Endpoint, error) {
	return ectolinq.Filter(f.g.endpoints, func(e models.Endpoint) bool {
		return ectolinq.Contains(uids, e.UID)
	}), nil
}

func (f *fakeEndpoints) Exists(ctx context.Context, uid uuid.UUID) (bool, error) {
	for _, e := range f.g.endpoints {
		if e.UID == uid {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEndpoints) Create(ctx context.Context, endpoint *models.Endpoint) (*models.Endpoint, error) {
	panic("not used")
}

func (f *fakeEndpoints) Update(ctx context.Context, uid uuid.UUID, update repositories.EndpointUpdate) (*models.Endpoint, error) {
	panic("not used")
}

func (f *fakeEndpoints) Delete(ctx context.Context, uid uuid.UUID) error {
	panic("not used")
}

type fakeServices struct{ g *graph }

func (f *fakeServices) List(ctx context.Context, offset, limit int) ([]models.Service, error) {
	panic("not used")
}

func (f *fakeServices) Get(ctx context.Context, uid uuid.UUID) (*models.Service, error) {
	panic("not used")
}

func (f *fakeServices) GetByUIDs(ctx context.Context, uids []uuid.UUID) ([]models.Service, error) {
	return ectolinq.Filter(f.g.services, func(s models.Service) bool {
		return ectolinq.Contains(uids, s.UID)
	}), nil
}

func (f *fakeServices) Exists(ctx context.Context, uid uuid.UUID) (bool, error) {
	for _, s := range f.g.services {
		if s.UID == uid {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeServices) Create(ctx context.Context, service *models.Service) (*models.Service, error) {
	panic("not used")
}

func (f *fakeServices) Update(ctx context.Context, uid uuid.UUID, update repositories.ServiceUpdate) (*models.Service, error) {
	panic("not used")
}

func (f *fakeServices) Delete(ctx context.Context, uid uuid.UUID) error {
	panic("not used")
}

type fakeDatasetEndpoints struct{ g *graph }

func (f *fakeDatasetEndpoints) List(ctx context.Context, offset, limit int) ([]models.DatasetEndpoint, error) {
	panic("not used")
}

func (f *fakeDatasetEndpoints) GetByPair(ctx context.Context, datasetUID, endpointUID uuid.UUID) (*models.DatasetEndpoint, error) {
	panic("not used")
}

func (f *fakeDatasetEndpoints) ListByDataset(ctx context.Context, datasetUID uuid.UUID) ([]models.DatasetEndpoint, error) {
	return ectolinq.Filter(f.g.datasetEndpoints, func(l models.DatasetEndpoint) bool {
		return l.DatasetUID == datasetUID
	}), nil
}

func (f *fakeDatasetEndpoints) ListByEndpoint(ctx context.Context, endpointUID uuid.UUID) ([]models.DatasetEndpoint, error) {
	return ectolinq.Filter(f.g.datasetEndpoints, func(l models.DatasetEndpoint) bool {
		return l.EndpointUID == endpointUID
	}), nil
}

func (f *fakeDatasetEndpoints) Upsert(ctx context.Context, link *models.DatasetEndpoint) (*models.DatasetEndpoint, error) {
	panic("not used")
}

func (f *fakeDatasetEndpoints) DeleteByPair(ctx context.Context, datasetUID, endpointUID uuid.UUID) error {
	panic("not used")
}

type fakeDatasetServices struct{ g *graph }

func (f *fakeDatasetServices) List(ctx context.Context, offset, limit int) ([]models.DatasetService, error) {
	panic("not used")
}

func (f *fakeDatasetServices) GetByPair(ctx context.Context, datasetUID, serviceUID uuid.UUID) (*models.DatasetService, error) {
	panic("not used")
}

func (f *fakeDatasetServices) ListByDataset(ctx context.Context, datasetUID uuid.UUID) ([]models.DatasetService, error) {
	return ectolinq.Filter(f.g.datasetServices, func(l models.DatasetService) bool {
		return l.DatasetUID == datasetUID
	}), nil
}

func (f *fakeDatasetServices) ListByService(ctx context.Context, serviceUID uuid.UUID) ([]models.DatasetService, error) {
	return ectolinq.Filter(f.g.datasetServices, func(l models.DatasetService) bool {
		return l.ServiceUID == serviceUID
	}), nil
}

func (f *fakeDatasetServices) Upsert(ctx context.Context, link *models.DatasetService) (*models.DatasetService, error) {
	panic("not used")
}

func (f *fakeDatasetServices) DeleteByPair(ctx context.Context, datasetUID, serviceUID uuid.UUID) error {
	panic("not used")
}

type fakeServiceEndpoints struct{ g *graph }

func (f *fakeServiceEndpoints) List(ctx context.Context, offset, limit int) ([]models.ServiceEndpoint, error) {
	panic("not used")
}

func (f *fakeServiceEndpoints) GetByPair(ctx context.Context, serviceUID, endpointUID uuid.UUID) (*models.ServiceEndpoint, error) {
	panic("not used")
}

func (f *fakeServiceEndpoints) ListByService(ctx context.Context, serviceUID uuid.UUID) ([]models.ServiceEndpoint, error) {
	return ectolinq.Filter(f.g.serviceEndpoints, func(l models.ServiceEndpoint) bool {
		return l.ServiceUID == serviceUID
	}), nil
}

func (f *fakeServiceEndpoints) ListByEndpoint(ctx context.Context, endpointUID uuid.UUID) ([]models.ServiceEndpoint, error) {
	return ectolinq.Filter(f.g.serviceEndpoints, func(l models.ServiceEndpoint) bool {
		return l.EndpointUID == endpointUID
	}), nil
}

func (f *fakeServiceEndpoints) Upsert(ctx context.Context, link *models.ServiceEndpoint) (*models.ServiceEndpoint, error) {
	panic("not used")
}

func (f *fakeServiceEndpoints) DeleteByPair(ctx context.Context, serviceUID, endpointUID uuid.UUID) error {
	panic("not used")
}

type fakeAffinities struct{ g *graph }

func (f *fakeAffinities) List(ctx context.Context, offset, limit int) ([]models.AffinityTriple, error) {
	panic("not used")
}

func (f *fakeAffinities) Get(ctx context.Context, tripleUID uuid.UUID) (*models.AffinityTriple, error) {
	panic("not used")
}

func (f *fakeAffinities) ListByDataset(ctx context.Context, datasetUID uuid.UUID) ([]models.AffinityTriple, error) {
	return ectolinq.Filter(f.g.affinities, func(t models.AffinityTriple) bool {
		return t.DatasetUID != nil && *t.DatasetUID == datasetUID
	}), nil
}

func (f *fakeAffinities) ListAll(ctx context.Context) ([]models.AffinityTriple, error) {
	return f.g.affinities, nil
}

func (f *fakeAffinities) Create(ctx context.Context, triple *models.AffinityTriple) (*models.AffinityTriple, error) {
	panic("not used")
}

func (f *fakeAffinities) Update(ctx context.Context, tripleUID uuid.UUID, update repositories.AffinityUpdate) (*models.AffinityTriple, error) {
	panic("not used")
}

func (f *fakeAffinities) Delete(ctx context.Context, tripleUID uuid.UUID) error {
	panic("not used")
}

func strPtr(s string) *string {
	return &s
}

func nodeUIDs(nodes []models.LinkedNode) []uuid.UUID {
	return ectolinq.Map(nodes, func(n models.LinkedNode) uuid.UUID { return n.UID })
}

func TestResolveUnknownUID(t *testing.T) {
	g := &graph{}
	r := g.resolver()

	_, err := r.Resolve(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	assert.Contains(t, err.Error(), "No dataset, endpoint, or service found")
}

func TestResolveDatasetDirectLinks(t *testing.T) {
	dataset := models.Dataset{UID: uuid.New(), Title: strPtr("climate observations")}
	endpoint := models.Endpoint{UID: uuid.New(), Kind: "http", URL: strPtr("https://data.example.org")}
	service := models.Service{UID: uuid.New(), Type: strPtr("compute")}

	g := &graph{
		datasets:  []models.Dataset{dataset},
		endpoints: []models.Endpoint{endpoint},
		services:  []models.Service{service},
		datasetEndpoints: []models.DatasetEndpoint{
			{DatasetUID: dataset.UID, EndpointUID: endpoint.UID},
		},
		datasetServices: []models.DatasetService{
			{DatasetUID: dataset.UID, ServiceUID: service.UID},
		},
	}

	result, err := g.resolver().Resolve(context.Background(), dataset.UID)
	require.NoError(t, err)

	assert.Equal(t, dataset.UID, result.InputUID)
	assert.Equal(t, models.EntityKindDataset, result.InputType)
	assert.Empty(t, result.Datasets)

	require.Len(t, result.Endpoints, 1)
	assert.Equal(t, endpoint.UID, result.Endpoints[0].UID)
	require.NotNil(t, result.Endpoints[0].Name)
	assert.Equal(t, "http: https://data.example.org", *result.Endpoints[0].Name)

	require.Len(t, result.Services, 1)
	assert.Equal(t, service.UID, result.Services[0].UID)
	require.NotNil(t, result.Services[0].Name)
	assert.Equal(t, "compute", *result.Services[0].Name)
}

func TestResolveDirectLinkSymmetry(t *testing.T) {
	dataset := models.Dataset{UID: uuid.New(), Title: strPtr("ds")}
	endpoint := models.Endpoint{UID: uuid.New(), Kind: "s3"}

	g := &graph{
		datasets:  []models.Dataset{dataset},
		endpoints: []models.Endpoint{endpoint},
		datasetEndpoints: []models.DatasetEndpoint{
			{DatasetUID: dataset.UID, EndpointUID: endpoint.UID},
		},
	}
	r := g.resolver()

	fromDataset, err := r.Resolve(context.Background(), dataset.UID)
	require.NoError(t, err)
	assert.Contains(t, nodeUIDs(fromDataset.Endpoints), endpoint.UID)

	fromEndpoint, err := r.Resolve(context.Background(), endpoint.UID)
	require.NoError(t, err)
	assert.Equal(t, models.EntityKindEndpoint, fromEndpoint.InputType)
	assert.Contains(t, nodeUIDs(fromEndpoint.Datasets), dataset.UID)
}

func TestResolveAffinityMembership(t *testing.T) {
	dataset := models.Dataset{UID: uuid.New(), Title: strPtr("ds")}
	e1 := models.Endpoint{UID: uuid.New(), Kind: "http"}
	e2 := models.Endpoint{UID: uuid.New(), Kind: "grpc"}
	s1 := models.Service{UID: uuid.New(), Type: strPtr("compute")}
	s2 := models.Service{UID: uuid.New(), Type: strPtr("index")}

	g := &graph{
		datasets:  []models.Dataset{dataset},
		endpoints: []models.Endpoint{e1, e2},
		services:  []models.Service{s1, s2},
		affinities: []models.AffinityTriple{
			{
				TripleUID:    uuid.New(),
				DatasetUID:   &dataset.UID,
				EndpointUIDs: []uuid.UUID{e1.UID, e2.UID},
				ServiceUIDs:  []uuid.UUID{s1.UID, s2.UID},
			},
		},
	}
	r := g.resolver()

	fromDataset, err := r.Resolve(context.Background(), dataset.UID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{e1.UID, e2.UID}, nodeUIDs(fromDataset.Endpoints))
	assert.ElementsMatch(t, []uuid.UUID{s1.UID, s2.UID}, nodeUIDs(fromDataset.Services))
	assert.Empty(t, fromDataset.Datasets)

	fromE1, err := r.Resolve(context.Background(), e1.UID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{dataset.UID}, nodeUIDs(fromE1.Datasets))
	assert.ElementsMatch(t, []uuid.UUID{e2.UID}, nodeUIDs(fromE1.Endpoints))
	assert.ElementsMatch(t, []uuid.UUID{s1.UID, s2.UID}, nodeUIDs(fromE1.Services))

	fromS1, err := r.Resolve(context.Background(), s1.UID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{dataset.UID}, nodeUIDs(fromS1.Datasets))
	assert.ElementsMatch(t, []uuid.UUID{e1.UID, e2.UID}, nodeUIDs(fromS1.Endpoints))
	assert.ElementsMatch(t, []uuid.UUID{s2.UID}, nodeUIDs(fromS1.Services))
}

func TestResolveNeverIncludesInput(t *testing.T) {
	endpoint := models.Endpoint{UID: uuid.New(), Kind: "http"}

	// Malformed data: the endpoint appears in its own membership list and
	// in a self-referencing link row.
	g := &graph{
		endpoints: []models.Endpoint{endpoint},
		affinities: []models.AffinityTriple{
			{
				TripleUID:    uuid.New(),
				EndpointUIDs: []uuid.UUID{endpoint.UID, endpoint.UID},
			},
		},
	}

	result, err := g.resolver().Resolve(context.Background(), endpoint.UID)
	require.NoError(t, err)
	assert.NotContains(t, nodeUIDs(result.Datasets), endpoint.UID)
	assert.NotContains(t, nodeUIDs(result.Endpoints), endpoint.UID)
	assert.NotContains(t, nodeUIDs(result.Services), endpoint.UID)
}

func TestResolveDeduplicatesAcrossSources(t *testing.T) {
	dataset := models.Dataset{UID: uuid.New(), Title: strPtr("ds")}
	endpoint := models.Endpoint{UID: uuid.New(), Kind: "http"}
	service := models.Service{UID: uuid.New(), Type: strPtr("compute")}

	// The same neighbors arrive through a direct link and through an
	// affinity triple; each must appear exactly once.
	g := &graph{
		datasets:  []models.Dataset{dataset},
		endpoints: []models.Endpoint{endpoint},
		services:  []models.Service{service},
		datasetEndpoints: []models.DatasetEndpoint{
			{DatasetUID: dataset.UID, EndpointUID: endpoint.UID},
		},
		datasetServices: []models.DatasetService{
			{DatasetUID: dataset.UID, ServiceUID: service.UID},
		},
		affinities: []models.AffinityTriple{
			{
				TripleUID:    uuid.New(),
				DatasetUID:   &dataset.UID,
				EndpointUIDs: []uuid.UUID{endpoint.UID},
				ServiceUIDs:  []uuid.UUID{service.UID},
			},
		},
	}

	result, err := g.resolver().Resolve(context.Background(), dataset.UID)
	require.NoError(t, err)
	assert.Len(t, result.Endpoints, 1)
	assert.Len(t, result.Services, 1)
}

func TestResolveToleratesDanglingReferences(t *testing.T) {
	dataset := models.Dataset{UID: uuid.New(), Title: strPtr("ds")}

	// Link and affinity rows point at entities that no longer exist; the
	// dangling uids silently drop out of the materialized result.
	g := &graph{
		datasets: []models.Dataset{dataset},
		datasetEndpoints: []models.DatasetEndpoint{
			{DatasetUID: dataset.UID, EndpointUID: uuid.New()},
		},
		affinities: []models.AffinityTriple{
			{
				TripleUID:   uuid.New(),
				DatasetUID:  &dataset.UID,
				ServiceUIDs: []uuid.UUID{uuid.New()},
			},
		},
	}

	result, err := g.resolver().Resolve(context.Background(), dataset.UID)
	require.NoError(t, err)
	assert.Empty(t, result.Endpoints)
	assert.Empty(t, result.Services)
}

func TestResolveSortsByStringUID(t *testing.T) {
	dataset := models.Dataset{UID: uuid.New(), Title: strPtr("ds")}

	endpoints := make([]models.Endpoint, 5)
	links := make([]models.DatasetEndpoint, 5)
	for i := range endpoints {
		endpoints[i] = models.Endpoint{UID: uuid.New(), Kind: "http"}
		links[i] = models.DatasetEndpoint{DatasetUID: dataset.UID, EndpointUID: endpoints[i].UID}
	}

	g := &graph{
		datasets:         []models.Dataset{dataset},
		endpoints:        endpoints,
		datasetEndpoints: links,
	}

	result, err := g.resolver().Resolve(context.Background(), dataset.UID)
	require.NoError(t, err)
	require.Len(t, result.Endpoints, 5)

	for i := 1; i < len(result.Endpoints); i++ {
		assert.Less(t, result.Endpoints[i-1].UID.String(), result.Endpoints[i].UID.String())
	}
}

func TestResolveEndpointNameFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		endpoint models.Endpoint
		expected func(e models.Endpoint) string
	}{
		{
			name:     "kind and url",
			endpoint: models.Endpoint{UID: uuid.New(), Kind: "http", URL: strPtr("https://x")},
			expected: func(e models.Endpoint) string { return "http: https://x" },
		},
		{
			name:     "kind only",
			endpoint: models.Endpoint{UID: uuid.New(), Kind: "s3"},
			expected: func(e models.Endpoint) string { return "s3" },
		},
		{
			name:     "url only",
			endpoint: models.Endpoint{UID: uuid.New(), URL: strPtr("https://y")},
			expected: func(e models.Endpoint) string { return "https://y" },
		},
		{
			name:     "neither",
			endpoint: models.Endpoint{UID: uuid.New()},
			expected: func(e models.Endpoint) string { return e.UID.String() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataset := models.Dataset{UID: uuid.New()}
			g := &graph{
				datasets:  []models.Dataset{dataset},
				endpoints: []models.Endpoint{tt.endpoint},
				datasetEndpoints: []models.DatasetEndpoint{
					{DatasetUID: dataset.UID, EndpointUID: tt.endpoint.UID},
				},
			}

			result, err := g.resolver().Resolve(context.Background(), dataset.UID)
			require.NoError(t, err)
			require.Len(t, result.Endpoints, 1)
			require.NotNil(t, result.Endpoints[0].Name)
			assert.Equal(t, tt.expected(tt.endpoint), *result.Endpoints[0].Name)
		})
	}
}

func TestResolveServiceNameFallbacks(t *testing.T) {
	dataset := models.Dataset{UID: uuid.New()}
	svcWithURL := models.Service{UID: uuid.New(), OpenAPIURL: strPtr("https://svc/openapi.json")}
	svcBare := models.Service{UID: uuid.New()}

	g := &graph{
		datasets: []models.Dataset{dataset},
		services: []models.Service{svcWithURL, svcBare},
		datasetServices: []models.DatasetService{
			{DatasetUID: dataset.UID, ServiceUID: svcWithURL.UID},
			{DatasetUID: dataset.UID, ServiceUID: svcBare.UID},
		},
	}

	result, err := g.resolver().Resolve(context.Background(), dataset.UID)
	require.NoError(t, err)
	require.Len(t, result.Services, 2)

	names := map[uuid.UUID]string{}
	for _, node := range result.Services {
		require.NotNil(t, node.Name)
		names[node.UID] = *node.Name
	}
	assert.Equal(t, "https://svc/openapi.json", names[svcWithURL.UID])
	assert.Equal(t, svcBare.UID.String(), names[svcBare.UID])
}

func TestResolveFullScenario(t *testing.T) {
	dataset := models.Dataset{UID: uuid.New(), Title: strPtr("DS")}
	endpoint := models.Endpoint{UID: uuid.New(), Kind: "http"}
	service := models.Service{UID: uuid.New(), Type: strPtr("compute")}

	g := &graph{
		datasets:  []models.Dataset{dataset},
		endpoints: []models.Endpoint{endpoint},
		services:  []models.Service{service},
		datasetEndpoints: []models.DatasetEndpoint{
			{DatasetUID: dataset.UID, EndpointUID: endpoint.UID},
		},
		datasetServices: []models.DatasetService{
			{DatasetUID: dataset.UID, ServiceUID: service.UID},
		},
		serviceEndpoints: []models.ServiceEndpoint{
			{ServiceUID: service.UID, EndpointUID: endpoint.UID},
		},
		affinities: []models.AffinityTriple{
			{
				TripleUID:    uuid.New(),
				DatasetUID:   &dataset.UID,
				EndpointUIDs: []uuid.UUID{endpoint.UID},
				ServiceUIDs:  []uuid.UUID{service.UID},
			},
		},
	}
	r := g.resolver()

	fromDataset, err := r.Resolve(context.Background(), dataset.UID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{endpoint.UID}, nodeUIDs(fromDataset.Endpoints))
	assert.ElementsMatch(t, []uuid.UUID{service.UID}, nodeUIDs(fromDataset.Services))

	fromService, err := r.Resolve(context.Background(), service.UID)
	require.NoError(t, err)
	assert.Equal(t, models.EntityKindService, fromService.InputType)
	assert.ElementsMatch(t, []uuid.UUID{dataset.UID}, nodeUIDs(fromService.Datasets))
	assert.ElementsMatch(t, []uuid.UUID{endpoint.UID}, nodeUIDs(fromService.Endpoints))

	fromEndpoint, err := r.Resolve(context.Background(), endpoint.UID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{dataset.UID}, nodeUIDs(fromEndpoint.Datasets))
	assert.ElementsMatch(t, []uuid.UUID{service.UID}, nodeUIDs(fromEndpoint.Services))
}
