package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/sci-ndp/ndp-affinities/pkg/models"
)

// DatasetRepo defines the interface for dataset repository operations
type DatasetRepo interface {
	List(ctx context.Context, offset, limit int) ([]models.Dataset, error)
	Get(ctx context.Context, uid uuid.UUID) (*models.Dataset, error)
	GetByUIDs(ctx context.Context, uids []uuid.UUID) ([]models.Dataset, error)
	Exists(ctx context.Context, uid uuid.UUID) (bool, error)
	Create(ctx context.Context, dataset *models.Dataset) (*models.Dataset, error)
	Update(ctx context.Context, uid uuid.UUID, update DatasetUpdate) (*models.Dataset, error)
	Delete(ctx context.Context, uid uuid.UUID) error
}

// EndpointRepo defines the interface for endpoint repository operations
type EndpointRepo interface {
	List(ctx context.Context, offset, limit int) ([]models.Endpoint, error)
	Get(ctx context.Context, uid uuid.UUID) (*models.Endpoint, error)
	GetByUIDs(ctx context.Context, uids []uuid.UUID) ([]models.Endpoint, error)
	Exists(ctx context.Context, uid uuid.UUID) (bool, error)
	Create(ctx context.Context, endpoint *models.Endpoint) (*models.Endpoint, error)
	Update(ctx context.Context, uid uuid.UUID, update EndpointUpdate) (*models.Endpoint, error)
	Delete(ctx context.Context, uid uuid.UUID) error
}

// ServiceRepo defines the interface for service repository operations
type ServiceRepo interface {
	List(ctx context.Context, offset, limit int) ([]models.Service, error)
	Get(ctx context.Context, uid uuid.UUID) (*models.Service, error)
	GetByUIDs(ctx context.Context, uids []uuid.UUID) ([]models.Service, error)
	Exists(ctx context.Context, uid uuid.UUID) (bool, error)
	Create(ctx context.Context, service *models.Service) (*models.Service, error)
	Update(ctx context.Context, uid uuid.UUID, update ServiceUpdate) (*models.Service, error)
	Delete(ctx context.Context, uid uuid.UUID) error
}

// DatasetEndpointRepo defines the interface for dataset-endpoint link operations
type DatasetEndpointRepo interface {
	List(ctx context.Context, offset, limit int) ([]models.DatasetEndpoint, error)
	GetByPair(ctx context.Context, datasetUID, endpointUID uuid.UUID) (*models.DatasetEndpoint, error)
	ListByDataset(ctx context.Context, datasetUID uuid.UUID) ([]models.DatasetEndpoint, error)
	ListByEndpoint(ctx context.Context, endpointUID uuid.UUID) ([]models.DatasetEndpoint, error)
	Upsert(ctx context.Context, link *models.DatasetEndpoint) (*models.DatasetEndpoint, error)
	DeleteByPair(ctx context.Context, datasetUID, endpointUID uuid.UUID) error
}

// DatasetServiceRepo defines the interface for dataset-service link operations
type DatasetServiceRepo interface {
	List(ctx context.Context, offset, limit int) ([]models.DatasetService, error)
	GetByPair(ctx context.Context, datasetUID, serviceUID uuid.UUID) (*models.DatasetService, error)
	ListByDataset(ctx context.Context, datasetUID uuid.UUID) ([]models.DatasetService, error)
	ListByService(ctx context.Context, serviceUID uuid.UUID) ([]models.DatasetService, error)
	Upsert(ctx context.Context, link *models.DatasetService) (*models.DatasetService, error)
	DeleteByPair(ctx context.Context, datasetUID, serviceUID uuid.UUID) error
}

// ServiceEndpointRepo defines the interface for service-endpoint link operations
type ServiceEndpointRepo interface {
	List(ctx context.Context, offset, limit int) ([]models.ServiceEndpoint, error)
	GetByPair(ctx context.Context, serviceUID, endpointUID uuid.UUID) (*models.ServiceEndpoint, error)
	ListByService(ctx context.Context, serviceUID uuid.UUID) ([]models.ServiceEndpoint, error)
	ListByEndpoint(ctx context.Context, endpointUID uuid.UUID) ([]models.ServiceEndpoint, error)
	Upsert(ctx context.Context, link *models.ServiceEndpoint) (*models.ServiceEndpoint, error)
	DeleteByPair(ctx context.Context, serviceUID, endpointUID uuid.UUID) error
}

// AffinityRepo defines the interface for affinity triple operations
type AffinityRepo interface {
	List(ctx context.Context, offset, limit int) ([]models.AffinityTriple, error)
	Get(ctx context.Context, tripleUID uuid.UUID) (*models.AffinityTriple, error)
	ListByDataset(ctx context.Context, datasetUID uuid.UUID) ([]models.AffinityTriple, error)
	// ListAll is a full table scan; the resolver uses it to find triples by
	// membership, which has no indexed lookup. Acceptable at expected scale.
	ListAll(ctx context.Context) ([]models.AffinityTriple, error)
	Create(ctx context.Context, triple *models.AffinityTriple) (*models.AffinityTriple, error)
	Update(ctx context.Context, tripleUID uuid.UUID, update AffinityUpdate) (*models.AffinityTriple, error)
	Delete(ctx context.Context, tripleUID uuid.UUID) error
}
