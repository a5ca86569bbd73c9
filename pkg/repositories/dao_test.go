package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sci-ndp/ndp-affinities/pkg/models"
)

func TestDatasetRowRoundTrip(t *testing.T) {
	title := "Sea surface temperature"
	sourceEP := "ckan.example.org"
	dataset := &models.Dataset{
		UID:      uuid.New(),
		Title:    &title,
		SourceEP: &sourceEP,
		Metadata: map[string]any{"format": "netcdf"},
	}

	out := toDataset(fromDataset(dataset))
	assert.Equal(t, dataset, out)
}

func TestDatasetRowNullFields(t *testing.T) {
	dataset := &models.Dataset{UID: uuid.New()}

	row := fromDataset(dataset)
	assert.False(t, row.Title.Valid)
	assert.False(t, row.SourceEP.Valid)

	out := toDataset(row)
	assert.Nil(t, out.Title)
	assert.Nil(t, out.SourceEP)
	assert.Nil(t, out.Metadata)
}

func TestAffinityRowRoundTrip(t *testing.T) {
	datasetUID := uuid.New()
	version := 3
	triple := &models.AffinityTriple{
		TripleUID:    uuid.New(),
		DatasetUID:   &datasetUID,
		EndpointUIDs: []uuid.UUID{uuid.New(), uuid.New()},
		ServiceUIDs:  []uuid.UUID{uuid.New()},
		Attrs:        map[string]any{"weight": 0.8},
		Version:      &version,
	}

	out := toAffinity(fromAffinity(triple))
	assert.Equal(t, triple, out)
}

func TestAffinityRowNullFields(t *testing.T) {
	triple := &models.AffinityTriple{TripleUID: uuid.New()}

	row := fromAffinity(triple)
	assert.False(t, row.DatasetUID.Valid)
	assert.False(t, row.Version.Valid)

	out := toAffinity(row)
	assert.Nil(t, out.DatasetUID)
	assert.Nil(t, out.Version)
	assert.Empty(t, out.EndpointUIDs)
	assert.Empty(t, out.ServiceUIDs)
}

func TestEndpointRowRoundTrip(t *testing.T) {
	url := "https://data.example.org"
	endpoint := &models.Endpoint{
		UID:  uuid.New(),
		Kind: "http",
		URL:  &url,
	}

	out := toEndpoint(fromEndpoint(endpoint))
	assert.Equal(t, endpoint, out)
}

func TestServiceRowRoundTrip(t *testing.T) {
	svcType := "compute"
	openapi := "https://svc.example.org/openapi.json"
	service := &models.Service{
		UID:        uuid.New(),
		Type:       &svcType,
		OpenAPIURL: &openapi,
	}

	out := toService(fromService(service))
	assert.Equal(t, service, out)
}

func TestNullHelpers(t *testing.T) {
	s := "value"
	require.True(t, nullString(&s).Valid)
	assert.False(t, nullString(nil).Valid)

	i := 7
	require.True(t, nullInt(&i).Valid)
	assert.EqualValues(t, 7, nullInt(&i).Int64)
	assert.False(t, nullInt(nil).Valid)

	u := uuid.New()
	require.True(t, nullUUID(&u).Valid)
	assert.False(t, nullUUID(nil).Valid)
}

func TestNormalizePage(t *testing.T) {
	offset, limit := normalizePage(-5, -1)
	assert.Equal(t, 0, offset)
	assert.Equal(t, 0, limit)

	offset, limit = normalizePage(10, 50)
	assert.Equal(t, 10, offset)
	assert.Equal(t, 50, limit)
}
