package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sci-ndp/ndp-affinities/pkg/events"
	"github.com/sci-ndp/ndp-affinities/pkg/models"
	"github.com/sci-ndp/ndp-affinities/pkg/repositories"
)

type fakeDatasetRepo struct {
	repositories.DatasetRepo
	existing map[uuid.UUID]bool
}

func (f *fakeDatasetRepo) Exists(_ context.Context, uid uuid.UUID) (bool, error) {
	return f.existing[uid], nil
}

type fakeEndpointRepo struct {
	repositories.EndpointRepo
	existing map[uuid.UUID]bool
}

func (f *fakeEndpointRepo) Exists(_ context.Context, uid uuid.UUID) (bool, error) {
	return f.existing[uid], nil
}

type fakeDatasetEndpointRepo struct {
	repositories.DatasetEndpointRepo
	upserted *models.DatasetEndpoint
	deleted  bool
}

func (f *fakeDatasetEndpointRepo) Upsert(_ context.Context, link *models.DatasetEndpoint) (*models.DatasetEndpoint, error) {
	f.upserted = link
	return link, nil
}

func (f *fakeDatasetEndpointRepo) DeleteByPair(_ context.Context, datasetUID, endpointUID uuid.UUID) error {
	f.deleted = true
	return nil
}

func newLinkHandler(datasets *fakeDatasetRepo, endpoints *fakeEndpointRepo, repo *fakeDatasetEndpointRepo) *DatasetEndpointHandler {
	return NewDatasetEndpointHandler(repo, datasets, endpoints, events.NewEmitter(nil, nil))
}

func postJSON(t *testing.T, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestDatasetEndpointCreate(t *testing.T) {
	datasetUID := uuid.New()
	endpointUID := uuid.New()

	repo := &fakeDatasetEndpointRepo{}
	h := newLinkHandler(
		&fakeDatasetRepo{existing: map[uuid.UUID]bool{datasetUID: true}},
		&fakeEndpointRepo{existing: map[uuid.UUID]bool{endpointUID: true}},
		repo,
	)

	body, err := json.Marshal(CreateDatasetEndpointRequest{
		DatasetUID:  datasetUID,
		EndpointUID: endpointUID,
		Role:        strPtr("primary"),
	})
	require.NoError(t, err)

	c, rec := postJSON(t, "/dataset-endpoints", string(body))
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, repo.upserted)
	assert.Equal(t, datasetUID, repo.upserted.DatasetUID)
	assert.Equal(t, endpointUID, repo.upserted.EndpointUID)
	require.NotNil(t, repo.upserted.Role)
	assert.Equal(t, "primary", *repo.upserted.Role)
}

func TestDatasetEndpointCreateMissingDataset(t *testing.T) {
	datasetUID := uuid.New()
	endpointUID := uuid.New()

	repo := &fakeDatasetEndpointRepo{}
	h := newLinkHandler(
		&fakeDatasetRepo{existing: map[uuid.UUID]bool{}},
		&fakeEndpointRepo{existing: map[uuid.UUID]bool{endpointUID: true}},
		repo,
	)

	body, err := json.Marshal(CreateDatasetEndpointRequest{
		DatasetUID:  datasetUID,
		EndpointUID: endpointUID,
	})
	require.NoError(t, err)

	c, _ := postJSON(t, "/dataset-endpoints", string(body))
	err = h.Create(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	assert.Contains(t, err.Error(), "Dataset '"+datasetUID.String()+"' not found")
	assert.Nil(t, repo.upserted)
}

func TestDatasetEndpointCreateMissingEndpoint(t *testing.T) {
	datasetUID := uuid.New()
	endpointUID := uuid.New()

	repo := &fakeDatasetEndpointRepo{}
	h := newLinkHandler(
		&fakeDatasetRepo{existing: map[uuid.UUID]bool{datasetUID: true}},
		&fakeEndpointRepo{existing: map[uuid.UUID]bool{}},
		repo,
	)

	body, err := json.Marshal(CreateDatasetEndpointRequest{
		DatasetUID:  datasetUID,
		EndpointUID: endpointUID,
	})
	require.NoError(t, err)

	c, _ := postJSON(t, "/dataset-endpoints", string(body))
	err = h.Create(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	assert.Contains(t, err.Error(), "Endpoint '"+endpointUID.String()+"' not found")
}

func TestDatasetEndpointCreateValidation(t *testing.T) {
	h := newLinkHandler(
		&fakeDatasetRepo{existing: map[uuid.UUID]bool{}},
		&fakeEndpointRepo{existing: map[uuid.UUID]bool{}},
		&fakeDatasetEndpointRepo{},
	)

	c, _ := postJSON(t, "/dataset-endpoints", `{"role": "primary"}`)
	err := h.Create(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, httperror.GetStatusCode(err))
}

func TestDatasetEndpointDelete(t *testing.T) {
	repo := &fakeDatasetEndpointRepo{}
	h := newLinkHandler(
		&fakeDatasetRepo{existing: map[uuid.UUID]bool{}},
		&fakeEndpointRepo{existing: map[uuid.UUID]bool{}},
		repo,
	)

	req := httptest.NewRequest(http.MethodDelete, "/dataset-endpoints", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("dataset_uid", "endpoint_uid")
	c.SetParamValues(uuid.NewString(), uuid.NewString())

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, repo.deleted)
}

func strPtr(s string) *string {
	return &s
}
