package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sci-ndp/ndp-affinities/pkg/events"
	"github.com/sci-ndp/ndp-affinities/pkg/models"
	"github.com/sci-ndp/ndp-affinities/pkg/repositories"
)

type fakeDatasetCRUD struct {
	repositories.DatasetRepo
	created    *models.Dataset
	updated    *repositories.DatasetUpdate
	deletedUID uuid.UUID
}

func (f *fakeDatasetCRUD) Create(_ context.Context, dataset *models.Dataset) (*models.Dataset, error) {
	dataset.UID = uuid.New()
	f.created = dataset
	return dataset, nil
}

func (f *fakeDatasetCRUD) Update(_ context.Context, uid uuid.UUID, update repositories.DatasetUpdate) (*models.Dataset, error) {
	f.updated = &update
	return &models.Dataset{UID: uid, Title: update.Title}, nil
}

func (f *fakeDatasetCRUD) Delete(_ context.Context, uid uuid.UUID) error {
	f.deletedUID = uid
	return nil
}

func TestDatasetCreate(t *testing.T) {
	repo := &fakeDatasetCRUD{}
	h := NewDatasetHandler(repo, events.NewEmitter(nil, nil))

	c, rec := postJSON(t, "/datasets", `{"title": "Sea surface temperature", "metadata": {"format": "netcdf"}}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, repo.created)
	require.NotNil(t, repo.created.Title)
	assert.Equal(t, "Sea surface temperature", *repo.created.Title)
	assert.Equal(t, "netcdf", repo.created.Metadata["format"])
	assert.NotEqual(t, uuid.Nil, repo.created.UID)
}

func TestDatasetCreateEmptyBody(t *testing.T) {
	repo := &fakeDatasetCRUD{}
	h := NewDatasetHandler(repo, events.NewEmitter(nil, nil))

	// every dataset field is optional
	c, rec := postJSON(t, "/datasets", `{}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, repo.created)
	assert.Nil(t, repo.created.Title)
}

func TestDatasetUpdatePartial(t *testing.T) {
	repo := &fakeDatasetCRUD{}
	h := NewDatasetHandler(repo, events.NewEmitter(nil, nil))

	uid := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/datasets", strings.NewReader(`{"title": "Renamed"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("uid")
	c.SetParamValues(uid.String())

	require.NoError(t, h.Update(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, repo.updated)
	require.NotNil(t, repo.updated.Title)
	assert.Equal(t, "Renamed", *repo.updated.Title)
	assert.Nil(t, repo.updated.SourceEP)
	assert.Nil(t, repo.updated.Metadata)

	var out models.Dataset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, uid, out.UID)
}

func TestDatasetDelete(t *testing.T) {
	repo := &fakeDatasetCRUD{}
	h := NewDatasetHandler(repo, events.NewEmitter(nil, nil))

	uid := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/datasets", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("uid")
	c.SetParamValues(uid.String())

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, uid, repo.deletedUID)
}
