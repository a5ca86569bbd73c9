package repositories_test

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sci-ndp/ndp-affinities/pkg/database"
	"github.com/sci-ndp/ndp-affinities/pkg/models"
	"github.com/sci-ndp/ndp-affinities/pkg/repositories"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "ndp_affinities"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

// assertNotFound asserts that err is an HTTP 404 error
func assertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err), "expected HTTP error, got: %v", err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err), "expected 404, got: %d", httperror.GetStatusCode(err))
}

func TestDatasetRepository_CRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := repositories.NewDatasetRepository(db, getTestLogger())
	ctx := context.Background()

	dataset, err := repo.Create(ctx, &models.Dataset{
		Title:    strPtr("Integration Dataset"),
		Metadata: map[string]any{"format": "csv"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, dataset.UID)
	assert.False(t, dataset.CreatedAt.IsZero())

	fetched, err := repo.Get(ctx, dataset.UID)
	require.NoError(t, err)
	assert.Equal(t, dataset.UID, fetched.UID)
	assert.Equal(t, "Integration Dataset", *fetched.Title)
	assert.Equal(t, "csv", fetched.Metadata["format"])

	exists, err := repo.Exists(ctx, dataset.UID)
	require.NoError(t, err)
	assert.True(t, exists)

	updated, err := repo.Update(ctx, dataset.UID, repositories.DatasetUpdate{
		Title: strPtr("Renamed Dataset"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Dataset", *updated.Title)
	assert.Equal(t, "csv", updated.Metadata["format"])
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	require.NoError(t, repo.Delete(ctx, dataset.UID))

	_, err = repo.Get(ctx, dataset.UID)
	assertNotFound(t, err)
}

func TestDatasetEndpointRepository_UpsertAndCascade(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	logger := getTestLogger()
	datasets := repositories.NewDatasetRepository(db, logger)
	endpoints := repositories.NewEndpointRepository(db, logger)
	links := repositories.NewDatasetEndpointRepository(db, logger)
	ctx := context.Background()

	dataset, err := datasets.Create(ctx, &models.Dataset{Title: strPtr("Linked Dataset")})
	require.NoError(t, err)
	endpoint, err := endpoints.Create(ctx, &models.Endpoint{Kind: "http", URL: strPtr("https://data.example.org")})
	require.NoError(t, err)

	link, err := links.Upsert(ctx, &models.DatasetEndpoint{
		DatasetUID:  dataset.UID,
		EndpointUID: endpoint.UID,
		Role:        strPtr("primary"),
	})
	require.NoError(t, err)
	assert.Equal(t, "primary", *link.Role)
	createdAt := link.CreatedAt

	// Re-posting the pair overwrites role and keeps created_at
	link, err = links.Upsert(ctx, &models.DatasetEndpoint{
		DatasetUID:  dataset.UID,
		EndpointUID: endpoint.UID,
		Role:        strPtr("mirror"),
	})
	require.NoError(t, err)
	assert.Equal(t, "mirror", *link.Role)
	assert.Equal(t, createdAt, link.CreatedAt)

	byDataset, err := links.ListByDataset(ctx, dataset.UID)
	require.NoError(t, err)
	assert.Len(t, byDataset, 1)

	// Deleting the dataset cascades to the link row
	require.NoError(t, datasets.Delete(ctx, dataset.UID))
	_, err = links.GetByPair(ctx, dataset.UID, endpoint.UID)
	assertNotFound(t, err)

	require.NoError(t, endpoints.Delete(ctx, endpoint.UID))
}

func TestDatasetEndpointRepository_ForeignKey(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	links := repositories.NewDatasetEndpointRepository(db, getTestLogger())
	ctx := context.Background()

	_, err := links.Upsert(ctx, &models.DatasetEndpoint{
		DatasetUID:  uuid.New(),
		EndpointUID: uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestAffinityRepository_CRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	logger := getTestLogger()
	datasets := repositories.NewDatasetRepository(db, logger)
	affinities := repositories.NewAffinityRepository(db, logger)
	ctx := context.Background()

	dataset, err := datasets.Create(ctx, &models.Dataset{Title: strPtr("Affinity Dataset")})
	require.NoError(t, err)
	defer func() { _ = datasets.Delete(ctx, dataset.UID) }()

	memberA := uuid.New()
	memberB := uuid.New()

	triple, err := affinities.Create(ctx, &models.AffinityTriple{
		DatasetUID:   &dataset.UID,
		EndpointUIDs: []uuid.UUID{memberA},
		Attrs:        map[string]any{"weight": 0.5},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, triple.TripleUID)

	byDataset, err := affinities.ListByDataset(ctx, dataset.UID)
	require.NoError(t, err)
	require.Len(t, byDataset, 1)
	assert.Equal(t, triple.TripleUID, byDataset[0].TripleUID)

	// Lists replace wholesale, untouched fields survive
	updated, err := affinities.Update(ctx, triple.TripleUID, repositories.AffinityUpdate{
		EndpointUIDs: &[]uuid.UUID{memberA, memberB},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{memberA, memberB}, updated.EndpointUIDs)
	assert.Equal(t, 0.5, updated.Attrs["weight"])
	require.NotNil(t, updated.DatasetUID)
	assert.Equal(t, dataset.UID, *updated.DatasetUID)

	require.NoError(t, affinities.Delete(ctx, triple.TripleUID))
	_, err = affinities.Get(ctx, triple.TripleUID)
	assertNotFound(t, err)
}

func strPtr(s string) *string {
	return &s
}
