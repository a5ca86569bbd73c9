package repositories

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/sci-ndp/ndp-affinities/pkg/database"
	"github.com/sci-ndp/ndp-affinities/pkg/models"
	"github.com/sci-ndp/ndp-affinities/pkg/tracing"
)

const datasetEndpointsTable = "ndp_dataset_endpoint"

type datasetEndpointRow struct {
	DatasetUID  uuid.UUID                      `db:"dataset_uid"`
	EndpointUID uuid.UUID                      `db:"endpoint_uid"`
	Role        sql.NullString                 `db:"role"`
	Attrs       database.JSONB[map[string]any] `db:"attrs"`
	CreatedAt   time.Time                      `db:"created_at"`
}

var datasetEndpointStruct = database.NewStruct(new(datasetEndpointRow))

func fromDatasetEndpoint(l *models.DatasetEndpoint) *datasetEndpointRow {
	return &datasetEndpointRow{
		DatasetUID:  l.DatasetUID,
		EndpointUID: l.EndpointUID,
		Role:        nullString(l.Role),
		Attrs:       database.JSONB[map[string]any]{Data: l.Attrs},
		CreatedAt:   l.CreatedAt,
	}
}

func toDatasetEndpoint(row *datasetEndpointRow) *models.DatasetEndpoint {
	return &models.DatasetEndpoint{
		DatasetUID:  row.DatasetUID,
		EndpointUID: row.EndpointUID,
		Role:        stringPtr(row.Role),
		Attrs:       row.Attrs.Data,
		CreatedAt:   row.CreatedAt,
	}
}

func toDatasetEndpoints(rows []datasetEndpointRow) []models.DatasetEndpoint {
	links := make([]models.DatasetEndpoint, len(rows))
	for i, row := range rows {
		links[i] = *toDatasetEndpoint(&row)
	}
	return links
}

// DatasetEndpointRepository implements DatasetEndpointRepo against Postgres
type DatasetEndpointRepository struct {
	*Repository
}

// NewDatasetEndpointRepository creates a new dataset-endpoint link repository
func NewDatasetEndpointRepository(db database.DB, logger ectologger.Logger) *DatasetEndpointRepository {
	return &DatasetEndpointRepository{Repository: NewRepository(db, logger)}
}

func (r *DatasetEndpointRepository) List(ctx context.Context, offset, limit int) ([]models.DatasetEndpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetEndpointRepository.List")
	defer span.End()

	offset, limit = normalizePage(offset, limit)

	sb := datasetEndpointStruct.SelectFrom(datasetEndpointsTable)
	sb.OrderBy("created_at")
	sb.Offset(offset).Limit(limit)

	query, args := sb.Build()

	var rows []datasetEndpointRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list dataset-endpoint links")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dataset-endpoint links")
	}

	return toDatasetEndpoints(rows), nil
}

func (r *DatasetEndpointRepository) GetByPair(ctx context.Context, datasetUID, endpointUID uuid.UUID) (*models.DatasetEndpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetEndpointRepository.GetByPair")
	defer span.End()

	sb := datasetEndpointStruct.SelectFrom(datasetEndpointsTable)
	sb.Where(
		sb.Equal("dataset_uid", datasetUID),
		sb.Equal("endpoint_uid", endpointUID),
	)

	query, args := sb.Build()

	var row datasetEndpointRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "DatasetEndpoint not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get dataset-endpoint link")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get dataset-endpoint link")
	}

	return toDatasetEndpoint(&row), nil
}

func (r *DatasetEndpointRepository) ListByDataset(ctx context.Context, datasetUID uuid.UUID) ([]models.DatasetEndpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetEndpointRepository.ListByDataset")
	defer span.End()

	sb := datasetEndpointStruct.SelectFrom(datasetEndpointsTable)
	sb.Where(sb.Equal("dataset_uid", datasetUID))

	query, args := sb.Build()

	var rows []datasetEndpointRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list dataset-endpoint links by dataset")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dataset-endpoint links")
	}

	return toDatasetEndpoints(rows), nil
}

func (r *DatasetEndpointRepository) ListByEndpoint(ctx context.Context, endpointUID uuid.UUID) ([]models.DatasetEndpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetEndpointRepository.ListByEndpoint")
	defer span.End()

	sb := datasetEndpointStruct.SelectFrom(datasetEndpointsTable)
	sb.Where(sb.Equal("endpoint_uid", endpointUID))

	query, args := sb.Build()

	var rows []datasetEndpointRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list dataset-endpoint links by endpoint")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dataset-endpoint links")
	}

	return toDatasetEndpoints(rows), nil
}

// Upsert inserts the link, overwriting role/attrs when the pair already
// exists. created_at is preserved on conflict.
func (r *DatasetEndpointRepository) Upsert(ctx context.Context, link *models.DatasetEndpoint) (*models.DatasetEndpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetEndpointRepository.Upsert")
	defer span.End()

	link.CreatedAt = Now()

	row := fromDatasetEndpoint(link)
	ib := datasetEndpointStruct.InsertInto(datasetEndpointsTable, row)
	ub := ib.OnConflict("dataset_uid", "endpoint_uid")
	ub.Set(
		ub.Assign("role", database.Excluded("role")),
		ub.Assign("attrs", database.Excluded("attrs")),
	)

	query, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"dataset_uid":  link.DatasetUID,
		"endpoint_uid": link.EndpointUID,
	}).Debug("Upserting dataset-endpoint link")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if translated := database.TranslateConstraintError(err); translated != nil {
			return nil, translated
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to upsert dataset-endpoint link")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create dataset-endpoint link")
	}

	return r.GetByPair(ctx, link.DatasetUID, link.EndpointUID)
}

func (r *DatasetEndpointRepository) DeleteByPair(ctx context.Context, datasetUID, endpointUID uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "DatasetEndpointRepository.DeleteByPair")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(datasetEndpointsTable)
	db.Where(
		db.Equal("dataset_uid", datasetUID),
		db.Equal("endpoint_uid", endpointUID),
	)

	query, args := db.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete dataset-endpoint link")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete dataset-endpoint link")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "DatasetEndpoint not found")
	}

	return nil
}
