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

const datasetServicesTable = "ndp_dataset_service"

type datasetServiceRow struct {
	DatasetUID uuid.UUID                      `db:"dataset_uid"`
	ServiceUID uuid.UUID                      `db:"service_uid"`
	Role       sql.NullString                 `db:"role"`
	Attrs      database.JSONB[map[string]any] `db:"attrs"`
	CreatedAt  time.Time                      `db:"created_at"`
}

var datasetServiceStruct = database.NewStruct(new(datasetServiceRow))

func fromDatasetService(l *models.DatasetService) *datasetServiceRow {
	return &datasetServiceRow{
		DatasetUID: l.DatasetUID,
		ServiceUID: l.ServiceUID,
		Role:       nullString(l.Role),
		Attrs:      database.JSONB[map[string]any]{Data: l.Attrs},
		CreatedAt:  l.CreatedAt,
	}
}

func toDatasetService(row *datasetServiceRow) *models.DatasetService {
	return &models.DatasetService{
		DatasetUID: row.DatasetUID,
		ServiceUID: row.ServiceUID,
		Role:       stringPtr(row.Role),
		Attrs:      row.Attrs.Data,
		CreatedAt:  row.CreatedAt,
	}
}

func toDatasetServices(rows []datasetServiceRow) []models.DatasetService {
	links := make([]models.DatasetService, len(rows))
	for i, row := range rows {
		links[i] = *toDatasetService(&row)
	}
	return links
}

// DatasetServiceRepository implements DatasetServiceRepo against Postgres
type DatasetServiceRepository struct {
	*Repository
}

// NewDatasetServiceRepository creates a new dataset-service link repository
func NewDatasetServiceRepository(db database.DB, logger ectologger.Logger) *DatasetServiceRepository {
	return &DatasetServiceRepository{Repository: NewRepository(db, logger)}
}

func (r *DatasetServiceRepository) List(ctx context.Context, offset, limit int) ([]models.DatasetService, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetServiceRepository.List")
	defer span.End()

	offset, limit = normalizePage(offset, limit)

	sb := datasetServiceStruct.SelectFrom(datasetServicesTable)
	sb.OrderBy("created_at")
	sb.Offset(offset).Limit(limit)

	query, args := sb.Build()

	var rows []datasetServiceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list dataset-service links")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dataset-service links")
	}

	return toDatasetServices(rows), nil
}

func (r *DatasetServiceRepository) GetByPair(ctx context.Context, datasetUID, serviceUID uuid.UUID) (*models.DatasetService, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetServiceRepository.GetByPair")
	defer span.End()

	sb := datasetServiceStruct.SelectFrom(datasetServicesTable)
	sb.Where(
		sb.Equal("dataset_uid", datasetUID),
		sb.Equal("service_uid", serviceUID),
	)

	query, args := sb.Build()

	var row datasetServiceRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "DatasetService not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get dataset-service link")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get dataset-service link")
	}

	return toDatasetService(&row), nil
}

func (r *DatasetServiceRepository) ListByDataset(ctx context.Context, datasetUID uuid.UUID) ([]models.DatasetService, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetServiceRepository.ListByDataset")
	defer span.End()

	sb := datasetServiceStruct.SelectFrom(datasetServicesTable)
	sb.Where(sb.Equal("dataset_uid", datasetUID))

	query, args := sb.Build()

	var rows []datasetServiceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list dataset-service links by dataset")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dataset-service links")
	}

	return toDatasetServices(rows), nil
}

func (r *DatasetServiceRepository) ListByService(ctx context.Context, serviceUID uuid.UUID) ([]models.DatasetService, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetServiceRepository.ListByService")
	defer span.End()

	sb := datasetServiceStruct.SelectFrom(datasetServicesTable)
	sb.Where(sb.Equal("service_uid", serviceUID))

	query, args := sb.Build()

	var rows []datasetServiceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list dataset-service links by service")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list dataset-service links")
	}

	return toDatasetServices(rows), nil
}

// Upsert inserts the link, overwriting role/attrs when the pair already
// exists. created_at is preserved on conflict.
func (r *DatasetServiceRepository) Upsert(ctx context.Context, link *models.DatasetService) (*models.DatasetService, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetServiceRepository.Upsert")
	defer span.End()

	link.CreatedAt = Now()

	row := fromDatasetService(link)
	ib := datasetServiceStruct.InsertInto(datasetServicesTable, row)
	ub := ib.OnConflict("dataset_uid", "service_uid")
	ub.Set(
		ub.Assign("role", database.Excluded("role")),
		ub.Assign("attrs", database.Excluded("attrs")),
	)

	query, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"dataset_uid": link.DatasetUID,
		"service_uid": link.ServiceUID,
	}).Debug("Upserting dataset-service link")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if translated := database.TranslateConstraintError(err); translated != nil {
			return nil, translated
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to upsert dataset-service link")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create dataset-service link")
	}

	return r.GetByPair(ctx, link.DatasetUID, link.ServiceUID)
}

func (r *DatasetServiceRepository) DeleteByPair(ctx context.Context, datasetUID, serviceUID uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "DatasetServiceRepository.DeleteByPair")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(datasetServicesTable)
	db.Where(
		db.Equal("dataset_uid", datasetUID),
		db.Equal("service_uid", serviceUID),
	)

	query, args := db.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete dataset-service link")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete dataset-service link")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "DatasetService not found")
	}

	return nil
}
