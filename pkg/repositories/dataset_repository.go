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

const datasetsTable = "ndp_dataset"

// datasetRow represents the database row for a dataset
type datasetRow struct {
	UID       uuid.UUID                      `db:"uid"`
	Title     sql.NullString                 `db:"title"`
	SourceEP  sql.NullString                 `db:"source_ep"`
	Metadata  database.JSONB[map[string]any] `db:"metadata"`
	CreatedAt time.Time                      `db:"created_at"`
	UpdatedAt time.Time                      `db:"updated_at"`
}

var datasetStruct = database.NewStruct(new(datasetRow))

func fromDataset(d *models.Dataset) *datasetRow {
	return &datasetRow{
		UID:       d.UID,
		Title:     nullString(d.Title),
		SourceEP:  nullString(d.SourceEP),
		Metadata:  database.JSONB[map[string]any]{Data: d.Metadata},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toDataset(row *datasetRow) *models.Dataset {
	return &models.Dataset{
		UID:       row.UID,
		Title:     stringPtr(row.Title),
		SourceEP:  stringPtr(row.SourceEP),
		Metadata:  row.Metadata.Data,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toDatasets(rows []datasetRow) []models.Dataset {
	datasets := make([]models.Dataset, len(rows))
	for i, row := range rows {
		datasets[i] = *toDataset(&row)
	}
	return datasets
}

// DatasetRepository implements DatasetRepo against Postgres
type DatasetRepository struct {
	*Repository
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db database.DB, logger ectologger.Logger) *DatasetRepository {
	return &DatasetRepository{Repository: NewRepository(db, logger)}
}

// List retrieves datasets in store order
func (r *DatasetRepository) List(ctx context.Context, offset, limit int) ([]models.Dataset, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetRepository.List")
	defer span.End()

	offset, limit = normalizePage(offset, limit)

	sb := datasetStruct.SelectFrom(datasetsTable)
	sb.OrderBy("created_at")
	sb.Offset(offset).Limit(limit)

	query, args := sb.Build()

	var rows []datasetRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list datasets")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list datasets")
	}

	return toDatasets(rows), nil
}

// Get retrieves a dataset by uid
func (r *DatasetRepository) Get(ctx context.Context, uid uuid.UUID) (*models.Dataset, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetRepository.Get")
	defer span.End()

	sb := datasetStruct.SelectFrom(datasetsTable)
	sb.Where(sb.Equal("uid", uid))

	query, args := sb.Build()

	var row datasetRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "Dataset not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get dataset")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get dataset")
	}

	return toDataset(&row), nil
}

// GetByUIDs retrieves datasets for a uid set in one batched lookup
func (r *DatasetRepository) GetByUIDs(ctx context.Context, uids []uuid.UUID) ([]models.Dataset, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetRepository.GetByUIDs")
	defer span.End()

	if len(uids) == 0 {
		return []models.Dataset{}, nil
	}

	sb := datasetStruct.SelectFrom(datasetsTable)
	sb.Where(sb.In("uid", uidArgs(uids)...))

	query, args := sb.Build()

	var rows []datasetRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get datasets by uids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get datasets")
	}

	return toDatasets(rows), nil
}

// Exists reports whether a dataset row exists for uid
func (r *DatasetRepository) Exists(ctx context.Context, uid uuid.UUID) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetRepository.Exists")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("1").From(datasetsTable)
	sb.Where(sb.Equal("uid", uid))

	query, args := sb.Build()

	var one int
	if err := r.db.GetContext(ctx, &one, query, args...); err != nil {
		if database.IsNoRows(err) {
			return false, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to check dataset existence")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check dataset")
	}

	return true, nil
}

// Create inserts a new dataset
func (r *DatasetRepository) Create(ctx context.Context, dataset *models.Dataset) (*models.Dataset, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetRepository.Create")
	defer span.End()

	if dataset.UID == uuid.Nil {
		dataset.UID = uuid.New()
	}

	now := Now()
	dataset.CreatedAt = now
	dataset.UpdatedAt = now

	row := fromDataset(dataset)
	ib := datasetStruct.InsertInto(datasetsTable, row)
	query, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"uid": dataset.UID,
	}).Debug("Creating dataset")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if translated := database.TranslateConstraintError(err); translated != nil {
			return nil, translated
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create dataset")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create dataset")
	}

	return dataset, nil
}

// Update applies a partial update and refreshes updated_at
func (r *DatasetRepository) Update(ctx context.Context, uid uuid.UUID, update DatasetUpdate) (*models.Dataset, error) {
	ctx, span := tracing.StartSpan(ctx, "DatasetRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(datasetsTable)

	assigns := []string{ub.Assign("updated_at", Now())}
	if update.Title != nil {
		assigns = append(assigns, ub.Assign("title", *update.Title))
	}
	if update.SourceEP != nil {
		assigns = append(assigns, ub.Assign("source_ep", *update.SourceEP))
	}
	if update.Metadata != nil {
		assigns = append(assigns, ub.Assign("metadata", database.JSONB[map[string]any]{Data: *update.Metadata}))
	}
	ub.Set(assigns...)
	ub.Where(ub.Equal("uid", uid))

	query, args := ub.Build()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update dataset")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update dataset")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update dataset")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "Dataset not found")
	}

	sb := datasetStruct.SelectFrom(datasetsTable)
	sb.Where(sb.Equal("uid", uid))
	query, args = sb.Build()

	var row datasetRow
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reload dataset after update")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update dataset")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update dataset")
	}

	return toDataset(&row), nil
}

// Delete removes a dataset. Link rows and affinity triples referencing it
// are removed by the cascade-on-delete policy in the schema.
func (r *DatasetRepository) Delete(ctx context.Context, uid uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "DatasetRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(datasetsTable)
	db.Where(db.Equal("uid", uid))

	query, args := db.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete dataset")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete dataset")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "Dataset not found")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"uid": uid,
	}).Info("Deleted dataset")

	return nil
}
