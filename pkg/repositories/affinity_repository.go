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

const affinitiesTable = "ndp_affinity_triple"

type affinityRow struct {
	TripleUID    uuid.UUID                      `db:"triple_uid"`
	DatasetUID   uuid.NullUUID                  `db:"dataset_uid"`
	EndpointUIDs database.UUIDArray             `db:"endpoint_uids"`
	ServiceUIDs  database.UUIDArray             `db:"service_uids"`
	Attrs        database.JSONB[map[string]any] `db:"attrs"`
	Version      sql.NullInt64                  `db:"version"`
	CreatedAt    time.Time                      `db:"created_at"`
	UpdatedAt    time.Time                      `db:"updated_at"`
}

var affinityStruct = database.NewStruct(new(affinityRow))

func fromAffinity(t *models.AffinityTriple) *affinityRow {
	return &affinityRow{
		TripleUID:    t.TripleUID,
		DatasetUID:   nullUUID(t.DatasetUID),
		EndpointUIDs: database.UUIDArray(t.EndpointUIDs),
		ServiceUIDs:  database.UUIDArray(t.ServiceUIDs),
		Attrs:        database.JSONB[map[string]any]{Data: t.Attrs},
		Version:      nullInt(t.Version),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toAffinity(row *affinityRow) *models.AffinityTriple {
	return &models.AffinityTriple{
		TripleUID:    row.TripleUID,
		DatasetUID:   uuidPtr(row.DatasetUID),
		EndpointUIDs: []uuid.UUID(row.EndpointUIDs),
		ServiceUIDs:  []uuid.UUID(row.ServiceUIDs),
		Attrs:        row.Attrs.Data,
		Version:      intPtr(row.Version),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func toAffinities(rows []affinityRow) []models.AffinityTriple {
	triples := make([]models.AffinityTriple, len(rows))
	for i, row := range rows {
		triples[i] = *toAffinity(&row)
	}
	return triples
}

// AffinityRepository implements AffinityRepo against Postgres
type AffinityRepository struct {
	*Repository
}

// NewAffinityRepository creates a new affinity triple repository
func NewAffinityRepository(db database.DB, logger ectologger.Logger) *AffinityRepository {
	return &AffinityRepository{Repository: NewRepository(db, logger)}
}

func (r *AffinityRepository) List(ctx context.Context, offset, limit int) ([]models.AffinityTriple, error) {
	ctx, span := tracing.StartSpan(ctx, "AffinityRepository.List")
	defer span.End()

	offset, limit = normalizePage(offset, limit)

	sb := affinityStruct.SelectFrom(affinitiesTable)
	sb.OrderBy("created_at")
	sb.Offset(offset).Limit(limit)

	query, args := sb.Build()

	var rows []affinityRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list affinity triples")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list affinity triples")
	}

	return toAffinities(rows), nil
}

func (r *AffinityRepository) Get(ctx context.Context, tripleUID uuid.UUID) (*models.AffinityTriple, error) {
	ctx, span := tracing.StartSpan(ctx, "AffinityRepository.Get")
	defer span.End()

	sb := affinityStruct.SelectFrom(affinitiesTable)
	sb.Where(sb.Equal("triple_uid", tripleUID))

	query, args := sb.Build()

	var row affinityRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "AffinityTriple not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get affinity triple")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get affinity triple")
	}

	return toAffinity(&row), nil
}

func (r *AffinityRepository) ListByDataset(ctx context.Context, datasetUID uuid.UUID) ([]models.AffinityTriple, error) {
	ctx, span := tracing.StartSpan(ctx, "AffinityRepository.ListByDataset")
	defer span.End()

	sb := affinityStruct.SelectFrom(affinitiesTable)
	sb.Where(sb.Equal("dataset_uid", datasetUID))

	query, args := sb.Build()

	var rows []affinityRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list affinity triples by dataset")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list affinity triples")
	}

	return toAffinities(rows), nil
}

// ListAll returns every triple. Membership in the uuid array columns has no
// indexed lookup, so resolution by endpoint or service scans the table.
func (r *AffinityRepository) ListAll(ctx context.Context) ([]models.AffinityTriple, error) {
	ctx, span := tracing.StartSpan(ctx, "AffinityRepository.ListAll")
	defer span.End()

	sb := affinityStruct.SelectFrom(affinitiesTable)
	sb.OrderBy("created_at")

	query, args := sb.Build()

	var rows []affinityRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list all affinity triples")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list affinity triples")
	}

	return toAffinities(rows), nil
}

func (r *AffinityRepository) Create(ctx context.Context, triple *models.AffinityTriple) (*models.AffinityTriple, error) {
	ctx, span := tracing.StartSpan(ctx, "AffinityRepository.Create")
	defer span.End()

	if triple.TripleUID == uuid.Nil {
		triple.TripleUID = uuid.New()
	}

	now := Now()
	triple.CreatedAt = now
	triple.UpdatedAt = now

	row := fromAffinity(triple)
	ib := affinityStruct.InsertInto(affinitiesTable, row)
	query, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"triple_uid": triple.TripleUID,
	}).Debug("Creating affinity triple")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if translated := database.TranslateConstraintError(err); translated != nil {
			return nil, translated
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create affinity triple")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create affinity triple")
	}

	return triple, nil
}

func (r *AffinityRepository) Update(ctx context.Context, tripleUID uuid.UUID, update AffinityUpdate) (*models.AffinityTriple, error) {
	ctx, span := tracing.StartSpan(ctx, "AffinityRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(affinitiesTable)

	assigns := []string{ub.Assign("updated_at", Now())}
	if update.DatasetUID != nil {
		assigns = append(assigns, ub.Assign("dataset_uid", *update.DatasetUID))
	}
	if update.EndpointUIDs != nil {
		assigns = append(assigns, ub.Assign("endpoint_uids", database.UUIDArray(*update.EndpointUIDs)))
	}
	if update.ServiceUIDs != nil {
		assigns = append(assigns, ub.Assign("service_uids", database.UUIDArray(*update.ServiceUIDs)))
	}
	if update.Attrs != nil {
		assigns = append(assigns, ub.Assign("attrs", database.JSONB[map[string]any]{Data: *update.Attrs}))
	}
	if update.Version != nil {
		assigns = append(assigns, ub.Assign("version", *update.Version))
	}
	ub.Set(assigns...)
	ub.Where(ub.Equal("triple_uid", tripleUID))

	query, args := ub.Build()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update affinity triple")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if translated := database.TranslateConstraintError(err); translated != nil {
			return nil, translated
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update affinity triple")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update affinity triple")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "AffinityTriple not found")
	}

	sb := affinityStruct.SelectFrom(affinitiesTable)
	sb.Where(sb.Equal("triple_uid", tripleUID))
	query, args = sb.Build()

	var row affinityRow
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reload affinity triple after update")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update affinity triple")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update affinity triple")
	}

	return toAffinity(&row), nil
}

func (r *AffinityRepository) Delete(ctx context.Context, tripleUID uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "AffinityRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(affinitiesTable)
	db.Where(db.Equal("triple_uid", tripleUID))

	query, args := db.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete affinity triple")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete affinity triple")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "AffinityTriple not found")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"triple_uid": tripleUID,
	}).Info("Deleted affinity triple")

	return nil
}
