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

const endpointsTable = "ndp_endpoint"

type endpointRow struct {
	UID       uuid.UUID                      `db:"uid"`
	Kind      string                         `db:"kind"`
	URL       sql.NullString                 `db:"url"`
	SourceEP  sql.NullString                 `db:"source_ep"`
	Metadata  database.JSONB[map[string]any] `db:"metadata"`
	CreatedAt time.Time                      `db:"created_at"`
	UpdatedAt time.Time                      `db:"updated_at"`
}

var endpointStruct = database.NewStruct(new(endpointRow))

func fromEndpoint(e *models.Endpoint) *endpointRow {
	return &endpointRow{
		UID:       e.UID,
		Kind:      e.Kind,
		URL:       nullString(e.URL),
		SourceEP:  nullString(e.SourceEP),
		Metadata:  database.JSONB[map[string]any]{Data: e.Metadata},
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func toEndpoint(row *endpointRow) *models.Endpoint {
	return &models.Endpoint{
		UID:       row.UID,
		Kind:      row.Kind,
		URL:       stringPtr(row.URL),
		SourceEP:  stringPtr(row.SourceEP),
		Metadata:  row.Metadata.Data,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toEndpoints(rows []endpointRow) []models.Endpoint {
	endpoints := make([]models.Endpoint, len(rows))
	for i, row := range rows {
		endpoints[i] = *toEndpoint(&row)
	}
	return endpoints
}

// EndpointRepository implements EndpointRepo against Postgres
type EndpointRepository struct {
	*Repository
}

// NewEndpointRepository creates a new endpoint repository
func NewEndpointRepository(db database.DB, logger ectologger.Logger) *EndpointRepository {
	return &EndpointRepository{Repository: NewRepository(db, logger)}
}

func (r *EndpointRepository) List(ctx context.Context, offset, limit int) ([]models.Endpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "EndpointRepository.List")
	defer span.End()

	offset, limit = normalizePage(offset, limit)

	sb := endpointStruct.SelectFrom(endpointsTable)
	sb.OrderBy("created_at")
	sb.Offset(offset).Limit(limit)

	query, args := sb.Build()

	var rows []endpointRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list endpoints")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list endpoints")
	}

	return toEndpoints(rows), nil
}

func (r *EndpointRepository) Get(ctx context.Context, uid uuid.UUID) (*models.Endpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "EndpointRepository.Get")
	defer span.End()

	sb := endpointStruct.SelectFrom(endpointsTable)
	sb.Where(sb.Equal("uid", uid))

	query, args := sb.Build()

	var row endpointRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "Endpoint not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get endpoint")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get endpoint")
	}

	return toEndpoint(&row), nil
}

func (r *EndpointRepository) GetByUIDs(ctx context.Context, uids []uuid.UUID) ([]models.Endpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "EndpointRepository.GetByUIDs")
	defer span.End()

	if len(uids) == 0 {
		return []models.Endpoint{}, nil
	}

	sb := endpointStruct.SelectFrom(endpointsTable)
	sb.Where(sb.In("uid", uidArgs(uids)...))

	query, args := sb.Build()

	var rows []endpointRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get endpoints by uids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get endpoints")
	}

	return toEndpoints(rows), nil
}

func (r *EndpointRepository) Exists(ctx context.Context, uid uuid.UUID) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "EndpointRepository.Exists")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("1").From(endpointsTable)
	sb.Where(sb.Equal("uid", uid))

	query, args := sb.Build()

	var one int
	if err := r.db.GetContext(ctx, &one, query, args...); err != nil {
		if database.IsNoRows(err) {
			return false, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to check endpoint existence")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check endpoint")
	}

	return true, nil
}

func (r *EndpointRepository) Create(ctx context.Context, endpoint *models.Endpoint) (*models.Endpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "EndpointRepository.Create")
	defer span.End()

	if endpoint.UID == uuid.Nil {
		endpoint.UID = uuid.New()
	}

	now := Now()
	endpoint.CreatedAt = now
	endpoint.UpdatedAt = now

	row := fromEndpoint(endpoint)
	ib := endpointStruct.InsertInto(endpointsTable, row)
	query, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"uid":  endpoint.UID,
		"kind": endpoint.Kind,
	}).Debug("Creating endpoint")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if translated := database.TranslateConstraintError(err); translated != nil {
			return nil, translated
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create endpoint")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create endpoint")
	}

	return endpoint, nil
}

func (r *EndpointRepository) Update(ctx context.Context, uid uuid.UUID, update EndpointUpdate) (*models.Endpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "EndpointRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(endpointsTable)

	assigns := []string{ub.Assign("updated_at", Now())}
	if update.Kind != nil {
		assigns = append(assigns, ub.Assign("kind", *update.Kind))
	}
	if update.URL != nil {
		assigns = append(assigns, ub.Assign("url", *update.URL))
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
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update endpoint")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update endpoint")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update endpoint")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "Endpoint not found")
	}

	sb := endpointStruct.SelectFrom(endpointsTable)
	sb.Where(sb.Equal("uid", uid))
	query, args = sb.Build()

	var row endpointRow
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reload endpoint after update")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update endpoint")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update endpoint")
	}

	return toEndpoint(&row), nil
}

func (r *EndpointRepository) Delete(ctx context.Context, uid uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "EndpointRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(endpointsTable)
	db.Where(db.Equal("uid", uid))

	query, args := db.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete endpoint")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete endpoint")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "Endpoint not found")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"uid": uid,
	}).Info("Deleted endpoint")

	return nil
}
