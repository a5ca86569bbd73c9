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

const servicesTable = "ndp_service"

type serviceRow struct {
	UID        uuid.UUID                      `db:"uid"`
	Type       sql.NullString                 `db:"type"`
	OpenAPIURL sql.NullString                 `db:"openapi_url"`
	Version    sql.NullString                 `db:"version"`
	SourceEP   sql.NullString                 `db:"source_ep"`
	Metadata   database.JSONB[map[string]any] `db:"metadata"`
	CreatedAt  time.Time                      `db:"created_at"`
	UpdatedAt  time.Time                      `db:"updated_at"`
}

var serviceStruct = database.NewStruct(new(serviceRow))

func fromService(s *models.Service) *serviceRow {
	return &serviceRow{
		UID:        s.UID,
		Type:       nullString(s.Type),
		OpenAPIURL: nullString(s.OpenAPIURL),
		Version:    nullString(s.Version),
		SourceEP:   nullString(s.SourceEP),
		Metadata:   database.JSONB[map[string]any]{Data: s.Metadata},
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func toService(row *serviceRow) *models.Service {
	return &models.Service{
		UID:        row.UID,
		Type:       stringPtr(row.Type),
		OpenAPIURL: stringPtr(row.OpenAPIURL),
		Version:    stringPtr(row.Version),
		SourceEP:   stringPtr(row.SourceEP),
		Metadata:   row.Metadata.Data,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func toServices(rows []serviceRow) []models.Service {
	services := make([]models.Service, len(rows))
	for i, row := range rows {
		services[i] = *toService(&row)
	}
	return services
}

// ServiceRepository implements ServiceRepo against Postgres
type ServiceRepository struct {
	*Repository
}

// NewServiceRepository creates a new service repository
func NewServiceRepository(db database.DB, logger ectologger.Logger) *ServiceRepository {
	return &ServiceRepository{Repository: NewRepository(db, logger)}
}

func (r *ServiceRepository) List(ctx context.Context, offset, limit int) ([]models.Service, error) {
	ctx, span := tracing.StartSpan(ctx, "ServiceRepository.List")
	defer span.End()

	offset, limit = normalizePage(offset, limit)

	sb := serviceStruct.SelectFrom(servicesTable)
	sb.OrderBy("created_at")
	sb.Offset(offset).Limit(limit)

	query, args := sb.Build()

	var rows []serviceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list services")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list services")
	}

	return toServices(rows), nil
}

func (r *ServiceRepository) Get(ctx context.Context, uid uuid.UUID) (*models.Service, error) {
	ctx, span := tracing.StartSpan(ctx, "ServiceRepository.Get")
	defer span.End()

	sb := serviceStruct.SelectFrom(servicesTable)
	sb.Where(sb.Equal("uid", uid))

	query, args := sb.Build()

	var row serviceRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "Service not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get service")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get service")
	}

	return toService(&row), nil
}

func (r *ServiceRepository) GetByUIDs(ctx context.Context, uids []uuid.UUID) ([]models.Service, error) {
	ctx, span := tracing.StartSpan(ctx, "ServiceRepository.GetByUIDs")
	defer span.End()

	if len(uids) == 0 {
		return []models.Service{}, nil
	}

	sb := serviceStruct.SelectFrom(servicesTable)
	sb.Where(sb.In("uid", uidArgs(uids)...))

	query, args := sb.Build()

	var rows []serviceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get services by uids")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get services")
	}

	return toServices(rows), nil
}

func (r *ServiceRepository) Exists(ctx context.Context, uid uuid.UUID) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ServiceRepository.Exists")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("1").From(servicesTable)
	sb.Where(sb.Equal("uid", uid))

	query, args := sb.Build()

	var one int
	if err := r.db.GetContext(ctx, &one, query, args...); err != nil {
		if database.IsNoRows(err) {
			return false, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to check service existence")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check service")
	}

	return true, nil
}

func (r *ServiceRepository) Create(ctx context.Context, service *models.Service) (*models.Service, error) {
	ctx, span := tracing.StartSpan(ctx, "ServiceRepository.Create")
	defer span.End()

	if service.UID == uuid.Nil {
		service.UID = uuid.New()
	}

	now := Now()
	service.CreatedAt = now
	service.UpdatedAt = now

	row := fromService(service)
	ib := serviceStruct.InsertInto(servicesTable, row)
	query, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"uid": service.UID,
	}).Debug("Creating service")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if translated := database.TranslateConstraintError(err); translated != nil {
			return nil, translated
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create service")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create service")
	}

	return service, nil
}

func (r *ServiceRepository) Update(ctx context.Context, uid uuid.UUID, update ServiceUpdate) (*models.Service, error) {
	ctx, span := tracing.StartSpan(ctx, "ServiceRepository.Update")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(servicesTable)

	assigns := []string{ub.Assign("updated_at", Now())}
	if update.Type != nil {
		assigns = append(assigns, ub.Assign("type", *update.Type))
	}
	if update.OpenAPIURL != nil {
		assigns = append(assigns, ub.Assign("openapi_url", *update.OpenAPIURL))
	}
	if update.Version != nil {
		assigns = append(assigns, ub.Assign("version", *update.Version))
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
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update service")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update service")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update service")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "Service not found")
	}

	sb := serviceStruct.SelectFrom(servicesTable)
	sb.Where(sb.Equal("uid", uid))
	query, args = sb.Build()

	var row serviceRow
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reload service after update")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update service")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update service")
	}

	return toService(&row), nil
}

func (r *ServiceRepository) Delete(ctx context.Context, uid uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "ServiceRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(servicesTable)
	db.Where(db.Equal("uid", uid))

	query, args := db.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete service")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete service")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "Service not found")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"uid": uid,
	}).Info("Deleted service")

	return nil
}
