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

const serviceEndpointsTable = "ndp_service_endpoint"

type serviceEndpointRow struct {
	ServiceUID  uuid.UUID                      `db:"service_uid"`
	EndpointUID uuid.UUID                      `db:"endpoint_uid"`
	Role        sql.NullString                 `db:"role"`
	Attrs       database.JSONB[map[string]any] `db:"attrs"`
	CreatedAt   time.Time                      `db:"created_at"`
}

var serviceEndpointStruct = database.NewStruct(new(serviceEndpointRow))

func fromServiceEndpoint(l *models.ServiceEndpoint) *serviceEndpointRow {
	return &serviceEndpointRow{
		ServiceUID:  l.ServiceUID,
		EndpointUID: l.EndpointUID,
		Role:        nullString(l.Role),
		Attrs:       database.JSONB[map[string]any]{Data: l.Attrs},
		CreatedAt:   l.CreatedAt,
	}
}

func toServiceEndpoint(row *serviceEndpointRow) *models.ServiceEndpoint {
	return &models.ServiceEndpoint{
		ServiceUID:  row.ServiceUID,
		EndpointUID: row.EndpointUID,
		Role:        stringPtr(row.Role),
		Attrs:       row.Attrs.Data,
		CreatedAt:   row.CreatedAt,
	}
}

func toServiceEndpoints(rows []serviceEndpointRow) []models.ServiceEndpoint {
	links := make([]models.ServiceEndpoint, len(rows))
	for i, row := range rows {
		links[i] = *toServiceEndpoint(&row)
	}
	return links
}

// ServiceEndpointRepository implements ServiceEndpointRepo against Postgres
type ServiceEndpointRepository struct {
	*Repository
}

// NewServiceEndpointRepository creates a new service-endpoint link repository
func NewServiceEndpointRepository(db database.DB, logger ectologger.Logger) *ServiceEndpointRepository {
	return &ServiceEndpointRepository{Repository: NewRepository(db, logger)}
}

func (r *ServiceEndpointRepository) List(ctx context.Context, offset, limit int) ([]models.ServiceEndpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "ServiceEndpointRepository.List")
	defer span.End()

	offset, limit = normalizePage(offset, limit)

	sb := serviceEndpointStruct.SelectFrom(serviceEndpointsTable)
	sb.OrderBy("created_at")
	sb.Offset(offset).Limit(limit)

	query, args := sb.Build()

	var rows []serviceEndpointRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list service-endpoint links")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list service-endpoint links")
	}

	return toServiceEndpoints(rows), nil
}

func (r *ServiceEndpointRepository) GetByPair(ctx context.Context, serviceUID, endpointUID uuid.UUID) (*models.ServiceEndpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "ServiceEndpointRepository.GetByPair")
	defer span.End()

	sb := serviceEndpointStruct.SelectFrom(serviceEndpointsTable)
	sb.Where(
		sb.Equal("service_uid", serviceUID),
		sb.Equal("endpoint_uid", endpointUID),
	)

	query, args := sb.Build()

	var row serviceEndpointRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "ServiceEndpoint not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get service-endpoint link")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get service-endpoint link")
	}

	return toServiceEndpoint(&row), nil
}

func (r *ServiceEndpointRepository) ListByService(ctx context.Context, serviceUID uuid.UUID) ([]models.ServiceEndpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "ServiceEndpointRepository.ListByService")
	defer span.End()

	sb := serviceEndpointStruct.SelectFrom(serviceEndpointsTable)
	sb.Where(sb.Equal("service_uid", serviceUID))

	query, args := sb.Build()

	var rows []serviceEndpointRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list service-endpoint links by service")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list service-endpoint links")
	}

	return toServiceEndpoints(rows), nil
}

func (r *ServiceEndpointRepository) ListByEndpoint(ctx context.Context, endpointUID uuid.UUID) ([]models.ServiceEndpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "ServiceEndpointRepository.ListByEndpoint")
	defer span.End()

	sb := serviceEndpointStruct.SelectFrom(serviceEndpointsTable)
	sb.Where(sb.Equal("endpoint_uid", endpointUID))

	query, args := sb.Build()

	var rows []serviceEndpointRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list service-endpoint links by endpoint")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list service-endpoint links")
	}

	return toServiceEndpoints(rows), nil
}

// Upsert inserts the link, overwriting role/attrs when the pair already
// exists. created_at is preserved on conflict.
func (r *ServiceEndpointRepository) Upsert(ctx context.Context, link *models.ServiceEndpoint) (*models.ServiceEndpoint, error) {
	ctx, span := tracing.StartSpan(ctx, "ServiceEndpointRepository.Upsert")
	defer span.End()

	link.CreatedAt = Now()

	row := fromServiceEndpoint(link)
	ib := serviceEndpointStruct.InsertInto(serviceEndpointsTable, row)
	ub := ib.OnConflict("service_uid", "endpoint_uid")
	ub.Set(
		ub.Assign("role", database.Excluded("role")),
		ub.Assign("attrs", database.Excluded("attrs")),
	)

	query, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"service_uid":  link.ServiceUID,
		"endpoint_uid": link.EndpointUID,
	}).Debug("Upserting service-endpoint link")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if translated := database.TranslateConstraintError(err); translated != nil {
			return nil, translated
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to upsert service-endpoint link")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create service-endpoint link")
	}

	return r.GetByPair(ctx, link.ServiceUID, link.EndpointUID)
}

func (r *ServiceEndpointRepository) DeleteByPair(ctx context.Context, serviceUID, endpointUID uuid.UUID) error {
	ctx, span := tracing.StartSpan(ctx, "ServiceEndpointRepository.DeleteByPair")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(serviceEndpointsTable)
	db.Where(
		db.Equal("service_uid", serviceUID),
		db.Equal("endpoint_uid", endpointUID),
	)

	query, args := db.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete service-endpoint link")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete service-endpoint link")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "ServiceEndpoint not found")
	}

	return nil
}
