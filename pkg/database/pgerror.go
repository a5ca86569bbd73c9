package database

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/lib/pq"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// IsNoRows reports whether err is a no-rows result.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// TranslateConstraintError maps Postgres constraint violations that slip past
// pre-validation onto client-facing HTTP errors: foreign key violations to
// 400, unique violations to 409. Any other error returns nil so callers fall
// through to their generic 500.
func TranslateConstraintError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	detail := pqErr.Detail
	if detail == "" {
		detail = pqErr.Message
	}

	switch string(pqErr.Code) {
	case pgForeignKeyViolation:
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "foreign key violation: %s", detail).
			AddMetaValue("constraint", pqErr.Constraint)
	case pgUniqueViolation:
		return httperror.NewHTTPErrorf(http.StatusConflict, "duplicate key: %s", detail).
			AddMetaValue("constraint", pqErr.Constraint)
	}

	return nil
}
