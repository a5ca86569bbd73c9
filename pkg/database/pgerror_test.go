package database

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(sql.ErrNoRows))
	assert.True(t, IsNoRows(fmt.Errorf("get failed: %w", sql.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("sql: no rows in result set")))
	assert.False(t, IsNoRows(nil))
}

func TestTranslateConstraintErrorForeignKey(t *testing.T) {
	err := TranslateConstraintError(&pq.Error{
		Code:       "23503",
		Detail:     `Key (dataset_uid)=(abc) is not present in table "ndp_dataset".`,
		Constraint: "ndp_dataset_endpoint_dataset_uid_fkey",
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	assert.Contains(t, err.Error(), "foreign key violation")
	assert.Contains(t, err.Error(), "dataset_uid")
}

func TestTranslateConstraintErrorUnique(t *testing.T) {
	err := TranslateConstraintError(&pq.Error{
		Code:   "23505",
		Detail: `Key (uid)=(abc) already exists.`,
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestTranslateConstraintErrorWrapped(t *testing.T) {
	wrapped := fmt.Errorf("exec failed: %w", &pq.Error{Code: "23505", Message: "duplicate"})

	err := TranslateConstraintError(wrapped)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestTranslateConstraintErrorPassthrough(t *testing.T) {
	assert.Nil(t, TranslateConstraintError(errors.New("connection refused")))
	assert.Nil(t, TranslateConstraintError(&pq.Error{Code: "42P01"}))
}
