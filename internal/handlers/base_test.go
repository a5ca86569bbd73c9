package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, method, target string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec)
}

func TestParseUUID(t *testing.T) {
	c := newTestContext(t, http.MethodGet, "/")
	c.SetParamNames("uid")
	c.SetParamValues("7d0b0d36-6a4b-43ac-83fc-9f201e0183e7")

	uid, err := ParseUUID(c, "uid")
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("7d0b0d36-6a4b-43ac-83fc-9f201e0183e7"), uid)
}

func TestParseUUIDInvalid(t *testing.T) {
	c := newTestContext(t, http.MethodGet, "/")
	c.SetParamNames("uid")
	c.SetParamValues("not-a-uuid")

	_, err := ParseUUID(c, "uid")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestParseUUIDMissing(t *testing.T) {
	c := newTestContext(t, http.MethodGet, "/")

	_, err := ParseUUID(c, "uid")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestParseListParamsDefaults(t *testing.T) {
	c := newTestContext(t, http.MethodGet, "/datasets")

	skip, limit, err := ParseListParams(c)
	require.NoError(t, err)
	assert.Equal(t, 0, skip)
	assert.Equal(t, 100, limit)
}

func TestParseListParams(t *testing.T) {
	c := newTestContext(t, http.MethodGet, "/datasets?skip=25&limit=10")

	skip, limit, err := ParseListParams(c)
	require.NoError(t, err)
	assert.Equal(t, 25, skip)
	assert.Equal(t, 10, limit)
}

func TestParseListParamsInvalid(t *testing.T) {
	c := newTestContext(t, http.MethodGet, "/datasets?limit=ten")

	_, _, err := ParseListParams(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}
