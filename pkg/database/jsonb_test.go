package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONBScanNullColumn(t *testing.T) {
	j := JSONB[map[string]any]{Data: map[string]any{"stale": true}}
	require.NoError(t, j.Scan(nil))
	assert.Nil(t, j.Data)
}

func TestJSONBRoundTrip(t *testing.T) {
	j := JSONB[map[string]any]{Data: map[string]any{"format": "netcdf", "records": float64(42)}}

	value, err := j.Value()
	require.NoError(t, err)

	var out JSONB[map[string]any]
	require.NoError(t, out.Scan(value))
	assert.Equal(t, j.Data, out.Data)
}
