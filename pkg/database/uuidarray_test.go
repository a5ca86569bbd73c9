package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDArrayValue(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	value, err := UUIDArray{a, b}.Value()
	require.NoError(t, err)
	assert.Equal(t, "{"+a.String()+","+b.String()+"}", value)
}

func TestUUIDArrayValueNil(t *testing.T) {
	value, err := UUIDArray(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestUUIDArrayScan(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	tests := []struct {
		name     string
		input    any
		expected UUIDArray
	}{
		{
			name:     "bytes",
			input:    []byte("{" + a.String() + "," + b.String() + "}"),
			expected: UUIDArray{a, b},
		},
		{
			name:     "string with quoted elements",
			input:    `{"` + a.String() + `"}`,
			expected: UUIDArray{a},
		},
		{
			name:     "string with spaces",
			input:    "{" + a.String() + ", " + b.String() + "}",
			expected: UUIDArray{a, b},
		},
		{
			name:     "empty array",
			input:    "{}",
			expected: UUIDArray{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out UUIDArray
			require.NoError(t, out.Scan(tt.input))
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestUUIDArrayScanNull(t *testing.T) {
	out := UUIDArray{uuid.New()}
	require.NoError(t, out.Scan(nil))
	assert.Nil(t, out)
}

func TestUUIDArrayScanInvalid(t *testing.T) {
	var out UUIDArray
	assert.Error(t, out.Scan("{not-a-uuid}"))
	assert.Error(t, out.Scan(42))
}

func TestUUIDArrayContains(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	arr := UUIDArray{a}
	assert.True(t, arr.Contains(a))
	assert.False(t, arr.Contains(b))
	assert.False(t, UUIDArray(nil).Contains(a))
}
