package database

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UUIDArray maps a Postgres uuid[] column onto a []uuid.UUID.
// A nil slice round-trips as SQL NULL.
type UUIDArray []uuid.UUID

func (a UUIDArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}

	parts := make([]string, len(a))
	for i, id := range a {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

func (a *UUIDArray) Scan(src any) error {
	if src == nil {
		*a = nil
		return nil
	}

	var raw string
	switch v := src.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("UUIDArray.Scan: expected []byte or string, got %T", src)
	}

	raw = strings.TrimPrefix(raw, "{")
	raw = strings.TrimSuffix(raw, "}")
	if raw == "" {
		*a = UUIDArray{}
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(UUIDArray, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.Trim(strings.TrimSpace(part), `"`))
		if err != nil {
			return fmt.Errorf("UUIDArray.Scan: invalid uuid element %q: %w", part, err)
		}
		out = append(out, id)
	}

	*a = out
	return nil
}

func (a UUIDArray) Contains(id uuid.UUID) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}
