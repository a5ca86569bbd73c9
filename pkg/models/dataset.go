package models

import (
	"time"

	"github.com/google/uuid"
)

// Dataset is a registered dataset. Its UID shares an identifier namespace
// with Service and Endpoint; a given UID lives in at most one of the three
// tables.
type Dataset struct {
	UID       uuid.UUID      `json:"uid"`
	Title     *string        `json:"title"`
	SourceEP  *string        `json:"source_ep"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
