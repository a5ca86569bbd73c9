package models

import (
	"time"

	"github.com/google/uuid"
)

// Endpoint is an access point (http, s3, grpc, ...) datasets and services
// link to.
type Endpoint struct {
	UID       uuid.UUID      `json:"uid"`
	Kind      string         `json:"kind"`
	URL       *string        `json:"url"`
	SourceEP  *string        `json:"source_ep"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DisplayName is the name projected into linked-entity results:
// "kind: url" when both are set, otherwise whichever is present, falling
// back to the stringified UID.
func (e *Endpoint) DisplayName() string {
	if e.Kind != "" && e.URL != nil && *e.URL != "" {
		return e.Kind + ": " + *e.URL
	}
	if e.Kind != "" {
		return e.Kind
	}
	if e.URL != nil && *e.URL != "" {
		return *e.URL
	}
	return e.UID.String()
}
