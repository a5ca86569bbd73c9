package models

import (
	"time"

	"github.com/google/uuid"
)

// Service is a registered compute or API service.
type Service struct {
	UID        uuid.UUID      `json:"uid"`
	Type       *string        `json:"type"`
	OpenAPIURL *string        `json:"openapi_url"`
	Version    *string        `json:"version"`
	SourceEP   *string        `json:"source_ep"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// DisplayName prefers type, then openapi_url, then the stringified UID.
func (s *Service) DisplayName() string {
	if s.Type != nil && *s.Type != "" {
		return *s.Type
	}
	if s.OpenAPIURL != nil && *s.OpenAPIURL != "" {
		return *s.OpenAPIURL
	}
	return s.UID.String()
}
