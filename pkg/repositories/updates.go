package repositories

import "github.com/google/uuid"

// Update structs carry partial-update semantics: a nil field is left
// untouched, a non-nil field is written. List fields on AffinityUpdate are
// replaced wholesale, never merged.

type DatasetUpdate struct {
	Title    *string         `json:"title"`
	SourceEP *string         `json:"source_ep"`
	Metadata *map[string]any `json:"metadata"`
}

type EndpointUpdate struct {
	Kind     *string         `json:"kind"`
	URL      *string         `json:"url"`
	SourceEP *string         `json:"source_ep"`
	Metadata *map[string]any `json:"metadata"`
}

type ServiceUpdate struct {
	Type       *string         `json:"type"`
	OpenAPIURL *string         `json:"openapi_url"`
	Version    *string         `json:"version"`
	SourceEP   *string         `json:"source_ep"`
	Metadata   *map[string]any `json:"metadata"`
}

type AffinityUpdate struct {
	DatasetUID   *uuid.UUID      `json:"dataset_uid"`
	EndpointUIDs *[]uuid.UUID    `json:"endpoint_uids"`
	ServiceUIDs  *[]uuid.UUID    `json:"service_uids"`
	Attrs        *map[string]any `json:"attrs"`
	Version      *int            `json:"version"`
}
