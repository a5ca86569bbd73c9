package models

import (
	"time"

	"github.com/google/uuid"
)

// AffinityTriple relates an optional dataset to arbitrary sets of endpoints
// and services. Membership lists may be empty or absent, and a triple need
// not reference any entity at all. Updates replace a list wholesale, never
// merge into it.
type AffinityTriple struct {
	TripleUID    uuid.UUID      `json:"triple_uid"`
	DatasetUID   *uuid.UUID     `json:"dataset_uid"`
	EndpointUIDs []uuid.UUID    `json:"endpoint_uids"`
	ServiceUIDs  []uuid.UUID    `json:"service_uids"`
	Attrs        map[string]any `json:"attrs"`
	Version      *int           `json:"version"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
