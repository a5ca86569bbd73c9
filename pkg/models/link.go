package models

import (
	"time"

	"github.com/google/uuid"
)

// DatasetEndpoint links a dataset to an endpoint. The pair of UIDs is the
// primary key; creating the same pair again overwrites role/attrs.
type DatasetEndpoint struct {
	DatasetUID  uuid.UUID      `json:"dataset_uid"`
	EndpointUID uuid.UUID      `json:"endpoint_uid"`
	Role        *string        `json:"role"`
	Attrs       map[string]any `json:"attrs"`
	CreatedAt   time.Time      `json:"created_at"`
}

// DatasetService links a dataset to a service.
type DatasetService struct {
	DatasetUID uuid.UUID      `json:"dataset_uid"`
	ServiceUID uuid.UUID      `json:"service_uid"`
	Role       *string        `json:"role"`
	Attrs      map[string]any `json:"attrs"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ServiceEndpoint links a service to an endpoint.
type ServiceEndpoint struct {
	ServiceUID  uuid.UUID      `json:"service_uid"`
	EndpointUID uuid.UUID      `json:"endpoint_uid"`
	Role        *string        `json:"role"`
	Attrs       map[string]any `json:"attrs"`
	CreatedAt   time.Time      `json:"created_at"`
}
