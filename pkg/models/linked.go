package models

import "github.com/google/uuid"

// EntityKind identifies which table an identifier was found in.
type EntityKind string

const (
	EntityKindDataset  EntityKind = "dataset"
	EntityKindEndpoint EntityKind = "endpoint"
	EntityKindService  EntityKind = "service"
)

// LinkedNode is one neighbor in a linked-entities result.
type LinkedNode struct {
	UID  uuid.UUID `json:"uid"`
	Name *string   `json:"name"`
}

// LinkedEntities is the resolver output: every dataset, endpoint, and
// service reachable from the input through one hop of pairwise links or
// affinity membership, deduplicated and sorted by string UID.
type LinkedEntities struct {
	InputUID  uuid.UUID    `json:"input_uid"`
	InputType EntityKind   `json:"input_type"`
	Datasets  []LinkedNode `json:"datasets"`
	Endpoints []LinkedNode `json:"endpoints"`
	Services  []LinkedNode `json:"services"`
}
