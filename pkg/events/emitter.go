// Package events handles event emission for catalog lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/sci-ndp/ndp-affinities/pkg/kafka"
	"github.com/sci-ndp/ndp-affinities/pkg/tracing"
)

// Emitter publishes lifecycle events for entities, links, and affinity
// triples. A nil producer disables emission entirely; every Emit call
// becomes a no-op so callers never need to check whether Kafka is
// configured.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitCreated emits a <kind>.created event carrying the created row
func (e *Emitter) EmitCreated(ctx context.Context, kind string, uid uuid.UUID, payload any) {
	e.emitEntity(ctx, kind+".created", kind, uid, payload)
}

// EmitUpdated emits a <kind>.updated event carrying the updated row
func (e *Emitter) EmitUpdated(ctx context.Context, kind string, uid uuid.UUID, payload any) {
	e.emitEntity(ctx, kind+".updated", kind, uid, payload)
}

// EmitDeleted emits a <kind>.deleted event
func (e *Emitter) EmitDeleted(ctx context.Context, kind string, uid uuid.UUID) {
	e.emitEntity(ctx, kind+".deleted", kind, uid, nil)
}

// EmitLinkCreated emits a <linkKind>.created event for a pairwise link
func (e *Emitter) EmitLinkCreated(ctx context.Context, linkKind string, firstUID, secondUID uuid.UUID) {
	e.emitLink(ctx, linkKind+".created", linkKind, firstUID, secondUID)
}

// EmitLinkDeleted emits a <linkKind>.deleted event for a pairwise link
func (e *Emitter) EmitLinkDeleted(ctx context.Context, linkKind string, firstUID, secondUID uuid.UUID) {
	e.emitLink(ctx, linkKind+".deleted", linkKind, firstUID, secondUID)
}

// Event delivery is best-effort: a publish failure is logged, never
// surfaced to the request that triggered it.
func (e *Emitter) emitEntity(ctx context.Context, eventType, kind string, uid uuid.UUID, payload any) {
	if e.producer == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emitEntity")
	defer span.End()

	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			e.logger.WithContext(ctx).WithError(err).Error("Failed to marshal event payload")
			return
		}
		data = b
	}

	event := &kafka.EntityEvent{
		EventType:  eventType,
		EntityUID:  uid.String(),
		EntityKind: kind,
		Data:       data,
	}

	if err := e.producer.PublishEntityEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
		}).Error("Failed to emit entity event")
	}
}

func (e *Emitter) emitLink(ctx context.Context, eventType, linkKind string, firstUID, secondUID uuid.UUID) {
	if e.producer == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emitLink")
	defer span.End()

	event := &kafka.LinkEvent{
		EventType: eventType,
		LinkKind:  linkKind,
		FirstUID:  firstUID.String(),
		SecondUID: secondUID.String(),
	}

	if err := e.producer.PublishLinkEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
		}).Error("Failed to emit link event")
	}
}
