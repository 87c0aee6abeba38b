// Package events publishes domain events for order lifecycle transitions
// that other systems (kitchen display, analytics) may subscribe to. The
// conversation core publishes best-effort: a failed publish is logged and
// never fails the command that triggered it.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type enumerates the domain events the Command Bus emits.
type Type string

const (
	TypeOrderConfirmed Type = "order.confirmed"
	TypeOrderCancelled Type = "order.cancelled"
)

// DomainEvent is the envelope every published event carries
// (id/type/aggregate/version/data/metadata/timestamp) so downstream
// consumers see one event schema across services.
type DomainEvent struct {
	ID          string                 `json:"id"`
	Type        Type                   `json:"type"`
	AggregateID string                 `json:"aggregate_id"`
	Version     int                    `json:"version"`
	Data        map[string]interface{} `json:"data"`
	Metadata    map[string]string      `json:"metadata,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// New builds a DomainEvent with a fresh id and the current timestamp.
func New(eventType Type, aggregateID string, version int, data map[string]interface{}) *DomainEvent {
	return &DomainEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		Version:     version,
		Data:        data,
		Timestamp:   time.Now(),
	}
}
