// Package hook implements the lifecycle hook execution core: it wraps
// caller-supplied operations with deadline protection, error classification
// and timing so that a misbehaving operation never takes down the write path
// of the surrounding content event.
package hook

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the lifecycle extension point around a content event.
type Kind string

const (
	BeforeCreate Kind = "beforeCreate"
	BeforeUpdate Kind = "beforeUpdate"
	AfterCreate  Kind = "afterCreate"
	AfterUpdate  Kind = "afterUpdate"
	BeforeDelete Kind = "beforeDelete"
	AfterDelete  Kind = "afterDelete"
)

var knownKinds = []Kind{
	BeforeCreate,
	BeforeUpdate,
	AfterCreate,
	AfterUpdate,
	BeforeDelete,
	AfterDelete,
}

// KnownKinds returns all lifecycle hook kinds.
func KnownKinds() []Kind {
	out := make([]Kind, len(knownKinds))
	copy(out, knownKinds)
	return out
}

// IsKnownKind reports whether k is a recognised lifecycle hook kind.
func IsKnownKind(k Kind) bool {
	for _, known := range knownKinds {
		if known == k {
			return true
		}
	}
	return false
}

// Event is the inbound lifecycle event payload. The core passes it through
// untouched to the wrapped operation; only Params.Data is inspected by rule
// evaluators.
type Event struct {
	Params EventParams    `json:"params"`
	Result map[string]any `json:"result,omitempty"`
}

// EventParams carries the record payload and an optional selector.
type EventParams struct {
	Data  map[string]any `json:"data"`
	Where map[string]any `json:"where,omitempty"`
}

// Context identifies one hook execution. It is created fresh per invocation
// and never mutated; the operation id correlates log lines, audit rows and
// monitoring events for a single execution.
type Context struct {
	Category    string    `json:"category"`
	Kind        Kind      `json:"kind"`
	Event       *Event    `json:"-"`
	OperationID string    `json:"operation_id"`
	StartedAt   time.Time `json:"started_at"`
}

// NewContext creates an execution context with a fresh operation id.
func NewContext(category string, kind Kind, ev *Event) Context {
	return Context{
		Category:    category,
		Kind:        kind,
		Event:       ev,
		OperationID: uuid.NewString(),
		StartedAt:   time.Now(),
	}
}

// OperationName is the metrics/timer key for this execution.
func (c Context) OperationName() string {
	return c.Category + "." + string(c.Kind)
}
