package hook

import (
	"context"
	"sync"
)

// CategoryHooks holds the optional per-kind operations for one content
// category. Nil fields pass through: the event proceeds untouched. Hook sets
// are composed into the dispatcher rather than inherited from a base type.
type CategoryHooks struct {
	BeforeCreate Operation
	BeforeUpdate Operation
	AfterCreate  Operation
	AfterUpdate  Operation
	BeforeDelete Operation
	AfterDelete  Operation
}

func (h CategoryHooks) forKind(k Kind) Operation {
	switch k {
	case BeforeCreate:
		return h.BeforeCreate
	case BeforeUpdate:
		return h.BeforeUpdate
	case AfterCreate:
		return h.AfterCreate
	case AfterUpdate:
		return h.AfterUpdate
	case BeforeDelete:
		return h.BeforeDelete
	case AfterDelete:
		return h.AfterDelete
	}
	return nil
}

// Dispatcher routes lifecycle events to the hook set registered for their
// content category and runs the matching operation through the executor.
type Dispatcher struct {
	mu    sync.RWMutex
	hooks map[string]CategoryHooks
	exec  *Executor
}

// NewDispatcher creates a dispatcher backed by exec.
func NewDispatcher(exec *Executor) *Dispatcher {
	return &Dispatcher{
		hooks: make(map[string]CategoryHooks),
		exec:  exec,
	}
}

// Register installs (or replaces) the hook set for a content category.
func (d *Dispatcher) Register(category string, h CategoryHooks) {
	d.mu.Lock()
	d.hooks[category] = h
	d.mu.Unlock()
}

// Categories returns the registered content categories.
func (d *Dispatcher) Categories() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.hooks))
	for c := range d.hooks {
		out = append(out, c)
	}
	return out
}

// Dispatch runs the hook registered for (category, kind) against ev. When no
// operation is registered the event passes through successfully.
func (d *Dispatcher) Dispatch(ctx context.Context, category string, kind Kind, ev *Event) Result {
	d.mu.RLock()
	op := d.hooks[category].forKind(kind)
	d.mu.RUnlock()

	if op == nil {
		return Result{
			Context:    NewContext(category, kind, ev),
			Success:    true,
			CanProceed: true,
			Errors:     []ErrorRecord{},
			Warnings:   []ErrorRecord{},
		}
	}
	return d.exec.Execute(ctx, category, kind, ev, op)
}
