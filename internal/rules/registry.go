package rules

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/headonpro/contenthooks/internal/apperr"
)

type entry struct {
	def Definition
	seq int

	evaluations int64
	failures    int64
	totalMs     float64
	lastUsed    time.Time
}

// RuleStats summarises registration state and usage for one rule.
type RuleStats struct {
	ID            string        `json:"id"`
	Category      string        `json:"category"`
	Severity      string        `json:"severity"`
	Priority      int           `json:"priority"`
	Enabled       bool          `json:"enabled"`
	DependsOn     []string      `json:"depends_on,omitempty"`
	Evaluations   int64         `json:"evaluations"`
	Failures      int64         `json:"failures"`
	AverageTimeMs float64       `json:"average_time_ms"`
	LastUsed      time.Time     `json:"last_used,omitzero"`
}

// Registry holds rule definitions per content category. Registration is
// additive; re-registering an id replaces its definition in place.
// Dependency graphs are re-validated on every mutation so cycles and unknown
// references fail here, never during event handling.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	seq     int

	// onMutate is notified with the affected category after any mutation,
	// so the engine can conservatively invalidate cached results.
	onMutate func(category string)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// OnMutate installs the mutation callback. Engine wiring only.
func (r *Registry) OnMutate(fn func(category string)) {
	r.mu.Lock()
	r.onMutate = fn
	r.mu.Unlock()
}

// Register adds def, or replaces the existing definition with the same id.
// Registration fails when the definition is malformed, references an unknown
// or cross-category dependency, or would close a dependency cycle. A replaced
// rule keeps its original registration order.
func (r *Registry) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dep := range def.DependsOn {
		other, ok := r.entries[dep]
		if !ok {
			return fmt.Errorf("rule %s depends on %s: %w", def.ID, dep, apperr.ErrUnknownRule)
		}
		if other.def.Category != def.Category {
			return fmt.Errorf("rule %s depends on %s from category %s: %w",
				def.ID, dep, other.def.Category, apperr.ErrUnknownRule)
		}
	}

	prev, replacing := r.entries[def.ID]
	e := &entry{def: def}
	if replacing {
		e.seq = prev.seq
	} else {
		r.seq++
		e.seq = r.seq
	}
	r.entries[def.ID] = e

	if _, err := orderEntries(r.categoryEntriesLocked(def.Category)); err != nil {
		// Roll back so the registry never holds an unorderable graph.
		if replacing {
			r.entries[def.ID] = prev
		} else {
			delete(r.entries, def.ID)
		}
		return fmt.Errorf("rule %s: %w", def.ID, err)
	}

	r.notifyLocked(def.Category)
	return nil
}

// SetEnabled toggles a rule. Takes effect on the next validation; in-flight
// validations keep the set they resolved.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, apperr.ErrRuleNotFound)
	}
	e.def.Enabled = enabled
	r.notifyLocked(e.def.Category)
	return nil
}

// SetConfig replaces a rule's opaque configuration.
func (r *Registry) SetConfig(id string, cfg map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, apperr.ErrRuleNotFound)
	}
	e.def.Config = cfg
	r.notifyLocked(e.def.Category)
	return nil
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return Definition{}, false
	}
	return e.def, true
}

// RulesFor returns the enabled rules for a category in execution order:
// topological over dependencies, lower priority first among ready rules,
// registration order as the final tie-break. Dependencies on disabled rules
// are treated as satisfied.
func (r *Registry) RulesFor(category string) ([]Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var enabled []*entry
	for _, e := range r.categoryEntriesLocked(category) {
		if e.def.Enabled {
			enabled = append(enabled, e)
		}
	}
	ordered, err := orderEntries(enabled)
	if err != nil {
		return nil, err
	}
	out := make([]Definition, len(ordered))
	for i, e := range ordered {
		out[i] = e.def
	}
	return out, nil
}

// Categories returns every category with at least one registered rule.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, e := range r.entries {
		seen[e.def.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Stats returns usage and timing summaries for every rule, sorted by id.
func (r *Registry) Stats() []RuleStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RuleStats, 0, len(r.entries))
	for _, e := range r.entries {
		s := RuleStats{
			ID:          e.def.ID,
			Category:    e.def.Category,
			Severity:    string(e.def.Severity),
			Priority:    e.def.Priority,
			Enabled:     e.def.Enabled,
			DependsOn:   append([]string(nil), e.def.DependsOn...),
			Evaluations: e.evaluations,
			Failures:    e.failures,
			LastUsed:    e.lastUsed,
		}
		if e.evaluations > 0 {
			s.AverageTimeMs = e.totalMs / float64(e.evaluations)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// recordUse folds one evaluation into the rule's usage stats.
func (r *Registry) recordUse(id string, d time.Duration, passed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return
	}
	e.evaluations++
	e.totalMs += float64(d.Milliseconds())
	if !passed {
		e.failures++
	}
	e.lastUsed = time.Now()
}

func (r *Registry) categoryEntriesLocked(category string) []*entry {
	var out []*entry
	for _, e := range r.entries {
		if e.def.Category == category {
			out = append(out, e)
		}
	}
	return out
}

func (r *Registry) notifyLocked(category string) {
	if r.onMutate != nil {
		r.onMutate(category)
	}
}
