package rules

import (
	"sort"

	"github.com/headonpro/contenthooks/internal/apperr"
)

// orderEntries computes a deterministic execution order over items: a rule
// never precedes any of its dependencies present in the set, lower priority
// runs first among rules whose dependencies are met, and registration order
// breaks remaining ties. Dependencies outside the set are ignored. Returns
// apperr.ErrRuleCycle when no complete order exists.
func orderEntries(items []*entry) ([]*entry, error) {
	byID := make(map[string]*entry, len(items))
	for _, e := range items {
		byID[e.def.ID] = e
	}

	indegree := make(map[string]int, len(items))
	dependents := make(map[string][]string, len(items))
	for _, e := range items {
		indegree[e.def.ID] += 0
		for _, dep := range e.def.DependsOn {
			if _, ok := byID[dep]; !ok {
				continue
			}
			indegree[e.def.ID]++
			dependents[dep] = append(dependents[dep], e.def.ID)
		}
	}

	var ready []*entry
	for _, e := range items {
		if indegree[e.def.ID] == 0 {
			ready = append(ready, e)
		}
	}

	out := make([]*entry, 0, len(items))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			if ready[i].def.Priority != ready[j].def.Priority {
				return ready[i].def.Priority < ready[j].def.Priority
			}
			return ready[i].seq < ready[j].seq
		})
		next := ready[0]
		ready = ready[1:]
		out = append(out, next)

		for _, id := range dependents[next.def.ID] {
			indegree[id]--
			if indegree[id] == 0 {
				ready = append(ready, byID[id])
			}
		}
	}

	if len(out) != len(items) {
		return nil, apperr.ErrRuleCycle
	}
	return out, nil
}
