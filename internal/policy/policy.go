// Package policy implements the partial-state-keyed multi-map of spec.md
// 4.2: an indexed collection of items supporting entailment lookup (every
// stored key implied by the query state) and consistency lookup (every
// stored key consistent with the query state). A linear scan is correct
// per spec and is what's implemented here; the visible contract is only
// the set of items returned.
package policy

import "fondsynth.dev/planner/internal/task"

// Keyed is satisfied by anything the Policy container can index: an item
// with a partial-state key and an active flag (tombstoned items are
// skipped by every query, matching the PSGraph's own `is_active`
// convention described in spec.md 9).
type Keyed interface {
	Key() task.PartialState
	Active() bool
}

// Policy is a generic multi-map from partial-state keys to items of type
// T, queried by entailment or consistency.
type Policy[T Keyed] struct {
	items []T
}

// New returns an empty Policy.
func New[T Keyed]() *Policy[T] {
	return &Policy[T]{}
}

// Add inserts item.
func (p *Policy[T]) Add(item T) {
	p.items = append(p.items, item)
}

// Update inserts a batch of items.
func (p *Policy[T]) Update(batch []T) {
	p.items = append(p.items, batch...)
}

// All returns every active item, in insertion order.
func (p *Policy[T]) All() []T {
	out := make([]T, 0, len(p.items))
	for _, it := range p.items {
		if it.Active() {
			out = append(out, it)
		}
	}
	return out
}

// Entailed returns every active item whose key is entailed by q — i.e.
// q.Entails(item.Key()).
func (p *Policy[T]) Entailed(q task.PartialState) []T {
	var out []T
	for _, it := range p.items {
		if it.Active() && q.Entails(it.Key()) {
			out = append(out, it)
		}
	}
	return out
}

// Consistent returns every active item whose key is consistent with q.
func (p *Policy[T]) Consistent(q task.PartialState) []T {
	var out []T
	for _, it := range p.items {
		if it.Active() && q.ConsistentWith(it.Key()) {
			out = append(out, it)
		}
	}
	return out
}

// CheckEntailedMatch is the boolean short-circuiting form of Entailed:
// true as soon as one active item's key is entailed by q.
func (p *Policy[T]) CheckEntailedMatch(q task.PartialState) bool {
	for _, it := range p.items {
		if it.Active() && q.Entails(it.Key()) {
			return true
		}
	}
	return false
}

// Len reports the number of items currently stored, active or not.
func (p *Policy[T]) Len() int {
	return len(p.items)
}
