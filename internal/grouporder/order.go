// Package grouporder keeps the process-wide first-seen ordering of group labels.
package grouporder

import "sync"

// Order is an append-only ordered set of group labels. It is safe for concurrent use.
type Order struct {
	mu     sync.RWMutex
	labels []string
	seen   map[string]struct{}
}

// New creates an empty Order.
func New() *Order {
	return &Order{seen: make(map[string]struct{})}
}

// AddIfAbsent appends label unless it is empty or already present.
// It reports whether the label was added.
func (o *Order) AddIfAbsent(label string) bool {
	if label == "" {
		return false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.seen[label]; ok {
		return false
	}
	o.seen[label] = struct{}{}
	o.labels = append(o.labels, label)
	return true
}

// Snapshot returns a copy of the labels in first-seen order.
func (o *Order) Snapshot() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, len(o.labels))
	copy(out, o.labels)
	return out
}

// Len returns the number of labels.
func (o *Order) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.labels)
}
