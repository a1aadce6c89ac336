package config

import "sync/atomic"

// Holder publishes the current Resolved. Readers take a snapshot with
// Current and keep using it; Swap never mutates a published tree.
type Holder struct {
	current atomic.Pointer[Resolved]
}

// NewHolder returns a Holder publishing initial.
func NewHolder(initial *Resolved) *Holder {
	h := &Holder{}
	h.current.Store(initial)
	return h
}

// Current returns the published configuration.
func (h *Holder) Current() *Resolved {
	return h.current.Load()
}

// Swap publishes next and returns the previous tree.
func (h *Holder) Swap(next *Resolved) *Resolved {
	return h.current.Swap(next)
}
