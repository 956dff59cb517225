// Package events accumulates text messages delivered by a wsclient.Client
// so a test goroutine can inspect them.
package events

import (
	"strings"
	"sync"
)

// Registry is a thread-safe, ordered accumulator of received text messages.
// Messages are kept in arrival order. The only way to remove messages is
// Clear, so Len never decreases between clears.
//
// Growth is unbounded; callers are expected to Clear between scenarios.
type Registry struct {
	mu       sync.RWMutex
	messages []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends message to the registry.
func (r *Registry) Register(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

// Messages returns a copy of the registered messages, oldest first.
// Returns nil when the registry is empty.
func (r *Registry) Messages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.messages) == 0 {
		return nil
	}

	result := make([]string, len(r.messages))
	copy(result, r.messages)
	return result
}

// Len returns the current number of registered messages.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages)
}

// Joined returns the registered messages joined by sep.
func (r *Registry) Joined(sep string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return strings.Join(r.messages, sep)
}

// Clear removes all messages.
// A Register racing with Clear may land on either side of it.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = nil
}
