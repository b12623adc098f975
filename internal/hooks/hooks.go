// Package hooks is an ordered-list-of-handlers extensibility point with two
// call modes: broadcast to every handler, or stop at the first handler that
// returns a non-nil result. Handler order is registration order, so hook
// outcomes are deterministic.
package hooks

import "sync"

// Handler receives the event arguments and may return a result. Broadcast
// callers ignore the result; first-result callers stop on the first non-nil
// value.
type Handler func(args ...any) any

type listener struct {
	id int
	fn Handler
}

// Manager dispatches named events to registered handlers.
type Manager struct {
	mu     sync.Mutex
	nextID int
	events map[string][]listener
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{events: map[string][]listener{}}
}

// Connect appends a handler for the named event and returns a listener id
// usable with Disconnect.
func (m *Manager) Connect(event string, fn Handler) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.events[event] = append(m.events[event], listener{id: m.nextID, fn: fn})
	return m.nextID
}

// Disconnect removes a handler from every event it is registered for.
func (m *Manager) Disconnect(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for event, listeners := range m.events {
		kept := listeners[:0]
		for _, l := range listeners {
			if l.id != id {
				kept = append(kept, l)
			}
		}
		m.events[event] = kept
	}
}

func (m *Manager) listeners(event string) []listener {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]listener(nil), m.events[event]...)
}

// Emit broadcasts to every handler of event, in registration order.
func (m *Manager) Emit(event string, args ...any) {
	for _, l := range m.listeners(event) {
		l.fn(args...)
	}
}

// EmitFirstResult calls handlers in registration order and returns the
// first non-nil result, or nil when every handler passes.
func (m *Manager) EmitFirstResult(event string, args ...any) any {
	for _, l := range m.listeners(event) {
		if result := l.fn(args...); result != nil {
			return result
		}
	}
	return nil
}
