package core

import "sync"

// Memory is the ordered, append-only log of conversational turns owned by a
// single agent instance. Entries are never reordered or mutated in place.
//
// Contract:
//   - Add appends in strict chronological order
//   - Messages / Last return defensive copies to avoid external mutation
//   - one agent instance owns one Memory exclusively; the mutex only guards
//     against observers reading while the agent's single in-flight step writes
type Memory struct {
	mu       sync.RWMutex
	messages []Message
}

// NewMemory creates an empty memory.
func NewMemory() *Memory { return &Memory{} }

// Add appends a message to the log.
func (m *Memory) Add(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// Messages returns a copy of the full message log in append order.
func (m *Memory) Messages() []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Last returns a copy of the most recent n messages (fewer if the log is
// shorter), preserving order.
func (m *Memory) Last(n int) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n > len(m.messages) {
		n = len(m.messages)
	}
	out := make([]Message, n)
	copy(out, m.messages[len(m.messages)-n:])
	return out
}

// Len returns the number of messages in the log.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}
