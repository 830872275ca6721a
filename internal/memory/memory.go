// Package memory holds per-agent recall: a bounded store of notes and a
// tracker of confidence-weighted beliefs about other players.
package memory

import (
	"slices"
	"time"
)

// DefaultCapacity is used when a Memory is created with a non-positive capacity.
const DefaultCapacity = 100

// Entry is one remembered note.
type Entry struct {
	Content    string    `json:"content" yaml:"content"`
	Importance float64   `json:"importance" yaml:"importance"`
	Source     string    `json:"source,omitempty" yaml:"source,omitempty"`
	At         time.Time `json:"at" yaml:"at"`
}

// Memory is a bounded, insertion-ordered store. Adding to a full memory
// evicts exactly the oldest entry. The zero value is usable.
type Memory struct {
	capacity int
	entries  []Entry
	now      func() time.Time
}

func New(capacity int) Memory {
	return Memory{capacity: capacity}
}

// Capacity returns the effective bound.
func (m *Memory) Capacity() int {
	if m.capacity <= 0 {
		return DefaultCapacity
	}
	return m.capacity
}

// SetClock overrides the timestamp source.
func (m *Memory) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Memory) Add(content string, importance float64, source string) Entry {
	now := time.Now
	if m.now != nil {
		now = m.now
	}
	e := Entry{Content: content, Importance: importance, Source: source, At: now()}
	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.Capacity(); over > 0 {
		m.entries = slices.Delete(m.entries, 0, over)
	}
	return e
}

// Recent returns up to n of the newest entries in insertion order.
func (m *Memory) Recent(n int) []Entry {
	if n <= 0 {
		return nil
	}
	start := max(len(m.entries)-n, 0)
	return slices.Clone(m.entries[start:])
}

// Important returns entries with importance >= threshold, most recent first.
func (m *Memory) Important(threshold float64) []Entry {
	var out []Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].Importance >= threshold {
			out = append(out, m.entries[i])
		}
	}
	return out
}

func (m *Memory) All() []Entry {
	return slices.Clone(m.entries)
}

func (m *Memory) Len() int {
	return len(m.entries)
}

func (m *Memory) Clear() {
	m.entries = nil
}
