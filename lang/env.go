package lang

import "iter"

// Environment is the flat variable namespace evaluated statements read and
// write. Implementations need not be safe for concurrent use.
type Environment interface {
	// Read returns the value bound to name.
	Read(name string) (Value, bool)
	// Write binds name to v, replacing any previous binding.
	Write(name string, v Value)
}

// Memory is an in-memory [Environment] that remembers the order in which
// names were first bound.
type Memory struct {
	names []string
	vars  map[string]Value
}

// NewMemory returns an empty environment.
func NewMemory() *Memory {
	return &Memory{vars: make(map[string]Value)}
}

// Read implements [Environment].
func (m *Memory) Read(name string) (Value, bool) {
	v, ok := m.vars[name]

	return v, ok
}

// Write implements [Environment].
func (m *Memory) Write(name string, v Value) {
	if m.vars == nil {
		m.vars = make(map[string]Value)
	}

	if _, ok := m.vars[name]; !ok {
		m.names = append(m.names, name)
	}

	m.vars[name] = v
}

// Len returns the number of bound names.
func (m *Memory) Len() int { return len(m.names) }

// Names returns the bound names in binding order.
func (m *Memory) Names() []string {
	return append([]string(nil), m.names...)
}

// All returns an iterator over bindings in binding order.
func (m *Memory) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, name := range m.names {
			if !yield(name, m.vars[name]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of m. Containers shared between variables remain
// shared in the copy.
func (m *Memory) Clone() *Memory {
	c := NewMemory()
	seen := make(map[any]Value)

	for name, v := range m.All() {
		c.Write(name, clone(v, seen))
	}

	return c
}
