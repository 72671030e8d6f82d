package storage

// Memory keeps entries in a plain map. Used by tests and as a throwaway
// backend when no data file is wanted.
type Memory struct {
	entries map[string]string
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) Load(key string) (string, bool) {
	v, ok := m.entries[key]
	return v, ok
}

func (m *Memory) Save(key, value string) {
	m.entries[key] = value
}

func (m *Memory) Clear(key string) {
	delete(m.entries, key)
}
