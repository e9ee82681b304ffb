// Package idmap translates node identities of a recording-time document into
// the identities the same nodes received in a replay-time document.
package idmap

// Map is owned by a single playback run and is not safe for concurrent use.
type Map struct {
	ids map[string]string
}

// New returns an empty Map.
func New() *Map {
	return &Map{ids: make(map[string]string)}
}

// Put records that original is now known as replay, replacing any earlier
// mapping for original.
func (m *Map) Put(original, replay string) {
	if original == "" || replay == "" {
		return
	}
	m.ids[original] = replay
}

// Resolve returns the replay id for original. An unmapped id resolves to
// itself.
func (m *Map) Resolve(original string) string {
	if id, ok := m.ids[original]; ok {
		return id
	}
	return original
}

// Lookup reports the replay id for original and whether one is mapped.
func (m *Map) Lookup(original string) (string, bool) {
	id, ok := m.ids[original]
	return id, ok
}

// Remove forgets original.
func (m *Map) Remove(original string) {
	delete(m.ids, original)
}

// RemoveIf forgets every mapping for which drop returns true and reports
// how many were removed.
func (m *Map) RemoveIf(drop func(original, replay string) bool) int {
	n := 0
	for orig, id := range m.ids {
		if drop(orig, id) {
			delete(m.ids, orig)
			n++
		}
	}
	return n
}

// Len reports the number of mapped identities.
func (m *Map) Len() int { return len(m.ids) }

// Clear forgets every mapping.
func (m *Map) Clear() {
	m.ids = make(map[string]string)
}
