package navigator

// HistorySize is the number of actions that can be undone.
const HistorySize = 10

// History is a bounded stack of acted-upon paths. When full, pushing drops
// the oldest entry.
type History struct {
	items    []string
	capacity int
}

// NewHistory creates a History holding at most capacity paths.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = HistorySize
	}
	return &History{
		items:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

// Push records path as the most recent entry.
func (h *History) Push(path string) {
	if len(h.items) == h.capacity {
		copy(h.items, h.items[1:])
		h.items = h.items[:len(h.items)-1]
	}
	h.items = append(h.items, path)
}

// Pop removes and returns the most recent entry.
func (h *History) Pop() (string, bool) {
	if len(h.items) == 0 {
		return "", false
	}
	last := h.items[len(h.items)-1]
	h.items = h.items[:len(h.items)-1]
	return last, true
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.items)
}

// Cap returns the maximum number of entries.
func (h *History) Cap() int {
	return h.capacity
}

// Paths returns the entries oldest first.
func (h *History) Paths() []string {
	return append([]string(nil), h.items...)
}
