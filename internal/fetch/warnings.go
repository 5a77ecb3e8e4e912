package fetch

import "sync"

// Warnings is a de-duplicated, insertion-ordered set of user-facing
// messages scoped to one fetch cycle. Safe for concurrent use.
type Warnings struct {
	mu   sync.Mutex
	seen map[string]struct{}
	list []string
}

func NewWarnings(initial ...string) *Warnings {
	w := &Warnings{seen: make(map[string]struct{})}
	w.Add(initial...)
	return w
}

// Add inserts messages not already present and reports whether any was new.
func (w *Warnings) Add(messages ...string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen == nil {
		w.seen = make(map[string]struct{})
	}
	added := false
	for _, m := range messages {
		if m == "" {
			continue
		}
		if _, ok := w.seen[m]; ok {
			continue
		}
		w.seen[m] = struct{}{}
		w.list = append(w.list, m)
		added = true
	}
	return added
}

// List returns a copy of the messages in insertion order.
func (w *Warnings) List() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.list))
	copy(out, w.list)
	return out
}

func (w *Warnings) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.list)
}
