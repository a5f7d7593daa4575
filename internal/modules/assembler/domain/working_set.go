package domain

// WorkingSet is the ordered list of entries. Order is both display order and merge order.
// It is not safe for concurrent use; the assembler service guards it.
type WorkingSet struct {
	entries []*Entry
}

func NewWorkingSet() *WorkingSet {
	return &WorkingSet{}
}

func (w *WorkingSet) Len() int {
	return len(w.entries)
}

func (w *WorkingSet) Append(e *Entry) {
	w.entries = append(w.entries, e)
}

func (w *WorkingSet) Get(id string) (*Entry, bool) {
	i := w.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return w.entries[i], true
}

// Remove drops the entry with the given id and returns it. Absent ids are a no-op.
func (w *WorkingSet) Remove(id string) (*Entry, bool) {
	i := w.indexOf(id)
	if i < 0 {
		return nil, false
	}
	e := w.entries[i]
	w.entries = append(w.entries[:i], w.entries[i+1:]...)
	return e, true
}

// Reorder moves movedID so that it sits immediately before targetID, where the target's
// position is taken after the moved entry has been removed. It reports whether the order changed,
// so a moved entry already sitting right before the target is a no-op.
func (w *WorkingSet) Reorder(movedID, targetID string) bool {
	if movedID == targetID {
		return false
	}
	from := w.indexOf(movedID)
	if from < 0 || w.indexOf(targetID) < 0 {
		return false
	}
	moved, _ := w.Remove(movedID)
	at := w.indexOf(targetID)
	w.entries = append(w.entries, nil)
	copy(w.entries[at+1:], w.entries[at:])
	w.entries[at] = moved
	return at != from
}

// Clear empties the set and returns the removed entries.
func (w *WorkingSet) Clear() []*Entry {
	removed := w.entries
	w.entries = nil
	return removed
}

// Snapshot copies the entries in order. The copies share Source bytes, which are never mutated.
func (w *WorkingSet) Snapshot() []Entry {
	out := make([]Entry, 0, len(w.entries))
	for _, e := range w.entries {
		out = append(out, *e)
	}
	return out
}

func (w *WorkingSet) IDs() []string {
	ids := make([]string, 0, len(w.entries))
	for _, e := range w.entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func (w *WorkingSet) indexOf(id string) int {
	for i, e := range w.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
