package review

// Selection is the set of card ids marked for a pending bulk action.
// It preserves insertion order so bulk executors see a deterministic
// iteration order, and it is not scoped to a status partition: an id may
// stay selected while its card moves between partitions. Toggling never
// validates ids against the snapshot; executors filter at invocation time.
type Selection struct {
	order   []string
	present map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{present: map[string]struct{}{}}
}

// Toggle adds id if absent, removes it if present.
func (s *Selection) Toggle(id string) {
	if _, ok := s.present[id]; ok {
		s.remove(id)
		return
	}
	s.present[id] = struct{}{}
	s.order = append(s.order, id)
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.present[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int { return len(s.order) }

// IDs materializes the selection in insertion order. The returned slice
// is a copy.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Replace discards the prior selection and selects exactly ids, in order.
func (s *Selection) Replace(ids []string) {
	s.Clear()
	for _, id := range ids {
		if _, ok := s.present[id]; ok {
			continue
		}
		s.present[id] = struct{}{}
		s.order = append(s.order, id)
	}
}

// Add selects ids not already selected, keeping existing entries in place.
func (s *Selection) Add(ids []string) {
	for _, id := range ids {
		if _, ok := s.present[id]; ok {
			continue
		}
		s.present[id] = struct{}{}
		s.order = append(s.order, id)
	}
}

// Remove deselects every id in ids that is currently selected.
func (s *Selection) Remove(ids []string) {
	for _, id := range ids {
		s.remove(id)
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.order = s.order[:0]
	s.present = map[string]struct{}{}
}

func (s *Selection) remove(id string) {
	if _, ok := s.present[id]; !ok {
		return
	}
	delete(s.present, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
