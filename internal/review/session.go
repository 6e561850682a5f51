package review

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DefaultPageSize is the pending-partition page size.
const DefaultPageSize = 10

// Session owns the authoritative card snapshot and every piece of review
// state layered on top of it: the selection, the pending-page cursor, the
// per-card image state machines and the single edit draft. All collaborator
// traffic goes through one operation at a time; the mutex stands in for the
// cooperative scheduling of the original flow.
type Session struct {
	mu sync.Mutex

	collab   Collaborator
	exporter Exporter
	prefs    DeckPrefs

	cards []Card // sorted CreatedAt descending
	byID  map[string]int

	sel      *Selection
	page     int
	pageSize int

	images *ImageLoader
	gen    *Generator
	edit   *editState
}

// SessionOptions configures a Session.
type SessionOptions struct {
	PageSize int
}

func NewSession(collab Collaborator, exporter Exporter, prefs DeckPrefs, opts SessionOptions) *Session {
	ps := opts.PageSize
	if ps <= 0 {
		ps = DefaultPageSize
	}
	s := &Session{
		collab:   collab,
		exporter: exporter,
		prefs:    prefs,
		byID:     map[string]int{},
		sel:      NewSelection(),
		page:     1,
		pageSize: ps,
	}
	s.images = newImageLoader(collab)
	s.gen = newGenerator(collab, s.refreshAfterAction, s.images.Invalidate)
	return s
}

// Refresh replaces the whole snapshot from the collaborator. Derived views
// are recomputed from scratch; nothing is merged. The pending page cursor
// is preserved.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// refreshAfterAction is Refresh plus a page reset, used after any
// state-changing operation that may have shrunk the pending partition.
func (s *Session) refreshAfterAction(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refreshLocked(ctx); err != nil {
		return err
	}
	s.page = 1
	return nil
}

func (s *Session) refreshLocked(ctx context.Context) error {
	cards, err := s.collab.ListCards(ctx)
	if err != nil {
		return fmt.Errorf("list cards: %w", err)
	}

	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].CreatedAt.After(cards[j].CreatedAt)
	})

	s.cards = cards
	s.byID = make(map[string]int, len(cards))
	for i := range cards {
		s.byID[cards[i].ID] = i
	}

	s.images.sync(cards)
	s.gen.sync(cards)
	return nil
}

// Card returns the snapshot copy of id.
func (s *Session) Card(id string) (Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return Card{}, false
	}
	return s.cards[i], true
}

// Pending returns the pending partition in snapshot order.
func (s *Session) Pending() []Card { return s.partition(StatusPending) }

// Approved returns the approved partition in snapshot order.
func (s *Session) Approved() []Card { return s.partition(StatusApproved) }

// Synced returns the synced partition in snapshot order.
func (s *Session) Synced() []Card { return s.partition(StatusSynced) }

func (s *Session) partition(st Status) []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Card
	for _, c := range s.cards {
		if c.Status == st {
			out = append(out, c)
		}
	}
	return out
}

// Page is one window over the pending partition.
type Page struct {
	Cards      []Card
	Number     int
	PageSize   int
	TotalPages int
	TotalCards int
}

// PendingPage returns the current pending-partition window.
func (s *Session) PendingPage() Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []Card
	for _, c := range s.cards {
		if c.Status == StatusPending {
			pending = append(pending, c)
		}
	}

	total := len(pending)
	pages := (total + s.pageSize - 1) / s.pageSize
	if pages < 1 {
		pages = 1
	}
	if s.page > pages {
		s.page = pages
	}
	if s.page < 1 {
		s.page = 1
	}

	lo := (s.page - 1) * s.pageSize
	hi := lo + s.pageSize
	if lo > total {
		lo = total
	}
	if hi > total {
		hi = total
	}

	return Page{
		Cards:      pending[lo:hi],
		Number:     s.page,
		PageSize:   s.pageSize,
		TotalPages: pages,
		TotalCards: total,
	}
}

// SetPage moves the pending page cursor. Out-of-range values are clamped
// on the next PendingPage call.
func (s *Session) SetPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 {
		n = 1
	}
	s.page = n
}

// Toggle flips id's membership in the selection.
func (s *Session) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Toggle(id)
}

// SelectAllPending replaces the selection with every pending id, discarding
// whatever was selected before.
func (s *Session) SelectAllPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, c := range s.cards {
		if c.Status == StatusPending {
			ids = append(ids, c.ID)
		}
	}
	s.sel.Replace(ids)
}

// DeselectAll empties the selection.
func (s *Session) DeselectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Clear()
}

// ToggleAllSynced selects every synced card unless all of them are already
// selected, in which case it deselects them. Other partitions' selections
// are left alone.
func (s *Session) ToggleAllSynced() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	all := true
	for _, c := range s.cards {
		if c.Status != StatusSynced {
			continue
		}
		ids = append(ids, c.ID)
		if !s.sel.Has(c.ID) {
			all = false
		}
	}
	if len(ids) == 0 {
		return
	}
	if all {
		s.sel.Remove(ids)
		return
	}
	s.sel.Add(ids)
}

// Selected reports whether id is currently selected.
func (s *Session) Selected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Has(id)
}

// SelectedIDs returns the selection in insertion order.
func (s *Session) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.IDs()
}

// ApproveSelected approves every selected pending card, one collaborator
// call at a time in selection order. The loop stops on the first failure:
// cards approved before it stay approved, and the selection is kept so the
// user can inspect and retry. Only a fully successful pass clears the
// selection and refreshes.
func (s *Session) ApproveSelected(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.filterSelectedLocked(func(c Card) bool { return c.Status == StatusPending })
	if len(ids) == 0 {
		return nil
	}

	for _, id := range ids {
		if err := s.collab.ApproveCard(ctx, id); err != nil {
			return fmt.Errorf("approve card %s: %w", id, err)
		}
	}

	s.sel.Clear()
	if err := s.refreshLocked(ctx); err != nil {
		return err
	}
	s.page = 1
	return nil
}

// DeleteSelected deletes every selected card present in the snapshot, any
// status, sequentially and fail-stop. Partial results stand: ids deleted
// before a failure are gone, the rest stay, and the selection is untouched
// so the outcome can be inspected. Callers surface failures as a single
// generic message.
func (s *Session) DeleteSelected(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.filterSelectedLocked(func(Card) bool { return true })
	if len(ids) == 0 {
		return nil
	}

	for _, id := range ids {
		if err := s.collab.DeleteCard(ctx, id); err != nil {
			return fmt.Errorf("delete card %s: %w", id, err)
		}
	}

	s.sel.Clear()
	if err := s.refreshLocked(ctx); err != nil {
		return err
	}
	s.page = 1
	return nil
}

// DeleteCard deletes a single card. Confirmation is the caller's problem;
// the deletion itself is irreversible.
func (s *Session) DeleteCard(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return ErrCardNotFound
	}
	if err := s.collab.DeleteCard(ctx, id); err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	if err := s.refreshLocked(ctx); err != nil {
		return err
	}
	s.page = 1
	return nil
}

// filterSelectedLocked materializes the selection in insertion order,
// keeping only ids present in the snapshot whose card satisfies keep.
func (s *Session) filterSelectedLocked(keep func(Card) bool) []string {
	var out []string
	for _, id := range s.sel.IDs() {
		i, ok := s.byID[id]
		if !ok {
			continue
		}
		if keep(s.cards[i]) {
			out = append(out, id)
		}
	}
	return out
}

// Images exposes the per-card image load state machine.
func (s *Session) Images() *ImageLoader { return s.images }

// Generation exposes the per-card image generation tracker.
func (s *Session) Generation() *Generator { return s.gen }
