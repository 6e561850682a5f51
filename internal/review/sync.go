package review

import (
	"context"
	"fmt"
	"strings"
)

// SyncSelected exports the qualifying selected cards to the external store
// as exactly one batched request and returns the count it reports.
//
// Preconditions are checked first and fail without any network call: the
// destination deck must be named, and the candidate set must be non-empty.
// A candidate is a selected card that is Approved, or any selected card
// when force is set (which is how already-Synced cards get re-exported).
// On success the selection is cleared, the snapshot refreshed, and the
// deck name remembered for next time. On failure nothing is cleared; the
// user corrects the cause and re-invokes. A refresh failure after the
// batch landed is not an export failure: the count is returned alongside
// ErrStaleSnapshot so callers can report the result with a warning.
func (s *Session) SyncSelected(ctx context.Context, deck string, force bool) (int, error) {
	deck = strings.TrimSpace(deck)

	s.mu.Lock()
	defer s.mu.Unlock()

	if deck == "" {
		return 0, &PreconditionError{Kind: PreconditionNoDeck}
	}

	ids := s.filterSelectedLocked(func(c Card) bool {
		return force || c.Status == StatusApproved
	})
	if len(ids) == 0 {
		if s.sel.Len() == 0 {
			return 0, &PreconditionError{Kind: PreconditionNoSelected}
		}
		return 0, &PreconditionError{Kind: PreconditionNoApproved}
	}

	count, err := s.exporter.ExportBatch(ctx, deck, ids)
	if err != nil {
		return 0, err
	}

	if s.prefs != nil {
		// convenience only, a write failure must not fail the sync
		_ = s.prefs.SetLastDeck(ctx, deck)
	}

	s.sel.Clear()
	if err := s.refreshLocked(ctx); err != nil {
		return count, fmt.Errorf("%w: %v", ErrStaleSnapshot, err)
	}
	s.page = 1
	return count, nil
}

// LastDeck returns the persisted destination deck name, empty when none
// has been saved yet.
func (s *Session) LastDeck(ctx context.Context) string {
	if s.prefs == nil {
		return ""
	}
	name, err := s.prefs.LastDeck(ctx)
	if err != nil {
		return ""
	}
	return name
}
