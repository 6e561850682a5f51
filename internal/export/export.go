// Package export pushes reviewed cards into Anki and records the outcome.
package export

import (
	"context"
	"fmt"

	"deckhand/internal/anki"
	"deckhand/internal/review"
)

// CardSource provides full card records for an export batch and flips
// them to Synced once the batch lands.
type CardSource interface {
	CardsByID(ctx context.Context, ids []string) ([]review.Card, error)
	MarkSynced(ctx context.Context, ids []string) error
}

// Service implements review.Exporter over the AnkiConnect client.
type Service struct {
	Cards CardSource
	Anki  *anki.Client
}

// ExportBatch ensures the destination deck exists, pushes every candidate
// card as one addNotes request, marks the batch Synced and returns the
// count Anki accepted. The push is a single call; per-card requests would
// lose the atomic-from-the-client's-view batching the flow relies on.
func (s *Service) ExportBatch(ctx context.Context, deck string, ids []string) (int, error) {
	cards, err := s.Cards.CardsByID(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("load export batch: %w", err)
	}
	if len(cards) == 0 {
		return 0, nil
	}

	if err := s.Anki.CreateDeck(ctx, deck); err != nil {
		return 0, err
	}

	notes := make([]anki.Note, 0, len(cards))
	for _, c := range cards {
		notes = append(notes, anki.BuildNote(deck, c))
	}

	count, err := s.Anki.AddNotes(ctx, notes)
	if err != nil {
		return 0, err
	}

	synced := make([]string, 0, len(cards))
	for _, c := range cards {
		synced = append(synced, c.ID)
	}
	if err := s.Cards.MarkSynced(ctx, synced); err != nil {
		return count, fmt.Errorf("mark synced: %w", err)
	}
	return count, nil
}
