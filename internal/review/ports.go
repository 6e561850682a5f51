package review

import "context"

// Collaborator is the external card service the session operates against.
// All mutations go through it; the session never patches its own snapshot.
type Collaborator interface {
	ListCards(ctx context.Context) ([]Card, error)
	ApproveCard(ctx context.Context, id string) error
	DeleteCard(ctx context.Context, id string) error
	UpdateCard(ctx context.Context, id string, upd CardUpdate) error
	FetchImage(ctx context.Context, id string) ([]byte, error)
	GenerateImage(ctx context.Context, id string, pos ImagePosition) error
}

// CardUpdate is the full replacement field set for an edit save. The
// collaborator replaces the card's editable fields wholesale.
type CardUpdate struct {
	Content Content
	Tags    []string
	Remarks string
}

// Exporter pushes a batch of cards into the external spaced-repetition
// store. It returns the number of cards actually synchronized.
type Exporter interface {
	ExportBatch(ctx context.Context, deck string, ids []string) (int, error)
}

// DeckPrefs persists the last-used destination deck name across sessions.
// Purely a convenience; never authoritative.
type DeckPrefs interface {
	LastDeck(ctx context.Context) (string, error)
	SetLastDeck(ctx context.Context, name string) error
}
