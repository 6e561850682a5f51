package review

import (
	"context"
	"fmt"
)

// Draft is the mutable working copy of a card's editable fields. Tags are
// held as the comma-separated editing view and materialized back into a
// slice on save.
type Draft struct {
	CardID string
	Kind   CardKind

	Front string
	Back  string
	Text  string
	Extra string

	Tags    string
	Remarks string
}

type editState struct {
	draft Draft
}

// BeginEdit opens an edit session for id, replacing any prior edit target;
// at most one card is ever in edit mode.
func (s *Session) BeginEdit(id string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return Draft{}, ErrCardNotFound
	}
	c := s.cards[i]

	d := Draft{
		CardID:  c.ID,
		Kind:    c.Content.Kind(),
		Tags:    JoinTags(c.Tags),
		Remarks: c.Remarks,
	}
	switch v := c.Content.(type) {
	case BasicContent:
		d.Front, d.Back, d.Extra = v.Front, v.Back, v.Extra
	case BasicReverseContent:
		d.Front, d.Back, d.Extra = v.Front, v.Back, v.Extra
	case ClozeContent:
		d.Text, d.Extra = v.Text, v.Extra
	case InteractiveClozeContent:
		d.Text, d.Extra = v.Text, v.Extra
	case OtherContent:
		d.Front, d.Back = v.Front, v.Back
	}

	s.edit = &editState{draft: d}
	return d, nil
}

// Draft returns the active draft, if any.
func (s *Session) Draft() (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit == nil {
		return Draft{}, false
	}
	return s.edit.draft, true
}

// SetDraft replaces the active draft's fields. The card id and kind cannot
// change mid-edit.
func (s *Session) SetDraft(d Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.edit == nil {
		return ErrNoEdit
	}
	if d.CardID != s.edit.draft.CardID {
		return fmt.Errorf("draft is for card %s, edit target is %s", d.CardID, s.edit.draft.CardID)
	}
	d.Kind = s.edit.draft.Kind
	s.edit.draft = d
	return nil
}

// SaveEdit sends the complete draft as one full-replace update, then
// discards the draft and refreshes.
func (s *Session) SaveEdit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.edit == nil {
		return ErrNoEdit
	}
	d := s.edit.draft

	upd := CardUpdate{
		Content: d.content(),
		Tags:    ParseTags(d.Tags),
		Remarks: d.Remarks,
	}
	if err := s.collab.UpdateCard(ctx, d.CardID, upd); err != nil {
		return fmt.Errorf("update card %s: %w", d.CardID, err)
	}

	s.edit = nil
	if err := s.refreshLocked(ctx); err != nil {
		return err
	}
	s.page = 1
	return nil
}

// CancelEdit discards the draft without saving.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit = nil
}

func (d Draft) content() Content {
	switch d.Kind {
	case KindBasic:
		return BasicContent{Front: d.Front, Back: d.Back, Extra: d.Extra}
	case KindBasicReverse:
		return BasicReverseContent{Front: d.Front, Back: d.Back, Extra: d.Extra}
	case KindCloze:
		return ClozeContent{Text: d.Text, Extra: d.Extra}
	case KindInteractiveCloze:
		return InteractiveClozeContent{Text: d.Text, Extra: d.Extra}
	}
	return OtherContent{Front: d.Front, Back: d.Back}
}
