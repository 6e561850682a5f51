package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deckhand/internal/jobs"
	"deckhand/internal/review"

	"github.com/lib/pq"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("card not found")

// Store is the gorm-backed card service behind the review session. It
// satisfies review.Collaborator.
type Store struct {
	DB *gorm.DB
}

// NewCardInput describes a card arriving from the generation pipeline.
type NewCardInput struct {
	Kind             review.CardKind
	Front            string
	Back             string
	Text             string
	Extra            string
	Tags             []string
	Remarks          string
	ImageDescription string
}

// Create ingests a freshly generated card in Pending status and returns
// its id.
func (s *Store) Create(ctx context.Context, in NewCardInput) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate card id: %w", err)
	}
	kind := in.Kind
	if kind == "" {
		kind = review.KindBasic
	}

	rec := CardRecord{
		ID:               id,
		Status:           string(review.StatusPending),
		Kind:             string(kind),
		Front:            in.Front,
		Back:             in.Back,
		Text:             in.Text,
		Extra:            in.Extra,
		Tags:             pq.StringArray(in.Tags),
		Remarks:          in.Remarks,
		ImageDescription: in.ImageDescription,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if rec.Tags == nil {
		rec.Tags = pq.StringArray{}
	}
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", err
	}
	return id, nil
}

// ListCards returns the full current snapshot. Image payloads are left
// out of the listing so the session's lazy-fetch path stays in charge of
// pulling them; only the has_image_data flag travels with the card.
func (s *Store) ListCards(ctx context.Context) ([]review.Card, error) {
	var recs []CardRecord
	if err := s.DB.WithContext(ctx).Omit("image_data").Order("created_at desc").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]review.Card, 0, len(recs))
	for _, r := range recs {
		out = append(out, toCard(r))
	}
	return out, nil
}

// CardsByID loads the full records for ids, image payloads included, in
// the order the ids were given. Ids with no record are skipped.
func (s *Store) CardsByID(ctx context.Context, ids []string) ([]review.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recs []CardRecord
	if err := s.DB.WithContext(ctx).Where("id in ?", ids).Find(&recs).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]CardRecord, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
	}
	out := make([]review.Card, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, toCard(r))
		}
	}
	return out, nil
}

// ApproveCard flips a card's status to Approved.
func (s *Store) ApproveCard(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Model(&CardRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(review.StatusApproved),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCard removes a card permanently, along with any queued image job
// still pointing at it.
func (s *Store) DeleteCard(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&CardRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Exec(`
			delete from jobs
			where type = ?
			  and status = 'PENDING'
			  and payload->>'card_id' = ?
		`, jobs.TypeImageGenerate, id).Error
	})
}

// UpdateCard replaces a card's editable fields wholesale.
func (s *Store) UpdateCard(ctx context.Context, id string, upd review.CardUpdate) error {
	fields := map[string]any{
		"remarks":    upd.Remarks,
		"tags":       tagsColumn(upd.Tags),
		"updated_at": time.Now(),
	}

	switch v := upd.Content.(type) {
	case review.BasicContent:
		fields["kind"] = string(review.KindBasic)
		fields["front"], fields["back"], fields["extra"], fields["text"] = v.Front, v.Back, v.Extra, ""
	case review.BasicReverseContent:
		fields["kind"] = string(review.KindBasicReverse)
		fields["front"], fields["back"], fields["extra"], fields["text"] = v.Front, v.Back, v.Extra, ""
	case review.ClozeContent:
		fields["kind"] = string(review.KindCloze)
		fields["text"], fields["extra"], fields["front"], fields["back"] = v.Text, v.Extra, "", ""
	case review.InteractiveClozeContent:
		fields["kind"] = string(review.KindInteractiveCloze)
		fields["text"], fields["extra"], fields["front"], fields["back"] = v.Text, v.Extra, "", ""
	case review.OtherContent:
		fields["kind"] = string(review.KindOther)
		fields["front"], fields["back"], fields["text"], fields["extra"] = v.Front, v.Back, "", ""
	default:
		return fmt.Errorf("unsupported card content %T", upd.Content)
	}

	res := s.DB.WithContext(ctx).Model(&CardRecord{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FetchImage returns the stored image payload for a card.
func (s *Store) FetchImage(ctx context.Context, id string) ([]byte, error) {
	var rec CardRecord
	if err := s.DB.WithContext(ctx).Select("id", "has_image_data", "image_data").
		Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !rec.HasImageData || len(rec.ImageData) == 0 {
		return nil, review.ErrNoImage
	}
	return rec.ImageData, nil
}

// GenerateImage enqueues an image generation job for (id, pos) through the
// jobs repo, which replaces any pending job for the same card and position.
func (s *Store) GenerateImage(ctx context.Context, id string, pos review.ImagePosition) error {
	var rec CardRecord
	if err := s.DB.WithContext(ctx).Select("id").Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	repo := jobs.Repo{DB: s.DB.WithContext(ctx)}
	return repo.EnqueueImageGenerate(id, string(pos))
}

// MarkSynced flips every id in ids to Synced. Used by the exporter after a
// successful batch push.
func (s *Store) MarkSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Model(&CardRecord{}).
		Where("id in ?", ids).
		Updates(map[string]any{
			"status":     string(review.StatusSynced),
			"updated_at": time.Now(),
		}).Error
}

func tagsColumn(tags []string) pq.StringArray {
	if tags == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(tags)
}

func toCard(r CardRecord) review.Card {
	return review.Card{
		ID:               r.ID,
		Status:           review.Status(r.Status),
		Content:          toContent(r),
		Tags:             []string(r.Tags),
		Remarks:          r.Remarks,
		HasImageData:     r.HasImageData,
		IsPlaceholder:    r.IsPlaceholder,
		ImageData:        r.ImageData,
		ImageDescription: r.ImageDescription,
		CreatedAt:        r.CreatedAt,
	}
}

func toContent(r CardRecord) review.Content {
	switch review.CardKind(r.Kind) {
	case review.KindBasic:
		return review.BasicContent{Front: r.Front, Back: r.Back, Extra: r.Extra}
	case review.KindBasicReverse:
		return review.BasicReverseContent{Front: r.Front, Back: r.Back, Extra: r.Extra}
	case review.KindCloze:
		return review.ClozeContent{Text: r.Text, Extra: r.Extra}
	case review.KindInteractiveCloze:
		return review.InteractiveClozeContent{Text: r.Text, Extra: r.Extra}
	}
	return review.OtherContent{Front: r.Front, Back: r.Back}
}
