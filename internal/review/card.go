package review

import (
	"strings"
	"time"
)

// Status is a card's position in the review lifecycle. Under normal
// operation it only moves forward: Pending -> Approved -> Synced.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusSynced   Status = "SYNCED"
)

// ImagePosition selects which side of a card a generated image belongs to.
type ImagePosition string

const (
	ImageFront ImagePosition = "front"
	ImageBack  ImagePosition = "back"
)

// Card is a single learning-content artifact under review.
type Card struct {
	ID      string
	Status  Status
	Content Content

	Tags    []string
	Remarks string

	// Image metadata. ImageData may already be inlined on load; when it is
	// not but HasImageData is set, the payload is fetched lazily.
	HasImageData     bool
	IsPlaceholder    bool
	ImageData        []byte
	ImageDescription string

	CreatedAt time.Time
}

// Content is the variant-specific field set of a card. Exactly one
// concrete type applies per card.
type Content interface {
	Kind() CardKind
}

// CardKind tags the content variant.
type CardKind string

const (
	KindBasic            CardKind = "basic"
	KindBasicReverse     CardKind = "basic_reverse"
	KindCloze            CardKind = "cloze"
	KindInteractiveCloze CardKind = "interactive_cloze"
	KindOther            CardKind = "other"
)

// BasicContent is a plain front/back card.
type BasicContent struct {
	Front string
	Back  string
	Extra string
}

// BasicReverseContent additionally yields a reversed review direction in
// the external store.
type BasicReverseContent struct {
	Front string
	Back  string
	Extra string
}

// ClozeContent carries cloze-deletion text.
type ClozeContent struct {
	Text  string
	Extra string
}

// InteractiveClozeContent is cloze text rendered with per-blank reveal.
type InteractiveClozeContent struct {
	Text  string
	Extra string
}

// OtherContent is the fallback for unrecognized variants.
type OtherContent struct {
	Front string
	Back  string
}

func (BasicContent) Kind() CardKind            { return KindBasic }
func (BasicReverseContent) Kind() CardKind     { return KindBasicReverse }
func (ClozeContent) Kind() CardKind            { return KindCloze }
func (InteractiveClozeContent) Kind() CardKind { return KindInteractiveCloze }
func (OtherContent) Kind() CardKind            { return KindOther }

// ParseTags splits a comma-separated tag string into a deduplicated,
// order-preserving slice. Empty segments are dropped.
func ParseTags(s string) []string {
	parts := strings.Split(s, ",")

	seen := map[string]struct{}{}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// JoinTags renders a tag slice back into the comma-separated editing view.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
