package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"deckhand/internal/review"
	"deckhand/internal/store"
)

// checklist remediation for a store that cannot be reached; the cause is
// outside the tool, so the user gets the three things to check.
const unreachableMsg = "could not reach Anki: check that Anki is running, " +
	"that the AnkiConnect add-on is installed, and that the add-on is enabled"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeReviewError maps the review error taxonomy onto HTTP. fallback is
// the generic message for unclassified failures.
func writeReviewError(w http.ResponseWriter, err error, fallback string) {
	var pre *review.PreconditionError
	if errors.As(err, &pre) {
		writeError(w, http.StatusUnprocessableEntity, pre.Error())
		return
	}
	if errors.Is(err, review.ErrStoreUnreachable) {
		writeError(w, http.StatusServiceUnavailable, unreachableMsg)
		return
	}
	var ce *review.CollaboratorError
	if errors.As(err, &ce) {
		writeError(w, http.StatusBadGateway, ce.Detail)
		return
	}
	if errors.Is(err, review.ErrCardNotFound) || errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "card not found")
		return
	}
	writeError(w, http.StatusInternalServerError, fallback)
}

type cardDTO struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Kind   string `json:"kind"`

	Front string `json:"front,omitempty"`
	Back  string `json:"back,omitempty"`
	Text  string `json:"text,omitempty"`
	Extra string `json:"extra,omitempty"`

	Tags    []string `json:"tags"`
	Remarks string   `json:"remarks,omitempty"`

	HasImage         bool   `json:"has_image"`
	IsPlaceholder    bool   `json:"is_placeholder"`
	ImageDescription string `json:"image_description,omitempty"`

	Selected  bool      `json:"selected"`
	CreatedAt time.Time `json:"created_at"`
}

func toCardDTO(c review.Card, selected bool) cardDTO {
	d := cardDTO{
		ID:               c.ID,
		Status:           string(c.Status),
		Kind:             string(c.Content.Kind()),
		Tags:             c.Tags,
		Remarks:          c.Remarks,
		HasImage:         c.HasImageData,
		IsPlaceholder:    c.IsPlaceholder,
		ImageDescription: c.ImageDescription,
		Selected:         selected,
		CreatedAt:        c.CreatedAt,
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}

	switch v := c.Content.(type) {
	case review.BasicContent:
		d.Front, d.Back, d.Extra = v.Front, v.Back, v.Extra
	case review.BasicReverseContent:
		d.Front, d.Back, d.Extra = v.Front, v.Back, v.Extra
	case review.ClozeContent:
		d.Text, d.Extra = v.Text, v.Extra
	case review.InteractiveClozeContent:
		d.Text, d.Extra = v.Text, v.Extra
	case review.OtherContent:
		d.Front, d.Back = v.Front, v.Back
	}
	return d
}

func toCardDTOs(cards []review.Card, sess *review.Session) []cardDTO {
	out := make([]cardDTO, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardDTO(c, sess.Selected(c.ID)))
	}
	return out
}
