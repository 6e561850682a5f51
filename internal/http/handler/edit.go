package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"deckhand/internal/review"

	"github.com/go-chi/chi/v5"
)

// EditHandler runs the single-card edit session.
type EditHandler struct {
	Sess *review.Session
}

type draftDTO struct {
	CardID  string `json:"card_id"`
	Kind    string `json:"kind"`
	Front   string `json:"front"`
	Back    string `json:"back"`
	Text    string `json:"text"`
	Extra   string `json:"extra"`
	Tags    string `json:"tags"` // comma-separated editing view
	Remarks string `json:"remarks"`
}

func toDraftDTO(d review.Draft) draftDTO {
	return draftDTO{
		CardID:  d.CardID,
		Kind:    string(d.Kind),
		Front:   d.Front,
		Back:    d.Back,
		Text:    d.Text,
		Extra:   d.Extra,
		Tags:    d.Tags,
		Remarks: d.Remarks,
	}
}

// Begin opens an edit session for the card, replacing any prior target.
func (h *EditHandler) Begin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := h.Sess.BeginEdit(id)
	if err != nil {
		writeReviewError(w, err, "failed to open edit")
		return
	}
	writeJSON(w, http.StatusOK, toDraftDTO(d))
}

// Get returns the active draft.
func (h *EditHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.Sess.Draft()
	if !ok {
		writeError(w, http.StatusNotFound, "no card in edit mode")
		return
	}
	writeJSON(w, http.StatusOK, toDraftDTO(d))
}

// Put replaces the draft's fields.
func (h *EditHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req draftDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	err := h.Sess.SetDraft(review.Draft{
		CardID:  req.CardID,
		Front:   req.Front,
		Back:    req.Back,
		Text:    req.Text,
		Extra:   req.Extra,
		Tags:    req.Tags,
		Remarks: req.Remarks,
	})
	if err != nil {
		if errors.Is(err, review.ErrNoEdit) {
			writeError(w, http.StatusNotFound, "no card in edit mode")
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Save pushes the full draft as one replace update and closes the session.
func (h *EditHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.Sess.SaveEdit(r.Context()); err != nil {
		if errors.Is(err, review.ErrNoEdit) {
			writeError(w, http.StatusNotFound, "no card in edit mode")
			return
		}
		writeReviewError(w, err, "failed to save card")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Cancel discards the draft.
func (h *EditHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.Sess.CancelEdit()
	w.WriteHeader(http.StatusNoContent)
}
