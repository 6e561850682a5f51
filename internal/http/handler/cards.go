package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"deckhand/internal/review"
	"deckhand/internal/store"

	"github.com/go-chi/chi/v5"
)

// CardsHandler serves the review board: the status partitions, the pending
// page window and single-card actions.
type CardsHandler struct {
	Sess  *review.Session
	Store *store.Store
}

type boardResp struct {
	Pending    []cardDTO `json:"pending"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
	PendingN   int       `json:"pending_total"`

	Approved []cardDTO `json:"approved"`
	Synced   []cardDTO `json:"synced"`

	SelectedCount int    `json:"selected_count"`
	LastDeck      string `json:"last_deck"`
}

// Board renders the partitioned view from the current snapshot. With
// ?refresh=true the snapshot is re-fetched first (page preserved).
func (h *CardsHandler) Board(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		if err := h.Sess.Refresh(r.Context()); err != nil {
			writeReviewError(w, err, "failed to load cards")
			return
		}
	}

	page := h.Sess.PendingPage()
	resp := boardResp{
		Pending:       toCardDTOs(page.Cards, h.Sess),
		Page:          page.Number,
		PageSize:      page.PageSize,
		TotalPages:    page.TotalPages,
		PendingN:      page.TotalCards,
		Approved:      toCardDTOs(h.Sess.Approved(), h.Sess),
		Synced:        toCardDTOs(h.Sess.Synced(), h.Sess),
		SelectedCount: len(h.Sess.SelectedIDs()),
		LastDeck:      h.Sess.LastDeck(r.Context()),
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetPage moves the pending page cursor.
func (h *CardsHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}
	h.Sess.SetPage(n)
	writeJSON(w, http.StatusOK, h.Sess.PendingPage())
}

type intakeReq struct {
	Kind             string   `json:"kind"`
	Front            string   `json:"front"`
	Back             string   `json:"back"`
	Text             string   `json:"text"`
	Extra            string   `json:"extra"`
	Tags             []string `json:"tags"`
	Remarks          string   `json:"remarks"`
	ImageDescription string   `json:"image_description"`
}

// Intake receives a machine-generated card into the pending queue.
func (h *CardsHandler) Intake(w http.ResponseWriter, r *http.Request) {
	var req intakeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	kind := review.CardKind(strings.TrimSpace(req.Kind))
	switch kind {
	case review.KindBasic, review.KindBasicReverse, review.KindCloze, review.KindInteractiveCloze, review.KindOther:
	case "":
		kind = review.KindBasic
	default:
		writeError(w, http.StatusBadRequest, "unknown card kind")
		return
	}

	if strings.TrimSpace(req.Front) == "" && strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "card content required")
		return
	}

	id, err := h.Store.Create(r.Context(), store.NewCardInput{
		Kind:             kind,
		Front:            req.Front,
		Back:             req.Back,
		Text:             req.Text,
		Extra:            req.Extra,
		Tags:             req.Tags,
		Remarks:          req.Remarks,
		ImageDescription: req.ImageDescription,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create card")
		return
	}

	if err := h.Sess.Refresh(r.Context()); err != nil {
		writeReviewError(w, err, "failed to load cards")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// DeleteOne removes a single card. The deletion is irreversible, so the
// caller must send confirm=true; without it nothing happens.
func (h *CardsHandler) DeleteOne(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "deletion requires confirm=true")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Sess.DeleteCard(r.Context(), id); err != nil {
		writeReviewError(w, err, "failed to delete card")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
