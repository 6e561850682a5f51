package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"deckhand/internal/prefs"
	"deckhand/internal/review"
)

// SyncHandler drives the export to the spaced-repetition store and the
// destination-deck preference.
type SyncHandler struct {
	Sess  *review.Session
	Prefs *prefs.Store
}

type syncReq struct {
	Deck  string `json:"deck"`
	Force bool   `json:"force"` // re-export cards already synced
}

func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req syncReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	count, err := h.Sess.SyncSelected(r.Context(), req.Deck, req.Force)
	if errors.Is(err, review.ErrStaleSnapshot) {
		// the batch landed; only the follow-up refresh failed
		writeJSON(w, http.StatusOK, map[string]any{
			"synced":  count,
			"warning": "synced, but the card list could not be refreshed; refresh manually",
		})
		return
	}
	if err != nil {
		writeReviewError(w, err, "failed to sync cards")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"synced": count})
}

func (h *SyncHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	name, err := h.Prefs.LastDeck(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deck": name})
}

func (h *SyncHandler) PutDeck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Deck string `json:"deck"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	req.Deck = strings.TrimSpace(req.Deck)
	if err := h.Prefs.SetLastDeck(r.Context(), req.Deck); err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deck": req.Deck})
}
