package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"deckhand/internal/review"
)

// SelectionHandler mutates the bulk-action selection. None of these
// endpoints validate ids against the snapshot; the executors filter at
// invocation time.
type SelectionHandler struct {
	Sess *review.Session
}

type selectionResp struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

func (h *SelectionHandler) respond(w http.ResponseWriter) {
	ids := h.Sess.SelectedIDs()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, selectionResp{IDs: ids, Count: len(ids)})
}

func (h *SelectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w)
}

func (h *SelectionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "card id required")
		return
	}
	h.Sess.Toggle(req.ID)
	h.respond(w)
}

func (h *SelectionHandler) SelectAllPending(w http.ResponseWriter, r *http.Request) {
	h.Sess.SelectAllPending()
	h.respond(w)
}

func (h *SelectionHandler) DeselectAll(w http.ResponseWriter, r *http.Request) {
	h.Sess.DeselectAll()
	h.respond(w)
}

func (h *SelectionHandler) ToggleAllSynced(w http.ResponseWriter, r *http.Request) {
	h.Sess.ToggleAllSynced()
	h.respond(w)
}
