package handler

import (
	"encoding/json"
	"net/http"

	"deckhand/internal/review"
)

// BulkHandler runs the sequential bulk executors over the selection.
// Failures come back as one generic acknowledgment with no per-item
// breakdown; partial results stand and the selection is kept for retry.
type BulkHandler struct {
	Sess *review.Session
}

// ApproveSelected approves the selected pending cards in order.
func (h *BulkHandler) ApproveSelected(w http.ResponseWriter, r *http.Request) {
	if err := h.Sess.ApproveSelected(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to approve selected cards")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type bulkDeleteReq struct {
	// Count is the number of cards the user confirmed deleting. It must
	// match the current selection or the request is rejected, which is how
	// the irreversible-action confirmation travels over the API.
	Count int `json:"count"`
}

// DeleteSelected deletes every selected card after verifying the
// confirmed count still matches.
func (h *BulkHandler) DeleteSelected(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	n := len(h.Sess.SelectedIDs())
	if n == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no cards selected")
		return
	}
	if req.Count != n {
		writeError(w, http.StatusConflict, "selection changed, confirm again")
		return
	}

	if err := h.Sess.DeleteSelected(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete cards")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "deleted": n})
}
