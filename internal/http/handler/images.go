package handler

import (
	"encoding/json"
	"net/http"

	"deckhand/internal/review"

	"github.com/go-chi/chi/v5"
)

// ImagesHandler exposes the two per-card image machines: the lazy viewer
// fetch and the generation trigger.
type ImagesHandler struct {
	Sess *review.Session
}

type imageStateResp struct {
	Source      string `json:"source"` // inline, fetch, description, none
	Phase       string `json:"phase,omitempty"`
	Data        []byte `json:"data,omitempty"` // base64 over the wire
	Error       string `json:"error,omitempty"`
	Generation  int    `json:"generation,omitempty"`
	Description string `json:"description,omitempty"`
}

// State reports the render decision for a card's image slot and, on the
// lazy path, arms the fetch if its state machine calls for one.
func (h *ImagesHandler) State(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, ok := h.Sess.Card(id)
	if !ok {
		writeError(w, http.StatusNotFound, "card not found")
		return
	}

	resp := imageStateResp{Description: c.ImageDescription}
	switch c.Presentation() {
	case review.PresentInline:
		resp.Source = "inline"
		resp.Data = c.ImageData
	case review.PresentLazy:
		st := h.Sess.Images().Ensure(r.Context(), c)
		resp.Source = "fetch"
		resp.Phase = string(st.Phase)
		resp.Data = st.Data
		resp.Error = st.Err
		resp.Generation = st.Generation
	case review.PresentDescription:
		resp.Source = "description"
	default:
		resp.Source = "none"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Retry re-arms a failed fetch by bumping the card's generation counter.
func (h *ImagesHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.Sess.Card(id); !ok {
		writeError(w, http.StatusNotFound, "card not found")
		return
	}

	st := h.Sess.Images().Retry(r.Context(), id)
	writeJSON(w, http.StatusOK, imageStateResp{
		Source:     "fetch",
		Phase:      string(st.Phase),
		Generation: st.Generation,
	})
}

type generateReq struct {
	Position string `json:"position"` // front or back
}

// Generate posts a one-shot generation job for a card side.
func (h *ImagesHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.Sess.Card(id); !ok {
		writeError(w, http.StatusNotFound, "card not found")
		return
	}

	var req generateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	pos := review.ImagePosition(req.Position)
	if pos != review.ImageFront && pos != review.ImageBack {
		writeError(w, http.StatusBadRequest, "position must be front or back")
		return
	}

	h.Sess.Generation().Generate(r.Context(), id, pos)
	writeJSON(w, http.StatusAccepted, h.Sess.Generation().State(id))
}

// GenerationState reports the tracked outcome of a card's last
// generation request.
func (h *ImagesHandler) GenerationState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, h.Sess.Generation().State(id))
}
