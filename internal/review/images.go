package review

import (
	"bytes"
	"context"
	"sync"
)

// LoadPhase is the lazy-fetch state of one card's image.
type LoadPhase string

const (
	LoadIdle    LoadPhase = "idle"
	LoadLoading LoadPhase = "loading"
	LoadLoaded  LoadPhase = "loaded"
	LoadErrored LoadPhase = "errored"
)

// ImageLoadState is the externally visible fetch state for one card.
type ImageLoadState struct {
	Phase      LoadPhase
	Data       []byte
	Err        string
	Generation int
}

// Presentation is the render-time decision for a card's image slot, made
// from static card flags rather than fetched data.
type Presentation string

const (
	// PresentInline renders the already-loaded payload; no fetch.
	PresentInline Presentation = "inline"
	// PresentLazy has a payload server-side that must be fetched.
	PresentLazy Presentation = "lazy"
	// PresentDescription renders the text description only; no fetch.
	PresentDescription Presentation = "description"
	// PresentNone shows nothing.
	PresentNone Presentation = "none"
)

// Presentation picks among the three image render paths for a card.
func (c Card) Presentation() Presentation {
	switch {
	case len(c.ImageData) > 0:
		return PresentInline
	case c.HasImageData:
		return PresentLazy
	case c.ImageDescription != "":
		return PresentDescription
	}
	return PresentNone
}

type imageEntry struct {
	phase      LoadPhase
	data       []byte
	errMsg     string
	generation int

	inflight bool
	cancel   context.CancelFunc

	// inline payload observed at last sync; a change resets the entry
	inline []byte
}

// ImageLoader runs the per-card lazy image fetch state machine. Each fetch
// is keyed by (card id, generation); a resolution that no longer matches
// the live (id, generation) pair is discarded without touching state, so a
// slow superseded request can never clobber a newer one. At most one fetch
// is in flight per key.
type ImageLoader struct {
	mu      sync.Mutex
	collab  Collaborator
	entries map[string]*imageEntry
}

func newImageLoader(collab Collaborator) *ImageLoader {
	return &ImageLoader{collab: collab, entries: map[string]*imageEntry{}}
}

// State returns the current load state for id.
func (l *ImageLoader) State(id string) ImageLoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return ImageLoadState{Phase: LoadIdle}
	}
	return e.state()
}

// Ensure arms the lazy fetch for c when its flags call for one and nothing
// is in flight or settled for the current generation, then returns the
// state as of this call. Cards on the inline or description-only paths
// never trigger a fetch.
func (l *ImageLoader) Ensure(ctx context.Context, c Card) ImageLoadState {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[c.ID]
	if !ok {
		e = &imageEntry{phase: LoadIdle, inline: c.ImageData}
		l.entries[c.ID] = e
	}

	if c.Presentation() != PresentLazy {
		return e.state()
	}
	if e.phase != LoadIdle || e.inflight {
		return e.state()
	}

	l.startFetchLocked(ctx, c.ID, e)
	return e.state()
}

// Retry re-arms the fetch for id after an error by bumping the generation
// counter; the bump alone is what permits a new fetch with no other input
// changing. Any in-flight fetch for the prior generation is cancelled.
func (l *ImageLoader) Retry(ctx context.Context, id string) ImageLoadState {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok {
		e = &imageEntry{phase: LoadIdle}
		l.entries[id] = e
	}

	e.generation++
	e.resetLocked()
	l.startFetchLocked(ctx, id, e)
	return e.state()
}

// startFetchLocked launches one fetch for (id, e.generation). The closure
// captures the generation; on resolution the entry must still exist and
// carry the same generation or the result is dropped.
func (l *ImageLoader) startFetchLocked(ctx context.Context, id string, e *imageEntry) {
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	gen := e.generation

	e.phase = LoadLoading
	e.inflight = true
	e.cancel = cancel

	go func() {
		data, err := l.collab.FetchImage(fetchCtx, id)
		cancel()

		l.mu.Lock()
		defer l.mu.Unlock()

		cur, ok := l.entries[id]
		if !ok || cur != e || cur.generation != gen || !cur.inflight {
			return // superseded; drop the stale resolution
		}
		cur.inflight = false
		cur.cancel = nil
		if err != nil {
			cur.phase = LoadErrored
			cur.errMsg = err.Error()
			return
		}
		cur.phase = LoadLoaded
		cur.data = data
	}()
}

// Invalidate discards id's cached payload and any in-flight fetch,
// returning the entry to Idle under a new generation. Called when the
// server-side payload is known to have changed, e.g. after a successful
// regeneration, so the next Ensure runs a fresh Idle->Loading cycle
// instead of serving the superseded bytes.
func (l *ImageLoader) Invalidate(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return
	}
	e.generation++
	e.resetLocked()
}

// sync reconciles loader state with a fresh snapshot: entries for removed
// ids are dropped, and a card whose inline payload changed falls back to
// Idle with its cache discarded.
func (l *ImageLoader) sync(cards []Card) {
	l.mu.Lock()
	defer l.mu.Unlock()

	live := make(map[string]Card, len(cards))
	for _, c := range cards {
		live[c.ID] = c
	}

	for id, e := range l.entries {
		c, ok := live[id]
		if !ok {
			e.dropLocked()
			delete(l.entries, id)
			continue
		}
		if !bytes.Equal(e.inline, c.ImageData) {
			e.inline = c.ImageData
			e.resetLocked()
		}
	}
}

func (e *imageEntry) state() ImageLoadState {
	return ImageLoadState{
		Phase:      e.phase,
		Data:       e.data,
		Err:        e.errMsg,
		Generation: e.generation,
	}
}

// resetLocked returns the entry to Idle, discarding cached data, error and
// any in-flight fetch.
func (e *imageEntry) resetLocked() {
	e.dropLocked()
	e.phase = LoadIdle
	e.data = nil
	e.errMsg = ""
}

func (e *imageEntry) dropLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.inflight = false
}
