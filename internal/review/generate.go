package review

import (
	"context"
	"sync"
)

// GenerationState tracks one card's generate-image request. Kept in a map
// separate from the image load states: requesting a new image and viewing
// the current one are different machines.
type GenerationState struct {
	Loading bool
	Err     string
	Success bool
	Message string
}

// Generator fires generate-image job requests and tracks their outcome per
// card id. Requests for different cards are fully independent; there is no
// queuing or ordering across cards.
type Generator struct {
	mu         sync.Mutex
	collab     Collaborator
	states     map[string]*GenerationState
	refresh    func(ctx context.Context) error
	invalidate func(id string)
}

func newGenerator(collab Collaborator, refresh func(ctx context.Context) error, invalidate func(id string)) *Generator {
	return &Generator{
		collab:     collab,
		states:     map[string]*GenerationState{},
		refresh:    refresh,
		invalidate: invalidate,
	}
}

// State returns the generation state for id.
func (g *Generator) State(id string) GenerationState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.states[id]; ok {
		return *st
	}
	return GenerationState{}
}

// Generate posts a one-shot generation request for (id, pos) and tracks it.
// A request already loading for the same card is left alone. Completion
// always drops the loading flag; on success the card's viewer entry is
// invalidated and the snapshot refreshed, so an already-Loaded viewer runs
// a fresh Idle->Loading cycle instead of serving the superseded payload.
func (g *Generator) Generate(ctx context.Context, id string, pos ImagePosition) {
	g.mu.Lock()
	st, ok := g.states[id]
	if ok && st.Loading {
		g.mu.Unlock()
		return
	}
	st = &GenerationState{Loading: true}
	g.states[id] = st
	g.mu.Unlock()

	reqCtx := context.WithoutCancel(ctx)
	go func() {
		err := g.collab.GenerateImage(reqCtx, id, pos)

		g.mu.Lock()
		cur, ok := g.states[id]
		if !ok || cur != st {
			g.mu.Unlock()
			return
		}
		cur.Loading = false
		if err != nil {
			cur.Err = err.Error()
			g.mu.Unlock()
			return
		}
		cur.Success = true
		cur.Message = "image generation requested"
		g.mu.Unlock()

		if g.invalidate != nil {
			g.invalidate(id)
		}
		if err := g.refresh(reqCtx); err != nil {
			g.mu.Lock()
			if cur, ok := g.states[id]; ok && cur == st {
				cur.Message = "image generation requested; refresh failed: " + err.Error()
			}
			g.mu.Unlock()
		}
	}()
}

// sync drops tracked state for ids no longer in the snapshot, mirroring
// the image loader's reconciliation.
func (g *Generator) sync(cards []Card) {
	g.mu.Lock()
	defer g.mu.Unlock()

	live := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		live[c.ID] = struct{}{}
	}
	for id := range g.states {
		if _, ok := live[id]; !ok {
			delete(g.states, id)
		}
	}
}
