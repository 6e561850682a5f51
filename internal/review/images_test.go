package review

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fetchResult struct {
	data []byte
	err  error
}

type fetchCall struct {
	id   string
	resp chan fetchResult
}

// fetchDriver hands each FetchImage call to the test for explicit
// resolution. It deliberately ignores context cancellation so tests can
// exercise the generation guard with a "slow server" that answers anyway.
type fetchDriver struct {
	calls   chan *fetchCall
	started atomic.Int32
}

func newFetchDriver() *fetchDriver {
	return &fetchDriver{calls: make(chan *fetchCall, 8)}
}

func (d *fetchDriver) fn(_ context.Context, id string) ([]byte, error) {
	d.started.Add(1)
	call := &fetchCall{id: id, resp: make(chan fetchResult, 1)}
	d.calls <- call
	r := <-call.resp
	return r.data, r.err
}

func (d *fetchDriver) next(t *testing.T) *fetchCall {
	t.Helper()
	select {
	case c := <-d.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no fetch started")
		return nil
	}
}

func waitState(t *testing.T, l *ImageLoader, id string, cond func(ImageLoadState) bool) ImageLoadState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st := l.State(id)
		if cond(st) {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state for %s never reached condition, last = %+v", id, l.State(id))
	return ImageLoadState{}
}

func lazyCard(id string) Card {
	return Card{
		ID:           id,
		Status:       StatusPending,
		Content:      BasicContent{Front: "f", Back: "b"},
		HasImageData: true,
		CreatedAt:    time.Now(),
	}
}

func TestPresentationDecision(t *testing.T) {
	tests := []struct {
		name string
		card Card
		want Presentation
	}{
		{"inline data", Card{ImageData: []byte{1}}, PresentInline},
		{"inline wins over flag", Card{ImageData: []byte{1}, HasImageData: true}, PresentInline},
		{"lazy flag", Card{HasImageData: true}, PresentLazy},
		{"description only", Card{ImageDescription: "a red fox"}, PresentDescription},
		{"nothing", Card{}, PresentNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.card.Presentation(); got != tt.want {
				t.Fatalf("presentation = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestInlineAndDescriptionPathsNeverFetch(t *testing.T) {
	driver := newFetchDriver()
	collab := newFakeCollab()
	collab.fetchFn = driver.fn
	l := newImageLoader(collab)

	l.Ensure(context.Background(), Card{ID: "in", ImageData: []byte{1, 2}})
	l.Ensure(context.Background(), Card{ID: "desc", ImageDescription: "a map of Lisbon"})

	time.Sleep(20 * time.Millisecond)
	if n := driver.started.Load(); n != 0 {
		t.Fatalf("fetches started = %d, want 0", n)
	}
}

func TestLazyFetchLoadsAndCaches(t *testing.T) {
	driver := newFetchDriver()
	collab := newFakeCollab()
	collab.fetchFn = driver.fn
	l := newImageLoader(collab)

	st := l.Ensure(context.Background(), lazyCard("c1"))
	if st.Phase != LoadLoading {
		t.Fatalf("phase = %s, want loading", st.Phase)
	}

	call := driver.next(t)
	if call.id != "c1" {
		t.Fatalf("fetch id = %s", call.id)
	}
	call.resp <- fetchResult{data: []byte("png")}

	st = waitState(t, l, "c1", func(s ImageLoadState) bool { return s.Phase == LoadLoaded })
	if !bytes.Equal(st.Data, []byte("png")) {
		t.Fatalf("data = %q", st.Data)
	}

	// cached: a re-render never refetches
	l.Ensure(context.Background(), lazyCard("c1"))
	time.Sleep(20 * time.Millisecond)
	if n := driver.started.Load(); n != 1 {
		t.Fatalf("fetches = %d, want 1", n)
	}
}

func TestNoDuplicateFetchWhileLoading(t *testing.T) {
	driver := newFetchDriver()
	collab := newFakeCollab()
	collab.fetchFn = driver.fn
	l := newImageLoader(collab)

	l.Ensure(context.Background(), lazyCard("c1"))
	l.Ensure(context.Background(), lazyCard("c1"))
	l.Ensure(context.Background(), lazyCard("c1"))

	call := driver.next(t)
	call.resp <- fetchResult{data: []byte("x")}
	waitState(t, l, "c1", func(s ImageLoadState) bool { return s.Phase == LoadLoaded })

	if n := driver.started.Load(); n != 1 {
		t.Fatalf("fetches = %d, want exactly 1 for identical (id, generation)", n)
	}
}

func TestErrorThenRetry(t *testing.T) {
	driver := newFetchDriver()
	collab := newFakeCollab()
	collab.fetchFn = driver.fn
	l := newImageLoader(collab)

	l.Ensure(context.Background(), lazyCard("c4"))
	driver.next(t).resp <- fetchResult{err: errors.New("not found")}

	st := waitState(t, l, "c4", func(s ImageLoadState) bool { return s.Phase == LoadErrored })
	if st.Err != "not found" {
		t.Fatalf("err = %q", st.Err)
	}

	// an errored entry does not re-arm on its own
	l.Ensure(context.Background(), lazyCard("c4"))
	time.Sleep(20 * time.Millisecond)
	if n := driver.started.Load(); n != 1 {
		t.Fatalf("fetches = %d, want no re-arm without retry", n)
	}

	// retry bumps the generation and starts exactly one new fetch
	st = l.Retry(context.Background(), "c4")
	if st.Phase != LoadLoading || st.Generation != 1 {
		t.Fatalf("after retry: %+v", st)
	}
	driver.next(t).resp <- fetchResult{data: []byte("img")}
	st = waitState(t, l, "c4", func(s ImageLoadState) bool { return s.Phase == LoadLoaded })
	if st.Generation != 1 || !bytes.Equal(st.Data, []byte("img")) {
		t.Fatalf("loaded state = %+v", st)
	}
	if n := driver.started.Load(); n != 2 {
		t.Fatalf("fetches = %d, want 2", n)
	}
}

func TestSupersededResolutionDiscardedOnRemoval(t *testing.T) {
	driver := newFetchDriver()
	collab := newFakeCollab()
	collab.fetchFn = driver.fn
	l := newImageLoader(collab)

	l.Ensure(context.Background(), lazyCard("gone"))
	call := driver.next(t)

	// card disappears from the snapshot before the fetch resolves
	l.sync(nil)
	call.resp <- fetchResult{data: []byte("stale")}

	time.Sleep(20 * time.Millisecond)
	if st := l.State("gone"); st.Phase != LoadIdle || st.Data != nil {
		t.Fatalf("stale resolution mutated state: %+v", st)
	}
}

func TestSupersededResolutionDiscardedOnRetry(t *testing.T) {
	driver := newFetchDriver()
	collab := newFakeCollab()
	collab.fetchFn = driver.fn
	l := newImageLoader(collab)

	l.Ensure(context.Background(), lazyCard("c1"))
	old := driver.next(t)

	l.Retry(context.Background(), "c1")
	fresh := driver.next(t)

	// the slow first request answers after being superseded
	old.resp <- fetchResult{data: []byte("old")}
	time.Sleep(20 * time.Millisecond)
	if st := l.State("c1"); st.Phase != LoadLoading {
		t.Fatalf("stale resolution applied: %+v", st)
	}

	fresh.resp <- fetchResult{data: []byte("new")}
	st := waitState(t, l, "c1", func(s ImageLoadState) bool { return s.Phase == LoadLoaded })
	if !bytes.Equal(st.Data, []byte("new")) {
		t.Fatalf("data = %q, want the newer fetch to win", st.Data)
	}
}

func TestInlineDataChangeResetsEntry(t *testing.T) {
	driver := newFetchDriver()
	collab := newFakeCollab()
	collab.fetchFn = driver.fn
	l := newImageLoader(collab)

	c := lazyCard("c1")
	l.Ensure(context.Background(), c)
	driver.next(t).resp <- fetchResult{data: []byte("fetched")}
	waitState(t, l, "c1", func(s ImageLoadState) bool { return s.Phase == LoadLoaded })

	// next refresh delivers the payload inline; the cached fetch resets
	c.ImageData = []byte("inline")
	l.sync([]Card{c})

	if st := l.State("c1"); st.Phase != LoadIdle || st.Data != nil {
		t.Fatalf("entry not reset on inline change: %+v", st)
	}
}
