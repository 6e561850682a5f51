package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeCollab is an in-memory collaborator. Mutations apply to its card
// slice so a follow-up ListCards observes them, the way the real service
// behaves across a refresh.
type fakeCollab struct {
	mu    sync.Mutex
	cards []Card

	approveErr map[string]error
	deleteErr  map[string]error
	updateErr  error
	genErr     error
	listErr    error

	listCalls int
	approved  []string
	deleted   []string
	updated   map[string]CardUpdate
	generated []string

	// fetchFn, when set, serves FetchImage
	fetchFn func(ctx context.Context, id string) ([]byte, error)
}

func newFakeCollab(cards ...Card) *fakeCollab {
	return &fakeCollab{
		cards:      cards,
		approveErr: map[string]error{},
		deleteErr:  map[string]error{},
		updated:    map[string]CardUpdate{},
	}
}

func (f *fakeCollab) ListCards(context.Context) ([]Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Card, len(f.cards))
	copy(out, f.cards)
	return out, nil
}

func (f *fakeCollab) ApproveCard(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.approveErr[id]; err != nil {
		return err
	}
	for i := range f.cards {
		if f.cards[i].ID == id {
			f.cards[i].Status = StatusApproved
		}
	}
	f.approved = append(f.approved, id)
	return nil
}

func (f *fakeCollab) DeleteCard(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	for i := range f.cards {
		if f.cards[i].ID == id {
			f.cards = append(f.cards[:i], f.cards[i+1:]...)
			break
		}
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCollab) UpdateCard(_ context.Context, id string, upd CardUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.cards {
		if f.cards[i].ID == id {
			f.cards[i].Content = upd.Content
			f.cards[i].Tags = upd.Tags
			f.cards[i].Remarks = upd.Remarks
		}
	}
	f.updated[id] = upd
	return nil
}

func (f *fakeCollab) FetchImage(ctx context.Context, id string) ([]byte, error) {
	if f.fetchFn != nil {
		return f.fetchFn(ctx, id)
	}
	return nil, ErrNoImage
}

func (f *fakeCollab) GenerateImage(_ context.Context, id string, _ ImagePosition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.genErr != nil {
		return f.genErr
	}
	f.generated = append(f.generated, id)
	return nil
}

func (f *fakeCollab) statusOf(t *testing.T, id string) Status {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cards {
		if c.ID == id {
			return c.Status
		}
	}
	t.Fatalf("card %s not in collaborator", id)
	return ""
}

func (f *fakeCollab) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type fakeExporter struct {
	mu       sync.Mutex
	count    int
	err      error
	calls    int
	lastDeck string
	lastIDs  []string
}

func (f *fakeExporter) ExportBatch(_ context.Context, deck string, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastDeck = deck
	f.lastIDs = append([]string(nil), ids...)
	if f.err != nil {
		return 0, f.err
	}
	if f.count > 0 {
		return f.count, nil
	}
	return len(ids), nil
}

type fakePrefs struct {
	mu   sync.Mutex
	deck string
}

func (f *fakePrefs) LastDeck(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deck, nil
}

func (f *fakePrefs) SetLastDeck(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deck = name
	return nil
}

func pendingCard(id string, age time.Duration) Card {
	return Card{
		ID:        id,
		Status:    StatusPending,
		Content:   BasicContent{Front: "front " + id, Back: "back " + id},
		CreatedAt: time.Now().Add(-age),
	}
}

func newTestSession(t *testing.T, collab *fakeCollab, exp *fakeExporter) *Session {
	t.Helper()
	if exp == nil {
		exp = &fakeExporter{}
	}
	s := NewSession(collab, exp, &fakePrefs{}, SessionOptions{})
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return s
}

func TestRefreshSortsAndPartitions(t *testing.T) {
	collab := newFakeCollab(
		Card{ID: "old", Status: StatusSynced, Content: BasicContent{}, CreatedAt: time.Now().Add(-3 * time.Hour)},
		Card{ID: "new", Status: StatusPending, Content: BasicContent{}, CreatedAt: time.Now()},
		Card{ID: "mid", Status: StatusApproved, Content: BasicContent{}, CreatedAt: time.Now().Add(-time.Hour)},
	)
	s := newTestSession(t, collab, nil)

	if got := s.Pending(); len(got) != 1 || got[0].ID != "new" {
		t.Fatalf("pending partition = %+v", got)
	}
	if got := s.Approved(); len(got) != 1 || got[0].ID != "mid" {
		t.Fatalf("approved partition = %+v", got)
	}
	if got := s.Synced(); len(got) != 1 || got[0].ID != "old" {
		t.Fatalf("synced partition = %+v", got)
	}
}

func TestRefreshReplacesSnapshotWholesale(t *testing.T) {
	collab := newFakeCollab(pendingCard("a", time.Hour), pendingCard("b", 2*time.Hour))
	s := newTestSession(t, collab, nil)

	collab.mu.Lock()
	collab.cards = []Card{pendingCard("c", 0)}
	collab.mu.Unlock()

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Card("a"); ok {
		t.Fatal("stale card survived refresh")
	}
	if _, ok := s.Card("c"); !ok {
		t.Fatal("new card missing after refresh")
	}
}

func TestSelectionToggleIdempotence(t *testing.T) {
	collab := newFakeCollab(pendingCard("a", time.Hour))
	s := newTestSession(t, collab, nil)

	s.Toggle("a")
	if !s.Selected("a") {
		t.Fatal("toggle did not select")
	}
	s.Toggle("a")
	if s.Selected("a") {
		t.Fatal("second toggle did not deselect")
	}
	if n := len(s.SelectedIDs()); n != 0 {
		t.Fatalf("selection size = %d, want 0", n)
	}
}

func TestToggleAcceptsUnknownIDs(t *testing.T) {
	collab := newFakeCollab(pendingCard("a", time.Hour))
	s := newTestSession(t, collab, nil)

	// no snapshot validation at toggle time
	s.Toggle("ghost")
	if !s.Selected("ghost") {
		t.Fatal("unknown id rejected at toggle time")
	}
}

func TestSelectAllPendingReplacesSelection(t *testing.T) {
	collab := newFakeCollab(
		pendingCard("p1", time.Hour),
		pendingCard("p2", 2*time.Hour),
		Card{ID: "ap", Status: StatusApproved, Content: BasicContent{}, CreatedAt: time.Now()},
	)
	s := newTestSession(t, collab, nil)

	s.Toggle("ap")
	s.SelectAllPending()

	ids := s.SelectedIDs()
	if len(ids) != 2 {
		t.Fatalf("selected = %v, want the 2 pending ids", ids)
	}
	if s.Selected("ap") {
		t.Fatal("select-all-pending kept a prior non-pending selection")
	}
}

func TestDeselectAll(t *testing.T) {
	collab := newFakeCollab(pendingCard("a", time.Hour), pendingCard("b", 2*time.Hour))
	s := newTestSession(t, collab, nil)

	s.SelectAllPending()
	s.DeselectAll()
	if n := len(s.SelectedIDs()); n != 0 {
		t.Fatalf("selection size = %d after deselect all", n)
	}
}

func TestToggleAllSynced(t *testing.T) {
	collab := newFakeCollab(
		Card{ID: "s1", Status: StatusSynced, Content: BasicContent{}, CreatedAt: time.Now()},
		Card{ID: "s2", Status: StatusSynced, Content: BasicContent{}, CreatedAt: time.Now().Add(-time.Hour)},
		pendingCard("p1", time.Hour),
	)
	s := newTestSession(t, collab, nil)

	s.Toggle("p1")
	s.ToggleAllSynced()
	if !s.Selected("s1") || !s.Selected("s2") {
		t.Fatal("toggle-all-synced did not select the synced partition")
	}
	if !s.Selected("p1") {
		t.Fatal("toggle-all-synced touched another partition's selection")
	}

	s.ToggleAllSynced()
	if s.Selected("s1") || s.Selected("s2") {
		t.Fatal("second toggle-all-synced did not deselect")
	}
	if !s.Selected("p1") {
		t.Fatal("deselect pass touched another partition's selection")
	}
}

func TestApproveSelectedSequentialSuccess(t *testing.T) {
	collab := newFakeCollab(pendingCard("c1", time.Hour), pendingCard("c2", 2*time.Hour))
	s := newTestSession(t, collab, nil)

	s.SelectAllPending()
	if err := s.ApproveSelected(context.Background()); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if got := collab.statusOf(t, "c1"); got != StatusApproved {
		t.Fatalf("c1 status = %s", got)
	}
	if got := collab.statusOf(t, "c2"); got != StatusApproved {
		t.Fatalf("c2 status = %s", got)
	}
	if n := len(s.SelectedIDs()); n != 0 {
		t.Fatal("selection not cleared after full success")
	}
	if len(s.Approved()) != 2 {
		t.Fatal("snapshot not refreshed after approve")
	}
}

func TestApprovePartialFailureDurability(t *testing.T) {
	collab := newFakeCollab(
		pendingCard("A", time.Hour),
		pendingCard("B", 2*time.Hour),
		pendingCard("C", 3*time.Hour),
	)
	collab.approveErr["B"] = errors.New("boom")
	s := newTestSession(t, collab, nil)

	s.Toggle("A")
	s.Toggle("B")
	s.Toggle("C")

	listsBefore := collab.listCount()
	err := s.ApproveSelected(context.Background())
	if err == nil {
		t.Fatal("expected approve failure")
	}

	// A was processed before the failure and stays approved
	if got := collab.statusOf(t, "A"); got != StatusApproved {
		t.Fatalf("A status = %s, want approved", got)
	}
	// fail-stop: C never attempted
	if got := collab.statusOf(t, "B"); got != StatusPending {
		t.Fatalf("B status = %s, want pending", got)
	}
	if got := collab.statusOf(t, "C"); got != StatusPending {
		t.Fatalf("C status = %s, want pending", got)
	}
	for _, id := range collab.approved {
		if id == "C" {
			t.Fatal("C was attempted after the failure")
		}
	}

	// selection kept for inspection and retry
	ids := s.SelectedIDs()
	if len(ids) != 3 || ids[0] != "A" || ids[1] != "B" || ids[2] != "C" {
		t.Fatalf("selection after failure = %v, want [A B C]", ids)
	}
	// no refresh on failure
	if collab.listCount() != listsBefore {
		t.Fatal("refresh ran despite failure")
	}
}

func TestApproveSkipsNonPendingAndStaleIDs(t *testing.T) {
	collab := newFakeCollab(
		pendingCard("p", time.Hour),
		Card{ID: "done", Status: StatusSynced, Content: BasicContent{}, CreatedAt: time.Now()},
	)
	s := newTestSession(t, collab, nil)

	s.Toggle("done")
	s.Toggle("gone")
	s.Toggle("p")
	if err := s.ApproveSelected(context.Background()); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if len(collab.approved) != 1 || collab.approved[0] != "p" {
		t.Fatalf("approved = %v, want [p]", collab.approved)
	}
}

func TestBulkDeletePartialFailure(t *testing.T) {
	collab := newFakeCollab(
		pendingCard("d1", time.Hour),
		pendingCard("d2", 2*time.Hour),
		pendingCard("d3", 3*time.Hour),
	)
	collab.deleteErr["d2"] = errors.New("500")
	s := newTestSession(t, collab, nil)

	s.Toggle("d1")
	s.Toggle("d2")
	s.Toggle("d3")

	if err := s.DeleteSelected(context.Background()); err == nil {
		t.Fatal("expected bulk delete failure")
	}

	// first id is gone, the rest remain
	if len(collab.deleted) != 1 || collab.deleted[0] != "d1" {
		t.Fatalf("deleted = %v, want [d1]", collab.deleted)
	}
	if len(s.SelectedIDs()) != 3 {
		t.Fatal("selection changed on failure")
	}
}

func TestBulkDeleteAnyStatus(t *testing.T) {
	collab := newFakeCollab(
		pendingCard("p", time.Hour),
		Card{ID: "ap", Status: StatusApproved, Content: BasicContent{}, CreatedAt: time.Now()},
		Card{ID: "sy", Status: StatusSynced, Content: BasicContent{}, CreatedAt: time.Now().Add(-time.Minute)},
	)
	s := newTestSession(t, collab, nil)

	s.Toggle("p")
	s.Toggle("ap")
	s.Toggle("sy")
	if err := s.DeleteSelected(context.Background()); err != nil {
		t.Fatalf("bulk delete: %v", err)
	}

	if len(collab.deleted) != 3 {
		t.Fatalf("deleted = %v, want all three statuses", collab.deleted)
	}
	if n := len(s.SelectedIDs()); n != 0 {
		t.Fatal("selection not cleared after full success")
	}
}

func TestDeleteSingleCard(t *testing.T) {
	collab := newFakeCollab(pendingCard("x", time.Hour))
	s := newTestSession(t, collab, nil)

	if err := s.DeleteCard(context.Background(), "x"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Card("x"); ok {
		t.Fatal("card still in snapshot after delete+refresh")
	}

	if err := s.DeleteCard(context.Background(), "x"); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("second delete err = %v, want ErrCardNotFound", err)
	}
}

func TestPendingPagination(t *testing.T) {
	var cards []Card
	for i := 0; i < 25; i++ {
		cards = append(cards, pendingCard(fmt.Sprintf("c%02d", i), time.Duration(i)*time.Minute))
	}
	collab := newFakeCollab(cards...)
	s := newTestSession(t, collab, nil)

	p := s.PendingPage()
	if p.Number != 1 || len(p.Cards) != 10 || p.TotalPages != 3 || p.TotalCards != 25 {
		t.Fatalf("page = %+v", p)
	}
	// newest first
	if p.Cards[0].ID != "c00" {
		t.Fatalf("first card = %s, want c00", p.Cards[0].ID)
	}

	s.SetPage(3)
	p = s.PendingPage()
	if p.Number != 3 || len(p.Cards) != 5 {
		t.Fatalf("page 3 = %+v", p)
	}

	// plain refresh keeps the cursor
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p = s.PendingPage(); p.Number != 3 {
		t.Fatalf("page after refresh = %d, want 3", p.Number)
	}

	// a state-changing action resets it
	s.Toggle("c00")
	if err := s.ApproveSelected(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p = s.PendingPage(); p.Number != 1 {
		t.Fatalf("page after approve = %d, want 1", p.Number)
	}
}

func TestPageClampsToRange(t *testing.T) {
	collab := newFakeCollab(pendingCard("only", time.Hour))
	s := newTestSession(t, collab, nil)

	s.SetPage(99)
	if p := s.PendingPage(); p.Number != 1 {
		t.Fatalf("page = %d, want clamp to 1", p.Number)
	}
}
