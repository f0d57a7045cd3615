package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ceprince/packing-list/internal/cart"
	"github.com/ceprince/packing-list/internal/model"
	"github.com/ceprince/packing-list/internal/store"
)

// memStore is an in-memory StateStore keyed by (course, piece).
type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	loadErr error
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) key(courseID, piece string) string {
	return courseID + "/" + piece
}

func (m *memStore) LoadPiece(_ context.Context, courseID, piece string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data[m.key(courseID, piece)], nil
}

func (m *memStore) SavePiece(_ context.Context, courseID, piece string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[m.key(courseID, piece)] = data
	return nil
}

func testItems() []model.PackingItem {
	return []model.PackingItem{
		{Name: "Rucksack", Link: "https://example.com/ruck", Category: "M", Recommended: "1", ASIN: "B000RUCK"},
		{Name: "Socks", Link: "https://example.com/socks", Category: "M", Recommended: "3", ASIN: "B000SOCK"},
		{Name: "Headlamp", Link: "https://example.com/lamp", Category: "R", Recommended: "1", ASIN: "B000LAMP"},
		{Name: "Notebook", Category: "O", Recommended: "2"},
		{Name: "Name Tapes", Link: "https://example.com/tapes", Category: "O", DirectCheckout: true, ASIN: "B000TAPE"},
	}
}

func newTestSession(t *testing.T, st store.StateStore) *Session {
	t.Helper()
	if st == nil {
		st = newMemStore()
	}
	s := New("course-1", st, cart.Batcher{AssociateTag: "ceprince-20"}, model.DedupByItemLink, zap.NewNop())
	s.Hydrate(context.Background())
	s.SetItems(testItems())
	return s
}

func TestMarkerCycleHasPeriodThree(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	require.Equal(t, model.MarkerRed, s.Marker(0))

	s.CycleMarker(ctx, 0)
	assert.Equal(t, model.MarkerYellow, s.Marker(0))
	s.CycleMarker(ctx, 0)
	assert.Equal(t, model.MarkerGreen, s.Marker(0))
	s.CycleMarker(ctx, 0)
	assert.Equal(t, model.MarkerRed, s.Marker(0))
}

func TestQueueMarksYellowAndSnapshots(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	ack, ok := s.Queue(ctx, 1)
	require.True(t, ok)
	assert.False(t, ack.Duplicate)

	assert.Equal(t, model.MarkerYellow, s.Marker(1))
	require.Len(t, s.Needed(), 1)
	assert.Equal(t, "Socks", s.Needed()[0].Item.Name)
	assert.Equal(t, 3, s.Needed()[0].Quantity)
	assert.NotEmpty(t, s.Needed()[0].ID)
	assert.False(t, s.Needed()[0].CrossedOff)
	assert.Empty(t, s.Custom())
}

func TestQueueRoutesDirectCheckoutItems(t *testing.T) {
	s := newTestSession(t, nil)

	_, ok := s.Queue(context.Background(), 4)
	require.True(t, ok)

	assert.Empty(t, s.Needed())
	require.Len(t, s.Custom(), 1)
	assert.Equal(t, "Name Tapes", s.Custom()[0].Item.Name)
}

func TestQueueDedupByItemLink(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	_, ok := s.Queue(ctx, 0)
	require.True(t, ok)
	ack, ok := s.Queue(ctx, 0)
	require.True(t, ok)

	assert.True(t, ack.Duplicate)
	assert.Len(t, s.Needed(), 1)
}

func TestQueueDedupNoneAllowsRepeats(t *testing.T) {
	s := New("course-1", newMemStore(), cart.Batcher{}, model.DedupNone, zap.NewNop())
	s.Hydrate(context.Background())
	s.SetItems(testItems())
	ctx := context.Background()

	s.Queue(ctx, 0)
	ack, ok := s.Queue(ctx, 0)
	require.True(t, ok)

	assert.False(t, ack.Duplicate)
	assert.Len(t, s.Needed(), 2)
}

func TestPurchaseMarksGreenAndCrossesOff(t *testing.T) {
	s := newTestSession(t, nil)

	link, ok := s.Purchase(context.Background(), 2)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/lamp", link)

	assert.Equal(t, model.MarkerGreen, s.Marker(2))
	assert.True(t, s.Items()[2].CrossedOff)
	require.Len(t, s.Needed(), 1)
	assert.True(t, s.Needed()[0].CrossedOff)
}

func TestPurchaseWithoutLinkIsNoOp(t *testing.T) {
	s := newTestSession(t, nil)

	link, ok := s.Purchase(context.Background(), 3)
	assert.False(t, ok)
	assert.Empty(t, link)
	assert.Equal(t, model.MarkerRed, s.Marker(3))
	assert.Empty(t, s.Needed())
}

func TestPurchaseAfterQueueResolvesSnapshot(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	_, ok := s.Queue(ctx, 0)
	require.True(t, ok)
	_, ok = s.Purchase(ctx, 0)
	require.True(t, ok)

	require.Len(t, s.Needed(), 1)
	assert.True(t, s.Needed()[0].CrossedOff)
	assert.Equal(t, model.MarkerGreen, s.Marker(0))
}

func TestPurchaseAfterQueueAppendsUnderDedupNone(t *testing.T) {
	s := New("course-1", newMemStore(), cart.Batcher{}, model.DedupNone, zap.NewNop())
	s.Hydrate(context.Background())
	s.SetItems(testItems())
	ctx := context.Background()

	_, ok := s.Queue(ctx, 0)
	require.True(t, ok)
	_, ok = s.Purchase(ctx, 0)
	require.True(t, ok)

	// Without dedup the earlier snapshot stays pending and the purchase
	// lands as its own crossed-off entry.
	require.Len(t, s.Needed(), 2)
	assert.False(t, s.Needed()[0].CrossedOff)
	assert.True(t, s.Needed()[1].CrossedOff)
}

func TestToggleCheckbox(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	s.ToggleCheckbox(ctx, 0, true)
	assert.Equal(t, model.MarkerGreen, s.Marker(0))

	// Unchecked with no queue membership falls back to red.
	s.ToggleCheckbox(ctx, 0, false)
	assert.Equal(t, model.MarkerRed, s.Marker(0))

	// Unchecked while still on the needed list reverts to yellow.
	s.Queue(ctx, 1)
	s.ToggleCheckbox(ctx, 1, true)
	s.ToggleCheckbox(ctx, 1, false)
	assert.Equal(t, model.MarkerYellow, s.Marker(1))
}

func TestRemoveFromQueueTurnsSourceGreen(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	s.Queue(ctx, 1)
	require.Equal(t, model.MarkerYellow, s.Marker(1))

	s.RemoveFromQueue(ctx, QueueNeeded, 0)

	assert.Empty(t, s.Needed())
	assert.Equal(t, model.MarkerGreen, s.Marker(1))
}

func TestClickThroughCrossesOffAndReturnsLink(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	s.Queue(ctx, 4)
	link, ok := s.ClickThrough(ctx, QueueCustom, 0)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/tapes", link)
	assert.True(t, s.Custom()[0].CrossedOff)
	assert.Equal(t, model.MarkerGreen, s.Marker(4))
}

func TestSetDesiredQuantity(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	require.Equal(t, 3, s.DesiredQuantity(1))

	assert.True(t, s.SetDesiredQuantity(ctx, 1, "5"))
	assert.Equal(t, 5, s.DesiredQuantity(1))

	// Invalid input leaves the stored value alone.
	assert.False(t, s.SetDesiredQuantity(ctx, 1, "lots"))
	assert.False(t, s.SetDesiredQuantity(ctx, 1, "0"))
	assert.False(t, s.SetDesiredQuantity(ctx, 1, "-2"))
	assert.Equal(t, 5, s.DesiredQuantity(1))
}

func TestSetQueuedQuantity(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	s.Queue(ctx, 1)
	s.SetQueuedQuantity(ctx, QueueNeeded, 0, 7)
	assert.Equal(t, 7, s.Needed()[0].Quantity)

	s.SetQueuedQuantity(ctx, QueueNeeded, 0, 0)
	assert.Equal(t, 1, s.Needed()[0].Quantity)
}

func TestBreakdownCountsNotGreenByCategory(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	b := s.Breakdown()
	assert.Equal(t, model.Breakdown{Total: 5, Mandatory: 2, Recommended: 1, Optional: 2}, b)

	s.ToggleCheckbox(ctx, 0, true) // mandatory resolved
	s.Queue(ctx, 2)                // recommended queued, still counts

	b = s.Breakdown()
	assert.Equal(t, model.Breakdown{Total: 4, Mandatory: 1, Recommended: 1, Optional: 2}, b)
}

func TestCheckoutBatchesTenAndLeavesRemainder(t *testing.T) {
	items := make([]model.PackingItem, 11)
	for i := range items {
		items[i] = model.PackingItem{
			Name:        "Item " + string(rune('A'+i)),
			Link:        "https://example.com/" + string(rune('a'+i)),
			Recommended: "1",
			ASIN:        "B00000000" + string(rune('A'+i)),
		}
	}

	s := New("course-1", newMemStore(), cart.Batcher{AssociateTag: "ceprince-20"}, model.DedupByItemLink, zap.NewNop())
	s.Hydrate(context.Background())
	s.SetItems(items)
	ctx := context.Background()

	for i := range items {
		_, ok := s.Queue(ctx, i)
		require.True(t, ok)
	}
	require.Len(t, s.Needed(), 11)

	cartURL, err := s.Checkout(ctx)
	require.NoError(t, err)

	u, err := url.Parse(cartURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, items[0].ASIN, q.Get("ASIN.1"))
	assert.Equal(t, items[9].ASIN, q.Get("ASIN.10"))
	assert.Empty(t, q.Get("ASIN.11"))
	assert.Equal(t, "ceprince-20", q.Get("AssociateTag"))

	crossed := 0
	for i, qi := range s.Needed() {
		if qi.CrossedOff {
			crossed++
			assert.Equal(t, model.MarkerGreen, s.Marker(i))
		}
	}
	assert.Equal(t, 10, crossed)
	assert.False(t, s.Needed()[10].CrossedOff)

	// Second checkout picks up the remainder only.
	cartURL, err = s.Checkout(ctx)
	require.NoError(t, err)
	u, err = url.Parse(cartURL)
	require.NoError(t, err)
	q = u.Query()
	assert.Equal(t, items[10].ASIN, q.Get("ASIN.1"))
	assert.Empty(t, q.Get("ASIN.2"))

	// Nothing left after that.
	_, err = s.Checkout(ctx)
	assert.ErrorIs(t, err, cart.ErrNothingToCheckOut)
}

func TestFetchPiecesIsSafeDuringMutation(t *testing.T) {
	st := newMemStore()
	ctx := context.Background()

	seeded := newTestSession(t, st)
	seeded.CycleMarker(ctx, 0)
	seeded.Queue(ctx, 1)

	// Fetching pieces off the event loop must not touch session state, so
	// it can overlap with mutations of the session being hydrated.
	s := New("course-1", st, cart.Batcher{}, model.DedupByItemLink, zap.NewNop())
	s.SetItems(testItems())

	done := make(chan map[string][]byte, 1)
	go func() {
		done <- s.FetchPieces(ctx)
	}()
	for i := range testItems() {
		s.CycleMarker(ctx, i)
	}
	pieces := <-done

	s.ApplyPieces(pieces)

	assert.True(t, s.Hydrated())
	assert.Equal(t, model.MarkerYellow, s.Marker(0))
	assert.Equal(t, model.MarkerYellow, s.Marker(1))
	require.Len(t, s.Needed(), 1)
}

func TestApplyPiecesGatesWriteBacks(t *testing.T) {
	st := newMemStore()
	s := New("course-1", st, cart.Batcher{}, model.DedupByItemLink, zap.NewNop())
	s.SetItems(testItems())
	ctx := context.Background()

	s.CycleMarker(ctx, 0)
	st.mu.Lock()
	assert.Empty(t, st.data)
	st.mu.Unlock()

	s.ApplyPieces(s.FetchPieces(ctx))
	s.CycleMarker(ctx, 0)
	st.mu.Lock()
	assert.NotEmpty(t, st.data)
	st.mu.Unlock()
}

func TestHydrateRestoresPersistedState(t *testing.T) {
	st := newMemStore()
	ctx := context.Background()

	first := newTestSession(t, st)
	first.CycleMarker(ctx, 0)
	first.Queue(ctx, 1)
	first.Queue(ctx, 4)
	first.SetDesiredQuantity(ctx, 2, "4")

	second := New("course-1", st, cart.Batcher{}, model.DedupByItemLink, zap.NewNop())
	second.Hydrate(ctx)
	second.SetItems(testItems())

	assert.Equal(t, model.MarkerYellow, second.Marker(0))
	assert.Equal(t, model.MarkerYellow, second.Marker(1))
	require.Len(t, second.Needed(), 1)
	assert.Equal(t, "Socks", second.Needed()[0].Item.Name)
	require.Len(t, second.Custom(), 1)
	assert.Equal(t, "Name Tapes", second.Custom()[0].Item.Name)
	assert.Equal(t, 4, second.DesiredQuantity(2))
}

func TestHydrateIsolatesCorruptPieces(t *testing.T) {
	st := newMemStore()

	markers, err := json.Marshal([]model.Marker{model.MarkerGreen, model.MarkerYellow})
	require.NoError(t, err)
	st.data[st.key("course-1", store.PieceColorStates)] = markers
	st.data[st.key("course-1", store.PieceNeededList)] = []byte("{not json")

	s := newTestSession(t, st)

	// The corrupt queue resets; the valid color piece still loads.
	assert.Empty(t, s.Needed())
	assert.Equal(t, model.MarkerGreen, s.Marker(0))
	assert.Equal(t, model.MarkerYellow, s.Marker(1))
	assert.Equal(t, model.MarkerRed, s.Marker(2))
}

func TestHydrateCoercesUnknownMarkers(t *testing.T) {
	st := newMemStore()
	st.data[st.key("course-1", store.PieceColorStates)] = []byte(`["green","purple","yellow"]`)

	s := newTestSession(t, st)

	assert.Equal(t, model.MarkerGreen, s.Marker(0))
	assert.Equal(t, model.MarkerRed, s.Marker(1))
	assert.Equal(t, model.MarkerYellow, s.Marker(2))
}

func TestNoWritesBeforeHydration(t *testing.T) {
	st := newMemStore()
	s := New("course-1", st, cart.Batcher{}, model.DedupByItemLink, zap.NewNop())
	s.SetItems(testItems())

	s.CycleMarker(context.Background(), 0)

	assert.Empty(t, st.data, "mutations before hydration must not overwrite stored state")
}

func TestSaveFailuresAreNonFatal(t *testing.T) {
	st := newMemStore()
	st.saveErr = errors.New("disk full")

	s := newTestSession(t, st)
	ctx := context.Background()

	s.CycleMarker(ctx, 0)
	assert.Equal(t, model.MarkerYellow, s.Marker(0))

	_, ok := s.Queue(ctx, 1)
	assert.True(t, ok)
	assert.Len(t, s.Needed(), 1)
}

func TestStatePiecesAreScopedPerCourse(t *testing.T) {
	st := newMemStore()
	ctx := context.Background()

	a := New("course-a", st, cart.Batcher{}, model.DedupByItemLink, zap.NewNop())
	a.Hydrate(ctx)
	a.SetItems(testItems())
	a.CycleMarker(ctx, 0)

	b := New("course-b", st, cart.Batcher{}, model.DedupByItemLink, zap.NewNop())
	b.Hydrate(ctx)
	b.SetItems(testItems())

	assert.Equal(t, model.MarkerYellow, a.Marker(0))
	assert.Equal(t, model.MarkerRed, b.Marker(0))
}

func TestMarkersRealignWithShorterOrLongerLists(t *testing.T) {
	st := newMemStore()
	st.data[st.key("course-1", store.PieceColorStates)] = []byte(`["green"]`)

	s := newTestSession(t, st)

	require.Len(t, s.Markers(), len(testItems()))
	assert.Equal(t, model.MarkerGreen, s.Marker(0))
	assert.Equal(t, model.MarkerRed, s.Marker(4))
}

func TestToggleNotes(t *testing.T) {
	s := newTestSession(t, nil)

	assert.False(t, s.NotesExpanded(2))
	s.ToggleNotes(2)
	assert.True(t, s.NotesExpanded(2))
	s.ToggleNotes(2)
	assert.False(t, s.NotesExpanded(2))
}

func TestQueuedSnapshotSurvivesSourceRefetch(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := context.Background()

	s.Queue(ctx, 1)

	// A refetched list with rows inserted must not shift queued snapshots.
	refetched := append([]model.PackingItem{{Name: "New First Item", Recommended: "1"}}, testItems()...)
	s.SetItems(refetched)

	require.Len(t, s.Needed(), 1)
	assert.Equal(t, "Socks", s.Needed()[0].Item.Name)
	assert.True(t, strings.HasPrefix(s.Needed()[0].Item.Link, "https://"))
}
