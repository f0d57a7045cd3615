package session

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ceprince/packing-list/internal/cart"
	"github.com/ceprince/packing-list/internal/model"
	"github.com/ceprince/packing-list/internal/store"
)

// Queue names the two needed lists a session maintains.
type Queue string

const (
	// QueueNeeded collects items bound for bulk cart checkout.
	QueueNeeded Queue = "needed"

	// QueueCustom collects direct-checkout items (Custom == "T").
	QueueCustom Queue = "custom"
)

// Ack reports the result of a queue interaction, for transient UI feedback.
type Ack struct {
	// Index is the source-list index that was queued.
	Index int

	// Duplicate is true when the dedup policy suppressed a second snapshot.
	Duplicate bool
}

// Session is the per-course checklist state machine. It exclusively owns its
// state; the injected StateStore only moves serialized snapshots. All
// mutations are synchronous, and every mutation of a persisted piece writes
// that piece back once the session is hydrated.
type Session struct {
	courseID string
	st       store.StateStore
	batcher  cart.Batcher
	dedup    string
	log      *zap.Logger

	items      []model.PackingItem
	markers    []model.Marker
	quantities map[int]int
	needed     []model.QueuedItem
	custom     []model.QueuedItem
	expanded   map[int]bool

	hydrated bool
}

// New creates a session scoped to courseID. The dedup policy is one of the
// model.Dedup* constants; anything else falls back to de-duplicating by
// (name, link) identity.
func New(
	courseID string,
	st store.StateStore,
	batcher cart.Batcher,
	dedup string,
	log *zap.Logger,
) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if dedup != model.DedupNone && dedup != model.DedupByItemLink {
		dedup = model.DedupByItemLink
	}
	return &Session{
		courseID:   courseID,
		st:         st,
		batcher:    batcher,
		dedup:      dedup,
		log:        log,
		quantities: make(map[int]int),
		expanded:   make(map[int]bool),
	}
}

// CourseID returns the course identifier this session is scoped to.
func (s *Session) CourseID() string {
	return s.courseID
}

// FetchPieces loads the four serialized state pieces from the store without
// touching session state, so it is safe to call off the update loop while
// the session is being mutated. Absent or unreadable pieces are missing
// from the returned map.
func (s *Session) FetchPieces(ctx context.Context) map[string][]byte {
	pieces := make(map[string][]byte, 4)
	for _, piece := range []string{
		store.PieceColorStates,
		store.PieceNeededList,
		store.PieceCustomNeededList,
		store.PieceDesiredQuantities,
	} {
		if data := s.loadPiece(ctx, piece); data != nil {
			pieces[piece] = data
		}
	}
	return pieces
}

// Hydrate loads the four persisted state pieces and applies them. It is a
// synchronous convenience over FetchPieces and ApplyPieces; callers on an
// event loop should fetch off-loop and apply on-loop instead.
func (s *Session) Hydrate(ctx context.Context) {
	s.ApplyPieces(s.FetchPieces(ctx))
}

// ApplyPieces deserializes previously fetched state pieces into the
// session. Each piece is guarded independently: a missing or malformed blob
// leaves its empty default and never blocks the others. Only after all four
// attempts does the session accept write-backs, so a half-rendered session
// cannot clobber saved state.
func (s *Session) ApplyPieces(pieces map[string][]byte) {
	if data := pieces[store.PieceColorStates]; data != nil {
		var markers []model.Marker
		if err := json.Unmarshal(data, &markers); err != nil {
			s.log.Warn("discarding malformed color state",
				zap.String("course", s.courseID), zap.Error(err))
		} else {
			for i, m := range markers {
				if !m.Valid() {
					markers[i] = model.MarkerRed
				}
			}
			s.markers = markers
		}
	}

	if data := pieces[store.PieceNeededList]; data != nil {
		var needed []model.QueuedItem
		if err := json.Unmarshal(data, &needed); err != nil {
			s.log.Warn("discarding malformed needed list",
				zap.String("course", s.courseID), zap.Error(err))
		} else {
			s.needed = needed
		}
	}

	if data := pieces[store.PieceCustomNeededList]; data != nil {
		var custom []model.QueuedItem
		if err := json.Unmarshal(data, &custom); err != nil {
			s.log.Warn("discarding malformed custom needed list",
				zap.String("course", s.courseID), zap.Error(err))
		} else {
			s.custom = custom
		}
	}

	if data := pieces[store.PieceDesiredQuantities]; data != nil {
		var quantities map[int]int
		if err := json.Unmarshal(data, &quantities); err != nil {
			s.log.Warn("discarding malformed desired quantities",
				zap.String("course", s.courseID), zap.Error(err))
		} else {
			s.quantities = make(map[int]int, len(quantities))
			for i, q := range quantities {
				if q > 0 {
					s.quantities[i] = q
				}
			}
		}
	}

	s.hydrated = true
	s.normalize()
}

// Hydrated reports whether the initial load has completed.
func (s *Session) Hydrated() bool {
	return s.hydrated
}

// SetItems installs the fetched packing list and defaults any state the
// stored blobs did not cover. Items are fetched once per course mount.
func (s *Session) SetItems(items []model.PackingItem) {
	s.items = items
	s.normalize()
}

// normalize keeps the markers index-aligned with the item list and seeds
// missing desired quantities from the Recommended column.
func (s *Session) normalize() {
	if len(s.items) == 0 {
		return
	}

	for len(s.markers) < len(s.items) {
		s.markers = append(s.markers, model.MarkerRed)
	}
	if len(s.markers) > len(s.items) {
		s.markers = s.markers[:len(s.items)]
	}

	if s.quantities == nil {
		s.quantities = make(map[int]int, len(s.items))
	}
	for i, itm := range s.items {
		if _, ok := s.quantities[i]; !ok {
			s.quantities[i] = itm.RecommendedQuantity()
		}
	}
}

// Items returns the source packing list.
func (s *Session) Items() []model.PackingItem {
	return s.items
}

// Marker returns the marker for one source index; absent indices read red.
func (s *Session) Marker(i int) model.Marker {
	if i < 0 || i >= len(s.markers) {
		return model.MarkerRed
	}
	return s.markers[i]
}

// Markers returns the full marker sequence.
func (s *Session) Markers() []model.Marker {
	return s.markers
}

// Needed returns the bulk-checkout queue.
func (s *Session) Needed() []model.QueuedItem {
	return s.needed
}

// Custom returns the direct-checkout queue.
func (s *Session) Custom() []model.QueuedItem {
	return s.custom
}

// DesiredQuantity returns the desired quantity for a source index.
func (s *Session) DesiredQuantity(i int) int {
	if q, ok := s.quantities[i]; ok && q > 0 {
		return q
	}
	if i >= 0 && i < len(s.items) {
		return s.items[i].RecommendedQuantity()
	}
	return 1
}

// CycleMarker advances one marker through red → yellow → green → red.
func (s *Session) CycleMarker(ctx context.Context, i int) {
	if i < 0 || i >= len(s.markers) {
		return
	}
	s.markers[i] = s.markers[i].Next()
	s.persistColors(ctx)
}

// Queue adds the item at index i to its needed list: the marker turns
// yellow and a snapshot with the current desired quantity is appended to
// the standard or direct-checkout queue by the item's routing flag. Under
// the item-link dedup policy a second queueing of the same item only
// re-marks the row.
func (s *Session) Queue(ctx context.Context, i int) (Ack, bool) {
	if i < 0 || i >= len(s.items) {
		return Ack{}, false
	}

	s.setMarker(ctx, i, model.MarkerYellow)

	itm := s.items[i]
	snapshot := s.snapshot(itm, s.DesiredQuantity(i), false)

	if s.isDuplicate(itm) {
		return Ack{Index: i, Duplicate: true}, true
	}

	s.appendSnapshot(ctx, itm, snapshot)
	return Ack{Index: i}, true
}

// Purchase resolves the item at index i immediately: the marker turns
// green, a crossed-off snapshot lands on the appropriate queue, the source
// row is crossed off, and the item's link is returned for the host to
// open. Items without a valid link are a silent no-op.
func (s *Session) Purchase(ctx context.Context, i int) (string, bool) {
	if i < 0 || i >= len(s.items) {
		return "", false
	}
	itm := s.items[i]
	if !itm.HasValidLink() {
		return "", false
	}

	s.setMarker(ctx, i, model.MarkerGreen)
	s.items[i].CrossedOff = true

	// Under the item-link policy an already-queued snapshot is resolved in
	// place; otherwise a crossed-off snapshot is appended.
	if existing := s.findQueued(itm); existing != nil && s.dedup == model.DedupByItemLink {
		existing.CrossedOff = true
		s.persistQueue(ctx, itm)
	} else {
		s.appendSnapshot(ctx, itm, s.snapshot(itm, s.DesiredQuantity(i), true))
	}

	return itm.Link, true
}

// ToggleCheckbox forces the marker at index i: checked means green;
// unchecked reverts to yellow when the item is still on the needed list,
// red otherwise.
func (s *Session) ToggleCheckbox(ctx context.Context, i int, checked bool) {
	if i < 0 || i >= len(s.items) {
		return
	}
	if checked {
		s.setMarker(ctx, i, model.MarkerGreen)
		return
	}
	itm := s.items[i]
	for _, q := range s.needed {
		if q.Item.SameItem(itm) {
			s.setMarker(ctx, i, model.MarkerYellow)
			return
		}
	}
	s.setMarker(ctx, i, model.MarkerRed)
}

// MarkGreenByItem locates the source row matching the given item by
// (name, link) identity and sets its marker green. Queued snapshots are
// resolved through this so the source row always reflects queue state.
func (s *Session) MarkGreenByItem(ctx context.Context, itm model.PackingItem) {
	for i, candidate := range s.items {
		if candidate.SameItem(itm) {
			s.setMarker(ctx, i, model.MarkerGreen)
			return
		}
	}
}

// SetDesiredQuantity coerces raw to a positive integer and stores it.
// Invalid input is rejected at the boundary and the prior value kept.
func (s *Session) SetDesiredQuantity(ctx context.Context, i int, raw string) bool {
	if i < 0 || i >= len(s.items) {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return false
	}
	s.quantities[i] = n
	s.persistQuantities(ctx)
	return true
}

// SetQueuedQuantity updates the quantity on one queued snapshot.
func (s *Session) SetQueuedQuantity(ctx context.Context, q Queue, idx, qty int) {
	list := s.queue(q)
	if idx < 0 || idx >= len(*list) {
		return
	}
	if qty <= 0 {
		qty = 1
	}
	(*list)[idx].Quantity = qty
	s.persistQueuePiece(ctx, q)
}

// RemoveFromQueue drops one queued snapshot. The removed item counts as
// resolved, so its source row turns green rather than reverting to its
// pre-queue color.
func (s *Session) RemoveFromQueue(ctx context.Context, q Queue, idx int) {
	list := s.queue(q)
	if idx < 0 || idx >= len(*list) {
		return
	}
	removed := (*list)[idx]
	s.MarkGreenByItem(ctx, removed.Item)
	*list = append((*list)[:idx], (*list)[idx+1:]...)
	s.persistQueuePiece(ctx, q)
}

// ClickThrough crosses off one queued snapshot, turns its source row green,
// and returns the link for the host to open.
func (s *Session) ClickThrough(ctx context.Context, q Queue, idx int) (string, bool) {
	list := s.queue(q)
	if idx < 0 || idx >= len(*list) {
		return "", false
	}
	(*list)[idx].CrossedOff = true
	s.MarkGreenByItem(ctx, (*list)[idx].Item)
	s.persistQueuePiece(ctx, q)
	return (*list)[idx].Item.Link, true
}

// ToggleNotes flips the transient expanded flag for one source row.
func (s *Session) ToggleNotes(i int) {
	s.expanded[i] = !s.expanded[i]
}

// NotesExpanded reports whether the notes row at index i is expanded.
func (s *Session) NotesExpanded(i int) bool {
	return s.expanded[i]
}

// Breakdown recomputes the not-green counts, overall and split by the
// item's category. Derived state only; nothing is cached.
func (s *Session) Breakdown() model.Breakdown {
	var b model.Breakdown
	for i := range s.items {
		if s.Marker(i) == model.MarkerGreen {
			continue
		}
		b.Total++
		switch s.items[i].Category {
		case model.CategoryMandatory:
			b.Mandatory++
		case model.CategoryRecommended:
			b.Recommended++
		default:
			b.Optional++
		}
	}
	return b
}

// Checkout builds one bulk-add cart request from the needed queue, marks
// the batched snapshots crossed off, turns their source rows green, and
// returns the URL for the host to open. cart.ErrNothingToCheckOut is
// returned when every queued item is already resolved.
func (s *Session) Checkout(ctx context.Context) (string, error) {
	batch, err := s.batcher.Build(s.needed)
	if err != nil {
		return "", err
	}

	for _, idx := range batch.Indices {
		s.needed[idx].CrossedOff = true
		s.MarkGreenByItem(ctx, s.needed[idx].Item)
	}
	s.persistPiece(ctx, store.PieceNeededList, s.needed)

	return batch.URL, nil
}

// snapshot clones an item onto a queue with its own identity.
func (s *Session) snapshot(itm model.PackingItem, qty int, crossedOff bool) model.QueuedItem {
	itm.CrossedOff = false
	return model.QueuedItem{
		ID:         uuid.New().String(),
		Item:       itm,
		Quantity:   qty,
		CrossedOff: crossedOff,
	}
}

// queue returns the backing slice for a queue name.
func (s *Session) queue(q Queue) *[]model.QueuedItem {
	if q == QueueCustom {
		return &s.custom
	}
	return &s.needed
}

// queueFor returns the queue an item routes to by its checkout flag.
func (s *Session) queueFor(itm model.PackingItem) Queue {
	if itm.DirectCheckout {
		return QueueCustom
	}
	return QueueNeeded
}

// isDuplicate reports whether the dedup policy suppresses queueing itm again.
func (s *Session) isDuplicate(itm model.PackingItem) bool {
	if s.dedup != model.DedupByItemLink {
		return false
	}
	return s.findQueued(itm) != nil
}

// findQueued returns the snapshot of itm on its routed queue, or nil.
func (s *Session) findQueued(itm model.PackingItem) *model.QueuedItem {
	list := s.queue(s.queueFor(itm))
	for i := range *list {
		if (*list)[i].Item.SameItem(itm) {
			return &(*list)[i]
		}
	}
	return nil
}

// appendSnapshot places a snapshot on the item's routed queue and persists it.
func (s *Session) appendSnapshot(
	ctx context.Context,
	itm model.PackingItem,
	snapshot model.QueuedItem,
) {
	q := s.queueFor(itm)
	list := s.queue(q)
	*list = append(*list, snapshot)
	s.persistQueuePiece(ctx, q)
}

// setMarker forces one marker and persists the color piece.
func (s *Session) setMarker(ctx context.Context, i int, m model.Marker) {
	if i < 0 || i >= len(s.markers) {
		return
	}
	s.markers[i] = m
	s.persistColors(ctx)
}

// loadPiece fetches one stored blob, logging and continuing on failure.
func (s *Session) loadPiece(ctx context.Context, piece string) []byte {
	data, err := s.st.LoadPiece(ctx, s.courseID, piece)
	if err != nil {
		s.log.Warn("loading state piece failed",
			zap.String("course", s.courseID),
			zap.String("piece", piece),
			zap.Error(err))
		return nil
	}
	return data
}

// persistPiece serializes one state piece and writes it back, once
// hydration has completed. Save failures are logged, never fatal.
func (s *Session) persistPiece(ctx context.Context, piece string, v interface{}) {
	if !s.hydrated {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("marshaling state piece failed",
			zap.String("piece", piece), zap.Error(err))
		return
	}
	if err := s.st.SavePiece(ctx, s.courseID, piece, data); err != nil {
		s.log.Warn("saving state piece failed",
			zap.String("course", s.courseID),
			zap.String("piece", piece),
			zap.Error(err))
	}
}

func (s *Session) persistColors(ctx context.Context) {
	s.persistPiece(ctx, store.PieceColorStates, s.markers)
}

func (s *Session) persistQuantities(ctx context.Context) {
	s.persistPiece(ctx, store.PieceDesiredQuantities, s.quantities)
}

func (s *Session) persistQueuePiece(ctx context.Context, q Queue) {
	if q == QueueCustom {
		s.persistPiece(ctx, store.PieceCustomNeededList, s.custom)
	} else {
		s.persistPiece(ctx, store.PieceNeededList, s.needed)
	}
}

// persistQueue persists whichever queue itm routes to.
func (s *Session) persistQueue(ctx context.Context, itm model.PackingItem) {
	s.persistQueuePiece(ctx, s.queueFor(itm))
}
