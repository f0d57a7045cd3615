package cart

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceprince/packing-list/internal/model"
)

func queued(n int) []model.QueuedItem {
	queue := make([]model.QueuedItem, n)
	for i := range queue {
		queue[i] = model.QueuedItem{
			ID:       fmt.Sprintf("q-%d", i),
			Item:     model.PackingItem{Name: fmt.Sprintf("Item %d", i), ASIN: fmt.Sprintf("B%09d", i)},
			Quantity: i + 1,
		}
	}
	return queue
}

func TestBuildEncodesSlotsOneBasedInQueueOrder(t *testing.T) {
	b := Batcher{AssociateTag: "ceprince-20"}

	batch, err := b.Build(queued(3))
	require.NoError(t, err)

	u, err := url.Parse(batch.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(batch.URL, addToCartURL+"?"))

	q := u.Query()
	assert.Equal(t, "B000000000", q.Get("ASIN.1"))
	assert.Equal(t, "1", q.Get("Quantity.1"))
	assert.Equal(t, "B000000002", q.Get("ASIN.3"))
	assert.Equal(t, "3", q.Get("Quantity.3"))
	assert.Equal(t, "ceprince-20", q.Get("AssociateTag"))
	assert.Equal(t, []int{0, 1, 2}, batch.Indices)
}

func TestBuildCapsAtBatchLimit(t *testing.T) {
	b := Batcher{}

	batch, err := b.Build(queued(12))
	require.NoError(t, err)
	assert.Len(t, batch.Items, DefaultBatchLimit)

	q, err := url.ParseQuery(strings.SplitN(batch.URL, "?", 2)[1])
	require.NoError(t, err)
	assert.NotEmpty(t, q.Get("ASIN.10"))
	assert.Empty(t, q.Get("ASIN.11"))
}

func TestBuildSkipsCrossedOffWithoutConsumingSlots(t *testing.T) {
	queue := queued(12)
	queue[0].CrossedOff = true
	queue[1].CrossedOff = true

	batch, err := Batcher{}.Build(queue)
	require.NoError(t, err)

	require.Len(t, batch.Items, 10)
	assert.Equal(t, 2, batch.Indices[0], "first uncrossed item fills slot 1")
	assert.Equal(t, 11, batch.Indices[9])
}

func TestBuildSkipsItemsWithoutASIN(t *testing.T) {
	queue := queued(3)
	queue[1].Item.ASIN = ""

	batch, err := Batcher{}.Build(queue)
	require.NoError(t, err)

	require.Len(t, batch.Items, 2)
	assert.Equal(t, []int{0, 2}, batch.Indices)

	q, err := url.ParseQuery(strings.SplitN(batch.URL, "?", 2)[1])
	require.NoError(t, err)
	assert.Equal(t, "B000000002", q.Get("ASIN.2"))
}

func TestBuildIncludesOfferListingID(t *testing.T) {
	queue := queued(2)
	queue[0].Item.OfferID = "offer-abc"

	batch, err := Batcher{}.Build(queue)
	require.NoError(t, err)

	q, err := url.ParseQuery(strings.SplitN(batch.URL, "?", 2)[1])
	require.NoError(t, err)
	assert.Equal(t, "offer-abc", q.Get("OfferListingId.1"))
	assert.Empty(t, q.Get("OfferListingId.2"))
}

func TestBuildDefaultsNonPositiveQuantityToOne(t *testing.T) {
	queue := queued(1)
	queue[0].Quantity = 0

	batch, err := Batcher{}.Build(queue)
	require.NoError(t, err)

	q, err := url.ParseQuery(strings.SplitN(batch.URL, "?", 2)[1])
	require.NoError(t, err)
	assert.Equal(t, "1", q.Get("Quantity.1"))
}

func TestBuildCustomBatchLimit(t *testing.T) {
	b := Batcher{BatchLimit: 3}

	batch, err := b.Build(queued(5))
	require.NoError(t, err)
	assert.Len(t, batch.Items, 3)
}

func TestBuildNothingToCheckOut(t *testing.T) {
	_, err := Batcher{}.Build(nil)
	assert.ErrorIs(t, err, ErrNothingToCheckOut)

	queue := queued(2)
	queue[0].CrossedOff = true
	queue[1].CrossedOff = true
	_, err = Batcher{}.Build(queue)
	assert.ErrorIs(t, err, ErrNothingToCheckOut)
}

func TestBuildOmitsAssociateTagWhenEmpty(t *testing.T) {
	batch, err := Batcher{}.Build(queued(1))
	require.NoError(t, err)

	q, err := url.ParseQuery(strings.SplitN(batch.URL, "?", 2)[1])
	require.NoError(t, err)
	_, present := q["AssociateTag"]
	assert.False(t, present)
}
