package cart

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/ceprince/packing-list/internal/model"
)

// addToCartURL is the provider's bulk-add endpoint.
const addToCartURL = "https://www.amazon.com/gp/aws/cart/add.html"

// DefaultBatchLimit caps how many items one cart request may carry.
const DefaultBatchLimit = 10

// ErrNothingToCheckOut is returned when every queued item has already been
// crossed off.
var ErrNothingToCheckOut = errors.New("no uncrossed items to check out")

// Batch is one constructed bulk-add request together with the queue
// positions it consumed, so the caller can mark them resolved.
type Batch struct {
	// URL is the pre-filled cart request to open externally.
	URL string

	// Indices are positions into the input queue, in batch order.
	Indices []int

	// Items are the queued snapshots included in the request.
	Items []model.QueuedItem
}

// Batcher builds provider bulk-add URLs from the needed queue.
type Batcher struct {
	// AssociateTag is appended to every generated request.
	AssociateTag string

	// BatchLimit caps the batch size; DefaultBatchLimit when non-positive.
	BatchLimit int
}

// Build filters the queue to items not yet crossed off, takes at most the
// batch limit, and encodes them into a single bulk-add URL with 1-based
// slot indices. Items without a checkout identifier are skipped and do not
// consume a slot. The caller is responsible for marking the returned
// indices as crossed off.
func (b Batcher) Build(queue []model.QueuedItem) (*Batch, error) {
	limit := b.BatchLimit
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	batch := &Batch{}
	params := url.Values{}

	for i, itm := range queue {
		if len(batch.Items) >= limit {
			break
		}
		if itm.CrossedOff {
			continue
		}
		if itm.Item.ASIN == "" {
			continue
		}

		slot := len(batch.Items) + 1
		params.Set(fmt.Sprintf("ASIN.%d", slot), itm.Item.ASIN)

		qty := itm.Quantity
		if qty <= 0 {
			qty = 1
		}
		params.Set(fmt.Sprintf("Quantity.%d", slot), fmt.Sprintf("%d", qty))

		if itm.Item.OfferID != "" {
			params.Set(fmt.Sprintf("OfferListingId.%d", slot), itm.Item.OfferID)
		}

		batch.Indices = append(batch.Indices, i)
		batch.Items = append(batch.Items, itm)
	}

	if len(batch.Items) == 0 {
		return nil, ErrNothingToCheckOut
	}

	if b.AssociateTag != "" {
		params.Set("AssociateTag", b.AssociateTag)
	}

	batch.URL = addToCartURL + "?" + params.Encode()
	return batch, nil
}
