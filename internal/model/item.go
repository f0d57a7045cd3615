package model

import (
	"net/url"
	"strconv"
	"strings"
)

// Marker is the tri-state completion indicator for a packing item.
type Marker string

const (
	MarkerRed    Marker = "red"
	MarkerYellow Marker = "yellow"
	MarkerGreen  Marker = "green"
)

// Next returns the marker that follows in the cycle red → yellow → green → red.
func (m Marker) Next() Marker {
	switch m {
	case MarkerRed:
		return MarkerYellow
	case MarkerYellow:
		return MarkerGreen
	default:
		return MarkerRed
	}
}

// Valid reports whether m is one of the three known marker states.
func (m Marker) Valid() bool {
	return m == MarkerRed || m == MarkerYellow || m == MarkerGreen
}

// Item categories from the sheet's M/O column.
const (
	CategoryMandatory   = "M"
	CategoryRecommended = "R"
)

// PackingItem is one row of a course's packing list, fetched lazily when the
// course page is opened. Items are never deleted, only annotated.
type PackingItem struct {
	// Name is the display name (ITEM column).
	Name string `json:"name"`

	// Link is the optional product URL (LINK column).
	Link string `json:"link"`

	// Quantity is the sheet's recommended quantity, kept as published.
	Quantity string `json:"quantity"`

	// Recommended seeds the desired-quantity selector.
	Recommended string `json:"recommended"`

	// Category is the M/O column: "M" mandatory, "R" recommended, else optional.
	Category string `json:"category"`

	// DirectCheckout routes the item to the direct-checkout queue (Custom == "T").
	DirectCheckout bool `json:"direct_checkout"`

	// Notes is the free-text THOUGHTS column, shown on demand.
	Notes string `json:"notes"`

	// ASIN and OfferID identify the item for bulk cart checkout.
	ASIN    string `json:"asin"`
	OfferID string `json:"offer_id"`

	// CrossedOff marks the source row as actioned for this session.
	CrossedOff bool `json:"crossed_off"`
}

// HasValidLink reports whether the item carries an absolute, parseable URL.
func (p PackingItem) HasValidLink() bool {
	u, err := url.Parse(strings.TrimSpace(p.Link))
	return err == nil && u.IsAbs() && u.Host != ""
}

// HasNotes reports whether the item has annotation text worth showing.
func (p PackingItem) HasNotes() bool {
	return strings.TrimSpace(p.Notes) != ""
}

// SameItem reports whether two items refer to the same source row,
// matched by (name, link) identity.
func (p PackingItem) SameItem(other PackingItem) bool {
	return p.Name == other.Name && p.Link == other.Link
}

// RecommendedQuantity returns the Recommended column as a positive integer,
// falling back to 1 when it is absent or not a number.
func (p PackingItem) RecommendedQuantity() int {
	if n, err := strconv.Atoi(strings.TrimSpace(p.Recommended)); err == nil && n > 0 {
		return n
	}
	return 1
}

// QueuedItem is a snapshot of a packing item placed on a needed queue.
// It is independent of the source list's index positions.
type QueuedItem struct {
	// ID identifies this snapshot; one source item may be queued repeatedly.
	ID string `json:"id"`

	Item PackingItem `json:"item"`

	// Quantity is the desired quantity resolved at queue time.
	Quantity int `json:"quantity"`

	// CrossedOff marks the snapshot as resolved (clicked through or checked out).
	CrossedOff bool `json:"crossed_off"`
}

// Breakdown is the derived count of not-yet-green items, overall and split
// by category. It is recomputed on every read and never stored.
type Breakdown struct {
	Total       int
	Mandatory   int
	Recommended int
	Optional    int
}
