package store

import (
	"context"

	"github.com/ceprince/packing-list/internal/model"
)

// State piece names. Each piece is serialized and saved independently;
// pieces never share a row, and no two courses share a key.
const (
	PieceColorStates       = "color_states"
	PieceNeededList        = "needed_list"
	PieceCustomNeededList  = "custom_needed_list"
	PieceDesiredQuantities = "desired_quantities"
)

// StateStore is the persistence capability handed to a checklist session.
// It only moves serialized snapshots; all state mutation stays in the
// session itself.
type StateStore interface {
	// LoadPiece returns the serialized blob for one state piece of one
	// course, or nil when nothing has been saved yet.
	LoadPiece(ctx context.Context, courseID, piece string) ([]byte, error)

	// SavePiece writes the serialized blob for one state piece of one course.
	SavePiece(ctx context.Context, courseID, piece string, data []byte) error
}

// CatalogCache persists the last successfully fetched page table so
// navigation keeps working when the sheet is unreachable.
type CatalogCache interface {
	UpsertPages(ctx context.Context, records []model.PageRecord) error
	GetPages(ctx context.Context) ([]model.PageRecord, error)
}
