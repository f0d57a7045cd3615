package sheet

import (
	"context"
	"strings"

	"github.com/ceprince/packing-list/internal/model"
)

// Source is the contract for the external tabular data feed. The catalog is
// fetched once per application load; packing lists are fetched lazily, once
// per course-page mount.
type Source interface {
	// FetchCatalog retrieves the flat page table.
	FetchCatalog(ctx context.Context) ([]model.PageRecord, error)

	// FetchPackingList retrieves a course's item list from its sheet URL.
	FetchPackingList(ctx context.Context, url string) ([]model.PackingItem, error)
}

// SheetSource fetches the catalog and packing lists from published
// spreadsheet TSV exports.
type SheetSource struct {
	client     *Client
	catalogURL string
}

// NewSource creates a Source reading the page table from catalogURL.
func NewSource(catalogURL string) *SheetSource {
	return &SheetSource{
		client:     NewClient(),
		catalogURL: catalogURL,
	}
}

// FetchCatalog downloads and maps the page table. Rows without an id are
// dropped; every other missing field degrades to its zero value.
func (s *SheetSource) FetchCatalog(ctx context.Context) ([]model.PageRecord, error) {
	rows, err := s.client.FetchRows(ctx, s.catalogURL)
	if err != nil {
		return nil, err
	}
	return RecordsFromRows(rows), nil
}

// FetchPackingList downloads and maps a course's item list. The first data
// row of a course sheet is a column-note row and is skipped.
func (s *SheetSource) FetchPackingList(
	ctx context.Context,
	url string,
) ([]model.PackingItem, error) {
	rows, err := s.client.FetchRows(ctx, url)
	if err != nil {
		return nil, err
	}
	return ItemsFromRows(rows), nil
}

// RecordsFromRows converts raw sheet rows into page records.
func RecordsFromRows(rows []Row) []model.PageRecord {
	records := make([]model.PageRecord, 0, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row["id"])
		if id == "" {
			continue
		}
		records = append(records, model.PageRecord{
			ID:          id,
			Parent:      strings.TrimSpace(row["parent"]),
			Level:       strings.TrimSpace(row["level"]),
			PageType:    strings.TrimSpace(row["pageType"]),
			Title:       row["title"],
			CourseTitle: row["courseTitle"],
			Message:     row["message"],
			SheetURL:    strings.TrimSpace(row["courseSheetUrl"]),
			PDFURL:      strings.TrimSpace(row["CoursePagePDF"]),
			ExternalURL: strings.TrimSpace(row["externalURL"]),
			Fields:      map[string]string(row),
		})
	}
	return records
}

// ItemsFromRows converts raw course-sheet rows into packing items,
// skipping the leading column-note row.
func ItemsFromRows(rows []Row) []model.PackingItem {
	if len(rows) > 0 {
		rows = rows[1:]
	}

	items := make([]model.PackingItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.PackingItem{
			Name:           row["ITEM"],
			Link:           strings.TrimSpace(row["LINK"]),
			Quantity:       strings.TrimSpace(row["QUANTITY"]),
			Recommended:    strings.TrimSpace(row["Recommended"]),
			Category:       strings.TrimSpace(row["M/O"]),
			DirectCheckout: strings.TrimSpace(row["Custom"]) == "T",
			Notes:          row["THOUGHTS"],
			ASIN:           strings.TrimSpace(row["ASIN"]),
			OfferID:        strings.TrimSpace(row["OFFER_ID"]),
		})
	}
	return items
}
