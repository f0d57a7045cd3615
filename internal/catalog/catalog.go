package catalog

import (
	"strings"

	"github.com/ceprince/packing-list/internal/model"
)

// PageKind is the closed set of page behaviors a record can resolve to.
// Dispatch happens once per navigation, not scattered across render paths.
type PageKind int

const (
	// KindGeneric is the fallback for unknown page type tags.
	KindGeneric PageKind = iota
	KindLanding
	KindNavigation
	KindMOS
	KindCourse
	KindExternal
	// KindCustom is a reserved extension tag; it renders generically.
	KindCustom
)

// String returns the kind's name for logging.
func (k PageKind) String() string {
	switch k {
	case KindLanding:
		return "landing"
	case KindNavigation:
		return "navigation"
	case KindMOS:
		return "mos"
	case KindCourse:
		return "course"
	case KindExternal:
		return "external"
	case KindCustom:
		return "custom"
	default:
		return "generic"
	}
}

// Resolve maps a record's page type tag to its page kind. Unrecognized
// tags fall back to KindGeneric.
func Resolve(r model.PageRecord) PageKind {
	switch r.PageType {
	case model.PageTypeLanding:
		return KindLanding
	case model.PageTypeNavigation:
		return KindNavigation
	case model.PageTypeMOS:
		return KindMOS
	case model.PageTypeCourse:
		return KindCourse
	case model.PageTypeExternal:
		return KindExternal
	case model.PageTypeCustom:
		return KindCustom
	default:
		return KindGeneric
	}
}

// Catalog is the immutable page table with lookup and ancestry walks.
type Catalog struct {
	records []model.PageRecord
	byID    map[string]int
}

// New builds a catalog over the fetched records. When the sheet carries
// duplicate ids the first occurrence wins.
func New(records []model.PageRecord) *Catalog {
	byID := make(map[string]int, len(records))
	for i, r := range records {
		if _, ok := byID[r.ID]; !ok {
			byID[r.ID] = i
		}
	}
	return &Catalog{records: records, byID: byID}
}

// Len returns the number of records in the catalog.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Records returns the full table in sheet order.
func (c *Catalog) Records() []model.PageRecord {
	return c.records
}

// FindByID returns the record with the given id, or nil if it does not exist.
func (c *Catalog) FindByID(id string) *model.PageRecord {
	i, ok := c.byID[id]
	if !ok {
		return nil
	}
	return &c.records[i]
}

// Children returns the records whose parent is id, in sheet order.
func (c *Catalog) Children(id string) []model.PageRecord {
	var children []model.PageRecord
	for _, r := range c.records {
		if r.Parent == id {
			children = append(children, r)
		}
	}
	return children
}

// AtLevel returns the records at the given depth, in sheet order.
func (c *Catalog) AtLevel(level string) []model.PageRecord {
	var matched []model.PageRecord
	for _, r := range c.records {
		if strings.TrimSpace(r.Level) == level {
			matched = append(matched, r)
		}
	}
	return matched
}

// CoursesUnder returns the course-depth records whose parent is id.
// This is the listing a category (MOS) page renders.
func (c *Catalog) CoursesUnder(id string) []model.PageRecord {
	var courses []model.PageRecord
	for _, r := range c.records {
		if r.Parent == id && strings.TrimSpace(r.Level) == model.LevelCourse {
			courses = append(courses, r)
		}
	}
	return courses
}

// BreadcrumbTrail walks the parent chain from id and returns the trail
// ordered root-first. A dangling parent reference stops the walk and yields
// the valid prefix; an unresolvable id yields an empty trail. A visited set
// guards against parent cycles in corrupted data, so the walk always
// terminates.
func (c *Catalog) BreadcrumbTrail(id string) []model.PageRecord {
	var trail []model.PageRecord
	visited := make(map[string]bool)

	current := c.FindByID(id)
	for current != nil && !visited[current.ID] {
		visited[current.ID] = true
		trail = append([]model.PageRecord{*current}, trail...)
		if current.IsRoot() {
			break
		}
		current = c.FindByID(current.Parent)
	}

	return trail
}
