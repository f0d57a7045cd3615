package model

import "strings"

// Well-known page type tags as they appear in the sheet's pageType column.
const (
	PageTypeLanding    = "landing"
	PageTypeNavigation = "navigation"
	PageTypeMOS        = "mos"
	PageTypeCourse     = "course"
	PageTypeExternal   = "external"
	PageTypeCustom     = "myCustom"
)

// Sheet levels with a fixed meaning in the hierarchy.
const (
	LevelRoot   = "0"
	LevelMOS    = "1"
	LevelCourse = "2"
)

// PageRecord is one row of the site's flat page table. Records are built
// once per catalog fetch and are read-only afterwards.
type PageRecord struct {
	// ID is the unique key for this page, used as its path segment.
	ID string `json:"id"`

	// Parent is the ID of the containing record; empty for root records.
	Parent string `json:"parent"`

	// Level is the depth column as published (string-typed in the sheet).
	Level string `json:"level"`

	// PageType is the raw dispatch tag (see PageType* constants).
	PageType string `json:"page_type"`

	// Title is the page heading; falls back to ID for display when empty.
	Title string `json:"title"`

	// CourseTitle is the course-specific heading used by course pages.
	CourseTitle string `json:"course_title"`

	// Message is the optional body text shown under the title.
	Message string `json:"message"`

	// SheetURL points at the course's published packing-list TSV.
	SheetURL string `json:"sheet_url"`

	// PDFURL points at a printable version of the packing list.
	PDFURL string `json:"pdf_url"`

	// ExternalURL is the redirect target for external pages.
	ExternalURL string `json:"external_url"`

	// Fields holds every raw column of the row, for the generic fallback page.
	Fields map[string]string `json:"fields,omitempty"`
}

// DisplayTitle returns the title to render for this record, preferring the
// course heading on course pages and falling back to the record ID.
func (r PageRecord) DisplayTitle() string {
	if r.PageType == PageTypeCourse && strings.TrimSpace(r.CourseTitle) != "" {
		return r.CourseTitle
	}
	if strings.TrimSpace(r.Title) != "" {
		return r.Title
	}
	return r.ID
}

// IsRoot reports whether this record has no parent.
func (r PageRecord) IsRoot() bool {
	return strings.TrimSpace(r.Parent) == ""
}
