package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayTitle(t *testing.T) {
	course := PageRecord{ID: "basic", PageType: PageTypeCourse, Title: "basic", CourseTitle: "Basic Training"}
	assert.Equal(t, "Basic Training", course.DisplayTitle())

	// Non-course pages ignore the course heading column.
	nav := PageRecord{ID: "infantry", PageType: PageTypeMOS, Title: "Infantry", CourseTitle: "ignored"}
	assert.Equal(t, "Infantry", nav.DisplayTitle())

	// Fall back to the id when no title is set.
	bare := PageRecord{ID: "mystery"}
	assert.Equal(t, "mystery", bare.DisplayTitle())
}

func TestIsRoot(t *testing.T) {
	assert.True(t, PageRecord{ID: "home"}.IsRoot())
	assert.True(t, PageRecord{ID: "home", Parent: "  "}.IsRoot())
	assert.False(t, PageRecord{ID: "infantry", Parent: "home"}.IsRoot())
}
