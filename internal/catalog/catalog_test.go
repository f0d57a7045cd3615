package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceprince/packing-list/internal/model"
)

func testRecords() []model.PageRecord {
	return []model.PageRecord{
		{ID: "home", Level: "0", PageType: "landing", Title: "Home"},
		{ID: "infantry", Parent: "home", Level: "1", PageType: "mos", Title: "Infantry"},
		{ID: "medic", Parent: "home", Level: "1", PageType: "mos", Title: "Combat Medic"},
		{ID: "basic", Parent: "infantry", Level: "2", PageType: "course", Title: "basic", CourseTitle: "Basic Training"},
		{ID: "airborne", Parent: "infantry", Level: "2", PageType: "course", CourseTitle: "Airborne School"},
		{ID: "resources", Parent: "home", Level: "1", PageType: "navigation", Title: "Resources"},
		{ID: "ranger-site", Parent: "resources", PageType: "external", Title: "Ranger Info", ExternalURL: "https://example.com"},
		{ID: "notes", Parent: "resources", PageType: "myCustom", Title: "Notes"},
		{ID: "mystery", Parent: "resources", PageType: "something-new", Title: "Mystery"},
	}
}

func TestResolveDispatchesByPageType(t *testing.T) {
	cases := []struct {
		pageType string
		want     PageKind
	}{
		{"landing", KindLanding},
		{"navigation", KindNavigation},
		{"mos", KindMOS},
		{"course", KindCourse},
		{"external", KindExternal},
		{"myCustom", KindCustom},
		{"something-new", KindGeneric},
		{"", KindGeneric},
	}

	for _, tc := range cases {
		got := Resolve(model.PageRecord{PageType: tc.pageType})
		assert.Equal(t, tc.want, got, "pageType %q", tc.pageType)
	}
}

func TestFindByID(t *testing.T) {
	c := New(testRecords())

	r := c.FindByID("basic")
	require.NotNil(t, r)
	assert.Equal(t, "Basic Training", r.DisplayTitle())

	assert.Nil(t, c.FindByID("no-such-page"))
}

func TestDuplicateIDsFirstWins(t *testing.T) {
	c := New([]model.PageRecord{
		{ID: "dup", Title: "First"},
		{ID: "dup", Title: "Second"},
	})

	r := c.FindByID("dup")
	require.NotNil(t, r)
	assert.Equal(t, "First", r.Title)
	assert.Equal(t, 2, c.Len())
}

func TestChildrenPreserveSheetOrder(t *testing.T) {
	c := New(testRecords())

	children := c.Children("home")
	require.Len(t, children, 3)
	assert.Equal(t, "infantry", children[0].ID)
	assert.Equal(t, "medic", children[1].ID)
	assert.Equal(t, "resources", children[2].ID)

	assert.Empty(t, c.Children("basic"))
}

func TestCoursesUnder(t *testing.T) {
	c := New(testRecords())

	courses := c.CoursesUnder("infantry")
	require.Len(t, courses, 2)
	assert.Equal(t, "basic", courses[0].ID)
	assert.Equal(t, "airborne", courses[1].ID)

	// Non-course children are not included.
	assert.Empty(t, c.CoursesUnder("resources"))
}

func TestAtLevel(t *testing.T) {
	c := New(testRecords())

	assert.Len(t, c.AtLevel("1"), 3)
	assert.Len(t, c.AtLevel("2"), 2)
}

func TestAtLevelIgnoresParentage(t *testing.T) {
	// Published sheets parent MOS tracks to themselves rather than to the
	// landing row, so the landing listing must go by level, not parent.
	c := New([]model.PageRecord{
		{ID: "home", Level: "0", PageType: "landing"},
		{ID: "infantry", Parent: "infantry", Level: "1", PageType: "mos"},
		{ID: "medic", Parent: "medic", Level: "1", PageType: "mos"},
	})

	assert.Empty(t, c.Children("home"))

	tracks := c.AtLevel(model.LevelMOS)
	require.Len(t, tracks, 2)
	assert.Equal(t, "infantry", tracks[0].ID)
	assert.Equal(t, "medic", tracks[1].ID)
}

func TestBreadcrumbTrailRootFirst(t *testing.T) {
	c := New(testRecords())

	trail := c.BreadcrumbTrail("basic")
	require.Len(t, trail, 3)
	assert.Equal(t, "home", trail[0].ID)
	assert.Equal(t, "infantry", trail[1].ID)
	assert.Equal(t, "basic", trail[2].ID)
}

func TestBreadcrumbTrailUnknownIDIsEmpty(t *testing.T) {
	c := New(testRecords())
	assert.Empty(t, c.BreadcrumbTrail("no-such-page"))
}

func TestBreadcrumbTrailDanglingParentYieldsPrefix(t *testing.T) {
	c := New([]model.PageRecord{
		{ID: "orphan", Parent: "gone", Title: "Orphan"},
	})

	trail := c.BreadcrumbTrail("orphan")
	require.Len(t, trail, 1)
	assert.Equal(t, "orphan", trail[0].ID)
}

func TestBreadcrumbTrailTerminatesOnCycle(t *testing.T) {
	c := New([]model.PageRecord{
		{ID: "a", Parent: "b"},
		{ID: "b", Parent: "a"},
	})

	trail := c.BreadcrumbTrail("a")
	require.Len(t, trail, 2)
	assert.Equal(t, "b", trail[0].ID)
	assert.Equal(t, "a", trail[1].ID)
}
