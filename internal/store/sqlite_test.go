package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceprince/packing-list/internal/model"
	"github.com/ceprince/packing-list/internal/store"
	"github.com/ceprince/packing-list/tests/testutil"
)

func TestLoadPieceAbsentReturnsNil(t *testing.T) {
	s := testutil.NewTestStore(t)

	data, err := s.LoadPiece(context.Background(), "basic", store.PieceColorStates)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSaveAndLoadPieceRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	blob := []byte(`["red","green","yellow"]`)
	require.NoError(t, s.SavePiece(ctx, "basic", store.PieceColorStates, blob))

	data, err := s.LoadPiece(ctx, "basic", store.PieceColorStates)
	require.NoError(t, err)
	assert.Equal(t, blob, data)
}

func TestSavePieceReplacesPreviousValue(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePiece(ctx, "basic", store.PieceNeededList, []byte(`[1]`)))
	require.NoError(t, s.SavePiece(ctx, "basic", store.PieceNeededList, []byte(`[1,2]`)))

	data, err := s.LoadPiece(ctx, "basic", store.PieceNeededList)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1,2]`), data)
}

func TestPiecesAreIndependent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePiece(ctx, "basic", store.PieceColorStates, []byte(`["red"]`)))
	require.NoError(t, s.SavePiece(ctx, "basic", store.PieceDesiredQuantities, []byte(`{"0":2}`)))

	colors, err := s.LoadPiece(ctx, "basic", store.PieceColorStates)
	require.NoError(t, err)
	quantities, err := s.LoadPiece(ctx, "basic", store.PieceDesiredQuantities)
	require.NoError(t, err)

	assert.Equal(t, []byte(`["red"]`), colors)
	assert.Equal(t, []byte(`{"0":2}`), quantities)
}

func TestPiecesAreScopedPerCourse(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePiece(ctx, "basic", store.PieceColorStates, []byte(`["green"]`)))

	other, err := s.LoadPiece(ctx, "airborne", store.PieceColorStates)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestUpsertPagesRoundTripPreservesOrder(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	records := []model.PageRecord{
		{ID: "home", Level: "0", PageType: "landing", Title: "Home"},
		{ID: "infantry", Parent: "home", Level: "1", PageType: "mos", Title: "Infantry"},
		{ID: "basic", Parent: "infantry", Level: "2", PageType: "course", CourseTitle: "Basic Training"},
	}
	require.NoError(t, s.UpsertPages(ctx, records))

	got, err := s.GetPages(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "home", got[0].ID)
	assert.Equal(t, "infantry", got[1].ID)
	assert.Equal(t, "Basic Training", got[2].CourseTitle)
}

func TestUpsertPagesReplacesWholeTable(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertPages(ctx, []model.PageRecord{
		{ID: "old-a"}, {ID: "old-b"},
	}))
	require.NoError(t, s.UpsertPages(ctx, []model.PageRecord{
		{ID: "new"},
	}))

	got, err := s.GetPages(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestGetPagesEmpty(t *testing.T) {
	s := testutil.NewTestStore(t)

	got, err := s.GetPages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
