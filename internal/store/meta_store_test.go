package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetaStoreSetInsertsThenUpdates(t *testing.T) {
	connStr := getTestDatabaseURL(t)
	db := setupTestDatabase(t, connStr)
	metaStore := NewMetaStore(db)
	ctx := context.Background()

	err := metaStore.Set(ctx, 101, "_searchlight_title", "Welcome")
	require.NoError(t, err)

	record, err := metaStore.Get(ctx, 101, "_searchlight_title")
	require.NoError(t, err)
	require.Equal(t, "Welcome", record.MetaValue)

	err = metaStore.Set(ctx, 101, "_searchlight_title", "Welcome Back")
	require.NoError(t, err)

	updated, err := metaStore.Get(ctx, 101, "_searchlight_title")
	require.NoError(t, err)
	require.Equal(t, "Welcome Back", updated.MetaValue)
	require.Equal(t, record.MetaID, updated.MetaID, "update should reuse the existing row")
}

func TestMetaStoreGetReturnsLowestMetaID(t *testing.T) {
	connStr := getTestDatabaseURL(t)
	db := setupTestDatabase(t, connStr)
	metaStore := NewMetaStore(db)
	ctx := context.Background()

	firstID := insertMetaRow(t, db, 55, "_searchlight_metadesc", "first")
	insertMetaRow(t, db, 55, "_searchlight_metadesc", "second")

	record, err := metaStore.Get(ctx, 55, "_searchlight_metadesc")
	require.NoError(t, err)
	require.Equal(t, firstID, record.MetaID)
	require.Equal(t, "first", record.MetaValue)
}

func TestMetaStoreGetNotFound(t *testing.T) {
	connStr := getTestDatabaseURL(t)
	db := setupTestDatabase(t, connStr)
	metaStore := NewMetaStore(db)

	_, err := metaStore.Get(context.Background(), 999, "_searchlight_title")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMetaStoreListByEntityOrdersByKey(t *testing.T) {
	connStr := getTestDatabaseURL(t)
	db := setupTestDatabase(t, connStr)
	metaStore := NewMetaStore(db)
	ctx := context.Background()

	insertMetaRow(t, db, 7, "_searchlight_title", "Title")
	insertMetaRow(t, db, 7, "_searchlight_metadesc", "Description")
	insertMetaRow(t, db, 8, "_searchlight_title", "Other Entity")

	records, err := metaStore.ListByEntity(ctx, 7)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "_searchlight_metadesc", records[0].MetaKey)
	require.Equal(t, "_searchlight_title", records[1].MetaKey)
}

func TestMetaStoreListByKeyWalksEntities(t *testing.T) {
	connStr := getTestDatabaseURL(t)
	db := setupTestDatabase(t, connStr)
	metaStore := NewMetaStore(db)
	ctx := context.Background()

	insertMetaRow(t, db, 3, "_seotk_social", `{"title":"A"}`)
	insertMetaRow(t, db, 1, "_seotk_social", `{"title":"B"}`)
	insertMetaRow(t, db, 2, "_other_key", "ignored")

	records, err := metaStore.ListByKey(ctx, "_seotk_social")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, int64(1), records[0].EntityID)
	require.Equal(t, int64(3), records[1].EntityID)
}

func TestMetaStoreCountMatchingEscapedPattern(t *testing.T) {
	connStr := getTestDatabaseURL(t)
	db := setupTestDatabase(t, connStr)
	metaStore := NewMetaStore(db)
	ctx := context.Background()

	insertMetaRow(t, db, 1, "_seotk_title", "Hello")
	insertMetaRow(t, db, 2, "_seotk_description", "World")
	// An unescaped underscore would also match this row.
	insertMetaRow(t, db, 3, "xseotkxtitle", "decoy")

	count, err := metaStore.CountMatching(ctx, `\_seotk\_%`)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestMetaStoreDeleteMatchingMultiplePatterns(t *testing.T) {
	connStr := getTestDatabaseURL(t)
	db := setupTestDatabase(t, connStr)
	metaStore := NewMetaStore(db)
	ctx := context.Background()

	insertMetaRow(t, db, 1, "_seotk_title", "Hello")
	insertMetaRow(t, db, 1, "_seotk_extra_settings", "x")
	insertMetaRow(t, db, 1, "_searchlight_title", "Keep Me")

	deleted, err := metaStore.DeleteMatching(ctx, `\_seotk\_%`, `\_seotk\_extra\_%`)
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	remaining, err := metaStore.ListByEntity(ctx, 1)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "_searchlight_title", remaining[0].MetaKey)
}

func TestMetaStoreDeleteScopedToEntityAndKey(t *testing.T) {
	connStr := getTestDatabaseURL(t)
	db := setupTestDatabase(t, connStr)
	metaStore := NewMetaStore(db)
	ctx := context.Background()

	insertMetaRow(t, db, 1, "_searchlight_title", "Mine")
	insertMetaRow(t, db, 2, "_searchlight_title", "Theirs")

	deleted, err := metaStore.Delete(ctx, 1, "_searchlight_title")
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	_, err = metaStore.Get(ctx, 1, "_searchlight_title")
	require.ErrorIs(t, err, ErrNotFound)

	record, err := metaStore.Get(ctx, 2, "_searchlight_title")
	require.NoError(t, err)
	require.Equal(t, "Theirs", record.MetaValue)
}

func TestMetaStoreRejectsInvalidInput(t *testing.T) {
	connStr := getTestDatabaseURL(t)
	db := setupTestDatabase(t, connStr)
	metaStore := NewMetaStore(db)
	ctx := context.Background()

	_, err := metaStore.Get(ctx, 0, "_searchlight_title")
	require.Error(t, err)

	err = metaStore.Set(ctx, 1, "  ", "value")
	require.Error(t, err)

	_, err = metaStore.CountMatching(ctx, "")
	require.Error(t, err)

	_, err = metaStore.DeleteMatching(ctx, "", "  ")
	require.Error(t, err)
}
