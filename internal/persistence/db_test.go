package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/magnetar/internal/event"
	"github.com/talgya/magnetar/internal/session"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "shelf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestShelfRoundTrip(t *testing.T) {
	db := openTemp(t)
	assert.False(t, db.HasShelfState())

	state, frame, err := db.LoadShelf()
	require.NoError(t, err)
	assert.Empty(t, state)
	assert.Zero(t, frame)

	require.NoError(t, db.SaveShelf(session.State{"y_pos": "0.5", "cells": "3"}, 42))
	assert.True(t, db.HasShelfState())

	state, frame, err = db.LoadShelf()
	require.NoError(t, err)
	assert.Equal(t, session.State{"y_pos": "0.5", "cells": "3"}, state)
	assert.Equal(t, uint64(42), frame)
}

func TestSaveShelfReplacesOldKeys(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, db.SaveShelf(session.State{"y_pos": "1", "stale": "x"}, 1))
	require.NoError(t, db.SaveShelf(session.State{"y_pos": "2"}, 2))

	state, frame, err := db.LoadShelf()
	require.NoError(t, err)
	assert.Equal(t, session.State{"y_pos": "2"}, state)
	assert.Equal(t, uint64(2), frame)
}

func TestMetaSurvivesShelfSave(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, db.SaveMeta("scenario", "demo"))
	require.NoError(t, db.SaveShelf(session.State{"cells": "1"}, 7))

	v, err := db.GetMeta("scenario")
	require.NoError(t, err)
	assert.Equal(t, "demo", v)
}

func TestEvents(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, db.SaveEvents(nil))

	require.NoError(t, db.SaveEvents([]event.Event{
		{Frame: 1, Kind: event.CellAdded, Cell: 0},
		{Frame: 2, Kind: event.ObjectCaptured, Cell: 0, Subject: "mug"},
		{Frame: 3, Kind: event.Scrolled, Cell: -1, Value: 0.25},
	}))

	got, err := db.RecentEvents(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, event.Scrolled, got[0].Kind)
	assert.InDelta(t, 0.25, got[0].Value, 1e-6)
	assert.Equal(t, "mug", got[1].Subject)
	assert.Equal(t, uint64(2), got[1].Frame)

	removed, err := db.PruneEvents(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	got, err = db.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, event.Scrolled, got[0].Kind)
}
