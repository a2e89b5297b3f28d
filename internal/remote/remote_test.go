package remote

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/magnetar/internal/api"
	"github.com/talgya/magnetar/internal/engine"
	"github.com/talgya/magnetar/internal/event"
	"github.com/talgya/magnetar/internal/magnetar"
	"github.com/talgya/magnetar/internal/scene"
)

func startServer(t *testing.T) (*api.Server, string) {
	t.Helper()
	sc := scene.New()
	log := event.NewLog(64)
	m, err := magnetar.New(sc, sc.Root(), magnetar.DefaultConfig(), log)
	require.NoError(t, err)
	require.NoError(t, m.AddCell())

	s := &api.Server{
		Shelf:    m,
		Eng:      engine.NewEngine(60),
		Events:   log,
		AdminKey: "key",
		Save:     func() error { return nil },
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts.URL
}

func TestObserver(t *testing.T) {
	_, url := startServer(t)
	o := NewObserver(url)
	ctx := context.Background()

	st, err := o.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "magnetar", st.Name)
	assert.Equal(t, 1, st.Cells)

	snap, err := o.Cells(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Cells, 1)

	events, err := o.Events(ctx, 10, event.CellAdded)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.CellAdded, events[0].Kind)
}

func TestActor(t *testing.T) {
	s, url := startServer(t)
	a := NewActor(url, "key")
	ctx := context.Background()

	cells, err := a.AddCells(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, cells)

	speed, err := a.SetSpeed(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 4.0, speed)
	assert.Equal(t, 4.0, s.Eng.Speed())

	_, err = a.Snapshot(ctx)
	require.NoError(t, err)
}

func TestActorUnauthorized(t *testing.T) {
	_, url := startServer(t)
	_, err := NewActor(url, "wrong").AddCells(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
