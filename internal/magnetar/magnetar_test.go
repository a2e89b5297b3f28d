package magnetar

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/magnetar/internal/event"
	"github.com/talgya/magnetar/internal/input"
	"github.com/talgya/magnetar/internal/scene"
)

const frameDt = 1.0 / 60

type rig struct {
	scene *scene.Scene
	shelf *Magnetar
	log   *event.Log
}

func newRig(t *testing.T, cells int) *rig {
	t.Helper()
	s := scene.New()
	log := event.NewLog(256)
	m, err := New(s, s.Root(), DefaultConfig(), log)
	require.NoError(t, err)
	for i := 0; i < cells; i++ {
		require.NoError(t, m.AddCell())
	}
	for i := 0; i < 3; i++ {
		m.Tick(0.25, nil)
	}
	return &rig{scene: s, shelf: m, log: log}
}

func (r *rig) rootY(t *testing.T) float32 {
	t.Helper()
	n, ok := r.shelf.Root().(*scene.Node)
	require.True(t, ok)
	return n.Position().Y()
}

func (r *rig) count(k event.Kind) int {
	n := 0
	for _, e := range r.log.Recent(0) {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func hand(id string, y, strength, distance float32) input.Data {
	return input.NewHand(id, input.Hand{Palm: input.Joint{Position: mgl32.Vec3{0, y, 0.98}}}, distance,
		input.Datamap{input.FieldGrabStrength: strength})
}

func tip(id string, y, grab, distance float32, scroll float32) input.Data {
	return input.NewTip(id, input.Tip{Origin: mgl32.Vec3{0.99, y, 0}}, distance,
		input.Datamap{input.FieldGrab: grab, input.FieldScroll: mgl32.Vec2{0, scroll}})
}

func TestDragMovesStackAndCommitsOnRelease(t *testing.T) {
	r := newRig(t, 2)
	m := r.shelf

	m.Tick(frameDt, input.Frame{hand("h", 2.0, 1, 0.5)})
	assert.InDelta(t, 2.0, m.YOffset(), 1e-6)
	assert.InDelta(t, 0, m.YPosTmp(), 1e-6)
	for _, c := range m.Cells() {
		assert.False(t, c.Active(), "cells are suppressed while dragging")
	}

	m.Tick(frameDt, input.Frame{hand("h", 2.5, 1, 0.5)})
	assert.InDelta(t, 0.5, m.YPosTmp(), 1e-6)
	assert.InDelta(t, 0.5, r.rootY(t), 1e-6)
	assert.InDelta(t, 0, m.YPos(), 1e-6)
	for _, c := range m.Cells() {
		assert.False(t, c.Active())
	}

	m.Tick(frameDt, input.Frame{hand("h", 2.5, 0.2, 0.5)})
	assert.InDelta(t, 0.5, m.YPos(), 1e-6)
	for _, c := range m.Cells() {
		assert.True(t, c.Active())
	}
	_, dragging := m.Actor()
	assert.False(t, dragging)
	assert.Equal(t, 1, r.count(event.GrabStarted))
	assert.Equal(t, 1, r.count(event.GrabStopped))
}

func TestDragStartDoesNotJump(t *testing.T) {
	r := newRig(t, 1)
	m := r.shelf
	require.NoError(t, m.Restore(SavedState{YPos: 1.5, Cells: 1}))

	for i := 0; i < 5; i++ {
		m.Tick(frameDt, input.Frame{hand("h", 3.0, 1, 0.5)})
		assert.InDelta(t, 1.5, m.YPosTmp(), 1e-6)
	}
}

func TestSecondActorDoesNotPreempt(t *testing.T) {
	r := newRig(t, 1)
	m := r.shelf

	m.Tick(frameDt, input.Frame{hand("a", 1.0, 1, 0.5)})
	m.Tick(frameDt, input.Frame{hand("a", 1.2, 1, 0.5), tip("b", 4.0, 1, 0.5, 0)})
	actor, ok := m.Actor()
	require.True(t, ok)
	assert.Equal(t, "a", actor)
	assert.InDelta(t, 0.2, m.YPosTmp(), 1e-6)

	m.Tick(frameDt, input.Frame{hand("a", 1.3, 1, 0.5), tip("b", 9.0, 1, 0.5, 0)})
	assert.InDelta(t, 0.3, m.YPosTmp(), 1e-6)
	assert.Equal(t, 1, r.count(event.GrabStarted))
}

func TestPointerUsesDeepestPoint(t *testing.T) {
	r := newRig(t, 1)
	m := r.shelf
	ptr := func(y float32) input.Data {
		return input.NewPointer("p", input.Pointer{
			Origin:       mgl32.Vec3{0, 10, 5},
			DeepestPoint: mgl32.Vec3{0, y, 1},
		}, 0.5, input.Datamap{input.FieldGrab: float32(1)})
	}

	m.Tick(frameDt, input.Frame{ptr(0.5)})
	m.Tick(frameDt, input.Frame{ptr(0.25)})
	assert.InDelta(t, -0.25, m.YPosTmp(), 1e-6)
}

func TestScrollDuringDragKeepsRenderedOffset(t *testing.T) {
	r := newRig(t, 1)
	m := r.shelf

	m.Tick(frameDt, input.Frame{hand("h", 2.0, 1, 0.5)})
	m.Tick(frameDt, input.Frame{hand("h", 2.3, 1, 0.5)})
	require.InDelta(t, 0.3, m.YPosTmp(), 1e-6)

	m.Tick(frameDt, input.Frame{hand("h", 2.3, 1, 0.5), tip("s", 0, 0, 0.01, 1)})
	assert.InDelta(t, 0.3, m.YPosTmp(), 1e-6)
	assert.InDelta(t, 0.3, r.rootY(t), 1e-6)
	assert.InDelta(t, 0.1, m.YPos(), 1e-6)
	assert.InDelta(t, 2.1, m.YOffset(), 1e-6)

	m.Tick(frameDt, input.Frame{hand("h", 2.3, 1, 0.5)})
	assert.InDelta(t, 0.3, m.YPosTmp(), 1e-6)

	m.Tick(frameDt, input.Frame{hand("h", 2.3, 0, 0.5)})
	assert.InDelta(t, 0.3, m.YPos(), 1e-6)
}

func TestScrollNudgesIdleStack(t *testing.T) {
	r := newRig(t, 1)
	m := r.shelf

	m.Tick(frameDt, input.Frame{tip("s", 0, 0, 0.01, 2), tip("t", 0, 0, -0.02, 1)})
	assert.InDelta(t, 0.3, m.YPos(), 1e-6)
	assert.InDelta(t, 0.3, m.YPosTmp(), 1e-6)
	assert.InDelta(t, 0.3, r.rootY(t), 1e-6)

	m.Tick(frameDt, input.Frame{tip("s", 0, 0, 0.01, 1e-9)})
	assert.InDelta(t, 0.3, m.YPos(), 1e-6)

	m.Tick(frameDt, input.Frame{tip("far", 0, 0, 0.5, 5)})
	assert.InDelta(t, 0.3, m.YPos(), 1e-6, "only hovering inputs scroll")
}

func TestQueuedDuringDragCapturedAfterRelease(t *testing.T) {
	r := newRig(t, 1)
	m := r.shelf
	c := m.Cells()[0]

	m.Tick(frameDt, input.Frame{hand("h", 2.0, 1, 0.5)})
	r.scene.AddObject("mug", mgl32.Vec3{0, 0, 0})
	r.scene.Update()
	assert.Equal(t, []string{"mug"}, c.Pending())

	m.Tick(frameDt, input.Frame{hand("h", 2.0, 1, 0.5)})
	assert.Equal(t, []string{"mug"}, c.Pending())
	assert.Empty(t, c.Held())

	m.Tick(frameDt, input.Frame{hand("h", 2.0, 0, 0.5)})
	assert.True(t, c.Active())
	assert.Equal(t, []string{"mug"}, c.Pending(), "admission waits for the next tick")

	m.Tick(frameDt, nil)
	assert.Empty(t, c.Pending())
	assert.Equal(t, []string{"mug"}, c.Held())
	assert.Equal(t, 1, r.count(event.ObjectCaptured))
}

func TestCapturedObjectsMoveWithStack(t *testing.T) {
	r := newRig(t, 1)
	m := r.shelf

	r.scene.AddObject("mug", mgl32.Vec3{0, 0.1, 0})
	r.scene.Update()
	require.Equal(t, []string{"mug"}, m.Cells()[0].Held())

	m.Tick(frameDt, input.Frame{hand("h", 1.0, 1, 0.5)})
	m.Tick(frameDt, input.Frame{hand("h", 1.5, 1, 0.5)})

	obj, ok := r.scene.Object("mug")
	require.True(t, ok)
	assert.InDelta(t, 0.6, obj.WorldPosition().Y(), 1e-5)
}

func TestAddCellStacksDownwardAndGrowsField(t *testing.T) {
	r := newRig(t, 3)
	m := r.shelf

	for i, c := range m.Cells() {
		n, ok := c.Root().(*scene.Node)
		require.True(t, ok)
		assert.InDelta(t, -float32(i), n.Position().Y(), 1e-6)
	}

	f, ok := m.Field().(*scene.Field)
	require.True(t, ok)
	length, radius := f.Size()
	assert.InDelta(t, 3, length, 1e-6)
	assert.InDelta(t, 1, radius, 1e-6)
	assert.InDelta(t, -1, f.Position().Y(), 1e-6)
	assert.Less(t, f.Distance(mgl32.Vec3{0, -2.4, 0}), float32(0))
	assert.Greater(t, f.Distance(mgl32.Vec3{0, 0.6, 0}), float32(0))
	assert.Equal(t, 3, r.count(event.CellAdded))
}

func TestCellAddedDuringDragStaysSuppressed(t *testing.T) {
	r := newRig(t, 1)
	m := r.shelf

	m.Tick(frameDt, input.Frame{hand("h", 1, 1, 0.5)})
	require.NoError(t, m.AddCell())
	for i := 0; i < 3; i++ {
		m.Tick(0.25, input.Frame{hand("h", 1, 1, 0.5)})
	}
	assert.False(t, m.Cells()[1].Active())

	m.Tick(frameDt, input.Frame{hand("h", 1, 0, 0.5)})
	assert.True(t, m.Cells()[1].Active())
}

func TestGrabCirclesFollowHoveringInputs(t *testing.T) {
	r := newRig(t, 1)
	m := r.shelf

	m.Tick(frameDt, input.Frame{tip("t", 0.2, 0, 0.01, 0), tip("far", 0, 0, 0.5, 0)})
	assert.Equal(t, 1, m.Circles())
	circles := r.scene.LinesUnder(r.scene.Root())
	require.Len(t, circles, 1)
	assert.InDelta(t, 1.0, circles[0].Position().X(), 1e-5)
	assert.InDelta(t, 0.2, circles[0].Position().Y(), 1e-5)

	m.Tick(frameDt, input.Frame{tip("t", 0.2, 0, 0.2, 0)})
	assert.Zero(t, m.Circles())
	assert.Empty(t, r.scene.LinesUnder(r.scene.Root()))
}

func TestPlacementScale(t *testing.T) {
	d := input.NewTip("t", input.Tip{Origin: mgl32.Vec3{0, 1, 2}}, 0.075, nil)

	pos, _, scale := Placement(d, 1, false)
	assert.InDelta(t, 0, pos.X(), 1e-6)
	assert.InDelta(t, 1, pos.Y(), 1e-6)
	assert.InDelta(t, 1, pos.Z(), 1e-6)
	assert.InDelta(t, 0.05, scale, 1e-6)

	_, _, scale = Placement(d, 1, true)
	assert.InDelta(t, 0.1, scale, 1e-6)

	d.Distance = 0.01
	_, _, scale = Placement(d, 1, false)
	assert.InDelta(t, 0.1, scale, 1e-6)
}

func TestSaveStateRoundTripsThroughSessionState(t *testing.T) {
	r := newRig(t, 2)
	m := r.shelf
	require.NoError(t, m.Restore(SavedState{YPos: -0.75, Cells: 2}))

	st, err := ParseState(m.SaveState())
	require.NoError(t, err)
	assert.Equal(t, SavedState{YPos: -0.75, Cells: 2}, st)

	_, err = ParseState(map[string]string{"cells": "-1"})
	assert.Error(t, err)
}

func TestTransformFailureDoesNotAbortTick(t *testing.T) {
	r := newRig(t, 1)
	m := r.shelf
	require.NoError(t, r.scene.Destroy(m.Root()))

	assert.NotPanics(t, func() {
		m.Tick(frameDt, input.Frame{hand("h", 1, 1, 0.5)})
		m.Tick(frameDt, input.Frame{hand("h", 2, 1, 0.5)})
	})
	assert.InDelta(t, 1, m.YPosTmp(), 1e-6)
	assert.GreaterOrEqual(t, r.count(event.TransformSkipped), 2)
}

func TestSnapshotReportsDrag(t *testing.T) {
	r := newRig(t, 1)
	m := r.shelf
	m.Tick(frameDt, input.Frame{hand("h", 1, 1, 0.01)})

	snap := m.Snapshot()
	assert.True(t, snap.Dragging)
	assert.Equal(t, "h", snap.Actor)
	assert.Equal(t, 1, snap.Hovering)
	require.Len(t, snap.Cells, 1)
	assert.Equal(t, "idle", snap.Cells[0].BottomRing)
	assert.False(t, snap.Cells[0].Active)
}

func TestBoundaryObjectCapturedByOneCell(t *testing.T) {
	s := scene.New()
	log := event.NewLog(256)
	m, err := New(s, s.Root(), DefaultConfig(), log)
	require.NoError(t, err)
	require.NoError(t, m.AddCell())
	require.NoError(t, m.AddCell())
	r := &rig{scene: s, shelf: m, log: log}

	s.AddObject("o", mgl32.Vec3{0, -0.5, 0})
	s.Update()
	c0, c1 := m.Cells()[0], m.Cells()[1]
	require.Equal(t, []string{"o"}, c0.Pending())
	require.Equal(t, []string{"o"}, c1.Pending())

	for i := 0; i < 3; i++ {
		m.Tick(0.25, nil)
	}
	s.Update()

	assert.Equal(t, 1, r.count(event.ObjectCaptured))
	assert.Zero(t, r.count(event.ObjectReleased))
	assert.Equal(t, []string{"o"}, c0.Held())
	assert.Empty(t, c1.Held())
	assert.Empty(t, c1.Pending())
}

func TestRemovedObjectLeavesSnapshot(t *testing.T) {
	r := newRig(t, 2)
	m := r.shelf

	r.scene.AddObject("pen", mgl32.Vec3{0, -1.1, 0})
	r.scene.Update()
	require.Equal(t, []string{"pen"}, m.Cells()[1].Held())

	require.NoError(t, r.scene.RemoveObject("pen"))
	r.scene.Update()
	m.Tick(frameDt, nil)

	for _, c := range m.Snapshot().Cells {
		assert.Empty(t, c.Held)
		assert.Empty(t, c.Pending)
	}
	assert.Equal(t, 1, r.count(event.ObjectReleased))
}
