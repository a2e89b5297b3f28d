package input

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grabbing(d Data) bool { return d.Datamap.Float(FieldGrab) > 0.9 }

func tip(id string, grab float32) Data {
	return NewTip(id, Tip{Origin: mgl32.Vec3{0, 1, 0}}, 0, Datamap{FieldGrab: grab})
}

func TestSingleActorDoesNotPreempt(t *testing.T) {
	s := NewSingleActor(grabbing)

	s.Update(Frame{tip("a", 1), tip("b", 0)})
	require.True(t, s.Started())
	actor, ok := s.Actor()
	require.True(t, ok)
	assert.Equal(t, "a", actor.ID)

	s.Update(Frame{tip("a", 1), tip("b", 1)})
	assert.False(t, s.Started())
	actor, _ = s.Actor()
	assert.Equal(t, "a", actor.ID)

	s.Update(Frame{tip("b", 1)})
	assert.True(t, s.Stopped())
	assert.False(t, s.Acting())
	assert.Equal(t, "a", s.LastActor().ID)

	s.Update(Frame{tip("b", 1)})
	assert.True(t, s.Started())
	actor, _ = s.Actor()
	assert.Equal(t, "b", actor.ID)
}

func TestSingleActorStopsWhenPredicateFails(t *testing.T) {
	s := NewSingleActor(grabbing)
	s.Update(Frame{tip("a", 1)})
	s.Update(Frame{tip("a", 0.5)})
	assert.True(t, s.Stopped())
	assert.False(t, s.Started())
	_, ok := s.Actor()
	assert.False(t, ok)
}

func TestActionTracksStartAndStop(t *testing.T) {
	a := NewAction(grabbing)

	a.Update(Frame{tip("a", 1), tip("b", 0)})
	assert.Len(t, a.Started(), 1)
	assert.Len(t, a.Acting(), 1)
	assert.True(t, a.IsActing("a"))

	a.Update(Frame{tip("a", 1), tip("b", 1)})
	require.Len(t, a.Started(), 1)
	assert.Equal(t, "b", a.Started()[0].ID)
	assert.Len(t, a.Acting(), 2)

	a.Update(Frame{tip("b", 1)})
	require.Len(t, a.Stopped(), 1)
	assert.Equal(t, "a", a.Stopped()[0].ID)
	assert.False(t, a.IsActing("a"))
}

func TestInteractPointByKind(t *testing.T) {
	p := NewPointer("p", Pointer{DeepestPoint: mgl32.Vec3{1, 2, 3}}, 0, nil)
	h := NewHand("h", Hand{Palm: Joint{Position: mgl32.Vec3{4, 5, 6}}}, 0, nil)
	tp := NewTip("t", Tip{Origin: mgl32.Vec3{7, 8, 9}}, 0, nil)

	assert.Equal(t, mgl32.Vec3{1, 2, 3}, p.InteractPoint())
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, h.InteractPoint())
	assert.Equal(t, mgl32.Vec3{7, 8, 9}, tp.InteractPoint())
}

func TestDatamapReadsLooseTypes(t *testing.T) {
	dm := Datamap{
		FieldGrab:         0.95,
		FieldGrabStrength: float32(0.5),
		FieldScroll:       []float64{0, 2},
	}
	assert.InDelta(t, 0.95, dm.Float(FieldGrab), 1e-6)
	assert.InDelta(t, 0.5, dm.Float(FieldGrabStrength), 1e-6)
	assert.Equal(t, mgl32.Vec2{0, 2}, dm.Vector(FieldScroll))
	assert.Zero(t, dm.Float("missing"))
}
