package session

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/talgya/magnetar/internal/input"
	"github.com/talgya/magnetar/internal/scene"
)

type trace struct {
	calls  []string
	frames []FrameInfo
}

func (t *trace) Update() { t.calls = append(t.calls, "update") }

func (t *trace) Poll(elapsed, dt float64) input.Frame {
	t.calls = append(t.calls, "poll")
	return input.Frame{input.NewTip("tip", input.Tip{Origin: mgl32.Vec3{0, float32(elapsed), 0}}, 0, nil)}
}

func (t *trace) OnFrame(info FrameInfo) {
	t.calls = append(t.calls, "frame")
	t.frames = append(t.frames, info)
}

func (t *trace) SaveState() State { return State{"k": "v"} }

func TestStepOrder(t *testing.T) {
	s := scene.New()
	tr := &trace{}
	c := Connect(s, s.Root(), tr)
	c.SetSource(tr)
	c.Wrap(tr)

	c.Step(0.5)
	c.Step(0.25)

	assert.Equal(t, []string{"poll", "update", "frame", "poll", "update", "frame"}, tr.calls)
	assert.Equal(t, uint64(2), tr.frames[1].Frame)
	assert.Equal(t, 0.25, tr.frames[1].Delta)
	assert.Equal(t, 0.75, tr.frames[1].Elapsed)
	assert.InDelta(t, 0.75, tr.frames[1].Input[0].InteractPoint().Y(), 1e-6)
	assert.Equal(t, 0.75, c.Elapsed())
	assert.Equal(t, State{"k": "v"}, c.SaveState())
}

func TestDefaults(t *testing.T) {
	s := scene.New()
	c := Connect(s, s.Root(), nil)
	c.SetSource(nil)
	c.Step(0.1)

	assert.Nil(t, c.SaveState())
	assert.Equal(t, s.Root().ID(), c.Root().ID())
	assert.Nil(t, NoInput{}.Poll(0, 0))
}
