package magnetar

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/talgya/magnetar/internal/event"
	"github.com/talgya/magnetar/internal/input"
	"github.com/talgya/magnetar/internal/spatial"
	"github.com/talgya/magnetar/internal/tween"
)

// Grab circle look.
const (
	circleSegments  = 64
	circleRadius    = 0.5
	circleThickness = 0.005
	grabScale       = 0.1
)

// GrabCircle marks where a hovering input touches the shelf surface.
type GrabCircle struct {
	lines  spatial.Lines
	radius float32
}

// NewGrabCircle creates a white marker under parent.
func NewGrabCircle(f spatial.Factory, parent spatial.Node, radius float32) (*GrabCircle, error) {
	points := spatial.Circle(circleSegments, circleRadius, circleThickness, mgl32.Vec4{1, 1, 1, 1})
	lines, err := f.CreateLines(parent, spatial.FromScale(spatial.Uniform(0)), points, true)
	if err != nil {
		return nil, fmt.Errorf("create grab circle: %w", err)
	}
	return &GrabCircle{lines: lines, radius: radius}, nil
}

// Placement computes the marker transform for an input: on the shelf
// surface facing the input, sized by proximity unless grabbing.
func Placement(d input.Data, radius float32, grabbing bool) (pos mgl32.Vec3, rot mgl32.Quat, scale float32) {
	p := d.InteractPoint()
	dir := mgl32.Vec2{p.X(), p.Z()}
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}
	xz := dir.Mul(radius)
	pos = mgl32.Vec3{xz.X(), p.Y(), xz.Y()}
	rot = mgl32.QuatRotate(-angleBetween(mgl32.Vec2{0, 1}, dir), mgl32.Vec3{0, 1, 0})

	if grabbing {
		scale = grabScale
	} else {
		scale = tween.Clamp(tween.MapRange(abs(d.Distance), 0.1, 0.05, 0, grabScale), 0, grabScale)
	}
	return pos, rot, scale
}

// Update moves the marker for this frame's input data.
func (g *GrabCircle) Update(d input.Data, grabbing bool) error {
	pos, rot, scale := Placement(d, g.radius, grabbing)
	return g.lines.SetTransform(spatial.FromPositionRotationScale(pos, rot, spatial.Uniform(scale)))
}

// Lines returns the marker primitive.
func (g *GrabCircle) Lines() spatial.Lines { return g.lines }

// angleBetween returns the signed angle from a to b; zero for a zero vector.
func angleBetween(a, b mgl32.Vec2) float32 {
	den := a.Len() * b.Len()
	if den == 0 {
		return 0
	}
	cos := float64(a.Dot(b) / den)
	angle := math.Acos(math.Max(-1, math.Min(1, cos)))
	if a.X()*b.Y()-a.Y()*b.X() < 0 {
		angle = -angle
	}
	return float32(angle)
}

func (m *Magnetar) updateCircles() {
	for _, d := range m.hover.Stopped() {
		g, ok := m.circles[d.ID]
		if !ok {
			continue
		}
		delete(m.circles, d.ID)
		if err := m.factory.Destroy(g.lines); err != nil {
			slog.Debug("grab circle already gone", "input", d.ID, "error", err)
		}
	}

	for _, d := range m.hover.Started() {
		g, err := NewGrabCircle(m.factory, m.anchor, m.cfg.Radius)
		if err != nil {
			slog.Warn("grab circle not created", "input", d.ID, "error", err)
			continue
		}
		m.circles[d.ID] = g
	}

	actor, acting := m.grab.Actor()
	for _, d := range m.hover.Acting() {
		g, ok := m.circles[d.ID]
		if !ok {
			continue
		}
		if err := g.Update(d, acting && actor.ID == d.ID); err != nil {
			slog.Warn("grab circle transform skipped", "input", d.ID, "error", err)
			m.rec.Record(event.Event{Kind: event.TransformSkipped, Cell: -1, Subject: d.ID})
		}
	}
}

// Circles returns the number of live grab circles.
func (m *Magnetar) Circles() int { return len(m.circles) }
