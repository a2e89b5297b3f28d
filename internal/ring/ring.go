// Package ring animates the circular boundary indicators of a cell.
package ring

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/talgya/magnetar/internal/spatial"
	"github.com/talgya/magnetar/internal/tween"
)

// Materialize timing and look.
const (
	RezDuration = 0.25
	MinScale    = 0.02
	Segments    = 128
	Thickness   = 0.01
)

// Color is the ring's line colour.
var Color = mgl32.Vec4{0.392156863, 0, 1, 1}

// Phase is the appearance state of a ring.
type Phase uint8

const (
	Rezzing Phase = iota
	Idle
	Derezzing
	Derezzed
)

func (p Phase) String() string {
	switch p {
	case Rezzing:
		return "rezzing"
	case Idle:
		return "idle"
	case Derezzing:
		return "derezzing"
	case Derezzed:
		return "derezzed"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Ring is a line loop that rises to its height, then widens to its radius.
type Ring struct {
	lines  spatial.Lines
	phase  Phase
	height float32
	radius float32

	heightTween *tween.Tween
	scaleTween  *tween.Tween
}

// New creates a ring under parent, starting in Rezzing.
func New(f spatial.Factory, parent spatial.Node, height, radius float32) (*Ring, error) {
	rot := mgl32.QuatRotate(math.Pi*0.5, mgl32.Vec3{1, 0, 0})
	points := spatial.Circle(Segments, 1, Thickness, Color)
	lines, err := f.CreateLines(parent, spatial.Transform{
		Rotation: &rot,
		Scale:    ptr(spatial.Uniform(MinScale)),
	}, points, true)
	if err != nil {
		return nil, fmt.Errorf("create ring lines: %w", err)
	}

	return &Ring{
		lines:       lines,
		phase:       Rezzing,
		height:      height,
		radius:      radius,
		heightTween: tween.New(0, height, RezDuration, tween.QuadIn),
		scaleTween:  tween.New(MinScale, radius, RezDuration, tween.QuadOut),
	}, nil
}

// Advance steps the appearance state machine by dt and returns the phase.
func (r *Ring) Advance(dt float64) Phase {
	if r.phase != Rezzing {
		return r.phase
	}

	if height, ok := r.heightTween.Update(dt); ok {
		r.apply(spatial.FromPosition(mgl32.Vec3{0, height, 0}))
	} else if scale, ok := r.scaleTween.Update(dt); ok {
		r.apply(spatial.FromScale(spatial.Uniform(scale)))
	} else {
		r.phase = Idle
	}
	return r.phase
}

func (r *Ring) apply(t spatial.Transform) {
	if err := r.lines.SetTransform(t); err != nil {
		slog.Warn("ring transform skipped", "lines", r.lines.ID(), "error", err)
	}
}

// Phase returns the current phase.
func (r *Ring) Phase() Phase { return r.phase }

// Height returns the target height.
func (r *Ring) Height() float32 { return r.height }

// Radius returns the target radius.
func (r *Ring) Radius() float32 { return r.radius }

// Lines returns the underlying primitive.
func (r *Ring) Lines() spatial.Lines { return r.lines }

func ptr[T any](v T) *T { return &v }
