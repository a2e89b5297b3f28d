// Package input describes the per-frame input the shelf reacts to:
// pointers, hands and tips, each with a signed distance to the shelf and a
// datamap of named scalar and vector fields.
package input

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind tags which variant an input carries.
type Kind uint8

const (
	KindPointer Kind = iota
	KindHand
	KindTip
)

func (k Kind) String() string {
	switch k {
	case KindPointer:
		return "pointer"
	case KindHand:
		return "hand"
	case KindTip:
		return "tip"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a name back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "pointer":
		return KindPointer, nil
	case "hand":
		return KindHand, nil
	case "tip":
		return KindTip, nil
	}
	return 0, fmt.Errorf("unknown input kind %q", s)
}

// Pointer is a ray input.
type Pointer struct {
	Origin       mgl32.Vec3
	Direction    mgl32.Vec3
	DeepestPoint mgl32.Vec3
}

// Joint is a tracked hand joint.
type Joint struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// Hand is a tracked hand.
type Hand struct {
	Right bool
	Palm  Joint
}

// Tip is a controller or fingertip point input.
type Tip struct {
	Origin      mgl32.Vec3
	Orientation mgl32.Quat
}

// Data is one input as seen by the shelf this frame. Exactly one of
// Pointer, Hand or Tip is set, matching Kind.
type Data struct {
	ID       string
	Kind     Kind
	Pointer  *Pointer
	Hand     *Hand
	Tip      *Tip
	Distance float32
	Datamap  Datamap
}

// Frame is the latched input set for one tick, in delivery order.
type Frame []Data

// InteractPoint returns the point an input acts through.
func (d Data) InteractPoint() mgl32.Vec3 {
	switch d.Kind {
	case KindPointer:
		if d.Pointer != nil {
			return d.Pointer.DeepestPoint
		}
	case KindHand:
		if d.Hand != nil {
			return d.Hand.Palm.Position
		}
	case KindTip:
		if d.Tip != nil {
			return d.Tip.Origin
		}
	}
	return mgl32.Vec3{}
}

// NewPointer builds pointer input data.
func NewPointer(id string, p Pointer, distance float32, dm Datamap) Data {
	return Data{ID: id, Kind: KindPointer, Pointer: &p, Distance: distance, Datamap: dm}
}

// NewHand builds hand input data.
func NewHand(id string, h Hand, distance float32, dm Datamap) Data {
	return Data{ID: id, Kind: KindHand, Hand: &h, Distance: distance, Datamap: dm}
}

// NewTip builds tip input data.
func NewTip(id string, t Tip, distance float32, dm Datamap) Data {
	return Data{ID: id, Kind: KindTip, Tip: &t, Distance: distance, Datamap: dm}
}
