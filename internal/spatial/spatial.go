// Package spatial defines the primitive layer the shelf is built from:
// positionable nodes, cylinder fields, line loops and capture zones.
// Implementations live elsewhere (see internal/scene for the headless one).
package spatial

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNodeDestroyed is returned when a node was removed from the scene.
	ErrNodeDestroyed = errors.New("node destroyed")
	// ErrUnknownObject is returned when a zone is asked to capture an id it never saw.
	ErrUnknownObject = errors.New("unknown object")
	// ErrAlreadyCaptured is returned when another zone holds the object.
	ErrAlreadyCaptured = errors.New("object held by another zone")
)

// Transform is a partial local transform. Nil fields are left unchanged.
type Transform struct {
	Position *mgl32.Vec3
	Rotation *mgl32.Quat
	Scale    *mgl32.Vec3
}

// FromPosition builds a transform that only moves a node.
func FromPosition(p mgl32.Vec3) Transform {
	return Transform{Position: &p}
}

// FromRotation builds a transform that only rotates a node.
func FromRotation(r mgl32.Quat) Transform {
	return Transform{Rotation: &r}
}

// FromScale builds a transform that only scales a node.
func FromScale(s mgl32.Vec3) Transform {
	return Transform{Scale: &s}
}

// FromPositionRotationScale builds a full transform.
func FromPositionRotationScale(p mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) Transform {
	return Transform{Position: &p, Rotation: &r, Scale: &s}
}

// Uniform returns a vector with all components set to v.
func Uniform(v float32) mgl32.Vec3 {
	return mgl32.Vec3{v, v, v}
}

// Node is a positionable element of the scene graph.
type Node interface {
	ID() string
	SetTransform(t Transform) error
}

// Field is a cylinder volume, axis along its local Z.
type Field interface {
	Node
	SetSize(length, radius float32) error
}

// Lines is a renderable line primitive.
type Lines interface {
	Node
}

// Zone detects objects crossing a field and can take ownership of them.
type Zone interface {
	Node
	Capture(uid string) error
}

// ZoneHandler receives zone membership callbacks.
type ZoneHandler interface {
	Enter(zone Zone, uid string, obj Node)
	Capture(zone Zone, uid string, obj Node)
	Release(zone Zone, uid string)
	Leave(zone Zone, uid string)
}

// LinePoint is one vertex of a line primitive.
type LinePoint struct {
	Point     mgl32.Vec3
	Thickness float32
	Color     mgl32.Vec4
}

// Factory creates primitives. Creation failures are fatal to the caller.
type Factory interface {
	CreateSpatial(parent Node, t Transform, zoneable bool) (Node, error)
	CreateCylinderField(parent Node, t Transform, length, radius float32) (Field, error)
	CreateLines(parent Node, t Transform, points []LinePoint, cyclic bool) (Lines, error)
	CreateZone(parent Node, field Field, handler ZoneHandler) (Zone, error)
	Destroy(n Node) error
}
