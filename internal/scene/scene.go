// Package scene is a headless, in-memory implementation of the spatial
// primitive layer. It keeps a node tree with local transforms, resolves
// world matrices, and turns free objects crossing zone fields into
// enter/leave callbacks.
package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/talgya/magnetar/internal/spatial"
)

// Scene owns every node created through it. It is not safe for concurrent
// use; callers serialize access the same way they serialize frames.
type Scene struct {
	root    *Node
	nodes   map[string]*Node
	zones   []*Zone
	lines   []*Lines
	objects []*Node
	byUID   map[string]*Node
}

// New creates an empty scene with a root node.
func New() *Scene {
	s := &Scene{
		nodes: make(map[string]*Node),
		byUID: make(map[string]*Node),
	}
	s.root = s.newNode(nil, spatial.Transform{}, false)
	return s
}

// Root returns the client root node.
func (s *Scene) Root() *Node { return s.root }

// Node is a scene graph node.
type Node struct {
	scene     *Scene
	id        string
	parent    *Node
	position  mgl32.Vec3
	rotation  mgl32.Quat
	scale     mgl32.Vec3
	zoneable  bool
	destroyed bool

	capturedBy *Zone
}

func (s *Scene) newNode(parent *Node, t spatial.Transform, zoneable bool) *Node {
	n := &Node{
		scene:    s,
		id:       uuid.NewString(),
		parent:   parent,
		rotation: mgl32.QuatIdent(),
		scale:    spatial.Uniform(1),
		zoneable: zoneable,
	}
	n.apply(t)
	s.nodes[n.id] = n
	return n
}

// ID returns the node identifier.
func (n *Node) ID() string { return n.id }

// SetTransform updates the node's local transform.
func (n *Node) SetTransform(t spatial.Transform) error {
	if !n.Alive() {
		return fmt.Errorf("set transform %s: %w", n.id, spatial.ErrNodeDestroyed)
	}
	n.apply(t)
	return nil
}

func (n *Node) apply(t spatial.Transform) {
	if t.Position != nil {
		n.position = *t.Position
	}
	if t.Rotation != nil {
		n.rotation = *t.Rotation
	}
	if t.Scale != nil {
		n.scale = *t.Scale
	}
}

// Alive reports whether neither the node nor any ancestor was destroyed.
func (n *Node) Alive() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.destroyed {
			return false
		}
	}
	return true
}

// Position returns the local position.
func (n *Node) Position() mgl32.Vec3 { return n.position }

// Rotation returns the local rotation.
func (n *Node) Rotation() mgl32.Quat { return n.rotation }

// Scale returns the local scale.
func (n *Node) Scale() mgl32.Vec3 { return n.scale }

// Parent returns the parent node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Local returns the local transform matrix.
func (n *Node) Local() mgl32.Mat4 {
	t := mgl32.Translate3D(n.position.X(), n.position.Y(), n.position.Z())
	r := n.rotation.Normalize().Mat4()
	sc := mgl32.Scale3D(n.scale.X(), n.scale.Y(), n.scale.Z())
	return t.Mul4(r).Mul4(sc)
}

// World returns the node-to-world matrix.
func (n *Node) World() mgl32.Mat4 {
	if n.parent == nil {
		return n.Local()
	}
	return n.parent.World().Mul4(n.Local())
}

// WorldPosition returns the node origin in world space.
func (n *Node) WorldPosition() mgl32.Vec3 {
	return mgl32.TransformCoordinate(mgl32.Vec3{}, n.World())
}

func (n *Node) sceneNode() *Node { return n }

type sceneNode interface {
	sceneNode() *Node
}

func (s *Scene) resolve(n spatial.Node) (*Node, error) {
	if n == nil {
		return s.root, nil
	}
	sn, ok := n.(sceneNode)
	if !ok {
		return nil, fmt.Errorf("node %s does not belong to this scene", n.ID())
	}
	node := sn.sceneNode()
	if node.scene != s {
		return nil, fmt.Errorf("node %s does not belong to this scene", n.ID())
	}
	if !node.Alive() {
		return nil, fmt.Errorf("resolve %s: %w", node.id, spatial.ErrNodeDestroyed)
	}
	return node, nil
}

// CreateSpatial creates a plain positionable node.
func (s *Scene) CreateSpatial(parent spatial.Node, t spatial.Transform, zoneable bool) (spatial.Node, error) {
	p, err := s.resolve(parent)
	if err != nil {
		return nil, err
	}
	return s.newNode(p, t, zoneable), nil
}

// Field is a cylinder field node.
type Field struct {
	*Node
	length float32
	radius float32
}

// CreateCylinderField creates a cylinder whose axis runs along local Z.
func (s *Scene) CreateCylinderField(parent spatial.Node, t spatial.Transform, length, radius float32) (spatial.Field, error) {
	p, err := s.resolve(parent)
	if err != nil {
		return nil, err
	}
	if length < 0 || radius < 0 {
		return nil, fmt.Errorf("cylinder size %v x %v: negative dimension", length, radius)
	}
	return &Field{Node: s.newNode(p, t, false), length: length, radius: radius}, nil
}

// SetSize changes the cylinder dimensions.
func (f *Field) SetSize(length, radius float32) error {
	if !f.Alive() {
		return fmt.Errorf("set size %s: %w", f.id, spatial.ErrNodeDestroyed)
	}
	f.length, f.radius = length, radius
	return nil
}

// Size returns length and radius.
func (f *Field) Size() (length, radius float32) { return f.length, f.radius }

// Distance returns the signed distance from a world-space point to the
// cylinder surface; negative inside.
func (f *Field) Distance(world mgl32.Vec3) float32 {
	inv := f.World().Inv()
	p := mgl32.TransformCoordinate(world, inv)

	dx := float32(math.Hypot(float64(p.X()), float64(p.Y()))) - f.radius
	dz := float32(math.Abs(float64(p.Z()))) - f.length/2

	inside := float32(math.Min(math.Max(float64(dx), float64(dz)), 0))
	ox := float32(math.Max(float64(dx), 0))
	oz := float32(math.Max(float64(dz), 0))
	return inside + float32(math.Hypot(float64(ox), float64(oz)))
}

// Lines is a line primitive node.
type Lines struct {
	*Node
	points []spatial.LinePoint
	cyclic bool
}

// CreateLines creates a line primitive.
func (s *Scene) CreateLines(parent spatial.Node, t spatial.Transform, points []spatial.LinePoint, cyclic bool) (spatial.Lines, error) {
	p, err := s.resolve(parent)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("lines need at least 2 points, got %d", len(points))
	}
	l := &Lines{Node: s.newNode(p, t, false), points: points, cyclic: cyclic}
	s.lines = append(s.lines, l)
	return l, nil
}

// Points returns the vertices.
func (l *Lines) Points() []spatial.LinePoint { return l.points }

// Cyclic reports whether the line closes on itself.
func (l *Lines) Cyclic() bool { return l.cyclic }

// Destroy removes a node and, implicitly, its descendants.
func (s *Scene) Destroy(n spatial.Node) error {
	node, err := s.resolve(n)
	if err != nil {
		return err
	}
	if node == s.root {
		return fmt.Errorf("cannot destroy the root node")
	}
	node.destroyed = true
	delete(s.nodes, node.id)

	live := s.lines[:0]
	for _, l := range s.lines {
		if l.Alive() {
			live = append(live, l)
		}
	}
	s.lines = live
	return nil
}

// Lookup returns a live node by id.
func (s *Scene) Lookup(id string) (*Node, bool) {
	n, ok := s.nodes[id]
	if !ok || !n.Alive() {
		return nil, false
	}
	return n, true
}

// LinesUnder returns the live line primitives whose parent is n.
func (s *Scene) LinesUnder(n spatial.Node) []*Lines {
	parent, err := s.resolve(n)
	if err != nil {
		return nil
	}
	var out []*Lines
	for _, l := range s.lines {
		if l.parent == parent && l.Alive() {
			out = append(out, l)
		}
	}
	return out
}
