package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/talgya/magnetar/internal/spatial"
)

// Zone reports free objects crossing its field and captures them on request.
type Zone struct {
	*Node
	field   *Field
	handler spatial.ZoneHandler

	inside   map[string]bool
	captured map[string]bool
}

// CreateZone binds a zone to a field. Membership is evaluated on Update.
func (s *Scene) CreateZone(parent spatial.Node, field spatial.Field, handler spatial.ZoneHandler) (spatial.Zone, error) {
	p, err := s.resolve(parent)
	if err != nil {
		return nil, err
	}
	f, ok := field.(*Field)
	if !ok || f.scene != s {
		return nil, fmt.Errorf("zone field %s does not belong to this scene", field.ID())
	}
	if handler == nil {
		return nil, fmt.Errorf("zone requires a handler")
	}
	z := &Zone{
		Node:     s.newNode(p, spatial.Transform{}, false),
		field:    f,
		handler:  handler,
		inside:   make(map[string]bool),
		captured: make(map[string]bool),
	}
	s.zones = append(s.zones, z)
	return z, nil
}

// Capture re-parents a known object under the zone, keeping its world
// position, and notifies the handler. An object held by another zone is
// refused with spatial.ErrAlreadyCaptured.
func (z *Zone) Capture(uid string) error {
	if !z.Alive() {
		return fmt.Errorf("capture %s: %w", uid, spatial.ErrNodeDestroyed)
	}
	obj, ok := z.scene.byUID[uid]
	if !ok {
		return fmt.Errorf("capture %s: %w", uid, spatial.ErrUnknownObject)
	}
	if !obj.Alive() {
		return fmt.Errorf("capture %s: %w", uid, spatial.ErrNodeDestroyed)
	}
	if obj.capturedBy == z {
		return nil
	}
	if obj.capturedBy != nil {
		return fmt.Errorf("capture %s: %w", uid, spatial.ErrAlreadyCaptured)
	}

	z.scene.reparent(obj, z.Node)
	obj.capturedBy = z
	z.captured[uid] = true
	z.handler.Capture(z, uid, obj)
	return nil
}

// Captured reports whether the zone currently holds uid.
func (z *Zone) Captured(uid string) bool { return z.captured[uid] }

// Field returns the field the zone watches.
func (z *Zone) Field() *Field { return z.field }

func (s *Scene) reparent(obj, parent *Node) {
	world := obj.WorldPosition()
	local := mgl32.TransformCoordinate(world, parent.World().Inv())
	obj.parent = parent
	obj.position = local
}

// AddObject places a free, zoneable object in world space.
func (s *Scene) AddObject(uid string, position mgl32.Vec3) *Node {
	if existing, ok := s.byUID[uid]; ok && existing.Alive() {
		return existing
	}
	obj := s.newNode(s.root, spatial.FromPosition(position), true)
	s.byUID[uid] = obj
	s.objects = append(s.objects, obj)
	return obj
}

// Object returns a live object by uid.
func (s *Scene) Object(uid string) (*Node, bool) {
	obj, ok := s.byUID[uid]
	if !ok || !obj.Alive() {
		return nil, false
	}
	return obj, true
}

// MoveObject sets a free object's world position. Captured objects move
// with their zone and are left alone.
func (s *Scene) MoveObject(uid string, position mgl32.Vec3) error {
	obj, ok := s.Object(uid)
	if !ok {
		return fmt.Errorf("move %s: %w", uid, spatial.ErrUnknownObject)
	}
	if obj.capturedBy != nil {
		return nil
	}
	obj.position = position
	return nil
}

// Release hands a captured object back to the scene root.
func (s *Scene) Release(uid string) error {
	obj, ok := s.Object(uid)
	if !ok {
		return fmt.Errorf("release %s: %w", uid, spatial.ErrUnknownObject)
	}
	z := obj.capturedBy
	if z == nil {
		return nil
	}
	s.reparent(obj, s.root)
	obj.capturedBy = nil
	delete(z.captured, uid)
	z.handler.Release(z, uid)
	return nil
}

// RemoveObject destroys an object. The zone holding it receives a release,
// then every zone that saw it receives a leave.
func (s *Scene) RemoveObject(uid string) error {
	obj, ok := s.Object(uid)
	if !ok {
		return fmt.Errorf("remove %s: %w", uid, spatial.ErrUnknownObject)
	}
	if z := obj.capturedBy; z != nil {
		obj.capturedBy = nil
		delete(z.captured, uid)
		z.handler.Release(z, uid)
	}
	obj.destroyed = true
	delete(s.nodes, obj.id)
	delete(s.byUID, uid)
	for _, z := range s.zones {
		if z.inside[uid] {
			delete(z.inside, uid)
			z.handler.Leave(z, uid)
		}
	}
	return nil
}

// Update recomputes zone membership of free objects and fires enter/leave
// callbacks in object creation order.
func (s *Scene) Update() {
	liveObjects := s.objects[:0]
	for _, obj := range s.objects {
		if obj.Alive() {
			liveObjects = append(liveObjects, obj)
		}
	}
	s.objects = liveObjects

	uids := make(map[*Node]string, len(s.byUID))
	for uid, obj := range s.byUID {
		uids[obj] = uid
	}

	for _, z := range s.zones {
		if !z.Alive() {
			continue
		}
		for _, obj := range s.objects {
			uid := uids[obj]
			if obj.capturedBy == z {
				continue
			}
			in := obj.capturedBy == nil && z.field.Distance(obj.WorldPosition()) <= 0
			switch {
			case in && !z.inside[uid]:
				z.inside[uid] = true
				z.handler.Enter(z, uid, obj)
			case !in && z.inside[uid]:
				delete(z.inside, uid)
				z.handler.Leave(z, uid)
			}
		}
	}
}
