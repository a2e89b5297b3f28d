// Package cell implements one shelf level: a cylindrical capture zone
// bounded by two rings, which admits entering objects only once the cell
// has finished materializing and is not being dragged.
package cell

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/talgya/magnetar/internal/event"
	"github.com/talgya/magnetar/internal/ring"
	"github.com/talgya/magnetar/internal/spatial"
)

// Cell geometry.
const (
	Length = 1.0
	Radius = 1.0
)

// Cell is a shelf level. It is driven by its owner's frame tick and by zone
// callbacks; both happen on the same thread.
type Cell struct {
	index int
	root  spatial.Node
	field spatial.Field
	zone  spatial.Zone
	rec   event.Recorder

	active     bool
	suppressed bool
	pending    map[string]spatial.Node
	held       map[string]bool

	top    *ring.Ring
	bottom *ring.Ring
}

// New creates the cell at vertical offset y under parent.
func New(f spatial.Factory, parent spatial.Node, index int, y float32, rec event.Recorder) (*Cell, error) {
	if rec == nil {
		rec = event.Discard
	}

	root, err := f.CreateSpatial(parent, spatial.FromPosition(mgl32.Vec3{0, y, 0}), false)
	if err != nil {
		return nil, fmt.Errorf("create cell root: %w", err)
	}

	field, err := f.CreateCylinderField(root, spatial.FromRotation(mgl32.QuatRotate(math.Pi*0.5, mgl32.Vec3{1, 0, 0})), Length, Radius)
	if err != nil {
		return nil, fmt.Errorf("create cell field: %w", err)
	}

	top, err := ring.New(f, root, Length/2, Radius)
	if err != nil {
		return nil, fmt.Errorf("create top ring: %w", err)
	}
	bottom, err := ring.New(f, root, -Length/2, Radius)
	if err != nil {
		return nil, fmt.Errorf("create bottom ring: %w", err)
	}

	c := &Cell{
		index:   index,
		root:    root,
		field:   field,
		rec:     rec,
		pending: make(map[string]spatial.Node),
		held:    make(map[string]bool),
		top:     top,
		bottom:  bottom,
	}

	zone, err := f.CreateZone(root, field, c)
	if err != nil {
		return nil, fmt.Errorf("create cell zone: %w", err)
	}
	c.zone = zone
	return c, nil
}

// Tick advances both rings, re-derives the active gate from the bottom
// ring and the owner's suppression, and admits queued objects once the
// gate is open.
func (c *Cell) Tick(dt float64) {
	c.top.Advance(dt)
	c.active = c.bottom.Advance(dt) == ring.Idle && !c.suppressed

	if !c.active || len(c.pending) == 0 {
		return
	}

	uids := make([]string, 0, len(c.pending))
	for uid := range c.pending {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	clear(c.pending)

	for _, uid := range uids {
		c.capture(uid)
	}
}

func (c *Cell) capture(uid string) {
	err := c.zone.Capture(uid)
	switch {
	case err == nil:
	case errors.Is(err, spatial.ErrAlreadyCaptured):
		slog.Debug("object held by another cell", "cell", c.index, "object", uid)
	default:
		slog.Warn("capture failed", "cell", c.index, "object", uid, "error", err)
		c.rec.Record(event.Event{Kind: event.CaptureFailed, Cell: c.index, Subject: uid})
	}
}

// Enter handles an object crossing into the zone.
func (c *Cell) Enter(_ spatial.Zone, uid string, obj spatial.Node) {
	if c.held[uid] {
		return
	}
	if c.active {
		c.capture(uid)
		return
	}
	if _, queued := c.pending[uid]; queued {
		return
	}
	c.pending[uid] = obj
	slog.Debug("object queued", "cell", c.index, "object", uid)
	c.rec.Record(event.Event{Kind: event.ObjectQueued, Cell: c.index, Subject: uid})
}

// Capture handles the zone confirming it took the object.
func (c *Cell) Capture(_ spatial.Zone, uid string, _ spatial.Node) {
	delete(c.pending, uid)
	c.held[uid] = true
	slog.Info("object captured", "cell", c.index, "object", uid)
	c.rec.Record(event.Event{Kind: event.ObjectCaptured, Cell: c.index, Subject: uid})
}

// Release handles the zone giving the object up. Objects are never ejected
// by the cell itself.
func (c *Cell) Release(_ spatial.Zone, uid string) {
	delete(c.held, uid)
	c.rec.Record(event.Event{Kind: event.ObjectReleased, Cell: c.index, Subject: uid})
}

// Leave handles an object crossing out of the zone.
func (c *Cell) Leave(_ spatial.Zone, uid string) {
	if _, queued := c.pending[uid]; !queued {
		return
	}
	delete(c.pending, uid)
	c.rec.Record(event.Event{Kind: event.ObjectLeft, Cell: c.index, Subject: uid})
}

// SetActive closes the gate (false) while the stack is dragged, and lifts
// that suppression again (true). A cell whose bottom ring has not settled
// stays inactive either way.
func (c *Cell) SetActive(active bool) {
	c.suppressed = !active
	c.active = active && c.bottom.Phase() == ring.Idle
}

// Active reports whether captures are admitted.
func (c *Cell) Active() bool { return c.active }

// Pending returns the queued object ids in sorted order.
func (c *Cell) Pending() []string {
	uids := make([]string, 0, len(c.pending))
	for uid := range c.pending {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

// Held returns the ids of objects this cell holds, sorted.
func (c *Cell) Held() []string {
	uids := make([]string, 0, len(c.held))
	for uid := range c.held {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

// Index returns the cell's position in the stack, 0 at the top.
func (c *Cell) Index() int { return c.index }

// Root returns the cell's root node.
func (c *Cell) Root() spatial.Node { return c.root }

// Field returns the capture field.
func (c *Cell) Field() spatial.Field { return c.field }

// Rings returns the top and bottom rings.
func (c *Cell) Rings() (top, bottom *ring.Ring) { return c.top, c.bottom }
