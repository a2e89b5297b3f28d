// Package magnetar is the shelf: a stack of capture cells that can be
// grabbed by a single actor and dragged, or nudged by scrolling, along its
// vertical axis.
package magnetar

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/talgya/magnetar/internal/cell"
	"github.com/talgya/magnetar/internal/event"
	"github.com/talgya/magnetar/internal/input"
	"github.com/talgya/magnetar/internal/session"
	"github.com/talgya/magnetar/internal/spatial"
)

// Config holds interaction thresholds.
type Config struct {
	HoverDistance float32 // |distance| below this counts as hovering
	GrabStrength  float32 // hand grab_strength threshold
	GrabAxis      float32 // pointer/tip grab threshold
	ScrollFactor  float32 // scroll.y to metres
	Radius        float32 // shelf radius, used by grab circles
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		HoverDistance: 0.05,
		GrabStrength:  0.8,
		GrabAxis:      0.9,
		ScrollFactor:  0.1,
		Radius:        1.0,
	}
}

// SavedState is what survives a restart. Captured objects never do.
type SavedState struct {
	YPos  float32 `json:"y_pos"`
	Cells int     `json:"cells"`
}

// Magnetar owns the cell stack and the grab state machine. All methods
// must be called from the frame thread.
type Magnetar struct {
	factory spatial.Factory
	anchor  spatial.Node
	root    spatial.Node
	field   spatial.Field
	cfg     Config
	rec     event.Recorder

	frame uint64
	cells []*cell.Cell

	yPosTmp float32
	yPos    float32
	yOffset float32
	actorY  float32

	hover   *input.Action
	grab    *input.SingleActor
	circles map[string]*GrabCircle
}

// New builds an empty shelf under anchor.
func New(f spatial.Factory, anchor spatial.Node, cfg Config, rec event.Recorder) (*Magnetar, error) {
	root, err := f.CreateSpatial(anchor, spatial.Transform{}, false)
	if err != nil {
		return nil, fmt.Errorf("create shelf root: %w", err)
	}

	field, err := f.CreateCylinderField(root, spatial.FromRotation(mgl32.QuatRotate(math.Pi*0.5, mgl32.Vec3{1, 0, 0})), 0, cfg.Radius)
	if err != nil {
		return nil, fmt.Errorf("create shelf field: %w", err)
	}

	m := &Magnetar{
		factory: f,
		anchor:  anchor,
		root:    root,
		field:   field,
		cfg:     cfg,
		circles: make(map[string]*GrabCircle),
	}
	m.rec = event.Stamp(rec, &m.frame)
	m.hover = input.NewAction(m.hovering)
	m.grab = input.NewSingleActor(m.grabbing)
	return m, nil
}

func (m *Magnetar) hovering(d input.Data) bool {
	return abs(d.Distance) < m.cfg.HoverDistance
}

func (m *Magnetar) grabbing(d input.Data) bool {
	if d.Kind == input.KindHand {
		return d.Datamap.Float(input.FieldGrabStrength) > m.cfg.GrabStrength
	}
	return d.Datamap.Float(input.FieldGrab) > m.cfg.GrabAxis
}

// AddCell appends a level below the current bottom and grows the shelf field.
func (m *Magnetar) AddCell() error {
	index := len(m.cells)
	c, err := cell.New(m.factory, m.root, index, -float32(index), m.rec)
	if err != nil {
		return fmt.Errorf("add cell %d: %w", index, err)
	}
	if m.grab.Acting() {
		c.SetActive(false)
	}
	m.cells = append(m.cells, c)

	n := float32(len(m.cells))
	if err := m.field.SetTransform(spatial.FromPosition(mgl32.Vec3{0, -(n - 1) * 0.5, 0})); err != nil {
		return fmt.Errorf("position shelf field: %w", err)
	}
	if err := m.field.SetSize(n, m.cfg.Radius); err != nil {
		return fmt.Errorf("resize shelf field: %w", err)
	}

	slog.Info("cell added", "index", index, "cells", len(m.cells))
	m.rec.Record(event.Event{Kind: event.CellAdded, Cell: index})
	return nil
}

// OnFrame implements session.LifeCycle.
func (m *Magnetar) OnFrame(info session.FrameInfo) {
	m.Tick(info.Delta, info.Input)
}

// Tick runs one frame: cells, grab phases, scroll, grab circles.
func (m *Magnetar) Tick(dt float64, frame input.Frame) {
	m.frame++

	for _, c := range m.cells {
		c.Tick(dt)
	}

	m.hover.Update(frame)
	m.grab.Update(frame)

	if m.grab.Stopped() {
		for _, c := range m.cells {
			c.SetActive(true)
		}
		m.yPos = m.yPosTmp
		last := m.grab.LastActor()
		slog.Info("grab stopped", "actor", last.ID, "y_pos", m.yPos)
		m.rec.Record(event.Event{Kind: event.GrabStopped, Cell: -1, Subject: last.ID, Value: m.yPos})
	}

	if actor, ok := m.grab.Actor(); ok {
		m.actorY = actor.InteractPoint().Y()
		if m.grab.Started() {
			for _, c := range m.cells {
				c.SetActive(false)
			}
			m.yOffset = m.actorY
			slog.Info("grab started", "actor", actor.ID, "kind", actor.Kind, "y", m.actorY)
			m.rec.Record(event.Event{Kind: event.GrabStarted, Cell: -1, Subject: actor.ID, Value: m.actorY})
		}
		m.yPosTmp = m.actorY - m.yOffset + m.yPos
		m.applyPosition()
	}

	m.scroll()
	m.updateCircles()
}

func (m *Magnetar) scroll() {
	var total float32
	for _, d := range m.hover.Acting() {
		s := d.Datamap.Vector(input.FieldScroll).Y() * m.cfg.ScrollFactor
		if abs(s) > epsilon {
			total += s
		}
	}
	if total == 0 {
		return
	}

	m.yOffset += total
	m.yPos += total
	if m.grab.Acting() {
		m.yPosTmp = m.actorY - m.yOffset + m.yPos
	} else {
		m.yPosTmp += total
	}
	m.applyPosition()
	m.rec.Record(event.Event{Kind: event.Scrolled, Cell: -1, Value: total})
}

func (m *Magnetar) applyPosition() {
	if err := m.root.SetTransform(spatial.FromPosition(mgl32.Vec3{0, m.yPosTmp, 0})); err != nil {
		slog.Warn("shelf transform skipped", "y", m.yPosTmp, "error", err)
		m.rec.Record(event.Event{Kind: event.TransformSkipped, Cell: -1, Subject: m.root.ID(), Value: m.yPosTmp})
	}
}

// State returns the persistable state.
func (m *Magnetar) State() SavedState {
	return SavedState{YPos: m.yPos, Cells: len(m.cells)}
}

// SaveState implements session.LifeCycle.
func (m *Magnetar) SaveState() session.State {
	st := m.State()
	return session.State{
		"y_pos": strconv.FormatFloat(float64(st.YPos), 'f', -1, 32),
		"cells": strconv.Itoa(st.Cells),
	}
}

// ParseState decodes a state produced by SaveState. Missing keys read as zero.
func ParseState(s session.State) (SavedState, error) {
	var st SavedState
	if v, ok := s["y_pos"]; ok {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return st, fmt.Errorf("parse y_pos %q: %w", v, err)
		}
		st.YPos = float32(f)
	}
	if v, ok := s["cells"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return st, fmt.Errorf("parse cells %q: %w", v, err)
		}
		if n < 0 {
			return st, fmt.Errorf("parse cells: negative count %d", n)
		}
		st.Cells = n
	}
	return st, nil
}

// Restore grows the stack to st.Cells and moves it to st.YPos. It is meant
// for startup, before the first frame.
func (m *Magnetar) Restore(st SavedState) error {
	for len(m.cells) < st.Cells {
		if err := m.AddCell(); err != nil {
			return err
		}
	}
	m.yPos = st.YPos
	m.yPosTmp = st.YPos
	m.applyPosition()
	return nil
}

// Cells returns the stack, top first.
func (m *Magnetar) Cells() []*cell.Cell { return m.cells }

// Field returns the shelf's inner field.
func (m *Magnetar) Field() spatial.Field { return m.field }

// Root returns the node all cells hang from.
func (m *Magnetar) Root() spatial.Node { return m.root }

// YPos returns the committed vertical offset.
func (m *Magnetar) YPos() float32 { return m.yPos }

// YPosTmp returns the rendered vertical offset.
func (m *Magnetar) YPosTmp() float32 { return m.yPosTmp }

// YOffset returns the drag reference offset.
func (m *Magnetar) YOffset() float32 { return m.yOffset }

// Frame returns the number of ticks run.
func (m *Magnetar) Frame() uint64 { return m.frame }

// Actor returns the id of the input holding the grab, if any.
func (m *Magnetar) Actor() (string, bool) {
	a, ok := m.grab.Actor()
	return a.ID, ok
}

const epsilon = 1.1920929e-07

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
