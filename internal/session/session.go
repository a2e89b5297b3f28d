// Package session is the client side of a spatial session: it owns the
// primitive factory and root node, latches input once per frame, and
// drives a lifecycle handler with frame and save-state hooks.
package session

import (
	"github.com/talgya/magnetar/internal/input"
	"github.com/talgya/magnetar/internal/spatial"
)

// FrameInfo is delivered to the handler once per frame.
type FrameInfo struct {
	Frame   uint64
	Delta   float64
	Elapsed float64
	Input   input.Frame
}

// State is the key/value state a handler asks to persist.
type State map[string]string

// LifeCycle is implemented by the application root.
type LifeCycle interface {
	OnFrame(info FrameInfo)
	SaveState() State
}

// Source produces the latched input for a frame. It may also move free
// objects in the scene before zones are evaluated.
type Source interface {
	Poll(elapsed, dt float64) input.Frame
}

// Updater evaluates zone membership between input and the frame hook.
type Updater interface {
	Update()
}

// NoInput is a source that never produces input.
type NoInput struct{}

// Poll returns an empty frame.
func (NoInput) Poll(float64, float64) input.Frame { return nil }

// Client is a connected session.
type Client struct {
	Factory spatial.Factory
	root    spatial.Node
	updater Updater
	source  Source
	handler LifeCycle

	frame   uint64
	elapsed float64
}

// Connect creates a client on a factory and its root node.
func Connect(f spatial.Factory, root spatial.Node, updater Updater) *Client {
	return &Client{Factory: f, root: root, updater: updater, source: NoInput{}}
}

// Root returns the client root node.
func (c *Client) Root() spatial.Node { return c.root }

// SetSource replaces the input source.
func (c *Client) SetSource(s Source) {
	if s == nil {
		s = NoInput{}
	}
	c.source = s
}

// Wrap installs the lifecycle handler.
func (c *Client) Wrap(h LifeCycle) { c.handler = h }

// Step runs one frame: latch input, evaluate zones, call the handler.
func (c *Client) Step(dt float64) {
	c.frame++
	c.elapsed += dt
	frame := c.source.Poll(c.elapsed, dt)
	if c.updater != nil {
		c.updater.Update()
	}
	if c.handler != nil {
		c.handler.OnFrame(FrameInfo{Frame: c.frame, Delta: dt, Elapsed: c.elapsed, Input: frame})
	}
}

// SaveState asks the handler for its state. Nil without a handler.
func (c *Client) SaveState() State {
	if c.handler == nil {
		return nil
	}
	return c.handler.SaveState()
}

// Elapsed returns the session time consumed so far.
func (c *Client) Elapsed() float64 { return c.elapsed }
