// Package engine provides the frame loop that drives the shelf.
// One mutex serializes frames with everything else that touches the shelf.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Frame scheduling defaults.
const (
	DefaultFPS      = 60
	MaxDelta        = 0.1  // seconds; longer stalls are clamped
	FramesPerReport = 3600 // one status line per minute at 60 fps
)

// Engine drives the frame loop.
type Engine struct {
	Interval      time.Duration // Target frame interval
	AutosaveEvery time.Duration // Session time between OnSave calls, 0 = never

	// Callbacks, populated during setup.
	OnFrame  func(frame uint64, dt float64) // Every frame
	OnSave   func(frame uint64)             // Every AutosaveEvery of session time
	OnReport func(frame uint64)             // Every FramesPerReport frames

	mu        sync.Mutex
	frame     uint64
	speed     float64
	running   bool
	elapsed   float64
	sinceSave float64
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewEngine creates an engine targeting fps frames per second.
func NewEngine(fps int) *Engine {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Engine{
		Interval: time.Second / time.Duration(fps),
		speed:    1.0,
		stop:     make(chan struct{}),
	}
}

// Run starts the frame loop. Blocks until ctx is done or Stop is called.
func (e *Engine) Run(ctx context.Context) {
	e.setRunning(true)
	defer e.setRunning(false)
	slog.Info("frame engine started", "frame", e.Frame(), "interval", e.Interval, "speed", e.Speed())

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("frame engine stopped", "frame", e.Frame(), "reason", ctx.Err())
			return
		case <-e.stop:
			slog.Info("frame engine stopped", "frame", e.Frame())
			return
		default:
		}

		speed := e.Speed()
		if speed <= 0 {
			// Paused: sleep briefly and check again.
			e.sleep(ctx, 100*time.Millisecond)
			last = time.Now()
			continue
		}

		start := time.Now()
		dt := start.Sub(last).Seconds() * speed
		last = start
		if dt > MaxDelta {
			dt = MaxDelta
		}
		e.Step(dt)

		if elapsed := time.Since(start); elapsed < e.Interval {
			e.sleep(ctx, e.Interval-elapsed)
		}
	}
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-e.stop:
	case <-t.C:
	}
}

// Stop halts the frame loop after the current frame.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// Step runs one frame of dt seconds under the frame lock.
func (e *Engine) Step(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.frame++
	e.elapsed += dt
	e.sinceSave += dt

	if e.OnFrame != nil {
		e.OnFrame(e.frame, dt)
	}

	if e.AutosaveEvery > 0 && e.sinceSave >= e.AutosaveEvery.Seconds() && e.OnSave != nil {
		e.sinceSave = 0
		e.OnSave(e.frame)
	}

	if e.frame%FramesPerReport == 0 && e.OnReport != nil {
		e.OnReport(e.frame)
	}
}

// Do runs fn under the frame lock, between frames.
func (e *Engine) Do(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// Frame returns the number of frames run.
func (e *Engine) Frame() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// Elapsed returns session time in seconds.
func (e *Engine) Elapsed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsed
}

// Speed returns the time multiplier: 1.0 = real time, 0 = paused.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the time multiplier.
func (e *Engine) SetSpeed(s float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = s
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) setRunning(r bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = r
}

// SessionTime formats seconds of session time as h:mm:ss.mmm.
func SessionTime(seconds float64) string {
	total := time.Duration(seconds * float64(time.Second))
	h := total / time.Hour
	total -= h * time.Hour
	m := total / time.Minute
	total -= m * time.Minute
	s := total / time.Second
	total -= s * time.Second
	ms := total / time.Millisecond
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms)
}
