// Package tween provides eased interpolation between two scalars over a
// fixed duration.
package tween

// Ease maps linear progress in [0, 1] to eased progress.
type Ease func(p float64) float64

// Linear applies no easing.
func Linear(p float64) float64 { return p }

// QuadIn accelerates from zero velocity.
func QuadIn(p float64) float64 { return p * p }

// QuadOut decelerates to zero velocity.
func QuadOut(p float64) float64 { return p * (2 - p) }

// QuadInOut accelerates until halfway, then decelerates.
func QuadInOut(p float64) float64 {
	if p < 0.5 {
		return 2 * p * p
	}
	return -1 + (4-2*p)*p
}

// Tween interpolates From to To over Duration time units.
// Once the end is reached and reported, it is fused: Update returns false.
type Tween struct {
	From     float32
	To       float32
	Duration float64
	Ease     Ease

	elapsed float64
	done    bool
}

// New creates a tween. A nil ease means linear.
func New(from, to float32, duration float64, ease Ease) *Tween {
	if ease == nil {
		ease = Linear
	}
	return &Tween{From: from, To: to, Duration: duration, Ease: ease}
}

// Update advances the tween by dt. It returns the value and true while the
// tween is running, including the call that reaches the end.
func (t *Tween) Update(dt float64) (float32, bool) {
	if t.done {
		return t.To, false
	}
	t.elapsed += dt
	if t.elapsed >= t.Duration {
		t.elapsed = t.Duration
		t.done = true
	}
	return t.Value(), true
}

// Value returns the interpolated value at the current elapsed time.
func (t *Tween) Value() float32 {
	if t.Duration <= 0 {
		return t.To
	}
	p := t.elapsed / t.Duration
	return Lerp(t.From, t.To, float32(t.Ease(p)))
}

// Elapsed reports consumed time.
func (t *Tween) Elapsed() float64 { return t.elapsed }

// Done reports whether the tween has been fused.
func (t *Tween) Done() bool { return t.done }

// Lerp linearly interpolates a to b.
func Lerp(a, b, p float32) float32 {
	return a + (b-a)*p
}

// MapRange maps v from [inMin, inMax] to [outMin, outMax] without clamping.
// Reversed input ranges are allowed.
func MapRange(v, inMin, inMax, outMin, outMax float32) float32 {
	if inMax == inMin {
		return outMin
	}
	return outMin + (v-inMin)/(inMax-inMin)*(outMax-outMin)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
