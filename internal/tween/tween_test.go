package tween

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTweenFusesAfterReportingEnd(t *testing.T) {
	tw := New(0, 0.5, 0.25, QuadIn)

	v, ok := tw.Update(0.25)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-6)
	assert.True(t, tw.Done())

	_, ok = tw.Update(0.25)
	assert.False(t, ok)
	assert.InDelta(t, 0.25, tw.Elapsed(), 1e-9)
}

func TestTweenEasing(t *testing.T) {
	tests := []struct {
		name string
		ease Ease
		want float32
	}{
		{"linear", Linear, 0.5},
		{"quad in", QuadIn, 0.25},
		{"quad out", QuadOut, 0.75},
		{"quad in out", QuadInOut, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := New(0, 1, 1, tt.ease)
			v, ok := tw.Update(0.5)
			assert.True(t, ok)
			assert.InDelta(t, tt.want, v, 1e-6)
		})
	}
}

func TestTweenIsMonotonic(t *testing.T) {
	tw := New(0.02, 1, 0.25, QuadOut)
	prev := tw.From
	for {
		v, ok := tw.Update(0.01)
		if !ok {
			break
		}
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
	assert.InDelta(t, 1, prev, 1e-6)
}

func TestMapRangeReversed(t *testing.T) {
	assert.InDelta(t, 0.0, MapRange(0.1, 0.1, 0.05, 0, 0.1), 1e-6)
	assert.InDelta(t, 0.1, MapRange(0.05, 0.1, 0.05, 0, 0.1), 1e-6)
	assert.InDelta(t, 0.2, MapRange(0.0, 0.1, 0.05, 0, 0.1), 1e-6)
	assert.Equal(t, float32(0.1), Clamp(0.2, 0, 0.1))
}
