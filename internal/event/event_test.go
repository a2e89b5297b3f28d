package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogKeepsNewestWithinLimit(t *testing.T) {
	l := NewLog(3)
	for i := 0; i < 5; i++ {
		l.Record(Event{Frame: uint64(i), Kind: Scrolled})
	}

	recent := l.Recent(10)
	assert.Len(t, recent, 3)
	assert.Equal(t, uint64(4), recent[0].Frame)
	assert.Equal(t, uint64(2), recent[2].Frame)

	assert.Len(t, l.Drain(), 5)
	assert.Empty(t, l.Drain())
}

func TestStampFillsFrame(t *testing.T) {
	l := NewLog(4)
	frame := uint64(7)
	rec := Stamp(Multi(l, nil), &frame)

	rec.Record(Event{Kind: CellAdded, Cell: 0})
	frame = 8
	rec.Record(Event{Kind: CellAdded, Cell: 1})

	recent := l.Recent(2)
	assert.Equal(t, uint64(8), recent[0].Frame)
	assert.Equal(t, uint64(7), recent[1].Frame)
}
