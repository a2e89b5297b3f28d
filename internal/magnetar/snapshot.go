package magnetar

// CellSnapshot is a read-only view of one cell.
type CellSnapshot struct {
	Index      int      `json:"index"`
	Active     bool     `json:"active"`
	TopRing    string   `json:"top_ring"`
	BottomRing string   `json:"bottom_ring"`
	Pending    []string `json:"pending"`
	Held       []string `json:"held"`
}

// Snapshot is a read-only view of the shelf, safe to hand to other
// goroutines once taken.
type Snapshot struct {
	Frame    uint64         `json:"frame"`
	YPos     float32        `json:"y_pos"`
	YPosTmp  float32        `json:"y_pos_tmp"`
	YOffset  float32        `json:"y_offset"`
	Dragging bool           `json:"dragging"`
	Actor    string         `json:"actor,omitempty"`
	Hovering int            `json:"hovering"`
	Cells    []CellSnapshot `json:"cells"`
}

// Snapshot copies the current state. Call it on the frame thread.
func (m *Magnetar) Snapshot() Snapshot {
	s := Snapshot{
		Frame:    m.frame,
		YPos:     m.yPos,
		YPosTmp:  m.yPosTmp,
		YOffset:  m.yOffset,
		Hovering: len(m.hover.Acting()),
		Cells:    make([]CellSnapshot, 0, len(m.cells)),
	}
	if id, ok := m.Actor(); ok {
		s.Dragging = true
		s.Actor = id
	}
	for _, c := range m.cells {
		top, bottom := c.Rings()
		s.Cells = append(s.Cells, CellSnapshot{
			Index:      c.Index(),
			Active:     c.Active(),
			TopRing:    top.Phase().String(),
			BottomRing: bottom.Phase().String(),
			Pending:    c.Pending(),
			Held:       c.Held(),
		})
	}
	return s
}
