package input

// Predicate decides whether an input is acting this frame.
type Predicate func(d Data) bool

// Action tracks every input that satisfies a predicate, frame to frame.
type Action struct {
	predicate Predicate

	last    map[string]Data
	started []Data
	acting  []Data
	stopped []Data
}

// NewAction creates a multi-input action.
func NewAction(p Predicate) *Action {
	return &Action{predicate: p, last: make(map[string]Data)}
}

// Update evaluates the predicate for every input of the frame.
func (a *Action) Update(frame Frame) {
	a.started = a.started[:0]
	a.acting = a.acting[:0]
	a.stopped = a.stopped[:0]

	now := make(map[string]Data, len(frame))
	for _, d := range frame {
		if !a.predicate(d) {
			continue
		}
		now[d.ID] = d
		a.acting = append(a.acting, d)
		if _, ok := a.last[d.ID]; !ok {
			a.started = append(a.started, d)
		}
	}
	for id, d := range a.last {
		if _, ok := now[id]; !ok {
			a.stopped = append(a.stopped, d)
		}
	}
	a.last = now
}

// Started returns inputs that began acting this frame.
func (a *Action) Started() []Data { return a.started }

// Acting returns every input acting this frame, in frame order.
func (a *Action) Acting() []Data { return a.acting }

// Stopped returns the last seen data of inputs that stopped acting.
func (a *Action) Stopped() []Data { return a.stopped }

// IsActing reports whether id is acting this frame.
func (a *Action) IsActing(id string) bool {
	_, ok := a.last[id]
	return ok
}

// SingleActor grants one exclusive actor slot. A new actor is only
// admitted on a frame that started with the slot empty; the actor keeps
// the slot until its predicate fails or it disappears from the frame.
type SingleActor struct {
	predicate Predicate

	actor     *Data
	lastActor Data
	started   bool
	stopped   bool
}

// NewSingleActor creates a single-actor action.
func NewSingleActor(p Predicate) *SingleActor {
	return &SingleActor{predicate: p}
}

// Update evaluates the frame and advances the actor slot.
func (s *SingleActor) Update(frame Frame) {
	s.started, s.stopped = false, false

	if s.actor != nil {
		cur, ok := find(frame, s.actor.ID)
		if ok && s.predicate(cur) {
			s.actor = &cur
			return
		}
		s.lastActor = *s.actor
		s.actor = nil
		s.stopped = true
		return
	}

	for _, d := range frame {
		if s.predicate(d) {
			d := d
			s.actor = &d
			s.started = true
			return
		}
	}
}

// Actor returns the current actor.
func (s *SingleActor) Actor() (Data, bool) {
	if s.actor == nil {
		return Data{}, false
	}
	return *s.actor, true
}

// LastActor returns the actor that stopped this frame.
func (s *SingleActor) LastActor() Data { return s.lastActor }

// Started reports whether the actor was admitted this frame.
func (s *SingleActor) Started() bool { return s.started }

// Acting reports whether an actor holds the slot, including its first frame.
func (s *SingleActor) Acting() bool { return s.actor != nil }

// Stopped reports whether the actor released the slot this frame.
func (s *SingleActor) Stopped() bool { return s.stopped }

func find(frame Frame, id string) (Data, bool) {
	for _, d := range frame {
		if d.ID == id {
			return d, true
		}
	}
	return Data{}, false
}
