package model

// Equal reports whether a and b are structurally equal: same types, ids,
// values and field contents in the same order.
func Equal(a, b *Element) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Hash() != b.Hash() {
		return false
	}
	ea, eb := events(a), events(b)
	if len(ea) != len(eb) {
		return false
	}
	for i := range ea {
		if !ea[i].equal(eb[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether e and other are structurally equal.
func (e *Element) Equal(other *Element) bool {
	return Equal(e, other)
}

type event struct {
	step  Step
	typ   string
	id    string
	value Value
	end   bool
}

func (ev event) equal(o event) bool {
	return ev.step == o.step && ev.typ == o.typ && ev.id == o.id && ev.end == o.end && equalValues(ev.value, o.value)
}

type eventRecorder struct {
	BaseVisitor
	events []event
}

func (r *eventRecorder) VisitStart(s Step, e *Element) {
	r.events = append(r.events, event{step: s, typ: e.typ.Name(), id: e.id, value: e.value})
}

func (r *eventRecorder) VisitEnd(s Step, _ *Element) {
	r.events = append(r.events, event{step: s, end: true})
}

func events(e *Element) []event {
	r := &eventRecorder{}
	Walk(r, e)
	return r.events
}
