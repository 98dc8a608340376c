package model

// Copy returns a deep copy of e: a structurally equal tree sharing no nodes
// with e.
func Copy(e *Element) *Element {
	if e == nil {
		return nil
	}
	c := &copier{}
	Walk(c, e)
	return c.result
}

type copier struct {
	BaseVisitor
	stack  []*Element
	result *Element
}

func (c *copier) VisitStart(_ Step, e *Element) {
	c.stack = append(c.stack, &Element{
		typ:    e.typ,
		id:     e.id,
		value:  e.value,
		fields: make([][]*Element, len(e.fields)),
	})
}

func (c *copier) VisitEnd(s Step, _ *Element) {
	n := len(c.stack)
	done := c.stack[n-1]
	c.stack = c.stack[:n-1]
	if n == 1 {
		c.result = done
		return
	}
	parent := c.stack[n-2]
	i, _ := parent.typ.FieldIndex(s.Name)
	parent.fields[i] = append(parent.fields[i], done)
}
