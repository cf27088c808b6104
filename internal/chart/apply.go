package chart

import (
	"github.com/roach88/sseqchart/internal/value"
)

// applyTarget is what update and delete messages act on.
type applyTarget interface {
	TypeName() string
	assign(fields value.Object) error
	Delete() error
}

// Apply performs the change m describes as if it had been made through
// the API, so the resulting state matches the chart that emitted m.
// Applied changes are queued like any other; mirrors discard them.
func (c *Chart) Apply(m Message) error {
	if m.ChartID != c.id {
		return malformed("message for chart %s applied to chart %s", m.ChartID, c.id)
	}
	switch m.Command {
	case CommandCreate:
		return c.applyCreate(m)
	case CommandUpdate:
		if m.IsSettings() {
			return c.applySettings(m.Fields)
		}
		t, err := c.applyTarget(m)
		if err != nil {
			return err
		}
		return t.assign(m.Fields)
	case CommandDelete:
		t, err := c.applyTarget(m)
		if err != nil {
			return err
		}
		return t.Delete()
	}
	return malformed("unknown command %q", m.Command)
}

func (c *Chart) applyCreate(m Message) error {
	if tag := m.Fields.TypeTag(); tag != m.TargetType {
		return malformed("create %s carries a %q target", m.TargetType, tag)
	}
	switch m.TargetType {
	case classType:
		cls, err := decodeClass(m.Fields, c.numGradings)
		if err != nil {
			return err
		}
		if c.hasID(cls.id) {
			return malformed("create %s: id already in use", cls.id)
		}
		cls.idx = len(c.degrees[degreeKey(cls.degree)])
		c.commitClass(cls)
		c.queueCreate(cls)
		return nil
	case structlineType, differentialType, extensionType:
		e, err := decodeEdge(m.Fields)
		if err != nil {
			return err
		}
		if c.hasID(e.ID()) {
			return malformed("create %s: id already in use", e.ID())
		}
		if err := c.commitEdge(e); err != nil {
			return err
		}
		c.queueCreate(e)
		return nil
	}
	return malformed("cannot create target type %q", m.TargetType)
}

func (c *Chart) applyTarget(m Message) (applyTarget, error) {
	var t applyTarget
	if cls, ok := c.classes[m.TargetUUID]; ok {
		t = cls
	} else if e, ok := c.edges[m.TargetUUID]; ok {
		t = e
	} else {
		return nil, newError(ErrCodeUnresolvedReference, m.TargetUUID, "%s %s: no such entity", m.Command, m.TargetUUID)
	}
	if t.TypeName() != m.TargetType {
		return nil, malformed("%s %s: target is a %s, message says %s", m.Command, m.TargetUUID, t.TypeName(), m.TargetType)
	}
	return t, nil
}
