package chart

import (
	"context"
	"fmt"

	"github.com/roach88/sseqchart/internal/value"
)

// Command is the verb of a message.
type Command string

const (
	CommandCreate Command = "create"
	CommandUpdate Command = "update"
	CommandDelete Command = "delete"
)

// chartType is the target type of settings messages and the type tag of
// encoded charts.
const chartType = "SseqChart"

// Message is one entry of a flushed batch.
//
// Wire forms:
//
//	{"chart_id", "command": "create", "target_type", "target": {...}}
//	{"chart_id", "command": "update", "target_type", "target_uuid", "update_fields": {...}}
//	{"chart_id", "command": "update", "target_type": "SseqChart", "target_fields": {...}}
//	{"chart_id", "command": "delete", "target_type", "target_uuid"}
type Message struct {
	ChartID    string
	Command    Command
	TargetType string
	TargetUUID string
	Fields     value.Object
}

// IsSettings reports whether m carries chart settings rather than an entity.
func (m Message) IsSettings() bool {
	return m.Command == CommandUpdate && m.TargetType == chartType
}

// Object renders m in its wire form.
func (m Message) Object() value.Object {
	obj := value.Object{
		"chart_id":    value.String(m.ChartID),
		"command":     value.String(m.Command),
		"target_type": value.String(m.TargetType),
	}
	switch {
	case m.Command == CommandCreate:
		obj["target"] = m.Fields
	case m.IsSettings():
		obj["target_fields"] = m.Fields
	case m.Command == CommandUpdate:
		obj["target_uuid"] = value.String(m.TargetUUID)
		obj["update_fields"] = m.Fields
	case m.Command == CommandDelete:
		obj["target_uuid"] = value.String(m.TargetUUID)
	}
	return obj
}

// ParseMessage reads a message from its wire form.
func ParseMessage(obj value.Object) (Message, error) {
	var m Message
	var err error

	if m.ChartID, err = obj.GetString("chart_id"); err != nil {
		return Message{}, malformed("message: %v", err)
	}
	command, err := obj.GetString("command")
	if err != nil {
		return Message{}, malformed("message: %v", err)
	}
	m.Command = Command(command)
	if m.TargetType, err = obj.GetString("target_type"); err != nil {
		return Message{}, malformed("message: %v", err)
	}

	switch {
	case m.Command == CommandCreate:
		m.Fields, err = obj.GetObject("target")
		if err == nil {
			m.TargetUUID, err = m.Fields.GetString("uuid")
		}
	case m.IsSettings():
		m.Fields, err = obj.GetObject("target_fields")
	case m.Command == CommandUpdate:
		m.TargetUUID, err = obj.GetString("target_uuid")
		if err == nil {
			m.Fields, err = obj.GetObject("update_fields")
		}
	case m.Command == CommandDelete:
		m.TargetUUID, err = obj.GetString("target_uuid")
	default:
		return Message{}, malformed("message: unknown command %q", m.Command)
	}
	if err != nil {
		return Message{}, malformed("%s message: %v", m.Command, err)
	}
	return m, nil
}

// MarshalBatch renders a batch as a canonical JSON array.
func MarshalBatch(batch []Message) ([]byte, error) {
	arr := make(value.Array, len(batch))
	for i, m := range batch {
		arr[i] = m.Object()
	}
	data, err := value.MarshalCanonical(arr)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}
	return data, nil
}

// UnmarshalBatch parses a JSON array of messages.
func UnmarshalBatch(data []byte) ([]Message, error) {
	v, err := value.Unmarshal(data)
	if err != nil {
		return nil, malformed("batch: %v", err)
	}
	arr, ok := v.(value.Array)
	if !ok {
		return nil, malformed("batch: expected array, got %s", value.KindOf(v))
	}
	batch := make([]Message, len(arr))
	for i, elem := range arr {
		obj, ok := elem.(value.Object)
		if !ok {
			return nil, malformed("batch[%d]: expected object, got %s", i, value.KindOf(elem))
		}
		if batch[i], err = ParseMessage(obj); err != nil {
			return nil, fmt.Errorf("batch[%d]: %w", i, err)
		}
	}
	return batch, nil
}

// Agent receives flushed batches. Delivery is at most once: the chart has
// already cleared its queue when SendBatch is called and never retries.
type Agent interface {
	SendBatch(ctx context.Context, batch []Message) error
}

// Saver is implemented by agents that can persist a chart under its name.
type Saver interface {
	Save(ctx context.Context, c *Chart) error
}

// SaveAser is implemented by agents that can persist a chart under a
// caller-chosen name.
type SaveAser interface {
	SaveAs(ctx context.Context, c *Chart, name string) error
}

// Loader is implemented by agents that can restore a saved chart.
type Loader interface {
	Load(ctx context.Context, name string) (*Chart, error)
}
