package chart

import (
	"context"
	"errors"
	"fmt"
)

func deleteKey(id string) string { return id + ":delete" }

func (c *Chart) queueCreate(e entity) {
	c.queue.push(queued{key: e.ID(), command: CommandCreate, target: e}, false)
}

// queueUpdate folds into a pending create or update for the same entity
// and is dropped once a delete is pending.
func (c *Chart) queueUpdate(e entity) {
	_, afterDelete := c.queue.pushUpdate(queued{key: e.ID(), command: CommandUpdate, target: e}, deleteKey(e.ID()))
	if afterDelete {
		c.logger.Debug("update dropped: delete already queued",
			"chart", c.id,
			"target_type", e.TypeName(),
			"target_uuid", e.ID())
	}
}

func (c *Chart) queueDelete(e entity) {
	c.queue.push(queued{key: deleteKey(e.ID()), command: CommandDelete, target: e}, false)
}

func (c *Chart) queueSettings() {
	c.queue.push(queued{key: settingsKey, command: CommandUpdate}, true)
}

// Pending returns the number of queued messages.
func (c *Chart) Pending() int {
	return c.queue.Len()
}

// Discard drops every queued message without delivering it and returns
// how many were dropped.
func (c *Chart) Discard() int {
	return len(c.queue.drain())
}

// SetAgent attaches the agent that receives flushed batches. Pass nil to
// detach.
func (c *Chart) SetAgent(a Agent) {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()
	c.agent = a
}

// Agent returns the attached agent, or nil.
func (c *Chart) Agent() Agent {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()
	return c.agent
}

// Update flushes the queue to the attached agent and waits for delivery.
// It is a no-op when the queue is empty or no agent is attached; without an
// agent the queue is kept.
func (c *Chart) Update(ctx context.Context) error {
	return <-c.UpdateAsync(ctx)
}

// UpdateAsync snapshots and clears the queue, then delivers the batch on a
// separate goroutine. The returned channel yields the delivery result.
//
// Flushes are delivered one at a time in the order UpdateAsync was called.
// The batch is rendered before UpdateAsync returns, so it must be called
// from the goroutine that owns the chart.
func (c *Chart) UpdateAsync(ctx context.Context) <-chan error {
	result := make(chan error, 1)

	c.flushMu.Lock()
	agent := c.agent
	if agent == nil {
		c.flushMu.Unlock()
		result <- nil
		return result
	}
	items := c.queue.drain()
	if len(items) == 0 {
		c.flushMu.Unlock()
		result <- nil
		return result
	}
	prev := c.lastFlush
	done := make(chan struct{})
	c.lastFlush = done
	c.flushMu.Unlock()

	batch, err := c.render(items)

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		if err != nil {
			c.logger.Error("flush: entries dropped while rendering", "chart", c.id, "error", err)
		}
		if len(batch) > 0 {
			err = errors.Join(err, c.deliver(ctx, agent, batch))
		}
		result <- err
	}()
	return result
}

func (c *Chart) deliver(ctx context.Context, agent Agent, batch []Message) error {
	if err := agent.SendBatch(ctx, batch); err != nil {
		c.logger.Warn("flush failed: delivery",
			"chart", c.id,
			"batch_size", len(batch),
			"error", err)
		return fmt.Errorf("deliver batch of %d: %w", len(batch), err)
	}
	c.logger.Debug("flush delivered", "chart", c.id, "batch_size", len(batch))
	return nil
}

// render turns queued entries into messages carrying current state. An
// entry that fails to render is left out and reported in the error; the
// rest of the batch is still returned.
func (c *Chart) render(items []queued) ([]Message, error) {
	batch := make([]Message, 0, len(items))
	var errs []error
	for _, item := range items {
		m := Message{ChartID: c.id, Command: item.command}
		switch {
		case item.target == nil:
			m.TargetType = chartType
			m.Fields = c.settingsFields()
		case item.command == CommandDelete:
			m.TargetType = item.target.TypeName()
			m.TargetUUID = item.target.ID()
		default:
			m.TargetType = item.target.TypeName()
			m.TargetUUID = item.target.ID()
			fields, err := item.target.encode()
			if err != nil {
				errs = append(errs, fmt.Errorf("render %s %s: %w", item.command, item.target.ID(), err))
				continue
			}
			m.Fields = fields
		}
		batch = append(batch, m)
	}
	return batch, errors.Join(errs...)
}

// Run flushes whenever messages are queued until ctx is cancelled.
// Rendering reads entity state, so entity mutations must not run
// concurrently with Run; settings setters and AddPageRange may.
func (c *Chart) Run(ctx context.Context) error {
	c.logger.Info("chart flush loop starting", "chart", c.id)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("chart flush loop stopping: context cancelled", "chart", c.id)
			return ctx.Err()
		case <-c.queue.Wait():
			if err := c.Update(ctx); err != nil {
				c.logger.Warn("chart flush loop: update failed", "chart", c.id, "error", err)
			}
		}
	}
}

// Save persists the chart through the attached agent, flushing first so
// the agent's log and snapshot agree.
func (c *Chart) Save(ctx context.Context) error {
	saver, ok := c.Agent().(Saver)
	if !ok {
		return newError(ErrCodeUnsupported, c.id, "agent cannot save charts")
	}
	if err := c.Update(ctx); err != nil {
		return err
	}
	return saver.Save(ctx, c)
}

// SaveAs persists the chart under name through the attached agent.
func (c *Chart) SaveAs(ctx context.Context, name string) error {
	saver, ok := c.Agent().(SaveAser)
	if !ok {
		return newError(ErrCodeUnsupported, c.id, "agent cannot save charts under a new name")
	}
	if err := c.Update(ctx); err != nil {
		return err
	}
	return saver.SaveAs(ctx, c, name)
}

// Load restores the chart saved under name through the attached agent.
func (c *Chart) Load(ctx context.Context, name string) (*Chart, error) {
	loader, ok := c.Agent().(Loader)
	if !ok {
		return nil, newError(ErrCodeUnsupported, c.id, "agent cannot load charts")
	}
	return loader.Load(ctx, name)
}
