package store

import "github.com/GriffinCanCode/AgentOS/uistream/internal/shared/clock"

type entry[T any] struct {
	value T
	timer clock.Timer
}

// collection is an insertion-ordered map whose entries may own an expiry timer.
// It is not safe for concurrent use; the Store lock guards it.
type collection[T any] struct {
	order []string
	items map[string]*entry[T]
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{items: make(map[string]*entry[T])}
}

func (c *collection[T]) put(key string, v T, timer clock.Timer) {
	if e, ok := c.items[key]; ok {
		if e.timer != nil && e.timer != timer {
			e.timer.Stop()
		}
		e.value = v
		e.timer = timer
		return
	}
	c.items[key] = &entry[T]{value: v, timer: timer}
	c.order = append(c.order, key)
}

func (c *collection[T]) get(key string) (*entry[T], bool) {
	e, ok := c.items[key]
	return e, ok
}

// remove deletes key and stops its timer. Missing keys are a no-op.
func (c *collection[T]) remove(key string) bool {
	e, ok := c.items[key]
	if !ok {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// clear empties the collection, stopping every timer. Returns the number removed.
func (c *collection[T]) clear() int {
	n := len(c.items)
	for _, e := range c.items {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	c.items = make(map[string]*entry[T])
	c.order = nil
	return n
}

func (c *collection[T]) values() []T {
	out := make([]T, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.items[k].value)
	}
	return out
}

func (c *collection[T]) len() int {
	return len(c.items)
}
