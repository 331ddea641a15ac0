// Package ids allocates node identifiers.
package ids

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Id schemes selectable from configuration
const (
	SchemeSeparate = "separate" // counter for stage nodes, uuid for placeholders
	SchemeUUID     = "uuid"
	SchemeCounter  = "counter"
)

// Allocator hands out identifiers that are unique within its domain.
type Allocator interface {
	Next() string
}

// Counter allocates "0", "1", "2", ... It never reuses a value.
type Counter struct {
	next atomic.Int64
}

// NewCounter returns a Counter whose first id is start.
func NewCounter(start int64) *Counter {
	c := &Counter{}
	c.next.Store(start)
	return c
}

// Next returns the current counter value and increments it.
func (c *Counter) Next() string {
	return strconv.FormatInt(c.next.Add(1)-1, 10)
}

// UUID allocates random v4 uuids.
type UUID struct{}

// Next returns a fresh uuid string.
func (UUID) Next() string {
	return uuid.NewString()
}

// Func adapts a plain function to Allocator.
type Func func() string

// Next calls f.
func (f Func) Next() string { return f() }

// ForScheme returns the allocators for stage-created nodes and for
// edge-draw placeholders.
func ForScheme(scheme string) (stage, placeholder Allocator, err error) {
	switch scheme {
	case SchemeSeparate, "":
		return NewCounter(0), UUID{}, nil
	case SchemeUUID:
		return UUID{}, UUID{}, nil
	case SchemeCounter:
		c := NewCounter(0)
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unknown id scheme %q", scheme)
	}
}
