// Package ident issues device identifiers. Identifiers are strictly
// increasing int64 values starting at 1 and are never reused, even after
// the device they were assigned to is deleted.
package ident

import "sync/atomic"

// Allocator is a process-wide identifier counter. The zero value starts
// issuing at 1; use New to seed it above identifiers that already exist.
type Allocator struct {
	last atomic.Int64
}

// New returns an allocator whose next identifier is last+1. Pass the
// highest identifier currently in the store (or 0 for an empty one) so
// deleted identifiers are never handed out again.
func New(last int64) *Allocator {
	a := &Allocator{}
	a.last.Store(last)
	return a
}

// Next returns a fresh identifier strictly greater than every identifier
// returned before. Safe for concurrent use.
func (a *Allocator) Next() int64 {
	return a.last.Add(1)
}
