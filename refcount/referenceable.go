// Package refcount provides the atomic reference count that smart pointer
// control blocks are built on.
package refcount

import "go.uber.org/atomic"

// Referenceable counts references to the structure embedding it. The hook
// passed to Init runs exactly once, on the release that takes the count
// from one to zero.
type Referenceable struct {
	referenceCount        atomic.Int32
	lastReferenceReleased func()
}

func (p *Referenceable) Init(initialCount int32, lastReferenceReleased func()) {
	p.referenceCount.Store(initialCount)
	p.lastReferenceReleased = lastReferenceReleased
}

// AcquireReference returns the count before the increment.
func (p *Referenceable) AcquireReference() int32 {
	var previous = p.referenceCount.Inc() - 1
	if previous <= 0 {
		panic(ErrAcquireReleased)
	}
	return previous
}

// TryAcquireReference acquires unless the count already reached zero, in
// which case the count is left untouched and ok is false.
func (p *Referenceable) TryAcquireReference() (previous int32, ok bool) {
	for {
		previous = p.referenceCount.Load()
		if previous <= 0 {
			return previous, false
		}
		if p.referenceCount.CompareAndSwap(previous, previous+1) {
			return previous, true
		}
	}
}

// ReleaseReference returns the count before the decrement.
func (p *Referenceable) ReleaseReference() int32 {
	var previous = p.referenceCount.Dec() + 1
	switch {
	case previous == 1:
		if p.lastReferenceReleased != nil {
			p.lastReferenceReleased()
		}
	case previous <= 0:
		panic(ErrReleasedTooOften)
	}
	return previous
}

func (p *Referenceable) CountReferences() int32 {
	return p.referenceCount.Load()
}
