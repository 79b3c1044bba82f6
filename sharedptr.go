package smartptr

import "soloos/smartptr/log"

// SharedPtr owns a share of a managed object. The zero value is unset.
//
// Distinct SharedPtr values referencing the same object may be used from
// different goroutines; a single SharedPtr must not be mutated concurrently.
// Go copies structs without running any code, so use Clone to copy and Unset
// to drop ownership.
type SharedPtr[T any] struct {
	data *SmartPtrData[T]
}

// NewSharedPtr takes ownership of object with an owner count of one.
func NewSharedPtr[T any](object *T) *SharedPtr[T] {
	return NewSharedPtrWithOptions(object, Options[T]{})
}

func NewSharedPtrWithOptions[T any](object *T, options Options[T]) *SharedPtr[T] {
	var p = new(SharedPtr[T])
	p.attach(newSmartPtrData(object, options))
	return p
}

// MakeShared allocates a zero T and takes ownership of it.
func MakeShared[T any]() *SharedPtr[T] {
	return NewSharedPtr(new(T))
}

// NewSharedPtrFromWeak upgrades weak. The result is unset if the object has
// already been deleted.
func NewSharedPtrFromWeak[T any](weak *WeakPtr[T]) *SharedPtr[T] {
	if weak == nil {
		return new(SharedPtr[T])
	}
	return newSharedPtrFromData(weak.data)
}

func newSharedPtrFromData[T any](data *SmartPtrData[T]) *SharedPtr[T] {
	var p = new(SharedPtr[T])
	if data != nil {
		p.attach(data)
	}
	return p
}

func (p *SharedPtr[T]) attach(data *SmartPtrData[T]) {
	data.acquireReference()
	data.AcquireShared()
	p.data = data
}

// Clone returns a new owner of the same object.
func (p *SharedPtr[T]) Clone() *SharedPtr[T] {
	if p == nil {
		return new(SharedPtr[T])
	}
	return newSharedPtrFromData(p.data)
}

func (p *SharedPtr[T]) Weak() *WeakPtr[T] {
	return NewWeakPtr(p)
}

// SetTo drops the current ownership and takes ownership of object under a
// new control block with default options.
func (p *SharedPtr[T]) SetTo(object *T) {
	p.Unset()
	p.attach(newSmartPtrData(object, Options[T]{}))
}

func (p *SharedPtr[T]) SetToShared(other *SharedPtr[T]) {
	if other == nil {
		p.Unset()
		return
	}
	p.setToData(other.data)
}

func (p *SharedPtr[T]) SetToWeak(weak *WeakPtr[T]) {
	if weak == nil {
		p.Unset()
		return
	}
	p.setToData(weak.data)
}

func (p *SharedPtr[T]) SetToSharedFromThis(enable *EnableSharedFromThis[T]) {
	var data *SmartPtrData[T]
	if enable != nil {
		data = enable.pinData()
	}

	switch {
	case data == nil:
		p.Unset()
	case p.data == data:
		// p still holds its own reference, so this never drops the last one
		data.ReleaseReference()
	default:
		p.setToPinned(data)
	}
}

// setToData releases the current ownership, then acquires ownership through
// data. Assigning the block already held is a no-op.
func (p *SharedPtr[T]) setToData(data *SmartPtrData[T]) {
	if p.data == data {
		return
	}

	if data == nil {
		p.Unset()
		return
	}

	// keep the block reachable across the release below
	data.acquireReference()
	p.setToPinned(data)
}

// setToPinned takes over one reference the caller already holds on data.
func (p *SharedPtr[T]) setToPinned(data *SmartPtrData[T]) {
	p.Unset()
	data.AcquireShared()
	p.data = data
}

// Unset drops ownership; the last owner deletes the object.
func (p *SharedPtr[T]) Unset() {
	if p == nil || p.data == nil {
		return
	}

	var data = p.data
	p.data = nil
	if log.Enabled(log.LevelDebug) {
		log.Debug("smartptr", data.label(), "release shared")
	}
	data.ReleaseShared()
	data.releaseReference()
}

// IsSet reports whether the handle has a control block and its object is
// alive.
func (p *SharedPtr[T]) IsSet() bool {
	return p.Get() != nil
}

// Get returns the managed object, or nil if the handle is unset.
func (p *SharedPtr[T]) Get() *T {
	if p == nil || p.data == nil {
		return nil
	}
	return p.data.GetObject()
}

// Equal compares the managed object with pointer. An unset handle equals nil.
func (p *SharedPtr[T]) Equal(pointer *T) bool {
	return p.Get() == pointer
}

func (p *SharedPtr[T]) CountOwners() int32 {
	if p == nil || p.data == nil {
		return 0
	}
	return p.data.CountOwners()
}

func (p *SharedPtr[T]) CountWeak() int32 {
	if p == nil || p.data == nil {
		return 0
	}
	return p.data.CountWeak()
}
