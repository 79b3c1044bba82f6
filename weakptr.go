package smartptr

// WeakPtr observes a managed object without owning it. The zero value is not
// attached to any control block.
//
// IsValid and IsExpired are not negations of each other: a WeakPtr stays
// valid, attached to its control block, after the object has expired.
type WeakPtr[T any] struct {
	data *SmartPtrData[T]
}

func NewWeakPtr[T any](shared *SharedPtr[T]) *WeakPtr[T] {
	if shared == nil {
		return new(WeakPtr[T])
	}
	return newWeakPtrFromData(shared.data)
}

func newWeakPtrFromData[T any](data *SmartPtrData[T]) *WeakPtr[T] {
	var p = new(WeakPtr[T])
	p.attach(data)
	return p
}

func (p *WeakPtr[T]) attach(data *SmartPtrData[T]) {
	if data != nil {
		data.acquireReference()
	}
	p.data = data
}

func (p *WeakPtr[T]) Clone() *WeakPtr[T] {
	if p == nil {
		return new(WeakPtr[T])
	}
	return newWeakPtrFromData(p.data)
}

func (p *WeakPtr[T]) SetTo(shared *SharedPtr[T]) {
	if shared == nil {
		p.Unset()
		return
	}
	p.setToData(shared.data)
}

func (p *WeakPtr[T]) SetToWeak(other *WeakPtr[T]) {
	if other == nil {
		p.Unset()
		return
	}
	p.setToData(other.data)
}

func (p *WeakPtr[T]) setToData(data *SmartPtrData[T]) {
	if p.data == data {
		return
	}
	var old = p.data
	p.attach(data)
	if old != nil {
		old.releaseReference()
	}
}

func (p *WeakPtr[T]) Unset() {
	if p == nil || p.data == nil {
		return
	}
	var data = p.data
	p.data = nil
	data.releaseReference()
}

// IsExpired reports whether there is no object to upgrade to, either because
// the handle is detached or because the object was deleted.
func (p *WeakPtr[T]) IsExpired() bool {
	return p == nil || p.data == nil || p.data.GetObject() == nil
}

// IsValid reports whether the handle is attached to a control block,
// regardless of the object's state. It is the handle's boolean value.
func (p *WeakPtr[T]) IsValid() bool {
	return p != nil && p.data != nil
}

// GetShared upgrades to a SharedPtr, which is unset when the object has
// expired.
func (p *WeakPtr[T]) GetShared() *SharedPtr[T] {
	return NewSharedPtrFromWeak(p)
}

func (p *WeakPtr[T]) CountOwners() int32 {
	if p == nil || p.data == nil {
		return 0
	}
	return p.data.CountOwners()
}

func (p *WeakPtr[T]) CountWeak() int32 {
	if p == nil || p.data == nil {
		return 0
	}
	return p.data.CountWeak()
}
