package smartptr

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/atomic"
)

// EnableSharedFromThis lets an object mint SharedPtr and WeakPtr handles to
// itself. Embed it, construct the object fully, then wire it with Init or
// NewSelfSharing:
//
//	type Conn struct {
//		smartptr.EnableSharedFromThis[Conn]
//		...
//	}
//
//	conn, err := smartptr.NewSelfSharing(&Conn{...})
//	owner := conn.SharedFromThis()
//
// The capability holds one reference to the object's control block for the
// object's lifetime. It is not an owner, so it counts among CountWeak.
type EnableSharedFromThis[T any] struct {
	data atomic.Pointer[SmartPtrData[T]]
}

// SelfSharing is satisfied by pointers to types embedding
// EnableSharedFromThis.
type SelfSharing[T any] interface {
	*T
	SharedFromThisBase() *EnableSharedFromThis[T]
}

// NewSelfSharing wires the sharing capability of an already constructed
// object and returns it.
func NewSelfSharing[T any, PT SelfSharing[T]](object PT) (PT, error) {
	return NewSelfSharingWithOptions(object, Options[T]{})
}

func NewSelfSharingWithOptions[T any, PT SelfSharing[T]](object PT, options Options[T]) (PT, error) {
	var err error

	if (*T)(object) == nil {
		return nil, ErrNilObject
	}

	err = object.SharedFromThisBase().InitWithOptions((*T)(object), options)
	if err != nil {
		return nil, err
	}

	return object, nil
}

func (p *EnableSharedFromThis[T]) SharedFromThisBase() *EnableSharedFromThis[T] {
	return p
}

// Init creates the control block for object, which must be the value
// embedding p.
func (p *EnableSharedFromThis[T]) Init(object *T) error {
	return p.InitWithOptions(object, Options[T]{})
}

func (p *EnableSharedFromThis[T]) InitWithOptions(object *T, options Options[T]) error {
	var data *SmartPtrData[T]

	if object == nil {
		return ErrNilObject
	}
	if p.data.Load() != nil {
		return ErrAlreadyInited
	}

	data = newSmartPtrData(object, options)
	data.teardown = p.release
	data.acquireReference()
	if !p.data.CompareAndSwap(nil, data) {
		data.releaseReference()
		return ErrAlreadyInited
	}

	return nil
}

// SharedFromThis returns a new owner of the object, unset if the capability
// was never initialised or the object is gone.
func (p *EnableSharedFromThis[T]) SharedFromThis() *SharedPtr[T] {
	var (
		shared = new(SharedPtr[T])
		data   = p.pinData()
	)
	if data != nil {
		data.AcquireShared()
		shared.data = data
	}
	return shared
}

func (p *EnableSharedFromThis[T]) WeakFromThis() *WeakPtr[T] {
	return &WeakPtr[T]{data: p.pinData()}
}

// pinData returns the control block with one reference taken for the
// caller, or nil. The capability's pointer carries no reference once the
// last owner starts tearing down, so the block may already be released.
func (p *EnableSharedFromThis[T]) pinData() *SmartPtrData[T] {
	var data = p.data.Load()
	if data == nil || !data.tryAcquireReference() {
		return nil
	}
	return data
}

// Destroy is the object's teardown when it is discarded outside of the last
// SharedPtr release. Destroying an object that still has owners is a usage
// violation: it is logged and passed to Options.OnUsageViolation, which
// panics by default. Remaining handles read nil afterwards.
func (p *EnableSharedFromThis[T]) Destroy() {
	var (
		data   = p.data.Load()
		owners int32
		marked bool
	)

	if data == nil {
		return
	}
	defer p.release()

	owners, marked = data.tombstone()
	if marked && owners > 0 {
		data.options.usageViolation(errors.WithDetailf(
			errors.Wrapf(ErrDeletedWhileOwned, "block %s", data.label()),
			"owners=%d weak=%d", owners, data.CountWeak()))
	}
}

func (p *EnableSharedFromThis[T]) release() {
	var data = p.data.Swap(nil)
	if data != nil {
		data.releaseReference()
	}
}
