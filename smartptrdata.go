// Package smartptr provides shared and weak pointers over a concurrency safe
// control block that runs the managed object's deleter exactly once.
//
// user -> NewSharedPtr -> SmartPtrData{owners: 1} -> Clone/WeakPtr ->
//      Unset -> ReleaseShared(1 -> 0) -> Options.Deleter -> GetObject() == nil ->
//      last WeakPtr.Unset -> LastReferenceReleased
package smartptr

import (
	"strconv"

	"github.com/anacrolix/chansync"
	"go.uber.org/atomic"

	"soloos/smartptr/log"
	"soloos/smartptr/refcount"
)

const (
	ownerCountMask    = uint64(1)<<32 - 1
	objectDeletedFlag = uint64(1) << 32
)

// SmartPtrData is the control block shared by every handle of one managed
// object.
//
// ownerState packs the owner count (low 32 bits) and the object deleted
// tombstone. The tombstone is set by the same CAS that takes the owner count
// from one to zero, so GetObject reports nil from that instant on, even while
// the deleter is still running.
//
// The embedded Referenceable counts one reference per attached handle plus a
// self hold, dropped together with the last handle reference.
type SmartPtrData[T any] struct {
	refcount.Referenceable

	id            int64
	options       Options[T]
	object        atomic.Pointer[T]
	ownerState    atomic.Uint64
	objectDeleted chansync.SetOnce

	// teardown runs after the deleter; EnableSharedFromThis uses it to drop
	// its own reference.
	teardown func()
}

func newSmartPtrData[T any](object *T, options Options[T]) *SmartPtrData[T] {
	var p = new(SmartPtrData[T])
	p.id = options.Stats.AllocBlockID()
	p.options = options
	p.object.Store(object)
	p.Referenceable.Init(1, p.LastReferenceReleased)
	options.Stats.blockCreated()
	return p
}

// AcquireShared adds an owner. Acquiring a block whose object is already
// deleted is legal: the caller holds ownership of nil. If the deleter is
// still running, AcquireShared waits for it to return.
func (p *SmartPtrData[T]) AcquireShared() {
	var state = p.ownerState.Inc()
	if state&objectDeletedFlag != 0 {
		<-p.objectDeleted.Done()
	}
}

// ReleaseShared removes an owner and deletes the object when the owner count
// goes from one to zero on a live object.
func (p *SmartPtrData[T]) ReleaseShared() {
	var (
		state        uint64
		newState     uint64
		deleteObject bool
	)

	for {
		state = p.ownerState.Load()
		if state&ownerCountMask == 0 {
			panic(ErrReleasedTooOften)
		}

		newState = state - 1
		deleteObject = state&ownerCountMask == 1 && state&objectDeletedFlag == 0
		if deleteObject {
			newState |= objectDeletedFlag
		}

		if p.ownerState.CompareAndSwap(state, newState) {
			break
		}
	}

	if deleteObject {
		p.deleteObject()
	}
}

func (p *SmartPtrData[T]) deleteObject() {
	defer p.objectDeleted.Set()

	var object = p.object.Swap(nil)
	if object != nil {
		p.options.deleteObject(object)
		p.options.Stats.objectDeleted()
		if log.Enabled(log.LevelDebug) {
			log.Debug("smartptr", p.label(), "object deleted")
		}
	}

	if p.teardown != nil {
		p.teardown()
	}
}

// tombstone marks a live object deleted without running the deleter and
// reports the owner count it saw. marked is false if the object was already
// deleted.
func (p *SmartPtrData[T]) tombstone() (owners int32, marked bool) {
	var state uint64
	for {
		state = p.ownerState.Load()
		if state&objectDeletedFlag != 0 {
			return int32(state & ownerCountMask), false
		}
		if p.ownerState.CompareAndSwap(state, state|objectDeletedFlag) {
			break
		}
	}

	p.object.Store(nil)
	p.objectDeleted.Set()
	return int32(state & ownerCountMask), true
}

func (p *SmartPtrData[T]) CountOwners() int32 {
	return int32(p.ownerState.Load() & ownerCountMask)
}

// CountWeak excludes the block's self hold from the non-owner references.
func (p *SmartPtrData[T]) CountWeak() int32 {
	var weak = p.CountReferences() - p.CountOwners() - 1
	if weak < 0 {
		return 0
	}
	return weak
}

func (p *SmartPtrData[T]) GetObject() *T {
	if p.ownerState.Load()&objectDeletedFlag != 0 {
		return nil
	}
	return p.object.Load()
}

func (p *SmartPtrData[T]) IsObjectDeleted() bool {
	return p.objectDeleted.IsSet()
}

// ObjectDeleted is closed once the deleter has returned.
func (p *SmartPtrData[T]) ObjectDeleted() <-chan struct{} {
	return p.objectDeleted.Done()
}

// LastReferenceReleased runs when no handle references the block anymore.
// The object is already gone by then.
func (p *SmartPtrData[T]) LastReferenceReleased() {
	p.options.Stats.blockReleased()
	if log.Enabled(log.LevelDebug) {
		log.Debug("smartptr", p.label(), "no more references")
	}
}

func (p *SmartPtrData[T]) acquireReference() {
	p.AcquireReference()
}

// tryAcquireReference pins a block reached through a pointer that holds no
// reference of its own, failing once the block is gone.
func (p *SmartPtrData[T]) tryAcquireReference() bool {
	var _, ok = p.TryAcquireReference()
	return ok
}

func (p *SmartPtrData[T]) releaseReference() {
	if p.ReleaseReference() == 2 {
		p.ReleaseReference()
	}
}

func (p *SmartPtrData[T]) label() string {
	if p.options.Name == "" {
		return "#" + strconv.FormatInt(p.id, 10)
	}
	return p.options.Name + "#" + strconv.FormatInt(p.id, 10)
}
