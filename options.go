package smartptr

import (
	"io"

	"soloos/smartptr/log"
)

// Options configures one control block. The zero value is usable.
type Options[T any] struct {
	// Name labels the block in log lines.
	Name string

	// Deleter runs exactly once, when the last owner goes away. Objects
	// implementing io.Closer are closed when it is nil.
	Deleter func(object *T)

	// OnUsageViolation receives the error reported when a managed object is
	// destroyed while owners still reference it. It panics when nil.
	OnUsageViolation func(err error)

	Stats *Stats
}

func (p *Options[T]) deleteObject(object *T) {
	if p.Deleter != nil {
		p.Deleter(object)
		return
	}

	closer, ok := any(object).(io.Closer)
	if !ok {
		return
	}
	var err = closer.Close()
	if err != nil {
		log.Warn("smartptr close managed object", p.Name, "error:", err)
	}
}

func (p *Options[T]) usageViolation(err error) {
	p.Stats.usageViolation()
	log.Error("smartptr usage violation:", err)
	if p.OnUsageViolation != nil {
		p.OnUsageViolation(err)
		return
	}
	panic(err)
}
