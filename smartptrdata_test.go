package smartptr

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

type testObject struct {
	id     int
	closed *atomic.Int32
}

func newTestObject(id int) *testObject {
	return &testObject{id: id, closed: atomic.NewInt32(0)}
}

func (p *testObject) Close() error {
	p.closed.Inc()
	return nil
}

func TestSmartPtrDataAcquireRelease(t *testing.T) {
	var (
		object = newTestObject(1)
		data   = newSmartPtrData(object, Options[testObject]{})
	)

	assert.Equal(t, int32(0), data.CountOwners())
	assert.Equal(t, int32(1), data.CountReferences())

	data.AcquireShared()
	data.AcquireShared()
	assert.Equal(t, int32(2), data.CountOwners())
	assert.Equal(t, object, data.GetObject())

	data.ReleaseShared()
	assert.Equal(t, int32(1), data.CountOwners())
	assert.Equal(t, int32(0), object.closed.Load())
	assert.False(t, data.IsObjectDeleted())

	data.ReleaseShared()
	assert.Equal(t, int32(0), data.CountOwners())
	assert.Equal(t, int32(1), object.closed.Load())
	assert.Nil(t, data.GetObject())
	assert.True(t, data.IsObjectDeleted())

	select {
	case <-data.ObjectDeleted():
	default:
		t.Fatal("object deleted event not set")
	}

	// ownership of a deleted object is legal and inert
	data.AcquireShared()
	assert.Equal(t, int32(1), data.CountOwners())
	assert.Nil(t, data.GetObject())
	data.ReleaseShared()
	assert.Equal(t, int32(1), object.closed.Load())

	assert.PanicsWithValue(t, ErrReleasedTooOften, func() { data.ReleaseShared() })
}

func TestSmartPtrDataCustomDeleter(t *testing.T) {
	var (
		deleted []*int
		value   = 7
		data    = newSmartPtrData(&value, Options[int]{
			Deleter: func(object *int) { deleted = append(deleted, object) },
		})
	)

	data.AcquireShared()
	data.ReleaseShared()
	assert.Equal(t, []*int{&value}, deleted)
}

func TestSmartPtrDataNilObject(t *testing.T) {
	var (
		calls int
		data  = newSmartPtrData[int](nil, Options[int]{
			Deleter: func(*int) { calls++ },
		})
	)

	data.AcquireShared()
	assert.Nil(t, data.GetObject())
	data.ReleaseShared()
	assert.Equal(t, 0, calls)
	assert.True(t, data.IsObjectDeleted())
}

func TestSmartPtrDataReferences(t *testing.T) {
	var (
		stats, _ = NewStats("")
		data     = newSmartPtrData(newTestObject(1), Options[testObject]{Stats: stats})
	)

	data.acquireReference()
	data.AcquireShared()
	data.acquireReference()
	data.acquireReference()
	assert.Equal(t, int32(4), data.CountReferences())
	assert.Equal(t, int32(1), data.CountOwners())
	assert.Equal(t, int32(2), data.CountWeak())

	data.ReleaseShared()
	data.releaseReference()
	assert.Equal(t, int32(2), data.CountWeak())
	assert.Equal(t, uint64(0), stats.BlocksReleased())

	data.releaseReference()
	assert.Equal(t, uint64(0), stats.BlocksReleased())

	data.releaseReference()
	assert.Equal(t, int32(0), data.CountReferences())
	assert.Equal(t, uint64(1), stats.BlocksReleased())
	assert.Equal(t, uint64(1), stats.ObjectsDeleted())
}

func TestSmartPtrDataDeleterPanicReleasesWaiters(t *testing.T) {
	var data = newSmartPtrData(newTestObject(1), Options[testObject]{
		Deleter: func(*testObject) { panic("deleter failed") },
	})

	data.AcquireShared()
	assert.Panics(t, func() { data.ReleaseShared() })
	assert.True(t, data.IsObjectDeleted())

	// must not block
	data.AcquireShared()
	assert.Nil(t, data.GetObject())
}

func TestSmartPtrDataConcurrentExactlyOnce(t *testing.T) {
	const P = 8
	N := 10000
	if testing.Short() {
		N /= 100
	}

	for round := 0; round < 20; round++ {
		var (
			object = newTestObject(round)
			data   = newSmartPtrData(object, Options[testObject]{})
			wg     sync.WaitGroup
		)

		data.AcquireShared()
		wg.Add(P)
		for i := 0; i < P; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < N; j++ {
					data.AcquireShared()
					if got := data.GetObject(); got != nil && got.closed.Load() != 0 {
						t.Errorf("observed deleted object as live")
					}
					data.ReleaseShared()
				}
			}()
		}
		data.ReleaseShared()
		wg.Wait()

		assert.Equal(t, int32(0), data.CountOwners())
		assert.True(t, data.IsObjectDeleted())
		assert.Equal(t, int32(1), object.closed.Load())
	}
}

func TestSmartPtrDataAcquireDuringDeletion(t *testing.T) {
	var (
		entered  = make(chan struct{})
		unblock  = make(chan struct{})
		acquired = make(chan *testObject)
		object   = newTestObject(1)
		data     = newSmartPtrData(object, Options[testObject]{
			Deleter: func(object *testObject) {
				close(entered)
				<-unblock
				object.Close()
			},
		})
	)

	data.AcquireShared()
	go data.ReleaseShared()
	<-entered

	for i := 0; i < 2; i++ {
		go func() {
			data.AcquireShared()
			acquired <- data.GetObject()
		}()
	}

	select {
	case <-acquired:
		t.Fatal("acquire returned while the deleter was running")
	default:
	}

	close(unblock)
	assert.Nil(t, <-acquired)
	assert.Nil(t, <-acquired)
	assert.Equal(t, int32(1), object.closed.Load())
	assert.Equal(t, int32(2), data.CountOwners())
}

func BenchmarkSmartPtrDataAcquireRelease(b *testing.B) {
	var data = newSmartPtrData(newTestObject(1), Options[testObject]{})
	data.AcquireShared()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			data.AcquireShared()
			data.ReleaseShared()
		}
	})
}
