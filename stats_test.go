package smartptr

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsNil(t *testing.T) {
	var stats *Stats

	assert.Equal(t, int64(0), stats.AllocBlockID())
	assert.Equal(t, uint64(0), stats.BlocksCreated())
	assert.Equal(t, uint64(0), stats.LiveBlocks())
	stats.blockCreated()
	stats.objectDeleted()

	assert.Equal(t, 0, testutil.CollectAndCount(stats))
	assert.Equal(t, 0, testutil.CollectAndCount(new(Stats)))
}

func TestStatsLiveBlocksNeverNegative(t *testing.T) {
	var stats, _ = NewStats("")

	// a release observed without its creation, as a torn read would see it
	stats.blockReleased()
	assert.Equal(t, uint64(0), stats.LiveBlocks())

	stats.blockCreated()
	stats.blockCreated()
	assert.Equal(t, uint64(1), stats.LiveBlocks())
	assert.Equal(t, 1, testutil.CollectAndCount(stats, "smartptr_live_blocks"))
}

func TestStatsInit(t *testing.T) {
	_, err := NewStats("bad-namespace")
	assert.ErrorIs(t, err, ErrInvalidNamespace)

	stats, err := NewStats("cache")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.AllocBlockID())
	assert.Equal(t, int64(2), stats.AllocBlockID())
}

func TestStatsCollector(t *testing.T) {
	stats, err := NewStats("")
	require.NoError(t, err)

	var registry = prometheus.NewRegistry()
	require.NoError(t, registry.Register(stats))

	var options = Options[testObject]{Stats: stats}
	first := NewSharedPtrWithOptions(newTestObject(1), options)
	second := NewSharedPtrWithOptions(newTestObject(2), options)
	weak := first.Weak()

	first.Unset()
	second.Unset()

	assert.Equal(t, uint64(2), stats.BlocksCreated())
	assert.Equal(t, uint64(1), stats.BlocksReleased())
	assert.Equal(t, uint64(2), stats.ObjectsDeleted())
	assert.Equal(t, uint64(1), stats.LiveBlocks())

	assert.Equal(t, 5, testutil.CollectAndCount(stats))
	assert.Equal(t, 1, testutil.CollectAndCount(stats, "smartptr_live_blocks"))

	families, err := registry.Gather()
	require.NoError(t, err)
	var values = make(map[string]float64)
	for _, family := range families {
		metric := family.GetMetric()[0]
		if metric.GetCounter() != nil {
			values[family.GetName()] = metric.GetCounter().GetValue()
		} else {
			values[family.GetName()] = metric.GetGauge().GetValue()
		}
	}
	assert.Equal(t, 2.0, values["smartptr_blocks_created_total"])
	assert.Equal(t, 1.0, values["smartptr_blocks_released_total"])
	assert.Equal(t, 2.0, values["smartptr_objects_deleted_total"])
	assert.Equal(t, 0.0, values["smartptr_usage_violations_total"])
	assert.Equal(t, 1.0, values["smartptr_live_blocks"])

	weak.Unset()
	assert.Equal(t, uint64(0), stats.LiveBlocks())
}
