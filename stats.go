package smartptr

import (
	"regexp"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

var namespaceRegexp = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Stats counts control block activity for every block created with it in
// Options. A nil *Stats records nothing. Stats is a prometheus.Collector;
// nil and never initialised values describe and collect no metrics.
type Stats struct {
	maxBlockID      atomic.Int64
	blocksCreated   atomic.Uint64
	blocksReleased  atomic.Uint64
	objectsDeleted  atomic.Uint64
	usageViolations atomic.Uint64

	blocksCreatedDesc   *prometheus.Desc
	blocksReleasedDesc  *prometheus.Desc
	objectsDeletedDesc  *prometheus.Desc
	usageViolationsDesc *prometheus.Desc
	liveBlocksDesc      *prometheus.Desc
}

var _ = prometheus.Collector(&Stats{})

func NewStats(namespace string) (*Stats, error) {
	var (
		stats = new(Stats)
		err   error
	)

	err = stats.Init(namespace)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// Init prepares metric descriptors; namespace defaults to "smartptr".
func (p *Stats) Init(namespace string) error {
	if namespace == "" {
		namespace = "smartptr"
	}
	if !namespaceRegexp.MatchString(namespace) {
		return errors.Wrapf(ErrInvalidNamespace, "%q", namespace)
	}

	p.blocksCreatedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "blocks_created_total"),
		"Control blocks created.", nil, nil)
	p.blocksReleasedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "blocks_released_total"),
		"Control blocks whose last reference was released.", nil, nil)
	p.objectsDeletedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "objects_deleted_total"),
		"Managed objects handed to their deleter.", nil, nil)
	p.usageViolationsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "usage_violations_total"),
		"Managed objects destroyed directly while owned.", nil, nil)
	p.liveBlocksDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "live_blocks"),
		"Control blocks still referenced by a handle.", nil, nil)

	return nil
}

func (p *Stats) AllocBlockID() int64 {
	if p == nil {
		return 0
	}
	return p.maxBlockID.Inc()
}

func (p *Stats) BlocksCreated() uint64 {
	if p == nil {
		return 0
	}
	return p.blocksCreated.Load()
}

func (p *Stats) BlocksReleased() uint64 {
	if p == nil {
		return 0
	}
	return p.blocksReleased.Load()
}

func (p *Stats) ObjectsDeleted() uint64 {
	if p == nil {
		return 0
	}
	return p.objectsDeleted.Load()
}

func (p *Stats) UsageViolations() uint64 {
	if p == nil {
		return 0
	}
	return p.usageViolations.Load()
}

func (p *Stats) LiveBlocks() uint64 {
	if p == nil {
		return 0
	}
	var _, _, live = p.loadBlocks()
	return live
}

// loadBlocks reads released before created: a block is counted created
// before it can be released, so live never goes negative.
func (p *Stats) loadBlocks() (created, released, live uint64) {
	released = p.blocksReleased.Load()
	created = p.blocksCreated.Load()
	if created < released {
		return created, released, 0
	}
	return created, released, created - released
}

func (p *Stats) inited() bool {
	return p != nil && p.liveBlocksDesc != nil
}

func (p *Stats) blockCreated() {
	if p != nil {
		p.blocksCreated.Inc()
	}
}

func (p *Stats) blockReleased() {
	if p != nil {
		p.blocksReleased.Inc()
	}
}

func (p *Stats) objectDeleted() {
	if p != nil {
		p.objectsDeleted.Inc()
	}
}

func (p *Stats) usageViolation() {
	if p != nil {
		p.usageViolations.Inc()
	}
}

func (p *Stats) Describe(ch chan<- *prometheus.Desc) {
	if !p.inited() {
		return
	}
	ch <- p.blocksCreatedDesc
	ch <- p.blocksReleasedDesc
	ch <- p.objectsDeletedDesc
	ch <- p.usageViolationsDesc
	ch <- p.liveBlocksDesc
}

func (p *Stats) Collect(ch chan<- prometheus.Metric) {
	if !p.inited() {
		return
	}

	var created, released, live = p.loadBlocks()
	ch <- prometheus.MustNewConstMetric(p.blocksCreatedDesc, prometheus.CounterValue, float64(created))
	ch <- prometheus.MustNewConstMetric(p.blocksReleasedDesc, prometheus.CounterValue, float64(released))
	ch <- prometheus.MustNewConstMetric(p.objectsDeletedDesc, prometheus.CounterValue, float64(p.objectsDeleted.Load()))
	ch <- prometheus.MustNewConstMetric(p.usageViolationsDesc, prometheus.CounterValue, float64(p.usageViolations.Load()))
	ch <- prometheus.MustNewConstMetric(p.liveBlocksDesc, prometheus.GaugeValue, float64(live))
}
