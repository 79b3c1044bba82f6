// Package stress drives concurrent upgrades, clones and releases against
// smart pointers and checks that every managed object is deleted exactly
// once and never observed after deletion.
package stress

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"

	"soloos/smartptr"
	"soloos/smartptr/log"
)

var ErrInvariantViolated = errors.New("smart pointer invariant violated")

type stressObject struct {
	round   int
	deleted atomic.Int32
}

func (p *stressObject) Close() error {
	p.deleted.Inc()
	return nil
}

type Report struct {
	Rounds                int64
	Upgrades              uint64
	ExpiredUpgrades       uint64
	DeletedObservedAsLive uint64
	MultipleDeletes       uint64
	ObjectsDeleted        uint64
	LiveBlocks            uint64
}

type Stresser struct {
	options  Options
	stats    *smartptr.Stats
	registry *prometheus.Registry

	roundsDone            atomic.Int64
	upgrades              atomic.Uint64
	expiredUpgrades       atomic.Uint64
	deletedObservedAsLive atomic.Uint64
	multipleDeletes       atomic.Uint64
}

func (p *Stresser) Init(options Options) error {
	var (
		level log.Level
		err   error
	)

	err = options.Validate()
	if err != nil {
		return err
	}
	p.options = options

	level, err = log.ParseLevel(options.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	p.stats, err = smartptr.NewStats(options.MetricsNamespace)
	if err != nil {
		return err
	}

	p.registry = prometheus.NewRegistry()
	err = p.registry.Register(p.stats)
	if err != nil {
		return err
	}

	return nil
}

func (p *Stresser) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Stresser) Start() error {
	var (
		reportDone = make(chan struct{})
		round      int
		err        error
	)

	go p.doReport(reportDone)
	defer close(reportDone)

	for round = 0; round < p.options.Rounds; round++ {
		p.runRound(round)
		p.roundsDone.Inc()
	}

	p.logMetrics()

	var report = p.Report()
	if report.DeletedObservedAsLive > 0 || report.MultipleDeletes > 0 ||
		report.ObjectsDeleted != uint64(report.Rounds) || report.LiveBlocks != 0 {
		err = errors.WithDetailf(ErrInvariantViolated, "%+v", report)
		log.Error("smartptr stress failed:", err)
		return err
	}

	log.Info("smartptr stress passed, rounds:", report.Rounds, ", upgrades:", report.Upgrades,
		", expired upgrades:", report.ExpiredUpgrades)
	return nil
}

func (p *Stresser) runRound(round int) {
	var (
		object = &stressObject{round: round}
		owner  = smartptr.NewSharedPtrWithOptions(object, smartptr.Options[stressObject]{
			Name:  "stress",
			Stats: p.stats,
		})
		start = make(chan struct{})
		wg    sync.WaitGroup
		i     int
	)

	wg.Add(p.options.Workers)
	for i = 0; i < p.options.Workers; i++ {
		go p.doUpgrades(owner.Weak(), start, &wg)
	}

	close(start)
	owner.Unset()
	wg.Wait()

	if object.deleted.Load() > 1 {
		p.multipleDeletes.Inc()
	}
}

func (p *Stresser) doUpgrades(weak *smartptr.WeakPtr[stressObject], start <-chan struct{}, wg *sync.WaitGroup) {
	var (
		shared *smartptr.SharedPtr[stressObject]
		clone  *smartptr.SharedPtr[stressObject]
		object *stressObject
		i      int
	)

	defer wg.Done()
	defer weak.Unset()

	<-start
	for i = 0; i < p.options.UpgradesPerRound; i++ {
		shared = weak.GetShared()
		object = shared.Get()
		if object == nil {
			p.expiredUpgrades.Inc()
			shared.Unset()
			continue
		}

		p.upgrades.Inc()
		if object.deleted.Load() != 0 {
			p.deletedObservedAsLive.Inc()
		}
		clone = shared.Clone()
		clone.Unset()
		shared.Unset()
	}
}

func (p *Stresser) doReport(done <-chan struct{}) {
	var ticker = time.NewTicker(time.Duration(p.options.ReportDurationMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			log.Info("smartptr stress rounds:", p.roundsDone.Load(), "/", p.options.Rounds,
				", live blocks:", p.stats.LiveBlocks(), ", upgrades:", p.upgrades.Load())
		}
	}
}

func (p *Stresser) logMetrics() {
	families, err := p.registry.Gather()
	if err != nil {
		log.Warn("smartptr stress gather metrics error:", err)
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if metric.GetCounter() != nil {
				log.Info(family.GetName(), metric.GetCounter().GetValue())
			} else if metric.GetGauge() != nil {
				log.Info(family.GetName(), metric.GetGauge().GetValue())
			}
		}
	}
}

func (p *Stresser) Report() Report {
	return Report{
		Rounds:                p.roundsDone.Load(),
		Upgrades:              p.upgrades.Load(),
		ExpiredUpgrades:       p.expiredUpgrades.Load(),
		DeletedObservedAsLive: p.deletedObservedAsLive.Load(),
		MultipleDeletes:       p.multipleDeletes.Load(),
		ObjectsDeleted:        p.stats.ObjectsDeleted(),
		LiveBlocks:            p.stats.LiveBlocks(),
	}
}
