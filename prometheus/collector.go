// Package prometheus adapts a threadcore.Core to Prometheus collection:
// registry occupancy, per-phase worker counts, spawn/exit totals by role,
// interrupt counters, and bootstrap latency summaries are read on scrape.
package prometheus

import (
	"errors"
	"fmt"

	threadcore "github.com/joeycumines/go-threadcore"
	prom "github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "threadcore"

var errNilCore = errors.New("threadcore/prometheus: core must not be nil")

// collectedPhases is every phase a scrape reports, in pipeline order.
var collectedPhases = [...]threadcore.WorkerPhase{
	threadcore.PhaseSpawned,
	threadcore.PhaseTLSInitializing,
	threadcore.PhaseBarrierWaiting,
	threadcore.PhaseRoleRunning,
	threadcore.PhaseExited,
}

// collectedRoles is every role a scrape reports.
var collectedRoles = [...]threadcore.RoleKind{
	threadcore.RoleGeneral,
	threadcore.RoleParallelGC,
	threadcore.RoleConcurrentGC,
}

// CoreCollector is a pull-style prometheus collector over a single Core.
// All values are read at scrape time from the Core's lock-free surfaces, so
// collection adds no overhead between scrapes.
type CoreCollector struct {
	core *threadcore.Core

	workersByPhase       *prom.Desc
	workersLive          *prom.Desc
	registrySlots        *prom.Desc
	registryGrowths      *prom.Desc
	spawnedTotal         *prom.Desc
	exitedTotal          *prom.Desc
	interruptsRequested  *prom.Desc
	interruptsDelivered  *prom.Desc
	interruptsSuppressed *prom.Desc
	tlsInitSeconds       *prom.Desc
	barrierWaitSeconds   *prom.Desc
}

var _ prom.Collector = (*CoreCollector)(nil)

// NewCoreCollector creates and registers a collector for the given Core.
// An empty namespace defaults to "threadcore"; a nil registerer defaults to
// prom.DefaultRegisterer.
func NewCoreCollector(namespace string, reg prom.Registerer, core *threadcore.Core) (*CoreCollector, error) {
	if core == nil {
		return nil, errNilCore
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	c := &CoreCollector{
		core: core,
		workersByPhase: prom.NewDesc(
			prom.BuildFQName(namespace, "", "workers"),
			"Workers by bootstrap phase.",
			[]string{"phase"}, nil,
		),
		workersLive: prom.NewDesc(
			prom.BuildFQName(namespace, "", "workers_live"),
			"Workers spawned and not yet exited.",
			nil, nil,
		),
		registrySlots: prom.NewDesc(
			prom.BuildFQName(namespace, "", "registry_slots"),
			"Allocated thread registry slots.",
			nil, nil,
		),
		registryGrowths: prom.NewDesc(
			prom.BuildFQName(namespace, "", "registry_growths_total"),
			"Total thread registry table reallocations.",
			nil, nil,
		),
		spawnedTotal: prom.NewDesc(
			prom.BuildFQName(namespace, "", "workers_spawned_total"),
			"Total workers spawned, by role.",
			[]string{"role"}, nil,
		),
		exitedTotal: prom.NewDesc(
			prom.BuildFQName(namespace, "", "workers_exited_total"),
			"Total workers whose role loop has returned, by role.",
			[]string{"role"}, nil,
		),
		interruptsRequested: prom.NewDesc(
			prom.BuildFQName(namespace, "", "interrupts_requested_total"),
			"Total interrupt requests.",
			nil, nil,
		),
		interruptsDelivered: prom.NewDesc(
			prom.BuildFQName(namespace, "", "interrupts_delivered_total"),
			"Total interrupts consumed at safepoints.",
			nil, nil,
		),
		interruptsSuppressed: prom.NewDesc(
			prom.BuildFQName(namespace, "", "interrupts_suppressed_total"),
			"Total safepoint checks suppressed by interrupt deferral.",
			nil, nil,
		),
		tlsInitSeconds: prom.NewDesc(
			prom.BuildFQName(namespace, "", "tls_init_seconds"),
			"Per-worker thread-local state construction time.",
			nil, nil,
		),
		barrierWaitSeconds: prom.NewDesc(
			prom.BuildFQName(namespace, "", "barrier_wait_seconds"),
			"Per-worker startup barrier wait time.",
			nil, nil,
		),
	}
	return registerCollector(reg, c)
}

// Describe implements prom.Collector.
func (c *CoreCollector) Describe(ch chan<- *prom.Desc) {
	ch <- c.workersByPhase
	ch <- c.workersLive
	ch <- c.registrySlots
	ch <- c.registryGrowths
	ch <- c.spawnedTotal
	ch <- c.exitedTotal
	ch <- c.interruptsRequested
	ch <- c.interruptsDelivered
	ch <- c.interruptsSuppressed
	ch <- c.tlsInitSeconds
	ch <- c.barrierWaitSeconds
}

// Collect implements prom.Collector.
func (c *CoreCollector) Collect(ch chan<- prom.Metric) {
	registry := c.core.Registry()
	n := registry.Len()
	phaseCounts := make(map[threadcore.WorkerPhase]int, len(collectedPhases))
	for i := 0; i < n; i++ {
		if slot := registry.Slot(i); slot != nil {
			phaseCounts[slot.Phase()]++
		}
	}
	for _, phase := range collectedPhases {
		ch <- prom.MustNewConstMetric(c.workersByPhase, prom.GaugeValue,
			float64(phaseCounts[phase]), phase.String())
	}
	ch <- prom.MustNewConstMetric(c.workersLive, prom.GaugeValue, float64(c.core.LiveWorkers()))
	ch <- prom.MustNewConstMetric(c.registrySlots, prom.GaugeValue, float64(n))
	ch <- prom.MustNewConstMetric(c.registryGrowths, prom.CounterValue, float64(registry.Growths()))

	// Snapshot is safe, and zero, when the Core's metrics are disabled.
	snap := c.core.Metrics().Snapshot()
	for _, role := range collectedRoles {
		ch <- prom.MustNewConstMetric(c.spawnedTotal, prom.CounterValue,
			float64(snap.Spawned.Of(role)), role.String())
		ch <- prom.MustNewConstMetric(c.exitedTotal, prom.CounterValue,
			float64(snap.Exited.Of(role)), role.String())
	}
	ch <- prom.MustNewConstMetric(c.interruptsRequested, prom.CounterValue, float64(snap.InterruptsRequested))
	ch <- prom.MustNewConstMetric(c.interruptsDelivered, prom.CounterValue, float64(snap.InterruptsDelivered))
	ch <- prom.MustNewConstMetric(c.interruptsSuppressed, prom.CounterValue, float64(snap.InterruptsSuppressed))
	ch <- summaryMetric(c.tlsInitSeconds, snap.TLSInit)
	ch <- summaryMetric(c.barrierWaitSeconds, snap.BarrierWait)
}

func summaryMetric(desc *prom.Desc, snap threadcore.LatencySnapshot) prom.Metric {
	sum := snap.Mean.Seconds() * float64(snap.Count)
	return prom.MustNewConstSummary(desc, uint64(snap.Count), sum, map[float64]float64{
		0.5:  snap.P50.Seconds(),
		0.9:  snap.P90.Seconds(),
		0.99: snap.P99.Seconds(),
	})
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
