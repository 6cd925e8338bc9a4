package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dockupdate/dockupdate/pkg/types"
)

// Registry lookup stages reported by RegistryFailure.
const (
	StageToken  = "token"
	StageDigest = "digest"
	StageTags   = "tags"
)

var metrics *Metrics

// Metric holds data points from a dockupdate check cycle.
type Metric struct {
	Checked          int // Number of containers checked.
	UpdatesAvailable int // Number of containers with a newer image.
	DigestUnknown    int // Number of containers whose remote digest could not be resolved.
	VersionUnknown   int // Number of containers without a resolved version tag.
}

// Metrics handles processing and exposing check metrics.
type Metrics struct {
	channel          chan *Metric           // Channel for queuing metrics.
	checked          prometheus.Gauge       // Gauge for checked containers.
	updatesAvailable prometheus.Gauge       // Gauge for containers with updates.
	digestUnknown    prometheus.Gauge       // Gauge for containers with unknown remote digest.
	versionUnknown   prometheus.Gauge       // Gauge for containers with unknown latest version.
	total            prometheus.Counter     // Counter for total check cycles.
	skipped          prometheus.Counter     // Counter for skipped check cycles.
	dropped          prometheus.Counter     // Counter for dropped metrics.
	registryFailures *prometheus.CounterVec // Counter for registry failures by stage.
	stopCh           chan struct{}          // Channel for shutdown signaling.
	shutdownOnce     sync.Once              // Ensures shutdown is called only once.
	//nolint:containedctx
	ctx    context.Context    // Context for cancellation.
	cancel context.CancelFunc // Cancel function for the context.
}

// NewWithRegistry creates a new Metrics handler with a custom Prometheus registry.
//
// Parameters:
//   - registry: Prometheus registerer to use for metric registration.
//
// Returns:
//   - (*Metrics, error): Metrics handler with Prometheus metrics and goroutine, or an error if registration fails.
func NewWithRegistry(registry prometheus.Registerer) (*Metrics, error) {
	// channelBufferSize sets the metrics channel capacity.
	const channelBufferSize = 10

	ctx, cancel := context.WithCancel(context.Background())

	metrics := &Metrics{
		checked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dockupdate_containers_checked",
			Help: "Number of containers checked during the last cycle",
		}),
		updatesAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dockupdate_containers_updates_available",
			Help: "Number of containers with a newer image during the last cycle",
		}),
		digestUnknown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dockupdate_containers_digest_unknown",
			Help: "Number of containers whose remote digest could not be resolved during the last cycle",
		}),
		versionUnknown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dockupdate_containers_version_unknown",
			Help: "Number of containers without a resolved latest version during the last cycle",
		}),
		total: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dockupdate_checks_total",
			Help: "Number of check cycles since dockupdate started",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dockupdate_checks_skipped_total",
			Help: "Number of skipped check cycles since dockupdate started",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dockupdate_metrics_dropped_total",
			Help: "Number of metrics dropped due to full channel",
		}),
		registryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dockupdate_registry_failures_total",
			Help: "Number of failed registry lookups by stage",
		}, []string{"stage"}),
		channel: make(chan *Metric, channelBufferSize),
		stopCh:  make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}

	metricsList := []prometheus.Collector{
		metrics.checked,
		metrics.updatesAvailable,
		metrics.digestUnknown,
		metrics.versionUnknown,
		metrics.total,
		metrics.skipped,
		metrics.dropped,
		metrics.registryFailures,
	}
	for _, m := range metricsList {
		err := registry.Register(m)
		if err != nil {
			alreadyRegisteredError := &prometheus.AlreadyRegisteredError{}
			if errors.As(err, &alreadyRegisteredError) {
				cancel()

				return nil, fmt.Errorf("failed to register metric: %w", err)
			}
		}
	}

	go metrics.HandleUpdate()

	return metrics, nil
}

// NewMetric creates a Metric from a check report.
//
// Parameters:
//   - report: Check report from types.Report.
//
// Returns:
//   - *Metric: New metric instance.
func NewMetric(report types.Report) *Metric {
	if report == nil {
		panic("NewMetric: report is nil")
	}

	checked := report.Checked()
	versionUnknown := 0

	for _, status := range checked {
		if status.LatestVersionTag == "" {
			versionUnknown++
		}
	}

	return &Metric{
		Checked:          len(checked),
		UpdatesAvailable: len(report.UpdatesAvailable()),
		DigestUnknown:    len(report.Unknown()),
		VersionUnknown:   versionUnknown,
	}
}

// QueueIsEmpty checks if the metrics channel is empty.
//
// Returns:
//   - bool: True if empty, false otherwise.
func (m *Metrics) QueueIsEmpty() bool {
	return len(m.channel) == 0
}

// Register attempts to enqueue a metric for processing.
// If the channel is full, the metric is dropped and the dropped counter is incremented.
//
// Parameters:
//   - metric: Metric to register.
func (m *Metrics) Register(metric *Metric) {
	select {
	case m.channel <- metric:
	default:
		m.dropped.Inc()
	}
}

// RegisterCheck enqueues a check-cycle metric. A nil metric records a skipped cycle.
//
// Parameters:
//   - metric: Metric to register.
func (m *Metrics) RegisterCheck(metric *Metric) {
	m.Register(metric)
}

// RegistryFailure counts a failed registry lookup.
//
// Parameters:
//   - stage: One of StageToken, StageDigest or StageTags.
func (m *Metrics) RegistryFailure(stage string) {
	m.registryFailures.WithLabelValues(stage).Inc()
}

// Default initializes or returns the singleton Metrics handler. It panics on registration failure, such as duplicate registration against the default registry.
//
// Returns:
//   - *Metrics: Metrics handler with Prometheus metrics and goroutine.
func Default() *Metrics {
	if metrics != nil {
		return metrics
	}

	var err error

	metrics, err = NewWithRegistry(prometheus.DefaultRegisterer)
	if err != nil {
		panic(err)
	}

	return metrics
}

// Shutdown gracefully stops the metrics processing goroutine.
// It is idempotent.
func (m *Metrics) Shutdown() {
	m.shutdownOnce.Do(func() {
		close(m.stopCh)

		if m.cancel != nil {
			m.cancel()
		}
	})
}

// HandleUpdate processes metrics from the channel.
func (m *Metrics) HandleUpdate() {
	var done <-chan struct{}
	if m.ctx != nil {
		done = m.ctx.Done()
	}

	for {
		select {
		case change, ok := <-m.channel:
			if !ok {
				return
			}

			m.apply(change)
		case <-m.stopCh:
			return
		case <-done:
			return
		}
	}
}

func (m *Metrics) apply(change *Metric) {
	m.total.Inc()

	if change == nil {
		// Cycle was skipped because another one was still running.
		m.skipped.Inc()
		m.checked.Set(0)
		m.updatesAvailable.Set(0)
		m.digestUnknown.Set(0)
		m.versionUnknown.Set(0)

		return
	}

	m.checked.Set(float64(change.Checked))
	m.updatesAvailable.Set(float64(change.UpdatesAvailable))
	m.digestUnknown.Set(float64(change.DigestUnknown))
	m.versionUnknown.Set(float64(change.VersionUnknown))
}
