// Package o11y provides the planner's observability surface: Prometheus
// gauges/counters around PSGraph size, the FSAP/dead-end policies, and
// driver dispatch, pushed through a push.Pusher the way the teacher's
// MetricManager does; plus an optional InfluxDB line-protocol writer that
// records a "distance to goal at init state" time series per round for
// offline convergence plots, exercising influxdb-client-go the way the
// teacher's o11y.Record does but over planning telemetry instead of LLM
// call duration.
package o11y

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics bundles the planner's Prometheus instrumentation and an
// optional push.Pusher, grounded on the teacher's MetricManager.
type Metrics struct {
	mu     sync.Mutex
	pusher *push.Pusher

	PSGraphSize           prometheus.Gauge
	FSAPPolicySize        prometheus.Gauge
	DeadendPolicySize     prometheus.Gauge
	IncumbentStrongCyclic prometheus.Gauge
	EpochWallTimeSeconds  prometheus.Gauge

	DriverRounds    prometheus.Counter
	CaseDispatch    *prometheus.CounterVec
	FSAPsLearned    prometheus.Counter
	DeadendsLearned prometheus.Counter
}

// NewMetrics registers a fresh metric set. pushGatewayURL may be empty, in
// which case Push is a no-op (metrics are still collectable locally via
// Registry).
func NewMetrics(pushGatewayURL, job string) *Metrics {
	m := &Metrics{
		PSGraphSize:           prometheus.NewGauge(prometheus.GaugeOpts{Name: "prp_psgraph_size", Help: "Active solution steps in the PSGraph"}),
		FSAPPolicySize:        prometheus.NewGauge(prometheus.GaugeOpts{Name: "prp_fsap_policy_size", Help: "Active FSAP entries"}),
		DeadendPolicySize:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "prp_deadend_policy_size", Help: "Active dead-end entries"}),
		IncumbentStrongCyclic: prometheus.NewGauge(prometheus.GaugeOpts{Name: "prp_incumbent_strong_cyclic", Help: "1 if the incumbent policy is strong-cyclic"}),
		EpochWallTimeSeconds:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "prp_epoch_wall_time_seconds", Help: "Wall time of the most recent epoch"}),
		DriverRounds:          prometheus.NewCounter(prometheus.CounterOpts{Name: "prp_driver_rounds_total", Help: "Driver rounds run"}),
		CaseDispatch:          prometheus.NewCounterVec(prometheus.CounterOpts{Name: "prp_case_dispatch_total", Help: "Dispatch count per driver case"}, []string{"case"}),
		FSAPsLearned:          prometheus.NewCounter(prometheus.CounterOpts{Name: "prp_fsaps_learned_total", Help: "FSAPs learned"}),
		DeadendsLearned:       prometheus.NewCounter(prometheus.CounterOpts{Name: "prp_deadends_learned_total", Help: "Dead-ends learned"}),
	}

	if pushGatewayURL != "" {
		m.pusher = push.New(pushGatewayURL, job).
			Collector(m.PSGraphSize).
			Collector(m.FSAPPolicySize).
			Collector(m.DeadendPolicySize).
			Collector(m.IncumbentStrongCyclic).
			Collector(m.EpochWallTimeSeconds).
			Collector(m.DriverRounds).
			Collector(m.CaseDispatch).
			Collector(m.FSAPsLearned).
			Collector(m.DeadendsLearned)
	}
	return m
}

// ObserveRound records the PSGraph/policy sizes, the incumbent's
// strong-cyclic flag, and the round's wall time.
func (m *Metrics) ObserveRound(psgraphSize, fsapSize, deadendSize int, strongCyclic bool, wall time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PSGraphSize.Set(float64(psgraphSize))
	m.FSAPPolicySize.Set(float64(fsapSize))
	m.DeadendPolicySize.Set(float64(deadendSize))
	if strongCyclic {
		m.IncumbentStrongCyclic.Set(1)
	} else {
		m.IncumbentStrongCyclic.Set(0)
	}
	m.EpochWallTimeSeconds.Set(wall.Seconds())
	m.DriverRounds.Inc()
}

// RecordCase increments the dispatch counter for a driver case name
// ("poisoned", "duplicate", "predefined", "hookup", "newpath", "deadend").
func (m *Metrics) RecordCase(name string) {
	m.CaseDispatch.WithLabelValues(name).Inc()
}

// RecordFSAPsLearned adds n to the FSAPs-learned counter.
func (m *Metrics) RecordFSAPsLearned(n int) {
	if n > 0 {
		m.FSAPsLearned.Add(float64(n))
	}
}

// RecordDeadendsLearned adds n to the dead-ends-learned counter.
func (m *Metrics) RecordDeadendsLearned(n int) {
	if n > 0 {
		m.DeadendsLearned.Add(float64(n))
	}
}

// Push fires the collected metrics at the configured push gateway. A nil
// pusher (no gateway configured) is a no-op.
func (m *Metrics) Push() error {
	if m.pusher == nil {
		return nil
	}
	return m.pusher.Push()
}

// PushAsync fires Push on a background goroutine, the way the teacher's
// WriteData does, logging failures rather than surfacing them (metrics
// delivery never blocks the driver loop).
func (m *Metrics) PushAsync(onError func(error)) {
	go func() {
		if err := m.Push(); err != nil && onError != nil {
			onError(err)
		}
	}()
}

// InfluxWriter records a "distance to goal at init state" time series,
// one point per driver round, for offline convergence plots.
type InfluxWriter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	org      string
	bucket   string
}

// NewInfluxWriter opens a blocking-write client against url, authenticated
// with token. Callers own the returned writer's lifetime and must call
// Close when done.
func NewInfluxWriter(url, token, org, bucket string) *InfluxWriter {
	client := influxdb2.NewClient(url, token)
	return &InfluxWriter{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		org:      org,
		bucket:   bucket,
	}
}

// RecordDistanceToGoal writes one point: the reachability heuristic's
// value at the initial state for this round, tagged by run and epoch.
func (w *InfluxWriter) RecordDistanceToGoal(ctx context.Context, runID string, round, epoch, distance int, deadEnd bool) error {
	tags := map[string]string{"run_id": runID}
	fields := map[string]any{
		"round":    round,
		"epoch":    epoch,
		"distance": distance,
		"dead_end": deadEnd,
	}
	point := write.NewPoint("prp_convergence", tags, fields, time.Now())
	if err := w.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("o11y: write influx point: %w", err)
	}
	return nil
}

// Close releases the underlying HTTP client.
func (w *InfluxWriter) Close() {
	w.client.Close()
}
