package uvcore

import (
	"sync/atomic"
	"time"

	"github.com/loopforge/uvcore/internal/interfaces"
)

// LatencyBuckets defines the AIO completion latency histogram buckets in
// nanoseconds, covering 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks operational statistics for one loop's AIO watcher and
// timer wheel.
type Metrics struct {
	// AIO submission counters.
	AIOSubmits          atomic.Uint64 // Submit calls that reached the kernel
	AIOSubmitErrors     atomic.Uint64 // Submit calls whose kernel submission returned an error (validation failures are not counted)
	AIOBuffersSubmitted atomic.Uint64 // Cumulative buffer count across all submits

	// AIO completion counters.
	AIOCompletions      atomic.Uint64 // Requests whose callback fired
	AIOCompletionErrors atomic.Uint64 // Requests whose Result() went negative
	AIOBytesCompleted   atomic.Uint64 // Cumulative successful byte count

	// AIO completion latency.
	AIOTotalLatencyNs atomic.Uint64
	AIOLatencyBuckets [numLatencyBuckets]atomic.Uint64

	// Timer wheel counters.
	TimerFires    atomic.Uint64 // Callbacks invoked
	TimerCascades atomic.Uint64 // Cumulative cascade operations across all fires

	StartTime atomic.Int64 // UnixNano
	StopTime  atomic.Int64 // UnixNano, 0 while running
}

// NewMetrics creates a running Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordAIOSubmit records the outcome of one Handle.Submit call.
func (m *Metrics) RecordAIOSubmit(nbufs int, err error) {
	if err != nil {
		m.AIOSubmitErrors.Add(1)
		return
	}
	m.AIOSubmits.Add(1)
	m.AIOBuffersSubmitted.Add(uint64(nbufs))
}

// RecordAIOComplete records one Request's terminal firing.
func (m *Metrics) RecordAIOComplete(result int64, latencyNs uint64) {
	m.AIOCompletions.Add(1)
	if result < 0 {
		m.AIOCompletionErrors.Add(1)
	} else {
		m.AIOBytesCompleted.Add(uint64(result))
	}
	m.AIOTotalLatencyNs.Add(latencyNs)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.AIOLatencyBuckets[i].Add(1)
		}
	}
}

// RecordTimerFire records one timer callback invocation and how many
// cascade operations its tick triggered.
func (m *Metrics) RecordTimerFire(cascades int) {
	m.TimerFires.Add(1)
	m.TimerCascades.Add(uint64(cascades))
}

// Stop marks the loop as stopped, freezing uptime calculations.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time copy of Metrics, safe to read
// without further synchronization.
type MetricsSnapshot struct {
	AIOSubmits          uint64
	AIOSubmitErrors     uint64
	AIOBuffersSubmitted uint64

	AIOCompletions      uint64
	AIOCompletionErrors uint64
	AIOBytesCompleted   uint64

	AIOAvgLatencyNs uint64
	AIOLatencyP50Ns uint64
	AIOLatencyP99Ns uint64

	TimerFires    uint64
	TimerCascades uint64

	UptimeNs uint64
}

// Snapshot takes a point-in-time copy of m.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		AIOSubmits:          m.AIOSubmits.Load(),
		AIOSubmitErrors:     m.AIOSubmitErrors.Load(),
		AIOBuffersSubmitted: m.AIOBuffersSubmitted.Load(),
		AIOCompletions:      m.AIOCompletions.Load(),
		AIOCompletionErrors: m.AIOCompletionErrors.Load(),
		AIOBytesCompleted:   m.AIOBytesCompleted.Load(),
		TimerFires:          m.TimerFires.Load(),
		TimerCascades:       m.TimerCascades.Load(),
	}

	if completions := snap.AIOCompletions; completions > 0 {
		snap.AIOAvgLatencyNs = m.AIOTotalLatencyNs.Load() / completions
		snap.AIOLatencyP50Ns = m.calculatePercentile(completions, 0.50)
		snap.AIOLatencyP99Ns = m.calculatePercentile(completions, 0.99)
	}

	start := m.StartTime.Load()
	if stop := m.StopTime.Load(); stop > 0 {
		snap.UptimeNs = uint64(stop - start)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - start)
	}

	return snap
}

// calculatePercentile estimates the AIO completion latency at the given
// percentile via linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(totalOps uint64, percentile float64) uint64 {
	targetCount := uint64(float64(totalOps) * percentile)
	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.AIOLatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.AIOLatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// MetricsObserver implements interfaces.Observer by recording into a
// Metrics instance. Wire it into WatcherConfig.Observer / WheelConfig.Observer
// to get live statistics for a loop.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer recording into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveAIOSubmit(nbufs int, err error) {
	o.metrics.RecordAIOSubmit(nbufs, err)
}

func (o *MetricsObserver) ObserveAIOComplete(result int64, latencyNs uint64) {
	o.metrics.RecordAIOComplete(result, latencyNs)
}

func (o *MetricsObserver) ObserveTimerFire(cascades int) {
	o.metrics.RecordTimerFire(cascades)
}

var _ interfaces.Observer = (*MetricsObserver)(nil)
