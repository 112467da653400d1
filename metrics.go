package blkcopy

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the submission latency histogram buckets in
// nanoseconds, 1us to 10s with logarithmic spacing.
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

// Metrics tracks per-engine submission statistics
type Metrics struct {
	// Submission counters by dispatch path
	OffloadOps  atomic.Uint64 // BLKCOPY submissions
	EmulatedOps atomic.Uint64 // emulated submissions

	// Progress counters
	RangesCopied  atomic.Uint64 // fully completed range entries
	BytesCopied   atomic.Uint64 // bytes durably copied
	PartialWrites atomic.Uint64 // short writes observed

	// Error counters
	OffloadErrors  atomic.Uint64 // failed BLKCOPY submissions
	EmulatedErrors atomic.Uint64 // failed emulated submissions

	// Latency tracking
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// Latency histogram; bucket[i] counts submissions with latency
	// <= LatencyBuckets[i] (cumulative)
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	// Engine lifecycle
	StartTime atomic.Int64 // UnixNano
	StopTime  atomic.Int64 // UnixNano
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordOffload records an offload submission
func (m *Metrics) RecordOffload(_ uint64, latencyNs uint64, success bool) {
	m.OffloadOps.Add(1)
	if !success {
		m.OffloadErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordEmulated records an emulated submission
func (m *Metrics) RecordEmulated(_ uint64, latencyNs uint64, success bool) {
	m.EmulatedOps.Add(1)
	if !success {
		m.EmulatedErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordRange records one fully completed range entry. Bytes are counted
// here, per entry, so a submission that fails midway still accounts for the
// ranges it did copy.
func (m *Metrics) RecordRange(completed uint64) {
	m.RangesCopied.Add(1)
	m.BytesCopied.Add(completed)
}

// RecordPartialWrite records a short write and its durable byte count
func (m *Metrics) RecordPartialWrite(written uint64) {
	m.PartialWrites.Add(1)
	m.BytesCopied.Add(written)
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)

	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the engine as stopped
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time view of engine metrics
type MetricsSnapshot struct {
	OffloadOps  uint64
	EmulatedOps uint64

	RangesCopied  uint64
	BytesCopied   uint64
	PartialWrites uint64

	OffloadErrors  uint64
	EmulatedErrors uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns uint64
	LatencyP99Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	TotalOps  uint64
	CopyIOPS  float64 // submissions per second
	Bandwidth float64 // bytes per second
	ErrorRate float64 // percentage of failed submissions
}

// Snapshot creates a point-in-time snapshot of metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		OffloadOps:     m.OffloadOps.Load(),
		EmulatedOps:    m.EmulatedOps.Load(),
		RangesCopied:   m.RangesCopied.Load(),
		BytesCopied:    m.BytesCopied.Load(),
		PartialWrites:  m.PartialWrites.Load(),
		OffloadErrors:  m.OffloadErrors.Load(),
		EmulatedErrors: m.EmulatedErrors.Load(),
	}

	snap.TotalOps = snap.OffloadOps + snap.EmulatedOps

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.CopyIOPS = float64(snap.TotalOps) / uptimeSeconds
		snap.Bandwidth = float64(snap.BytesCopied) / uptimeSeconds
	}

	totalErrors := snap.OffloadErrors + snap.EmulatedErrors
	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(totalErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
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

// Reset resets all counters (useful for testing)
func (m *Metrics) Reset() {
	m.OffloadOps.Store(0)
	m.EmulatedOps.Store(0)
	m.RangesCopied.Store(0)
	m.BytesCopied.Store(0)
	m.PartialWrites.Store(0)
	m.OffloadErrors.Store(0)
	m.EmulatedErrors.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection
type Observer interface {
	// ObserveOffload is called once per offload submission
	ObserveOffload(bytes uint64, latencyNs uint64, success bool)

	// ObserveEmulated is called once per emulated submission
	ObserveEmulated(bytes uint64, latencyNs uint64, success bool)

	// ObserveRange is called for each fully completed range entry
	ObserveRange(completed uint64)

	// ObservePartialWrite is called when a short write ends a submission
	ObservePartialWrite(written uint64)
}

// NoOpObserver is a no-op implementation of Observer
type NoOpObserver struct{}

func (NoOpObserver) ObserveOffload(uint64, uint64, bool)  {}
func (NoOpObserver) ObserveEmulated(uint64, uint64, bool) {}
func (NoOpObserver) ObserveRange(uint64)                  {}
func (NoOpObserver) ObservePartialWrite(uint64)           {}

// MetricsObserver implements Observer using the built-in Metrics
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveOffload(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordOffload(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveEmulated(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordEmulated(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveRange(completed uint64) {
	o.metrics.RecordRange(completed)
}

func (o *MetricsObserver) ObservePartialWrite(written uint64) {
	o.metrics.RecordPartialWrite(written)
}

// Compile-time interface checks
var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
