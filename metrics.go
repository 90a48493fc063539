package gochan

import (
	"sync/atomic"
	"time"

	"github.com/EklabDev/gochan/internal/interfaces"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds.
// Buckets cover from 1us to 10s with logarithmic spacing.
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

// Observer and Logger are aliases of the internal interfaces so callers
// outside this module can name them (gochan.Observer, gochan.Logger)
// without importing an internal package directly.
type Observer = interfaces.Observer
type Logger = interfaces.Logger

// Metrics tracks send/receive/task statistics for a Pool and the Channels
// it manages.
type Metrics struct {
	SendOps    atomic.Uint64
	ReceiveOps atomic.Uint64
	CloseOps   atomic.Uint64

	SendBytes    atomic.Uint64
	ReceiveBytes atomic.Uint64

	SendErrors    atomic.Uint64
	ReceiveErrors atomic.Uint64

	TaskDispatches atomic.Uint64
	TaskCompletes  atomic.Uint64
	TaskErrors     atomic.Uint64
	WorkerReplaced atomic.Uint64

	QueueDepthTotal atomic.Uint64
	QueueDepthCount atomic.Uint64
	MaxQueueDepth   atomic.Uint32

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// LatencyBuckets[i] holds the cumulative count of operations with
	// latency <= LatencyBuckets[i] nanoseconds.
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) RecordSend(bytes uint64, latencyNs uint64, success bool) {
	m.SendOps.Add(1)
	if success {
		m.SendBytes.Add(bytes)
	} else {
		m.SendErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) RecordReceive(bytes uint64, latencyNs uint64, success bool) {
	m.ReceiveOps.Add(1)
	if success {
		m.ReceiveBytes.Add(bytes)
	} else {
		m.ReceiveErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) RecordClose() {
	m.CloseOps.Add(1)
}

func (m *Metrics) RecordTaskDispatch() {
	m.TaskDispatches.Add(1)
}

func (m *Metrics) RecordTaskComplete(latencyNs uint64, success bool) {
	m.TaskCompletes.Add(1)
	if !success {
		m.TaskErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) RecordWorkerReplaced() {
	m.WorkerReplaced.Add(1)
}

// RecordQueueDepth records the current pending-task queue depth for
// statistics.
func (m *Metrics) RecordQueueDepth(depth uint32) {
	m.QueueDepthTotal.Add(uint64(depth))
	m.QueueDepthCount.Add(1)

	for {
		current := m.MaxQueueDepth.Load()
		if depth <= current {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(current, depth) {
			break
		}
	}
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

// Stop marks the pool/channel set as stopped, fixing Snapshot's uptime
// calculation.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time read of Metrics with derived rates.
type MetricsSnapshot struct {
	SendOps    uint64
	ReceiveOps uint64
	CloseOps   uint64

	SendBytes    uint64
	ReceiveBytes uint64

	SendErrors    uint64
	ReceiveErrors uint64

	TaskDispatches uint64
	TaskCompletes  uint64
	TaskErrors     uint64
	WorkerReplaced uint64

	AvgQueueDepth float64
	MaxQueueDepth uint32

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	SendRate    float64 // sends per second
	ReceiveRate float64 // receives per second
	TotalOps    uint64
	TotalBytes  uint64
	ErrorRate   float64 // percentage of failed operations
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		SendOps:        m.SendOps.Load(),
		ReceiveOps:     m.ReceiveOps.Load(),
		CloseOps:       m.CloseOps.Load(),
		SendBytes:      m.SendBytes.Load(),
		ReceiveBytes:   m.ReceiveBytes.Load(),
		SendErrors:     m.SendErrors.Load(),
		ReceiveErrors:  m.ReceiveErrors.Load(),
		TaskDispatches: m.TaskDispatches.Load(),
		TaskCompletes:  m.TaskCompletes.Load(),
		TaskErrors:     m.TaskErrors.Load(),
		WorkerReplaced: m.WorkerReplaced.Load(),
		MaxQueueDepth:  m.MaxQueueDepth.Load(),
	}

	snap.TotalOps = snap.SendOps + snap.ReceiveOps
	snap.TotalBytes = snap.SendBytes + snap.ReceiveBytes

	queueDepthTotal := m.QueueDepthTotal.Load()
	queueDepthCount := m.QueueDepthCount.Load()
	if queueDepthCount > 0 {
		snap.AvgQueueDepth = float64(queueDepthTotal) / float64(queueDepthCount)
	}

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
		snap.SendRate = float64(snap.SendOps) / uptimeSeconds
		snap.ReceiveRate = float64(snap.ReceiveOps) / uptimeSeconds
	}

	totalErrors := snap.SendErrors + snap.ReceiveErrors + snap.TaskErrors
	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(totalErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
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

// Reset resets all metrics counters.
func (m *Metrics) Reset() {
	m.SendOps.Store(0)
	m.ReceiveOps.Store(0)
	m.CloseOps.Store(0)
	m.SendBytes.Store(0)
	m.ReceiveBytes.Store(0)
	m.SendErrors.Store(0)
	m.ReceiveErrors.Store(0)
	m.TaskDispatches.Store(0)
	m.TaskCompletes.Store(0)
	m.TaskErrors.Store(0)
	m.WorkerReplaced.Store(0)
	m.QueueDepthTotal.Store(0)
	m.QueueDepthCount.Store(0)
	m.MaxQueueDepth.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// NoOpObserver is a no-op implementation of interfaces.Observer, the
// default when a Pool or Channel is constructed without one.
type NoOpObserver struct{}

func (NoOpObserver) ObserveSend(uint64, uint64, bool)    {}
func (NoOpObserver) ObserveReceive(uint64, uint64, bool) {}
func (NoOpObserver) ObserveClose()                       {}
func (NoOpObserver) ObserveTaskDispatch()                {}
func (NoOpObserver) ObserveTaskComplete(uint64, bool)    {}
func (NoOpObserver) ObserveWorkerReplaced()              {}
func (NoOpObserver) ObserveQueueDepth(uint32)            {}

// MetricsObserver implements interfaces.Observer by recording into a
// Metrics instance.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveSend(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordSend(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveReceive(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordReceive(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveClose() {
	o.metrics.RecordClose()
}

func (o *MetricsObserver) ObserveTaskDispatch() {
	o.metrics.RecordTaskDispatch()
}

func (o *MetricsObserver) ObserveTaskComplete(latencyNs uint64, success bool) {
	o.metrics.RecordTaskComplete(latencyNs, success)
}

func (o *MetricsObserver) ObserveWorkerReplaced() {
	o.metrics.RecordWorkerReplaced()
}

func (o *MetricsObserver) ObserveQueueDepth(depth uint32) {
	o.metrics.RecordQueueDepth(depth)
}

var _ interfaces.Observer = (*MetricsObserver)(nil)
var _ interfaces.Observer = (*NoOpObserver)(nil)
