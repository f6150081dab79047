package goUserbot

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricCodeRequested counts successful code-request calls.
	MetricCodeRequested MetricID = iota
	// MetricAuthSuccess counts handshakes reaching Authenticated.
	MetricAuthSuccess
	// MetricAuthFailure counts handshake steps failing remotely.
	MetricAuthFailure
	// MetricTwoFactorRequired counts code submissions that demanded 2FA.
	MetricTwoFactorRequired
	// MetricRestoreSuccess counts persisted sessions validated on restore.
	MetricRestoreSuccess
	// MetricRestoreRejected counts persisted sessions the remote revoked.
	MetricRestoreRejected
	// MetricJoinSuccess counts fresh channel joins.
	MetricJoinSuccess
	// MetricJoinAlreadyMember counts joins resolved to an existing membership.
	MetricJoinAlreadyMember
	// MetricJoinPending counts joins parked awaiting approval.
	MetricJoinPending
	// MetricJoinFailure counts joins that failed.
	MetricJoinFailure
	// MetricFloodWait counts flood waits signaled by the remote service.
	MetricFloodWait
	// MetricThrottled counts calls rejected or delayed by the local gate.
	MetricThrottled
	// MetricDialogPages counts dialog-list pages fetched.
	MetricDialogPages
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the engine's in-process counter set. All methods are safe for
// concurrent use; disabled metrics cost one branch per increment.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics builds the counter set.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counting is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
