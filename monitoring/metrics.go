// Package monitoring collects prediction metrics for the /metrics endpoint.
package monitoring

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// maxLatencySamples bounds the latency window used for percentiles.
const maxLatencySamples = 1000

// MetricsCollector counts predictions and keeps a sliding window of latencies.
type MetricsCollector struct {
	mu sync.RWMutex

	predictions int64
	failures    int64
	cacheHits   int64
	byLabel     map[string]int64

	latencies []time.Duration
	next      int

	startTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		byLabel:   make(map[string]int64),
		latencies: make([]time.Duration, 0, maxLatencySamples),
		startTime: time.Now(),
	}
}

// RecordPrediction records a successful prediction.
func (mc *MetricsCollector) RecordPrediction(label string, cached bool, elapsed time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.predictions++
	mc.byLabel[label]++
	if cached {
		mc.cacheHits++
	}
	mc.recordLatency(elapsed)
}

// RecordError records a request that ended with an error body.
func (mc *MetricsCollector) RecordError(elapsed time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.failures++
	mc.recordLatency(elapsed)
}

func (mc *MetricsCollector) recordLatency(elapsed time.Duration) {
	if len(mc.latencies) < maxLatencySamples {
		mc.latencies = append(mc.latencies, elapsed)
		return
	}
	mc.latencies[mc.next] = elapsed
	mc.next = (mc.next + 1) % maxLatencySamples
}

// LatencySummary is expressed in milliseconds.
type LatencySummary struct {
	Count   int     `json:"count"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
	P50     float64 `json:"p50"`
	P95     float64 `json:"p95"`
}

type Snapshot struct {
	UptimeSeconds float64          `json:"uptime_seconds"`
	Predictions   int64            `json:"predictions"`
	Errors        int64            `json:"errors"`
	CacheHits     int64            `json:"cache_hits"`
	ByLabel       map[string]int64 `json:"by_label"`
	Latency       LatencySummary   `json:"latency_ms"`
	Goroutines    int              `json:"goroutines"`
	HeapAlloc     uint64           `json:"heap_alloc_bytes"`
}

// Snapshot returns a copy of the current counters.
func (mc *MetricsCollector) Snapshot() Snapshot {
	mc.mu.RLock()
	byLabel := make(map[string]int64, len(mc.byLabel))
	for label, n := range mc.byLabel {
		byLabel[label] = n
	}
	samples := append([]time.Duration(nil), mc.latencies...)
	snap := Snapshot{
		UptimeSeconds: time.Since(mc.startTime).Seconds(),
		Predictions:   mc.predictions,
		Errors:        mc.failures,
		CacheHits:     mc.cacheHits,
		ByLabel:       byLabel,
	}
	mc.mu.RUnlock()

	snap.Latency = summarize(samples)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	snap.HeapAlloc = m.HeapAlloc
	snap.Goroutines = runtime.NumGoroutine()
	return snap
}

func summarize(samples []time.Duration) LatencySummary {
	if len(samples) == 0 {
		return LatencySummary{}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	sum := time.Duration(0)
	for _, s := range samples {
		sum += s
	}
	return LatencySummary{
		Count:   len(samples),
		Min:     millis(samples[0]),
		Max:     millis(samples[len(samples)-1]),
		Average: millis(sum) / float64(len(samples)),
		P50:     millis(percentile(samples, 0.50)),
		P95:     millis(percentile(samples, 0.95)),
	}
}

// percentile uses the nearest-rank method on sorted samples.
func percentile(sorted []time.Duration, p float64) time.Duration {
	rank := int(p*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// ExportPrometheus renders the snapshot in the Prometheus text format.
func (s Snapshot) ExportPrometheus() string {
	var b strings.Builder
	write := func(name, kind, help string, value float64) {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s %s\n%s %v\n", name, help, name, kind, name, value)
	}
	write("predict_requests_total", "counter", "Successful predictions", float64(s.Predictions))
	write("predict_errors_total", "counter", "Predictions answered with an error body", float64(s.Errors))
	write("predict_cache_hits_total", "counter", "Predictions served from the cache", float64(s.CacheHits))

	labels := make([]string, 0, len(s.ByLabel))
	for label := range s.ByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	b.WriteString("# HELP predict_label_total Predictions per disease label\n# TYPE predict_label_total counter\n")
	for _, label := range labels {
		fmt.Fprintf(&b, "predict_label_total{label=%q} %d\n", label, s.ByLabel[label])
	}

	write("predict_latency_p95_ms", "gauge", "95th percentile latency over the recent window", s.Latency.P95)
	write("process_uptime_seconds", "gauge", "Seconds since start", s.UptimeSeconds)
	write("process_goroutines", "gauge", "Number of goroutines", float64(s.Goroutines))
	return b.String()
}
