package blkcopy

import "github.com/prometheus/client_golang/prometheus"

// PrometheusObserver exports engine metrics through a Prometheus registry.
// Hosts that already scrape Prometheus can plug this in as Options.Observer
// instead of polling MetricsSnapshot.
type PrometheusObserver struct {
	submissions   *prometheus.CounterVec
	errors        *prometheus.CounterVec
	ranges        prometheus.Counter
	bytes         prometheus.Counter
	partialWrites prometheus.Counter
	latency       *prometheus.HistogramVec
}

// NewPrometheusObserver creates and registers the engine's collectors.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blkcopy",
			Name:      "submissions_total",
			Help:      "Copy submissions by dispatch path.",
		}, []string{"path"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blkcopy",
			Name:      "submission_errors_total",
			Help:      "Failed copy submissions by dispatch path.",
		}, []string{"path"}),
		ranges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blkcopy",
			Name:      "ranges_copied_total",
			Help:      "Fully completed range entries.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blkcopy",
			Name:      "bytes_copied_total",
			Help:      "Bytes durably copied, including partial writes.",
		}),
		partialWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blkcopy",
			Name:      "partial_writes_total",
			Help:      "Submissions ended by a short write.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "blkcopy",
			Name:      "submission_latency_seconds",
			Help:      "Submission latency by dispatch path.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 10, 8),
		}, []string{"path"}),
	}

	reg.MustRegister(o.submissions, o.errors, o.ranges, o.bytes,
		o.partialWrites, o.latency)
	return o
}

func (o *PrometheusObserver) observe(path string, latencyNs uint64, success bool) {
	o.submissions.WithLabelValues(path).Inc()
	if !success {
		o.errors.WithLabelValues(path).Inc()
	}
	o.latency.WithLabelValues(path).Observe(float64(latencyNs) / 1e9)
}

func (o *PrometheusObserver) ObserveOffload(bytes uint64, latencyNs uint64, success bool) {
	o.observe("offload", latencyNs, success)
}

func (o *PrometheusObserver) ObserveEmulated(bytes uint64, latencyNs uint64, success bool) {
	o.observe("emulated", latencyNs, success)
}

func (o *PrometheusObserver) ObserveRange(completed uint64) {
	o.ranges.Inc()
	o.bytes.Add(float64(completed))
}

func (o *PrometheusObserver) ObservePartialWrite(written uint64) {
	o.partialWrites.Inc()
	o.bytes.Add(float64(written))
}

// Compile-time interface check
var _ Observer = (*PrometheusObserver)(nil)
