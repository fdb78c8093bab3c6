package diag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every hardlo metric; it is process wide and not the
// prometheus default registry, so no Go runtime collectors are exported.
var Registry = prometheus.NewRegistry()

var (
	// opTotal: comp, stage (bin|write|run), result (success|error).
	opTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "hardlo_op_total",
		Help: "Operations by component, stage and result.",
	}, []string{"comp", "stage", "result"})

	errorTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "hardlo_error_total",
		Help: "Errors by component and classification code.",
	}, []string{"comp", "code"})

	opDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hardlo_op_duration_ms",
		Help:    "Stage duration in milliseconds.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"comp", "stage"})

	// samplesTotal exposes the kinematic rejection rate.
	samplesTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "hardlo_samples_total",
		Help: "Monte Carlo draws by outcome (accepted|rejected).",
	}, []string{"result"})

	degenerateBins = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "hardlo_degenerate_bins_total",
		Help: "Integrated bins without a single admissible draw.",
	})
)

// IncOp counts an operation (result=success|error).
func IncOp(comp, stage, result string) { opTotal.WithLabelValues(comp, stage, result).Inc() }

// IncError counts an error by classification.
func IncError(comp, code string) { errorTotal.WithLabelValues(comp, code).Inc() }

// ObserveDuration records a stage duration in milliseconds.
func ObserveDuration(comp, stage string, durMS int64) {
	opDuration.WithLabelValues(comp, stage).Observe(float64(durMS))
}

// AddSamples adds one bin's draw counts.
func AddSamples(accepted, rejected int64) {
	samplesTotal.WithLabelValues("accepted").Add(float64(accepted))
	samplesTotal.WithLabelValues("rejected").Add(float64(rejected))
}

func IncDegenerate() { degenerateBins.Inc() }

// WriteTextfile dumps Registry in the node-exporter textfile format.
func WriteTextfile(path string) error { return prometheus.WriteToTextfile(path, Registry) }
