package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversionsExecDurations is a histogram of the durations of the artifact
// generations, labelled by artifact kind (pdf, thumbnail, text) and result.
var ConversionsExecDurations = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "conversions",
		Subsystem: "exec",
		Name:      "durations",

		Help: "Durations of the artifact generations, labelled by artifact and result",

		// A mail rendition should take a few seconds at most, but Gotenberg
		// can be slow under load, so the range goes up to one minute.
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 9),
	},
	[]string{"artifact", "result"},
)

// ConversionsExecCounter is a counter of the artifact generations, labelled
// by artifact kind and result.
var ConversionsExecCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "conversions",
		Subsystem: "exec",
		Name:      "count",

		Help: "Number of artifact generations, labelled by artifact and result",
	},
	[]string{"artifact", "result"},
)

func init() {
	prometheus.MustRegister(
		ConversionsExecDurations,
		ConversionsExecCounter,
	)
}
