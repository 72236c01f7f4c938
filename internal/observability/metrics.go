package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ftms_frames_decoded_total",
		Help: "Notifications decoded successfully, by dialect",
	}, []string{"dialect"})
	FramesMalformed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ftms_frames_malformed_total",
		Help: "Notifications dropped as malformed, by dialect",
	}, []string{"dialect"})
	UpdatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ftms_updates_dropped_total",
		Help: "Decoded updates dropped because the consumer was not reading",
	})
	DecodeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ftms_decode_latency_seconds",
		Help:    "Time spent decoding one notification",
		Buckets: []float64{1e-7, 1e-6, 1e-5, 1e-4, 1e-3},
	})
)

func ObserveDecodeLatency(start time.Time) {
	DecodeLatency.Observe(time.Since(start).Seconds())
}

// StartMetricsServer serves /metrics and /healthz on addr. It blocks.
func StartMetricsServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return http.ListenAndServe(addr, mux)
}
