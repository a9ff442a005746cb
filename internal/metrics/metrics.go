package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"net/http"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "radar_scan_duration_seconds",
			Help:    "Duration of one saved-search scan in seconds.",
			Buckets: []float64{1, 5, 15, 30, 60, 120},
		},
	)
	ScansCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_scans_total",
			Help: "Total number of scan runs by stop reason.",
		},
		[]string{"stop_reason"},
	)
	NewListingsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "radar_new_listings_total",
			Help: "Total number of newly detected listings that passed filters.",
		},
	)
	SourceRequestsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "radar_source_requests_total",
			Help: "Total number of requests sent toward the source site.",
		},
	)
)

func StartMetricsServer() {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(ScanDuration)
	prometheus.MustRegister(ScansCounter)
	prometheus.MustRegister(NewListingsCounter)
	prometheus.MustRegister(SourceRequestsCounter)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(":8080", nil))
	}()
}
