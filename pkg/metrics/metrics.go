package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Global metrics, registered through promauto on package init.

var (
	// 1. HTTP Requests Total (Counter)
	// Counts requests by method, route pattern and status code.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lightpath_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// 2. HTTP Request Duration (Histogram)
	// Enhancement submissions return fast; photo uploads wait on depth and line servers.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lightpath_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// 3. Placement pass duration (Histogram)
	// One observation per PlaceAll call.
	PlacementDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lightpath_placement_duration_seconds",
			Help:    "Duration of a full light placement pass",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	// 4. Lights placed by the last pass (Gauge)
	LightsPlaced = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lightpath_lights_placed",
			Help: "Number of lights produced by the most recent placement pass",
		},
	)

	// 5. Networks in the graph (Gauge)
	Networks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lightpath_networks",
			Help: "Number of spline networks seen by the most recent placement pass",
		},
	)

	// 6. Animation frames (Counter)
	FramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lightpath_frames_total",
			Help: "Total number of animation frames produced",
		},
	)

	// 7. Enhancement outcomes (Counter)
	// outcome is one of "enhanced", "fallback".
	EnhanceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lightpath_enhance_total",
			Help: "Enhancement requests by outcome",
		},
		[]string{"outcome"},
	)

	// 8. Provider fallbacks (Counter)
	// provider is "depth" or "lines".
	ProviderFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lightpath_provider_fallbacks_total",
			Help: "Times a depth or line server failed and placeholder data was used",
		},
		[]string{"provider"},
	)
)
