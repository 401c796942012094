// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caregiver_faces_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "caregiver_faces_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RecognitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caregiver_faces_recognitions_total",
			Help: "Recognition attempts by result (recognized, unknown, empty) and role.",
		},
		[]string{"result", "role"},
	)

	RecognitionSimilarity = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "caregiver_faces_recognition_similarity",
			Help:    "Best cosine similarity of each recognition attempt.",
			Buckets: prometheus.LinearBuckets(0, 0.05, 21),
		},
	)

	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caregiver_faces_registrations_total",
			Help: "Face registrations by role and status.",
		},
		[]string{"role", "status"},
	)

	ExtractionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "caregiver_faces_extraction_duration_seconds",
			Help:    "Time spent computing a face embedding.",
			Buckets: prometheus.DefBuckets,
		},
	)

	ExtractionErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "caregiver_faces_extraction_errors_total",
			Help: "Total number of failed embedding extractions.",
		},
	)

	RegisteredFaces = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "caregiver_faces_registered",
			Help: "Number of faces currently registered.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RecognitionsTotal,
		RecognitionSimilarity,
		RegistrationsTotal,
		ExtractionDuration,
		ExtractionErrorsTotal,
		RegisteredFaces,
	)
}
