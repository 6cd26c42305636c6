package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// PhotosIngested результат загрузки: ok, unauthorized, bad_request, upload_failed, persist_failed
	PhotosIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photos_ingested_total",
			Help: "Photo ingestion attempts by outcome",
		},
		[]string{"outcome"},
	)

	EnrichmentSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_geocode_skipped_total",
			Help: "Reverse geocoding failures replaced by the fallback location",
		},
	)

	GeocodeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_cache_hits_total",
			Help: "Reverse geocoding answers served from cache",
		},
	)

	TagLinkFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_tag_link_failures_total",
			Help: "Tags that could not be linked to an ingested photo",
		},
	)

	OrphansSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orphan_objects_deleted_total",
			Help: "Stored objects removed because no photo references them",
		},
	)

	ProfileChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_changes_total",
			Help: "Profile updates by field and final state",
		},
		[]string{"field", "state"},
	)
)
