package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric label values.
const (
	OutcomeAvailable   = "available"
	OutcomeUnavailable = "unavailable"
	OutcomeHTTPError   = "http_error"
	OutcomeSaved       = "saved"
	OutcomeTooSmall    = "too_small"
)

// Metrics holds the Prometheus counters and histograms for a pipeline run.
type Metrics struct {
	DepartmentsFetched prometheus.Counter
	RecordsFetched     prometheus.Counter
	RecordsNoCoords    prometheus.Counter

	RecordsCapped  prometheus.Counter
	MetadataChecks *prometheus.CounterVec // labels: outcome={available,unavailable,http_error}
	ImageDownloads *prometheus.CounterVec // labels: outcome={saved,too_small,http_error}
	RowsWritten    prometheus.Counter
	RowsDropped    prometheus.Counter

	RecordsConverted prometheus.Counter
	RecordsPublished prometheus.Counter

	StageDuration *prometheus.HistogramVec // labels: stage={fetch,enrich,convert,publish}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.DepartmentsFetched,
		m.RecordsFetched,
		m.RecordsNoCoords,
		m.RecordsCapped,
		m.MetadataChecks,
		m.ImageDownloads,
		m.RowsWritten,
		m.RowsDropped,
		m.RecordsConverted,
		m.RecordsPublished,
		m.StageDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DepartmentsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substation_etl",
			Name:      "departments_fetched_total",
			Help:      "Departments queried from the open-data catalog.",
		}),
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substation_etl",
			Name:      "records_fetched_total",
			Help:      "Geolocated records kept from catalog responses.",
		}),
		RecordsNoCoords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substation_etl",
			Name:      "records_missing_coordinates_total",
			Help:      "Catalog records dropped for a missing latitude or longitude.",
		}),
		RecordsCapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substation_etl",
			Name:      "records_capped_total",
			Help:      "Records skipped because their department reached the cap.",
		}),
		MetadataChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "substation_etl",
			Name:      "metadata_checks_total",
			Help:      "Imagery metadata lookups by outcome.",
		}, []string{"outcome"}),
		ImageDownloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "substation_etl",
			Name:      "image_downloads_total",
			Help:      "Image downloads by outcome.",
		}, []string{"outcome"}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substation_etl",
			Name:      "rows_written_total",
			Help:      "Enriched rows written to the CSV file.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substation_etl",
			Name:      "rows_dropped_total",
			Help:      "Records dropped because no valid image was found.",
		}),
		RecordsConverted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substation_etl",
			Name:      "records_converted_total",
			Help:      "Rows converted from CSV to JSON.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "substation_etl",
			Name:      "records_published_total",
			Help:      "Final records published to Kafka.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "substation_etl",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   []float64{0.1, 1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		}, []string{"stage"}),
	}
}
