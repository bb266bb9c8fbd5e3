package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments import job outcomes
type Metrics struct {
	PagesCreated   prometheus.Counter
	PagesFailed    prometheus.Counter
	ImagesUploaded prometheus.Counter
	JobsTotal      *prometheus.CounterVec
	JobDuration    prometheus.Histogram
}

// New creates the import metrics and registers them against reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PagesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "import_pages_created_total",
			Help: "Pages created by import jobs",
		}),
		PagesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "import_pages_failed_total",
			Help: "Markdown files that failed to materialize",
		}),
		ImagesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "import_images_uploaded_total",
			Help: "Images uploaded by import jobs",
		}),
		JobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "import_jobs_total",
			Help: "Import jobs by final status",
		}, []string{"status"}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "import_job_duration_seconds",
			Help:    "Wall time of import jobs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}

	if reg != nil {
		reg.MustRegister(m.PagesCreated, m.PagesFailed, m.ImagesUploaded, m.JobsTotal, m.JobDuration)
	}

	return m
}

// ObserveSummary records the per-file counters for one finished job
func (m *Metrics) ObserveSummary(pagesCreated, pagesFailed, imagesUploaded int) {
	m.PagesCreated.Add(float64(pagesCreated))
	m.PagesFailed.Add(float64(pagesFailed))
	m.ImagesUploaded.Add(float64(imagesUploaded))
}

// Nop returns metrics that are not registered anywhere.
// Handy for tests and for callers that don't scrape.
func Nop() *Metrics {
	return New(nil)
}
