package diag

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Capturer records unrecovered failures in the process log and the
// exceptions counter, with job context attached.
type Capturer struct {
	exceptions *prometheus.CounterVec
}

// NewCapturer creates a diagnostic capturer registered against reg
func NewCapturer(reg prometheus.Registerer) *Capturer {
	exceptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_exceptions_total",
		Help: "Unrecovered import workflow failures",
	}, []string{"kind"})

	if reg != nil {
		reg.MustRegister(exceptions)
	}

	return &Capturer{exceptions: exceptions}
}

// CaptureException records one unrecovered failure with its context
func (c *Capturer) CaptureException(ctx context.Context, err error, tags map[string]string) {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+tags[k])
	}

	log.Printf("EXCEPTION %v (%s)", err, strings.Join(parts, " "))
	c.exceptions.WithLabelValues("workflow_failure").Inc()
}
