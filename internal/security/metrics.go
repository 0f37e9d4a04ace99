package security

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// ControllerLatency records controller operation latency, labelled by
	// operation and outcome.
	ControllerLatency *prometheus.HistogramVec

	journalRecordsWritten *prometheus.CounterVec
	journalWriteErrors    prometheus.Counter
	journalQueueDepth     prometheus.Gauge
	journalReplayRecords  *prometheus.CounterVec
)

var validLabelKey = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParseMetricsLabels parses a comma-separated list of key=value pairs into
// Prometheus labels. Values support ${VAR} / $VAR environment variable expansion.
// Label values may not contain commas. Returns nil for an empty string.
func ParseMetricsLabels(s string) (prometheus.Labels, error) {
	s = os.Expand(s, os.Getenv)
	if s == "" {
		return nil, nil
	}
	labels := prometheus.Labels{}
	for _, pair := range strings.Split(s, ",") {
		idx := strings.IndexByte(pair, '=')
		if idx < 0 {
			return nil, fmt.Errorf("invalid label %q: expected key=value", pair)
		}
		k, v := pair[:idx], pair[idx+1:]
		if !validLabelKey.MatchString(k) {
			return nil, fmt.Errorf("invalid label key %q: must match [a-zA-Z_][a-zA-Z0-9_]*", k)
		}
		labels[k] = v
	}
	return labels, nil
}

var initMetricsOnce sync.Once

// InitMetrics registers all Prometheus metrics with the given constant labels.
// Safe to call multiple times; only the first call registers. Until it is
// called every recording helper below is a no-op.
func InitMetrics(constLabels prometheus.Labels) {
	initMetricsOnce.Do(func() {
		initMetricsInner(constLabels)
	})
}

func initMetricsInner(constLabels prometheus.Labels) {
	reg := prometheus.WrapRegistererWith(constLabels, prometheus.DefaultRegisterer)
	f := promauto.With(reg)

	httpRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_server_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	ControllerLatency = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_server_controller_latency_seconds",
			Help:    "Controller operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "outcome"},
	)

	journalRecordsWritten = f.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_server_journal_records_written_total",
		Help: "Records appended to the journal, by kind",
	}, []string{"kind"})

	journalWriteErrors = f.NewCounter(prometheus.CounterOpts{
		Name: "chat_server_journal_write_errors_total",
		Help: "Journal records that could not be written",
	})

	journalQueueDepth = f.NewGauge(prometheus.GaugeOpts{
		Name: "chat_server_journal_queue_depth",
		Help: "Records waiting in the journal queue",
	})

	journalReplayRecords = f.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_server_journal_replay_records_total",
		Help: "Records read during startup replay, by result",
	}, []string{"result"})
}

// ObserveOperation records the latency of a controller operation.
func ObserveOperation(op string, start time.Time, err error) {
	if ControllerLatency == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	ControllerLatency.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

// JournalWritten counts a record appended to the journal.
func JournalWritten(kind string) {
	if journalRecordsWritten != nil {
		journalRecordsWritten.WithLabelValues(kind).Inc()
	}
}

// JournalWriteFailed counts a record that could not be appended.
func JournalWriteFailed() {
	if journalWriteErrors != nil {
		journalWriteErrors.Inc()
	}
}

// JournalQueueDepth reports the number of records waiting to be written.
func JournalQueueDepth(n int) {
	if journalQueueDepth != nil {
		journalQueueDepth.Set(float64(n))
	}
}

// JournalReplayed counts replayed records by result (applied, skipped).
func JournalReplayed(result string, n int64) {
	if journalReplayRecords != nil && n > 0 {
		journalReplayRecords.WithLabelValues(result).Add(float64(n))
	}
}

// MetricsMiddleware records HTTP request metrics for Prometheus.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if httpRequestsTotal == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		httpRequestsTotal.WithLabelValues(c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method).Observe(duration.Seconds())
	}
}
