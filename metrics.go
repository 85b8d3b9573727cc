package swiftdsv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector wraps the handful of prometheus series a Reader's ingestion
// pipeline can usefully report. Unlike a global package-wide collector, each
// Reader that wants metrics constructs its own Collector via NewCollector so
// concurrent Readers in the same process don't need label plumbing to stay
// distinguishable — the name parameter is the label.
type Collector struct {
	name        string
	rowsParsed  *prometheus.CounterVec
	rowsCorrect *prometheus.CounterVec
	rowsBad     *prometheus.CounterVec
	queueDepth  *prometheus.GaugeVec
}

var (
	rowsParsedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swiftdsv_rows_parsed_total",
		Help: "Total rows the parser finalized, correct or bad.",
	}, []string{"source"})
	rowsCorrectTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swiftdsv_rows_correct_total",
		Help: "Total rows accepted with a field count matching the column count.",
	}, []string{"source"})
	rowsBadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swiftdsv_rows_bad_total",
		Help: "Total rows dropped for a mismatched field count (non-strict mode).",
	}, []string{"source"})
	feedQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "swiftdsv_feed_queue_depth",
		Help: "Chunks currently buffered in the ingestion pipeline's feed queue.",
	}, []string{"source"})
)

// NewCollector builds a Collector labeled with source (typically a file
// path or stream name).
func NewCollector(source string) *Collector {
	return &Collector{
		name:        source,
		rowsParsed:  rowsParsedTotal,
		rowsCorrect: rowsCorrectTotal,
		rowsBad:     rowsBadTotal,
		queueDepth:  feedQueueDepth,
	}
}

func (c *Collector) observeRow(correct bool) {
	if c == nil {
		return
	}
	c.rowsParsed.WithLabelValues(c.name).Inc()
	if correct {
		c.rowsCorrect.WithLabelValues(c.name).Inc()
	} else {
		c.rowsBad.WithLabelValues(c.name).Inc()
	}
}

func (c *Collector) setQueueDepth(depth int) {
	if c == nil {
		return
	}
	c.queueDepth.WithLabelValues(c.name).Set(float64(depth))
}
