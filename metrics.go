package queueindex

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors a State reports through, if
// configured via Options.Metrics. All fields are safe to share across
// every queue's State in a broker process; the queue name is a label, not
// part of the collector identity.
type Metrics struct {
	liveMessages    *prometheus.GaugeVec
	journaledAcks   *prometheus.GaugeVec
	flushDuration   prometheus.Histogram
	segmentsDeleted *prometheus.CounterVec
}

// NewMetrics builds a Metrics and, if reg is non-nil, registers its
// collectors with it.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		liveMessages: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "qindex_live_messages",
			Help: "Live (un-acked) entries currently recorded in a queue's index.",
		}, []string{"queue"}),
		journaledAcks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "qindex_journaled_acks",
			Help: "Acks buffered in the ack journal awaiting scatter into their segments.",
		}, []string{"queue"}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qindex_flush_duration_seconds",
			Help:    "Duration of one flush_journal call.",
			Buckets: prometheus.DefBuckets,
		}),
		segmentsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qindex_segments_deleted_total",
			Help: "Segment files deleted after becoming fully acked.",
		}, []string{"queue"}),
	}
	if reg != nil {
		reg.MustRegister(m.liveMessages, m.journaledAcks, m.flushDuration, m.segmentsDeleted)
	}
	return m
}
