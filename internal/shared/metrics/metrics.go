package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the posting pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CyclesTotal       *prometheus.CounterVec
	GroupsTotal       *prometheus.CounterVec
	FileMovesTotal    *prometheus.CounterVec
	CompressionsTotal *prometheus.CounterVec
	ActiveChannels    prometheus.Gauge
	CycleDuration     prometheus.Histogram
}

// New registers the pipeline metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CyclesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "autoposter_cycles_total",
			Help: "Posting cycles by result",
		}, []string{"result"}),
		GroupsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "autoposter_groups_total",
			Help: "Processed file groups by outcome",
		}, []string{"outcome"}),
		FileMovesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "autoposter_file_moves_total",
			Help: "File moves out of source by destination and result",
		}, []string{"folder", "result"}),
		CompressionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "autoposter_compressions_total",
			Help: "Image compressions by whether the result fits the size limit",
		}, []string{"fits"}),
		ActiveChannels: f.NewGauge(prometheus.GaugeOpts{
			Name: "autoposter_active_channels",
			Help: "Channels with a registered posting timer",
		}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "autoposter_cycle_duration_seconds",
			Help:    "Duration of posting cycles",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) RecordCycle(result string, seconds float64) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(seconds)
}

func (m *Metrics) RecordGroup(outcome string) {
	if m == nil {
		return
	}
	m.GroupsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordMove(folder string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.FileMovesTotal.WithLabelValues(folder, result).Inc()
}

func (m *Metrics) RecordCompression(fits bool) {
	if m == nil {
		return
	}
	label := "true"
	if !fits {
		label = "false"
	}
	m.CompressionsTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) SetActiveChannels(n int) {
	if m == nil {
		return
	}
	m.ActiveChannels.Set(float64(n))
}
