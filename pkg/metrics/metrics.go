// Package metrics 记录排序运行的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder 持有一组排序相关的指标。
// 每个 Recorder 注册到自己的 Registerer，测试中可以使用独立的 prometheus.NewRegistry()。
type Recorder struct {
	RankDuration    *prometheus.HistogramVec
	RankTotal       *prometheus.CounterVec
	CatalogSize     prometheus.Histogram
	Segments        prometheus.Histogram
	ExpectedRevenue prometheus.Gauge
	Filtered        *prometheus.CounterVec
}

// NewRecorder 创建并注册指标；reg 为 nil 时使用 prometheus.DefaultRegisterer。
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		RankDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "revrank_rank_duration_seconds",
				Help:    "Duration of ranking runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		RankTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revrank_rank_total",
				Help: "Total number of ranking runs",
			},
			[]string{"source", "status"},
		),
		CatalogSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "revrank_catalog_size",
				Help:    "Number of products in ranked catalogs",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		Segments: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "revrank_segments",
				Help:    "Number of best-x iterations per ranking run",
				Buckets: prometheus.LinearBuckets(1, 1, 10),
			},
		),
		ExpectedRevenue: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "revrank_expected_revenue",
				Help: "Expected revenue of the most recent ranking",
			},
		),
		Filtered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revrank_filtered_items_total",
				Help: "Total number of items removed by filters",
			},
			[]string{"filter"},
		),
	}
}

// RecordRank 记录一次排序运行。err 非 nil 时只计数，不更新结果指标。
func (r *Recorder) RecordRank(source string, catalogSize, segments int, expectedRevenue float64, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.RankDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		r.RankTotal.WithLabelValues(source, "error").Inc()
		return
	}
	r.RankTotal.WithLabelValues(source, "ok").Inc()
	r.CatalogSize.Observe(float64(catalogSize))
	r.Segments.Observe(float64(segments))
	r.ExpectedRevenue.Set(expectedRevenue)
}

// RecordFiltered 记录被过滤器移除的 item 数。
func (r *Recorder) RecordFiltered(filter string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.Filtered.WithLabelValues(filter).Add(float64(n))
}
