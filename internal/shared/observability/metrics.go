package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "koinlint_parsing_seconds",
		Help:    "Time spent parsing a Kotlin source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	ParseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "koinlint_parse_errors_total",
		Help: "Total number of files that could not be read or parsed.",
	}, []string{"backend"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "koinlint_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	FilesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "koinlint_files_analyzed_total",
		Help: "Total number of Kotlin files analyzed.",
	})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "koinlint_findings_total",
		Help: "Total number of findings reported, by rule.",
	}, []string{"rule"})

	ModuleNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "koinlint_module_nodes",
		Help: "Number of Koin module blocks found by the last run.",
	})

	BindingRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "koinlint_binding_records",
		Help: "Number of binding records extracted by the last run.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "koinlint_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatchRunsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "koinlint_watch_runs_throttled_total",
		Help: "Total number of watch re-analyses delayed by the rate limiter.",
	})

	HistoryWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "koinlint_history_write_errors_total",
		Help: "Total number of failed run history writes.",
	})
)
