package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the scan loop. All counters
// and gauges are registered on the passed registry so tests can use an
// isolated one.
type Metrics struct {
	ScanCycles        prometheus.Counter
	ScanCycleDuration prometheus.Histogram
	SignalsEmitted    *prometheus.CounterVec
	TradesExecuted    *prometheus.CounterVec
	SymbolsSkipped    *prometheus.CounterVec
	OpenPositions     prometheus.Gauge
	OperationDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ScanCycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "scanner_cycles_total",
			Help: "Completed scan cycles.",
		}),
		ScanCycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scanner_cycle_duration_seconds",
			Help:    "Wall time of one full scan cycle.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		SignalsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_signals_total",
			Help: "Signals emitted by kind.",
		}, []string{"kind"}),
		TradesExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_trades_total",
			Help: "Executed trades by side.",
		}, []string{"side"}),
		SymbolsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_symbols_skipped_total",
			Help: "Symbols skipped during a cycle, by reason.",
		}, []string{"reason"}),
		OpenPositions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scanner_open_positions",
			Help: "Currently open positions.",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scanner_operation_duration_seconds",
			Help:    "Duration of external operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}
