package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const NAMESPACE = "uevent_monitor"

// uevent 処理の各段階のカウンター
type Metrics struct {
	Received    *prometheus.CounterVec
	Parsed      *prometheus.CounterVec
	ParseErrors *prometheus.CounterVec
	Incomplete  *prometheus.CounterVec
	Filtered    *prometheus.CounterVec
	Dispatched  *prometheus.CounterVec
}

// 新しいMetricsを作成して登録
func New(reg prometheus.Registerer) *Metrics {
	newCounter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Name:      name,
			Help:      help,
		}, []string{"module"})
	}

	m := &Metrics{
		Received:    newCounter("received_total", "Raw uevent messages received from the source."),
		Parsed:      newCounter("parsed_total", "Raw uevent messages parsed successfully."),
		ParseErrors: newCounter("parse_errors_total", "Raw uevent messages rejected by the parser."),
		Incomplete:  newCounter("incomplete_total", "Parsed uevents missing ACTION, DEVPATH or SUBSYSTEM."),
		Filtered:    newCounter("filtered_total", "Parsed uevents dropped by the subsystem filter."),
		Dispatched:  newCounter("dispatched_total", "Device events handed to the event dispatcher."),
	}

	if reg != nil {
		reg.MustRegister(m.Received, m.Parsed, m.ParseErrors, m.Incomplete, m.Filtered, m.Dispatched)
	}

	return m
}

// メトリクスを公開するHTTPハンドラーを作成
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
