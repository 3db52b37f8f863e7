// Package metrics содержит метрики обработки пакетов платежей.
package metrics

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MetricsSubsystem общая для всех метрик пакета
const MetricsSubsystem = "boost"

// Metrics содержит метрики диспетчера платежей
type Metrics struct {
	// Количество обработанных пакетов, метка status: ok|error
	Batches metrics.Counter
	// Количество отправленных платежей, метки kind: bolt11|keysend
	Payments metrics.Counter
	// Количество ошибок, метка phase: resolve|pay_invoice|pay_keysends
	Failures metrics.Counter
	// Размер входящего пакета
	BatchSize metrics.Histogram
	// Время обработки пакета в секундах
	DispatchTime metrics.Histogram
	// Сумма отправленных платежей в сатоши
	SentSats metrics.Counter
}

// PrometheusMetrics возвращает метрики, зарегистрированные в реестре Prometheus по умолчанию.
// Дополнительно можно передать пары меток и значений ("foo", "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Batches: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batches_total",
			Help:      "Number of dispatched payment batches.",
		}, withLabel(labels, "status")).With(labelsAndValues...),
		Payments: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "payments_total",
			Help:      "Number of submitted payments.",
		}, withLabel(labels, "kind")).With(labelsAndValues...),
		Failures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "failures_total",
			Help:      "Number of aborted batches by failing phase.",
		}, withLabel(labels, "phase")).With(labelsAndValues...),
		BatchSize: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batch_size",
			Help:      "Number of recipients in a batch.",
			Buckets:   stdprometheus.LinearBuckets(1, 5, 10),
		}, labels).With(labelsAndValues...),
		DispatchTime: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "dispatch_time_seconds",
			Help:      "Time spent dispatching a batch.",
			Buckets:   stdprometheus.DefBuckets,
		}, labels).With(labelsAndValues...),
		SentSats: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "sent_sats_total",
			Help:      "Total amount of submitted payments in satoshis.",
		}, withLabel(labels, "kind")).With(labelsAndValues...),
	}
}

// NopMetrics возвращает метрики-заглушки
func NopMetrics() *Metrics {
	return &Metrics{
		Batches:      discard.NewCounter(),
		Payments:     discard.NewCounter(),
		Failures:     discard.NewCounter(),
		BatchSize:    discard.NewHistogram(),
		DispatchTime: discard.NewHistogram(),
		SentSats:     discard.NewCounter(),
	}
}

func withLabel(labels []string, label string) []string {
	out := make([]string, 0, len(labels)+1)
	out = append(out, labels...)
	return append(out, label)
}
