package prom

import (
	"fmt"
	"sync"

	xhttp "github.com/nimasrn/classroom-points/pkg/http"
	"github.com/nimasrn/classroom-points/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemPurchase     = "purchase"
	SystemBalance      = "balance"
	SystemNotification = "notification"
)

const (
	MetricRequestsTotal        = "requests_total"
	MetricResolutionsTotal     = "resolutions_total"
	MetricCompensationsTotal   = "compensations_total"
	MetricResolveDuration      = "resolve_duration_seconds"
	MetricMutationsTotal       = "mutations_total"
	MetricDeliveriesTotal      = "deliveries_total"
	MetricDeliveryDuration     = "delivery_duration_seconds"
	MetricEventsPublishedTotal = "events_published_total"
)

const (
	TypeCounter      = "counter"
	TypeCounterVec   = "counterVec"
	TypeHistogram    = "histogram"
	TypeHistogramVec = "histogramVec"
	TypeGaugeVec     = "gaugeVec"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var registry = prometheus.NewRegistry()

var MetricCollectionCounters = make(map[string]prometheus.Counter)
var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionGaugeVec = make(map[string]*prometheus.GaugeVec)
var MetricCollectionHistogram = make(map[string]prometheus.Histogram)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// Create registers every metric the services record. Calling it again
// replaces the registry.
func Create(host string, env string, nameSpace string) error {
	lockCreateMetricLock.Lock()
	defaultLabels = prometheus.Labels{"env": env, "instance": host}
	namespace = nameSpace
	registry = prometheus.NewRegistry()
	MetricCollectionCounters = make(map[string]prometheus.Counter)
	MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
	MetricCollectionGaugeVec = make(map[string]*prometheus.GaugeVec)
	MetricCollectionHistogram = make(map[string]prometheus.Histogram)
	MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)
	lockCreateMetricLock.Unlock()

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(registry.Register(collectors.NewGoCollector()))

	hasError(createCounterVec(SystemPurchase, MetricRequestsTotal, []string{"outcome"}))
	hasError(createCounterVec(SystemPurchase, MetricResolutionsTotal, []string{"decision", "outcome"}))
	hasError(createCounterVec(SystemPurchase, MetricCompensationsTotal, []string{"outcome"}))
	hasError(createCounterVec(SystemPurchase, MetricEventsPublishedTotal, []string{"type", "outcome"}))
	hasError(createHistogramVec(SystemPurchase, MetricResolveDuration, []string{"decision"}))

	hasError(createCounterVec(SystemBalance, MetricMutationsTotal, []string{"kind"}))

	hasError(createCounterVec(SystemNotification, MetricDeliveriesTotal, []string{"event", "status"}))
	hasError(createHistogramVec(SystemNotification, MetricDeliveryDuration, []string{"event"}))

	if err == nil {
		MetricSystemEnabled = true
	}
	return err
}

func CreateMetric(metricType, metricSubsystem, metricName string, labelsValues ...string) error {
	switch metricType {
	case TypeCounter:
		return createCounter(metricSubsystem, metricName)
	case TypeCounterVec:
		return createCounterVec(metricSubsystem, metricName, labelsValues)
	case TypeHistogram:
		return createHistogram(metricSubsystem, metricName)
	case TypeHistogramVec:
		return createHistogramVec(metricSubsystem, metricName, labelsValues)
	case TypeGaugeVec:
		return createGaugeVec(metricSubsystem, metricName, labelsValues)
	}
	return fmt.Errorf("metric type %s is not defined", metricType)
}

// Registry exposes the registry that Create populated.
func Registry() *prometheus.Registry {
	return registry
}

func ListenAndServer(addr string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s := xhttp.CreateServer()
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "addr", addr, "url", url)
	if err := s.ListenAndServe(addr); err != nil {
		logger.Error("[metrics-server] http listen error", "error", err)
	}
}

func createCounter(subsystem, name string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounters[subsystem+name] = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	})
	return registry.Register(MetricCollectionCounters[subsystem+name])
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounterVec[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}, labels)
	return registry.Register(MetricCollectionCounterVec[subsystem+name])
}

func createHistogram(subsystem, name string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogram[subsystem+name] = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	})
	return registry.Register(MetricCollectionHistogram[subsystem+name])
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogramVec[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	}, labels)
	return registry.Register(MetricCollectionHistogramVec[subsystem+name])
}

func createGaugeVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionGaugeVec[subsystem+name] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}, labels)
	return registry.Register(MetricCollectionGaugeVec[subsystem+name])
}

func IncCounter(subsystem, name string) {
	AddCounter(subsystem, name, 1)
}

func AddCounter(subsystem, name string, number float64) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounters[subsystem+name]; ok {
		v.Add(number)
		return
	}
	logger.Warn("[metrics-server] counter not found", "subsystem", subsystem, "name", name)
}

func AddGaugeVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionGaugeVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] gauge not found", "subsystem", subsystem, "name", name)
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionHistogramVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

func IncPurchaseRequest(outcome string) {
	IncCounterVec(SystemPurchase, MetricRequestsTotal, outcome)
}

func IncPurchaseResolution(decision, outcome string) {
	IncCounterVec(SystemPurchase, MetricResolutionsTotal, decision, outcome)
}

func IncCompensation(outcome string) {
	IncCounterVec(SystemPurchase, MetricCompensationsTotal, outcome)
}

func IncEventPublished(eventType, outcome string) {
	IncCounterVec(SystemPurchase, MetricEventsPublishedTotal, eventType, outcome)
}

func AddResolveDuration(seconds float64, decision string) {
	AddHistogramVec(SystemPurchase, MetricResolveDuration, seconds, decision)
}

func IncBalanceMutation(kind string) {
	IncCounterVec(SystemBalance, MetricMutationsTotal, kind)
}

func IncNotificationDelivery(event, status string) {
	IncCounterVec(SystemNotification, MetricDeliveriesTotal, event, status)
}

func AddNotificationDeliveryDuration(seconds float64, event string) {
	AddHistogramVec(SystemNotification, MetricDeliveryDuration, seconds, event)
}
