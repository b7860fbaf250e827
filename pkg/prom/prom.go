package prom

import (
	"fmt"
	"sync"

	xhttp "github.com/bash586/paytrackbot/pkg/http"
	"github.com/bash586/paytrackbot/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemLedger = "ledger"
)

const (
	MetricActionsTotal             = "actions_total"
	MetricUndoTotal                = "undo_total"
	MetricOperationDurationSeconds = "operation_duration_seconds"
	MetricArchivedActionsTotal     = "archived_actions_total"
	MetricAuditEventsTotal         = "audit_events_total"
)

const (
	TypeCounter      = "counter"
	TypeCounterVec   = "counterVec"
	TypeHistogram    = "histogram"
	TypeHistogramVec = "histogramVec"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

func Create(host string, env string, nameSpace string) error {
	defaultLabels = make(prometheus.Labels)
	defaultLabels["env"] = env
	defaultLabels["instance"] = host
	namespace = nameSpace
	MetricSystemEnabled = true

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createCounterVec(SystemLedger, MetricActionsTotal, []string{"type"}))
	hasError(createCounterVec(SystemLedger, MetricUndoTotal, []string{"result"}))
	hasError(createCounterVec(SystemLedger, MetricArchivedActionsTotal, []string{}))
	hasError(createCounterVec(SystemLedger, MetricAuditEventsTotal, []string{"type"}))
	hasError(createHistogramVec(SystemLedger, MetricOperationDurationSeconds, []string{"op"}))

	return err
}

func ListenAndServer(port string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Router.GET(url, hh)
	go func() {
		if err := s.ListenAndServe(port); err != nil {
			logger.Error("prom: metric server stopped", "error", err)
		}
	}()
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()

	key := subsystem + "_" + name
	if _, ok := MetricCollectionCounterVec[key]; ok {
		return fmt.Errorf("duplicate metric: %s", key)
	}

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}, labels)

	if err := prometheus.Register(vec); err != nil {
		return err
	}
	MetricCollectionCounterVec[key] = vec
	return nil
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()

	key := subsystem + "_" + name
	if _, ok := MetricCollectionHistogramVec[key]; ok {
		return fmt.Errorf("duplicate metric: %s", key)
	}

	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	}, labels)

	if err := prometheus.Register(vec); err != nil {
		return err
	}
	MetricCollectionHistogramVec[key] = vec
	return nil
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if vec, ok := MetricCollectionCounterVec[subsystem+"_"+name]; ok {
		vec.WithLabelValues(labelValues...).Inc()
	}
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if vec, ok := MetricCollectionCounterVec[subsystem+"_"+name]; ok {
		vec.WithLabelValues(labelValues...).Add(num)
	}
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if vec, ok := MetricCollectionHistogramVec[subsystem+"_"+name]; ok {
		vec.WithLabelValues(labelValues...).Observe(number)
	}
}

// ObserveOperationDuration records how long a ledger operation took.
func ObserveOperationDuration(op string, seconds float64) {
	AddHistogramVec(SystemLedger, MetricOperationDurationSeconds, seconds, op)
}
