package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	handsStoredCounter    prometheus.Counter
	handsDuplicateCounter prometheus.Counter
	handsFailedCounter    prometheus.Counter
	handsSkippedCounter   prometheus.Counter
	importQueueDepthGauge prometheus.Gauge
}

func (m *metrics) HandStored() {
	m.handsStoredCounter.Inc()
}

func (m *metrics) HandDuplicate() {
	m.handsDuplicateCounter.Inc()
}

func (m *metrics) HandFailed() {
	m.handsFailedCounter.Inc()
}

func (m *metrics) HandSkipped() {
	m.handsSkippedCounter.Inc()
}

func (m *metrics) SetImportQueueDepth(depth int) {
	m.importQueueDepthGauge.Set(float64(depth))
}

var Metrics = &metrics{
	handsStoredCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "hands_stored_total",
		Help: "Total number of hands stored",
	}),
	handsDuplicateCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "hands_duplicate_total",
		Help: "Total number of duplicate hands skipped",
	}),
	handsFailedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "hands_failed_total",
		Help: "Total number of hands that failed to store",
	}),
	handsSkippedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "hands_skipped_total",
		Help: "Total number of unparseable or unsupported hands skipped",
	}),
	importQueueDepthGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "import_queue_depth",
		Help: "Current number of hands waiting in the import queue",
	}),
}
