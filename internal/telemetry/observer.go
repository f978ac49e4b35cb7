package telemetry

import (
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/birbparty/rush-analytics/sdk"
)

// MetricsObserver exports SDK client activity to Prometheus.
type MetricsObserver struct {
	m *Metrics
}

// Observer returns an sdk.Observer that feeds these metrics.
func (m *Metrics) Observer() *MetricsObserver {
	return &MetricsObserver{m: m}
}

var _ sdk.Observer = (*MetricsObserver)(nil)

func (o *MetricsObserver) OnRequestStart(method, endpoint string) {}

func (o *MetricsObserver) OnRequestEnd(method, endpoint string, status int, duration time.Duration, err error) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "network_error"
	}
	o.m.clientRequestsTotal.WithLabelValues(method, endpoint, label).Inc()
	o.m.clientRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (o *MetricsObserver) OnRetryAttempt(operation string, attempt int, delay time.Duration, err error) {
	o.m.clientRetriesTotal.WithLabelValues(operation).Inc()
}

func (o *MetricsObserver) OnCacheHit(endpoint string) {
	o.m.cacheHits.WithLabelValues(endpoint).Inc()
}

func (o *MetricsObserver) OnCacheMiss(endpoint string) {
	o.m.cacheMisses.WithLabelValues(endpoint).Inc()
}

// LogObserver reports SDK activity through logrus at debug level,
// and failures at warn.
type LogObserver struct {
	logger *logrus.Logger
}

// NewLogObserver creates a LogObserver writing to logger.
func NewLogObserver(logger *logrus.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

var _ sdk.Observer = (*LogObserver)(nil)

func (o *LogObserver) OnRequestStart(method, endpoint string) {
	o.logger.WithFields(logrus.Fields{
		"method":   method,
		"endpoint": endpoint,
	}).Debug("Sending request")
}

func (o *LogObserver) OnRequestEnd(method, endpoint string, status int, duration time.Duration, err error) {
	entry := o.logger.WithFields(logrus.Fields{
		"method":      method,
		"endpoint":    endpoint,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("Request failed")
		return
	}
	entry.Debug("Request completed")
}

func (o *LogObserver) OnRetryAttempt(operation string, attempt int, delay time.Duration, err error) {
	o.logger.WithFields(logrus.Fields{
		"operation": operation,
		"attempt":   attempt,
		"delay_ms":  delay.Milliseconds(),
	}).WithError(err).Info("Retrying request")
}

func (o *LogObserver) OnCacheHit(endpoint string) {
	o.logger.WithField("endpoint", endpoint).Debug("Cache hit")
}

func (o *LogObserver) OnCacheMiss(endpoint string) {
	o.logger.WithField("endpoint", endpoint).Debug("Cache miss")
}
