package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)

	m.ObserveEvent("checkout.session.completed", OutcomeApplied, 120*time.Millisecond)
	m.ObserveEvent("checkout.session.completed", OutcomeDuplicate, 0)
	m.ObserveEvent("", OutcomeRejected, 0)
	m.IncNotificationFailure("admin_purchase_alert")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	applied, err := counterValue(mfs, "webhook_events_total", map[string]string{"event_type": "checkout.session.completed", "outcome": OutcomeApplied})
	require.NoError(t, err)
	assert.Equal(t, 1.0, applied)

	rejected, err := counterValue(mfs, "webhook_events_total", map[string]string{"event_type": "unknown", "outcome": OutcomeRejected})
	require.NoError(t, err)
	assert.Equal(t, 1.0, rejected)

	failures, err := counterValue(mfs, "webhook_notification_failures_total", map[string]string{"kind": "admin_purchase_alert"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, failures)

	mf := findMetricFamily(mfs, "webhook_event_duration_seconds")
	require.NotNil(t, mf)
	require.Len(t, mf.GetMetric(), 1)
	assert.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestNilRegistererDropsObservations(t *testing.T) {
	m := NewWebhookMetrics(nil)
	m.ObserveEvent("invoice.paid", OutcomeApplied, time.Second)
	m.IncNotificationFailure("payment_failed")

	var nilMetrics *WebhookMetrics
	nilMetrics.ObserveEvent("invoice.paid", OutcomeApplied, time.Second)
}

func counterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if labelsMatch(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with labels %v not found", name, labels)
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, lp := range pairs {
		if v, ok := want[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(want)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
