package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.AdvisorReplies.WithLabelValues("ok").Inc()
	m.Exports.WithLabelValues("pdf", "ok").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdvisorReplies.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Exports.WithLabelValues("pdf", "ok")))

	n, err := testutil.GatherAndCount(reg, "advisor_replies_total", "exports_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewMetricsWithoutRegistry(t *testing.T) {
	m := NewMetrics(nil)
	m.ChatSubmissions.WithLabelValues("accepted").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChatSubmissions.WithLabelValues("accepted")))
}
