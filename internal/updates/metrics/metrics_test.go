package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry(), nil)

	m.IncrementUpdatesAdded()
	m.IncrementUpdatesAdded()
	m.IncrementRejected(ReasonUnauthorized)
	m.IncrementQuery("miss")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpdatesAdded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpdatesRejected.WithLabelValues(ReasonUnauthorized)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.UpdatesRejected.WithLabelValues(ReasonInvalidEncryption)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueryResults.WithLabelValues("miss")))
	assert.Nil(t, m.AuditEventsPending)
}

func TestPendingGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	pending := 3
	m := New(reg, func() int { return pending })
	require.NotNil(t, m.AuditEventsPending)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.AuditEventsPending))
	pending = 0
	assert.Equal(t, 0.0, testutil.ToFloat64(m.AuditEventsPending))
}

func TestObserveCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, nil)
	m.ObserveCall("add_update", time.Now())

	count, err := testutil.GatherAndCount(reg, "secure_update_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
