package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveComputation("balances", 3*time.Millisecond)
	m.ObserveComputation("balances", time.Millisecond)
	m.ObserveComputation("settlements", time.Millisecond)
	m.Warning("SPLIT_MISMATCH")
	m.PaymentRecorded("UPI")
	m.PaymentRejected()
	m.PaymentRejected()
	m.ReminderSent()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.computations.WithLabelValues("balances")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.computations.WithLabelValues("settlements")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.warnings.WithLabelValues("SPLIT_MISMATCH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentsOK.WithLabelValues("UPI")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.paymentsBad))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reminders))

	expected := `
# HELP splitledger_payments_rejected_total Payments rejected by validation.
# TYPE splitledger_payments_rejected_total counter
splitledger_payments_rejected_total 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "splitledger_payments_rejected_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(m.computeDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveComputation("balances", time.Second)
		m.Warning("LEDGER_IMBALANCE")
		m.PaymentRecorded("CASH")
		m.PaymentRejected()
		m.ReminderSent()
	})
}
