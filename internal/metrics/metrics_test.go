package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordStep("fuchsia.test", "resolve", true, time.Millisecond)
	m.RecordStep("fuchsia.test", "compile", false, time.Millisecond)
	m.RecordDiagnostic("name-not-found", "error")
	m.SetFiltered("fuchsia.test", 4)
	m.SetLibraries(2)

	assert.InDelta(t, 1, testutil.ToFloat64(m.stepsTotal.WithLabelValues("resolve", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.stepsTotal.WithLabelValues("compile", "failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.diagnostics.WithLabelValues("name-not-found", "error")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.filteredDecls.WithLabelValues("fuchsia.test")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.libraries), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.stepDuration))
}

func TestNilSafe(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	assert.Nil(t, m)
	m.RecordStep("x", "y", true, 0)
	m.RecordDiagnostic("c", "error")
	m.SetFiltered("x", 1)
	m.SetLibraries(1)
}

func TestDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}
