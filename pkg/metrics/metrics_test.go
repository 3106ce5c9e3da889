package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.Observe("get", 20*time.Microsecond, nil)
	m.Observe("get", 30*time.Microsecond, errors.New("key not found"))
	m.Observe("get", 10*time.Microsecond, nil)
	m.Observe("list", time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("get", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("get", ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("list", ResultOK)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Latency))
}

func TestSetOpen(t *testing.T) {
	m := New()
	m.SetOpen(3, 1200)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OpenSets))
	assert.Equal(t, 1200.0, testutil.ToFloat64(m.OpenRecords))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Observe("get", time.Microsecond, nil)
		m.SetOpen(1, 1)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.Observe("get2", time.Microsecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `wordindex_requests_total{action="get2",result="ok"} 1`)
	assert.Contains(t, string(body), "wordindex_open_sets 0")
}
