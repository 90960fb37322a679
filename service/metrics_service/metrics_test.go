package metrics_service

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordersUpdateCollectors(t *testing.T) {
	m := NewMetrics()

	m.RecordSend("sent", 10*time.Millisecond)
	m.RecordSend("sent", 10*time.Millisecond)
	m.RecordSend("blocked", time.Millisecond)
	m.RecordTranslation("skipped")
	m.Delivered("newMessage")
	m.Dropped("newMessage")
	m.Dropped("newMessage")
	m.SetOnlineUsers(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sendsTotal.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sendsTotal.WithLabelValues("blocked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.translationsTotal.WithLabelValues("skipped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.fanoutTotal.WithLabelValues("newMessage", "dropped")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.onlineUsers))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSend("sent", time.Second)
		m.RecordTranslation("applied")
		m.ObserveTranslationCall("detect", time.Second)
		m.RecordSocketError()
		m.SetOnlineUsers(1)
		m.Delivered("x")
		m.Dropped("x")
	})
	assert.Nil(t, m.Registry())
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordSocketError()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "easychat_socket_errors_total 1")
}
