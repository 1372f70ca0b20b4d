package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/danmuck/wirecall/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("wirecall", "GET", "/health", 200, 12*time.Millisecond)
	RecordCall(SideServer, "", errors.New("boom"), time.Millisecond)
}

func TestRecordCallCountsOutcomes(t *testing.T) {
	testlog.Start(t)
	before := testutil.ToFloat64(rpcCalls.WithLabelValues(SideClient, "metrics.probe", OutcomeOK))
	RecordCall(SideClient, "metrics.probe", nil, time.Millisecond)
	RecordCall(SideClient, "metrics.probe", nil, time.Millisecond)
	RecordCall(SideClient, "metrics.probe", errors.New("x"), time.Millisecond)

	if got := testutil.ToFloat64(rpcCalls.WithLabelValues(SideClient, "metrics.probe", OutcomeOK)); got != before+2 {
		t.Fatalf("ok counter=%v want %v", got, before+2)
	}
	if got := testutil.ToFloat64(rpcCalls.WithLabelValues(SideClient, "metrics.probe", OutcomeError)); got < 1 {
		t.Fatalf("error counter=%v want >= 1", got)
	}
}
