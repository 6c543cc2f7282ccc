package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAuthEvent(t *testing.T) {
	before := testutil.ToFloat64(authEventsTotal.WithLabelValues("login", "failure"))
	RecordAuthEvent("login", false)
	assert.Equal(t, before+1, testutil.ToFloat64(authEventsTotal.WithLabelValues("login", "failure")))
}

func TestRecordBackup(t *testing.T) {
	failures := testutil.ToFloat64(backupRunsTotal.WithLabelValues("failure"))
	RecordBackup(errors.New("boom"), time.Now())
	assert.Equal(t, failures+1, testutil.ToFloat64(backupRunsTotal.WithLabelValues("failure")))

	at := time.Unix(1700000000, 0)
	RecordBackup(nil, at)
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(backupLastSuccess))
}

func TestObserveHTTPRequest_Unmatched(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "GET", "404"))
	ObserveHTTPRequest("", "GET", 404, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "GET", "404")))
}
