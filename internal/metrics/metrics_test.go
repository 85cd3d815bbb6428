package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	Init()
	require.NotNil(t, articlesDelivered)
}

func TestCountersIncrement(t *testing.T) {
	Init()

	before := testutil.ToFloat64(extractionFailures)
	ExtractionFailed()
	require.Equal(t, before+1, testutil.ToFloat64(extractionFailures))

	beforeReset := testutil.ToFloat64(trackerResets)
	TrackerReset()
	require.Equal(t, beforeReset+1, testutil.ToFloat64(trackerResets))

	beforeHit := testutil.ToFloat64(pollCycles.WithLabelValues("hit"))
	PollCycle("hit")
	require.Equal(t, beforeHit+1, testutil.ToFloat64(pollCycles.WithLabelValues("hit")))
}

func TestHelpersSafeBeforeInit(t *testing.T) {
	// Helpers nil-check so run-once commands that skip Init do not panic.
	ArticleDelivered("ok")
	SummaryFallback()
	ObserveRunDuration("morning", 1.5)
}
