package synth

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttsd/internal/device"
)

func TestRequestMetricsAreRegistered(t *testing.T) {
	f := newFixture(t, AggregateLast, device.CPU(), pcm(16000, 1, 2))
	before := testutil.ToFloat64(requestsTotal.WithLabelValues("ok"))
	_, err := f.orch.Synthesize(context.Background(), inlineRequest("x"))
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(requestsTotal.WithLabelValues("ok")))

	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "ttsd_synth_requests_total", "ttsd_synth_audio_seconds")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 2)
}
