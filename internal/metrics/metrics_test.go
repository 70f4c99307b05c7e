package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.TrainRun(OutcomeSuccess, false)
	c.TrainRun(OutcomeSuccess, true)
	c.TrainRun(OutcomeInvalid, false)
	c.Predicted(5, 3)
	c.Predicted(2, 2)
	c.PredictFailed(OutcomeInvalid)
	c.Clustered(4)
	c.ClusterFailed(OutcomeInvalid)
	c.SetModelReady(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.trainRuns.WithLabelValues(OutcomeSuccess, "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.trainRuns.WithLabelValues(OutcomeInvalid, "false")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.predictedRecords))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.retainedRecords))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.predictCalls.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.clusteredSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.modelReady))

	c.SetModelReady(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.modelReady))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 7)
}

func TestNilRegistererIsUsable(t *testing.T) {
	a := New(nil)
	b := New(nil)
	a.Predicted(1, 1)
	b.Predicted(1, 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.predictedRecords))
}
