package cronmanager

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCleaner struct {
	calls atomic.Int32
}

func (c *countingCleaner) CleanExpired() {
	c.calls.Add(1)
}

func TestEditorJobs(t *testing.T) {
	c := &countingCleaner{}
	cm := NewCronManager(EditorJobs(c, "*/5 * * * *"))
	require.NoError(t, cm.LoadJobs())

	jobs := cm.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, SessionsCleanJob, jobs[0].Name)
	assert.Equal(t, "*/5 * * * *", jobs[0].Schedule)

	require.NoError(t, cm.RunNow(SessionsCleanJob))
	assert.EqualValues(t, 1, c.calls.Load())

	assert.Error(t, cm.RunNow("missing"))

	cm.RemoveJob(SessionsCleanJob)
	assert.Empty(t, cm.Jobs())
}

func TestLoadJobsBadSchedule(t *testing.T) {
	cm := NewCronManager(JobRegistry{
		"ok":  {Func: func() {}, Schedule: "@hourly"},
		"bad": {Func: func() {}, Schedule: "not a schedule"},
	})
	assert.Error(t, cm.LoadJobs())

	jobs := cm.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "ok", jobs[0].Name)
}

func TestStartStop(t *testing.T) {
	cm := NewCronManager(EditorJobs(&countingCleaner{}, "@every 1h"))
	require.NoError(t, cm.LoadJobs())
	cm.Start()
	cm.Stop()
}
