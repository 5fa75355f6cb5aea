package scheduler

import (
	"errors"
	"testing"

	"notifier/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_AddAndRemoveJob(t *testing.T) {
	s := NewScheduler(logger.NewNop())
	s.Start()
	defer s.Stop()

	id, err := s.AddJob("@every 1h", func() {})
	require.NoError(t, err)
	assert.Len(t, s.GetEntries(), 1)

	s.RemoveJob(id)
	assert.Empty(t, s.GetEntries())
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(logger.NewNop())
	_, err := s.AddJob("not a spec", func() {})
	assert.Error(t, err)
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := NewScheduler(logger.NewNop())
	s.Stop()
	s.Start()
	s.Stop()
	s.Stop()
}

func TestFormatCron(t *testing.T) {
	assert.Equal(t, "cron: skip, entry=3", formatCron("skip", []interface{}{"entry", 3}))
	cronLogger{log: logger.NewNop()}.Error(errors.New("boom"), "panic", "job", 1)
}
