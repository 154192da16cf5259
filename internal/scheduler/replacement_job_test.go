package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/panel-keeper/internal/model"
	"github.com/Veraticus/panel-keeper/internal/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	runErr    error
	commitErr error
	committed *model.RunResult
	period    model.Period
	retention float64
}

func (f *fakeRunner) Run(_ context.Context, period model.Period, retention float64) (*model.RunResult, error) {
	f.period = period
	f.retention = retention
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &model.RunResult{ID: "run-1", Period: period, NewSize: 3, RetentionRate: 1}, nil
}

func (f *fakeRunner) Commit(_ context.Context, result *model.RunResult) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = result
	return nil
}

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 6, 0, 0, 0, time.UTC) }
}

func TestReplacementJob_Period(t *testing.T) {
	tests := []struct {
		now  func() time.Time
		name string
		want model.Period
	}{
		{name: "mid year", now: fixedClock(2022, time.April, 1), want: 202203},
		{name: "january rolls back a year", now: fixedClock(2023, time.January, 1), want: 202212},
		{name: "late in month", now: fixedClock(2022, time.March, 31), want: 202202},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewReplacementJob(ReplacementJobConfig{Runner: &fakeRunner{}, Now: tt.now})
			assert.Equal(t, tt.want, job.Period())
		})
	}
}

func TestReplacementJob_Run(t *testing.T) {
	runner := &fakeRunner{}
	writer := sheets.NewMockWriter()
	job := NewReplacementJob(ReplacementJobConfig{
		Runner:    runner,
		Writer:    writer,
		Now:       fixedClock(2022, time.April, 1),
		Retention: 0.9,
	})

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, model.Period(202203), runner.period)
	assert.InDelta(t, 0.9, runner.retention, 1e-9)
	require.NotNil(t, runner.committed)
	assert.Equal(t, 1, writer.WriteCallCount)
	assert.Same(t, runner.committed, writer.LastResult)
}

func TestReplacementJob_Failures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("run failure skips commit and export", func(t *testing.T) {
		runner := &fakeRunner{runErr: boom}
		writer := sheets.NewMockWriter()
		job := NewReplacementJob(ReplacementJobConfig{Runner: runner, Writer: writer})

		err := job.Run(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, runner.committed)
		assert.Zero(t, writer.WriteCallCount)
	})

	t.Run("commit failure skips export", func(t *testing.T) {
		writer := sheets.NewMockWriter()
		job := NewReplacementJob(ReplacementJobConfig{Runner: &fakeRunner{commitErr: boom}, Writer: writer})

		assert.ErrorIs(t, job.Run(context.Background()), boom)
		assert.Zero(t, writer.WriteCallCount)
	})

	t.Run("export failure after commit", func(t *testing.T) {
		runner := &fakeRunner{}
		writer := sheets.NewMockWriter()
		writer.SetWriteError(boom)
		job := NewReplacementJob(ReplacementJobConfig{Runner: runner, Writer: writer})

		err := job.Run(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "committed but export failed")
		assert.NotNil(t, runner.committed)
	})

	t.Run("no writer", func(t *testing.T) {
		job := NewReplacementJob(ReplacementJobConfig{Runner: &fakeRunner{}})
		assert.NoError(t, job.Run(context.Background()))
	})
}
