package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReporter struct {
	failFor map[int]error
}

func (r *fakeReporter) GenerateBoardReport(_ context.Context, projectID int) (string, error) {
	if err := r.failFor[projectID]; err != nil {
		return "", err
	}
	return fmt.Sprintf("/tmp/board_%d.xlsx", projectID), nil
}

type fakeBroadcaster struct {
	paths []string
}

func (b *fakeBroadcaster) Broadcast(_ context.Context, path string) (int, error) {
	b.paths = append(b.paths, path)
	return 2, nil
}

func TestDailyJob_RunOnceContinuesAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	sender := &fakeBroadcaster{}
	job, err := NewDailyJobService(&fakeReporter{failFor: map[int]error{2: boom}}, sender, []int{1, 2, 3}, DailyJobOpts{Hour: 9}, discardLogger())
	require.NoError(t, err)

	err = job.RunOnce(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"/tmp/board_1.xlsx", "/tmp/board_3.xlsx"}, sender.paths)
}

func TestDailyJob_Validation(t *testing.T) {
	_, err := NewDailyJobService(nil, &fakeBroadcaster{}, []int{1}, DailyJobOpts{}, nil)
	assert.Error(t, err)

	_, err = NewDailyJobService(&fakeReporter{}, &fakeBroadcaster{}, nil, DailyJobOpts{}, nil)
	assert.Error(t, err)

	_, err = NewDailyJobService(&fakeReporter{}, &fakeBroadcaster{}, []int{1}, DailyJobOpts{Hour: 24}, nil)
	assert.Error(t, err)
}

func TestDailyJob_NextRunTime(t *testing.T) {
	job, err := NewDailyJobService(&fakeReporter{}, &fakeBroadcaster{}, []int{1}, DailyJobOpts{Hour: 9, Minute: 30}, discardLogger())
	require.NoError(t, err)
	job.timezone = time.UTC

	before := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC), job.nextRunTime(before))

	after := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 7, 9, 30, 0, 0, time.UTC), job.nextRunTime(after))
}
