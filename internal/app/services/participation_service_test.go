package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/examconduct/internal/app/models"
)

func TestStartExercise_ReturnsExistingOnDuplicate(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	store := newMockParticipationStore()
	service := NewParticipationService(store, zerolog.Nop())
	service.now = fixedClock(now)
	se := studentExamFixture(1, examFixture(1, now))
	exercise := &se.Exercises[1]

	first, err := service.StartExercise(context.Background(), StartParticipationRequest{Exercise: exercise, StudentExam: se})
	require.NoError(t, err)

	second, err := service.StartExercise(context.Background(), StartParticipationRequest{Exercise: exercise, StudentExam: se})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.countInitialized(exercise.ID, 7))
	assert.Zero(t, store.reinitializeCalls)
}

func TestStartExercise_ReinitializesIncompleteParticipation(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	store := newMockParticipationStore()
	service := NewParticipationService(store, zerolog.Nop())
	service.now = fixedClock(now)
	se := studentExamFixture(1, examFixture(1, now))
	exercise := &se.Exercises[1]

	id := store.seed(models.StudentParticipation{
		ExerciseID:          exercise.ID,
		StudentID:           7,
		InitializationState: models.InitializationStateRepoCopied,
	})

	participation, err := service.StartExercise(context.Background(), StartParticipationRequest{Exercise: exercise, StudentExam: se})
	require.NoError(t, err)
	assert.Equal(t, id, participation.ID)
	assert.Equal(t, models.InitializationStateInitialized, participation.InitializationState)
	assert.Len(t, participation.Submissions, 1)
	assert.Equal(t, 1, store.reinitializeCalls)
}

func TestFindScoped_SeparatesExamAndTestRunParticipations(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	store := newMockParticipationStore()
	service := NewParticipationService(store, zerolog.Nop())
	exam := examFixture(1, now)

	regular := studentExamFixture(1, exam)
	testRun := studentExamFixture(2, exam)
	testRun.TestRun = true
	exercise := &regular.Exercises[0]

	_, err := service.StartExercise(context.Background(), StartParticipationRequest{Exercise: exercise, StudentExam: regular})
	require.NoError(t, err)
	_, err = service.StartExercise(context.Background(), StartParticipationRequest{Exercise: exercise, StudentExam: testRun})
	require.NoError(t, err)

	scopedReal, err := service.FindScoped(context.Background(), exercise, regular)
	require.NoError(t, err)
	require.Len(t, scopedReal, 1)
	assert.Nil(t, scopedReal[0].StudentExamID)

	scopedTestRun, err := service.FindScoped(context.Background(), exercise, testRun)
	require.NoError(t, err)
	require.Len(t, scopedTestRun, 1)
	assert.True(t, scopedTestRun[0].TestRun)
	assert.Equal(t, int64(2), *scopedTestRun[0].StudentExamID)
}
