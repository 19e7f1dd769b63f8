package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/examconduct/internal/app/models"
)

func newTestStarter(now time.Time) (*ExerciseParticipationStarter, *mockParticipationStore, *recordingRepositories) {
	store := newMockParticipationStore()
	participations := NewParticipationService(store, zerolog.Nop())
	participations.now = fixedClock(now)
	repos := &recordingRepositories{}
	starter := NewExerciseParticipationStarter(participations, repos, 5*time.Minute, zerolog.Nop())
	starter.now = fixedClock(now)
	return starter, store, repos
}

func studentExamFixture(id int64, exam *models.Exam) *models.StudentExam {
	return &models.StudentExam{
		ID:        id,
		ExamID:    exam.ID,
		UserID:    7,
		Exam:      exam,
		Exercises: exercisesFixture(),
	}
}

func TestSetUpExerciseParticipations_StartsEveryExercise(t *testing.T) {
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	starter, store, _ := newTestStarter(start.Add(-time.Hour))
	se := studentExamFixture(1, examFixture(1, start))

	generated, err := starter.SetUpExerciseParticipations(context.Background(), se, nil)
	require.NoError(t, err)
	assert.Len(t, generated, 3)

	for _, ex := range se.Exercises {
		assert.Equal(t, 1, store.countInitialized(ex.ID, 7), "exercise %d", ex.ID)
	}
	for _, p := range generated {
		assert.Nil(t, p.StudentExamID)
		if p.ExerciseID == 13 {
			assert.Empty(t, p.Submissions, "programming participations have no initial submission")
		} else {
			require.Len(t, p.Submissions, 1)
			assert.Equal(t, models.SubmissionTypeInitial, p.Submissions[0].Type)
		}
	}
}

func TestSetUpExerciseParticipations_IsIdempotent(t *testing.T) {
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	starter, store, _ := newTestStarter(start.Add(-time.Hour))
	se := studentExamFixture(1, examFixture(1, start))

	_, err := starter.SetUpExerciseParticipations(context.Background(), se, nil)
	require.NoError(t, err)
	calls := store.createCalls

	generated, err := starter.SetUpExerciseParticipations(context.Background(), se, nil)
	require.NoError(t, err)
	assert.Empty(t, generated)
	assert.Equal(t, calls, store.createCalls)
	for _, ex := range se.Exercises {
		assert.Equal(t, 1, store.countInitialized(ex.ID, 7))
	}
}

func TestSetUpExerciseParticipations_IsolatesFailingExercise(t *testing.T) {
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	starter, store, _ := newTestStarter(start.Add(-time.Hour))
	store.createErrors[11] = errors.New("connection reset")
	se := studentExamFixture(1, examFixture(1, start))

	generated, err := starter.SetUpExerciseParticipations(context.Background(), se, nil)
	require.NoError(t, err)
	assert.Len(t, generated, 2)
	assert.Equal(t, 0, store.countInitialized(11, 7))
	assert.Equal(t, 1, store.countInitialized(12, 7))
	assert.Equal(t, 1, store.countInitialized(13, 7))
}

func TestSetUpExerciseParticipations_RecoversFromPanic(t *testing.T) {
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	starter, store, _ := newTestStarter(start.Add(-time.Hour))
	store.createPanics[12] = true
	se := studentExamFixture(1, examFixture(1, start))

	generated, err := starter.SetUpExerciseParticipations(context.Background(), se, nil)
	require.NoError(t, err)
	assert.Len(t, generated, 2)
	assert.Equal(t, 0, store.countInitialized(12, 7))
}

func TestSetUpExerciseParticipations_UnlocksNearExamStart(t *testing.T) {
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		testRun  bool
		unlocked int
	}{
		{name: "long before start", now: start.Add(-time.Hour), unlocked: 0},
		{name: "inside unlock lead", now: start.Add(-4 * time.Minute), unlocked: 1},
		{name: "after start", now: start.Add(time.Minute), unlocked: 1},
		{name: "test run always", now: start.Add(-48 * time.Hour), testRun: true, unlocked: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			starter, _, repos := newTestStarter(tt.now)
			se := studentExamFixture(1, examFixture(1, start))
			se.TestRun = tt.testRun

			_, err := starter.SetUpExerciseParticipations(context.Background(), se, nil)
			require.NoError(t, err)
			require.Len(t, repos.unlocked, tt.unlocked)
			if tt.unlocked > 0 {
				assert.Equal(t, int64(13), repos.unlocked[0].exerciseID)
			}
		})
	}
}

func TestSetUpExerciseParticipations_UsesInitializationDate(t *testing.T) {
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	starter, _, _ := newTestStarter(start)
	exam := examFixture(1, start)
	exam.TestExam = true
	se := studentExamFixture(1, exam)
	startedAt := start.Add(10 * time.Minute)

	generated, err := starter.SetUpExerciseParticipations(context.Background(), se, &startedAt)
	require.NoError(t, err)
	require.Len(t, generated, 3)
	for _, p := range generated {
		require.NotNil(t, p.InitializationDate)
		assert.True(t, p.InitializationDate.Equal(startedAt))
		require.NotNil(t, p.StudentExamID)
		assert.Equal(t, se.ID, *p.StudentExamID)
	}
}

func TestSetUpExerciseParticipations_RejectsIncompleteStudentExam(t *testing.T) {
	starter, _, _ := newTestStarter(time.Now())

	_, err := starter.SetUpExerciseParticipations(context.Background(), &models.StudentExam{ID: 1, UserID: 7}, nil)
	assert.Error(t, err)

	_, err = starter.SetUpExerciseParticipations(context.Background(), &models.StudentExam{ID: 1, Exam: &models.Exam{ID: 1}}, nil)
	assert.Error(t, err)
}
