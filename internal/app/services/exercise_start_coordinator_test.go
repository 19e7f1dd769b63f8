package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/pkg/apperrors"
	"github.com/yigit/examconduct/internal/pkg/statuscache"
)

type coordinatorFixture struct {
	coordinator    *ExerciseStartCoordinator
	exams          *mockExamStore
	studentExams   *mockStudentExamStore
	participations *mockParticipationStore
	cache          *statuscache.MemoryCache
	broadcaster    *mockBroadcaster
}

func newCoordinatorFixture(t *testing.T, setUp studentExamSetUp, cfg ExerciseStartConfig) *coordinatorFixture {
	t.Helper()
	f := &coordinatorFixture{
		exams:        newMockExamStore(),
		studentExams: newMockStudentExamStore(),
		cache:        statuscache.NewMemoryCache(time.Hour),
		broadcaster:  newMockBroadcaster(),
	}
	if setUp == nil {
		starter, participations, _ := newTestStarter(time.Now())
		f.participations = participations
		setUp = starter
	}
	f.coordinator = NewExerciseStartCoordinator(f.exams, f.studentExams, setUp, f.cache, f.broadcaster, cfg, zerolog.Nop())
	return f
}

func (f *coordinatorFixture) seedExam(exam *models.Exam, students int) {
	f.exams.exams[exam.ID] = exam
	for i := 1; i <= students; i++ {
		se := studentExamFixture(int64(i), exam)
		se.UserID = int64(100 + i)
		f.studentExams.add(se)
	}
}

func waitForOperation(t *testing.T, op *ExerciseStartOperation) ExerciseStartResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := op.Wait(ctx)
	require.NoError(t, err)
	return result
}

func TestStartExercises_ProcessesAllStudentExams(t *testing.T) {
	f := newCoordinatorFixture(t, nil, ExerciseStartConfig{Workers: 4, QueueCapacity: 2})
	exam := examFixture(1, time.Now().Add(time.Hour))
	f.seedExam(exam, 20)

	op, err := f.coordinator.StartExercises(context.Background(), exam.ID)
	require.NoError(t, err)
	result := waitForOperation(t, op)

	assert.Equal(t, 60, result.ParticipationCount)
	assert.Empty(t, result.FailedStudentExamIDs)
	assert.Equal(t, 20, result.Status.Finished)
	assert.Equal(t, 0, result.Status.Failed)
	assert.Equal(t, 20, result.Status.Overall)
	assert.Equal(t, 0, result.Status.Queued)
	assert.True(t, result.Status.Done())

	cached, err := f.coordinator.GetStatus(context.Background(), exam.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, result.Status, *cached)
}

func TestStartExercises_ProgressNeverRegresses(t *testing.T) {
	f := newCoordinatorFixture(t, nil, ExerciseStartConfig{Workers: 8, QueueCapacity: 4})
	exam := examFixture(1, time.Now().Add(time.Hour))
	f.seedExam(exam, 50)
	f.studentExams.getErrors[7] = errors.New("timeout")
	f.studentExams.getErrors[31] = errors.New("timeout")

	op, err := f.coordinator.StartExercises(context.Background(), exam.ID)
	require.NoError(t, err)
	waitForOperation(t, op)

	snapshots := f.broadcaster.snapshots(ExerciseStartStatusTopic(exam.ID))
	require.GreaterOrEqual(t, len(snapshots), 51)
	assert.Equal(t, 0, snapshots[0].Finished, "initial snapshot is published before work starts")
	for i := 1; i < len(snapshots); i++ {
		prev, cur := snapshots[i-1], snapshots[i]
		assert.GreaterOrEqual(t, cur.Finished, prev.Finished)
		assert.GreaterOrEqual(t, cur.Failed, prev.Failed)
		assert.GreaterOrEqual(t, cur.ParticipationCount, prev.ParticipationCount)
	}

	last := snapshots[len(snapshots)-1]
	assert.Equal(t, 48, last.Finished)
	assert.Equal(t, 2, last.Failed)
	assert.Equal(t, 50, last.Overall)
}

func TestStartExercises_TracksFailedStudentExams(t *testing.T) {
	f := newCoordinatorFixture(t, nil, ExerciseStartConfig{Workers: 2, QueueCapacity: 2})
	exam := examFixture(1, time.Now().Add(time.Hour))
	f.seedExam(exam, 5)
	f.studentExams.getErrors[2] = errors.New("connection refused")
	f.studentExams.studentExams[4].UserID = 0

	op, err := f.coordinator.StartExercises(context.Background(), exam.ID)
	require.NoError(t, err)
	result := waitForOperation(t, op)

	assert.ElementsMatch(t, []int64{2, 4}, result.FailedStudentExamIDs)
	assert.Equal(t, 3, result.Status.Finished)
	assert.Equal(t, 2, result.Status.Failed)
	assert.Equal(t, 9, result.ParticipationCount)
}

func TestStartExercises_RejectsTestExamBeforeAnyWork(t *testing.T) {
	f := newCoordinatorFixture(t, nil, ExerciseStartConfig{Workers: 2})
	exam := examFixture(1, time.Now().Add(time.Hour))
	exam.TestExam = true
	f.seedExam(exam, 3)

	op, err := f.coordinator.StartExercises(context.Background(), exam.ID)
	assert.Nil(t, op)
	assert.ErrorIs(t, err, apperrors.ErrTestExamBulkStartNotSupported)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	assert.Zero(t, f.broadcaster.total())
	assert.Zero(t, f.participations.createCalls)
	status, err := f.coordinator.GetStatus(context.Background(), exam.ID)
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestStartExercises_UnknownExam(t *testing.T) {
	f := newCoordinatorFixture(t, nil, ExerciseStartConfig{Workers: 2})

	_, err := f.coordinator.StartExercises(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

type blockingSetUp struct {
	release chan struct{}
	active  atomic.Int64
	peak    atomic.Int64
	calls   atomic.Int64
}

func (b *blockingSetUp) SetUpExerciseParticipations(_ context.Context, se *models.StudentExam, _ *time.Time) ([]models.StudentParticipation, error) {
	b.calls.Add(1)
	n := b.active.Add(1)
	for {
		peak := b.peak.Load()
		if n <= peak || b.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	<-b.release
	b.active.Add(-1)
	return []models.StudentParticipation{{ExerciseID: 11, StudentID: se.UserID}}, nil
}

func TestStartExercises_SecondRunForSameExamConflicts(t *testing.T) {
	setUp := &blockingSetUp{release: make(chan struct{})}
	f := newCoordinatorFixture(t, setUp, ExerciseStartConfig{Workers: 2, QueueCapacity: 1})
	exam := examFixture(1, time.Now().Add(time.Hour))
	f.seedExam(exam, 3)
	other := examFixture(2, time.Now().Add(time.Hour))
	f.exams.exams[other.ID] = other

	op, err := f.coordinator.StartExercises(context.Background(), exam.ID)
	require.NoError(t, err)
	_, running := f.coordinator.Running(exam.ID)
	assert.True(t, running)

	_, err = f.coordinator.StartExercises(context.Background(), exam.ID)
	assert.ErrorIs(t, err, apperrors.ErrBulkStartInProgress)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	otherOp, err := f.coordinator.StartExercises(context.Background(), other.ID)
	require.NoError(t, err, "other exams are not blocked")

	close(setUp.release)
	waitForOperation(t, op)
	waitForOperation(t, otherOp)

	require.Eventually(t, func() bool {
		_, running := f.coordinator.Running(exam.ID)
		return !running
	}, time.Second, 5*time.Millisecond)

	again, err := f.coordinator.StartExercises(context.Background(), exam.ID)
	require.NoError(t, err)
	waitForOperation(t, again)
}

func TestStartExercises_BoundsConcurrency(t *testing.T) {
	setUp := &blockingSetUp{release: make(chan struct{})}
	f := newCoordinatorFixture(t, setUp, ExerciseStartConfig{Workers: 3, QueueCapacity: 2})
	exam := examFixture(1, time.Now().Add(time.Hour))
	f.seedExam(exam, 12)

	op, err := f.coordinator.StartExercises(context.Background(), exam.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return setUp.active.Load() == 3 }, time.Second, 5*time.Millisecond)
	// the buffer holds two ids and the blocked producer counts one more
	assert.LessOrEqual(t, op.Snapshot().Queued, 3)

	close(setUp.release)
	result := waitForOperation(t, op)

	assert.LessOrEqual(t, setUp.peak.Load(), int64(3))
	assert.Equal(t, int64(12), setUp.calls.Load())
	assert.Equal(t, 12, result.ParticipationCount)
}

func TestShutdown_WaitsForRunningOperations(t *testing.T) {
	setUp := &blockingSetUp{release: make(chan struct{})}
	f := newCoordinatorFixture(t, setUp, ExerciseStartConfig{Workers: 1})
	exam := examFixture(1, time.Now().Add(time.Hour))
	f.seedExam(exam, 1)

	_, err := f.coordinator.StartExercises(context.Background(), exam.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, f.coordinator.Shutdown(ctx))

	close(setUp.release)
	assert.NoError(t, f.coordinator.Shutdown(context.Background()))
}

func TestShutdown_RejectsNewStarts(t *testing.T) {
	f := newCoordinatorFixture(t, nil, ExerciseStartConfig{Workers: 2})
	exam := examFixture(1, time.Now().Add(time.Hour))
	f.seedExam(exam, 2)

	require.NoError(t, f.coordinator.Shutdown(context.Background()))

	op, err := f.coordinator.StartExercises(context.Background(), exam.ID)
	assert.Nil(t, op)
	assert.ErrorIs(t, err, apperrors.ErrExerciseStartShuttingDown)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, running := f.coordinator.Running(exam.ID)
	assert.False(t, running)
	assert.Zero(t, f.broadcaster.total())
}

func TestStartExercises_ListFailureDoesNotBlockShutdown(t *testing.T) {
	f := newCoordinatorFixture(t, nil, ExerciseStartConfig{Workers: 2})
	exam := examFixture(1, time.Now().Add(time.Hour))
	f.seedExam(exam, 2)
	f.studentExams.listErr = errors.New("connection reset")

	_, err := f.coordinator.StartExercises(context.Background(), exam.ID)
	require.Error(t, err)
	_, running := f.coordinator.Running(exam.ID)
	assert.False(t, running)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, f.coordinator.Shutdown(ctx))
}
