package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/pkg/apperrors"
	"github.com/yigit/examconduct/internal/pkg/logger"
	"github.com/yigit/examconduct/internal/pkg/statuscache"
)

// ExerciseStartStatusTopic is the broadcast topic of an exam's exercise start progress
func ExerciseStartStatusTopic(examID int64) string {
	return fmt.Sprintf("exams/%d/exercise-start-status", examID)
}

type studentExamSetUp interface {
	SetUpExerciseParticipations(ctx context.Context, studentExam *models.StudentExam, initializationDate *time.Time) ([]models.StudentParticipation, error)
}

// ExerciseStartConfig sizes the bulk start worker pool
type ExerciseStartConfig struct {
	Workers       int
	QueueCapacity int
}

// ExerciseStartResult is the outcome of a finished bulk start
type ExerciseStartResult struct {
	ParticipationCount   int
	FailedStudentExamIDs []int64
	Status               models.ExamExerciseStartPreparationStatus
}

// ExerciseStartCoordinator starts the exercises of all student exams of an exam on a bounded worker pool
// and publishes progress. At most one bulk start runs per exam.
type ExerciseStartCoordinator struct {
	exams        ExamStore
	studentExams StudentExamStore
	starter      studentExamSetUp
	cache        statuscache.Cache
	broadcaster  StatusBroadcaster
	config       ExerciseStartConfig
	now          func() time.Time
	logger       zerolog.Logger

	// guards running and closed; every wg.Add happens under it
	mu      sync.Mutex
	running map[int64]*ExerciseStartOperation
	closed  bool
	wg      sync.WaitGroup
}

// NewExerciseStartCoordinator creates a new ExerciseStartCoordinator
func NewExerciseStartCoordinator(
	exams ExamStore,
	studentExams StudentExamStore,
	starter studentExamSetUp,
	cache statuscache.Cache,
	broadcaster StatusBroadcaster,
	config ExerciseStartConfig,
	logger zerolog.Logger,
) *ExerciseStartCoordinator {
	if config.Workers <= 0 {
		config.Workers = 10
	}
	if config.QueueCapacity <= 0 {
		config.QueueCapacity = config.Workers
	}
	return &ExerciseStartCoordinator{
		exams:        exams,
		studentExams: studentExams,
		starter:      starter,
		cache:        cache,
		broadcaster:  broadcaster,
		config:       config,
		now:          time.Now,
		logger:       logger,
		running:      make(map[int64]*ExerciseStartOperation),
	}
}

// ExerciseStartOperation is one in-flight bulk start. It owns the counters of the run
// and is the only writer of its exam's status snapshot while running.
type ExerciseStartOperation struct {
	ExamID    int64
	StartTime time.Time

	overall  int
	finished atomic.Int64
	failed   atomic.Int64
	queued   atomic.Int64

	mu             sync.Mutex
	participations []models.StudentParticipation
	failedIDs      []int64

	// serializes read-merge-write-broadcast of the status snapshot
	publishMu sync.Mutex

	done   chan struct{}
	result ExerciseStartResult
}

// Done is closed when every student exam has been processed
func (op *ExerciseStartOperation) Done() <-chan struct{} {
	return op.done
}

// Wait blocks until the operation finished or ctx is done
func (op *ExerciseStartOperation) Wait(ctx context.Context) (ExerciseStartResult, error) {
	select {
	case <-op.done:
		return op.result, nil
	case <-ctx.Done():
		return ExerciseStartResult{}, ctx.Err()
	}
}

// Snapshot returns the current counters of the operation
func (op *ExerciseStartOperation) Snapshot() models.ExamExerciseStartPreparationStatus {
	op.mu.Lock()
	participationCount := len(op.participations)
	op.mu.Unlock()

	return models.ExamExerciseStartPreparationStatus{
		Finished:           int(op.finished.Load()),
		Failed:             int(op.failed.Load()),
		Overall:            op.overall,
		ParticipationCount: participationCount,
		Queued:             int(op.queued.Load()),
		StartTime:          op.StartTime,
	}
}

// StartExercises validates the exam and launches the bulk start in the background.
// Test exams are rejected before any work is done.
func (c *ExerciseStartCoordinator) StartExercises(ctx context.Context, examID int64) (*ExerciseStartOperation, error) {
	exam, err := c.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("error getting exam %d: %w", examID, err)
	}
	if exam == nil {
		return nil, apperrors.ErrExamNotFound
	}
	if exam.TestExam {
		return nil, apperrors.ErrTestExamBulkStartNotSupported
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, apperrors.ErrExerciseStartShuttingDown
	}
	if _, busy := c.running[examID]; busy {
		c.mu.Unlock()
		return nil, apperrors.ErrBulkStartInProgress
	}
	op := &ExerciseStartOperation{ExamID: examID, StartTime: c.now(), done: make(chan struct{})}
	c.running[examID] = op
	c.wg.Add(1)
	c.mu.Unlock()

	ids, err := c.studentExams.ListIDsByExam(ctx, examID)
	if err != nil {
		c.release(examID)
		c.wg.Done()
		return nil, fmt.Errorf("error listing student exams of exam %d: %w", examID, err)
	}
	op.overall = len(ids)

	log := logger.ForExam(c.logger, examID)
	runCtx := context.WithoutCancel(ctx)

	if err := c.cache.Evict(runCtx, examID); err != nil {
		log.Warn().Err(err).Msg("Failed to evict previous exercise start status")
	}
	c.publish(runCtx, op, log)

	log.Info().Int("studentExams", op.overall).Int("workers", c.config.Workers).Msg("Starting exercises for exam")

	go func() {
		defer c.wg.Done()
		defer c.release(examID)
		c.run(runCtx, op, ids, log)
	}()
	return op, nil
}

func (c *ExerciseStartCoordinator) release(examID int64) {
	c.mu.Lock()
	delete(c.running, examID)
	c.mu.Unlock()
}

// run feeds the bounded queue and lets the workers drain it. A full queue blocks the producer.
func (c *ExerciseStartCoordinator) run(ctx context.Context, op *ExerciseStartOperation, ids []int64, log zerolog.Logger) {
	queue := make(chan int64, c.config.QueueCapacity)

	var g errgroup.Group
	for w := 0; w < c.config.Workers; w++ {
		g.Go(func() error {
			for id := range queue {
				op.queued.Add(-1)
				c.process(ctx, op, id, log)
				c.publish(ctx, op, log)
			}
			return nil
		})
	}

	for _, id := range ids {
		op.queued.Add(1)
		queue <- id
	}
	close(queue)
	_ = g.Wait()

	final := c.publish(ctx, op, log)

	op.mu.Lock()
	op.result = ExerciseStartResult{
		ParticipationCount:   len(op.participations),
		FailedStudentExamIDs: append([]int64(nil), op.failedIDs...),
		Status:               final,
	}
	op.mu.Unlock()
	close(op.done)

	log.Info().
		Int("finished", final.Finished).
		Int("failed", final.Failed).
		Int("participations", final.ParticipationCount).
		Dur("took", c.now().Sub(op.StartTime)).
		Msg("Finished starting exercises for exam")
}

// process handles one student exam. Failures are counted, never propagated to sibling tasks.
func (c *ExerciseStartCoordinator) process(ctx context.Context, op *ExerciseStartOperation, studentExamID int64, log zerolog.Logger) {
	generated, err := c.setUp(ctx, studentExamID)
	if err != nil {
		op.failed.Add(1)
		op.mu.Lock()
		op.failedIDs = append(op.failedIDs, studentExamID)
		op.mu.Unlock()
		log.Error().Err(err).Int64("studentExamID", studentExamID).Msg("Failed to start exercises of student exam")
		return
	}

	op.mu.Lock()
	op.participations = append(op.participations, generated...)
	op.mu.Unlock()
	op.finished.Add(1)
}

func (c *ExerciseStartCoordinator) setUp(ctx context.Context, studentExamID int64) (generated []models.StudentParticipation, err error) {
	defer func() {
		if r := recover(); r != nil {
			generated, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	studentExam, err := c.studentExams.GetByID(ctx, studentExamID)
	if err != nil {
		return nil, err
	}
	if studentExam == nil {
		return nil, apperrors.ErrStudentExamNotFound
	}
	return c.starter.SetUpExerciseParticipations(ctx, studentExam, nil)
}

// publish merges the operation's current counters into the cached snapshot and broadcasts the result
func (c *ExerciseStartCoordinator) publish(ctx context.Context, op *ExerciseStartOperation, log zerolog.Logger) models.ExamExerciseStartPreparationStatus {
	op.publishMu.Lock()
	defer op.publishMu.Unlock()

	status := op.Snapshot()
	previous, err := c.cache.Get(ctx, op.ExamID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read exercise start status")
	}
	merged := status.Merge(previous)

	if err := c.cache.Put(ctx, op.ExamID, merged); err != nil {
		log.Warn().Err(err).Msg("Failed to cache exercise start status")
	}
	if err := c.broadcaster.Publish(ExerciseStartStatusTopic(op.ExamID), merged); err != nil {
		log.Warn().Err(err).Msg("Failed to broadcast exercise start status")
	}
	return merged
}

// GetStatus returns the latest snapshot of an exam, nil when no bulk start ran recently
func (c *ExerciseStartCoordinator) GetStatus(ctx context.Context, examID int64) (*models.ExamExerciseStartPreparationStatus, error) {
	status, err := c.cache.Get(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("error reading exercise start status of exam %d: %w", examID, err)
	}
	return status, nil
}

// Running returns the in-flight operation of an exam
func (c *ExerciseStartCoordinator) Running(examID int64) (*ExerciseStartOperation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.running[examID]
	return op, ok
}

// Shutdown rejects new bulk starts and waits for in-flight ones, bounded by ctx
func (c *ExerciseStartCoordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("exercise start shutdown: %w", ctx.Err())
	}
}
