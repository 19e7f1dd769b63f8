package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/yigit/examconduct/internal/app/models"
)

// RepositoryAccessAction is the change requested for a student repository
type RepositoryAccessAction string

const (
	RepositoryAccessLock   RepositoryAccessAction = "LOCK"
	RepositoryAccessUnlock RepositoryAccessAction = "UNLOCK"
)

// RepositoryAccessCommand is the message sent to the version control integration
type RepositoryAccessCommand struct {
	Action          RepositoryAccessAction `json:"action"`
	ExamID          int64                  `json:"examId"`
	StudentExamID   int64                  `json:"studentExamId"`
	ExerciseID      int64                  `json:"exerciseId"`
	ParticipationID int64                  `json:"participationId"`
	ProjectKey      string                 `json:"projectKey,omitempty"`
	StudentID       int64                  `json:"studentId"`
	RequestedAt     time.Time              `json:"requestedAt"`
}

// RepositoryAccessConfig tunes delivery retries
type RepositoryAccessConfig struct {
	InitialInterval time.Duration
	MaxElapsed      time.Duration
	PublishTimeout  time.Duration
}

type lockPendingMarker interface {
	SetRepositoryLockPending(ctx context.Context, id int64, pending bool) error
}

// RepositoryAccessService dispatches repository lock and unlock commands without blocking the caller.
// Delivery is retried with exponential backoff; a lock that can never be delivered flags the student exam.
type RepositoryAccessService struct {
	publisher    CommandPublisher
	studentExams lockPendingMarker
	config       RepositoryAccessConfig
	now          func() time.Time
	logger       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRepositoryAccessService creates a new RepositoryAccessService
func NewRepositoryAccessService(publisher CommandPublisher, studentExams lockPendingMarker, config RepositoryAccessConfig, logger zerolog.Logger) *RepositoryAccessService {
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RepositoryAccessService{
		publisher:    publisher,
		studentExams: studentExams,
		config:       config,
		now:          time.Now,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// UnlockParticipation asks the integration to open the participation's repository for the student
func (s *RepositoryAccessService) UnlockParticipation(studentExam *models.StudentExam, exercise *models.Exercise, participation *models.StudentParticipation) {
	cmd := s.command(RepositoryAccessUnlock, studentExam, exercise, participation)
	s.dispatch(cmd, nil)
}

// LockParticipation asks the integration to close the participation's repository
func (s *RepositoryAccessService) LockParticipation(studentExam *models.StudentExam, exercise *models.Exercise, participation *models.StudentParticipation) {
	cmd := s.command(RepositoryAccessLock, studentExam, exercise, participation)
	s.dispatch(cmd, func(ctx context.Context) {
		if err := s.studentExams.SetRepositoryLockPending(ctx, studentExam.ID, true); err != nil {
			s.logger.Error().Err(err).Int64("studentExamID", studentExam.ID).Msg("Failed to flag pending repository lock")
		}
	})
}

func (s *RepositoryAccessService) command(action RepositoryAccessAction, studentExam *models.StudentExam, exercise *models.Exercise, participation *models.StudentParticipation) RepositoryAccessCommand {
	return RepositoryAccessCommand{
		Action:          action,
		ExamID:          studentExam.ExamID,
		StudentExamID:   studentExam.ID,
		ExerciseID:      exercise.ID,
		ParticipationID: participation.ID,
		ProjectKey:      exercise.ProjectKey,
		StudentID:       participation.StudentID,
		RequestedAt:     s.now(),
	}
}

func (s *RepositoryAccessService) dispatch(cmd RepositoryAccessCommand, onFailure func(ctx context.Context)) {
	log := s.logger.With().
		Str("action", string(cmd.Action)).
		Int64("studentExamID", cmd.StudentExamID).
		Int64("exerciseID", cmd.ExerciseID).
		Int64("participationID", cmd.ParticipationID).
		Logger()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		policy := backoff.NewExponentialBackOff()
		if s.config.InitialInterval > 0 {
			policy.InitialInterval = s.config.InitialInterval
		}
		policy.MaxElapsedTime = s.config.MaxElapsed

		attempt := 0
		operation := func() error {
			attempt++
			ctx, cancel := context.WithTimeout(s.ctx, s.config.PublishTimeout)
			defer cancel()
			return s.publisher.Publish(ctx, cmd)
		}
		notify := func(err error, wait time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retryIn", wait).Msg("Repository access command not delivered, retrying")
		}

		if err := backoff.RetryNotify(operation, backoff.WithContext(policy, s.ctx), notify); err != nil {
			log.Error().Err(err).Int("attempts", attempt).Msg("Giving up on repository access command")
			if onFailure != nil {
				ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), s.config.PublishTimeout)
				defer cancel()
				onFailure(ctx)
			}
			return
		}
		log.Debug().Int("attempts", attempt).Msg("Repository access command delivered")
	}()
}

// Wait blocks until every dispatched command has been delivered or given up
func (s *RepositoryAccessService) Wait() {
	s.wg.Wait()
}

// Shutdown stops retrying and waits for in-flight dispatches, bounded by ctx
func (s *RepositoryAccessService) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("repository access shutdown: %w", ctx.Err())
	}
}
