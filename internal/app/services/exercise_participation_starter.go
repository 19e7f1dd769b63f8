package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/pkg/logger"
)

type participationStarter interface {
	FindScoped(ctx context.Context, exercise *models.Exercise, studentExam *models.StudentExam) ([]models.StudentParticipation, error)
	StartExercise(ctx context.Context, req StartParticipationRequest) (*models.StudentParticipation, error)
}

type repositoryUnlocker interface {
	UnlockParticipation(studentExam *models.StudentExam, exercise *models.Exercise, participation *models.StudentParticipation)
}

// ExerciseParticipationStarter makes sure every exercise of a student exam has exactly one
// initialized participation. It is safe to run repeatedly for the same student exam.
type ExerciseParticipationStarter struct {
	participations participationStarter
	repositories   repositoryUnlocker
	unlockLead     time.Duration
	now            func() time.Time
	logger         zerolog.Logger
}

// NewExerciseParticipationStarter creates a new ExerciseParticipationStarter
func NewExerciseParticipationStarter(participations participationStarter, repositories repositoryUnlocker, unlockLead time.Duration, logger zerolog.Logger) *ExerciseParticipationStarter {
	return &ExerciseParticipationStarter{
		participations: participations,
		repositories:   repositories,
		unlockLead:     unlockLead,
		now:            time.Now,
		logger:         logger,
	}
}

// SetUpExerciseParticipations starts the participations of all exercises of the student exam and returns
// those it started. A failing exercise is logged and skipped. An error is only returned when the
// student exam itself cannot be processed.
func (s *ExerciseParticipationStarter) SetUpExerciseParticipations(ctx context.Context, studentExam *models.StudentExam, initializationDate *time.Time) ([]models.StudentParticipation, error) {
	if studentExam.Exam == nil {
		return nil, fmt.Errorf("student exam %d has no exam loaded", studentExam.ID)
	}
	if studentExam.UserID == 0 {
		return nil, fmt.Errorf("student exam %d has no student", studentExam.ID)
	}

	log := logger.ForStudentExam(s.logger, studentExam.ExamID, studentExam.ID, studentExam.UserID)

	unlock := s.unlockRepositories(studentExam)
	var generated []models.StudentParticipation
	for i := range studentExam.Exercises {
		exercise := &studentExam.Exercises[i]
		participation, err := s.startExercise(ctx, studentExam, exercise, initializationDate, unlock)
		if err != nil {
			log.Warn().Err(err).Int64("exerciseID", exercise.ID).Msg("Could not start exercise participation, continuing with next exercise")
			continue
		}
		if participation != nil {
			generated = append(generated, *participation)
		}
	}

	log.Debug().Int("generated", len(generated)).Int("exercises", len(studentExam.Exercises)).Msg("Exercise participations set up")
	return generated, nil
}

// startExercise returns nil without error when the exercise is already initialized in scope
func (s *ExerciseParticipationStarter) startExercise(ctx context.Context, studentExam *models.StudentExam, exercise *models.Exercise, initializationDate *time.Time, unlock bool) (participation *models.StudentParticipation, err error) {
	defer func() {
		if r := recover(); r != nil {
			participation, err = nil, fmt.Errorf("panic while starting exercise %d: %v", exercise.ID, r)
		}
	}()

	existing, err := s.participations.FindScoped(ctx, exercise, studentExam)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if p.InitializationState.HasCompleted(models.InitializationStateInitialized) {
			return nil, nil
		}
	}

	participation, err = s.participations.StartExercise(ctx, StartParticipationRequest{
		Exercise:           exercise,
		StudentExam:        studentExam,
		InitializationDate: initializationDate,
	})
	if err != nil {
		return nil, err
	}

	if exercise.IsProgramming() && unlock {
		s.repositories.UnlockParticipation(studentExam, exercise, participation)
	}
	return participation, nil
}

// unlockRepositories reports whether programming repositories may be opened right away:
// always for test runs and test exams, otherwise once the exam start minus the unlock lead has passed
func (s *ExerciseParticipationStarter) unlockRepositories(studentExam *models.StudentExam) bool {
	if studentExam.TestRun || studentExam.IsTestExam() {
		return true
	}
	start := studentExam.Exam.StartDate
	if start == nil {
		return false
	}
	return !s.now().Before(start.Add(-s.unlockLead))
}
