package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/app/repositories"
)

// StartParticipationRequest describes one participation to start
type StartParticipationRequest struct {
	Exercise    *models.Exercise
	StudentExam *models.StudentExam
	// InitializationDate replaces "now" as the participation's initialization date when set
	InitializationDate *time.Time
}

// ParticipationService starts participations. Creation is insert-or-fetch: the storage layer
// guarantees one participation per scope, a lost race returns the winner's participation.
type ParticipationService struct {
	participations ParticipationStore
	now            func() time.Time
	logger         zerolog.Logger
}

// NewParticipationService creates a new ParticipationService
func NewParticipationService(participations ParticipationStore, logger zerolog.Logger) *ParticipationService {
	return &ParticipationService{
		participations: participations,
		now:            time.Now,
		logger:         logger,
	}
}

// FindScoped returns the participations of the student exam's owner in exercise that belong to the student exam's scope
func (s *ParticipationService) FindScoped(ctx context.Context, exercise *models.Exercise, studentExam *models.StudentExam) ([]models.StudentParticipation, error) {
	all, err := s.participations.FindByExerciseAndStudent(ctx, exercise.ID, studentExam.UserID)
	if err != nil {
		return nil, fmt.Errorf("error finding participations for exercise %d: %w", exercise.ID, err)
	}

	var scoped []models.StudentParticipation
	for _, p := range all {
		if p.InScopeOf(studentExam) {
			scoped = append(scoped, p)
		}
	}
	return scoped, nil
}

// StartExercise creates an initialized participation, plus an empty initial submission for kinds that have one.
// If a participation already exists in the scope it is returned, reinitialized when it never reached INITIALIZED.
func (s *ParticipationService) StartExercise(ctx context.Context, req StartParticipationRequest) (*models.StudentParticipation, error) {
	initializationDate := s.now()
	if req.InitializationDate != nil {
		initializationDate = *req.InitializationDate
	}

	studentExam := req.StudentExam
	participation := &models.StudentParticipation{
		ExerciseID:          req.Exercise.ID,
		StudentID:           studentExam.UserID,
		TestRun:             studentExam.TestRun,
		InitializationState: models.InitializationStateInitialized,
		InitializationDate:  &initializationDate,
	}
	if studentExam.TestRun || studentExam.IsTestExam() {
		scope := studentExam.ID
		participation.StudentExamID = &scope
	}

	err := s.participations.CreateWithInitialSubmission(ctx, participation, initialSubmissionFor(req.Exercise))
	if err == nil {
		return participation, nil
	}
	if !errors.Is(err, repositories.ErrDuplicateParticipation) {
		return nil, err
	}

	existing, err := s.FindScoped(ctx, req.Exercise, studentExam)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("participation of student %d in exercise %d reported as duplicate but not found", studentExam.UserID, req.Exercise.ID)
	}

	current := &existing[0]
	if current.InitializationState.HasCompleted(models.InitializationStateInitialized) {
		return current, nil
	}

	s.logger.Debug().
		Int64("participationID", current.ID).
		Str("state", string(current.InitializationState)).
		Msg("Reinitializing existing participation")
	if err := s.participations.Reinitialize(ctx, current, models.InitializationStateInitialized, initializationDate, initialSubmissionFor(req.Exercise)); err != nil {
		return nil, fmt.Errorf("error reinitializing participation %d: %w", current.ID, err)
	}
	return current, nil
}

func initialSubmissionFor(exercise *models.Exercise) *models.Submission {
	if !exercise.Kind.HasInitialSubmission() {
		return nil
	}
	return models.NewInitialSubmission(exercise.Kind)
}
