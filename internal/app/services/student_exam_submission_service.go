package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/pkg/apperrors"
)

// ExerciseSubmissionEdit is the client's last known state of one exercise at submit time
type ExerciseSubmissionEdit struct {
	ExerciseID      int64
	ParticipationID int64
	// StudentID is the participation owner as claimed by the client
	StudentID  int64
	Submission models.Submission
}

type quizEvaluator interface {
	EvaluateStudentExam(ctx context.Context, studentExam *models.StudentExam) (int, error)
}

type repositoryLocker interface {
	LockParticipation(studentExam *models.StudentExam, exercise *models.Exercise, participation *models.StudentParticipation)
}

// StudentExamSubmissionService finalizes student exams
type StudentExamSubmissionService struct {
	studentExams   StudentExamStore
	participations scopedParticipationFinder
	submissions    SubmissionStore
	quizzes        quizEvaluator
	repositories   repositoryLocker
	now            func() time.Time
	logger         zerolog.Logger
}

// NewStudentExamSubmissionService creates a new StudentExamSubmissionService
func NewStudentExamSubmissionService(
	studentExams StudentExamStore,
	participations scopedParticipationFinder,
	submissions SubmissionStore,
	quizzes quizEvaluator,
	repositories repositoryLocker,
	logger zerolog.Logger,
) *StudentExamSubmissionService {
	return &StudentExamSubmissionService{
		studentExams:   studentExams,
		participations: participations,
		submissions:    submissions,
		quizzes:        quizzes,
		repositories:   repositories,
		now:            time.Now,
		logger:         logger,
	}
}

// plannedSave is a validated last-second edit of an existing submission
type plannedSave struct {
	exercise *models.Exercise
	stored   *models.Submission
	edit     *models.Submission
}

// SubmitStudentExam marks the student exam submitted, saves last-second edits and then either evaluates
// quizzes (test runs and test exams) or locks programming repositories of an early submission.
// Ownership and integrity violations in edits reject the whole submit before anything is written.
func (s *StudentExamSubmissionService) SubmitStudentExam(ctx context.Context, studentExam *models.StudentExam, user Principal, edits []ExerciseSubmissionEdit) (*models.StudentExam, error) {
	if studentExam.IsFinalized() {
		return nil, apperrors.ErrStudentExamAlreadySubmitted
	}

	now := s.now()
	if err := s.checkSubmissionWindow(studentExam, now); err != nil {
		return nil, err
	}

	log := s.logger.With().
		Int64("examID", studentExam.ExamID).
		Int64("studentExamID", studentExam.ID).
		Int64("userID", user.ID).
		Logger()

	saves, err := s.planSaves(ctx, studentExam, user, edits, log)
	if err != nil {
		return nil, err
	}

	submitted, err := s.studentExams.MarkSubmitted(ctx, studentExam.ID, now)
	if err != nil {
		return nil, fmt.Errorf("error submitting student exam %d: %w", studentExam.ID, err)
	}
	if !submitted {
		return nil, apperrors.ErrStudentExamAlreadySubmitted
	}
	studentExam.Submitted = true
	studentExam.SubmissionDate = &now
	log.Info().Int("edits", len(saves)).Msg("Student exam submitted")

	for _, save := range saves {
		s.save(ctx, save, user, now, log)
	}

	if studentExam.TestRun || studentExam.IsTestExam() {
		if _, err := s.quizzes.EvaluateStudentExam(ctx, studentExam); err != nil {
			log.Error().Err(err).Msg("Quiz evaluation after submit failed")
		}
		return studentExam, nil
	}

	s.lockEarlySubmission(ctx, studentExam, now, log)
	return studentExam, nil
}

// checkSubmissionWindow accepts submits between the working period start and the individual end plus grace.
// Test runs have no window; undefined exam timing is not enforced.
func (s *StudentExamSubmissionService) checkSubmissionWindow(studentExam *models.StudentExam, now time.Time) error {
	if studentExam.TestRun || studentExam.Exam == nil {
		return nil
	}

	start := studentExam.Exam.StartDate
	if studentExam.IsTestExam() {
		start = studentExam.StartedDate
	}
	if start != nil && now.Before(*start) {
		return apperrors.ErrSubmissionWindowClosed
	}
	if end := studentExam.IndividualEndDateWithGracePeriod(); end != nil && now.After(*end) {
		return apperrors.ErrSubmissionWindowClosed
	}
	return nil
}

func (s *StudentExamSubmissionService) planSaves(ctx context.Context, studentExam *models.StudentExam, user Principal, edits []ExerciseSubmissionEdit, log zerolog.Logger) ([]plannedSave, error) {
	var saves []plannedSave
	for i := range edits {
		edit := &edits[i]
		exercise, ok := studentExam.ExerciseByID(edit.ExerciseID)
		if !ok {
			return nil, apperrors.NewForbiddenError(fmt.Sprintf("exercise %d is not part of student exam %d", edit.ExerciseID, studentExam.ID))
		}
		if !exercise.Kind.Valid() {
			log.Warn().Int64("exerciseID", exercise.ID).Str("kind", string(exercise.Kind)).Msg("Unknown exercise kind, skipping last-second save")
			continue
		}
		if !exercise.Kind.SavedOnExamSubmit() {
			continue
		}

		participations, err := s.participations.FindScoped(ctx, exercise, studentExam)
		if err != nil {
			log.Warn().Err(err).Int64("exerciseID", exercise.ID).Msg("Could not load participation, skipping last-second save")
			continue
		}

		var existing *models.StudentParticipation
		for j := range participations {
			if participations[j].ID == edit.ParticipationID {
				existing = &participations[j]
				break
			}
		}
		if existing == nil {
			return nil, apperrors.NewForbiddenError(fmt.Sprintf("participation %d does not belong to student exam %d", edit.ParticipationID, studentExam.ID))
		}
		if edit.StudentID != user.ID || !existing.IsOwnedBy(user.ID) {
			return nil, apperrors.NewForbiddenError(fmt.Sprintf("user %s is not allowed to access participation %d", user.Login, existing.ID))
		}
		if !existing.HasSubmission(edit.Submission.ID) {
			return nil, apperrors.NewForbiddenError(fmt.Sprintf("user %s cannot submit a different submission %d for participation %d", user.Login, edit.Submission.ID, existing.ID))
		}
		if len(edit.Submission.Results) > 0 {
			return nil, apperrors.NewForbiddenError(fmt.Sprintf("user %s cannot inject a result for submission %d", user.Login, edit.Submission.ID))
		}

		var stored *models.Submission
		for j := range existing.Submissions {
			if existing.Submissions[j].ID == edit.Submission.ID {
				stored = &existing.Submissions[j]
			}
		}
		saves = append(saves, plannedSave{exercise: exercise, stored: stored, edit: &edit.Submission})
	}
	return saves, nil
}

// save persists one edit. Failures are logged so that other exercises are still saved.
func (s *StudentExamSubmissionService) save(ctx context.Context, save plannedSave, user Principal, now time.Time, log zerolog.Logger) {
	log = log.With().Int64("exerciseID", save.exercise.ID).Int64("submissionID", save.stored.ID).Logger()

	candidate := *save.stored
	candidate.Text = save.edit.Text
	candidate.Model = save.edit.Model
	candidate.ExplanationText = save.edit.ExplanationText
	candidate.SubmittedAnswers = save.edit.SubmittedAnswers

	changed := !save.stored.ContentEquals(&candidate)
	if !changed && save.stored.Submitted {
		log.Debug().Msg("Submission unchanged, nothing to save")
		return
	}

	candidate.Submitted = true
	candidate.SubmissionDate = &now
	candidate.Type = models.SubmissionTypeManual
	if err := s.submissions.UpdateContent(ctx, &candidate); err != nil {
		log.Error().Err(err).Msg("Could not save last-second submission")
		return
	}
	*save.stored = candidate

	if !changed {
		return
	}
	if err := s.submissions.CreateVersion(ctx, &candidate, user.Login); err != nil {
		log.Warn().Err(err).Msg("Submission version could not be saved")
	}
}

// lockEarlySubmission locks programming repositories when the student hands in before the individual end.
// Later submits rely on the lock scheduled for the end of the exam.
func (s *StudentExamSubmissionService) lockEarlySubmission(ctx context.Context, studentExam *models.StudentExam, now time.Time, log zerolog.Logger) {
	end := studentExam.IndividualEndDate()
	if end == nil || !now.Before(*end) {
		return
	}

	for i := range studentExam.Exercises {
		exercise := &studentExam.Exercises[i]
		if !exercise.IsProgramming() {
			continue
		}
		participations, err := s.participations.FindScoped(ctx, exercise, studentExam)
		if err != nil {
			log.Error().Err(err).Int64("exerciseID", exercise.ID).Msg("Locking programming exercise failed")
			continue
		}
		if len(participations) == 0 {
			log.Warn().Int64("exerciseID", exercise.ID).Msg("No participation to lock")
			continue
		}
		s.repositories.LockParticipation(studentExam, exercise, &participations[0])
	}
}
