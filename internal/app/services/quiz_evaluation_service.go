package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examconduct/internal/app/models"
)

type scopedParticipationFinder interface {
	FindScoped(ctx context.Context, exercise *models.Exercise, studentExam *models.StudentExam) ([]models.StudentParticipation, error)
}

// QuizEvaluationService scores the quiz participations of test runs and test exams right after submission
type QuizEvaluationService struct {
	participations scopedParticipationFinder
	submissions    SubmissionStore
	statistics     QuizStatisticsStore
	now            func() time.Time
	logger         zerolog.Logger
}

// NewQuizEvaluationService creates a new QuizEvaluationService
func NewQuizEvaluationService(participations scopedParticipationFinder, submissions SubmissionStore, statistics QuizStatisticsStore, logger zerolog.Logger) *QuizEvaluationService {
	return &QuizEvaluationService{
		participations: participations,
		submissions:    submissions,
		statistics:     statistics,
		now:            time.Now,
		logger:         logger,
	}
}

// EvaluateQuizSubmission computes the rated automatic result of a quiz submission.
// An existing result of the submission is updated in place, so each submission keeps exactly one.
func (s *QuizEvaluationService) EvaluateQuizSubmission(submission *models.Submission, exercise *models.Exercise) *models.Result {
	completion := s.now()
	result := &models.Result{}
	if latest := submission.LatestResult(); latest != nil {
		*result = *latest
	}
	result.SubmissionID = submission.ID
	result.ParticipationID = submission.ParticipationID
	result.Score = models.ScoreQuizSubmission(exercise.QuizQuestions, submission.SubmittedAnswers)
	result.Rated = true
	result.AssessmentType = models.AssessmentTypeAutomatic
	result.CompletionDate = &completion
	return result
}

// EvaluateStudentExam scores every quiz exercise of the student exam. Exercises are evaluated
// independently; the number of evaluated submissions is returned along with the first error met.
func (s *QuizEvaluationService) EvaluateStudentExam(ctx context.Context, studentExam *models.StudentExam) (int, error) {
	log := s.logger.With().Int64("studentExamID", studentExam.ID).Logger()
	feedStatistics := studentExam.IsTestExam()

	evaluated := 0
	var firstErr error
	for i := range studentExam.Exercises {
		exercise := &studentExam.Exercises[i]
		if !exercise.IsQuiz() {
			continue
		}
		n, err := s.evaluateExercise(ctx, studentExam, exercise, feedStatistics)
		evaluated += n
		if err != nil {
			log.Error().Err(err).Int64("exerciseID", exercise.ID).Msg("Quiz evaluation failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	log.Debug().Int("evaluated", evaluated).Bool("statistics", feedStatistics).Msg("Quiz participations evaluated")
	return evaluated, firstErr
}

func (s *QuizEvaluationService) evaluateExercise(ctx context.Context, studentExam *models.StudentExam, exercise *models.Exercise, feedStatistics bool) (int, error) {
	participations, err := s.participations.FindScoped(ctx, exercise, studentExam)
	if err != nil {
		return 0, err
	}

	evaluated := 0
	for _, participation := range participations {
		for i := range participation.Submissions {
			submission := &participation.Submissions[i]
			result := s.EvaluateQuizSubmission(submission, exercise)

			if !submission.Submitted {
				submission.Submitted = true
				submission.SubmissionDate = result.CompletionDate
			}
			if err := s.submissions.SaveWithResult(ctx, submission, result); err != nil {
				return evaluated, fmt.Errorf("error saving result of submission %d: %w", submission.ID, err)
			}
			evaluated++

			if feedStatistics {
				if err := s.statistics.AddRatedResult(ctx, exercise.ID, result.Score); err != nil {
					s.logger.Warn().Err(err).Int64("exerciseID", exercise.ID).Msg("Failed to update quiz statistics")
				}
			}
		}
	}
	return evaluated, nil
}
