package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/yigit/examconduct/internal/app/models"
)

func TestEvaluateQuizSubmission(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	service := NewQuizEvaluationService(nil, nil, nil, zerolog.Nop())
	service.now = fixedClock(now)

	exercise := &models.Exercise{ID: 11, Kind: models.ExerciseKindQuiz, QuizQuestions: []models.QuizQuestion{
		{ID: 1, Type: models.QuizQuestionMultipleChoice, Points: 1, Solution: models.QuizSolution{CorrectOptionIDs: []int64{1, 2}}},
		{ID: 2, Type: models.QuizQuestionShortAnswer, Points: 3, Solution: models.QuizSolution{SpotSolutions: map[int64][]string{1: {"mutex"}}}},
	}}
	submission := &models.Submission{ID: 9, ParticipationID: 4, Kind: models.ExerciseKindQuiz, SubmittedAnswers: []models.SubmittedAnswer{
		{QuestionID: 1, SelectedOptionIDs: []int64{2, 1}},
		{QuestionID: 2, SpotTexts: map[int64]string{1: "semaphore"}},
	}}

	result := service.EvaluateQuizSubmission(submission, exercise)
	assert.Zero(t, result.ID)
	assert.Equal(t, 25.0, result.Score)
	assert.True(t, result.Rated)
	assert.Equal(t, models.AssessmentTypeAutomatic, result.AssessmentType)
	assert.Equal(t, int64(9), result.SubmissionID)
	assert.Equal(t, int64(4), result.ParticipationID)
	assert.True(t, result.CompletionDate.Equal(now))

	submission.Results = []models.Result{{ID: 31, SubmissionID: 9, Score: 25}}
	submission.SubmittedAnswers[1].SpotTexts[1] = " Mutex "
	again := service.EvaluateQuizSubmission(submission, exercise)
	assert.Equal(t, int64(31), again.ID, "the existing result is updated")
	assert.Equal(t, 100.0, again.Score)
}
