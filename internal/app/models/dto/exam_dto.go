package dto

import (
	"time"

	"github.com/yigit/examconduct/internal/app/models"
)

// SubmissionPayload is the client's copy of a submission at submit time
type SubmissionPayload struct {
	ID               int64                    `json:"id" validate:"required,gt=0" example:"501"`
	Text             *string                  `json:"text,omitempty" example:"Binary search halves the range"`
	Model            *string                  `json:"model,omitempty"`
	ExplanationText  *string                  `json:"explanationText,omitempty"`
	SubmittedAnswers []models.SubmittedAnswer `json:"submittedAnswers,omitempty"`
	Results          []models.Result          `json:"results,omitempty"`
}

// ExerciseSubmissionRequest is the last known state of one exercise of the student exam
type ExerciseSubmissionRequest struct {
	ExerciseID      int64             `json:"exerciseId" validate:"required,gt=0" example:"12"`
	ParticipationID int64             `json:"participationId" validate:"required,gt=0" example:"101"`
	StudentID       int64             `json:"studentId" validate:"required,gt=0" example:"7"`
	Submission      SubmissionPayload `json:"submission" validate:"required"`
}

// SubmitStudentExamRequest hands in a student exam
type SubmitStudentExamRequest struct {
	StudentExamID int64                       `json:"id" validate:"required,gt=0" example:"42"`
	TestRun       bool                        `json:"testRun" example:"false"`
	Exercises     []ExerciseSubmissionRequest `json:"exercises" validate:"dive"`
}

// CreateTestRunRequest creates a test run for the requesting instructor
type CreateTestRunRequest struct {
	ExerciseIDs []int64 `json:"exerciseIds" validate:"required,min=1,dive,gt=0"`
	WorkingTime int     `json:"workingTime" validate:"required,gt=0" example:"3600"`
}

// UpdateWorkingTimeRequest overrides the individual working time of a student exam
type UpdateWorkingTimeRequest struct {
	WorkingTime int `json:"workingTime" validate:"required,gt=0" example:"8100"`
}

// ToSubmission converts the payload into a submission of the given kind
func (p SubmissionPayload) ToSubmission(participationID int64, kind models.ExerciseKind) models.Submission {
	return models.Submission{
		ID:               p.ID,
		ParticipationID:  participationID,
		Kind:             kind,
		Text:             p.Text,
		Model:            p.Model,
		ExplanationText:  p.ExplanationText,
		SubmittedAnswers: p.SubmittedAnswers,
		Results:          p.Results,
	}
}

// StudentExamResponse is the student exam as returned to clients
type StudentExamResponse struct {
	ID                         int64      `json:"id" example:"42"`
	ExamID                     int64      `json:"examId" example:"1"`
	UserID                     int64      `json:"userId" example:"7"`
	WorkingTime                *int       `json:"workingTime,omitempty" example:"7200"`
	Submitted                  bool       `json:"submitted"`
	SubmissionDate             *time.Time `json:"submissionDate,omitempty"`
	TestRun                    bool       `json:"testRun"`
	StartedDate                *time.Time `json:"startedDate,omitempty"`
	IndividualEndDate          *time.Time `json:"individualEndDate,omitempty"`
	IndividualEndDateWithGrace *time.Time `json:"individualEndDateWithGrace,omitempty"`
	RepositoryLockPending      bool       `json:"repositoryLockPending"`
	ExerciseIDs                []int64    `json:"exerciseIds,omitempty"`
}

// NewStudentExamResponse maps a student exam to its response
func NewStudentExamResponse(se *models.StudentExam) StudentExamResponse {
	resp := StudentExamResponse{
		ID:                         se.ID,
		ExamID:                     se.ExamID,
		UserID:                     se.UserID,
		WorkingTime:                se.WorkingTimeSeconds,
		Submitted:                  se.Submitted,
		SubmissionDate:             se.SubmissionDate,
		TestRun:                    se.TestRun,
		StartedDate:                se.StartedDate,
		IndividualEndDate:          se.IndividualEndDate(),
		IndividualEndDateWithGrace: se.IndividualEndDateWithGracePeriod(),
		RepositoryLockPending:      se.RepositoryLockPending,
	}
	for _, ex := range se.Exercises {
		resp.ExerciseIDs = append(resp.ExerciseIDs, ex.ID)
	}
	return resp
}

// ExerciseStartAcceptedResponse acknowledges a launched bulk start
type ExerciseStartAcceptedResponse struct {
	ExamID    int64     `json:"examId" example:"1"`
	Overall   int       `json:"overall" example:"250"`
	StartTime time.Time `json:"startTime"`
	StatusURL string    `json:"statusUrl" example:"/api/v1/courses/3/exams/1/student-exams/start-exercises/status"`
	Topic     string    `json:"topic" example:"exams/1/exercise-start-status"`
}

// ParticipationResponse is a started participation
type ParticipationResponse struct {
	ID                  int64      `json:"id" example:"101"`
	ExerciseID          int64      `json:"exerciseId" example:"12"`
	InitializationState string     `json:"initializationState" example:"INITIALIZED"`
	InitializationDate  *time.Time `json:"initializationDate,omitempty"`
	SubmissionIDs       []int64    `json:"submissionIds,omitempty"`
}

// NewParticipationResponses maps started participations to responses
func NewParticipationResponses(participations []models.StudentParticipation) []ParticipationResponse {
	resp := make([]ParticipationResponse, 0, len(participations))
	for _, p := range participations {
		item := ParticipationResponse{
			ID:                  p.ID,
			ExerciseID:          p.ExerciseID,
			InitializationState: string(p.InitializationState),
			InitializationDate:  p.InitializationDate,
		}
		for _, s := range p.Submissions {
			item.SubmissionIDs = append(item.SubmissionIDs, s.ID)
		}
		resp = append(resp, item)
	}
	return resp
}
