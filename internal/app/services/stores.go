package services

import (
	"context"
	"time"

	"github.com/yigit/examconduct/internal/app/models"
)

// ExamStore is the exam persistence the exam services depend on
type ExamStore interface {
	GetByID(ctx context.Context, id int64) (*models.Exam, error)
	IsUserRegistered(ctx context.Context, examID, userID int64) (bool, error)
	GetExercises(ctx context.Context, examID int64, exerciseIDs []int64) ([]models.Exercise, error)
}

// CourseStore resolves course memberships
type CourseStore interface {
	GetCourseRole(ctx context.Context, courseID, userID int64) (models.CourseRole, error)
}

// StudentExamStore is the student exam persistence the exam services depend on
type StudentExamStore interface {
	GetByID(ctx context.Context, id int64) (*models.StudentExam, error)
	ListIDsByExam(ctx context.Context, examID int64) ([]int64, error)
	Create(ctx context.Context, studentExam *models.StudentExam) error
	MarkSubmitted(ctx context.Context, id int64, submissionDate time.Time) (bool, error)
	UpdateWorkingTime(ctx context.Context, id int64, workingTimeSeconds int) error
	SetStartedDate(ctx context.Context, id int64, startedDate time.Time) error
	SetRepositoryLockPending(ctx context.Context, id int64, pending bool) error
}

// ParticipationStore is the participation persistence the exam services depend on
type ParticipationStore interface {
	FindByExerciseAndStudent(ctx context.Context, exerciseID, studentID int64) ([]models.StudentParticipation, error)
	CreateWithInitialSubmission(ctx context.Context, participation *models.StudentParticipation, initial *models.Submission) error
	Reinitialize(ctx context.Context, participation *models.StudentParticipation, state models.InitializationState, initializationDate time.Time, initial *models.Submission) error
}

// SubmissionStore is the submission persistence the exam services depend on
type SubmissionStore interface {
	UpdateContent(ctx context.Context, submission *models.Submission) error
	CreateVersion(ctx context.Context, submission *models.Submission, author string) error
	SaveWithResult(ctx context.Context, submission *models.Submission, result *models.Result) error
}

// QuizStatisticsStore records rated quiz results
type QuizStatisticsStore interface {
	AddRatedResult(ctx context.Context, exerciseID int64, score float64) error
}

// StatusBroadcaster pushes a payload to every subscriber of a topic
type StatusBroadcaster interface {
	Publish(topic string, payload any) error
}

// CommandPublisher delivers a message to the version control integration
type CommandPublisher interface {
	Publish(ctx context.Context, message any) error
}
