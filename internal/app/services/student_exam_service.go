package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/pkg/apperrors"
)

type exerciseStartStatusReader interface {
	GetStatus(ctx context.Context, examID int64) (*models.ExamExerciseStartPreparationStatus, error)
}

// StudentExamService covers the student exam lifecycle around the bulk start and the submit:
// test runs, test exam attempts and working time overrides
type StudentExamService struct {
	exams        ExamStore
	studentExams StudentExamStore
	starter      studentExamSetUp
	status       exerciseStartStatusReader
	now          func() time.Time
	logger       zerolog.Logger
}

// NewStudentExamService creates a new StudentExamService
func NewStudentExamService(exams ExamStore, studentExams StudentExamStore, starter studentExamSetUp, status exerciseStartStatusReader, logger zerolog.Logger) *StudentExamService {
	return &StudentExamService{
		exams:        exams,
		studentExams: studentExams,
		starter:      starter,
		status:       status,
		now:          time.Now,
		logger:       logger,
	}
}

// CreateTestRun creates a test run of the exam for the instructor and sets up its participations right away
func (s *StudentExamService) CreateTestRun(ctx context.Context, exam *models.Exam, instructor Principal, exerciseIDs []int64, workingTimeSeconds int) (*models.StudentExam, error) {
	if len(exerciseIDs) == 0 {
		return nil, apperrors.NewBadRequestError("a test run needs at least one exercise")
	}
	if workingTimeSeconds <= 0 {
		return nil, apperrors.NewBadRequestError("working time must be positive")
	}

	exercises, err := s.exams.GetExercises(ctx, exam.ID, exerciseIDs)
	if err != nil {
		return nil, fmt.Errorf("error loading exercises of exam %d: %w", exam.ID, err)
	}
	if len(exercises) != len(exerciseIDs) {
		return nil, apperrors.ErrExerciseNotFound
	}

	workingTime := workingTimeSeconds
	testRun := &models.StudentExam{
		ExamID:             exam.ID,
		UserID:             instructor.ID,
		WorkingTimeSeconds: &workingTime,
		TestRun:            true,
		Exam:               exam,
		Exercises:          exercises,
	}
	if err := s.studentExams.Create(ctx, testRun); err != nil {
		return nil, fmt.Errorf("error creating test run: %w", err)
	}

	if _, err := s.starter.SetUpExerciseParticipations(ctx, testRun, nil); err != nil {
		return nil, fmt.Errorf("error setting up test run %d: %w", testRun.ID, err)
	}

	s.logger.Info().
		Int64("examID", exam.ID).
		Int64("studentExamID", testRun.ID).
		Str("instructor", instructor.Login).
		Int("exercises", len(exercises)).
		Msg("Test run created")
	return testRun, nil
}

// StartTestExamAttempt stamps the attempt start of a test exam and starts its exercises with that date.
// Starting an attempt again keeps the original start.
func (s *StudentExamService) StartTestExamAttempt(ctx context.Context, studentExam *models.StudentExam) ([]models.StudentParticipation, error) {
	if !studentExam.IsTestExam() {
		return nil, apperrors.ErrNotATestExam
	}
	if studentExam.IsFinalized() {
		return nil, apperrors.ErrStudentExamAlreadySubmitted
	}

	if studentExam.StartedDate == nil {
		startedDate := s.now()
		if err := s.studentExams.SetStartedDate(ctx, studentExam.ID, startedDate); err != nil {
			return nil, fmt.Errorf("error starting test exam attempt %d: %w", studentExam.ID, err)
		}
		studentExam.StartedDate = &startedDate
	}

	return s.starter.SetUpExerciseParticipations(ctx, studentExam, studentExam.StartedDate)
}

// UpdateWorkingTime overrides the individual working time of a student exam
func (s *StudentExamService) UpdateWorkingTime(ctx context.Context, studentExam *models.StudentExam, workingTimeSeconds int) (*models.StudentExam, error) {
	if workingTimeSeconds <= 0 {
		return nil, apperrors.NewBadRequestError("working time must be positive")
	}
	if studentExam.IsFinalized() {
		return nil, apperrors.ErrStudentExamAlreadySubmitted
	}
	if end := studentExam.IndividualEndDateWithGracePeriod(); end != nil && s.now().After(*end) {
		return nil, apperrors.NewBadRequestError("the working time of an ended exam cannot be changed")
	}

	if err := s.studentExams.UpdateWorkingTime(ctx, studentExam.ID, workingTimeSeconds); err != nil {
		return nil, fmt.Errorf("error updating working time of student exam %d: %w", studentExam.ID, err)
	}
	previous := studentExam.WorkingTimeSeconds
	studentExam.WorkingTimeSeconds = &workingTimeSeconds

	event := s.logger.Info().Int64("studentExamID", studentExam.ID).Int("workingTime", workingTimeSeconds)
	if previous != nil {
		event = event.Int("previousWorkingTime", *previous)
	}
	event.Msg("Working time updated")
	return studentExam, nil
}

// GetExerciseStartStatus returns the cached progress of the exam's last bulk start
func (s *StudentExamService) GetExerciseStartStatus(ctx context.Context, examID int64) (*models.ExamExerciseStartPreparationStatus, error) {
	status, err := s.status.GetStatus(ctx, examID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("no exercise start status for exam %d", examID))
	}
	return status, nil
}
