package models

import (
	"time"

	"github.com/yigit/examconduct/internal/pkg/helpers"
)

// StudentExam is the per-student materialization of an exam
type StudentExam struct {
	ID                    int64      `json:"id" db:"id" example:"42"`
	ExamID                int64      `json:"examId" db:"exam_id" example:"1"`
	UserID                int64      `json:"userId" db:"user_id" example:"7"`
	WorkingTimeSeconds    *int       `json:"workingTime,omitempty" db:"working_time" example:"7200"`
	Submitted             bool       `json:"submitted" db:"submitted"`
	SubmissionDate        *time.Time `json:"submissionDate,omitempty" db:"submission_date"`
	TestRun               bool       `json:"testRun" db:"test_run"`
	StartedDate           *time.Time `json:"startedDate,omitempty" db:"started_date"`
	RepositoryLockPending bool       `json:"repositoryLockPending" db:"repository_lock_pending"`
	CreatedAt             time.Time  `json:"createdAt" db:"created_at"`

	// Relations (populated when needed)
	Exam      *Exam      `json:"exam,omitempty"`
	Exercises []Exercise `json:"exercises,omitempty"`
}

// IsTestExam reports whether the student exam belongs to a test exam
func (s *StudentExam) IsTestExam() bool {
	return s.Exam != nil && s.Exam.TestExam
}

// IsFinalized reports whether no further submission edits may be accepted
func (s *StudentExam) IsFinalized() bool {
	return s.Submitted || s.SubmissionDate != nil
}

// workingPeriodStart is the exam start for real exams and the attempt start for test exams
func (s *StudentExam) workingPeriodStart() *time.Time {
	if s.IsTestExam() && s.StartedDate != nil {
		return s.StartedDate
	}
	if s.Exam == nil {
		return nil
	}
	return s.Exam.StartDate
}

// IndividualEndDate returns the end of this student's working time, nil if the exam timing is undefined
func (s *StudentExam) IndividualEndDate() *time.Time {
	if s.Exam == nil {
		return nil
	}
	return helpers.IndividualEndDate(s.workingPeriodStart(), s.Exam.EndDate, s.WorkingTimeSeconds)
}

// IndividualEndDateWithGracePeriod adds the exam grace period to the individual end date
func (s *StudentExam) IndividualEndDateWithGracePeriod() *time.Time {
	if s.Exam == nil {
		return nil
	}
	return helpers.IndividualEndDateWithGracePeriod(s.workingPeriodStart(), s.Exam.EndDate, s.WorkingTimeSeconds, s.Exam.GracePeriodSeconds)
}

// ExerciseByID finds an exercise assigned to this student exam
func (s *StudentExam) ExerciseByID(exerciseID int64) (*Exercise, bool) {
	for i := range s.Exercises {
		if s.Exercises[i].ID == exerciseID {
			return &s.Exercises[i], true
		}
	}
	return nil, false
}
