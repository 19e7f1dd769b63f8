package models

import "time"

// Exam represents a timed assessment of a course
type Exam struct {
	ID                       int64      `json:"id" db:"id" example:"1"`
	CourseID                 int64      `json:"courseId" db:"course_id" example:"3"`
	Title                    string     `json:"title" db:"title" example:"Final Exam"`
	VisibleDate              *time.Time `json:"visibleDate,omitempty" db:"visible_date"`
	StartDate                *time.Time `json:"startDate,omitempty" db:"start_date"`
	EndDate                  *time.Time `json:"endDate,omitempty" db:"end_date"`
	GracePeriodSeconds       *int       `json:"gracePeriod,omitempty" db:"grace_period" example:"180"`
	TestExam                 bool       `json:"testExam" db:"test_exam"`
	NumberOfCorrectionRounds int        `json:"numberOfCorrectionRounds" db:"number_of_correction_rounds" example:"1"`
	CreatedAt                time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt                time.Time  `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	ExerciseGroups []ExerciseGroup `json:"exerciseGroups,omitempty"`
}

// ExerciseGroup groups interchangeable exercises of an exam
type ExerciseGroup struct {
	ID        int64      `json:"id" db:"id"`
	ExamID    int64      `json:"examId" db:"exam_id"`
	Title     string     `json:"title" db:"title"`
	Mandatory bool       `json:"mandatory" db:"is_mandatory"`
	Exercises []Exercise `json:"exercises,omitempty"`
}

// GracePeriod returns the configured grace period, zero when unset
func (e *Exam) GracePeriod() time.Duration {
	if e.GracePeriodSeconds == nil {
		return 0
	}
	return time.Duration(*e.GracePeriodSeconds) * time.Second
}

// IsVisibleToStudents reports whether the visible date has passed at the given instant
func (e *Exam) IsVisibleToStudents(now time.Time) bool {
	return e.VisibleDate != nil && !e.VisibleDate.After(now)
}

// HasStarted reports whether the exam start date has passed at the given instant
func (e *Exam) HasStarted(now time.Time) bool {
	return e.StartDate != nil && !e.StartDate.After(now)
}
