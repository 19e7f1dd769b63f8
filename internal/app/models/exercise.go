package models

import "fmt"

// ExerciseKind is the closed set of exercise variants an exam may contain
type ExerciseKind string

const (
	ExerciseKindQuiz        ExerciseKind = "QUIZ"
	ExerciseKindText        ExerciseKind = "TEXT"
	ExerciseKindModeling    ExerciseKind = "MODELING"
	ExerciseKindFileUpload  ExerciseKind = "FILE_UPLOAD"
	ExerciseKindProgramming ExerciseKind = "PROGRAMMING"
)

// Valid reports whether the kind is one of the known variants
func (k ExerciseKind) Valid() bool {
	switch k {
	case ExerciseKindQuiz, ExerciseKindText, ExerciseKindModeling, ExerciseKindFileUpload, ExerciseKindProgramming:
		return true
	default:
		return false
	}
}

// HasInitialSubmission reports whether starting a participation creates an empty submission.
// Programming work lives in the version control system instead.
func (k ExerciseKind) HasInitialSubmission() bool {
	switch k {
	case ExerciseKindQuiz, ExerciseKindText, ExerciseKindModeling, ExerciseKindFileUpload:
		return true
	case ExerciseKindProgramming:
		return false
	default:
		panic(fmt.Sprintf("unknown exercise kind %q", string(k)))
	}
}

// SavedOnExamSubmit reports whether last-second edits are persisted when the student exam is handed in.
// Programming submissions come from the latest commit, file uploads from their own upload endpoint.
func (k ExerciseKind) SavedOnExamSubmit() bool {
	switch k {
	case ExerciseKindQuiz, ExerciseKindText, ExerciseKindModeling:
		return true
	case ExerciseKindFileUpload, ExerciseKindProgramming:
		return false
	default:
		panic(fmt.Sprintf("unknown exercise kind %q", string(k)))
	}
}

// Exercise is a single task inside an exercise group
type Exercise struct {
	ID              int64        `json:"id" db:"id"`
	ExerciseGroupID int64        `json:"exerciseGroupId" db:"exercise_group_id"`
	Kind            ExerciseKind `json:"kind" db:"kind"`
	Title           string       `json:"title" db:"title"`
	MaxPoints       float64      `json:"maxPoints" db:"max_points"`
	IncludedInScore bool         `json:"includedInScore" db:"included_in_score"`
	ProjectKey      string       `json:"projectKey,omitempty" db:"project_key"`

	// Quiz exercises only
	QuizQuestions []QuizQuestion `json:"quizQuestions,omitempty"`
}

// IsProgramming reports whether the exercise is backed by a repository
func (e *Exercise) IsProgramming() bool {
	return e.Kind == ExerciseKindProgramming
}

// IsQuiz reports whether the exercise is a quiz
func (e *Exercise) IsQuiz() bool {
	return e.Kind == ExerciseKindQuiz
}
