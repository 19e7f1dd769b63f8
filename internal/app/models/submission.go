package models

import "time"

// SubmissionType describes how a submission came into existence
type SubmissionType string

const (
	SubmissionTypeManual  SubmissionType = "MANUAL"
	SubmissionTypeInitial SubmissionType = "INITIAL"
)

// Submission is one hand-in of a participation; the payload fields used depend on the exercise kind
type Submission struct {
	ID               int64             `json:"id" db:"id"`
	ParticipationID  int64             `json:"participationId" db:"participation_id"`
	Kind             ExerciseKind      `json:"kind" db:"kind"`
	Type             SubmissionType    `json:"type" db:"type"`
	Submitted        bool              `json:"submitted" db:"submitted"`
	SubmissionDate   *time.Time        `json:"submissionDate,omitempty" db:"submission_date"`
	Text             *string           `json:"text,omitempty" db:"text"`
	Model            *string           `json:"model,omitempty" db:"model"`
	ExplanationText  *string           `json:"explanationText,omitempty" db:"explanation_text"`
	FilePath         *string           `json:"filePath,omitempty" db:"file_path"`
	SubmittedAnswers []SubmittedAnswer `json:"submittedAnswers,omitempty" db:"submitted_answers"`

	// Relations (populated when needed)
	Results []Result `json:"results,omitempty"`
}

// NewInitialSubmission creates the empty submission a freshly started participation receives
func NewInitialSubmission(kind ExerciseKind) *Submission {
	return &Submission{
		Kind: kind,
		Type: SubmissionTypeInitial,
	}
}

// LatestResult returns the most recent result or nil
func (s *Submission) LatestResult() *Result {
	if len(s.Results) == 0 {
		return nil
	}
	return &s.Results[len(s.Results)-1]
}

// IsEmpty reports whether the submission carries no content for its kind
func (s *Submission) IsEmpty() bool {
	switch s.Kind {
	case ExerciseKindQuiz:
		return len(s.SubmittedAnswers) == 0
	case ExerciseKindText:
		return s.Text == nil || *s.Text == ""
	case ExerciseKindModeling:
		return (s.Model == nil || *s.Model == "") && (s.ExplanationText == nil || *s.ExplanationText == "")
	case ExerciseKindFileUpload:
		return s.FilePath == nil || *s.FilePath == ""
	case ExerciseKindProgramming:
		return false
	default:
		return true
	}
}

// ContentEquals compares the kind specific payload of two submissions, a nil submission equals only nil
func (s *Submission) ContentEquals(other *Submission) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	switch s.Kind {
	case ExerciseKindQuiz:
		if len(s.SubmittedAnswers) != len(other.SubmittedAnswers) {
			return false
		}
		answers := make(map[int64]SubmittedAnswer, len(other.SubmittedAnswers))
		for _, a := range other.SubmittedAnswers {
			answers[a.QuestionID] = a
		}
		for _, a := range s.SubmittedAnswers {
			b, ok := answers[a.QuestionID]
			if !ok || !a.ContentEquals(b) {
				return false
			}
		}
		return true
	case ExerciseKindText:
		return equalStringPtr(s.Text, other.Text)
	case ExerciseKindModeling:
		return equalStringPtr(s.Model, other.Model) && equalStringPtr(s.ExplanationText, other.ExplanationText)
	case ExerciseKindFileUpload:
		return equalStringPtr(s.FilePath, other.FilePath)
	case ExerciseKindProgramming:
		return true
	default:
		return false
	}
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// AssessmentType describes who produced a result
type AssessmentType string

const (
	AssessmentTypeAutomatic AssessmentType = "AUTOMATIC"
	AssessmentTypeManual    AssessmentType = "MANUAL"
)

// Result is the assessment of a submission
type Result struct {
	ID              int64          `json:"id" db:"id"`
	SubmissionID    int64          `json:"submissionId" db:"submission_id"`
	ParticipationID int64          `json:"participationId" db:"participation_id"`
	Score           float64        `json:"score" db:"score"`
	Rated           bool           `json:"rated" db:"rated"`
	AssessmentType  AssessmentType `json:"assessmentType" db:"assessment_type"`
	CompletionDate  *time.Time     `json:"completionDate,omitempty" db:"completion_date"`
}
