package models

import "time"

// InitializationState describes how far the set-up of a participation has progressed
type InitializationState string

const (
	InitializationStateUninitialized       InitializationState = "UNINITIALIZED"
	InitializationStateRepoCopied          InitializationState = "REPO_COPIED"
	InitializationStateRepoConfigured      InitializationState = "REPO_CONFIGURED"
	InitializationStateBuildPlanConfigured InitializationState = "BUILD_PLAN_CONFIGURED"
	InitializationStateInitialized         InitializationState = "INITIALIZED"
	InitializationStateFinished            InitializationState = "FINISHED"
)

var initializationStateRank = map[InitializationState]int{
	InitializationStateUninitialized:       0,
	InitializationStateRepoCopied:          1,
	InitializationStateRepoConfigured:      2,
	InitializationStateBuildPlanConfigured: 3,
	InitializationStateInitialized:         4,
	InitializationStateFinished:            5,
}

// HasCompleted reports whether this state is at least the given one
func (s InitializationState) HasCompleted(other InitializationState) bool {
	rank, ok := initializationStateRank[s]
	if !ok {
		return false
	}
	return rank >= initializationStateRank[other]
}

// StudentParticipation links one student to one exercise and owns its submissions.
// StudentExamID scopes test run and test exam participations to their owning student exam,
// it is nil for participations of real exams.
type StudentParticipation struct {
	ID                  int64               `json:"id" db:"id"`
	ExerciseID          int64               `json:"exerciseId" db:"exercise_id"`
	StudentID           int64               `json:"studentId" db:"student_id"`
	StudentExamID       *int64              `json:"studentExamId,omitempty" db:"student_exam_id"`
	TestRun             bool                `json:"testRun" db:"test_run"`
	InitializationState InitializationState `json:"initializationState" db:"initialization_state"`
	InitializationDate  *time.Time          `json:"initializationDate,omitempty" db:"initialization_date"`
	RepositoryURI       string              `json:"repositoryUri,omitempty" db:"repository_uri"`

	// Relations (populated when needed)
	Submissions []Submission `json:"submissions,omitempty"`
}

// IsOwnedBy reports whether the participation belongs to the given user
func (p *StudentParticipation) IsOwnedBy(userID int64) bool {
	return p.StudentID == userID
}

// HasSubmission reports whether a submission with the given id belongs to this participation
func (p *StudentParticipation) HasSubmission(submissionID int64) bool {
	for _, s := range p.Submissions {
		if s.ID == submissionID {
			return true
		}
	}
	return false
}

// LatestSubmission returns the submission with the highest id
func (p *StudentParticipation) LatestSubmission() *Submission {
	var latest *Submission
	for i := range p.Submissions {
		if latest == nil || p.Submissions[i].ID > latest.ID {
			latest = &p.Submissions[i]
		}
	}
	return latest
}

// InScopeOf reports whether the participation belongs to the given student exam's scope
func (p *StudentParticipation) InScopeOf(studentExam *StudentExam) bool {
	if studentExam.TestRun || studentExam.IsTestExam() {
		return p.StudentExamID != nil && *p.StudentExamID == studentExam.ID
	}
	return p.StudentExamID == nil && !p.TestRun
}
