package models

import "time"

// ExamExerciseStartPreparationStatus is the progress snapshot of a bulk exercise start
type ExamExerciseStartPreparationStatus struct {
	Finished           int       `json:"finished"`
	Failed             int       `json:"failed"`
	Overall            int       `json:"overall"`
	ParticipationCount int       `json:"participationCount"`
	Queued             int       `json:"queued"`
	StartTime          time.Time `json:"startTime"`
}

// Merge folds a previously published snapshot into this one. Counters never go backwards,
// the start time and queue depth of the newer snapshot win.
func (s ExamExerciseStartPreparationStatus) Merge(previous *ExamExerciseStartPreparationStatus) ExamExerciseStartPreparationStatus {
	if previous == nil {
		return s
	}
	return ExamExerciseStartPreparationStatus{
		Finished:           max(s.Finished, previous.Finished),
		Failed:             max(s.Failed, previous.Failed),
		Overall:            max(s.Overall, previous.Overall),
		ParticipationCount: max(s.ParticipationCount, previous.ParticipationCount),
		Queued:             s.Queued,
		StartTime:          s.StartTime,
	}
}

// Done reports whether every student exam of the run has been processed
func (s ExamExerciseStartPreparationStatus) Done() bool {
	return s.Finished+s.Failed >= s.Overall
}
