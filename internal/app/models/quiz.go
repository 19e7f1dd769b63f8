package models

import "sort"

// QuizQuestionType enumerates the supported question variants
type QuizQuestionType string

const (
	QuizQuestionMultipleChoice QuizQuestionType = "MULTIPLE_CHOICE"
	QuizQuestionShortAnswer    QuizQuestionType = "SHORT_ANSWER"
	QuizQuestionDragAndDrop    QuizQuestionType = "DRAG_AND_DROP"
)

// QuizQuestion is a single scored question of a quiz exercise
type QuizQuestion struct {
	ID       int64            `json:"id" db:"id"`
	Type     QuizQuestionType `json:"type" db:"type"`
	Points   float64          `json:"points" db:"points"`
	Solution QuizSolution     `json:"-" db:"solution"`
}

// QuizSolution holds the correct answer of a question, only the part matching the question type is set
type QuizSolution struct {
	CorrectOptionIDs []int64              `json:"correctOptionIds,omitempty"`
	SpotSolutions    map[int64][]string   `json:"spotSolutions,omitempty"`
	Mappings         []DragAndDropMapping `json:"mappings,omitempty"`
}

// DragAndDropMapping places a drag item on a drop location
type DragAndDropMapping struct {
	DragItemID     int64 `json:"dragItemId"`
	DropLocationID int64 `json:"dropLocationId"`
}

// SubmittedAnswer is a student's answer to one quiz question
type SubmittedAnswer struct {
	QuestionID        int64                `json:"questionId"`
	SelectedOptionIDs []int64              `json:"selectedOptionIds,omitempty"`
	SpotTexts         map[int64]string     `json:"spotTexts,omitempty"`
	Mappings          []DragAndDropMapping `json:"mappings,omitempty"`
}

// ContentEquals compares two answers to the same question ignoring ordering
func (a SubmittedAnswer) ContentEquals(other SubmittedAnswer) bool {
	if a.QuestionID != other.QuestionID {
		return false
	}
	if !sameIDSet(a.SelectedOptionIDs, other.SelectedOptionIDs) {
		return false
	}
	if len(a.SpotTexts) != len(other.SpotTexts) {
		return false
	}
	for spot, text := range a.SpotTexts {
		if otherText, ok := other.SpotTexts[spot]; !ok || otherText != text {
			return false
		}
	}
	return sameMappingSet(a.Mappings, other.Mappings)
}

func sameIDSet(a, b []int64) bool {
	set := make(map[int64]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	other := make(map[int64]struct{}, len(b))
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
		other[id] = struct{}{}
	}
	return len(set) == len(other)
}

func sameMappingSet(a, b []DragAndDropMapping) bool {
	set := make(map[DragAndDropMapping]struct{}, len(a))
	for _, m := range a {
		set[m] = struct{}{}
	}
	other := make(map[DragAndDropMapping]struct{}, len(b))
	for _, m := range b {
		if _, ok := set[m]; !ok {
			return false
		}
		other[m] = struct{}{}
	}
	return len(set) == len(other)
}

// IsCorrect checks an answer against the question solution. All-or-nothing per question.
func (q QuizQuestion) IsCorrect(answer SubmittedAnswer) bool {
	switch q.Type {
	case QuizQuestionMultipleChoice:
		return sameIDSet(q.Solution.CorrectOptionIDs, answer.SelectedOptionIDs)
	case QuizQuestionShortAnswer:
		if len(q.Solution.SpotSolutions) == 0 {
			return false
		}
		for spot, accepted := range q.Solution.SpotSolutions {
			if !acceptsText(accepted, answer.SpotTexts[spot]) {
				return false
			}
		}
		return true
	case QuizQuestionDragAndDrop:
		return sameMappingSet(q.Solution.Mappings, answer.Mappings)
	default:
		return false
	}
}

func acceptsText(accepted []string, text string) bool {
	text = normalizeSpotText(text)
	if text == "" {
		return false
	}
	for _, candidate := range accepted {
		if normalizeSpotText(candidate) == text {
			return true
		}
	}
	return false
}

// ScoreQuizSubmission returns the achieved score in percent of the reachable quiz points
func ScoreQuizSubmission(questions []QuizQuestion, answers []SubmittedAnswer) float64 {
	byQuestion := make(map[int64]SubmittedAnswer, len(answers))
	for _, answer := range answers {
		byQuestion[answer.QuestionID] = answer
	}

	var reachable, achieved float64
	for _, question := range questions {
		reachable += question.Points
		answer, ok := byQuestion[question.ID]
		if ok && question.IsCorrect(answer) {
			achieved += question.Points
		}
	}
	if reachable == 0 {
		return 0
	}
	return roundScore(achieved / reachable * 100)
}

// SortedAnswers returns the answers ordered by question id
func SortedAnswers(answers []SubmittedAnswer) []SubmittedAnswer {
	sorted := append([]SubmittedAnswer(nil), answers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].QuestionID < sorted[j].QuestionID })
	return sorted
}
