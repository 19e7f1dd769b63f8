package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/examconduct/internal/app/models"
)

var exerciseColumns = []string{
	"e.id", "e.exercise_group_id", "e.kind", "e.title", "e.max_points", "e.included_in_score", "COALESCE(e.project_key, '')",
}

func scanExercises(ctx context.Context, q querier, builder squirrel.SelectBuilder) ([]models.Exercise, error) {
	rows, err := query(ctx, q, builder)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.ExerciseGroupID, &e.Kind, &e.Title, &e.MaxPoints, &e.IncludedInScore, &e.ProjectKey); err != nil {
			return nil, fmt.Errorf("error scanning exercise: %w", err)
		}
		if err := checkExerciseKind(e.Kind, "exercise", e.ID); err != nil {
			return nil, err
		}
		exercises = append(exercises, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exercises: %w", err)
	}

	if err := attachQuizQuestions(ctx, q, exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// attachQuizQuestions loads the questions of all quiz exercises in one query
func attachQuizQuestions(ctx context.Context, q querier, exercises []models.Exercise) error {
	index := make(map[int64]int)
	var quizIDs []int64
	for i := range exercises {
		if exercises[i].IsQuiz() {
			index[exercises[i].ID] = i
			quizIDs = append(quizIDs, exercises[i].ID)
		}
	}
	if len(quizIDs) == 0 {
		return nil
	}

	rows, err := query(ctx, q, psql.Select("id", "exercise_id", "type", "points", "solution").
		From("quiz_questions").
		Where(squirrel.Eq{"exercise_id": quizIDs}).
		OrderBy("id"))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			question   models.QuizQuestion
			exerciseID int64
			solution   []byte
		)
		if err := rows.Scan(&question.ID, &exerciseID, &question.Type, &question.Points, &solution); err != nil {
			return fmt.Errorf("error scanning quiz question: %w", err)
		}
		if err := unmarshalJSON(solution, &question.Solution); err != nil {
			return fmt.Errorf("error decoding solution of question %d: %w", question.ID, err)
		}
		i := index[exerciseID]
		exercises[i].QuizQuestions = append(exercises[i].QuizQuestions, question)
	}
	return rows.Err()
}
