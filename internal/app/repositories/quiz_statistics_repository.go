package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// QuizStatisticsRepository maintains the running rated-result statistics of quiz exercises
type QuizStatisticsRepository struct {
	db *pgxpool.Pool
}

// NewQuizStatisticsRepository creates a new QuizStatisticsRepository
func NewQuizStatisticsRepository(db *pgxpool.Pool) *QuizStatisticsRepository {
	return &QuizStatisticsRepository{db: db}
}

// AddRatedResult counts one more rated participant with the given score
func (r *QuizStatisticsRepository) AddRatedResult(ctx context.Context, exerciseID int64, score float64) error {
	_, err := exec(ctx, r.db, psql.Insert("quiz_statistics").
		Columns("exercise_id", "participants_rated", "score_sum").
		Values(exerciseID, 1, score).
		Suffix(`ON CONFLICT (exercise_id) DO UPDATE SET
			participants_rated = quiz_statistics.participants_rated + 1,
			score_sum = quiz_statistics.score_sum + EXCLUDED.score_sum,
			updated_at = CURRENT_TIMESTAMP`))
	return err
}
