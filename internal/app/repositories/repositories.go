package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examconduct/internal/app/models"
)

// ErrDuplicateParticipation is returned when a participation already exists in the requested scope
var ErrDuplicateParticipation = errors.New("participation already exists")

// ErrUnknownExerciseKind is returned when a stored row carries an exercise kind outside the known variants
var ErrUnknownExerciseKind = errors.New("unknown exercise kind")

func checkExerciseKind(kind models.ExerciseKind, table string, id int64) error {
	if !kind.Valid() {
		return fmt.Errorf("%w %q on %s %d", ErrUnknownExerciseKind, string(kind), table, id)
	}
	return nil
}

// Unique indexes guarding participation scopes
const (
	constraintParticipationExerciseStudent     = "uq_participation_exercise_student"
	constraintParticipationExerciseStudentExam = "uq_participation_exercise_student_exam"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// querier is satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type sqlizer interface {
	ToSql() (string, []interface{}, error)
}

func queryRow(ctx context.Context, q querier, query sqlizer, dest ...any) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}
	return q.QueryRow(ctx, sql, args...).Scan(dest...)
}

func exec(ctx context.Context, q querier, query sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("error building SQL: %w", err)
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return tag, fmt.Errorf("error executing query: %w", err)
	}
	return tag, nil
}

func query(ctx context.Context, q querier, query sqlizer) (pgx.Rows, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return rows, nil
}

// marshalJSON encodes v for a JSONB column, nil stays NULL
func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func unmarshalJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Repositories holds all the repository instances
type Repositories struct {
	ExamRepository           *ExamRepository
	CourseRepository         *CourseRepository
	StudentExamRepository    *StudentExamRepository
	ParticipationRepository  *ParticipationRepository
	SubmissionRepository     *SubmissionRepository
	QuizStatisticsRepository *QuizStatisticsRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		ExamRepository:           NewExamRepository(db),
		CourseRepository:         NewCourseRepository(db),
		StudentExamRepository:    NewStudentExamRepository(db),
		ParticipationRepository:  NewParticipationRepository(db),
		SubmissionRepository:     NewSubmissionRepository(db),
		QuizStatisticsRepository: NewQuizStatisticsRepository(db),
	}
}
