package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/pkg/dberrors"
)

// ExamRepository handles database operations for exams
type ExamRepository struct {
	db *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository
func NewExamRepository(db *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{db: db}
}

var examColumns = []string{
	"id", "course_id", "title", "visible_date", "start_date", "end_date", "grace_period",
	"test_exam", "number_of_correction_rounds", "created_at", "updated_at",
}

func scanExam(row pgx.Row) (*models.Exam, error) {
	var exam models.Exam
	err := row.Scan(
		&exam.ID,
		&exam.CourseID,
		&exam.Title,
		&exam.VisibleDate,
		&exam.StartDate,
		&exam.EndDate,
		&exam.GracePeriodSeconds,
		&exam.TestExam,
		&exam.NumberOfCorrectionRounds,
		&exam.CreatedAt,
		&exam.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

// GetByID retrieves an exam by ID, nil when it does not exist
func (r *ExamRepository) GetByID(ctx context.Context, id int64) (*models.Exam, error) {
	sql, args, err := psql.Select(examColumns...).From("exams").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	exam, err := scanExam(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return exam, nil
}

// IsUserRegistered reports whether the user is registered for the exam
func (r *ExamRepository) IsUserRegistered(ctx context.Context, examID, userID int64) (bool, error) {
	var exists bool
	builder := psql.Select().Column(squirrel.Expr(
		"EXISTS(SELECT 1 FROM exam_registrations WHERE exam_id = ? AND user_id = ?)", examID, userID,
	))
	if err := queryRow(ctx, r.db, builder, &exists); err != nil {
		return false, fmt.Errorf("error checking registration: %w", err)
	}
	return exists, nil
}

// GetExercises loads the given exercises of an exam, ignoring ids that belong to other exams
func (r *ExamRepository) GetExercises(ctx context.Context, examID int64, exerciseIDs []int64) ([]models.Exercise, error) {
	if len(exerciseIDs) == 0 {
		return nil, nil
	}
	builder := psql.Select(exerciseColumns...).
		From("exercises e").
		Join("exercise_groups g ON g.id = e.exercise_group_id").
		Where(squirrel.Eq{"g.exam_id": examID, "e.id": exerciseIDs}).
		OrderBy("g.id", "e.id")
	return scanExercises(ctx, r.db, builder)
}
