package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/db"
	"github.com/yigit/examconduct/internal/pkg/dberrors"
)

// StudentExamRepository handles database operations for student exams
type StudentExamRepository struct {
	db    *pgxpool.Pool
	exams *ExamRepository
}

// NewStudentExamRepository creates a new StudentExamRepository
func NewStudentExamRepository(pool *pgxpool.Pool) *StudentExamRepository {
	return &StudentExamRepository{db: pool, exams: NewExamRepository(pool)}
}

// GetByID loads a student exam together with its exam and its ordered exercises, nil when it does not exist
func (r *StudentExamRepository) GetByID(ctx context.Context, id int64) (*models.StudentExam, error) {
	var se models.StudentExam
	err := queryRow(ctx, r.db, psql.Select(
		"id", "exam_id", "user_id", "working_time", "submitted", "submission_date",
		"test_run", "started_date", "repository_lock_pending", "created_at",
	).From("student_exams").Where("id = ?", id),
		&se.ID,
		&se.ExamID,
		&se.UserID,
		&se.WorkingTimeSeconds,
		&se.Submitted,
		&se.SubmissionDate,
		&se.TestRun,
		&se.StartedDate,
		&se.RepositoryLockPending,
		&se.CreatedAt,
	)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting student exam: %w", err)
	}

	exam, err := r.exams.GetByID(ctx, se.ExamID)
	if err != nil {
		return nil, err
	}
	se.Exam = exam

	se.Exercises, err = scanExercises(ctx, r.db, psql.Select(exerciseColumns...).
		From("student_exam_exercises see").
		Join("exercises e ON e.id = see.exercise_id").
		Where("see.student_exam_id = ?", id).
		OrderBy("see.position"))
	if err != nil {
		return nil, fmt.Errorf("error loading exercises of student exam %d: %w", id, err)
	}
	return &se, nil
}

// ListIDsByExam returns the ids of all real (non test run) student exams of an exam
func (r *StudentExamRepository) ListIDsByExam(ctx context.Context, examID int64) ([]int64, error) {
	rows, err := query(ctx, r.db, psql.Select("id").
		From("student_exams").
		Where("exam_id = ? AND test_run = FALSE", examID).
		OrderBy("id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error scanning student exam ids: %w", err)
	}
	return ids, nil
}

// Create inserts the student exam and links its exercises in order
func (r *StudentExamRepository) Create(ctx context.Context, se *models.StudentExam) error {
	return db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		err := queryRow(ctx, tx, psql.Insert("student_exams").
			Columns("exam_id", "user_id", "working_time", "test_run", "started_date").
			Values(se.ExamID, se.UserID, se.WorkingTimeSeconds, se.TestRun, se.StartedDate).
			Suffix("RETURNING id, created_at"), &se.ID, &se.CreatedAt)
		if err != nil {
			return fmt.Errorf("error inserting student exam: %w", err)
		}

		if len(se.Exercises) == 0 {
			return nil
		}
		insert := psql.Insert("student_exam_exercises").Columns("student_exam_id", "exercise_id", "position")
		for i, exercise := range se.Exercises {
			insert = insert.Values(se.ID, exercise.ID, i)
		}
		_, err = exec(ctx, tx, insert)
		return err
	})
}

// MarkSubmitted flips the submitted flag once. It reports false when the student exam was already submitted.
func (r *StudentExamRepository) MarkSubmitted(ctx context.Context, id int64, submissionDate time.Time) (bool, error) {
	tag, err := exec(ctx, r.db, psql.Update("student_exams").
		Set("submitted", true).
		Set("submission_date", submissionDate).
		Where("id = ? AND submitted = FALSE AND submission_date IS NULL", id))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateWorkingTime stores a per-student working time override
func (r *StudentExamRepository) UpdateWorkingTime(ctx context.Context, id int64, workingTimeSeconds int) error {
	_, err := exec(ctx, r.db, psql.Update("student_exams").
		Set("working_time", workingTimeSeconds).
		Where("id = ?", id))
	return err
}

// SetStartedDate records when a test exam attempt was started
func (r *StudentExamRepository) SetStartedDate(ctx context.Context, id int64, startedDate time.Time) error {
	_, err := exec(ctx, r.db, psql.Update("student_exams").
		Set("started_date", startedDate).
		Where("id = ?", id))
	return err
}

// SetRepositoryLockPending records whether a repository lock still has to be delivered
func (r *StudentExamRepository) SetRepositoryLockPending(ctx context.Context, id int64, pending bool) error {
	_, err := exec(ctx, r.db, psql.Update("student_exams").
		Set("repository_lock_pending", pending).
		Where("id = ?", id))
	return err
}
