package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/db"
	"github.com/yigit/examconduct/internal/pkg/dberrors"
)

// ParticipationRepository handles database operations for student participations
type ParticipationRepository struct {
	db *pgxpool.Pool
}

// NewParticipationRepository creates a new ParticipationRepository
func NewParticipationRepository(db *pgxpool.Pool) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

// FindByExerciseAndStudent returns every participation of the student in the exercise, across all scopes,
// with submissions and their results attached
func (r *ParticipationRepository) FindByExerciseAndStudent(ctx context.Context, exerciseID, studentID int64) ([]models.StudentParticipation, error) {
	rows, err := query(ctx, r.db, psql.Select(
		"id", "exercise_id", "student_id", "student_exam_id", "test_run",
		"initialization_state", "initialization_date", "repository_uri",
	).From("participations").
		Where("exercise_id = ? AND student_id = ?", exerciseID, studentID).
		OrderBy("id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participations []models.StudentParticipation
	for rows.Next() {
		var p models.StudentParticipation
		if err := rows.Scan(
			&p.ID,
			&p.ExerciseID,
			&p.StudentID,
			&p.StudentExamID,
			&p.TestRun,
			&p.InitializationState,
			&p.InitializationDate,
			&p.RepositoryURI,
		); err != nil {
			return nil, fmt.Errorf("error scanning participation: %w", err)
		}
		participations = append(participations, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participations: %w", err)
	}

	if err := r.attachSubmissions(ctx, participations); err != nil {
		return nil, err
	}
	return participations, nil
}

func (r *ParticipationRepository) attachSubmissions(ctx context.Context, participations []models.StudentParticipation) error {
	if len(participations) == 0 {
		return nil
	}
	index := make(map[int64]int, len(participations))
	ids := make([]int64, 0, len(participations))
	for i, p := range participations {
		index[p.ID] = i
		ids = append(ids, p.ID)
	}

	submissions, err := findSubmissions(ctx, r.db, squirrel.Eq{"participation_id": ids})
	if err != nil {
		return err
	}
	for _, s := range submissions {
		i := index[s.ParticipationID]
		participations[i].Submissions = append(participations[i].Submissions, s)
	}
	return nil
}

// CreateWithInitialSubmission inserts the participation and, when given, its empty initial submission
// in one transaction. A participation already existing in the same scope yields ErrDuplicateParticipation.
func (r *ParticipationRepository) CreateWithInitialSubmission(ctx context.Context, p *models.StudentParticipation, initial *models.Submission) error {
	err := db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		err := queryRow(ctx, tx, psql.Insert("participations").
			Columns("exercise_id", "student_id", "student_exam_id", "test_run", "initialization_state", "initialization_date").
			Values(p.ExerciseID, p.StudentID, p.StudentExamID, p.TestRun, p.InitializationState, p.InitializationDate).
			Suffix("RETURNING id"), &p.ID)
		if err != nil {
			return err
		}
		if initial == nil {
			return nil
		}
		initial.ParticipationID = p.ID
		if err := insertSubmission(ctx, tx, initial); err != nil {
			return err
		}
		p.Submissions = []models.Submission{*initial}
		return nil
	})
	if dberrors.IsUniqueViolation(err, constraintParticipationExerciseStudent, constraintParticipationExerciseStudentExam) {
		return ErrDuplicateParticipation
	}
	if err != nil {
		return fmt.Errorf("error creating participation: %w", err)
	}
	return nil
}

// Reinitialize moves an existing participation to the given state and adds the initial submission
// when the participation has none yet
func (r *ParticipationRepository) Reinitialize(ctx context.Context, p *models.StudentParticipation, state models.InitializationState, initializationDate time.Time, initial *models.Submission) error {
	return db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := exec(ctx, tx, psql.Update("participations").
			Set("initialization_state", state).
			Set("initialization_date", initializationDate).
			Where("id = ?", p.ID)); err != nil {
			return err
		}
		p.InitializationState = state
		p.InitializationDate = &initializationDate

		if initial == nil || len(p.Submissions) > 0 {
			return nil
		}
		initial.ParticipationID = p.ID
		if err := insertSubmission(ctx, tx, initial); err != nil {
			return err
		}
		p.Submissions = append(p.Submissions, *initial)
		return nil
	})
}
