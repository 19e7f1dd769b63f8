package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/db"
)

// SubmissionRepository handles database operations for submissions, their versions and results
type SubmissionRepository struct {
	db *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(db *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func insertSubmission(ctx context.Context, q querier, s *models.Submission) error {
	answers, err := marshalJSON(answersOrNil(s.SubmittedAnswers))
	if err != nil {
		return fmt.Errorf("error encoding submitted answers: %w", err)
	}
	err = queryRow(ctx, q, psql.Insert("submissions").
		Columns("participation_id", "kind", "type", "submitted", "submission_date",
			"text", "model", "explanation_text", "file_path", "submitted_answers").
		Values(s.ParticipationID, s.Kind, s.Type, s.Submitted, s.SubmissionDate,
			s.Text, s.Model, s.ExplanationText, s.FilePath, answers).
		Suffix("RETURNING id"), &s.ID)
	if err != nil {
		return fmt.Errorf("error inserting submission: %w", err)
	}
	return nil
}

func answersOrNil(answers []models.SubmittedAnswer) any {
	if len(answers) == 0 {
		return nil
	}
	return models.SortedAnswers(answers)
}

func findSubmissions(ctx context.Context, q querier, where squirrel.Sqlizer) ([]models.Submission, error) {
	rows, err := query(ctx, q, psql.Select(
		"id", "participation_id", "kind", "type", "submitted", "submission_date",
		"text", "model", "explanation_text", "file_path", "submitted_answers",
	).From("submissions").Where(where).OrderBy("id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []models.Submission
	for rows.Next() {
		var (
			s       models.Submission
			answers []byte
		)
		if err := rows.Scan(
			&s.ID,
			&s.ParticipationID,
			&s.Kind,
			&s.Type,
			&s.Submitted,
			&s.SubmissionDate,
			&s.Text,
			&s.Model,
			&s.ExplanationText,
			&s.FilePath,
			&answers,
		); err != nil {
			return nil, fmt.Errorf("error scanning submission: %w", err)
		}
		if err := checkExerciseKind(s.Kind, "submission", s.ID); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(answers, &s.SubmittedAnswers); err != nil {
			return nil, fmt.Errorf("error decoding answers of submission %d: %w", s.ID, err)
		}
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}

	if err := attachResults(ctx, q, submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

func attachResults(ctx context.Context, q querier, submissions []models.Submission) error {
	if len(submissions) == 0 {
		return nil
	}
	index := make(map[int64]int, len(submissions))
	ids := make([]int64, 0, len(submissions))
	for i, s := range submissions {
		index[s.ID] = i
		ids = append(ids, s.ID)
	}

	rows, err := query(ctx, q, psql.Select(
		"id", "submission_id", "participation_id", "score", "rated", "assessment_type", "completion_date",
	).From("results").Where(squirrel.Eq{"submission_id": ids}).OrderBy("id"))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var res models.Result
		if err := rows.Scan(&res.ID, &res.SubmissionID, &res.ParticipationID, &res.Score, &res.Rated, &res.AssessmentType, &res.CompletionDate); err != nil {
			return fmt.Errorf("error scanning result: %w", err)
		}
		i := index[res.SubmissionID]
		submissions[i].Results = append(submissions[i].Results, res)
	}
	return rows.Err()
}

// UpdateContent persists the payload and submitted state of an existing submission
func (r *SubmissionRepository) UpdateContent(ctx context.Context, s *models.Submission) error {
	answers, err := marshalJSON(answersOrNil(s.SubmittedAnswers))
	if err != nil {
		return fmt.Errorf("error encoding submitted answers: %w", err)
	}
	_, err = exec(ctx, r.db, psql.Update("submissions").
		Set("submitted", s.Submitted).
		Set("submission_date", s.SubmissionDate).
		Set("text", s.Text).
		Set("model", s.Model).
		Set("explanation_text", s.ExplanationText).
		Set("submitted_answers", answers).
		Where("id = ? AND participation_id = ?", s.ID, s.ParticipationID))
	return err
}

// CreateVersion stores a snapshot of the submission content written by author
func (r *SubmissionRepository) CreateVersion(ctx context.Context, s *models.Submission, author string) error {
	content, err := marshalJSON(s)
	if err != nil {
		return fmt.Errorf("error encoding submission version: %w", err)
	}
	_, err = exec(ctx, r.db, psql.Insert("submission_versions").
		Columns("submission_id", "author", "content").
		Values(s.ID, author, content))
	return err
}

// SaveWithResult marks the submission submitted and inserts or updates its result in one transaction
func (r *SubmissionRepository) SaveWithResult(ctx context.Context, s *models.Submission, res *models.Result) error {
	return db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := exec(ctx, tx, psql.Update("submissions").
			Set("submitted", s.Submitted).
			Set("submission_date", s.SubmissionDate).
			Where("id = ?", s.ID)); err != nil {
			return err
		}

		res.SubmissionID = s.ID
		res.ParticipationID = s.ParticipationID
		if res.ID == 0 {
			return queryRow(ctx, tx, psql.Insert("results").
				Columns("submission_id", "participation_id", "score", "rated", "assessment_type", "completion_date").
				Values(res.SubmissionID, res.ParticipationID, res.Score, res.Rated, res.AssessmentType, res.CompletionDate).
				Suffix("RETURNING id"), &res.ID)
		}
		_, err := exec(ctx, tx, psql.Update("results").
			Set("score", res.Score).
			Set("rated", res.Rated).
			Set("assessment_type", res.AssessmentType).
			Set("completion_date", res.CompletionDate).
			Where("id = ?", res.ID))
		return err
	})
}
