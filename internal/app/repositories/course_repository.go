package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/pkg/dberrors"
)

// CourseRepository handles course membership lookups
type CourseRepository struct {
	db *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{db: db}
}

// GetCourseRole returns the role the user holds in the course, CourseRoleNone without membership
func (r *CourseRepository) GetCourseRole(ctx context.Context, courseID, userID int64) (models.CourseRole, error) {
	var role models.CourseRole
	err := queryRow(ctx, r.db, psql.Select("role").
		From("course_memberships").
		Where("course_id = ? AND user_id = ?", courseID, userID), &role)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return models.CourseRoleNone, nil
		}
		return models.CourseRoleNone, fmt.Errorf("error getting course role: %w", err)
	}
	return role, nil
}
