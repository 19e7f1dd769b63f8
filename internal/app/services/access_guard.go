package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/pkg/apperrors"
)

// CheckCourseAccess requires at least the student role for exam access and at least the instructor role
// for test runs. Admins pass regardless of their course role.
func CheckCourseAccess(role models.CourseRole, testRun bool, user Principal) error {
	if user.IsAdmin {
		return nil
	}
	required := models.CourseRoleStudent
	if testRun {
		required = models.CourseRoleInstructor
	}
	if !role.AtLeast(required) {
		return apperrors.NewForbiddenError(fmt.Sprintf("user %s is not at least %s in the course", user.Login, required))
	}
	return nil
}

// CheckExamAccess validates the exam against the requested course. Outside of test runs the exam
// must be visible and the user registered.
func CheckExamAccess(exam *models.Exam, courseID int64, testRun bool, registered bool, now time.Time) error {
	if exam == nil {
		return apperrors.ErrExamNotFound
	}
	if exam.CourseID != courseID {
		return apperrors.NewConflictError(fmt.Sprintf("exam %d does not belong to course %d", exam.ID, courseID))
	}
	if testRun {
		return nil
	}
	if !exam.IsVisibleToStudents(now) {
		return apperrors.ErrExamNotVisible
	}
	if !registered {
		return apperrors.ErrNotRegisteredForExam
	}
	return nil
}

// CheckStudentExamAccess validates the student exam against the requested exam and its owner.
// Instructors and admins may open test runs they do not own.
func CheckStudentExamAccess(studentExam *models.StudentExam, examID int64, user Principal, privilegedTestRun bool) error {
	if studentExam == nil {
		return apperrors.ErrStudentExamNotFound
	}
	if studentExam.ExamID != examID {
		return apperrors.NewConflictError(fmt.Sprintf("student exam %d does not belong to exam %d", studentExam.ID, examID))
	}
	if studentExam.UserID != user.ID && !(privilegedTestRun && studentExam.TestRun) {
		return apperrors.NewForbiddenError(fmt.Sprintf("student exam %d does not belong to user %s", studentExam.ID, user.Login))
	}
	return nil
}

// StudentExamAccessGuard loads what the access checks need and runs them in order
type StudentExamAccessGuard struct {
	courses      CourseStore
	exams        ExamStore
	studentExams StudentExamStore
	now          func() time.Time
}

// NewStudentExamAccessGuard creates a new StudentExamAccessGuard
func NewStudentExamAccessGuard(courses CourseStore, exams ExamStore, studentExams StudentExamStore) *StudentExamAccessGuard {
	return &StudentExamAccessGuard{
		courses:      courses,
		exams:        exams,
		studentExams: studentExams,
		now:          time.Now,
	}
}

// AuthorizeExam runs the course and exam level checks and returns the exam
func (g *StudentExamAccessGuard) AuthorizeExam(ctx context.Context, courseID, examID int64, user Principal, testRun bool) (*models.Exam, error) {
	exam, err := g.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("error loading exam %d: %w", examID, err)
	}
	if exam == nil {
		return nil, apperrors.ErrExamNotFound
	}

	role, err := g.courses.GetCourseRole(ctx, courseID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading course role: %w", err)
	}
	if err := CheckCourseAccess(role, testRun, user); err != nil {
		return nil, err
	}

	registered := false
	if !testRun {
		registered, err = g.exams.IsUserRegistered(ctx, examID, user.ID)
		if err != nil {
			return nil, fmt.Errorf("error checking exam registration: %w", err)
		}
	}
	if err := CheckExamAccess(exam, courseID, testRun, registered, g.now()); err != nil {
		return nil, err
	}
	return exam, nil
}

// AuthorizeExamInstructor requires the instructor role in the course owning the exam.
// A zero courseID takes the course from the exam itself.
func (g *StudentExamAccessGuard) AuthorizeExamInstructor(ctx context.Context, courseID, examID int64, user Principal) (*models.Exam, error) {
	if courseID == 0 {
		exam, err := g.exams.GetByID(ctx, examID)
		if err != nil {
			return nil, fmt.Errorf("error loading exam %d: %w", examID, err)
		}
		if exam == nil {
			return nil, apperrors.ErrExamNotFound
		}
		courseID = exam.CourseID
	}
	return g.AuthorizeExam(ctx, courseID, examID, user, true)
}

// AuthorizeStudentExam runs every level of checks and returns the student exam with its exam attached
func (g *StudentExamAccessGuard) AuthorizeStudentExam(ctx context.Context, courseID, examID, studentExamID int64, user Principal, testRun bool) (*models.StudentExam, error) {
	exam, err := g.AuthorizeExam(ctx, courseID, examID, user, testRun)
	if err != nil {
		return nil, err
	}

	studentExam, err := g.studentExams.GetByID(ctx, studentExamID)
	if err != nil {
		return nil, fmt.Errorf("error loading student exam %d: %w", studentExamID, err)
	}
	if err := CheckStudentExamAccess(studentExam, examID, user, testRun); err != nil {
		return nil, err
	}
	if studentExam.Exam == nil {
		studentExam.Exam = exam
	}
	return studentExam, nil
}

// AuthorizeInstructorStudentExam lets course instructors manage any student exam of their exam
func (g *StudentExamAccessGuard) AuthorizeInstructorStudentExam(ctx context.Context, courseID, examID, studentExamID int64, user Principal) (*models.StudentExam, error) {
	exam, err := g.AuthorizeExamInstructor(ctx, courseID, examID, user)
	if err != nil {
		return nil, err
	}

	studentExam, err := g.studentExams.GetByID(ctx, studentExamID)
	if err != nil {
		return nil, fmt.Errorf("error loading student exam %d: %w", studentExamID, err)
	}
	if studentExam == nil {
		return nil, apperrors.ErrStudentExamNotFound
	}
	if studentExam.ExamID != examID {
		return nil, apperrors.NewConflictError(fmt.Sprintf("student exam %d does not belong to exam %d", studentExam.ID, examID))
	}
	if studentExam.Exam == nil {
		studentExam.Exam = exam
	}
	return studentExam, nil
}
