package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/app/models/dto"
	"github.com/yigit/examconduct/internal/app/services"
	"github.com/yigit/examconduct/internal/middleware"
)

// ExamAccessGuard authorizes exam requests
type ExamAccessGuard interface {
	AuthorizeExamInstructor(ctx context.Context, courseID, examID int64, user services.Principal) (*models.Exam, error)
	AuthorizeStudentExam(ctx context.Context, courseID, examID, studentExamID int64, user services.Principal, testRun bool) (*models.StudentExam, error)
	AuthorizeInstructorStudentExam(ctx context.Context, courseID, examID, studentExamID int64, user services.Principal) (*models.StudentExam, error)
}

// ExerciseStarter launches bulk exercise starts
type ExerciseStarter interface {
	StartExercises(ctx context.Context, examID int64) (*services.ExerciseStartOperation, error)
}

// StudentExamSubmitter hands in student exams
type StudentExamSubmitter interface {
	SubmitStudentExam(ctx context.Context, studentExam *models.StudentExam, user services.Principal, edits []services.ExerciseSubmissionEdit) (*models.StudentExam, error)
}

// StudentExamLifecycle covers test runs, test exam attempts and working times
type StudentExamLifecycle interface {
	CreateTestRun(ctx context.Context, exam *models.Exam, instructor services.Principal, exerciseIDs []int64, workingTimeSeconds int) (*models.StudentExam, error)
	StartTestExamAttempt(ctx context.Context, studentExam *models.StudentExam) ([]models.StudentParticipation, error)
	UpdateWorkingTime(ctx context.Context, studentExam *models.StudentExam, workingTimeSeconds int) (*models.StudentExam, error)
	GetExerciseStartStatus(ctx context.Context, examID int64) (*models.ExamExerciseStartPreparationStatus, error)
}

// StatusSubscriber upgrades a request to a live status subscription
type StatusSubscriber interface {
	Subscribe(w http.ResponseWriter, r *http.Request, topic string, userID int64) error
}

// StudentExamController handles the conduction of exams
type StudentExamController struct {
	guard      ExamAccessGuard
	starter    ExerciseStarter
	submitter  StudentExamSubmitter
	lifecycle  StudentExamLifecycle
	subscriber StatusSubscriber
	logger     zerolog.Logger
}

// NewStudentExamController creates a new StudentExamController
func NewStudentExamController(
	guard ExamAccessGuard,
	starter ExerciseStarter,
	submitter StudentExamSubmitter,
	lifecycle StudentExamLifecycle,
	subscriber StatusSubscriber,
	logger zerolog.Logger,
) *StudentExamController {
	return &StudentExamController{
		guard:      guard,
		starter:    starter,
		submitter:  submitter,
		lifecycle:  lifecycle,
		subscriber: subscriber,
		logger:     logger,
	}
}

// StartExercises launches the exercise start of all student exams of an exam
// @Summary Start exercises of all student exams
// @Description Creates the participations of every student exam in the background. Progress is available via the status endpoint and the websocket topic.
// @Tags student-exams
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Param examId path int true "Exam ID"
// @Success 202 {object} dto.APIResponse{data=dto.ExerciseStartAcceptedResponse} "Exercise start launched"
// @Failure 400 {object} dto.ErrorResponse "Test exams cannot be started in bulk"
// @Failure 403 {object} dto.ErrorResponse "User is not an instructor of the course"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Failure 409 {object} dto.ErrorResponse "Exam belongs to another course or a start is already running"
// @Router /courses/{courseId}/exams/{examId}/student-exams/start-exercises [post]
func (c *StudentExamController) StartExercises(ctx *gin.Context) {
	courseID, examID, ok := parseCourseAndExam(ctx)
	if !ok {
		return
	}
	user, ok := currentPrincipal(ctx)
	if !ok {
		return
	}

	if _, err := c.guard.AuthorizeExamInstructor(ctx.Request.Context(), courseID, examID, user); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	op, err := c.starter.StartExercises(ctx.Request.Context(), examID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	snapshot := op.Snapshot()
	ctx.JSON(http.StatusAccepted, dto.NewSuccessResponse(dto.ExerciseStartAcceptedResponse{
		ExamID:    examID,
		Overall:   snapshot.Overall,
		StartTime: op.StartTime,
		StatusURL: fmt.Sprintf("/api/v1/courses/%d/exams/%d/student-exams/start-exercises/status", courseID, examID),
		Topic:     services.ExerciseStartStatusTopic(examID),
	}))
}

// GetExerciseStartStatus returns the latest progress of the exam's bulk start
// @Summary Get exercise start status
// @Tags student-exams
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Param examId path int true "Exam ID"
// @Success 200 {object} dto.APIResponse{data=models.ExamExerciseStartPreparationStatus} "Current status"
// @Failure 403 {object} dto.ErrorResponse "User is not an instructor of the course"
// @Failure 404 {object} dto.ErrorResponse "No exercise start ran recently"
// @Router /courses/{courseId}/exams/{examId}/student-exams/start-exercises/status [get]
func (c *StudentExamController) GetExerciseStartStatus(ctx *gin.Context) {
	courseID, examID, ok := parseCourseAndExam(ctx)
	if !ok {
		return
	}
	user, ok := currentPrincipal(ctx)
	if !ok {
		return
	}

	if _, err := c.guard.AuthorizeExamInstructor(ctx.Request.Context(), courseID, examID, user); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	status, err := c.lifecycle.GetExerciseStartStatus(ctx.Request.Context(), examID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(status))
}

// SubscribeExerciseStartStatus streams status snapshots over a websocket
// @Summary Subscribe to exercise start status
// @Tags student-exams
// @Security BearerAuth
// @Param examId path int true "Exam ID"
// @Success 101 "Switching protocols"
// @Router /exams/{examId}/exercise-start-status/ws [get]
func (c *StudentExamController) SubscribeExerciseStartStatus(ctx *gin.Context) {
	examID, ok := parseIDParam(ctx, "examId")
	if !ok {
		return
	}
	user, ok := currentPrincipal(ctx)
	if !ok {
		return
	}

	if _, err := c.guard.AuthorizeExamInstructor(ctx.Request.Context(), 0, examID, user); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.subscriber.Subscribe(ctx.Writer, ctx.Request, services.ExerciseStartStatusTopic(examID), user.ID); err != nil {
		c.logger.Warn().Err(err).Int64("examID", examID).Int64("userID", user.ID).Msg("Status subscription failed")
	}
}

// SubmitStudentExam hands in the student exam with the client's last known submissions
// @Summary Submit a student exam
// @Tags student-exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Param examId path int true "Exam ID"
// @Param request body dto.SubmitStudentExamRequest true "Student exam with last known submissions"
// @Success 200 {object} dto.APIResponse{data=dto.StudentExamResponse} "Student exam submitted"
// @Failure 400 {object} dto.ErrorResponse "Already submitted or invalid request"
// @Failure 403 {object} dto.ErrorResponse "Not the owner or outside of the working time"
// @Failure 404 {object} dto.ErrorResponse "Student exam not found"
// @Failure 409 {object} dto.ErrorResponse "Student exam belongs to another exam"
// @Router /courses/{courseId}/exams/{examId}/student-exams/submit [post]
func (c *StudentExamController) SubmitStudentExam(ctx *gin.Context) {
	courseID, examID, ok := parseCourseAndExam(ctx)
	if !ok {
		return
	}
	user, ok := currentPrincipal(ctx)
	if !ok {
		return
	}

	var req dto.SubmitStudentExamRequest
	if !middleware.BindAndValidate(ctx, &req) {
		return
	}

	studentExam, err := c.guard.AuthorizeStudentExam(ctx.Request.Context(), courseID, examID, req.StudentExamID, user, req.TestRun)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	edits := make([]services.ExerciseSubmissionEdit, 0, len(req.Exercises))
	for _, ex := range req.Exercises {
		var kind models.ExerciseKind
		if exercise, found := studentExam.ExerciseByID(ex.ExerciseID); found {
			kind = exercise.Kind
		}
		edits = append(edits, services.ExerciseSubmissionEdit{
			ExerciseID:      ex.ExerciseID,
			ParticipationID: ex.ParticipationID,
			StudentID:       ex.StudentID,
			Submission:      ex.Submission.ToSubmission(ex.ParticipationID, kind),
		})
	}

	submitted, err := c.submitter.SubmitStudentExam(ctx.Request.Context(), studentExam, user, edits)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStudentExamResponse(submitted)))
}

// CreateTestRun creates a test run for the requesting instructor
// @Summary Create a test run
// @Tags student-exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Param examId path int true "Exam ID"
// @Param request body dto.CreateTestRunRequest true "Exercises and working time"
// @Success 201 {object} dto.APIResponse{data=dto.StudentExamResponse} "Test run created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 403 {object} dto.ErrorResponse "User is not an instructor of the course"
// @Failure 404 {object} dto.ErrorResponse "Exam or exercise not found"
// @Router /courses/{courseId}/exams/{examId}/test-run [post]
func (c *StudentExamController) CreateTestRun(ctx *gin.Context) {
	courseID, examID, ok := parseCourseAndExam(ctx)
	if !ok {
		return
	}
	user, ok := currentPrincipal(ctx)
	if !ok {
		return
	}

	var req dto.CreateTestRunRequest
	if !middleware.BindAndValidate(ctx, &req) {
		return
	}

	exam, err := c.guard.AuthorizeExamInstructor(ctx.Request.Context(), courseID, examID, user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	testRun, err := c.lifecycle.CreateTestRun(ctx.Request.Context(), exam, user, req.ExerciseIDs, req.WorkingTime)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewStudentExamResponse(testRun)))
}

// StartTestExam starts an attempt of a test exam
// @Summary Start a test exam attempt
// @Tags student-exams
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Param examId path int true "Exam ID"
// @Param studentExamId path int true "Student exam ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.ParticipationResponse} "Participations started"
// @Failure 400 {object} dto.ErrorResponse "Not a test exam or already submitted"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Router /courses/{courseId}/exams/{examId}/student-exams/{studentExamId}/start-test-exam [post]
func (c *StudentExamController) StartTestExam(ctx *gin.Context) {
	courseID, examID, ok := parseCourseAndExam(ctx)
	if !ok {
		return
	}
	studentExamID, ok := parseIDParam(ctx, "studentExamId")
	if !ok {
		return
	}
	user, ok := currentPrincipal(ctx)
	if !ok {
		return
	}

	studentExam, err := c.guard.AuthorizeStudentExam(ctx.Request.Context(), courseID, examID, studentExamID, user, false)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	participations, err := c.lifecycle.StartTestExamAttempt(ctx.Request.Context(), studentExam)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewParticipationResponses(participations)))
}

// UpdateWorkingTime overrides the working time of a student exam
// @Summary Update the working time of a student exam
// @Tags student-exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Param examId path int true "Exam ID"
// @Param studentExamId path int true "Student exam ID"
// @Param request body dto.UpdateWorkingTimeRequest true "Working time in seconds"
// @Success 200 {object} dto.APIResponse{data=dto.StudentExamResponse} "Working time updated"
// @Failure 400 {object} dto.ErrorResponse "Submitted, ended or invalid working time"
// @Failure 403 {object} dto.ErrorResponse "User is not an instructor of the course"
// @Router /courses/{courseId}/exams/{examId}/student-exams/{studentExamId}/working-time [patch]
func (c *StudentExamController) UpdateWorkingTime(ctx *gin.Context) {
	courseID, examID, ok := parseCourseAndExam(ctx)
	if !ok {
		return
	}
	studentExamID, ok := parseIDParam(ctx, "studentExamId")
	if !ok {
		return
	}
	user, ok := currentPrincipal(ctx)
	if !ok {
		return
	}

	var req dto.UpdateWorkingTimeRequest
	if !middleware.BindAndValidate(ctx, &req) {
		return
	}

	studentExam, err := c.guard.AuthorizeInstructorStudentExam(ctx.Request.Context(), courseID, examID, studentExamID, user)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	updated, err := c.lifecycle.UpdateWorkingTime(ctx.Request.Context(), studentExam, req.WorkingTime)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewStudentExamResponse(updated)))
}

func currentPrincipal(ctx *gin.Context) (services.Principal, bool) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return services.Principal{}, false
	}
	role, _ := middleware.GetRoleType(ctx)
	return services.Principal{
		ID:      userID,
		Login:   middleware.GetLogin(ctx),
		IsAdmin: role == models.RoleAdmin,
	}, true
}

func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name)
		errorDetail = errorDetail.WithField(name).WithDetails(name + " must be a positive number")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

func parseCourseAndExam(ctx *gin.Context) (int64, int64, bool) {
	courseID, ok := parseIDParam(ctx, "courseId")
	if !ok {
		return 0, 0, false
	}
	examID, ok := parseIDParam(ctx, "examId")
	if !ok {
		return 0, 0, false
	}
	return courseID, examID, true
}
