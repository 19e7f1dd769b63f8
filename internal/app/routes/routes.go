package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/examconduct/internal/app/controllers"
	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	studentExamController *controllers.StudentExamController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// Every exam route requires a valid token
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	exams := authenticated.Group("/courses/:courseId/exams/:examId")
	{
		// Student routes. Course membership is checked per request by the access guard.
		exams.POST("/student-exams/submit", studentExamController.SubmitStudentExam)
		exams.POST("/student-exams/:studentExamId/start-test-exam", studentExamController.StartTestExam)

		// Instructor routes
		instructor := exams.Group("")
		instructor.Use(authMiddleware.RoleRequired(models.RoleInstructor))
		{
			instructor.POST("/student-exams/start-exercises", studentExamController.StartExercises)
			instructor.GET("/student-exams/start-exercises/status", studentExamController.GetExerciseStartStatus)
			instructor.POST("/test-run", studentExamController.CreateTestRun)
			instructor.PATCH("/student-exams/:studentExamId/working-time", studentExamController.UpdateWorkingTime)
		}
	}

	// Live progress of a bulk start
	statusStream := authenticated.Group("/exams/:examId")
	statusStream.Use(authMiddleware.RoleRequired(models.RoleInstructor))
	{
		statusStream.GET("/exercise-start-status/ws", studentExamController.SubscribeExerciseStartStatus)
	}
}
