package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupSwagger_ServesDocJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupSwagger(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		BasePath string                    `json:"basePath"`
		Schemes  []string                  `json:"schemes"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Exam Conduction API", doc.Info.Title)
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Equal(t, []string{"http", "https"}, doc.Schemes)

	expected := map[string]string{
		"/courses/{courseId}/exams/{examId}/student-exams/start-exercises":                  "post",
		"/courses/{courseId}/exams/{examId}/student-exams/start-exercises/status":           "get",
		"/exams/{examId}/exercise-start-status/ws":                                          "get",
		"/courses/{courseId}/exams/{examId}/student-exams/submit":                           "post",
		"/courses/{courseId}/exams/{examId}/test-run":                                       "post",
		"/courses/{courseId}/exams/{examId}/student-exams/{studentExamId}/start-test-exam": "post",
		"/courses/{courseId}/exams/{examId}/student-exams/{studentExamId}/working-time":    "patch",
	}
	for path, method := range expected {
		assert.Contains(t, doc.Paths[path], method, path)
	}
}
