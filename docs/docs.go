// Package docs holds the OpenAPI description of the HTTP API served under /swagger.
// It mirrors the swag annotations of cmd/api and the controllers; regenerate it with
// swag init -g cmd/api/main.go after changing them.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/courses/{courseId}/exams/{examId}/student-exams/start-exercises": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"description": "Creates the participations of every student exam in the background. Progress is available via the status endpoint and the websocket topic.",
				"produces": [
					"application/json"
				],
				"tags": [
					"student-exams"
				],
				"summary": "Start exercises of all student exams",
				"parameters": [
					{
						"type": "integer",
						"description": "Course ID",
						"name": "courseId",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Exam ID",
						"name": "examId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"202": {
						"description": "Exercise start launched",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.ExerciseStartAcceptedResponse"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Test exams cannot be started in bulk",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"403": {
						"description": "User is not an instructor of the course",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"404": {
						"description": "Exam not found",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"409": {
						"description": "Exam belongs to another course or a start is already running",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			}
		},
		"/courses/{courseId}/exams/{examId}/student-exams/start-exercises/status": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"student-exams"
				],
				"summary": "Get exercise start status",
				"parameters": [
					{
						"type": "integer",
						"description": "Course ID",
						"name": "courseId",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Exam ID",
						"name": "examId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Current status",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/models.ExamExerciseStartPreparationStatus"
										}
									}
								}
							]
						}
					},
					"403": {
						"description": "User is not an instructor of the course",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"404": {
						"description": "No exercise start ran recently",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			}
		},
		"/exams/{examId}/exercise-start-status/ws": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"student-exams"
				],
				"summary": "Subscribe to exercise start status",
				"parameters": [
					{
						"type": "integer",
						"description": "Exam ID",
						"name": "examId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"101": {
						"description": "Switching protocols"
					}
				}
			}
		},
		"/courses/{courseId}/exams/{examId}/student-exams/submit": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"student-exams"
				],
				"summary": "Submit a student exam",
				"parameters": [
					{
						"type": "integer",
						"description": "Course ID",
						"name": "courseId",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Exam ID",
						"name": "examId",
						"in": "path",
						"required": true
					},
					{
						"description": "Student exam with last known submissions",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.SubmitStudentExamRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "Student exam submitted",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.StudentExamResponse"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Already submitted or invalid request",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"403": {
						"description": "Not the owner or outside of the working time",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"404": {
						"description": "Student exam not found",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"409": {
						"description": "Student exam belongs to another exam",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			}
		},
		"/courses/{courseId}/exams/{examId}/test-run": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"student-exams"
				],
				"summary": "Create a test run",
				"parameters": [
					{
						"type": "integer",
						"description": "Course ID",
						"name": "courseId",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Exam ID",
						"name": "examId",
						"in": "path",
						"required": true
					},
					{
						"description": "Exercises and working time",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.CreateTestRunRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Test run created",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.StudentExamResponse"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Invalid request",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"403": {
						"description": "User is not an instructor of the course",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"404": {
						"description": "Exam or exercise not found",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			}
		},
		"/courses/{courseId}/exams/{examId}/student-exams/{studentExamId}/start-test-exam": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"student-exams"
				],
				"summary": "Start a test exam attempt",
				"parameters": [
					{
						"type": "integer",
						"description": "Course ID",
						"name": "courseId",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Exam ID",
						"name": "examId",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Student exam ID",
						"name": "studentExamId",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Participations started",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"type": "array",
											"items": {
												"$ref": "#/definitions/dto.ParticipationResponse"
											}
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Not a test exam or already submitted",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"403": {
						"description": "Not the owner",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			}
		},
		"/courses/{courseId}/exams/{examId}/student-exams/{studentExamId}/working-time": {
			"patch": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"student-exams"
				],
				"summary": "Update the working time of a student exam",
				"parameters": [
					{
						"type": "integer",
						"description": "Course ID",
						"name": "courseId",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Exam ID",
						"name": "examId",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Student exam ID",
						"name": "studentExamId",
						"in": "path",
						"required": true
					},
					{
						"description": "Working time in seconds",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.UpdateWorkingTimeRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "Working time updated",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/dto.APIResponse"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/dto.StudentExamResponse"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Submitted, ended or invalid working time",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					},
					"403": {
						"description": "User is not an instructor of the course",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"dto.APIResponse": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean",
					"example": true
				},
				"data": {},
				"error": {
					"$ref": "#/definitions/dto.ErrorDetail"
				},
				"timestamp": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"dto.ErrorResponse": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean",
					"example": false
				},
				"error": {
					"$ref": "#/definitions/dto.ErrorDetail"
				},
				"timestamp": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"dto.ErrorDetail": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string",
					"example": "RES_004"
				},
				"message": {
					"type": "string",
					"example": "Student exam does not belong to exam"
				},
				"field": {
					"type": "string",
					"example": "workingTime"
				},
				"reason": {
					"type": "string",
					"example": "ALREADY_SUBMITTED"
				},
				"details": {}
			}
		},
		"dto.ExerciseStartAcceptedResponse": {
			"type": "object",
			"properties": {
				"examId": {
					"type": "integer",
					"example": 1
				},
				"overall": {
					"type": "integer",
					"example": 250
				},
				"startTime": {
					"type": "string",
					"format": "date-time"
				},
				"statusUrl": {
					"type": "string",
					"example": "/api/v1/courses/3/exams/1/student-exams/start-exercises/status"
				},
				"topic": {
					"type": "string",
					"example": "exams/1/exercise-start-status"
				}
			}
		},
		"models.ExamExerciseStartPreparationStatus": {
			"type": "object",
			"properties": {
				"finished": {
					"type": "integer"
				},
				"failed": {
					"type": "integer"
				},
				"overall": {
					"type": "integer"
				},
				"participationCount": {
					"type": "integer"
				},
				"queued": {
					"type": "integer"
				},
				"startTime": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"dto.SubmissionPayload": {
			"type": "object",
			"required": [
				"id"
			],
			"properties": {
				"id": {
					"type": "integer",
					"example": 501
				},
				"text": {
					"type": "string",
					"example": "Binary search halves the range"
				},
				"model": {
					"type": "string"
				},
				"explanationText": {
					"type": "string"
				},
				"submittedAnswers": {
					"type": "array",
					"items": {
						"type": "object"
					}
				},
				"results": {
					"type": "array",
					"items": {
						"type": "object"
					}
				}
			}
		},
		"dto.ExerciseSubmissionRequest": {
			"type": "object",
			"required": [
				"exerciseId",
				"participationId",
				"studentId",
				"submission"
			],
			"properties": {
				"exerciseId": {
					"type": "integer",
					"example": 12
				},
				"participationId": {
					"type": "integer",
					"example": 101
				},
				"studentId": {
					"type": "integer",
					"example": 7
				},
				"submission": {
					"$ref": "#/definitions/dto.SubmissionPayload"
				}
			}
		},
		"dto.SubmitStudentExamRequest": {
			"type": "object",
			"required": [
				"id"
			],
			"properties": {
				"id": {
					"type": "integer",
					"example": 42
				},
				"testRun": {
					"type": "boolean",
					"example": false
				},
				"exercises": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/dto.ExerciseSubmissionRequest"
					}
				}
			}
		},
		"dto.CreateTestRunRequest": {
			"type": "object",
			"required": [
				"exerciseIds",
				"workingTime"
			],
			"properties": {
				"exerciseIds": {
					"type": "array",
					"minItems": 1,
					"items": {
						"type": "integer"
					}
				},
				"workingTime": {
					"type": "integer",
					"example": 3600
				}
			}
		},
		"dto.UpdateWorkingTimeRequest": {
			"type": "object",
			"required": [
				"workingTime"
			],
			"properties": {
				"workingTime": {
					"type": "integer",
					"example": 8100
				}
			}
		},
		"dto.StudentExamResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer",
					"example": 42
				},
				"examId": {
					"type": "integer",
					"example": 1
				},
				"userId": {
					"type": "integer",
					"example": 7
				},
				"workingTime": {
					"type": "integer",
					"example": 7200
				},
				"submitted": {
					"type": "boolean"
				},
				"submissionDate": {
					"type": "string",
					"format": "date-time"
				},
				"testRun": {
					"type": "boolean"
				},
				"startedDate": {
					"type": "string",
					"format": "date-time"
				},
				"individualEndDate": {
					"type": "string",
					"format": "date-time"
				},
				"individualEndDateWithGrace": {
					"type": "string",
					"format": "date-time"
				},
				"repositoryLockPending": {
					"type": "boolean"
				},
				"exerciseIds": {
					"type": "array",
					"items": {
						"type": "integer"
					}
				}
			}
		},
		"dto.ParticipationResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer",
					"example": 101
				},
				"exerciseId": {
					"type": "integer",
					"example": 12
				},
				"initializationState": {
					"type": "string",
					"example": "INITIALIZED"
				},
				"initializationDate": {
					"type": "string",
					"format": "date-time"
				},
				"submissionIds": {
					"type": "array",
					"items": {
						"type": "integer"
					}
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "JWT token for authorization",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "localhost:8080",
	BasePath:		 "/api/v1",
	Schemes:		  []string{"http", "https"},
	Title:			"Exam Conduction API",
	Description:	  "API for conducting online exams: bulk exercise start, live start progress, submission and test runs",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
