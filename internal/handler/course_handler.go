package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/avialearn/avialearn-backend/internal/exam"
	"github.com/avialearn/avialearn-backend/internal/middleware"
	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/avialearn/avialearn-backend/internal/repository"
	"github.com/avialearn/avialearn-backend/internal/response"
	"github.com/avialearn/avialearn-backend/internal/service"
	"github.com/avialearn/avialearn-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CourseHandler handles course authoring endpoints for staff.
type CourseHandler struct {
	courseService   *service.CourseService
	questionService *service.QuestionService
	progressService *service.ProgressService
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(
	courseService *service.CourseService,
	questionService *service.QuestionService,
	progressService *service.ProgressService,
) *CourseHandler {
	return &CourseHandler{
		courseService:   courseService,
		questionService: questionService,
		progressService: progressService,
	}
}

func failCourseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrCourseNotDraft)
	case errors.Is(err, service.ErrCourseNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrActionForbidden)
	case errors.Is(err, service.ErrExamNotConfigured),
		errors.Is(err, exam.ErrInvalidConfig),
		errors.Is(err, service.ErrCorrectIndexOutOfRange):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrValidation)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// Create godoc
// POST /api/v1/staff/courses
func (h *CourseHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"course": course})
}

// List godoc
// GET /api/v1/staff/courses?status=DRAFT&page=1&per_page=20
func (h *CourseHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	var status *model.CourseStatus
	if raw := c.Query("status"); raw != "" {
		st := model.CourseStatus(raw)
		status = &st
	}

	courses, total, err := h.courseService.List(c.Request.Context(), status, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"courses": courses}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// Get godoc
// GET /api/v1/staff/courses/:courseId
func (h *CourseHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	course, err := h.courseService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	lessons, err := h.courseService.ListLessons(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": course, "lessons": lessons})
}

// Update godoc
// PUT /api/v1/staff/courses/:courseId
func (h *CourseHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), id, &req)
	if err != nil {
		failCourseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// ConfigureExam godoc
// PUT /api/v1/staff/courses/:courseId/exam
func (h *CourseHandler) ConfigureExam(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateExamConfigRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.courseService.ConfigureExam(c.Request.Context(), id, &req); err != nil {
		failCourseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Publish godoc
// POST /api/v1/staff/courses/:courseId/publish
func (h *CourseHandler) Publish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	course, err := h.courseService.Publish(c.Request.Context(), id)
	if err != nil {
		failCourseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// Archive godoc
// POST /api/v1/staff/courses/:courseId/archive
func (h *CourseHandler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.courseService.Archive(c.Request.Context(), id); err != nil {
		failCourseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Delete godoc
// DELETE /api/v1/staff/courses/:courseId
func (h *CourseHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), id); err != nil {
		failCourseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ─── Lessons ────────────────────────────────────────────────────────

// AddLesson godoc
// POST /api/v1/staff/courses/:courseId/lessons
func (h *CourseHandler) AddLesson(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateLessonRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lesson, err := h.courseService.AddLesson(c.Request.Context(), courseID, &req)
	if err != nil {
		failCourseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"lesson": lesson})
}

// UpdateLesson godoc
// PUT /api/v1/staff/lessons/:lessonId
func (h *CourseHandler) UpdateLesson(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateLessonRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lesson, err := h.courseService.UpdateLesson(c.Request.Context(), lessonID, &req)
	if err != nil {
		failCourseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"lesson": lesson})
}

// ConfigureLessonExam godoc
// PUT /api/v1/staff/lessons/:lessonId/exam
func (h *CourseHandler) ConfigureLessonExam(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateExamConfigRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.courseService.ConfigureLessonExam(c.Request.Context(), lessonID, &req); err != nil {
		failCourseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// DeleteLesson godoc
// DELETE /api/v1/staff/lessons/:lessonId
func (h *CourseHandler) DeleteLesson(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.courseService.DeleteLesson(c.Request.Context(), lessonID); err != nil {
		failCourseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ─── Questions ──────────────────────────────────────────────────────

// AddQuestion godoc
// POST /api/v1/staff/courses/:courseId/questions
func (h *CourseHandler) AddQuestion(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Add(c.Request.Context(), courseID, &req)
	if err != nil {
		failCourseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ListQuestions godoc
// GET /api/v1/staff/courses/:courseId/questions?lesson_id=...
func (h *CourseHandler) ListQuestions(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var lessonID *uuid.UUID
	if raw := c.Query("lesson_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		lessonID = &id
	}

	questions, err := h.questionService.List(c.Request.Context(), courseID, lessonID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// UpdateQuestion godoc
// PUT /api/v1/staff/questions/:questionId
func (h *CourseHandler) UpdateQuestion(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("questionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), questionID, &req)
	if err != nil {
		failCourseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// DeleteQuestion godoc
// DELETE /api/v1/staff/questions/:questionId
func (h *CourseHandler) DeleteQuestion(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("questionId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), questionID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// SignOffPractical godoc
// POST /api/v1/staff/courses/:courseId/trainees/:userId/practical
func (h *CourseHandler) SignOffPractical(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	progress, err := h.progressService.SignOffPractical(c.Request.Context(), userID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotEnrolled) {
			response.Fail(c, http.StatusNotFound, response.ErrNotEnrolled)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"progress": progress})
}
