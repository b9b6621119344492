package handler

import (
	"errors"
	"net/http"

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

// TraineePortalHandler handles the trainee-facing endpoints: catalog,
// enrollment, the exam lifecycle over HTTP, history, and certificates.
type TraineePortalHandler struct {
	courseService   *service.CourseService
	progressService *service.ProgressService
	examService     *service.ExamService
	certService     *service.CertificateService
}

// NewTraineePortalHandler creates a new TraineePortalHandler.
func NewTraineePortalHandler(
	courseService *service.CourseService,
	progressService *service.ProgressService,
	examService *service.ExamService,
	certService *service.CertificateService,
) *TraineePortalHandler {
	return &TraineePortalHandler{
		courseService:   courseService,
		progressService: progressService,
		examService:     examService,
		certService:     certService,
	}
}

// failExamError maps exam lifecycle errors onto API error codes.
func failExamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotEnrolled):
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
	case errors.Is(err, service.ErrExamNotAvailable):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotAvailable)
	case errors.Is(err, exam.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	case errors.Is(err, exam.ErrAttemptsExhausted):
		response.Fail(c, http.StatusForbidden, response.ErrAttemptsExhausted)
	case errors.Is(err, service.ErrNoActiveSession):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, exam.ErrInvalidAnswer), errors.Is(err, exam.ErrUnknownQuestion):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidAnswer)
	case errors.Is(err, exam.ErrAlreadySubmitted), errors.Is(err, exam.ErrNotInProgress):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, exam.ErrUnanswered):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrUnanswered)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// examScope pulls the courseId path param and the optional lesson_id
// query param that together identify one exam.
func examScope(c *gin.Context) (uuid.UUID, *uuid.UUID, bool) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, nil, false
	}

	var lessonID *uuid.UUID
	if raw := c.Query("lesson_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return uuid.Nil, nil, false
		}
		lessonID = &id
	}
	return courseID, lessonID, true
}

// ─── Catalog and enrollment ─────────────────────────────────────────

// Catalog godoc
// GET /api/v1/trainee/courses
// Lists published courses.
func (h *TraineePortalHandler) Catalog(c *gin.Context) {
	status := model.CourseStatusPublished
	courses, _, err := h.courseService.List(c.Request.Context(), &status, 1, 100)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// GetCourse godoc
// GET /api/v1/trainee/courses/:courseId
// Returns a published course with its lessons and the trainee's progress.
func (h *TraineePortalHandler) GetCourse(c *gin.Context) {
	claims := middleware.GetClaims(c)
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	course, err := h.courseService.GetByID(c.Request.Context(), courseID)
	if err != nil || course.Status != model.CourseStatusPublished {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	lessons, err := h.courseService.ListLessons(c.Request.Context(), courseID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	body := gin.H{"course": course, "lessons": lessons}
	if progress, err := h.progressService.Get(c.Request.Context(), claims.UserID, courseID); err == nil {
		body["progress"] = progress
	}

	response.Success(c, http.StatusOK, body)
}

// Enroll godoc
// POST /api/v1/trainee/courses/:courseId/enroll
func (h *TraineePortalHandler) Enroll(c *gin.Context) {
	claims := middleware.GetClaims(c)
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.progressService.Enroll(c.Request.Context(), claims.UserID, courseID); err != nil {
		if errors.Is(err, service.ErrCourseNotPublished) {
			response.Fail(c, http.StatusConflict, response.ErrActionForbidden)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// MyProgress godoc
// GET /api/v1/trainee/progress
func (h *TraineePortalHandler) MyProgress(c *gin.Context) {
	claims := middleware.GetClaims(c)

	progress, err := h.progressService.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"progress": progress})
}

// ─── Exam lifecycle ─────────────────────────────────────────────────

// StartExam godoc
// POST /api/v1/trainee/courses/:courseId/exam/start?lesson_id=...
// Builds a session, or returns the live one (a refresh never burns an
// attempt).
func (h *TraineePortalHandler) StartExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	courseID, lessonID, ok := examScope(c)
	if !ok {
		return
	}

	state, err := h.examService.StartExam(c.Request.Context(), claims.UserID, courseID, lessonID)
	if err != nil {
		failExamError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// GetExamState godoc
// GET /api/v1/trainee/courses/:courseId/exam?lesson_id=...
func (h *TraineePortalHandler) GetExamState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	courseID, lessonID, ok := examScope(c)
	if !ok {
		return
	}

	state, err := h.examService.GetState(claims.UserID, courseID, lessonID)
	if err != nil {
		failExamError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// answerRequest is the HTTP payload for selecting an answer. The
// WebSocket stream carries the same operation for live exams.
type answerRequest struct {
	QuestionID  string `json:"question_id" binding:"required,uuid"`
	OptionIndex *int   `json:"option_index" binding:"required,min=0"`
}

// SelectAnswer godoc
// PUT /api/v1/trainee/courses/:courseId/exam/answer?lesson_id=...
func (h *TraineePortalHandler) SelectAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	courseID, lessonID, ok := examScope(c)
	if !ok {
		return
	}

	var req answerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	remaining, err := h.examService.SelectAnswer(c.Request.Context(), claims.UserID, courseID, lessonID, questionID, *req.OptionIndex)
	if err != nil {
		failExamError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"remaining_seconds": remaining})
}

// SubmitExam godoc
// POST /api/v1/trainee/courses/:courseId/exam/submit?lesson_id=...
func (h *TraineePortalHandler) SubmitExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	courseID, lessonID, ok := examScope(c)
	if !ok {
		return
	}

	result, err := h.examService.Submit(c.Request.Context(), claims.UserID, courseID, lessonID)
	if err != nil {
		failExamError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// AbandonExam godoc
// DELETE /api/v1/trainee/courses/:courseId/exam?lesson_id=...
// Discards the live session without recording an attempt.
func (h *TraineePortalHandler) AbandonExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	courseID, lessonID, ok := examScope(c)
	if !ok {
		return
	}

	if err := h.examService.Abandon(c.Request.Context(), claims.UserID, courseID, lessonID); err != nil {
		failExamError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ─── History ────────────────────────────────────────────────────────

// ListAttempts godoc
// GET /api/v1/trainee/courses/:courseId/attempts?lesson_id=...
func (h *TraineePortalHandler) ListAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	courseID, lessonID, ok := examScope(c)
	if !ok {
		return
	}

	attempts, err := h.examService.ListAttempts(c.Request.Context(), claims.UserID, courseID, lessonID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	// History listings omit the heavy snapshot; replay serves the detail.
	out := make([]gin.H, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, gin.H{
			"id":                 a.ID,
			"lesson_id":          a.LessonID,
			"score":              a.Score,
			"passed":             a.Passed,
			"timed_out":          a.TimedOut,
			"time_spent_seconds": a.TimeSpentSeconds,
			"timestamp":          a.Timestamp,
		})
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": out})
}

// GetReplay godoc
// GET /api/v1/trainee/attempts/:attemptId/replay
// Reconstructs a past attempt exactly as it was taken.
func (h *TraineePortalHandler) GetReplay(c *gin.Context) {
	claims := middleware.GetClaims(c)
	attemptID, err := uuid.Parse(c.Param("attemptId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.examService.GetReplay(c.Request.Context(), attemptID, claims.UserID, claims.Role)
	if err != nil {
		if errors.Is(err, service.ErrReplayForbidden) {
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
			return
		}
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"replay": view})
}

// ─── Certificates ───────────────────────────────────────────────────

// MyCertificates godoc
// GET /api/v1/trainee/certificates
func (h *TraineePortalHandler) MyCertificates(c *gin.Context) {
	claims := middleware.GetClaims(c)

	certs, err := h.certService.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"certificates": certs})
}

// VerifyCertificate godoc
// GET /api/v1/certificates/:number
// Public lookup for third-party verification.
func (h *TraineePortalHandler) VerifyCertificate(c *gin.Context) {
	cert, err := h.certService.Verify(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"certificate": cert})
}
