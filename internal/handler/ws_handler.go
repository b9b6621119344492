package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avialearn/avialearn-backend/internal/exam"
	"github.com/avialearn/avialearn-backend/internal/repository"
	"github.com/avialearn/avialearn-backend/internal/middleware"
	"github.com/avialearn/avialearn-backend/internal/response"
	"github.com/avialearn/avialearn-backend/internal/service"
	ws "github.com/avialearn/avialearn-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowlist permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a live exam session: answers in, countdown and the
// graded result out. Timeout grading is pushed the moment it happens.
type WSHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		examService: examService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// wsConn serializes writes; the reader loop and the graded pusher write
// from different goroutines.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *wsConn) writeError(code response.ErrCode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = ws.WriteError(w.conn, string(code), response.GetMessage(code))
}

// ExamStream godoc
// WS /ws/v1/courses/:courseId/exam/stream?lesson_id=...&token=...
// Requires a live session (started over HTTP first).
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course ID"})
		return
	}

	var lessonID *uuid.UUID
	if raw := c.Query("lesson_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson ID"})
			return
		}
		lessonID = &id
	}

	state, err := h.examService.GetState(claims.UserID, courseID, lessonID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no exam session in progress"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := &wsConn{conn: raw}
	defer raw.Close()

	wsLog := h.log.With().
		Str("user_id", claims.UserID.String()).
		Str("course_id", courseID.String()).
		Str("session_id", state.SessionID.String()).
		Logger()

	wsLog.Info().Msg("Trainee connected")

	// Graded results (manual submit or timeout) arrive over the
	// subscription so the client gets exactly one graded event no matter
	// which path finished the session.
	gradedCh := h.examService.Subscribe(state.SessionID)
	defer h.examService.Unsubscribe(state.SessionID)

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case result := <-gradedCh:
			if err := conn.write(ws.GradedResponse{
				Event:       ws.EventGraded,
				Score:       result.Score,
				Passed:      result.Passed,
				TimedOut:    result.TimedOut,
				SavePending: result.SavePending,
			}); err != nil {
				wsLog.Debug().Err(err).Msg("Graded push failed")
			}
			raw.Close()
		case <-done:
		}
	}()

	for {
		var envelope ws.RequestEnvelope
		raw.SetReadDeadline(readDeadline())
		_, data, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		if err := unmarshalEnvelope(data, &envelope); err != nil {
			conn.writeError(response.ErrInvalidPayload)
			continue
		}

		switch envelope.Action {
		case ws.ActionAnswer:
			h.handleAnswer(conn, wsLog, claims.UserID, courseID, lessonID, data)
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, claims.UserID, courseID, lessonID)
		case ws.ActionPing:
			h.handlePing(conn, claims.UserID, courseID, lessonID)
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			conn.writeError(response.ErrInvalidPayload)
		}
	}
}

// handleAnswer stores a selection in the live session.
func (h *WSHandler) handleAnswer(conn *wsConn, wsLog zerolog.Logger, userID, courseID uuid.UUID, lessonID *uuid.UUID, data []byte) {
	var msg ws.AnswerRequest
	if err := unmarshalEnvelope(data, &msg); err != nil {
		conn.writeError(response.ErrInvalidPayload)
		return
	}

	questionID, err := uuid.Parse(msg.QuestionID)
	if err != nil {
		conn.writeError(response.ErrInvalidID)
		return
	}

	remaining, err := h.examService.SelectAnswer(context.Background(), userID, courseID, lessonID, questionID, msg.OptionIndex)
	if err != nil {
		conn.writeError(examErrCode(err))
		return
	}

	if err := conn.write(ws.SavedResponse{
		Event:            ws.EventSaved,
		QuestionID:       msg.QuestionID,
		RemainingSeconds: remaining,
	}); err != nil {
		wsLog.Debug().Err(err).Msg("Saved ack failed")
	}
}

// handleSubmit finishes the exam. The graded event is delivered through
// the subscription push, not written here, so it cannot arrive twice.
func (h *WSHandler) handleSubmit(conn *wsConn, wsLog zerolog.Logger, userID, courseID uuid.UUID, lessonID *uuid.UUID) {
	if _, err := h.examService.Submit(context.Background(), userID, courseID, lessonID); err != nil {
		conn.writeError(examErrCode(err))
		return
	}
	wsLog.Info().Msg("Exam submitted over stream")
}

// handlePing answers with the server-side countdown so clients resync
// their clocks.
func (h *WSHandler) handlePing(conn *wsConn, userID, courseID uuid.UUID, lessonID *uuid.UUID) {
	state, err := h.examService.GetState(userID, courseID, lessonID)
	if err != nil {
		conn.writeError(response.ErrSessionNotFound)
		return
	}
	_ = conn.write(ws.PongResponse{Event: ws.EventPong, RemainingSeconds: state.RemainingSeconds})
}

func readDeadline() time.Time {
	return time.Now().Add(5 * time.Minute)
}

func unmarshalEnvelope(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// examErrCode maps exam lifecycle errors onto API error codes, mirroring
// the HTTP mapping in failExamError.
func examErrCode(err error) response.ErrCode {
	switch {
	case errors.Is(err, repository.ErrNotEnrolled):
		return response.ErrNotEnrolled
	case errors.Is(err, service.ErrNoActiveSession):
		return response.ErrSessionNotFound
	case errors.Is(err, exam.ErrInvalidAnswer), errors.Is(err, exam.ErrUnknownQuestion):
		return response.ErrInvalidAnswer
	case errors.Is(err, exam.ErrAlreadySubmitted), errors.Is(err, exam.ErrNotInProgress):
		return response.ErrAlreadySubmitted
	case errors.Is(err, exam.ErrUnanswered):
		return response.ErrUnanswered
	default:
		return response.ErrInternal
	}
}
