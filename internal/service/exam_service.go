package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/avialearn/avialearn-backend/internal/config"
	"github.com/avialearn/avialearn-backend/internal/exam"
	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/avialearn/avialearn-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Exam orchestration errors.
var (
	ErrExamNotAvailable = errors.New("exam is not available")
	ErrNoActiveSession  = errors.New("no exam session in progress")
	ErrReplayForbidden  = errors.New("attempt belongs to another trainee")
)

// ExamState is the trainee-facing view of a live session: questions
// without answers, the choices made so far, and the countdown.
type ExamState struct {
	SessionID           uuid.UUID                  `json:"session_id"`
	CourseID            uuid.UUID                  `json:"course_id"`
	LessonID            *uuid.UUID                 `json:"lesson_id,omitempty"`
	Questions           []model.QuestionForTrainee `json:"questions"`
	Answers             map[uuid.UUID]int          `json:"answers"`
	RemainingSeconds    int                        `json:"remaining_seconds"`
	TimeLimitMinutes    int                        `json:"time_limit_minutes"`
	PassingScorePercent int                        `json:"passing_score_percent"`
}

// SubmitResult is the graded outcome handed back to the trainee.
// SavePending is set when the attempt could not be written synchronously
// and sits in the persistence queue instead.
type SubmitResult struct {
	AttemptID      uuid.UUID `json:"attempt_id"`
	Score          int       `json:"score"`
	CorrectCount   int       `json:"correct_count"`
	TotalQuestions int       `json:"total_questions"`
	Passed         bool      `json:"passed"`
	TimedOut       bool      `json:"timed_out"`
	SavePending    bool      `json:"save_pending,omitempty"`
}

// ExamService orchestrates the full exam lifecycle: eligibility, session
// assembly, live answering, submission, grading, and history.
type ExamService struct {
	courseRepo   *repository.CourseRepository
	lessonRepo   *repository.LessonRepository
	questionRepo *repository.QuestionRepository
	progressRepo *repository.ProgressRepository
	certService  *CertificateService
	manager      *exam.Manager
	recorder     *exam.Recorder
	rdb          *redis.Client
	log          zerolog.Logger

	subMu       sync.Mutex
	subscribers map[uuid.UUID]chan SubmitResult
}

// NewExamService creates an ExamService and arms the session manager
// with a one-second tick. Timed-out sessions are routed through the same
// grading path as manual submits.
func NewExamService(
	courseRepo *repository.CourseRepository,
	lessonRepo *repository.LessonRepository,
	questionRepo *repository.QuestionRepository,
	progressRepo *repository.ProgressRepository,
	certService *CertificateService,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	s := &ExamService{
		courseRepo:   courseRepo,
		lessonRepo:   lessonRepo,
		questionRepo: questionRepo,
		progressRepo: progressRepo,
		certService:  certService,
		recorder:     exam.NewRecorder(progressRepo, log),
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
		subscribers:  make(map[uuid.UUID]chan SubmitResult),
	}
	s.manager = exam.NewManager(log, time.Second, s.handleExpiry)
	return s
}

// resolveTemplate loads the exam configuration for a course final exam
// (lessonID nil) or a lesson quiz, verifying availability.
func (s *ExamService) resolveTemplate(ctx context.Context, courseID uuid.UUID, lessonID *uuid.UUID) (model.ExamConfig, *model.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return model.ExamConfig{}, nil, fmt.Errorf("get course: %w", err)
	}
	if course.Status != model.CourseStatusPublished {
		return model.ExamConfig{}, nil, ErrExamNotAvailable
	}

	if lessonID == nil {
		if !course.HasExam {
			return model.ExamConfig{}, nil, ErrExamNotAvailable
		}
		return course.Exam, course, nil
	}

	lesson, err := s.lessonRepo.GetByID(ctx, *lessonID)
	if err != nil {
		return model.ExamConfig{}, nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson.CourseID != courseID || !lesson.HasExam {
		return model.ExamConfig{}, nil, ErrExamNotAvailable
	}
	return lesson.Exam, course, nil
}

// StartExam builds and registers a session for a trainee. Calling it
// again while a session is live returns the live session unchanged, so
// a page refresh never burns an attempt.
func (s *ExamService) StartExam(ctx context.Context, userID, courseID uuid.UUID, lessonID *uuid.UUID) (*ExamState, error) {
	// Rejoin before any eligibility work.
	if sess, ok := s.manager.Get(userID, courseID, lessonID); ok {
		return s.stateFor(sess), nil
	}

	progress, err := s.progressRepo.Get(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	cfg, _, err := s.resolveTemplate(ctx, courseID, lessonID)
	if err != nil {
		return nil, err
	}

	count, err := s.progressRepo.CountAttempts(ctx, userID, courseID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	if err := exam.CheckAttemptLimit(count, cfg, progress.IsCompleted); err != nil {
		return nil, err
	}

	pool, err := s.questionRepo.ListByCourse(ctx, courseID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	questions, err := exam.BuildQuestions(pool, cfg, rng)
	if err != nil {
		return nil, err
	}

	sess := exam.NewSession(userID, courseID, lessonID, cfg, questions)
	if err := s.manager.Register(sess); err != nil {
		// Lost a race against a concurrent start; hand back the winner.
		if errors.Is(err, exam.ErrSessionActive) {
			if live, ok := s.manager.Get(userID, courseID, lessonID); ok {
				return s.stateFor(live), nil
			}
		}
		return nil, err
	}

	// Fresh session, stale mirror.
	if err := s.rdb.Del(ctx, config.CacheKey.LiveAnswersKey(userID.String(), courseID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to clear live answers mirror")
	}

	s.log.Info().
		Str("session_id", sess.ID().String()).
		Str("user_id", userID.String()).
		Str("course_id", courseID.String()).
		Int("questions", len(questions)).
		Msg("Exam session started")

	return s.stateFor(sess), nil
}

// GetState returns the live session view for a trainee's exam slot.
func (s *ExamService) GetState(userID, courseID uuid.UUID, lessonID *uuid.UUID) (*ExamState, error) {
	sess, ok := s.manager.Get(userID, courseID, lessonID)
	if !ok {
		return nil, ErrNoActiveSession
	}
	return s.stateFor(sess), nil
}

func (s *ExamService) stateFor(sess *exam.Session) *ExamState {
	cfg := sess.Config()
	return &ExamState{
		SessionID:           sess.ID(),
		CourseID:            sess.CourseID(),
		LessonID:            sess.LessonID(),
		Questions:           sess.QuestionsForTrainee(),
		Answers:             sess.Answers(),
		RemainingSeconds:    sess.RemainingSeconds(),
		TimeLimitMinutes:    cfg.TimeLimitMinutes,
		PassingScorePercent: cfg.PassingScorePercent,
	}
}

// SelectAnswer stores a trainee's choice and mirrors it to Redis so a
// reconnecting client can restore its view. The in-memory session stays
// the source of truth; a mirror failure is logged, not surfaced.
func (s *ExamService) SelectAnswer(ctx context.Context, userID, courseID uuid.UUID, lessonID *uuid.UUID, questionID uuid.UUID, optionIndex int) (int, error) {
	sess, ok := s.manager.Get(userID, courseID, lessonID)
	if !ok {
		return 0, ErrNoActiveSession
	}

	if err := sess.SelectAnswer(questionID, optionIndex); err != nil {
		return 0, err
	}

	mirrorKey := config.CacheKey.LiveAnswersKey(userID.String(), courseID.String())
	if err := s.rdb.HSet(ctx, mirrorKey, questionID.String(), optionIndex).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to mirror answer")
	} else {
		s.rdb.Expire(ctx, mirrorKey, time.Duration(sess.Config().TimeLimitMinutes)*time.Minute)
	}

	return sess.RemainingSeconds(), nil
}

// Submit grades a manual submission. Every question must be answered.
func (s *ExamService) Submit(ctx context.Context, userID, courseID uuid.UUID, lessonID *uuid.UUID) (*SubmitResult, error) {
	sess, ok := s.manager.Get(userID, courseID, lessonID)
	if !ok {
		return nil, ErrNoActiveSession
	}

	snap, err := sess.Submit(false)
	if err != nil {
		return nil, err
	}

	s.manager.Release(userID, courseID, lessonID)
	return s.finalize(ctx, snap), nil
}

// Abandon discards a live session without recording an attempt. The
// trainee may start fresh; the attempt limit is only spent on submit.
func (s *ExamService) Abandon(ctx context.Context, userID, courseID uuid.UUID, lessonID *uuid.UUID) error {
	if _, ok := s.manager.Get(userID, courseID, lessonID); !ok {
		return ErrNoActiveSession
	}
	s.manager.Release(userID, courseID, lessonID)

	if err := s.rdb.Del(ctx, config.CacheKey.LiveAnswersKey(userID.String(), courseID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to clear live answers mirror")
	}
	return nil
}

// handleExpiry is the manager's expire hook: the countdown hit zero, so
// the session is force-submitted with whatever answers exist.
func (s *ExamService) handleExpiry(sess *exam.Session) {
	snap, err := sess.Submit(true)
	if err != nil {
		// A manual submit won the race; nothing left to do.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.finalize(ctx, snap)
}

// finalize grades a snapshot, records the attempt, and fans the result
// out to any websocket subscriber. Persistence failures degrade to the
// retry queue rather than losing the attempt.
func (s *ExamService) finalize(ctx context.Context, snap *exam.Snapshot) *SubmitResult {
	result := exam.Score(snap)

	prereqMet := false
	if snap.LessonID == nil {
		course, cErr := s.courseRepo.GetByID(ctx, snap.CourseID)
		progress, pErr := s.progressRepo.Get(ctx, snap.UserID, snap.CourseID)
		if cErr == nil && pErr == nil {
			prereqMet = !course.RequiresPractical || progress.PracticalPassed
		} else {
			s.log.Warn().AnErr("course_err", cErr).AnErr("progress_err", pErr).
				Msg("Could not evaluate completion prerequisites")
		}
	}

	attempt, err := s.recorder.Record(ctx, snap, result, prereqMet)

	out := &SubmitResult{
		AttemptID:      attempt.ID,
		Score:          result.ScorePercent,
		CorrectCount:   result.CorrectCount,
		TotalQuestions: result.TotalQuestions,
		Passed:         result.Passed,
		TimedOut:       snap.TimedOut,
	}

	if err != nil {
		s.log.Error().Err(err).
			Str("attempt_id", attempt.ID.String()).
			Msg("Synchronous attempt persist failed, queueing for retry")
		s.enqueueRetry(ctx, attempt, result, prereqMet)
		out.SavePending = true
	} else if result.Passed && prereqMet && snap.LessonID == nil {
		if _, certErr := s.certService.Issue(ctx, snap.UserID, snap.CourseID, result.ScorePercent); certErr != nil {
			s.log.Error().Err(certErr).Msg("Certificate issue failed")
		}
	}

	if delErr := s.rdb.Del(ctx, config.CacheKey.LiveAnswersKey(snap.UserID.String(), snap.CourseID.String())).Err(); delErr != nil {
		s.log.Warn().Err(delErr).Msg("Failed to clear live answers mirror")
	}

	s.notify(snap.SessionID, *out)
	return out
}

// enqueueRetry pushes a failed write onto the persistence queue. The
// attempt ID is the idempotency key, so redelivery is harmless.
func (s *ExamService) enqueueRetry(ctx context.Context, attempt *model.Attempt, result model.ScoreResult, prereqMet bool) {
	job := model.AttemptPersistJob{Attempt: attempt}
	if result.Passed && attempt.LessonID == nil {
		upd := model.CompletionUpdate{ExamScore: &result.ScorePercent}
		if prereqMet {
			completed := true
			now := time.Now().UTC()
			upd.IsCompleted = &completed
			upd.CompletionDate = &now
		}
		job.Completion = &upd
	}

	payload, err := json.Marshal(job)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to marshal persist job")
		return
	}
	if err := s.rdb.LPush(ctx, config.WorkerKey.PersistAttemptsQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).
			Str("attempt_id", attempt.ID.String()).
			Msg("Failed to enqueue persist job")
	}
}

// ─── Result fan-out ─────────────────────────────────────────────────

// Subscribe registers interest in a session's graded result, used by the
// websocket stream to push timeout grading. The channel is buffered; the
// result is delivered at most once.
func (s *ExamService) Subscribe(sessionID uuid.UUID) <-chan SubmitResult {
	ch := make(chan SubmitResult, 1)
	s.subMu.Lock()
	s.subscribers[sessionID] = ch
	s.subMu.Unlock()
	return ch
}

// Unsubscribe drops a session's result subscription.
func (s *ExamService) Unsubscribe(sessionID uuid.UUID) {
	s.subMu.Lock()
	delete(s.subscribers, sessionID)
	s.subMu.Unlock()
}

func (s *ExamService) notify(sessionID uuid.UUID, result SubmitResult) {
	s.subMu.Lock()
	ch, ok := s.subscribers[sessionID]
	if ok {
		delete(s.subscribers, sessionID)
	}
	s.subMu.Unlock()

	if ok {
		ch <- result
	}
}

// ─── History ────────────────────────────────────────────────────────

// ListAttempts returns a trainee's attempt history for one exam scope,
// newest first.
func (s *ExamService) ListAttempts(ctx context.Context, userID, courseID uuid.UUID, lessonID *uuid.UUID) ([]model.Attempt, error) {
	return s.progressRepo.ListAttempts(ctx, userID, courseID, lessonID)
}

// GetReplay reconstructs a past attempt from its snapshot. Trainees may
// only replay their own attempts; staff may replay any.
func (s *ExamService) GetReplay(ctx context.Context, attemptID, requesterID uuid.UUID, requesterRole model.Role) (*exam.ReplayView, error) {
	attempt, err := s.progressRepo.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if requesterRole == model.RoleTrainee && attempt.UserID != requesterID {
		return nil, ErrReplayForbidden
	}
	return exam.Replay(attempt), nil
}
