package exam

import (
	"sync"
	"time"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/google/uuid"
)

// State enumerates exam session states.
type State string

const (
	StateInProgress State = "IN_PROGRESS"
	StateSubmitted  State = "SUBMITTED"
)

// Session is the live, in-memory instantiation of one exam attempt: the
// built question list, the trainee's answers so far, and the countdown.
// It is never persisted mid-flight; abandoning it simply discards it.
//
// The question list is built exactly once at session start and frozen —
// reads never recompute the shuffle. All methods are safe for
// concurrent use; the HTTP handler, the WebSocket stream, and the
// countdown ticker all funnel through the same mutex, so the
// "already submitted" guard is checked-and-set atomically.
type Session struct {
	mu sync.Mutex

	id       uuid.UUID
	userID   uuid.UUID
	courseID uuid.UUID
	lessonID *uuid.UUID

	cfg       model.ExamConfig
	questions []model.SessionQuestion
	answers   map[uuid.UUID]int

	remainingSeconds int
	startedAt        time.Time
	state            State
	timedOut         bool
}

// Snapshot is the frozen view of a session produced by Submit. Its
// questions and answers are the exact material an attempt records.
type Snapshot struct {
	SessionID        uuid.UUID
	UserID           uuid.UUID
	CourseID         uuid.UUID
	LessonID         *uuid.UUID
	Config           model.ExamConfig
	Questions        []model.SessionQuestion
	Answers          map[uuid.UUID]int
	TimeSpentSeconds int
	TimedOut         bool
}

// NewSession starts a session over an already-built question list. The
// countdown is armed at the configured time limit; the caller is
// responsible for driving Tick once per second.
func NewSession(userID, courseID uuid.UUID, lessonID *uuid.UUID, cfg model.ExamConfig, questions []model.SessionQuestion) *Session {
	return &Session{
		id:               uuid.New(),
		userID:           userID,
		courseID:         courseID,
		lessonID:         lessonID,
		cfg:              cfg,
		questions:        questions,
		answers:          make(map[uuid.UUID]int, len(questions)),
		remainingSeconds: cfg.TimeLimitMinutes * 60,
		startedAt:        time.Now(),
		state:            StateInProgress,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// UserID returns the trainee taking the exam.
func (s *Session) UserID() uuid.UUID { return s.userID }

// CourseID returns the course the exam belongs to.
func (s *Session) CourseID() uuid.UUID { return s.courseID }

// LessonID returns the lesson scope, or nil for a course final exam.
func (s *Session) LessonID() *uuid.UUID { return s.lessonID }

// Config returns the exam configuration the session was built with.
func (s *Session) Config() model.ExamConfig { return s.cfg }

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RemainingSeconds returns the seconds left on the countdown.
func (s *Session) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingSeconds
}

// QuestionsForTrainee returns the session questions stripped of the
// correct answer index, in session order.
func (s *Session) QuestionsForTrainee() []model.QuestionForTrainee {
	out := make([]model.QuestionForTrainee, len(s.questions))
	for i, q := range s.questions {
		out[i] = model.QuestionForTrainee{ID: q.ID, Text: q.Text, Options: q.Options}
	}
	return out
}

// Answers returns a copy of the answers selected so far.
func (s *Session) Answers() map[uuid.UUID]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]int, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// SelectAnswer stores (or overwrites) the trainee's choice for one
// question. Out-of-range indices and unknown question IDs are rejected
// without touching session state.
func (s *Session) SelectAnswer(questionID uuid.UUID, optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}

	var found *model.SessionQuestion
	for i := range s.questions {
		if s.questions[i].ID == questionID {
			found = &s.questions[i]
			break
		}
	}
	if found == nil {
		return ErrUnknownQuestion
	}
	if optionIndex < 0 || optionIndex >= len(found.Options) {
		return ErrInvalidAnswer
	}

	s.answers[questionID] = optionIndex
	return nil
}

// Tick decrements the countdown by one second. It reports true exactly
// when the countdown reaches zero, at which point the owner must route
// the session through the same submit path as a manual submit. Ticks
// after submission are no-ops.
func (s *Session) Tick() (expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress || s.remainingSeconds <= 0 {
		return false
	}

	s.remainingSeconds--
	return s.remainingSeconds == 0
}

// Submit transitions the session to SUBMITTED and freezes its contents
// into a Snapshot. A manual submit (timedOut=false) requires every
// question to carry an answer; a timer-triggered one accepts partial
// answers, which score as incorrect. Exactly one call can win: any
// later call returns ErrAlreadySubmitted and changes nothing.
func (s *Session) Submit(timedOut bool) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitted {
		return nil, ErrAlreadySubmitted
	}
	if s.state != StateInProgress {
		return nil, ErrNotInProgress
	}

	if !timedOut {
		for i := range s.questions {
			if _, ok := s.answers[s.questions[i].ID]; !ok {
				return nil, ErrUnanswered
			}
		}
	}

	s.state = StateSubmitted
	s.timedOut = timedOut

	answers := make(map[uuid.UUID]int, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}

	elapsed := s.cfg.TimeLimitMinutes*60 - s.remainingSeconds
	if elapsed < 0 {
		elapsed = 0
	}

	return &Snapshot{
		SessionID:        s.id,
		UserID:           s.userID,
		CourseID:         s.courseID,
		LessonID:         s.lessonID,
		Config:           s.cfg,
		Questions:        s.questions,
		Answers:          answers,
		TimeSpentSeconds: elapsed,
		TimedOut:         timedOut,
	}, nil
}
