package exam

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// sessionKey identifies one live session slot: a trainee can hold at
// most one session per course/lesson exam at a time. A nil lesson ID
// (course final exam) maps to the zero UUID.
type sessionKey struct {
	userID   uuid.UUID
	courseID uuid.UUID
	lessonID uuid.UUID
}

func makeKey(userID, courseID uuid.UUID, lessonID *uuid.UUID) sessionKey {
	k := sessionKey{userID: userID, courseID: courseID}
	if lessonID != nil {
		k.lessonID = *lessonID
	}
	return k
}

// ExpireFunc is invoked exactly once when a session's countdown reaches
// zero. It must route the session through the regular submit path.
type ExpireFunc func(sess *Session)

// Manager owns all live sessions and their countdown tickers: one
// repeating one-second task per session, torn down deterministically
// when the session is submitted or abandoned. No timer outlives its
// session.
type Manager struct {
	mu       sync.Mutex
	sessions map[sessionKey]*managedSession

	interval time.Duration
	onExpire ExpireFunc
	log      zerolog.Logger
}

type managedSession struct {
	sess *Session
	stop chan struct{}
}

// NewManager creates a Manager. interval is the tick cadence — one
// second in production, shorter in tests.
func NewManager(log zerolog.Logger, interval time.Duration, onExpire ExpireFunc) *Manager {
	return &Manager{
		sessions: make(map[sessionKey]*managedSession),
		interval: interval,
		onExpire: onExpire,
		log:      log.With().Str("component", "session_manager").Logger(),
	}
}

// Register adds a live session and arms its countdown ticker. Returns
// ErrSessionActive if the trainee already holds a session for this exam.
func (m *Manager) Register(sess *Session) error {
	key := makeKey(sess.UserID(), sess.CourseID(), sess.LessonID())

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[key]; exists {
		return ErrSessionActive
	}

	ms := &managedSession{sess: sess, stop: make(chan struct{})}
	m.sessions[key] = ms

	go m.runCountdown(key, ms)

	m.log.Debug().
		Str("session_id", sess.ID().String()).
		Str("user_id", sess.UserID().String()).
		Int("remaining_seconds", sess.RemainingSeconds()).
		Msg("Session registered")

	return nil
}

// Get returns the live session for a trainee's exam slot, if any.
func (m *Manager) Get(userID, courseID uuid.UUID, lessonID *uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[makeKey(userID, courseID, lessonID)]
	if !ok {
		return nil, false
	}
	return ms.sess, true
}

// Release removes a session slot and stops its ticker. Called after a
// successful submit, or when a trainee abandons the exam (in which case
// nothing is persisted — the session is simply discarded).
func (m *Manager) Release(userID, courseID uuid.UUID, lessonID *uuid.UUID) {
	key := makeKey(userID, courseID, lessonID)

	m.mu.Lock()
	ms, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	if ok {
		close(ms.stop)
	}
}

// runCountdown drives one session's ticker until expiry or release.
func (m *Manager) runCountdown(key sessionKey, ms *managedSession) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stop:
			return
		case <-ticker.C:
			if ms.sess.Tick() {
				m.log.Info().
					Str("session_id", ms.sess.ID().String()).
					Str("user_id", ms.sess.UserID().String()).
					Msg("Session time limit reached, auto-submitting")

				// Release first so the expire handler's own Release is
				// a no-op and no second timer can fire.
				m.Release(ms.sess.UserID(), ms.sess.CourseID(), ms.sess.LessonID())

				if m.onExpire != nil {
					m.onExpire(ms.sess)
				}
				return
			}
		}
	}
}
