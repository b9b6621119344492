package exam

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestManager_RegisterAndGet(t *testing.T) {
	m := NewManager(zerolog.Nop(), time.Hour, nil)
	sess := newTestSession(t, 2, 5)

	if err := m.Register(sess); err != nil {
		t.Fatalf("register: %v", err)
	}
	defer m.Release(sess.UserID(), sess.CourseID(), sess.LessonID())

	got, ok := m.Get(sess.UserID(), sess.CourseID(), sess.LessonID())
	if !ok || got != sess {
		t.Fatal("registered session not retrievable")
	}

	if _, ok := m.Get(uuid.New(), sess.CourseID(), sess.LessonID()); ok {
		t.Fatal("lookup for another trainee returned a session")
	}
}

func TestManager_DuplicateRegistration(t *testing.T) {
	m := NewManager(zerolog.Nop(), time.Hour, nil)
	sess := newTestSession(t, 2, 5)

	if err := m.Register(sess); err != nil {
		t.Fatalf("register: %v", err)
	}
	defer m.Release(sess.UserID(), sess.CourseID(), sess.LessonID())

	dup := NewSession(sess.UserID(), sess.CourseID(), sess.LessonID(), sess.Config(), nil)
	if err := m.Register(dup); err != ErrSessionActive {
		t.Fatalf("duplicate register: got %v, want ErrSessionActive", err)
	}
}

func TestManager_LessonScopesAreIndependent(t *testing.T) {
	m := NewManager(zerolog.Nop(), time.Hour, nil)

	userID := uuid.New()
	courseID := uuid.New()
	lessonID := uuid.New()

	pool := makePool(2)
	cfg := baseConfig()
	questions, err := BuildQuestions(pool, cfg, newRNG(1))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	final := NewSession(userID, courseID, nil, cfg, questions)
	lesson := NewSession(userID, courseID, &lessonID, cfg, questions)

	if err := m.Register(final); err != nil {
		t.Fatalf("register final: %v", err)
	}
	if err := m.Register(lesson); err != nil {
		t.Fatalf("lesson exam blocked by course final: %v", err)
	}

	m.Release(userID, courseID, nil)
	m.Release(userID, courseID, &lessonID)
}

func TestManager_ExpiryFiresOnce(t *testing.T) {
	var fired atomic.Int32
	expired := make(chan *Session, 1)

	m := NewManager(zerolog.Nop(), time.Millisecond, func(sess *Session) {
		fired.Add(1)
		expired <- sess
	})

	sess := newTestSession(t, 2, 1) // 60 ticks at 1ms
	if err := m.Register(sess); err != nil {
		t.Fatalf("register: %v", err)
	}

	select {
	case got := <-expired:
		if got != sess {
			t.Fatal("expire handler received the wrong session")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session never expired")
	}

	// The manager released the slot before calling the handler.
	if _, ok := m.Get(sess.UserID(), sess.CourseID(), sess.LessonID()); ok {
		t.Fatal("expired session still registered")
	}

	// Give a stray ticker a chance to misfire.
	time.Sleep(20 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Fatalf("expire handler fired %d times, want 1", n)
	}
}

func TestManager_ReleaseStopsCountdown(t *testing.T) {
	var fired atomic.Int32
	m := NewManager(zerolog.Nop(), time.Millisecond, func(*Session) {
		fired.Add(1)
	})

	sess := newTestSession(t, 2, 1)
	if err := m.Register(sess); err != nil {
		t.Fatalf("register: %v", err)
	}

	m.Release(sess.UserID(), sess.CourseID(), sess.LessonID())

	if _, ok := m.Get(sess.UserID(), sess.CourseID(), sess.LessonID()); ok {
		t.Fatal("released session still registered")
	}

	// Long enough for 60 ticks to have elapsed were the timer alive.
	time.Sleep(100 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Fatalf("expire handler fired %d times after release", n)
	}

	// The slot is free for a fresh session.
	again := NewSession(sess.UserID(), sess.CourseID(), sess.LessonID(), sess.Config(), nil)
	if err := m.Register(again); err != nil {
		t.Fatalf("re-register after release: %v", err)
	}
	m.Release(again.UserID(), again.CourseID(), again.LessonID())
}

func TestManager_DoubleReleaseIsSafe(t *testing.T) {
	m := NewManager(zerolog.Nop(), time.Hour, nil)
	sess := newTestSession(t, 2, 5)

	if err := m.Register(sess); err != nil {
		t.Fatalf("register: %v", err)
	}

	m.Release(sess.UserID(), sess.CourseID(), sess.LessonID())
	m.Release(sess.UserID(), sess.CourseID(), sess.LessonID())
}
