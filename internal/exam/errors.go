package exam

import "errors"

// Domain errors of the exam core. Handlers map these onto API error codes.
var (
	// ErrNoQuestions means the question pool is empty; an exam cannot
	// be started with zero questions.
	ErrNoQuestions = errors.New("exam has no questions")

	// ErrInvalidConfig means the exam configuration itself is unusable
	// (non-positive time limit, out-of-range passing score, ...).
	ErrInvalidConfig = errors.New("invalid exam configuration")

	// ErrAttemptsExhausted means the trainee has used every allowed
	// attempt without completing the course. Checked before a session
	// is ever built.
	ErrAttemptsExhausted = errors.New("maximum exam attempts reached")

	// ErrInvalidAnswer means an answer referenced an option index that
	// does not exist on the question. The selection is rejected and the
	// session state is left unchanged.
	ErrInvalidAnswer = errors.New("answer option index out of range")

	// ErrUnknownQuestion means an answer referenced a question that is
	// not part of the session.
	ErrUnknownQuestion = errors.New("question is not part of this session")

	// ErrNotInProgress means an operation that requires a live session
	// was attempted on one that never started or already ended.
	ErrNotInProgress = errors.New("exam session is not in progress")

	// ErrAlreadySubmitted means a second submit raced a first one; the
	// loser becomes a no-op signalled by this error.
	ErrAlreadySubmitted = errors.New("exam session already submitted")

	// ErrUnanswered means a manual submit arrived while some questions
	// had no answer. Timer-triggered submissions bypass this check.
	ErrUnanswered = errors.New("not all questions answered")

	// ErrSessionActive means the trainee already has a live session for
	// this exam; the existing one must be resumed or abandoned first.
	ErrSessionActive = errors.New("an exam session is already in progress")
)
