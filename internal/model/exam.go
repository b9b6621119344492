package model

import "github.com/google/uuid"

// ExamConfig describes how an exam is assembled and graded. Configs are
// authored on courses (final exam) or lessons (lesson quiz) and are
// read-only to the exam core.
type ExamConfig struct {
	PassingScorePercent int  `json:"passing_score_percent"`
	TimeLimitMinutes    int  `json:"time_limit_minutes"`
	MaxAttempts         int  `json:"max_attempts"`
	RandomizeQuestions  bool `json:"randomize_questions"`
	RandomizeAnswers    bool `json:"randomize_answers"`
	// QuestionDrawCount is the number of questions drawn from the pool
	// for a single session. Zero means "use the whole pool".
	QuestionDrawCount int `json:"question_draw_count"`
}

// SessionQuestion is a per-session copy of a Question. Its options may be
// reordered relative to the authored question, with CorrectOptionIndex
// recomputed to follow the reordering. Created once at session start and
// never mutated afterward; frozen into the attempt snapshot at submission.
type SessionQuestion struct {
	ID                 uuid.UUID `json:"id"`
	Text               string    `json:"text"`
	Options            []string  `json:"options"`
	CorrectOptionIndex int       `json:"correct_option_index"`
}

// QuestionForTrainee is a session question without the correct answer,
// sent to the trainee taking the exam.
type QuestionForTrainee struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Options []string  `json:"options"`
}

// ScoreResult is the outcome of grading a submitted session.
type ScoreResult struct {
	CorrectCount   int  `json:"correct_count"`
	TotalQuestions int  `json:"total_questions"`
	ScorePercent   int  `json:"score_percent"`
	Passed         bool `json:"passed"`
}
