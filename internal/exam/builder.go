package exam

import (
	"fmt"
	"math/rand/v2"

	"github.com/avialearn/avialearn-backend/internal/model"
)

// ValidateConfig checks that an exam configuration is usable for
// starting a session.
func ValidateConfig(cfg model.ExamConfig) error {
	if cfg.TimeLimitMinutes <= 0 {
		return fmt.Errorf("%w: time limit must be positive, got %d", ErrInvalidConfig, cfg.TimeLimitMinutes)
	}
	if cfg.PassingScorePercent < 0 || cfg.PassingScorePercent > 100 {
		return fmt.Errorf("%w: passing score must be 0-100, got %d", ErrInvalidConfig, cfg.PassingScorePercent)
	}
	if cfg.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidConfig, cfg.MaxAttempts)
	}
	if cfg.QuestionDrawCount < 0 {
		return fmt.Errorf("%w: draw count must not be negative, got %d", ErrInvalidConfig, cfg.QuestionDrawCount)
	}
	return nil
}

// BuildQuestions assembles the ordered question list a trainee will see,
// from the authored pool and the exam configuration. The pool is never
// mutated. All randomness comes from rng so sessions are reproducible
// under a fixed seed.
//
// Order of operations: optional full shuffle, then optional truncation
// to the draw count, then optional per-question option shuffle with the
// correct index recomputed. Truncation after shuffle means the draw is
// a uniform subset when question randomization is on; with it off, the
// draw is the authored-order prefix (kept as-is from the legacy
// behavior, see DESIGN.md).
func BuildQuestions(pool []model.Question, cfg model.ExamConfig, rng *rand.Rand) ([]model.SessionQuestion, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, ErrNoQuestions
	}

	questions := make([]model.SessionQuestion, len(pool))
	for i, q := range pool {
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		questions[i] = model.SessionQuestion{
			ID:                 q.ID,
			Text:               q.Text,
			Options:            opts,
			CorrectOptionIndex: q.CorrectOptionIndex,
		}
	}

	if cfg.RandomizeQuestions {
		rng.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}

	if cfg.QuestionDrawCount > 0 && cfg.QuestionDrawCount < len(questions) {
		questions = questions[:cfg.QuestionDrawCount]
	}

	if cfg.RandomizeAnswers {
		for i := range questions {
			shuffleOptions(&questions[i], rng)
		}
	}

	return questions, nil
}

// shuffleOptions reorders a question's options in place and recomputes
// CorrectOptionIndex as the new position of the original correct
// option's text. With duplicate option texts the first match wins;
// authoring validation is expected to prevent duplicates.
func shuffleOptions(q *model.SessionQuestion, rng *rand.Rand) {
	correctText := q.Options[q.CorrectOptionIndex]

	rng.Shuffle(len(q.Options), func(i, j int) {
		q.Options[i], q.Options[j] = q.Options[j], q.Options[i]
	})

	for i, opt := range q.Options {
		if opt == correctText {
			q.CorrectOptionIndex = i
			return
		}
	}
}
