package exam

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/avialearn/avialearn-backend/internal/model"
	"github.com/google/uuid"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func makePool(n int) []model.Question {
	pool := make([]model.Question, n)
	for i := range pool {
		pool[i] = model.Question{
			ID:                 uuid.New(),
			CourseID:           uuid.New(),
			Text:               "question",
			Options:            []string{"alpha", "bravo", "charlie", "delta"},
			CorrectOptionIndex: i % 4,
			OrderNum:           i,
		}
	}
	return pool
}

func baseConfig() model.ExamConfig {
	return model.ExamConfig{
		PassingScorePercent: 75,
		TimeLimitMinutes:    30,
		MaxAttempts:         3,
	}
}

func TestBuildQuestions_EmptyPool(t *testing.T) {
	_, err := BuildQuestions(nil, baseConfig(), newRNG(1))
	if err != ErrNoQuestions {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestBuildQuestions_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.ExamConfig)
	}{
		{"zero time limit", func(c *model.ExamConfig) { c.TimeLimitMinutes = 0 }},
		{"negative time limit", func(c *model.ExamConfig) { c.TimeLimitMinutes = -5 }},
		{"passing score above 100", func(c *model.ExamConfig) { c.PassingScorePercent = 101 }},
		{"negative passing score", func(c *model.ExamConfig) { c.PassingScorePercent = -1 }},
		{"zero max attempts", func(c *model.ExamConfig) { c.MaxAttempts = 0 }},
		{"negative draw count", func(c *model.ExamConfig) { c.QuestionDrawCount = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(&cfg)
			_, err := BuildQuestions(makePool(4), cfg, newRNG(1))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestBuildQuestions_PoolNotMutated(t *testing.T) {
	pool := makePool(10)
	originalIDs := make([]uuid.UUID, len(pool))
	originalOptions := make([][]string, len(pool))
	for i, q := range pool {
		originalIDs[i] = q.ID
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		originalOptions[i] = opts
	}

	cfg := baseConfig()
	cfg.RandomizeQuestions = true
	cfg.RandomizeAnswers = true

	if _, err := BuildQuestions(pool, cfg, newRNG(42)); err != nil {
		t.Fatalf("build: %v", err)
	}

	for i, q := range pool {
		if q.ID != originalIDs[i] {
			t.Fatalf("pool order mutated at %d", i)
		}
		for j, opt := range q.Options {
			if opt != originalOptions[i][j] {
				t.Fatalf("pool options mutated at %d/%d", i, j)
			}
		}
	}
}

func TestBuildQuestions_DrawCountBound(t *testing.T) {
	pool := makePool(20)

	for _, k := range []int{1, 5, 19, 20} {
		cfg := baseConfig()
		cfg.RandomizeQuestions = true
		cfg.QuestionDrawCount = k

		questions, err := BuildQuestions(pool, cfg, newRNG(7))
		if err != nil {
			t.Fatalf("draw %d: %v", k, err)
		}
		if len(questions) != k {
			t.Fatalf("draw %d: got %d questions", k, len(questions))
		}

		// All drawn from the pool, no duplicates.
		poolIDs := make(map[uuid.UUID]bool, len(pool))
		for _, q := range pool {
			poolIDs[q.ID] = true
		}
		seen := make(map[uuid.UUID]bool, k)
		for _, q := range questions {
			if !poolIDs[q.ID] {
				t.Fatalf("draw %d: question %s not from pool", k, q.ID)
			}
			if seen[q.ID] {
				t.Fatalf("draw %d: duplicate question %s", k, q.ID)
			}
			seen[q.ID] = true
		}
	}
}

func TestBuildQuestions_DrawLargerThanPool(t *testing.T) {
	pool := makePool(3)
	cfg := baseConfig()
	cfg.QuestionDrawCount = 10

	questions, err := BuildQuestions(pool, cfg, newRNG(1))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected full pool of 3, got %d", len(questions))
	}
}

func TestBuildQuestions_PrefixDrawWithoutShuffle(t *testing.T) {
	// Legacy behavior: without question randomization the draw is the
	// authored-order prefix, deterministically.
	pool := makePool(10)
	cfg := baseConfig()
	cfg.QuestionDrawCount = 4

	questions, err := BuildQuestions(pool, cfg, newRNG(99))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i, q := range questions {
		if q.ID != pool[i].ID {
			t.Fatalf("expected authored prefix, position %d differs", i)
		}
	}
}

func TestBuildQuestions_IndexRemappingInvariant(t *testing.T) {
	// For any seed, the recomputed correct index must point at the
	// option whose text equals the original correct option's text.
	pool := makePool(15)
	cfg := baseConfig()
	cfg.RandomizeQuestions = true
	cfg.RandomizeAnswers = true

	correctTexts := make(map[uuid.UUID]string, len(pool))
	for _, q := range pool {
		correctTexts[q.ID] = q.Options[q.CorrectOptionIndex]
	}

	for seed := uint64(0); seed < 50; seed++ {
		questions, err := BuildQuestions(pool, cfg, newRNG(seed))
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		for _, q := range questions {
			if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
				t.Fatalf("seed %d: correct index %d out of range", seed, q.CorrectOptionIndex)
			}
			if got := q.Options[q.CorrectOptionIndex]; got != correctTexts[q.ID] {
				t.Fatalf("seed %d: correct option text %q, want %q", seed, got, correctTexts[q.ID])
			}
		}
	}
}

func TestBuildQuestions_DuplicateOptionTextFirstMatchWins(t *testing.T) {
	pool := []model.Question{{
		ID:                 uuid.New(),
		Options:            []string{"same", "same", "other"},
		CorrectOptionIndex: 1,
	}}
	cfg := baseConfig()
	cfg.RandomizeAnswers = true

	questions, err := BuildQuestions(pool, cfg, newRNG(3))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	q := questions[0]
	if q.Options[q.CorrectOptionIndex] != "same" {
		t.Fatalf("remap lost correct text, got %q", q.Options[q.CorrectOptionIndex])
	}
	// First matching index wins.
	for i, opt := range q.Options {
		if opt == "same" {
			if q.CorrectOptionIndex != i {
				t.Fatalf("expected first match %d, got %d", i, q.CorrectOptionIndex)
			}
			break
		}
	}
}

func TestBuildQuestions_Deterministic(t *testing.T) {
	pool := makePool(12)
	cfg := baseConfig()
	cfg.RandomizeQuestions = true
	cfg.RandomizeAnswers = true
	cfg.QuestionDrawCount = 8

	a, err := BuildQuestions(pool, cfg, newRNG(1234))
	if err != nil {
		t.Fatalf("build a: %v", err)
	}
	b, err := BuildQuestions(pool, cfg, newRNG(1234))
	if err != nil {
		t.Fatalf("build b: %v", err)
	}

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].CorrectOptionIndex != b[i].CorrectOptionIndex {
			t.Fatalf("same seed produced different sessions at %d", i)
		}
		for j := range a[i].Options {
			if a[i].Options[j] != b[i].Options[j] {
				t.Fatalf("same seed produced different option order at %d/%d", i, j)
			}
		}
	}
}
