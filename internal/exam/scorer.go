package exam

import (
	"math"

	"github.com/avialearn/avialearn-backend/internal/model"
)

// Score grades a frozen snapshot. A question counts as correct when the
// recorded answer equals its (session-local) correct option index;
// missing answers count as incorrect. The percentage is rounded
// half-up and the pass threshold is inclusive. Pure function, no side
// effects.
func Score(snap *Snapshot) model.ScoreResult {
	total := len(snap.Questions)

	correct := 0
	for i := range snap.Questions {
		q := &snap.Questions[i]
		if chosen, ok := snap.Answers[q.ID]; ok && chosen == q.CorrectOptionIndex {
			correct++
		}
	}

	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(correct) / float64(total) * 100))
	}

	return model.ScoreResult{
		CorrectCount:   correct,
		TotalQuestions: total,
		ScorePercent:   percent,
		Passed:         percent >= snap.Config.PassingScorePercent,
	}
}
