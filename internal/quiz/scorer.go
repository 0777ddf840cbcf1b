package quiz

import (
	"strings"

	"quiz-arena/internal/domain"
)

// Weights maps a difficulty to the experience awarded per correct answer.
type Weights map[domain.Difficulty]int

// DefaultWeights is the stock experience table.
func DefaultWeights() Weights {
	return Weights{
		domain.DifficultyEasy:   10,
		domain.DifficultyMedium: 20,
		domain.DifficultyHard:   40,
	}
}

// IsCorrect reports whether a pick matches the frozen correct answer.
func IsCorrect(q domain.PreparedQuestion, p domain.Pick) bool {
	if p.TimedOut || p.Choice == "" {
		return false
	}
	return strings.TrimSpace(p.Choice) == q.CorrectAnswer
}

// Score computes one participant slot's breakdown. picks is indexed [question][slot].
func Score(questions []domain.PreparedQuestion, picks [][]domain.Pick, slot, weight int) domain.ScoreBreakdown {
	out := domain.ScoreBreakdown{Total: len(questions)}
	for i, q := range questions {
		if i >= len(picks) || slot >= len(picks[i]) {
			continue
		}
		if IsCorrect(q, picks[i][slot]) {
			out.CorrectCount++
		}
	}
	if out.Total > 0 {
		out.Percentage = float64(out.CorrectCount) / float64(out.Total) * 100
	}
	out.ExperiencePoints = out.CorrectCount * weight
	return out
}
