package quiz

import (
	"math/rand"
	"strings"

	"quiz-arena/internal/domain"
)

// BuildOptions freezes a question record into a deduplicated, shuffled option list
// that contains the correct answer exactly once.
func BuildOptions(q domain.QuestionRecord, rnd *rand.Rand) domain.PreparedQuestion {
	correct := strings.TrimSpace(q.CorrectAnswer)

	seen := make(map[string]struct{}, len(q.Alternatives)+1)
	options := make([]string, 0, len(q.Alternatives)+1)
	add := func(opt string) {
		if opt == "" {
			return
		}
		if _, ok := seen[opt]; ok {
			return
		}
		seen[opt] = struct{}{}
		options = append(options, opt)
	}
	for _, alt := range q.Alternatives {
		add(strings.TrimSpace(alt))
	}
	add(correct)

	rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return domain.PreparedQuestion{
		Prompt:        strings.TrimSpace(q.Prompt),
		Options:       options,
		CorrectAnswer: correct,
	}
}

func hasOption(q domain.PreparedQuestion, choice string) bool {
	for _, opt := range q.Options {
		if opt == choice {
			return true
		}
	}
	return false
}
