package bank

import (
	"fmt"
	"strings"

	"quiz-arena/internal/domain"
)

var (
	promptColumns = []string{"pergunta", "prompt", "question"}
	answerColumns = []string{"resposta", "answer", "correct", "correct_answer"}
)

// Parse turns a header row plus data rows into question records. Every
// non-empty column other than the prompt and answer is an alternative.
// Fully empty rows are skipped; partially filled rows without a prompt or an
// answer are rejected.
func Parse(header []string, rows [][]string) ([]domain.QuestionRecord, error) {
	promptCol, answerCol := -1, -1
	altCols := make([]int, 0, len(header))
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case promptCol < 0 && contains(promptColumns, name):
			promptCol = i
		case answerCol < 0 && contains(answerColumns, name):
			answerCol = i
		case name != "":
			altCols = append(altCols, i)
		}
	}
	if promptCol < 0 {
		return nil, fmt.Errorf("%w: prompt (one of %s)", domain.ErrMissingColumn, strings.Join(promptColumns, ", "))
	}
	if answerCol < 0 {
		return nil, fmt.Errorf("%w: answer (one of %s)", domain.ErrMissingColumn, strings.Join(answerColumns, ", "))
	}

	records := make([]domain.QuestionRecord, 0, len(rows))
	for i, row := range rows {
		if blank(row) {
			continue
		}
		// Sheet rows are 1-based and the header takes row 1.
		line := i + 2
		prompt := cell(row, promptCol)
		answer := cell(row, answerCol)
		if prompt == "" {
			return nil, fmt.Errorf("%w: row %d has no prompt", domain.ErrMalformedRow, line)
		}
		if answer == "" {
			return nil, fmt.Errorf("%w: row %d has no answer", domain.ErrMalformedRow, line)
		}
		var alts []string
		for _, col := range altCols {
			if v := cell(row, col); v != "" {
				alts = append(alts, v)
			}
		}
		records = append(records, domain.QuestionRecord{
			Prompt:        prompt,
			CorrectAnswer: answer,
			Alternatives:  alts,
		})
	}
	if len(records) == 0 {
		return nil, domain.ErrEmptyBank
	}
	return records, nil
}

// ParseTable treats the first row as the header.
func ParseTable(table [][]string) ([]domain.QuestionRecord, error) {
	if len(table) == 0 {
		return nil, domain.ErrEmptyBank
	}
	return Parse(table[0], table[1:])
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
