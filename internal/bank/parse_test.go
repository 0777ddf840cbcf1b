package bank

import (
	"errors"
	"reflect"
	"testing"

	"quiz-arena/internal/domain"
)

func TestParseCollectsAlternativesFromAllColumns(t *testing.T) {
	header := []string{"Pergunta", "A", "Resposta", "B", "", "Notes"}
	rows := [][]string{
		{"Capital of France?", "Rome", "Paris", "Madrid", "ignored", " Lyon "},
		{"", "", "", "", "", ""},
		{"2 + 2?", "", "4", "5"},
	}

	got, err := Parse(header, rows)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []domain.QuestionRecord{
		{Prompt: "Capital of France?", CorrectAnswer: "Paris", Alternatives: []string{"Rome", "Madrid", "Lyon"}},
		{Prompt: "2 + 2?", CorrectAnswer: "4", Alternatives: []string{"5"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected records:\n got %+v\nwant %+v", got, want)
	}
}

func TestParseEnglishHeaders(t *testing.T) {
	got, err := ParseTable([][]string{
		{"question", "Correct_Answer", "option1"},
		{"Sky colour?", "blue", "green"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 1 || got[0].CorrectAnswer != "blue" {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		table [][]string
		want  error
	}{
		{name: "empty table", table: nil, want: domain.ErrEmptyBank},
		{name: "no prompt column", table: [][]string{{"Resposta", "A"}}, want: domain.ErrMissingColumn},
		{name: "no answer column", table: [][]string{{"Pergunta", "A"}}, want: domain.ErrMissingColumn},
		{name: "only blank rows", table: [][]string{{"Pergunta", "Resposta"}, {" ", ""}}, want: domain.ErrEmptyBank},
		{name: "row without answer", table: [][]string{{"Pergunta", "Resposta", "A"}, {"Why?", "", "because"}}, want: domain.ErrMalformedRow},
		{name: "row without prompt", table: [][]string{{"Pergunta", "Resposta"}, {"", "42"}}, want: domain.ErrMalformedRow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseTable(tc.table); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
