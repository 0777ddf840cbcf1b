package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"quiz-arena/internal/domain"
)

func TestResultSinkPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "results.db") + "?mode=rwc"

	sink, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	at := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	record := domain.ResultRecord{
		SessionID: "s-1", Participant: "Ana", Mode: domain.ModeSolo,
		Score: 3, Total: 4, Percentage: 75, ExperiencePoints: 60, Timestamp: at,
	}
	if err := sink.Append(ctx, record); err != nil {
		t.Fatalf("append: %v", err)
	}
	// A retried append for the same session and participant is ignored.
	if err := sink.Append(ctx, record); err != nil {
		t.Fatalf("append duplicate: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	records, err := reopened.ReadAll(ctx)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if !got.Timestamp.Equal(at) {
		t.Fatalf("expected timestamp %v, got %v", at, got.Timestamp)
	}
	got.Timestamp = record.Timestamp
	if got != record {
		t.Fatalf("unexpected record:\n got %+v\nwant %+v", got, record)
	}
}
