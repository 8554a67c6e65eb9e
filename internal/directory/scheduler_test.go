package directory

import (
	"context"
	"log/slog"
	"testing"
)

func TestSchedulerRejectsInvalidSchedule(t *testing.T) {
	syncer, _, _, _ := newSyncFixture(t, roster())
	s := NewScheduler(slog.Default(), syncer, "not a schedule")
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected invalid schedule error")
	}
}

func TestSchedulerRegistersNightlyJob(t *testing.T) {
	syncer, _, _, _ := newSyncFixture(t, roster())
	s := NewScheduler(slog.Default(), syncer, "30 3 * * *")
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()
	if s.Entries() != 1 {
		t.Fatalf("expected 1 cron entry, got %d", s.Entries())
	}
}
