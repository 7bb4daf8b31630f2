package store

import (
	"context"
	"testing"
	"time"
)

func appendEntry(t *testing.T, s *Store, name, message string, ts time.Time) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx *Tx) error {
		return tx.AppendLog(name, message, ts, "")
	})
	if err != nil {
		t.Fatalf("append %q failed: %v", message, err)
	}
}

func TestLog_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	appendEntry(t, s, "firefly", "test2", now.Add(-24*time.Hour))
	appendEntry(t, s, "fireflash", "test1", now)

	entries, err := s.FindAllLogs(context.Background())
	if err != nil {
		t.Fatalf("FindAllLogs failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, expected 2", len(entries))
	}
	if entries[0].Message != "test1" {
		t.Errorf("newest entry is %q, expected test1", entries[0].Message)
	}
	if !entries[0].Date.Equal(now) {
		t.Errorf("timestamp changed in round trip: %v", entries[0].Date)
	}
}

func TestLog_Range(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	appendEntry(t, s, "firefly", "old", now.Add(-24*time.Hour))
	appendEntry(t, s, "fireflash", "recent", now)

	entries, err := s.FindLogRange(context.Background(), now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("FindLogRange failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, expected 1", len(entries))
	}
	if entries[0].Message != "recent" {
		t.Errorf("got %q, expected recent", entries[0].Message)
	}
}

func TestLog_RangeInclusive(t *testing.T) {
	s := openTestStore(t)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	appendEntry(t, s, "fireflash", "edge", ts)

	entries, err := s.FindLogRange(context.Background(), ts, ts)
	if err != nil {
		t.Fatalf("FindLogRange failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("boundary timestamp excluded from range")
	}
}

func TestLog_SameTimestampOrderedByInsert(t *testing.T) {
	s := openTestStore(t)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	appendEntry(t, s, "fireflash", "first", ts)
	appendEntry(t, s, "fireflash", "second", ts)

	entries, err := s.FindAllLogs(context.Background())
	if err != nil {
		t.Fatalf("FindAllLogs failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, expected 2", len(entries))
	}
	// ties break newest-insert first
	if entries[0].Message != "second" {
		t.Errorf("tie-break order wrong: %q first", entries[0].Message)
	}
}

func TestLog_SurvivesEntityDeletion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *Tx) error {
		item, err := tx.CreateItem("fireflash")
		if err != nil {
			return err
		}
		if err := tx.AppendLog("fireflash", "Item created", time.Now(), "op-1"); err != nil {
			return err
		}
		return tx.DeleteItem(item.ID)
	})
	if err != nil {
		t.Fatalf("tx failed: %v", err)
	}

	entries, err := s.FindAllLogs(ctx)
	if err != nil {
		t.Fatalf("FindAllLogs failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("log entry lost with its entity: %d entries", len(entries))
	}
}
