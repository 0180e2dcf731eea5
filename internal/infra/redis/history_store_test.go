package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"recertify-fraud-service/internal/domain"
)

func TestHistoryStoreAppendTrimAndExpire(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewHistoryStore(newClient(mr), 3, 90*24*time.Hour)

	for i := 0; i < 5; i++ {
		sub := domain.QuizSubmission{UserID: "u1", QuizID: "quiz-1", Answers: []int{i, i}, TimeSpent: 30, SessionID: "s1"}
		if err := store.Append(ctx, sub); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	items, err := mr.List("fraud:history:u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected list capped at 3, got %d", len(items))
	}
	if ttl := mr.TTL("fraud:history:u1"); ttl != 90*24*time.Hour {
		t.Fatalf("expected retention ttl, got %v", ttl)
	}

	got, err := store.LoadRecent(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].Answers[0] != 3 || got[1].Answers[0] != 4 {
		t.Fatalf("expected two most recent submissions, got %+v", got)
	}
	if got[1].SessionID != "s1" || got[1].TimeSpent != 30 {
		t.Fatalf("fields not round-tripped: %+v", got[1])
	}
}

func TestHistoryStoreUnknownUserIsEmpty(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	got, err := NewHistoryStore(newClient(mr), 0, 0).LoadRecent(context.Background(), "nobody", 10)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %d", len(got))
	}
}

func TestHistoryStoreReportsUnavailableRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	if _, err := NewHistoryStore(client, 0, 0).LoadRecent(context.Background(), "u1", 10); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}

func TestFraudLogStoreNewestFirst(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewFraudLogStore(newClient(mr), 10, time.Hour)
	for i := 1; i <= 3; i++ {
		det := domain.FraudDetection{ID: "d" + string(rune('0'+i)), UserID: "u1", RiskScore: i * 10}
		if err := store.Append(ctx, det); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := store.ListByUser(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].RiskScore != 30 || got[1].RiskScore != 20 {
		t.Fatalf("unexpected detections %+v", got)
	}
	if !mr.Exists("fraud:log:u1") {
		t.Fatalf("expected redis key to be set")
	}
}
