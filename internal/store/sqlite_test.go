package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/marketpulse/trendchat/internal/config"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestSQLiteStore_Messages(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	msgs, err := s.ListMessages(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", msgs)
	}

	if err := s.InsertMessage(ctx, Message{Text: "What is the EV market outlook?", Sender: SenderUser}); err != nil {
		t.Fatalf("insert user message: %v", err)
	}
	if err := s.InsertMessage(ctx, Message{Text: "Growing 20% YoY", Sender: SenderBot}); err != nil {
		t.Fatalf("insert bot message: %v", err)
	}

	msgs, err = s.ListMessages(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	seen := map[Sender]string{}
	for _, m := range msgs {
		seen[m.Sender] = m.Text
	}
	if seen[SenderUser] != "What is the EV market outlook?" || seen[SenderBot] != "Growing 20% YoY" {
		t.Fatalf("unexpected messages: %#v", msgs)
	}

	if err := s.DeleteAllMessages(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	msgs, _ = s.ListMessages(ctx)
	if len(msgs) != 0 {
		t.Fatalf("expected empty history after delete, got %d", len(msgs))
	}
}

func TestSQLiteStore_InsertMessageRejectsInvalid(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := s.InsertMessage(ctx, Message{Text: "  ", Sender: SenderUser}); err == nil {
		t.Fatal("expected error for blank text")
	}
	if err := s.InsertMessage(ctx, Message{Text: "hi", Sender: "assistant"}); err == nil {
		t.Fatal("expected error for unknown sender")
	}
	msgs, _ := s.ListMessages(ctx)
	if len(msgs) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(msgs))
	}
}

func TestSQLiteStore_TrendRetention(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := s.InsertTrends(ctx, []TrendItem{
		{Title: "stale", Description: "old", CapturedAt: now.Add(-11 * time.Minute)},
		{Title: "fresh", Description: "new", CapturedAt: now.Add(-1 * time.Minute)},
	})
	if err != nil {
		t.Fatalf("insert trends: %v", err)
	}

	deleted, err := s.DeleteTrendsOlderThan(ctx, now.Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("delete old trends: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	items, err := s.ListTrends(ctx)
	if err != nil {
		t.Fatalf("list trends: %v", err)
	}
	if len(items) != 1 || items[0].Title != "fresh" {
		t.Fatalf("expected only fresh item, got %#v", items)
	}
	if items[0].CapturedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", items[0].CapturedAt.Location())
	}
	if !items[0].CapturedAt.Equal(now.Add(-1 * time.Minute)) {
		t.Fatalf("timestamp not preserved: %v", items[0].CapturedAt)
	}
}

func TestSQLiteStore_InsertTrendsEmpty(t *testing.T) {
	s := newTestSQLiteStore(t)
	if err := s.InsertTrends(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestConnect_SQLite(t *testing.T) {
	cfg := &config.Config{
		StoreBackend:        config.BackendSQLite,
		StoreConnectTimeout: time.Second,
		SQLitePath:          filepath.Join(t.TempDir(), "nested", "chat.db"),
	}
	s, err := Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close(context.Background())

	if _, err := s.ListMessages(context.Background()); err != nil {
		t.Fatalf("store not usable: %v", err)
	}
}

func TestConnect_UnreachableMongo(t *testing.T) {
	cfg := &config.Config{
		StoreBackend:        config.BackendMongo,
		StoreConnectTimeout: 200 * time.Millisecond,
		MongoURI:            "mongodb://127.0.0.1:1/?connect=direct",
		MongoDatabase:       "agent_db",
		MessagesCollection:  "market_research",
		TrendsCollection:    "Google_trend",
	}
	_, err := Connect(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected connection error")
	}
	var connErr *ConnectionError
	if !errors.As(err, &connErr) || connErr.Backend != config.BackendMongo {
		t.Fatalf("expected *ConnectionError for mongo, got %v", err)
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
