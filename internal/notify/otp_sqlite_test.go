package notify

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newSQLiteOTPStore(t *testing.T) *SQLiteOTPStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := NewSQLiteOTPStore(db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestSQLiteOTPStore_SingleUse(t *testing.T) {
	store := newSQLiteOTPStore(t)
	ctx := context.Background()
	expires := time.Now().Add(10 * time.Minute)

	if err := store.Save(ctx, "head@school.edu", "483920", expires); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Consume(ctx, "head@school.edu", "111111"); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("wrong code: expected mismatch, got %v", err)
	}
	// A wrong attempt keeps the code valid.
	if err := store.Consume(ctx, "head@school.edu", "483920"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := store.Consume(ctx, "head@school.edu", "483920"); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("second consume must fail, got %v", err)
	}
}

func TestSQLiteOTPStore_ReissueInvalidatesOlderCode(t *testing.T) {
	store := newSQLiteOTPStore(t)
	ctx := context.Background()
	expires := time.Now().Add(10 * time.Minute)

	if err := store.Save(ctx, "head@school.edu", "111111", expires); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, "head@school.edu", "222222", expires); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Only the newest row per destination is verifiable.
	if err := store.Consume(ctx, "head@school.edu", "111111"); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("old code must not verify, got %v", err)
	}
	if err := store.Consume(ctx, "head@school.edu", "222222"); err != nil {
		t.Fatalf("newest code: %v", err)
	}
}

func TestSQLiteOTPStore_Expiry(t *testing.T) {
	store := newSQLiteOTPStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "head@school.edu", "483920", time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("save: %v", err)
	}
	store.clock = func() time.Time { return time.Now().Add(11 * time.Minute) }

	if err := store.Consume(ctx, "head@school.edu", "483920"); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expired code must fail, got %v", err)
	}
}
