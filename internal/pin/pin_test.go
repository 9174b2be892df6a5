package pin_test

import (
	"context"
	"errors"
	"testing"

	"ritech/internal/db"
	"ritech/internal/migrate"
	"ritech/internal/pin"
	"ritech/internal/store"
)

func newLock(t *testing.T) *pin.Lock {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pin.New(store.NewSQLite(conn), 4)
}

func TestDefaultPINBeforeFirstSet(t *testing.T) {
	lock := newLock(t)
	ctx := context.Background()
	if err := lock.Verify(ctx, pin.DefaultPIN); err != nil {
		t.Fatalf("default PIN rejected: %v", err)
	}
	if err := lock.Verify(ctx, "0000"); !errors.Is(err, pin.ErrMismatch) {
		t.Fatalf("wrong attempt: %v", err)
	}
}

func TestSetAndVerify(t *testing.T) {
	lock := newLock(t)
	ctx := context.Background()
	if err := lock.Set(ctx, "567890"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := lock.Verify(ctx, "567890"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := lock.Verify(ctx, pin.DefaultPIN); !errors.Is(err, pin.ErrMismatch) {
		t.Fatal("default PIN must stop working once a PIN is set")
	}
}

func TestSetRejectsWeakPINs(t *testing.T) {
	lock := newLock(t)
	ctx := context.Background()
	if err := lock.Set(ctx, "123"); err == nil {
		t.Fatal("short PIN accepted")
	}
	if err := lock.Set(ctx, "12a4"); err == nil {
		t.Fatal("non-numeric PIN accepted")
	}
}

func TestMinLengthFloor(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	lock := pin.New(store.NewSQLite(conn), 1)
	if err := lock.Set(context.Background(), "12"); err == nil {
		t.Fatal("minimum length below 4 must be clamped")
	}
}
