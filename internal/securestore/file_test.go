package securestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()

	if _, err := store.GetItem(ctx, "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.SetItem(ctx, "token", "tok-1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	value, err := store.GetItem(ctx, "token")
	if err != nil || value != "tok-1" {
		t.Fatalf("expected tok-1, got %q err %v", value, err)
	}

	if err := store.DeleteItem(ctx, "token"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetItem(ctx, "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	ctx := context.Background()

	first, err := NewFile(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := first.SetItem(ctx, "token", "tok-1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	second, err := NewFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	value, err := second.GetItem(ctx, "token")
	if err != nil || value != "tok-1" {
		t.Fatalf("expected persisted value, got %q err %v", value, err)
	}
}

func TestFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := store.SetItem(context.Background(), "token", "tok-1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
}

func TestFileDeleteAbsentKey(t *testing.T) {
	store, err := NewFile(filepath.Join(t.TempDir(), "secrets.json"))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := store.DeleteItem(context.Background(), "missing"); err != nil {
		t.Fatalf("deleting an absent key must not fail: %v", err)
	}
}
