package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/thindery/pantry-pal-api-sub000/internal/config"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		StorageBackend: config.BackendSQLite,
		SQLitePath:     ":memory:",
	}
}

func TestManager_InitAndClose(t *testing.T) {
	m := NewManager(sqliteConfig(), zerolog.Nop())
	ctx := context.Background()

	s, err := m.Init(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s == nil {
		t.Fatal("nil store")
	}

	got, err := m.Store()
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Error("Store returned a different handle")
	}

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Store(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Store after Close = %v, want ErrNotInitialized", err)
	}
}

func TestManager_DoubleInit(t *testing.T) {
	m := NewManager(sqliteConfig(), zerolog.Nop())
	ctx := context.Background()

	if _, err := m.Init(ctx); err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	if _, err := m.Init(ctx); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init = %v, want ErrAlreadyInitialized", err)
	}
}

func TestManager_ReinitAfterClose(t *testing.T) {
	m := NewManager(sqliteConfig(), zerolog.Nop())
	ctx := context.Background()

	if _, err := m.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Init(ctx); err != nil {
		t.Fatalf("re-Init after Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestManager_UnknownBackend(t *testing.T) {
	m := NewManager(&config.Config{StorageBackend: "oracle"}, zerolog.Nop())

	if _, err := m.Init(context.Background()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestManager_CloseWithoutInit(t *testing.T) {
	m := NewManager(sqliteConfig(), zerolog.Nop())
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
}
