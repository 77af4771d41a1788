package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestContext_String(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
		want string
	}{
		{
			name: "empty",
			ctx:  Context{},
			want: "(none)",
		},
		{
			name: "capture with name",
			ctx:  Context{CaptureID: "0f6c1d2e-aaaa", CaptureName: "highway"},
			want: "highway",
		},
		{
			name: "capture without name",
			ctx:  Context{CaptureID: "0f6c1d2e-aaaa"},
			want: "0f6c1d2e",
		},
		{
			name: "capture and symbols",
			ctx:  Context{CaptureID: "abc", CaptureName: "highway", SymbolsPath: "/tmp/car/symbols.yaml"},
			want: "highway [symbols.yaml]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ctx.String(); got != tt.want {
				t.Errorf("Context.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContext_SetCapture(t *testing.T) {
	ctx := &Context{}
	ctx.SetCapture("cap_123", "highway")

	if !ctx.HasCapture() {
		t.Fatal("HasCapture() = false, want true")
	}
	if ctx.CaptureName != "highway" {
		t.Errorf("CaptureName = %v, want highway", ctx.CaptureName)
	}
	if ctx.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}

	ctx.Clear()
	if !ctx.IsEmpty() {
		t.Error("context should be empty after Clear()")
	}
}

func TestContextStore_SaveLoad(t *testing.T) {
	store := NewContextStore(filepath.Join(t.TempDir(), "nested", "context.yaml"))

	ctx := &Context{}
	ctx.SetCapture("cap_abc123", "city")
	ctx.SetSymbols("/data/symbols.yaml")

	if err := store.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.CaptureID != ctx.CaptureID {
		t.Errorf("CaptureID = %v, want %v", loaded.CaptureID, ctx.CaptureID)
	}
	if loaded.CaptureName != ctx.CaptureName {
		t.Errorf("CaptureName = %v, want %v", loaded.CaptureName, ctx.CaptureName)
	}
	if loaded.SymbolsPath != ctx.SymbolsPath {
		t.Errorf("SymbolsPath = %v, want %v", loaded.SymbolsPath, ctx.SymbolsPath)
	}
}

func TestContextStore_LoadEmpty(t *testing.T) {
	store := NewContextStore(filepath.Join(t.TempDir(), "context.yaml"))

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !loaded.IsEmpty() {
		t.Error("Load() should return empty context for non-existent file")
	}
}

func TestContextStore_LoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.yaml")
	if err := os.WriteFile(path, []byte("capture: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewContextStore(path).Load(); err == nil {
		t.Fatal("Load() should fail on malformed yaml")
	}
}

func TestContextStore_Clear(t *testing.T) {
	contextPath := filepath.Join(t.TempDir(), "context.yaml")
	store := NewContextStore(contextPath)

	if err := store.Save(&Context{CaptureID: "cap_abc123"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(contextPath); os.IsNotExist(err) {
		t.Fatal("context file should exist after save")
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := os.Stat(contextPath); !os.IsNotExist(err) {
		t.Error("context file should be removed after clear")
	}

	// Clearing twice is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear() error = %v", err)
	}
}
