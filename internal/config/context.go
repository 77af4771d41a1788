package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Context is the CLI selection used when a command gets no explicit
// capture or symbol file.
type Context struct {
	// CaptureID is the selected capture.
	CaptureID string `yaml:"capture,omitempty"`
	// CaptureName is the human-readable capture name (for display).
	CaptureName string `yaml:"capture_name,omitempty"`
	// SymbolsPath is the selected symbol file.
	SymbolsPath string `yaml:"symbols,omitempty"`
	// UpdatedAt is when the context was last modified.
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// IsEmpty returns true if no context is set.
func (c *Context) IsEmpty() bool {
	return c.CaptureID == "" && c.SymbolsPath == ""
}

// HasCapture returns true if a capture is selected.
func (c *Context) HasCapture() bool {
	return c.CaptureID != ""
}

// Clear removes all context.
func (c *Context) Clear() {
	c.CaptureID = ""
	c.CaptureName = ""
	c.SymbolsPath = ""
	c.UpdatedAt = time.Now()
}

// SetCapture selects a capture.
func (c *Context) SetCapture(id, name string) {
	c.CaptureID = id
	c.CaptureName = name
	c.UpdatedAt = time.Now()
}

// SetSymbols selects a symbol file.
func (c *Context) SetSymbols(path string) {
	c.SymbolsPath = path
	c.UpdatedAt = time.Now()
}

// String returns a human-readable representation of the context.
func (c *Context) String() string {
	if c.IsEmpty() {
		return "(none)"
	}
	capture := c.CaptureName
	if capture == "" {
		capture = shortID(c.CaptureID)
	}
	if c.SymbolsPath == "" {
		return capture
	}
	return fmt.Sprintf("%s [%s]", capture, filepath.Base(c.SymbolsPath))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ContextStore manages loading and saving context.
type ContextStore struct {
	path string
	mu   sync.RWMutex
}

// NewContextStore creates a new context store.
// If path is empty, uses the default path (~/.config/busview/context.yaml).
func NewContextStore(path string) *ContextStore {
	if path == "" {
		homeDir, _ := os.UserHomeDir()
		path = filepath.Join(homeDir, ".config", "busview", "context.yaml")
	}
	return &ContextStore{path: path}
}

// Path returns the context file path.
func (s *ContextStore) Path() string {
	return s.path
}

// Load reads the context from disk.
// Returns an empty context if the file doesn't exist.
func (s *ContextStore) Load() (*Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := &Context{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ctx, nil
		}
		return nil, fmt.Errorf("failed to read context file: %w", err)
	}

	if err := yaml.Unmarshal(data, ctx); err != nil {
		return nil, fmt.Errorf("failed to parse context file: %w", err)
	}

	return ctx, nil
}

// Save writes the context to disk.
func (s *ContextStore) Save(ctx *Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create context directory: %w", err)
	}

	data, err := yaml.Marshal(ctx)
	if err != nil {
		return fmt.Errorf("failed to serialize context: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write context file: %w", err)
	}

	return nil
}

// Clear removes the context file.
func (s *ContextStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove context file: %w", err)
	}
	return nil
}
