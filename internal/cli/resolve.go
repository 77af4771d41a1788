package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tOgg1/busview/internal/config"
	"github.com/tOgg1/busview/internal/db"
	"github.com/tOgg1/busview/internal/models"
)

const maxSuggestions = 5

func shortID(id string) string {
	const limit = 8
	if len(id) <= limit {
		return id
	}
	return id[:limit]
}

// findCapture looks a capture up by full ID, then by ID prefix or name.
func findCapture(ctx context.Context, repo *db.CaptureRepository, ref string) (*models.Capture, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, errors.New("capture name or ID required")
	}

	capture, err := repo.Get(ctx, ref)
	if err == nil {
		return capture, nil
	}
	if !errors.Is(err, db.ErrCaptureNotFound) {
		return nil, fmt.Errorf("failed to get capture: %w", err)
	}

	captures, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list captures: %w", err)
	}

	matches := matchCaptures(captures, ref)
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("capture '%s' is ambiguous; matches: %s (use a longer prefix or full ID)", ref, formatCaptureMatches(matches))
	}
	if len(captures) == 0 {
		return nil, fmt.Errorf("capture '%s' not found (no captures imported yet)", ref)
	}

	example := fmt.Sprintf("Example input: '%s' or '%s'", captures[0].Name, shortID(captures[0].ID))
	return nil, fmt.Errorf("capture '%s' not found. %s", ref, example)
}

// matchCaptures returns captures whose ID starts with query, or whose name
// equals it ignoring case. An exact name match wins over prefixes.
func matchCaptures(captures []*models.Capture, query string) []*models.Capture {
	query = strings.TrimSpace(query)
	normalized := strings.ToLower(query)
	if normalized == "" {
		return nil
	}

	var exact, prefix []*models.Capture
	for _, c := range captures {
		if c == nil {
			continue
		}
		name := strings.ToLower(c.Name)
		switch {
		case name == normalized:
			exact = append(exact, c)
		case strings.HasPrefix(c.ID, query) || strings.HasPrefix(name, normalized):
			prefix = append(prefix, c)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return prefix
}

func formatCaptureMatches(captures []*models.Capture) string {
	return formatMatchList(len(captures), func(i int) string {
		return fmt.Sprintf("%s (%s)", captures[i].Name, shortID(captures[i].ID))
	})
}

func formatMatchList(count int, format func(int) string) string {
	if count == 0 {
		return "none"
	}

	limit := min(count, maxSuggestions)
	parts := make([]string, 0, limit+1)
	for i := 0; i < limit; i++ {
		parts = append(parts, format(i))
	}
	if count > maxSuggestions {
		parts = append(parts, fmt.Sprintf("... and %d more", count-maxSuggestions))
	}

	return strings.Join(parts, ", ")
}

// ResolvedCapture is the capture a command operates on.
type ResolvedCapture struct {
	Capture *models.Capture
	Source  string // "flag", "stored" or "latest"
}

// ResolveCapture picks a capture using the priority order:
// 1. Explicit flag (if provided)
// 2. Stored context from `busview use`
// 3. The most recently imported capture
func ResolveCapture(ctx context.Context, repo *db.CaptureRepository, store *config.ContextStore, explicitFlag string) (*ResolvedCapture, error) {
	if explicitFlag != "" {
		capture, err := findCapture(ctx, repo, explicitFlag)
		if err != nil {
			return nil, err
		}
		return &ResolvedCapture{Capture: capture, Source: "flag"}, nil
	}

	if store != nil {
		stored, err := store.Load()
		if err == nil && stored.HasCapture() {
			capture, err := repo.Get(ctx, stored.CaptureID)
			if err == nil {
				return &ResolvedCapture{Capture: capture, Source: "stored"}, nil
			}
			// Capture was removed, ignore stored context
		}
	}

	capture, err := repo.Latest(ctx)
	if err != nil {
		if errors.Is(err, db.ErrCaptureNotFound) {
			return nil, errors.New("no captures imported yet (run 'busview import --csv FILE')")
		}
		return nil, err
	}
	return &ResolvedCapture{Capture: capture, Source: "latest"}, nil
}

// resolveSymbolsPath picks the symbol file: flag, stored context, then config.
func resolveSymbolsPath(store *config.ContextStore, cfg *config.Config, explicitFlag string) string {
	if explicitFlag != "" {
		return explicitFlag
	}
	if store != nil {
		if stored, err := store.Load(); err == nil && stored.SymbolsPath != "" {
			return stored.SymbolsPath
		}
	}
	if cfg != nil {
		return cfg.Symbols.Path
	}
	return ""
}
