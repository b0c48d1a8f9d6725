// Package outpath assigns collision-safe destination paths for batch items.
package outpath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrCollision is returned when the disambiguator retry ceiling is exhausted.
var ErrCollision = errors.New("output path collision")

const (
	// DefaultMaxStemLength bounds the sanitized stem so the full file name
	// stays well under common filesystem limits once the timestamp and
	// extension are appended.
	DefaultMaxStemLength = 80

	// maxDiskRetries bounds the numeric disambiguator loop for paths that
	// already exist on disk outside the current batch.
	maxDiskRetries = 5
)

type Options struct {
	AddTimestamp  bool
	Sanitize      bool
	MaxStemLength int
}

func DefaultOptions() Options {
	return Options{AddTimestamp: true, Sanitize: true, MaxStemLength: DefaultMaxStemLength}
}

// Resolver hands out unique output paths within one batch. It is the only
// component besides the result collector that is mutated from multiple
// workers, so every assignment happens under the mutex.
type Resolver struct {
	opts Options

	mu       sync.Mutex
	assigned map[string]struct{}
	seq      int
	now      func() time.Time
}

func New(opts Options) *Resolver {
	if opts.MaxStemLength <= 0 {
		opts.MaxStemLength = DefaultMaxStemLength
	}
	return &Resolver{
		opts:     opts,
		assigned: make(map[string]struct{}),
		now:      time.Now,
	}
}

// Resolve computes and reserves a destination path for one item.
// The shape is {sanitized_stem}_{timestamp}.{ext}; the per-batch sequence
// keeps the timestamp component unique even when two items resolve within
// the same microsecond. Paths that exist on disk (left by earlier runs) get
// a numeric disambiguator, bounded by maxDiskRetries.
func (r *Resolver) Resolve(dir, name, ext string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(dir, name, ext)
}

// Replace releases the reservation for oldPath and resolves a fresh path,
// used when the engine reports a final name or extension that differs from
// the pre-flight assignment.
func (r *Resolver) Replace(oldPath, dir, name, ext string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.assigned, filepath.Clean(oldPath))
	return r.resolveLocked(dir, name, ext)
}

func (r *Resolver) resolveLocked(dir, name, ext string) (string, error) {
	stem := name
	if r.opts.Sanitize {
		stem = SanitizeName(stem, r.opts.MaxStemLength)
	}
	if stem == "" {
		stem = "item"
	}
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")

	base := stem
	if r.opts.AddTimestamp {
		r.seq++
		base = fmt.Sprintf("%s_%s_%06d", stem, r.now().Format("20060102_150405"), r.seq)
	}

	candidate := filepath.Join(dir, withExt(base, ext))
	for i := 0; ; i++ {
		if i > maxDiskRetries {
			return "", fmt.Errorf("%w: no free name for %q in %s after %d attempts", ErrCollision, name, dir, maxDiskRetries)
		}
		if i > 0 {
			candidate = filepath.Join(dir, withExt(fmt.Sprintf("%s_%d", base, i), ext))
		}
		clean := filepath.Clean(candidate)
		if _, taken := r.assigned[clean]; taken {
			continue
		}
		if _, err := os.Stat(clean); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("stat candidate path %s: %w", clean, err)
		}
		r.assigned[clean] = struct{}{}
		return clean, nil
	}
}

func withExt(base, ext string) string {
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// SanitizeName strips characters that are unsafe on common filesystems and
// truncates the result to maxLen runes. Separators collapse to underscores.
func SanitizeName(name string, maxLen int) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|' || r == 0:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		case r < 0x20:
			// control characters are dropped outright
		default:
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	out := strings.Trim(b.String(), " ._")
	runes := []rune(out)
	if maxLen > 0 && len(runes) > maxLen {
		out = strings.Trim(string(runes[:maxLen]), " ._")
	}
	return out
}

// PlaylistDir computes the per-batch shared subfolder for playlist output:
// <base>/playlist/<kind>/<sanitized title>. An empty or fully-stripped title
// falls back to "unknown_playlist", matching what single-item layouts expect.
func PlaylistDir(base, kind, title string) string {
	name := SanitizeName(title, DefaultMaxStemLength)
	if name == "" {
		name = "unknown_playlist"
	}
	return filepath.Join(base, "playlist", kind, name)
}
