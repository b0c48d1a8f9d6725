package outpath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestResolve_IdenticalNamesStayDistinct(t *testing.T) {
	tmp := t.TempDir()
	r := New(DefaultOptions())
	// freeze the clock so uniqueness must come from the sequence counter
	r.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		p, err := r.Resolve(tmp, "My Track", "mp3")
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if seen[p] {
			t.Fatalf("duplicate path assigned: %s", p)
		}
		seen[p] = true
	}
}

func TestResolve_ConcurrentAssignmentsAreUnique(t *testing.T) {
	tmp := t.TempDir()
	r := New(DefaultOptions())

	const n = 32
	paths := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := r.Resolve(tmp, "same name", "mp4")
			if err != nil {
				t.Errorf("resolve: %v", err)
				return
			}
			paths[i] = p
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, p := range paths {
		if p == "" {
			continue
		}
		if seen[p] {
			t.Fatalf("two workers were assigned %s", p)
		}
		seen[p] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d unique paths, got %d", n, len(seen))
	}
}

func TestResolve_DisambiguatesPreexistingFiles(t *testing.T) {
	tmp := t.TempDir()
	r := New(Options{AddTimestamp: false, Sanitize: true, MaxStemLength: 80})

	occupied := filepath.Join(tmp, "clip.mp4")
	if err := os.WriteFile(occupied, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := r.Resolve(tmp, "clip", "mp4")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p != filepath.Join(tmp, "clip_1.mp4") {
		t.Errorf("path = %s, want clip_1.mp4 disambiguator", p)
	}
}

func TestResolve_CollisionCeiling(t *testing.T) {
	tmp := t.TempDir()
	r := New(Options{AddTimestamp: false, Sanitize: true, MaxStemLength: 80})

	names := []string{"clip.mp4", "clip_1.mp4", "clip_2.mp4", "clip_3.mp4", "clip_4.mp4", "clip_5.mp4"}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(tmp, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	_, err := r.Resolve(tmp, "clip", "mp4")
	if err == nil {
		t.Fatal("expected collision error")
	}
	if !errors.Is(err, ErrCollision) {
		t.Errorf("error = %v, want ErrCollision", err)
	}
}

func TestReplace_ReleasesOldReservation(t *testing.T) {
	tmp := t.TempDir()
	r := New(Options{AddTimestamp: false, Sanitize: true, MaxStemLength: 80})

	first, err := r.Resolve(tmp, "song", "m4a")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Replace(first, tmp, "song", "mp3")
	if err != nil {
		t.Fatal(err)
	}
	if second != filepath.Join(tmp, "song.mp3") {
		t.Errorf("replaced path = %s", second)
	}

	// the old path must be assignable again
	again, err := r.Resolve(tmp, "song", "m4a")
	if err != nil {
		t.Fatal(err)
	}
	if again != first {
		t.Errorf("released path not reusable: got %s, want %s", again, first)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`a/b\c:d*e?f"g<h>i|j`, "a_b_c_d_e_f_g_h_i_j"},
		{"  trimmed  ", "trimmed"},
		{"dots...", "dots"},
		{"///", ""},
		{"ünïcôde ok", "ünïcôde ok"},
	}
	for _, tc := range cases {
		if got := SanitizeName(tc.in, 255); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	long := strings.Repeat("x", 300)
	if got := SanitizeName(long, 80); len([]rune(got)) != 80 {
		t.Errorf("truncated length = %d, want 80", len([]rune(got)))
	}
}

func TestPlaylistDir(t *testing.T) {
	got := PlaylistDir("downloads", "videos", "Road Trip / 2026")
	want := filepath.Join("downloads", "playlist", "videos", "Road Trip _ 2026")
	if got != want {
		t.Errorf("PlaylistDir = %q, want %q", got, want)
	}

	got = PlaylistDir("downloads", "audios", "///")
	want = filepath.Join("downloads", "playlist", "audios", "unknown_playlist")
	if got != want {
		t.Errorf("PlaylistDir fallback = %q, want %q", got, want)
	}
}
