// Package ytdl wraps the yt-dlp binary behind the narrow interface the batch
// core needs: fetch one item, list one playlist.
package ytdl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mmcli/internal/batch"
)

type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// Spec narrows what to fetch for one URL. An empty or "highest" resolution
// selects the best available stream.
type Spec struct {
	Kind       MediaKind
	Resolution string
}

// FetchResult describes the downloaded media. Path lives inside TempDir,
// which the engine created for this fetch alone; the caller owns it and
// removes it after moving or transcoding the file.
type FetchResult struct {
	Path    string
	Title   string
	TempDir string
}

type Fetcher interface {
	Fetch(ctx context.Context, url string, spec Spec) (FetchResult, error)
}

type Lister interface {
	Playlist(ctx context.Context, url string) (Playlist, error)
}

type Playlist struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
}

type Entry struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Client shells out to yt-dlp. Path defaults to the binary name so PATH
// lookup applies, which is also what the tests override.
type Client struct {
	Path string
}

func NewClient() *Client {
	return &Client{Path: "yt-dlp"}
}

type DependencyReport struct {
	YTDLPFound  bool   `json:"yt_dlp_found"`
	YTDLPPath   string `json:"yt_dlp_path,omitempty"`
	FFmpegFound bool   `json:"ffmpeg_found"`
	FFmpegPath  string `json:"ffmpeg_path,omitempty"`
}

func DependencyStatus() DependencyReport {
	report := DependencyReport{}
	if path, err := exec.LookPath("yt-dlp"); err == nil {
		report.YTDLPFound = true
		report.YTDLPPath = path
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		report.FFmpegFound = true
		report.FFmpegPath = path
	}
	return report
}

// Fetch downloads one video or audio stream into a fresh temp directory and
// returns the produced file. Failures are classified into the batch error
// taxonomy from yt-dlp's stderr.
func (c *Client) Fetch(ctx context.Context, url string, spec Spec) (FetchResult, error) {
	if strings.TrimSpace(url) == "" {
		return FetchResult{}, batch.NewError(batch.KindValidation, "URL is required")
	}

	tempDir, err := os.MkdirTemp("", "mmcli-fetch-*")
	if err != nil {
		return FetchResult{}, batch.WrapError(batch.KindIO, err, "create temp directory")
	}

	args := []string{
		"--no-playlist",
		"--no-progress",
		"-o", filepath.Join(tempDir, "%(title)s.%(ext)s"),
	}
	args = append(args, formatArgs(spec)...)
	args = append(args, url)

	cmd := exec.CommandContext(ctx, c.Path, args...)
	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(tempDir)
		if ctx.Err() != nil {
			return FetchResult{}, batch.WrapError(batch.KindTimeout, ctx.Err(), "fetch cancelled for %s", url)
		}
		detail := strings.TrimSpace(stderr.String())
		return FetchResult{}, batch.WrapError(classify(detail), err, "yt-dlp failed for %s: %s", url, firstLine(detail))
	}

	path, err := producedFile(tempDir)
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return FetchResult{}, batch.WrapError(batch.KindIO, err, "locate downloaded file for %s", url)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return FetchResult{Path: path, Title: title, TempDir: tempDir}, nil
}

func formatArgs(spec Spec) []string {
	switch spec.Kind {
	case MediaAudio:
		return []string{"-f", "bestaudio/best"}
	default:
		res := strings.TrimSpace(strings.ToLower(spec.Resolution))
		if res == "" || res == "highest" {
			return []string{"-f", "bv*+ba/b"}
		}
		height := strings.TrimSuffix(res, "p")
		return []string{"-f", fmt.Sprintf("bv*[height<=%s]+ba/b[height<=%s]", height, height)}
	}
}

// producedFile picks the completed media file out of the fetch temp
// directory, ignoring partial-download droppings.
func producedFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".ytdl") || strings.HasSuffix(name, ".tmp") {
			continue
		}
		return filepath.Join(dir, e.Name()), nil
	}
	return "", fmt.Errorf("yt-dlp reported success but produced no file in %s", dir)
}

// Playlist fetches flat playlist metadata without downloading any media.
func (c *Client) Playlist(ctx context.Context, url string) (Playlist, error) {
	if strings.TrimSpace(url) == "" {
		return Playlist{}, batch.NewError(batch.KindValidation, "playlist URL is required")
	}

	cmd := exec.CommandContext(ctx, c.Path, "--flat-playlist", "--no-progress", "-J", url)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		return Playlist{}, batch.WrapError(classify(detail), err, "yt-dlp playlist listing failed: %s", firstLine(detail))
	}
	if stdout.Len() == 0 {
		return Playlist{}, batch.NewError(batch.KindNotAvailable, "yt-dlp returned no playlist data for %s", url)
	}

	var pl Playlist
	if err := json.Unmarshal(stdout.Bytes(), &pl); err != nil {
		return Playlist{}, batch.WrapError(batch.KindInternal, err, "parse playlist metadata")
	}

	for i := range pl.Entries {
		if pl.Entries[i].URL == "" && pl.Entries[i].ID != "" {
			pl.Entries[i].URL = "https://www.youtube.com/watch?v=" + pl.Entries[i].ID
		}
	}
	return pl, nil
}

// IsPlaylistURL reports whether a YouTube URL addresses a playlist.
func IsPlaylistURL(url string) bool {
	return strings.Contains(url, "list=")
}

// IsYouTubeURL reports whether mmcli can hand this URL to the extractor.
func IsYouTubeURL(url string) bool {
	return strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be")
}

var restrictedHints = []string{
	"private video",
	"sign in to confirm",
	"age-restricted",
	"age restricted",
	"members-only",
	"not available in your country",
	"who has blocked it",
}

var notAvailableHints = []string{
	"video unavailable",
	"has been removed",
	"no longer available",
	"does not exist",
	"404",
}

var networkHints = []string{
	"429",
	"too many requests",
	"rate limit",
	"timed out",
	"timeout",
	"temporarily unavailable",
	"connection reset",
	"connection refused",
	"service unavailable",
	"network is unreachable",
	"http error 5",
}

// classify maps yt-dlp stderr to an error kind. Anything unrecognized is
// treated as a network failure, the broadest download-side class.
func classify(stderr string) batch.ErrorKind {
	text := strings.ToLower(stderr)
	for _, h := range restrictedHints {
		if strings.Contains(text, h) {
			return batch.KindRestricted
		}
	}
	for _, h := range notAvailableHints {
		if strings.Contains(text, h) {
			return batch.KindNotAvailable
		}
	}
	for _, h := range networkHints {
		if strings.Contains(text, h) {
			return batch.KindNetwork
		}
	}
	return batch.KindNetwork
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
