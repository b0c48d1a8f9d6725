package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mmcli/internal/batch"
)

// installFake writes an executable ffmpeg shell script and records every
// invocation's args in argsFile.
func installFake(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	full := "#!/bin/sh\necho \"$@\" > \"" + argsFile + "\"\n" + script
	if err := os.WriteFile(filepath.Join(dir, "ffmpeg"), []byte(full), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return argsFile
}

func recordedArgs(t *testing.T, argsFile string) string {
	t.Helper()
	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	return string(data)
}

func TestTranscode_VideoArgs(t *testing.T) {
	argsFile := installFake(t, `exit 0`)

	runner := NewRunner()
	err := runner.Transcode(context.Background(), "in.webm", "out.mp4", "mp4", Options{
		VideoCodec:   "libx264",
		AudioCodec:   "aac",
		AudioBitrate: "128k",
	})
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}

	args := recordedArgs(t, argsFile)
	for _, want := range []string{"-i in.webm", "-c:v libx264", "-c:a aac", "-b:a 128k", "-f mp4", "out.mp4"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestTranscode_PreserveQualityCopies(t *testing.T) {
	argsFile := installFake(t, `exit 0`)

	runner := NewRunner()
	if err := runner.Transcode(context.Background(), "in.mkv", "out.mp4", "mp4", Options{PreserveQuality: true}); err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	args := recordedArgs(t, argsFile)
	if !strings.Contains(args, "-c copy") {
		t.Errorf("args %q should stream-copy when quality is preserved", args)
	}
}

func TestTranscode_AudioDropsVideoStream(t *testing.T) {
	argsFile := installFake(t, `exit 0`)

	runner := NewRunner()
	if err := runner.Transcode(context.Background(), "in.mp4", "out.m4a", "m4a", Options{AudioBitrate: "192k"}); err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	args := recordedArgs(t, argsFile)
	for _, want := range []string{"-vn", "-c:a aac", "-b:a 192k", "-f ipod"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestTranscode_UnknownFormat(t *testing.T) {
	installFake(t, `exit 0`)

	runner := NewRunner()
	err := runner.Transcode(context.Background(), "in.mp4", "out.xyz", "xyz", Options{})
	if err == nil {
		t.Fatal("expected error for unknown format alias")
	}
	if kind := batch.KindOf(err); kind != batch.KindUnsupportedFormat {
		t.Errorf("kind = %q, want %q", kind, batch.KindUnsupportedFormat)
	}
}

func TestTranscode_ClassifiesStderr(t *testing.T) {
	cases := []struct {
		name   string
		stderr string
		want   batch.ErrorKind
	}{
		{"bad input", "in.bin: Invalid data found when processing input", batch.KindUnsupportedFormat},
		{"missing encoder", "Unknown encoder 'libfoo'", batch.KindCodec},
		{"disk full", "out.mp4: No space left on device", batch.KindIO},
		{"generic", "Conversion failed!", batch.KindCodec},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			installFake(t, `echo "`+tc.stderr+`" >&2; exit 1`)
			runner := NewRunner()
			err := runner.Transcode(context.Background(), "in.mp4", "out.mp4", "mp4", Options{})
			if err == nil {
				t.Fatal("expected error")
			}
			if kind := batch.KindOf(err); kind != tc.want {
				t.Errorf("kind = %q, want %q (err: %v)", kind, tc.want, err)
			}
		})
	}
}

func TestAvailable(t *testing.T) {
	installFake(t, `exit 0`)
	if !NewRunner().Available() {
		t.Error("fake ffmpeg on PATH should be found")
	}
	missing := &Runner{Path: "ffmpeg-definitely-not-installed"}
	if missing.Available() {
		t.Error("nonexistent binary should not be found")
	}
}
