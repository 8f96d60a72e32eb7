package edgetts

import (
	"context"
	"errors"
	"os"
	"slices"
	"testing"

	"mp4creator/internal/tts"
)

func TestRenderRunsEdgeTTSAndReadsOutput(t *testing.T) {
	dir := t.TempDir()
	var gotArgs []string
	r := New("").WithRunner(func(_ context.Context, name string, args ...string) error {
		if name != DefaultBinary {
			t.Errorf("unexpected binary %q", name)
		}
		gotArgs = args
		return os.WriteFile(args[len(args)-1], []byte("mp3"), 0o644)
	})

	data, err := r.Render(context.Background(), tts.Request{Text: "반갑습니다.", Voice: "ko-KR-SunHiNeural", Rate: "-20%", TempDir: dir})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(data) != "mp3" {
		t.Fatalf("unexpected audio %q", data)
	}
	if !slices.Contains(gotArgs, "--rate=-20%") || !slices.Contains(gotArgs, "반갑습니다.") {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected temp output removed, found %d entries", len(entries))
	}
}

func TestRenderPropagatesFailure(t *testing.T) {
	boom := errors.New("No audio was received")
	r := New("edge").WithRunner(func(context.Context, string, ...string) error { return boom })
	_, err := r.Render(context.Background(), tts.Request{Text: "x", Voice: "bogus", TempDir: t.TempDir()})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if _, err := r.Render(context.Background(), tts.Request{Text: "x", TempDir: t.TempDir()}); err == nil {
		t.Fatal("expected error for empty voice")
	}
}

func TestArgsOmitsEmptyRate(t *testing.T) {
	args := Args(tts.Request{Text: "t", Voice: "v"}, "out.mp3")
	want := []string{"--voice", "v", "--text", "t", "--write-media", "out.mp3"}
	if !slices.Equal(args, want) {
		t.Fatalf("got %v want %v", args, want)
	}
}
