package ffprobe

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{{Duration: "1.5"}, {Duration: "2.25"}, {Duration: "bad"}},
		Format:  Format{Duration: "N/A"},
	}
	if got := result.DurationSeconds(); got != 2.25 {
		t.Fatalf("expected longest stream duration, got %v", got)
	}
	if bad := (Result{Format: Format{Duration: "nope"}}).DurationSeconds(); !math.IsNaN(bad) {
		t.Fatalf("expected NaN for unparseable duration, got %v", bad)
	}
}

func TestProberDurationUsesRunner(t *testing.T) {
	var gotName string
	var gotArgs []string
	prober := NewProber("/opt/ffprobe").WithRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte(`{"streams":[{"codec_type":"audio","duration":"1.704000"}],"format":{"duration":"1.704000"}}`), nil
	})

	seconds, err := prober.Duration(context.Background(), "/tmp/seg-0001.mp3")
	if err != nil {
		t.Fatalf("Duration returned error: %v", err)
	}
	if seconds != 1.704 {
		t.Fatalf("unexpected duration %v", seconds)
	}
	if gotName != "/opt/ffprobe" {
		t.Fatalf("unexpected binary %q", gotName)
	}
	if !slices.Contains(gotArgs, "-show_format") || gotArgs[len(gotArgs)-1] != "/tmp/seg-0001.mp3" {
		t.Fatalf("unexpected args %v", gotArgs)
	}
}

func TestProberDurationRejectsEmptyAudio(t *testing.T) {
	prober := NewProber("").WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"streams":[],"format":{"duration":"0.000000"}}`), nil
	})
	if _, err := prober.Duration(context.Background(), "x.mp3"); err == nil {
		t.Fatal("expected error for zero duration")
	}
}

func TestProberPropagatesRunnerErrors(t *testing.T) {
	boom := errors.New("exit status 1: Invalid data found")
	prober := NewProber("").WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, boom
	})
	_, err := prober.Inspect(context.Background(), "broken.mp3")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
	if !strings.Contains(err.Error(), "broken.mp3") {
		t.Fatalf("expected path in error, got %v", err)
	}
	if _, err := prober.Inspect(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
