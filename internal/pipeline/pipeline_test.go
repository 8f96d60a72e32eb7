package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mp4creator/internal/config"
	"mp4creator/internal/history"
	"mp4creator/internal/media/ffmpeg"
	"mp4creator/internal/notifications"
	"mp4creator/internal/preflight"
	"mp4creator/internal/services"
	"mp4creator/internal/services/drive"
	"mp4creator/internal/services/giphy"
	"mp4creator/internal/subtitles"
	"mp4creator/internal/tts"
)

type fakeRenderer struct {
	mu     sync.Mutex
	voices []string
	fail   string
}

func (f *fakeRenderer) Render(_ context.Context, req tts.Request) ([]byte, error) {
	f.mu.Lock()
	f.voices = append(f.voices, req.Voice)
	f.mu.Unlock()
	if f.fail != "" && strings.Contains(req.Text, f.fail) {
		return nil, errors.New("voice rejected")
	}
	return []byte("ID3" + req.Text), nil
}

// fakeProber reports one second per segment and total for anything else.
type fakeProber struct {
	total float64
}

func (f fakeProber) Duration(_ context.Context, path string) (float64, error) {
	if strings.HasPrefix(filepath.Base(path), "seg-") {
		return 1.0, nil
	}
	return f.total, nil
}

// recorder stands in for ffmpeg by touching the final argument.
type recorder struct {
	mu    sync.Mutex
	calls [][]string
	fail  func(args []string) bool
}

func (r *recorder) run(_ context.Context, _ string, args ...string) error {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string(nil), args...))
	r.mu.Unlock()
	if r.fail != nil && r.fail(args) {
		return &ffmpeg.ToolError{Tool: "ffmpeg", Stderr: "Invalid data found", Err: errors.New("exit status 1")}
	}
	return os.WriteFile(args[len(args)-1], []byte("media"), 0o644)
}

func (r *recorder) count(substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, call := range r.calls {
		if strings.Contains(strings.Join(call, " "), substr) {
			n++
		}
	}
	return n
}

type memoryHistory struct {
	records []history.Record
}

func (m *memoryHistory) Add(_ context.Context, rec history.Record) error {
	m.records = append(m.records, rec)
	return nil
}

type fakeNotifier struct {
	completed []notifications.Completion
	failed    []error
}

func (f *fakeNotifier) NotifyConversionCompleted(_ context.Context, c notifications.Completion) error {
	f.completed = append(f.completed, c)
	return nil
}

func (f *fakeNotifier) NotifyConversionFailed(_ context.Context, _ string, err error) error {
	f.failed = append(f.failed, err)
	return nil
}

func (f *fakeNotifier) TestNotification(context.Context) error { return nil }

type fakeImages struct {
	hits map[string]string
}

func (f fakeImages) Enabled() bool { return true }

func (f fakeImages) Search(_ context.Context, query string) ([]giphy.Image, error) {
	if url, ok := f.hits[query]; ok {
		return []giphy.Image{{ID: query, URL: url}}, nil
	}
	return nil, nil
}

type fakeUploader struct {
	uploaded []string
	err      error
}

func (f *fakeUploader) Upload(_ context.Context, path string) (drive.File, error) {
	f.uploaded = append(f.uploaded, path)
	if f.err != nil {
		return drive.File{}, f.err
	}
	return drive.File{ID: "file-1", Name: filepath.Base(path), Link: "https://drive.example/file-1"}, nil
}

type harness struct {
	cfg      *config.Config
	ffmpeg   *recorder
	renderer *fakeRenderer
	history  *memoryHistory
	notifier *fakeNotifier
	opts     Options
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Synthesis.Concurrency = 2

	h := &harness{
		cfg:      &cfg,
		ffmpeg:   &recorder{},
		renderer: &fakeRenderer{},
		history:  &memoryHistory{},
		notifier: &fakeNotifier{},
	}
	h.opts = Options{
		Config:   h.cfg,
		Renderer: h.renderer,
		Prober:   fakeProber{total: 2.5},
		Tool:     ffmpeg.Tool{Binary: "ffmpeg", Run: h.ffmpeg.run},
		History:  h.history,
		Notifier: h.notifier,
	}
	return h
}

func (h *harness) pipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(h.opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected %s to be empty, found %v", dir, names)
	}
}

func TestConvertVideoWritesArtifactsAndCleansScratch(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	output := filepath.Join(h.cfg.Paths.OutputDir, "intro.mp4")

	result, err := p.Convert(context.Background(), Request{
		Script: "안녕하세요\n[PAUSE:0.5]\n[VOICE:여자1]반갑습니다",
		Source: "intro.txt",
		Output: output,
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.Output != output || result.Mode != ModeVideo || result.Segments != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Duration != 2.5 {
		t.Fatalf("expected measured duration 2.5, got %v", result.Duration)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected video at %s: %v", output, err)
	}
	srt, err := os.ReadFile(SubtitlePath(output))
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	entries, err := subtitles.Parse(string(srt))
	if err != nil {
		t.Fatalf("parse srt: %v", err)
	}
	if len(entries) != 2 || entries[1].Text != "반갑습니다" || entries[1].Start != 1.5 {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if h.renderer.voices[0] == h.renderer.voices[1] {
		t.Fatalf("voice directive not applied: %v", h.renderer.voices)
	}
	if _, err := os.Stat(output + ".lock"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected lock file removed, stat err=%v", err)
	}
	assertEmptyDir(t, h.cfg.Paths.WorkDir)

	if len(h.history.records) != 1 || h.history.records[0].Outcome != services.OutcomeSucceeded {
		t.Fatalf("unexpected history %+v", h.history.records)
	}
	if len(h.notifier.completed) != 1 || h.notifier.completed[0].Output != output {
		t.Fatalf("unexpected notifications %+v", h.notifier.completed)
	}
}

func TestConvertAudioModeSkipsComposition(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	output := filepath.Join(h.cfg.Paths.OutputDir, "narration.mp3")

	result, err := p.Convert(context.Background(), Request{Script: "하나\n둘", Output: output, Mode: ModeAudio})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.Subtitles != SubtitlePath(output) {
		t.Fatalf("unexpected subtitle path %q", result.Subtitles)
	}
	if n := h.ffmpeg.count("-filter_complex_script"); n != 0 {
		t.Fatalf("audio mode must not compose video, saw %d compose calls", n)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected audio at %s: %v", output, err)
	}
}

func TestConvertSubtitlesModeWritesOnlySRT(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)

	result, err := p.Convert(context.Background(), Request{Script: "첫 줄\n[PAUSE:1]\n둘째 줄", Source: "/scripts/ep1.txt", Mode: ModeSubtitles})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := filepath.Join(h.cfg.Paths.OutputDir, "ep1.srt")
	if result.Output != want || result.Subtitles != want {
		t.Fatalf("unexpected result %+v", result)
	}
	if n := h.ffmpeg.count("-f concat"); n != 0 {
		t.Fatalf("subtitles mode must not join audio, saw %d", n)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.Contains(string(data), "00:00:02,000 --> 00:00:03,000") {
		t.Fatalf("pause not reflected in cue timing:\n%s", data)
	}
}

func TestConvertRejectsEmptyInput(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)

	_, err := p.Convert(context.Background(), Request{Script: "[PAUSE:1]\n[VOICE:남자1]"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := services.Outcome(err); got != services.OutcomeRejected {
		t.Fatalf("expected rejected outcome, got %s", got)
	}
	if len(h.notifier.failed) != 1 {
		t.Fatalf("expected one failure notification, got %d", len(h.notifier.failed))
	}
	assertEmptyDir(t, h.cfg.Paths.WorkDir)
}

func TestConvertSynthesisFailureCleansUp(t *testing.T) {
	h := newHarness(t)
	h.renderer.fail = "둘"
	p := h.pipeline(t)
	output := filepath.Join(h.cfg.Paths.OutputDir, "broken.mp4")

	_, err := p.Convert(context.Background(), Request{Script: "하나\n둘\n셋", Output: output})
	var synthErr *tts.SynthesisError
	if !errors.As(err, &synthErr) || !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected synthesis error tagged as external tool, got %v", err)
	}
	if _, err := os.Stat(output); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no output expected after failure, stat err=%v", err)
	}
	assertEmptyDir(t, h.cfg.Paths.WorkDir)
	if h.history.records[0].Outcome != services.OutcomeFailed || h.history.records[0].Error == "" {
		t.Fatalf("unexpected history record %+v", h.history.records[0])
	}
}

func TestConvertCompositionFailureLeavesNoOutput(t *testing.T) {
	h := newHarness(t)
	h.ffmpeg.fail = func(args []string) bool {
		return strings.Contains(strings.Join(args, " "), "-filter_complex_script")
	}
	p := h.pipeline(t)
	output := filepath.Join(h.cfg.Paths.OutputDir, "fail.mp4")

	_, err := p.Convert(context.Background(), Request{Script: "하나", Output: output})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if _, err := os.Stat(output); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no output expected, stat err=%v", err)
	}
	if _, err := os.Stat(SubtitlePath(output)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no subtitles expected, stat err=%v", err)
	}
	assertEmptyDir(t, h.cfg.Paths.WorkDir)
}

func TestConvertRefusesLockedOutput(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	output := filepath.Join(h.cfg.Paths.OutputDir, "busy.mp4")

	held, err := acquireOutputLock(output)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer held.release(p.logger)

	_, err = p.Convert(context.Background(), Request{Script: "하나", Output: output})
	if !errors.Is(err, ErrOutputBusy) {
		t.Fatalf("expected ErrOutputBusy, got %v", err)
	}
}

func TestConvertCanceledContext(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Convert(ctx, Request{Script: "하나\n둘"})
	if !errors.Is(err, services.ErrCanceled) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if got := h.history.records[0].Outcome; got != services.OutcomeCanceled {
		t.Fatalf("expected canceled outcome recorded, got %s", got)
	}
	assertEmptyDir(t, h.cfg.Paths.WorkDir)
}

func TestConvertPreflightFailureStopsEarly(t *testing.T) {
	h := newHarness(t)
	h.opts.Preflight = func(context.Context) []preflight.Result {
		return []preflight.Result{{Name: "TTS service", Detail: "missing url"}}
	}
	p := h.pipeline(t)

	_, err := p.Convert(context.Background(), Request{Script: "하나"})
	if !errors.Is(err, services.ErrConfiguration) || !strings.Contains(err.Error(), "TTS service: missing url") {
		t.Fatalf("expected preflight configuration error, got %v", err)
	}
	if len(h.renderer.voices) != 0 {
		t.Fatal("no synthesis expected after a failed preflight")
	}
}

func TestConvertDownloadsImagesAndSkipsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.gif") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("GIF89a"))
	}))
	defer srv.Close()

	h := newHarness(t)
	h.opts.Images = fakeImages{hits: map[string]string{"고양이": srv.URL + "/cat.gif"}}
	h.opts.Fetcher = srv.Client()
	p := h.pipeline(t)

	script := fmt.Sprintf("[검색어:고양이]안녕\n[검색어:없음]둘\n[GIPHY_URL:%s/missing.gif]셋\n[GOOGLE_URL:%s/dog.png]넷", srv.URL, srv.URL)
	result, err := p.Convert(context.Background(), Request{Script: script})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.Assets != 2 {
		t.Fatalf("expected 2 downloaded assets, got %d", result.Assets)
	}
	if n := h.ffmpeg.count("img-000.gif"); n == 0 {
		t.Fatal("expected the search hit to reach the composer")
	}
	if n := h.ffmpeg.count("img-002.png"); n == 0 {
		t.Fatal("expected the direct url to reach the composer")
	}
}

func TestConvertExternalAudioComposesFromSRT(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	dir := t.TempDir()
	narration := filepath.Join(dir, "voice.mp3")
	srt := filepath.Join(dir, "voice.srt")
	if err := os.WriteFile(narration, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := subtitles.Format([]subtitles.Entry{{Text: "하나", Start: 0, End: 1}, {Text: "둘", Start: 1, End: 2.5}})
	if err := os.WriteFile(srt, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := p.Convert(context.Background(), Request{ExternalAudio: narration, ExternalSubtitles: srt})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.Duration != 2.5 || result.Segments != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(h.renderer.voices) != 0 {
		t.Fatal("external audio must not synthesize")
	}
	if n := h.ffmpeg.count(narration); n == 0 {
		t.Fatal("expected the external narration to be muxed")
	}
}

func TestConvertUploadsWhenRequested(t *testing.T) {
	h := newHarness(t)
	uploader := &fakeUploader{}
	h.opts.Uploader = uploader
	p := h.pipeline(t)

	result, err := p.Convert(context.Background(), Request{Script: "하나", Upload: true})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(uploader.uploaded) != 1 || uploader.uploaded[0] != result.Output {
		t.Fatalf("unexpected uploads %v", uploader.uploaded)
	}
	if h.history.records[0].DriveFileID != "file-1" || h.notifier.completed[0].Link == "" {
		t.Fatalf("drive result not propagated: %+v / %+v", h.history.records[0], h.notifier.completed[0])
	}
}

func TestConvertUploadWithoutCredentials(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	_, err := p.Convert(context.Background(), Request{Script: "하나", Upload: true})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		err  bool
	}{
		{"", ModeVideo, false},
		{"VIDEO", ModeVideo, false},
		{"audio", ModeAudio, false},
		{"srt", ModeSubtitles, false},
		{"gif", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Fatalf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestHistoryTimestampsUseClock(t *testing.T) {
	h := newHarness(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var ticks int
	h.opts.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}
	p := h.pipeline(t)
	if _, err := p.Convert(context.Background(), Request{Script: "하나", Mode: ModeSubtitles}); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	rec := h.history.records[0]
	if !rec.FinishedAt.After(rec.StartedAt) {
		t.Fatalf("expected finished after started, got %v / %v", rec.StartedAt, rec.FinishedAt)
	}
}

func TestConvertSubtitleFailureRemovesVideo(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t)
	output := filepath.Join(h.cfg.Paths.OutputDir, "intro.mp4")
	// A non-empty directory where the sidecar belongs makes the final rename fail.
	blocker := SubtitlePath(output)
	if err := os.MkdirAll(filepath.Join(blocker, "keep"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := p.Convert(context.Background(), Request{Script: "하나\n둘", Output: output})
	if err == nil {
		t.Fatal("expected subtitle stage to fail")
	}
	if h.ffmpeg.count("-filter_complex_script") != 1 {
		t.Fatal("expected the video to be composed before the subtitle stage")
	}
	if _, err := os.Stat(output); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("video must not outlive a failed conversion, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(blocker, "keep")); err != nil {
		t.Fatalf("pre-existing paths must be left alone: %v", err)
	}
	if got := h.history.records[0].Outcome; got != services.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", got)
	}
	assertEmptyDir(t, h.cfg.Paths.WorkDir)
}

func TestConvertUploadFailureRemovesArtifacts(t *testing.T) {
	h := newHarness(t)
	h.opts.Uploader = &fakeUploader{err: errors.New("quota exceeded")}
	p := h.pipeline(t)
	output := filepath.Join(h.cfg.Paths.OutputDir, "upload.mp3")

	result, err := p.Convert(context.Background(), Request{Script: "하나", Output: output, Mode: ModeAudio, Upload: true})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected upload error, got %v", err)
	}
	for _, path := range []string{output, SubtitlePath(output)} {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("%s must be removed after a failed upload, stat err=%v", path, err)
		}
	}
	if result.Subtitles != "" {
		t.Fatalf("failed result should not point at subtitles, got %q", result.Subtitles)
	}
}

func TestConvertExternalAudioSearchesCueMarkers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("GIF89a"))
	}))
	defer srv.Close()

	h := newHarness(t)
	h.opts.Images = fakeImages{hits: map[string]string{"바다": srv.URL + "/sea.gif"}}
	h.opts.Fetcher = srv.Client()
	p := h.pipeline(t)
	dir := t.TempDir()
	narration := filepath.Join(dir, "voice.mp3")
	srt := filepath.Join(dir, "voice.srt")
	if err := os.WriteFile(narration, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := subtitles.Format([]subtitles.Entry{{Text: "[검색어:바다] 파도 소리", Start: 0, End: 2}})
	if err := os.WriteFile(srt, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := p.Convert(context.Background(), Request{ExternalAudio: narration, ExternalSubtitles: srt})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.Assets != 1 || h.ffmpeg.count("img-000.gif") == 0 {
		t.Fatalf("expected the cue keyword to produce a background, got %d assets", result.Assets)
	}
}
