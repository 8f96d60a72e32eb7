package ttshttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mp4creator/internal/services"
	"mp4creator/internal/tts"
)

func TestRenderPostsSpeechRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != speechPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body speechRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Text != "안녕" || body.Voice != "ko-KR-InJoonNeural" || body.Rate != "+40%" {
			t.Errorf("unexpected body %+v", body)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("audio-bytes"))
	}))
	defer server.Close()

	client := New(server.URL+"/", 5*time.Second)
	audio, err := client.Render(context.Background(), tts.Request{Text: "안녕", Voice: "ko-KR-InJoonNeural", Rate: "+40%"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(audio) != "audio-bytes" {
		t.Fatalf("unexpected audio %q", audio)
	}
}

func TestRenderClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		marker error
		detail string
	}{
		{name: "structured client error", status: http.StatusBadRequest, body: `{"detail":"unknown voice","error_code":"E_VOICE"}`, marker: services.ErrExternalTool, detail: "unknown voice (code: E_VOICE)"},
		{name: "plain server error", status: http.StatusBadGateway, body: "upstream down", marker: services.ErrTransient, detail: "upstream down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(server.URL, time.Second).Render(context.Background(), tts.Request{Text: "x", Voice: "v"})
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected marker %v, got %v", tt.marker, err)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Fatalf("expected %q in %v", tt.detail, err)
			}
		})
	}
}

func TestRenderRejectsEmptyAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	if _, err := New(server.URL, time.Second).Render(context.Background(), tts.Request{Text: "x"}); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestHealthCheck(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != healthPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	client := New(server.URL, time.Second)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	healthy.Store(false)
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected unhealthy error")
	}
}
