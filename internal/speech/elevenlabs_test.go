package speech

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestElevenLabs_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/speech-to-text" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model_id"); got != "scribe_v1" {
			t.Errorf("model_id = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "audio.webm" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "fake-audio" {
			t.Errorf("unexpected payload: %q", data)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello world"})
	}))
	defer server.Close()

	e := NewElevenLabs(server.URL, "test-key", "")
	text, err := e.Transcribe(context.Background(), []byte("fake-audio"), "audio/webm;codecs=opus")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q", text)
	}
}

func TestElevenLabs_Transcribe_NoKey(t *testing.T) {
	e := NewElevenLabs("http://unused.invalid", "", "")
	if _, err := e.Transcribe(context.Background(), nil, "audio/webm"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestElevenLabs_Synthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/text-to-speech/") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ttsReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Text != "read this aloud" || req.ModelID == "" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	e := NewElevenLabs(server.URL, "test-key", "voice-1")
	rc, err := e.Synthesize(context.Background(), "read this aloud")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "mp3-bytes" {
		t.Errorf("unexpected audio: %q", data)
	}
}

func TestElevenLabs_Synthesize_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	e := NewElevenLabs(server.URL, "test-key", "voice-1")
	if _, err := e.Synthesize(context.Background(), "x"); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(" ElevenLabs ", func(ctx context.Context) (Provider, error) {
		return NewElevenLabs("", "k", ""), nil
	})

	if _, err := reg.Get(context.Background(), "elevenlabs"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := reg.Get(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestAudioExtension(t *testing.T) {
	tests := map[string]string{
		"audio/webm;codecs=opus": "webm",
		"audio/ogg":              "ogg",
		"audio/mp4":              "mp4",
		"audio/mpeg":             "mp3",
		"":                       "wav",
	}
	for mime, want := range tests {
		if got := audioExtension(mime); got != want {
			t.Errorf("audioExtension(%q) = %q, want %q", mime, got, want)
		}
	}
}
