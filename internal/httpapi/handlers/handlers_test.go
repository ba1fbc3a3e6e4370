package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/recallhq/videoindex/internal/chat"
	"github.com/recallhq/videoindex/internal/config"
	"github.com/recallhq/videoindex/internal/httpapi"
	"github.com/recallhq/videoindex/internal/httpapi/handlers"
	"github.com/recallhq/videoindex/internal/kb"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSpeech struct {
	transcript string
	transErr   error
}

func (f *fakeSpeech) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return f.transcript, f.transErr
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("mp3:" + text)), nil
}

// newBackend fakes the external knowledge-base API.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/knowledge-bases", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]kb.KnowledgeBase{{
			ID:    "kb1",
			Title: "Orientation Day",
			Image: "/home/azureuser/recallstore/recall-api/../recallhq/thumbs/kb1.png",
		}})
	})
	mux.HandleFunc("/knowledge-bases/kb1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(kb.Detail{
			ID:        "kb1",
			Title:     "Orientation Day",
			VideoPath: "/srv/recallhq/temp/kb1/full.mp4",
		})
	})
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(kb.QueryResult{
			Response:  "The badge desk opens at nine.",
			VideoPath: "/srv/recallhq/temp/kb1/badge.mp4",
			StartTime: 75,
		})
	})
	mux.HandleFunc("/query-feedback", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(kb.FeedbackResponse{Success: true})
	})
	mux.HandleFunc("/feedback", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(kb.FeedbackResponse{Success: true, ID: "fb-1"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestRouter(t *testing.T, sp *fakeSpeech) *gin.Engine {
	t.Helper()
	backend := newBackend(t)
	client := kb.NewClient(backend.URL, backend.URL)
	cfg := config.Config{PublicMediaURL: "https://videoindex.app", QueryMaxResults: 5}
	sessions := chat.NewManager(client, client, cfg.QueryMaxResults)
	h := handlers.NewHandler(cfg, client, client, sessions, sp, nil, nil)
	return httpapi.NewRouter(h)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (body=%s)", err, w.Body.String())
		}
	}
	return w, env
}

func TestPing(t *testing.T) {
	r := newTestRouter(t, &fakeSpeech{})
	w, env := doJSON(t, r, http.MethodGet, "/ping", nil)
	if w.Code != http.StatusOK || env.Code != 0 {
		t.Fatalf("status=%d code=%d", w.Code, env.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}

func TestListKnowledgeBases_RewritesImageURLs(t *testing.T) {
	r := newTestRouter(t, &fakeSpeech{})
	w, env := doJSON(t, r, http.MethodGet, "/knowledge-bases", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var data struct {
		KnowledgeBases []kb.KnowledgeBase `json:"knowledge_bases"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data.KnowledgeBases) != 1 {
		t.Fatalf("got %d knowledge bases", len(data.KnowledgeBases))
	}
	if got := data.KnowledgeBases[0].Image; got != "https://videoindex.app/thumbs/kb1.png" {
		t.Errorf("image url = %q", got)
	}
}

func TestGetKnowledgeBase_RewritesVideoURL(t *testing.T) {
	r := newTestRouter(t, &fakeSpeech{})
	_, env := doJSON(t, r, http.MethodGet, "/knowledge-bases/kb1", nil)
	var data struct {
		KnowledgeBase kb.Detail `json:"knowledge_base"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := data.KnowledgeBase.VideoPath; got != "https://videoindex.app/kb1/full.mp4" {
		t.Errorf("video url = %q", got)
	}
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/sessions", gin.H{"knowledge_base_id": "kb1"})
	if w.Code != http.StatusOK {
		t.Fatalf("create session: status=%d body=%s", w.Code, w.Body.String())
	}
	var data struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return data.SessionID
}

func TestQueryFlow(t *testing.T) {
	r := newTestRouter(t, &fakeSpeech{})
	sid := createSession(t, r)

	w, env := doJSON(t, r, http.MethodPost, "/sessions/"+sid+"/query", gin.H{"query": "when does the badge desk open"})
	if w.Code != http.StatusOK {
		t.Fatalf("query: status=%d body=%s", w.Code, w.Body.String())
	}
	var data struct {
		Message   chat.Message `json:"message"`
		VideoURL  string       `json:"video_url"`
		StartTime float64      `json:"start_time"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Message.Content != "The badge desk opens at nine." {
		t.Errorf("answer = %q", data.Message.Content)
	}
	if data.VideoURL != "https://videoindex.app/kb1/badge.mp4" || data.StartTime != 75 {
		t.Errorf("playback hint = %q @ %v", data.VideoURL, data.StartTime)
	}

	// History holds the question and the finalized answer.
	_, env = doJSON(t, r, http.MethodGet, "/sessions/"+sid+"/messages", nil)
	var hist struct {
		Messages []chat.Message `json:"messages"`
		Awaiting bool           `json:"awaiting"`
	}
	if err := json.Unmarshal(env.Data, &hist); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hist.Messages) != 2 || hist.Awaiting {
		t.Fatalf("history = %+v", hist)
	}

	// Vote on the answer.
	w, _ = doJSON(t, r, http.MethodPost,
		"/sessions/"+sid+"/messages/"+data.Message.ID+"/feedback",
		gin.H{"vote": "positive", "comment": "spot on"})
	if w.Code != http.StatusOK {
		t.Fatalf("feedback: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSubmitQuery_UnknownSession(t *testing.T) {
	r := newTestRouter(t, &fakeSpeech{})
	w, env := doJSON(t, r, http.MethodPost, "/sessions/nope/query", gin.H{"query": "hi"})
	if w.Code != http.StatusNotFound || env.Code != 40402 {
		t.Errorf("status=%d code=%d", w.Code, env.Code)
	}
}

func TestClearAndRemoveSession(t *testing.T) {
	r := newTestRouter(t, &fakeSpeech{})
	sid := createSession(t, r)

	doJSON(t, r, http.MethodPost, "/sessions/"+sid+"/query", gin.H{"query": "anything"})
	if w, _ := doJSON(t, r, http.MethodPost, "/sessions/"+sid+"/clear", nil); w.Code != http.StatusOK {
		t.Fatalf("clear: status=%d", w.Code)
	}
	_, env := doJSON(t, r, http.MethodGet, "/sessions/"+sid+"/messages", nil)
	var hist struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := json.Unmarshal(env.Data, &hist); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hist.Messages) != 0 {
		t.Errorf("history not cleared: %d messages", len(hist.Messages))
	}

	if w, _ := doJSON(t, r, http.MethodDelete, "/sessions/"+sid, nil); w.Code != http.StatusOK {
		t.Fatalf("remove: status=%d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodGet, "/sessions/"+sid+"/messages", nil); w.Code != http.StatusNotFound {
		t.Errorf("removed session still reachable: status=%d", w.Code)
	}
}

func TestTranscribe(t *testing.T) {
	r := newTestRouter(t, &fakeSpeech{transcript: "  hello there  "})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "clip.webm")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("fake-audio"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/speech/transcriptions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var env envelope
	json.Unmarshal(w.Body.Bytes(), &env)
	var data struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Text != "hello there" {
		t.Errorf("text = %q", data.Text)
	}
}

func TestTranscribe_NoSpeech(t *testing.T) {
	r := newTestRouter(t, &fakeSpeech{transcript: "   "})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "clip.webm")
	fw.Write([]byte("silence"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/speech/transcriptions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status=%d, want 422", w.Code)
	}
}

func TestSpeak_StreamsAudio(t *testing.T) {
	r := newTestRouter(t, &fakeSpeech{})
	req := httptest.NewRequest(http.MethodPost, "/speech/speak", strings.NewReader(`{"text":"welcome"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Errorf("content type = %q", got)
	}
	if w.Body.String() != "mp3:welcome" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestArchiveEndpointsWithoutDB(t *testing.T) {
	r := newTestRouter(t, &fakeSpeech{})
	w, env := doJSON(t, r, http.MethodGet, "/exchanges/recent", nil)
	if w.Code != http.StatusServiceUnavailable || env.Code != 50301 {
		t.Errorf("status=%d code=%d", w.Code, env.Code)
	}
}
