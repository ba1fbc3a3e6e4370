package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ElevenLabs talks to the ElevenLabs speech-to-text and text-to-speech APIs.
type ElevenLabs struct {
	BaseURL  string
	APIKey   string
	VoiceID  string
	STTModel string
	TTSModel string
	Client   *http.Client
}

func NewElevenLabs(baseURL, apiKey, voiceID string) *ElevenLabs {
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}
	if voiceID == "" {
		voiceID = "21m00Tcm4TlvDq8ikWAM"
	}
	return &ElevenLabs{
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		APIKey:   apiKey,
		VoiceID:  voiceID,
		STTModel: "scribe_v1",
		TTSModel: "eleven_multilingual_v2",
		Client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type scribeResp struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio payload as a multipart form and returns the
// recognized text. Empty text is a valid result; the caller decides what
// "no speech detected" means.
func (e *ElevenLabs) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("elevenlabs: api key not configured")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio."+audioExtension(mimeType))
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(audio); err != nil {
		return "", err
	}
	if err := mw.WriteField("model_id", e.STTModel); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/v1/speech-to-text", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("elevenlabs: speech-to-text status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var decoded scribeResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	return decoded.Text, nil
}

type ttsReq struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize returns the raw audio stream for the given text. The stream is
// the response body; the caller must close it.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	if e.APIKey == "" {
		return nil, errors.New("elevenlabs: api key not configured")
	}

	b, err := json.Marshal(ttsReq{
		Text:          text,
		ModelID:       e.TTSModel,
		VoiceSettings: voiceSettings{Stability: 0.5, SimilarityBoost: 0.75},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", e.BaseURL, e.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, fmt.Errorf("elevenlabs: text-to-speech status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return resp.Body, nil
}

func audioExtension(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "webm"):
		return "webm"
	case strings.Contains(mimeType, "ogg"):
		return "ogg"
	case strings.Contains(mimeType, "mp4"):
		return "mp4"
	case strings.Contains(mimeType, "mpeg"), strings.Contains(mimeType, "mp3"):
		return "mp3"
	default:
		return "wav"
	}
}
