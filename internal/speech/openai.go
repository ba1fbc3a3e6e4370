package speech

import (
	"bytes"
	"context"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI is the alternative provider: whisper-1 transcription and tts-1
// synthesis through the OpenAI-compatible API surface.
type OpenAI struct {
	client *openai.Client
	voice  openai.SpeechVoice
}

func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		voice:  openai.VoiceNova,
	}
}

func (o *OpenAI) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "audio." + audioExtension(mimeType),
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (o *OpenAI) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.TTSModel1,
		Input: text,
		Voice: o.voice,
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
