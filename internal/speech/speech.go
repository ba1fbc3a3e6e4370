// Package speech holds the speech-to-text and text-to-speech provider
// contracts and their implementations. Providers are external HTTP services;
// nothing here performs recognition or synthesis locally.
package speech

import (
	"context"
	"io"
)

// Transcriber converts a recorded audio payload into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Synthesizer converts text into a playable audio stream. The caller owns the
// returned reader and must close it.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
}

// Provider bundles both directions of speech conversion.
type Provider interface {
	Transcriber
	Synthesizer
}
