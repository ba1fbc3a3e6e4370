// Package capture turns spoken input into text: it owns the audio input
// device for the duration of a recording, buffers captured chunks, and hands
// the assembled payload to a transcription provider on stop.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/recallhq/videoindex/internal/speech"
)

var (
	// ErrPermissionDenied is returned (possibly wrapped) by a Source when
	// the user or platform refuses microphone access.
	ErrPermissionDenied = errors.New("capture: microphone access denied")
	// ErrBusy rejects a second recording cycle while one is active.
	ErrBusy = errors.New("capture: a recording is already in progress")
	// ErrNotRecording rejects Stop outside the Recording state.
	ErrNotRecording = errors.New("capture: not recording")
	// ErrNoSpeech means transcription succeeded but produced empty text.
	ErrNoSpeech = errors.New("capture: no speech detected")
	// ErrTranscription wraps provider failures during speech-to-text.
	ErrTranscription = errors.New("capture: transcription failed")
)

// Source acquires the audio input device. The browser-side equivalent is
// getUserMedia + MediaRecorder; tests and native hosts supply their own.
type Source interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream delivers captured audio incrementally. Chunks must be closed
// (channel drained to completion) after Close returns; Close releases the
// underlying device and must be idempotent on the provider side.
type Stream interface {
	Chunks() <-chan []byte
	MimeType() string
	Close() error
}

type State int

const (
	StateIdle State = iota
	StateRecording
	StateTranscribing
)

// TranscriptFunc receives a non-empty transcript for auto-submission.
type TranscriptFunc func(text string)

const defaultSubmitDelay = 500 * time.Millisecond

// Recorder is the recording/transcription state machine:
// Idle → Recording → Transcribing → Idle (with transcript or error).
// Only one cycle may be active at a time.
type Recorder struct {
	source      Source
	transcriber speech.Transcriber
	submitDelay time.Duration

	mu           sync.Mutex
	state        State
	stream       Stream
	chunks       [][]byte
	drained      chan struct{}
	transcript   string
	lastErr      string
	onTranscript TranscriptFunc
	gen          uint64 // invalidates delayed auto-submits and drains
}

func NewRecorder(source Source, transcriber speech.Transcriber) *Recorder {
	return &Recorder{
		source:      source,
		transcriber: transcriber,
		submitDelay: defaultSubmitDelay,
	}
}

// OnTranscript registers the auto-submit hook, fired once per successful
// transcription after a short settle delay.
func (r *Recorder) OnTranscript(fn TranscriptFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onTranscript = fn
}

// WithSubmitDelay overrides the auto-submit settle delay (for testing).
func (r *Recorder) WithSubmitDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d >= 0 {
		r.submitDelay = d
	}
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Transcript returns the last successful transcript.
func (r *Recorder) Transcript() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transcript
}

// Err returns the human-readable message for the last failure, cleared on
// the next Start.
func (r *Recorder) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Start acquires the input device and begins buffering audio. Rejected with
// ErrBusy unless Idle. Acquisition failures leave the recorder Idle with a
// displayable error message.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return ErrBusy
	}
	r.lastErr = ""
	r.mu.Unlock()

	stream, err := r.source.Open(ctx)
	if err != nil {
		r.mu.Lock()
		if errors.Is(err, ErrPermissionDenied) {
			r.lastErr = "Microphone access denied. Please allow microphone access and try again."
		} else {
			r.lastErr = "Recording failed. Please try again."
		}
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	r.state = StateRecording
	r.stream = stream
	r.chunks = nil
	r.gen++
	r.drained = make(chan struct{})
	drained := r.drained
	r.mu.Unlock()

	// Drain incrementally so partial audio survives an abrupt failure.
	go func() {
		defer close(drained)
		for chunk := range stream.Chunks() {
			if len(chunk) == 0 {
				continue
			}
			buf := append([]byte(nil), chunk...)
			r.mu.Lock()
			r.chunks = append(r.chunks, buf)
			r.mu.Unlock()
		}
	}()

	return nil
}

// Stop halts capture, releases the device, and transcribes the buffered
// audio. The device is released on every path; the recorder always returns
// to Idle.
func (r *Recorder) Stop(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return "", ErrNotRecording
	}
	r.state = StateTranscribing
	stream := r.stream
	r.stream = nil
	drained := r.drained
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.state = StateIdle
		r.mu.Unlock()
	}()

	// Release the device first; transcription failure must not leak it.
	closeErr := stream.Close()
	<-drained
	if closeErr != nil {
		r.mu.Lock()
		r.lastErr = "Recording failed. Please try again."
		r.mu.Unlock()
		return "", closeErr
	}

	r.mu.Lock()
	payload := bytes.Join(r.chunks, nil)
	r.chunks = nil
	r.mu.Unlock()

	text, err := r.transcriber.Transcribe(ctx, payload, stream.MimeType())
	if err != nil {
		r.mu.Lock()
		r.lastErr = "Failed to transcribe audio. Please try again."
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		r.mu.Lock()
		r.lastErr = "No speech detected. Please try again."
		r.mu.Unlock()
		return "", ErrNoSpeech
	}

	r.mu.Lock()
	r.transcript = text
	fn := r.onTranscript
	delay := r.submitDelay
	gen := r.gen
	r.mu.Unlock()

	if fn != nil {
		// The delay lets status UI settle before the query fires. The
		// generation check keeps a superseded cycle from double-submitting.
		time.AfterFunc(delay, func() {
			r.mu.Lock()
			current := r.gen == gen
			r.mu.Unlock()
			if current {
				fn(text)
			}
		})
	}

	return text, nil
}

// Close is the teardown path: it stops any active recording and releases the
// device. Safe to call in any state.
func (r *Recorder) Close() error {
	r.mu.Lock()
	stream := r.stream
	r.stream = nil
	r.state = StateIdle
	r.gen++ // invalidate pending auto-submits
	r.mu.Unlock()

	if stream != nil {
		return stream.Close()
	}
	return nil
}
