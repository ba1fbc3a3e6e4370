// Package assistant composes the conversational controllers into the flow a
// knowledge-base screen uses: typed or spoken questions in, answers merged
// into history, the player jumped to the answer's moment, and — for voice
// exchanges only — the answer read back aloud.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/recallhq/videoindex/internal/capture"
	"github.com/recallhq/videoindex/internal/chat"
	"github.com/recallhq/videoindex/internal/mediaurl"
	"github.com/recallhq/videoindex/internal/player"
	"github.com/recallhq/videoindex/internal/voice"
)

// Assistant owns the voice-input policy: a question counts as voice input
// only once its transcription succeeded, and only answers to voice input are
// auto-spoken. Typed questions always reset the flag.
type Assistant struct {
	session  *chat.Session
	recorder *capture.Recorder
	speaker  *voice.Speaker
	coord    *player.Coordinator
	mediaURL string
	log      *slog.Logger

	mu         sync.Mutex
	voiceInput bool
}

func New(session *chat.Session, recorder *capture.Recorder, speaker *voice.Speaker, coord *player.Coordinator, mediaURL string, log *slog.Logger) *Assistant {
	if log == nil {
		log = slog.Default()
	}
	a := &Assistant{
		session:  session,
		recorder: recorder,
		speaker:  speaker,
		coord:    coord,
		mediaURL: mediaURL,
		log:      log,
	}

	// Proactive playback: begin loading the answer's video the moment the
	// answer arrives, without waiting for history to render.
	session.OnAnswer(func(videoPath string, startTime float64) {
		coord.JumpTo(mediaurl.PublicVideoURL(mediaURL, videoPath), startTime)
		coord.Play()
	})

	if recorder != nil {
		recorder.OnTranscript(a.submitVoice)
	}

	return a
}

func (a *Assistant) Session() *chat.Session      { return a.session }
func (a *Assistant) Player() *player.Coordinator { return a.coord }

// VoiceInput reports whether the most recent question came in by voice.
func (a *Assistant) VoiceInput() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.voiceInput
}

// AskTyped submits a typed question. Typed input is never auto-spoken.
func (a *Assistant) AskTyped(ctx context.Context, text string) (chat.Message, error) {
	a.mu.Lock()
	a.voiceInput = false
	a.mu.Unlock()
	return a.ask(ctx, text)
}

// StartRecording begins a voice capture cycle.
func (a *Assistant) StartRecording(ctx context.Context) error {
	return a.recorder.Start(ctx)
}

// StopRecording ends capture; a successful transcription auto-submits the
// question through the voice path after the recorder's settle delay.
func (a *Assistant) StopRecording(ctx context.Context) (string, error) {
	return a.recorder.Stop(ctx)
}

// submitVoice runs as the recorder's transcript hook.
func (a *Assistant) submitVoice(text string) {
	a.mu.Lock()
	a.voiceInput = true
	a.mu.Unlock()
	if _, err := a.ask(context.Background(), text); err != nil && !errors.Is(err, chat.ErrQueryFailed) {
		a.log.Warn("voice question not submitted", "error", err)
	}
}

func (a *Assistant) ask(ctx context.Context, text string) (chat.Message, error) {
	msg, err := a.session.Submit(ctx, text)
	if err != nil {
		return msg, err
	}

	if a.VoiceInput() && a.speaker != nil {
		if err := a.speaker.Speak(ctx, msg.Content, uuid.NewString()); err != nil {
			// Playback simply does not start; the exchange itself stands.
			a.log.Warn("answer not spoken", "error", err)
		}
	}
	return msg, nil
}

// ReadAloud speaks one finalized message on demand, independent of the
// voice-input policy.
func (a *Assistant) ReadAloud(ctx context.Context, messageID string) error {
	for _, m := range a.session.Messages() {
		if m.ID == messageID {
			if m.Role != chat.RoleAssistant || m.Pending {
				return chat.ErrNotFound
			}
			return a.speaker.Speak(ctx, m.Content, uuid.NewString())
		}
	}
	return chat.ErrNotFound
}

// JumpToTimestamp handles a timestamp click inside an answer bubble.
func (a *Assistant) JumpToTimestamp(seconds float64) {
	a.coord.SeekTo(seconds)
}

// Close tears down device and playback resources. Mandatory on unmount.
func (a *Assistant) Close() error {
	if a.speaker != nil {
		a.speaker.Stop()
	}
	a.coord.Close()
	if a.recorder != nil {
		return a.recorder.Close()
	}
	return nil
}
