// Package voice speaks assistant text aloud. At most one utterance plays at
// a time: a newer Speak supersedes any in-flight synthesis request and any
// audio that is currently playing.
package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/recallhq/videoindex/internal/speech"
)

// ErrSynthesis wraps provider failures during text-to-speech. Playback
// simply does not start; it never blocks further interaction.
var ErrSynthesis = errors.New("voice: synthesis failed")

// Playback is a handle on audio that has started playing. Stop halts it;
// Done is closed when it finishes or is stopped.
type Playback interface {
	Done() <-chan struct{}
	Stop()
}

// Player starts playback of a synthesized audio stream. It does not take
// ownership of the reader; the Speaker closes it when the utterance ends or
// is superseded.
type Player interface {
	Play(ctx context.Context, audio io.Reader) (Playback, error)
}

// Speaker serializes utterances with last-call-wins semantics. Each Speak
// gets a generation number; completions from stale generations are discarded
// without touching playback state.
type Speaker struct {
	synth  speech.Synthesizer
	player Player

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	playback Playback
	audio    io.Closer // released exactly once per utterance
	speaking string    // current utterance id, "" when silent
}

func NewSpeaker(synth speech.Synthesizer, player Player) *Speaker {
	return &Speaker{synth: synth, player: player}
}

// Speaking returns the id of the utterance currently being synthesized or
// played, or "" when silent.
func (s *Speaker) Speaking() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// Speak synthesizes and plays text. Any previous utterance is cancelled
// first: its network request is aborted and its audio, if it arrives later,
// is never played. Returns once playback has started (or failed).
func (s *Speaker) Speak(ctx context.Context, text, utteranceID string) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.interruptLocked()
	sctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.speaking = utteranceID
	s.mu.Unlock()

	audio, err := s.synth.Synthesize(sctx, text)
	if err != nil {
		s.clearIfCurrent(gen)
		cancel()
		return fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	s.mu.Lock()
	if s.gen != gen {
		// Superseded while the request was in flight; never play it.
		s.mu.Unlock()
		audio.Close()
		cancel()
		return nil
	}

	pb, err := s.player.Play(sctx, audio)
	if err != nil {
		s.speaking = ""
		s.cancel = nil
		s.mu.Unlock()
		audio.Close()
		cancel()
		return fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	s.playback = pb
	s.audio = audio
	s.mu.Unlock()

	go func() {
		<-pb.Done()
		s.mu.Lock()
		if s.gen == gen {
			if s.audio != nil {
				s.audio.Close()
				s.audio = nil
			}
			s.playback = nil
			s.speaking = ""
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	return nil
}

// Stop cancels any pending synthesis, halts playback, and releases the audio
// handle. Safe to call when nothing is speaking.
func (s *Speaker) Stop() {
	s.mu.Lock()
	s.gen++
	s.interruptLocked()
	s.mu.Unlock()
}

// interruptLocked tears down the current utterance. Caller holds s.mu.
func (s *Speaker) interruptLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.playback != nil {
		s.playback.Stop()
		s.playback = nil
	}
	if s.audio != nil {
		s.audio.Close()
		s.audio = nil
	}
	s.speaking = ""
}

func (s *Speaker) clearIfCurrent(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.speaking = ""
		s.cancel = nil
	}
}
