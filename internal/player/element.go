package player

// EventKind identifies a media element notification.
type EventKind int

const (
	// EventTimeUpdate reports playback progress; Time carries the position
	// and Duration the element's current idea of the total length.
	EventTimeUpdate EventKind = iota
	// EventMetadataLoaded fires once a newly loaded source's duration is
	// known.
	EventMetadataLoaded
	// EventDurationChange fires when the duration is revised mid-stream.
	EventDurationChange
	// EventEnded fires when playback reaches the end of the source.
	EventEnded
)

type Event struct {
	Kind     EventKind
	Time     float64
	Duration float64
}

// Element abstracts the underlying media element (an HTML <video> in the
// browser host, a fake in tests). Implementations deliver their event stream
// on Events and close the channel when the element is disposed.
type Element interface {
	Load(src string)
	Play() error
	Pause()
	Seek(seconds float64)
	SetVolume(v float64)
	SetMuted(muted bool)
	SetRate(rate float64)
	EnterFullscreen() error
	ExitFullscreen()
	Events() <-chan Event
}
