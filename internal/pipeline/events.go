package pipeline

import "context"

type EventType int

const (
	EventUnspecified EventType = iota
	EventState // a run reached a new State
	EventComplete
	EventError
)

// Event is a progress notification from a running synthesis.
type Event struct {
	Type    EventType
	RunID   string
	State   State
	Message string
}

// Emitter receives run events. Emit must not block.
type Emitter interface {
	Emit(Event)
}

type emitterKey struct{}

// WithEmitter attaches an emitter to the context.
func WithEmitter(ctx context.Context, e Emitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, e)
}

// EmitterFrom retrieves the emitter from context, or returns a no-op emitter.
func EmitterFrom(ctx context.Context) Emitter {
	if e, ok := ctx.Value(emitterKey{}).(Emitter); ok && e != nil {
		return e
	}
	return noopEmitter{}
}

type noopEmitter struct{}

func (noopEmitter) Emit(Event) {}

// ChannelEmitter sends events to a channel, dropping them when it is full.
type ChannelEmitter struct {
	Ch chan<- Event
}

func (e *ChannelEmitter) Emit(ev Event) {
	select {
	case e.Ch <- ev:
	default:
	}
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(ev Event) { f(ev) }
