package pipeline

import "context"

// Sink delivers events and synthesized audio to the client. The server's
// websocket connection implements it; tests substitute a recording double.
type Sink interface {
	// SendEvent marshals and delivers one JSON event.
	SendEvent(ctx context.Context, event any) error

	// SendAudio delivers one WAV-encoded clip as a binary message.
	SendAudio(ctx context.Context, wav []byte) error
}

// Signal events mark voice-activity boundaries and turn readiness.
type SignalEvent struct {
	Event string `json:"event"`
	State string `json:"state,omitempty"`
}

// StateEvent reports the assistant's processing state. The speaking state
// carries the response text and intent; a binary WAV payload follows it on
// the wire.
type StateEvent struct {
	State  string `json:"state"`
	Text   string `json:"text,omitempty"`
	Intent string `json:"intent,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CardEvent flips the equipment carousel to a product card.
type CardEvent struct {
	Event       string `json:"event"`
	CardIndex   int    `json:"card_index"`
	Keyword     string `json:"keyword"`
	ProductName string `json:"product_name"`
}

// ModelEvent asks the client to load a 3D model.
type ModelEvent struct {
	Event     string `json:"event"`
	ModelPath string `json:"model_path"`
	ModelName string `json:"model_name"`
}

func speechStartEvent() SignalEvent { return SignalEvent{Event: "speech_start"} }
func speechEndEvent() SignalEvent   { return SignalEvent{Event: "speech_end"} }
func readyEvent() SignalEvent       { return SignalEvent{Event: "ready_to_listen", State: "idle"} }

func idleState() StateEvent     { return StateEvent{State: "idle"} }
func thinkingState() StateEvent { return StateEvent{State: "thinking"} }

func speakingState(text, intentLabel string) StateEvent {
	return StateEvent{State: "speaking", Text: text, Intent: intentLabel}
}

func errorState(err error) StateEvent {
	return StateEvent{State: "idle", Error: err.Error()}
}
