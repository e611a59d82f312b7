package session

import (
	"time"

	"markestedt/snipai/llm"
)

// EventType classifies session events delivered to the chat UI
type EventType string

const (
	EventState        EventType = "state"
	EventCycleStarted EventType = "cycle_started"
	EventCycleEnded   EventType = "cycle_ended"
	EventTurn         EventType = "turn"
	EventPending      EventType = "pending"
	EventUndoState    EventType = "undo"
	EventError        EventType = "error"
)

// Event is one session occurrence. Fields are populated per Type.
type Event struct {
	Type          EventType `json:"type"`
	CycleID       string    `json:"cycleId,omitempty"`
	State         State     `json:"state,omitempty"`
	Turn          *llm.Turn `json:"turn,omitempty"`
	Preview       string    `json:"preview,omitempty"`
	UndoAvailable bool      `json:"undoAvailable,omitempty"`
	Message       string    `json:"message,omitempty"`
	SourceTitle   string    `json:"sourceTitle,omitempty"`
	CursorX       int32     `json:"cursorX,omitempty"`
	CursorY       int32     `json:"cursorY,omitempty"`
}

// Sink receives session events; implemented by the chat UI collaborator
type Sink interface {
	Emit(Event)
}

type nopSink struct{}

func (nopSink) Emit(Event) {}

// Outcome is how a cycle ended
type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeClosed      Outcome = "closed"
	OutcomeCancelled   Outcome = "cancelled"
	OutcomeNoSelection Outcome = "no_selection"
	OutcomeError       Outcome = "error"
)

// CycleStats summarises one finished (or aborted) cycle for the history log
type CycleStats struct {
	ID            string
	StartedAt     time.Time
	SourceTitle   string
	CapturedChars int
	Turns         int
	Pastes        int
	Undos         int
	CaptureMs     int64
	TotalMs       int64
	Outcome       Outcome
	Error         string
}

// Recorder persists cycle summaries
type Recorder interface {
	Record(CycleStats)
}

type nopRecorder struct{}

func (nopRecorder) Record(CycleStats) {}
