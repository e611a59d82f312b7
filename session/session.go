// Package session sequences one capture → chat → paste → undo cycle. All
// cycle state lives on a single goroutine fed by an action queue; the hotkey
// context and the chat UI only ever enqueue.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"markestedt/snipai/capture"
	"markestedt/snipai/inject"
	"markestedt/snipai/llm"
	"markestedt/snipai/platform"
)

// State is the machine's current position in the cycle
type State string

const (
	StateIdle          State = "idle"
	StateCapturing     State = "capturing"
	StateConversing    State = "conversing"
	StatePasteReady    State = "paste_ready"
	StatePasting       State = "pasting"
	StatePasted        State = "pasted"
	StateUndoAvailable State = "undo_available"
	StateUndoing       State = "undoing"
)

// Capturer extracts the selection from a window
type Capturer interface {
	Capture(ctx context.Context, source platform.Window) (capture.Result, error)
}

// Executor pastes replacement text and replays undo records
type Executor interface {
	Paste(ctx context.Context, target platform.Window, text string) (inject.Record, error)
	Restore(ctx context.Context, rec inject.Record) error
}

// Session owns the one active cycle
type Session struct {
	capturer Capturer
	executor Executor
	provider llm.Provider
	undo     *inject.UndoStore
	windows  platform.WindowManager
	sink     Sink
	recorder Recorder

	actions chan action

	mu    sync.Mutex
	state State

	// loop-goroutine state, untouched elsewhere
	cycle *cycleData
}

type cycleData struct {
	id          string
	started     time.Time
	capture     capture.Result
	sourceTitle string
	captureMs   int64
	turns       []llm.Turn
	pending     string
	hasPending  bool
	awaiting    bool
	cancelLLM   context.CancelFunc
	pastes      int
	undos       int
}

type actionKind int

const (
	actStart actionKind = iota
	actPrompt
	actPaste
	actUndo
	actClose
	actReply
)

type action struct {
	kind    actionKind
	text    string
	cycleID string
	reply   llm.Reply
	err     error
}

// New creates a session in Idle
func New(capturer Capturer, executor Executor, provider llm.Provider, undo *inject.UndoStore, windows platform.WindowManager, sink Sink, recorder Recorder) *Session {
	if sink == nil {
		sink = nopSink{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Session{
		capturer: capturer,
		executor: executor,
		provider: provider,
		undo:     undo,
		windows:  windows,
		sink:     sink,
		recorder: recorder,
		actions:  make(chan action, 16),
		state:    StateIdle,
	}
}

// State returns the current machine state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TryStart is the hotkey's entry point. It checks the state synchronously
// and drops the press when a cycle is already active: backpressure, not a
// queue. Returns whether a new cycle was admitted.
func (s *Session) TryStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return false
	}
	select {
	case s.actions <- action{kind: actStart}:
		return true
	default:
		return false
	}
}

// SubmitPrompt enqueues a user prompt for the active conversation
func (s *Session) SubmitPrompt(text string) {
	s.enqueue(action{kind: actPrompt, text: text})
}

// RequestPaste enqueues a paste of the pending candidate
func (s *Session) RequestPaste() {
	s.enqueue(action{kind: actPaste})
}

// RequestUndo enqueues an undo of the most recent paste
func (s *Session) RequestUndo() {
	s.enqueue(action{kind: actUndo})
}

// Close enqueues a close of the active cycle, cancelling any in-flight work
func (s *Session) Close() {
	s.enqueue(action{kind: actClose})
}

func (s *Session) enqueue(act action) {
	select {
	case s.actions <- act:
	default:
		slog.Warn("Session action queue full, dropping action", "kind", act.kind)
	}
}

// Run processes actions until ctx is cancelled
func (s *Session) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.handleClose(ctx, "cancelled")
			return
		case act := <-s.actions:
			s.handle(ctx, act)
		}
	}
}

func (s *Session) handle(ctx context.Context, act action) {
	switch act.kind {
	case actStart:
		s.handleStart(ctx)
	case actPrompt:
		s.handlePrompt(act.text)
	case actReply:
		s.handleReply(act)
	case actPaste:
		s.handlePaste(ctx)
	case actUndo:
		s.handleUndo(ctx)
	case actClose:
		s.handleClose(ctx, "closed")
	}
}

func (s *Session) handleStart(ctx context.Context) {
	if s.cycle != nil {
		return
	}

	s.setState(StateCapturing)

	source, err := s.windows.Foreground()
	if err != nil {
		slog.Error("Failed to resolve source window", "error", err)
		s.setState(StateIdle)
		return
	}

	started := time.Now()
	res, err := s.capturer.Capture(ctx, source)
	if errors.Is(err, capture.ErrNoSelection) {
		// Nothing selected: silent no-op, no chat window.
		slog.Info("No selection detected, cycle aborted")
		s.setState(StateIdle)
		s.recorder.Record(CycleStats{
			ID:        uuid.NewString(),
			StartedAt: started,
			Outcome:   OutcomeNoSelection,
		})
		return
	}
	if err != nil {
		slog.Error("Capture failed", "error", err)
		s.setState(StateIdle)
		s.sink.Emit(Event{Type: EventError, Message: "Capture failed: " + err.Error()})
		s.recorder.Record(CycleStats{
			ID:        uuid.NewString(),
			StartedAt: started,
			Outcome:   OutcomeError,
			Error:     err.Error(),
		})
		return
	}

	cycle := &cycleData{
		id:          uuid.NewString(),
		started:     started,
		capture:     res,
		sourceTitle: s.windows.Title(res.Source),
		captureMs:   time.Since(started).Milliseconds(),
	}
	s.cycle = cycle

	cursorX, cursorY, _ := s.windows.Cursor()

	slog.Info("Selection captured",
		"cycle", cycle.id,
		"chars", len(res.Text),
		"window", cycle.sourceTitle)

	s.sink.Emit(Event{
		Type:        EventCycleStarted,
		CycleID:     cycle.id,
		SourceTitle: cycle.sourceTitle,
		CursorX:     cursorX,
		CursorY:     cursorY,
	})

	// The first turn of every cycle is the captured selection itself; the
	// exchange with the model starts with the user's first prompt.
	seed := llm.Turn{Role: llm.RoleUser, Text: llm.InitialPrompt(res.Text)}
	cycle.turns = append(cycle.turns, seed)
	s.emitTurn(seed)

	s.setState(StateConversing)
}

func (s *Session) handlePrompt(text string) {
	cycle := s.cycle
	if cycle == nil {
		return
	}
	// Prompts are accepted while a reply could still matter: mid
	// conversation, with a candidate waiting, or after a paste when the
	// user wants another revision (the next paste overwrites the undo
	// slot).
	switch s.State() {
	case StateConversing, StatePasteReady, StateUndoAvailable:
	default:
		return
	}
	if cycle.awaiting {
		slog.Debug("Prompt dropped, reply still in flight", "cycle", cycle.id)
		return
	}

	turn := llm.Turn{Role: llm.RoleUser, Text: text}
	cycle.turns = append(cycle.turns, turn)
	s.emitTurn(turn)

	s.setState(StateConversing)
	cycle.awaiting = true

	cctx, cancel := context.WithCancel(context.Background())
	cycle.cancelLLM = cancel

	history := make([]llm.Turn, len(cycle.turns))
	copy(history, cycle.turns)
	cycleID := cycle.id

	// The exchange is a slow network round-trip; it must not block the
	// action loop, so the reply comes back as an action.
	go func() {
		defer cancel()
		reply, err := s.provider.SendTurn(cctx, history)
		s.enqueue(action{kind: actReply, cycleID: cycleID, reply: reply, err: err})
	}()
}

func (s *Session) handleReply(act action) {
	cycle := s.cycle
	if cycle == nil || act.cycleID != cycle.id {
		return // reply for a cycle that no longer exists
	}
	cycle.awaiting = false
	cycle.cancelLLM = nil

	if act.err != nil {
		if errors.Is(act.err, context.Canceled) {
			return
		}
		// Non-fatal: surfaced inline, conversation stays alive for retry.
		slog.Error("LLM exchange failed", "cycle", cycle.id, "error", act.err)
		s.sink.Emit(Event{Type: EventError, CycleID: cycle.id, Message: act.err.Error()})
		return
	}

	turn := llm.Turn{Role: llm.RoleAssistant, Text: act.reply.Text}
	cycle.turns = append(cycle.turns, turn)
	s.emitTurn(turn)

	if act.reply.Pasteable {
		cycle.pending = act.reply.Candidate
		cycle.hasPending = true
		s.sink.Emit(Event{
			Type:    EventPending,
			CycleID: cycle.id,
			Preview: preview(act.reply.Candidate),
		})
	}

	if cycle.hasPending {
		s.setState(StatePasteReady)
	} else {
		s.setState(StateConversing)
	}
}

func (s *Session) handlePaste(ctx context.Context) {
	cycle := s.cycle
	if cycle == nil || !cycle.hasPending || s.State() != StatePasteReady {
		return
	}

	s.setState(StatePasting)

	rec, err := s.executor.Paste(ctx, cycle.capture.Source, cycle.pending)
	if err != nil {
		slog.Error("Paste failed", "cycle", cycle.id, "error", err)
		s.sink.Emit(Event{Type: EventError, CycleID: cycle.id, Message: pasteErrorMessage(err)})
		s.setState(StatePasteReady)
		return
	}

	s.undo.Set(rec)
	cycle.pastes++
	slog.Info("Pasted", "cycle", cycle.id, "chars", len(cycle.pending))

	// The candidate is consumed; a later conversational reply must not
	// re-offer it.
	cycle.pending = ""
	cycle.hasPending = false

	s.setState(StatePasted)
	s.sink.Emit(Event{Type: EventUndoState, CycleID: cycle.id, UndoAvailable: true})
	s.setState(StateUndoAvailable)
}

func (s *Session) handleUndo(ctx context.Context) {
	cycle := s.cycle
	inCycle := cycle != nil && s.State() == StateUndoAvailable

	// An undo may also arrive with no cycle open: the record survives
	// window closure so the target application can still be reverted.
	if !inCycle && s.State() != StateIdle {
		return
	}

	rec, err := s.undo.Take()
	if errors.Is(err, inject.ErrNothingToUndo) {
		s.sink.Emit(Event{Type: EventError, Message: "Nothing to undo"})
		return
	}

	if inCycle {
		s.setState(StateUndoing)
	}

	if err := s.executor.Restore(ctx, rec); err != nil {
		// Keep the record so the user can refocus and retry.
		s.undo.Set(rec)
		slog.Error("Undo failed", "error", err)
		msg := pasteErrorMessage(err)
		if inCycle {
			s.sink.Emit(Event{Type: EventError, CycleID: cycle.id, Message: msg})
			s.setState(StateUndoAvailable)
		} else {
			s.sink.Emit(Event{Type: EventError, Message: msg})
		}
		return
	}

	slog.Info("Undo applied", "chars", len(rec.Prior))
	s.sink.Emit(Event{Type: EventUndoState, UndoAvailable: false})

	if inCycle {
		cycle.undos++
		s.finishCycle(OutcomeCompleted, "")
	}
}

func (s *Session) handleClose(ctx context.Context, reason string) {
	cycle := s.cycle
	if cycle == nil {
		s.setState(StateIdle)
		return
	}
	if cycle.cancelLLM != nil {
		cycle.cancelLLM()
	}

	outcome := OutcomeClosed
	if reason == "cancelled" {
		outcome = OutcomeCancelled
	}
	s.finishCycle(outcome, "")
}

// finishCycle records the cycle summary and drops all per-cycle data. The
// undo slot is deliberately left alone: it belongs to the target
// application's state, not the chat window's.
func (s *Session) finishCycle(outcome Outcome, errMsg string) {
	cycle := s.cycle
	if cycle == nil {
		return
	}
	s.cycle = nil

	s.recorder.Record(CycleStats{
		ID:            cycle.id,
		StartedAt:     cycle.started,
		SourceTitle:   cycle.sourceTitle,
		CapturedChars: len(cycle.capture.Text),
		Turns:         len(cycle.turns),
		Pastes:        cycle.pastes,
		Undos:         cycle.undos,
		CaptureMs:     cycle.captureMs,
		TotalMs:       time.Since(cycle.started).Milliseconds(),
		Outcome:       outcome,
		Error:         errMsg,
	})

	s.sink.Emit(Event{Type: EventCycleEnded, CycleID: cycle.id})
	s.setState(StateIdle)
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	var cycleID string
	if s.cycle != nil {
		cycleID = s.cycle.id
	}
	s.sink.Emit(Event{Type: EventState, CycleID: cycleID, State: st})
}

func (s *Session) emitTurn(t llm.Turn) {
	var cycleID string
	if s.cycle != nil {
		cycleID = s.cycle.id
	}
	s.sink.Emit(Event{Type: EventTurn, CycleID: cycleID, Turn: &t})
}

func pasteErrorMessage(err error) string {
	switch {
	case errors.Is(err, inject.ErrWindowGone):
		return "The original window is gone or cannot be focused. Bring it back and retry."
	case errors.Is(err, inject.ErrSelectionLost):
		return "The original selection is no longer active. Re-select the text in the source window and retry."
	default:
		return err.Error()
	}
}

func preview(text string) string {
	const max = 60
	flat := make([]rune, 0, max+3)
	for _, r := range text {
		if r == '\n' || r == '\r' {
			r = ' '
		}
		flat = append(flat, r)
		if len(flat) == max {
			return string(flat) + "..."
		}
	}
	return string(flat)
}
