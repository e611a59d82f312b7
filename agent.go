package main

import (
	"context"
	"fmt"
	"log/slog"

	"markestedt/snipai/config"
	"markestedt/snipai/platform"
	"markestedt/snipai/session"
	"markestedt/snipai/storage"
	"markestedt/snipai/systray"
)

// Agent wires the global hotkey to the session state machine
type Agent struct {
	cfg     *config.Config
	hotkey  platform.Hotkey
	session *session.Session
}

// NewAgent creates a new agent instance
func NewAgent(cfg *config.Config, hotkey platform.Hotkey, sess *session.Session) *Agent {
	return &Agent{
		cfg:     cfg,
		hotkey:  hotkey,
		session: sess,
	}
}

// Run starts the hotkey listener and the session loop, then pumps hotkey
// events until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	combo, err := config.ParseHotkey(a.cfg.Hotkey.Combo)
	if err != nil {
		return fmt.Errorf("failed to parse hotkey: %w", err)
	}

	vkCode, err := platform.VKCode(combo.Key)
	if err != nil {
		return fmt.Errorf("failed to get VK code: %w", err)
	}

	pkCombo := platform.KeyCombo{
		Ctrl:  combo.Ctrl,
		Shift: combo.Shift,
		Alt:   combo.Alt,
		Win:   combo.Win,
		Key:   vkCode,
	}

	events, err := a.hotkey.Listen(ctx, pkCombo)
	if err != nil {
		return fmt.Errorf("failed to start hotkey listener: %w", err)
	}

	go a.session.Run(ctx)

	slog.Info("SnipAI started", "hotkey", a.cfg.Hotkey.Combo)

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt := <-events:
			if evt.Type != platform.Pressed {
				continue
			}
			// Drop-if-busy: an active cycle swallows further presses.
			if !a.session.TryStart() {
				slog.Debug("Hotkey ignored, cycle already active")
			}
		}
	}
}

// fanoutSink delivers session events to several sinks in order
type fanoutSink struct {
	sinks []session.Sink
}

func (f *fanoutSink) Add(s session.Sink) {
	f.sinks = append(f.sinks, s)
}

func (f *fanoutSink) Emit(ev session.Event) {
	for _, s := range f.sinks {
		s.Emit(ev)
	}
}

// browserSink opens the chat page when a cycle actually yields a capture.
// Opening any earlier would surface UI for empty selections.
type browserSink struct {
	url string
}

func (b browserSink) Emit(ev session.Event) {
	if ev.Type == session.EventCycleStarted {
		systray.OpenBrowser(b.url)
	}
}

// dbRecorder persists cycle summaries to the history log
type dbRecorder struct {
	db *storage.DB
}

func (r dbRecorder) Record(c session.CycleStats) {
	err := r.db.SaveCycle(&storage.Cycle{
		ID:                c.ID,
		StartedAt:         c.StartedAt,
		SourceWindowTitle: c.SourceTitle,
		CapturedChars:     c.CapturedChars,
		TurnCount:         c.Turns,
		PasteCount:        c.Pastes,
		UndoCount:         c.Undos,
		CaptureLatencyMs:  c.CaptureMs,
		TotalDurationMs:   c.TotalMs,
		Outcome:           string(c.Outcome),
		ErrorMessage:      c.Error,
	})
	if err != nil {
		slog.Error("Failed to record cycle", "cycle", c.ID, "error", err)
	}
}
