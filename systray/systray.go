package systray

import (
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/getlantern/systray"
)

// Manager runs the system tray icon and menu
type Manager struct {
	chatURL string
	quit    chan struct{}
}

// NewManager creates a new tray manager
func NewManager(chatURL string) *Manager {
	return &Manager{
		chatURL: chatURL,
		quit:    make(chan struct{}),
	}
}

// Run starts the system tray (blocking call)
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// Stop tears the tray down
func (m *Manager) Stop() {
	systray.Quit()
}

// WaitForQuit returns a channel closed when the user clicks Quit
func (m *Manager) WaitForQuit() <-chan struct{} {
	return m.quit
}

func (m *Manager) onReady() {
	systray.SetTitle("SnipAI")
	systray.SetTooltip("SnipAI - Select, ask, paste")

	mOpenChat := systray.AddMenuItem("Open Chat", "Open the SnipAI chat page")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit SnipAI")

	go func() {
		for {
			select {
			case <-mOpenChat.ClickedCh:
				OpenBrowser(m.chatURL)
			case <-mQuit.ClickedCh:
				slog.Info("User requested quit from system tray")
				close(m.quit)
				systray.Quit()
				return
			}
		}
	}()
}

func (m *Manager) onExit() {
	slog.Info("System tray exited")
}

// OpenBrowser opens url in the default browser
func OpenBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		slog.Error("Unsupported platform for opening browser", "platform", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		slog.Error("Failed to open chat page", "error", err, "url", url)
	}
}
