// internal/tui/app.go
//
// The local console: a chat client for one user, talking straight to the
// economy's command dispatcher. It follows The Elm Architecture like every
// bubbletea program:
//
//  1. Model: the transcript, the input line and the terminal size
//  2. Update: keys and command replies become new state
//  3. View: the state rendered to a string

package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/economy/internal/chat"
)

const (
	logPanelLines   = 6
	defaultWidth    = 80
	defaultHeight   = 24
	transcriptLimit = 500
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801")).MarginBottom(1)
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	replyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
)

// Dispatcher runs chat commands. economy.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx chat.Context, content string) (bool, error)
	Prefix() string
}

// Journal is the read side of the ledger journal.
type Journal interface {
	Tail(maxLines int) ([]string, int)
	Path() string
}

// AppOption customizes App construction.
type AppOption func(*App)

// WithJournal shows the latest journal entries under the transcript.
func WithJournal(j Journal) AppOption {
	return func(a *App) {
		a.journal = j
	}
}

// WithStatus sets the initial footer message.
func WithStatus(msg string) AppOption {
	return func(a *App) {
		a.statusMsg = msg
	}
}

type line struct {
	author string
	text   string
	failed bool
}

type replyMsg struct {
	input   string
	handled bool
	replies []string
	err     error
}

// App is the console model.
type App struct {
	dispatcher Dispatcher
	user       string
	journal    Journal

	input      textinput.Model
	transcript viewport.Model
	lines      []line
	statusMsg  string
	width      int
	height     int
	busy       bool
}

// NewApp builds a console that sends every line as user.
func NewApp(dispatcher Dispatcher, user string, opts ...AppOption) (*App, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("tui: dispatcher is required")
	}
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, fmt.Errorf("tui: console user is required")
	}
	input := textinput.New()
	input.Placeholder = fmt.Sprintf("%shelp", dispatcher.Prefix())
	input.Prompt = "> "
	input.CharLimit = 512
	input.Focus()

	a := &App{
		dispatcher: dispatcher,
		user:       user,
		input:      input,
		transcript: viewport.New(defaultWidth, defaultHeight-6),
		width:      defaultWidth,
		height:     defaultHeight,
		statusMsg:  fmt.Sprintf("Signed in as %s · enter sends · esc quits", user),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.resize()
	return a, nil
}

// Init starts the cursor blinking.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles keys, window resizes and command replies.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.resize()
		return a, nil
	case replyMsg:
		a.busy = false
		a.handleReply(msg)
		return a, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "enter":
			return a, a.submit()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			a.transcript, cmd = a.transcript.Update(msg)
			return a, cmd
		}
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) submit() tea.Cmd {
	text := strings.TrimSpace(a.input.Value())
	if text == "" || a.busy {
		return nil
	}
	a.input.Reset()
	a.busy = true
	a.appendLine(line{author: a.user, text: text})
	dispatcher, user := a.dispatcher, a.user
	return func() tea.Msg {
		buf := chat.NewBuffer(user)
		handled, err := dispatcher.Dispatch(buf, text)
		return replyMsg{input: text, handled: handled, replies: buf.Replies(), err: err}
	}
}

func (a *App) handleReply(msg replyMsg) {
	for _, reply := range msg.replies {
		a.appendLine(line{text: reply})
	}
	switch {
	case msg.err != nil:
		a.appendLine(line{text: fmt.Sprintf("command failed: %v", msg.err), failed: true})
	case !msg.handled:
		a.appendLine(line{text: fmt.Sprintf("Not a command. Try %shelp", a.dispatcher.Prefix())})
	}
}

func (a *App) appendLine(l line) {
	a.lines = append(a.lines, l)
	if len(a.lines) > transcriptLimit {
		a.lines = a.lines[len(a.lines)-transcriptLimit:]
	}
	a.transcript.SetContent(a.renderTranscript())
	a.transcript.GotoBottom()
}

func (a *App) resize() {
	width := max(20, a.width-4)
	reserved := 6
	if a.journal != nil {
		reserved += logPanelLines + 3
	}
	a.transcript.Width = width
	a.transcript.Height = max(3, a.height-reserved)
	a.input.Width = max(10, width-4)
	a.transcript.SetContent(a.renderTranscript())
}

// View renders the console.
func (a *App) View() string {
	sections := []string{
		headerStyle.Render("◆ ECONOMY"),
		boxStyle.Width(max(20, a.width-2)).Render(a.transcript.View()),
		a.input.View(),
	}
	if panel := a.renderLogPanel(); panel != "" {
		sections = append(sections, panel)
	}
	sections = append(sections, hintStyle.Render(a.statusMsg))
	return strings.Join(sections, "\n")
}

func (a *App) renderTranscript() string {
	if len(a.lines) == 0 {
		return hintStyle.Render("No messages yet.")
	}
	rendered := make([]string, 0, len(a.lines))
	for _, l := range a.lines {
		switch {
		case l.author != "":
			rendered = append(rendered, userStyle.Render(l.author+": ")+l.text)
		case l.failed:
			rendered = append(rendered, errorStyle.Render(l.text))
		default:
			rendered = append(rendered, replyStyle.Render(l.text))
		}
	}
	return lipgloss.NewStyle().Width(max(20, a.transcript.Width)).Render(strings.Join(rendered, "\n"))
}

func (a *App) renderLogPanel() string {
	if a.journal == nil {
		return ""
	}
	entries, total := a.journal.Tail(logPanelLines)
	if len(entries) == 0 {
		return ""
	}
	name := filepath.Base(a.journal.Path())
	if name == "." || name == "" {
		name = "journal"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s · %d entries", name, total))
	body := hintStyle.Render(strings.Join(entries, "\n"))
	return boxStyle.Render(head + "\n" + body)
}

// Transcript returns the plain text of every line, for tests and dumps.
func (a *App) Transcript() []string {
	out := make([]string, len(a.lines))
	for i, l := range a.lines {
		if l.author != "" {
			out[i] = l.author + ": " + l.text
			continue
		}
		out[i] = l.text
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
