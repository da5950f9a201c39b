// Package ui provides the interactive terminal front end.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/nibzard/tasker/internal/auth"
	"github.com/nibzard/tasker/internal/logging"
	"github.com/nibzard/tasker/internal/session"
	"github.com/nibzard/tasker/internal/todo"
)

const (
	loginTitle    = "Task Manager Login"
	tasksTitle    = "Task Manager"
	loginOK       = "Login successful!"
	loginFailed   = "Login failed. Please try again."
	noSelection   = "No Task Selected: select a task to mark as done."
	deadlineHint  = "YYYY-MM-DD"
	maxDescWidth  = 48
	minDescWidth  = len("Description")
	deadlineWidth = 12
)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

type tuiConfig struct {
	logger *log.Logger
	input  io.Reader
	output io.Writer
}

// WithLogger sets the logger used for UI events.
func WithLogger(logger *log.Logger) TUIOption {
	return func(c *tuiConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIO overrides the program input and output.
func WithIO(in io.Reader, out io.Writer) TUIOption {
	return func(c *tuiConfig) {
		c.input = in
		c.output = out
	}
}

// RunTUI runs the login screen and, after a successful login, the task table.
// It returns the error from the final save, if any.
func RunTUI(ctx context.Context, sess *session.Session, opts ...TUIOption) error {
	c := &tuiConfig{
		logger: logging.Discard(),
		input:  os.Stdin,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if !IsTTY(c.output) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := newTUIModel(sess, c.logger)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(c.input),
		tea.WithOutput(c.output),
	)
	finalModel, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if m, ok := finalModel.(*tuiModel); ok && m.closeErr != nil {
		return m.closeErr
	}
	if err != nil {
		// Interrupted from outside; still persist what we have.
		return sess.Close()
	}
	return nil
}

type screen int

const (
	screenLogin screen = iota
	screenTasks
	screenAdd
)

type statusKind int

const (
	statusNone statusKind = iota
	statusInfo
	statusSuccess
	statusWarn
	statusError
)

type tuiModel struct {
	sess   *session.Session
	logger *log.Logger

	screen     screen
	register   bool
	username   textField
	password   textField
	loginFocus int
	pending    bool

	snap   todo.Snapshot
	cursor int

	description textField
	deadline    textField
	addFocus    int

	status     string
	statusKind statusKind
	width      int
	closeErr   error
	quitting   bool
}

type loginResultMsg struct {
	outcome auth.Outcome
	err     error
}

func newTUIModel(sess *session.Session, logger *log.Logger) *tuiModel {
	registered, err := sess.Registered()
	if err != nil {
		logger.Warn("check credential file", "err", err)
	}
	return &tuiModel{
		sess:        sess,
		logger:      logger,
		register:    err == nil && !registered,
		username:    textField{label: "Username"},
		password:    textField{label: "Password", masked: true},
		description: textField{label: "Description"},
		deadline:    textField{label: "Deadline", placeholder: deadlineHint},
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return nil
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case loginResultMsg:
		return m.handleLoginResult(msg)
	case tea.KeyMsg:
		switch m.screen {
		case screenLogin:
			return m.updateLogin(msg)
		case screenTasks:
			return m.updateTasks(msg)
		case screenAdd:
			return m.updateAdd(msg)
		}
	}
	return m, nil
}

func (m *tuiModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.loginFocus = 1 - m.loginFocus
		return m, nil
	case tea.KeyEnter:
		if m.pending {
			return m, nil
		}
		if m.loginFocus == 0 {
			m.loginFocus = 1
			return m, nil
		}
		m.pending = true
		m.setStatus(statusInfo, "Checking credentials...")
		return m, m.authenticate(m.username.Value(), m.password.Value())
	}

	if m.pending {
		return m, nil
	}
	if m.loginFocus == 0 {
		m.username.handleKey(msg)
	} else {
		m.password.handleKey(msg)
	}
	return m, nil
}

func (m *tuiModel) authenticate(username, password string) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		outcome, err := sess.Login(username, password)
		return loginResultMsg{outcome: outcome, err: err}
	}
}

func (m *tuiModel) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	m.pending = false
	if !msg.outcome.OK() {
		m.logger.Info("login failed", "err", msg.err)
		m.password.Reset()
		m.loginFocus = 1
		text := loginFailed
		if msg.err != nil && !errors.Is(msg.err, auth.ErrInvalidCredentials) {
			text += " " + msg.err.Error()
		}
		m.setStatus(statusError, text)
		return m, nil
	}

	m.password.Reset()
	m.screen = screenTasks
	m.refresh()
	if msg.err != nil {
		m.setStatus(statusError, loginOK+" "+msg.err.Error())
		return m, nil
	}
	text := loginOK
	if msg.outcome == auth.OutcomeRegistered {
		text += " Account created."
	}
	if report := m.sess.LoadReport(); report != nil && len(report.Skipped) > 0 {
		m.setStatus(statusWarn, fmt.Sprintf("%s Skipped %d unreadable line(s) in %s.", text, len(report.Skipped), report.Path))
		return m, nil
	}
	m.setStatus(statusSuccess, text)
	return m, nil
}

func (m *tuiModel) updateTasks(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m.saveAndExit()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.snap.Tasks)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		if n := len(m.snap.Tasks); n > 0 {
			m.cursor = n - 1
		}
	case "a":
		m.screen = screenAdd
		m.description.Reset()
		m.deadline.Reset()
		m.addFocus = 0
		m.clearStatus()
	case "d", "enter":
		m.markDone()
	case "r":
		m.refresh()
		m.setStatus(statusInfo, fmt.Sprintf("Refreshed %d task(s).", len(m.snap.Tasks)))
	case "w", "ctrl+s":
		if err := m.sess.Save(); err != nil {
			m.setStatus(statusError, err.Error())
		} else {
			m.setStatus(statusSuccess, "Saved.")
		}
	}
	return m, nil
}

func (m *tuiModel) markDone() {
	var id todo.ID
	if m.cursor >= 0 && m.cursor < len(m.snap.Tasks) {
		id = m.snap.Tasks[m.cursor].ID
	}
	err := m.sess.CompleteTask(id)
	m.refresh()
	switch {
	case errors.Is(err, session.ErrNoSelection):
		m.setStatus(statusWarn, noSelection)
	case err != nil:
		m.setStatus(statusError, err.Error())
	default:
		m.setStatus(statusSuccess, "Task marked as done.")
	}
}

func (m *tuiModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m.saveAndExit()
	case tea.KeyEsc:
		m.screen = screenTasks
		m.clearStatus()
		return m, nil
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.addFocus = 1 - m.addFocus
		return m, nil
	case tea.KeyEnter:
		if m.addFocus == 0 {
			m.addFocus = 1
			return m, nil
		}
		task, err := m.sess.AddTask(m.description.Value(), m.deadline.Value())
		m.screen = screenTasks
		m.refresh()
		if idx := indexOf(m.snap.Tasks, task.ID); idx >= 0 {
			m.cursor = idx
		}
		if err != nil {
			m.setStatus(statusError, err.Error())
		} else {
			m.setStatus(statusSuccess, "Task added.")
		}
		return m, nil
	}

	if m.addFocus == 0 {
		m.description.handleKey(msg)
	} else {
		m.deadline.handleKey(msg)
	}
	return m, nil
}

func (m *tuiModel) saveAndExit() (tea.Model, tea.Cmd) {
	if err := m.sess.Close(); err != nil {
		m.logger.Error("final save", "err", err)
		m.closeErr = err
	}
	m.quitting = true
	return m, tea.Quit
}

func (m *tuiModel) refresh() {
	m.snap = m.sess.Refresh()
	if m.cursor >= len(m.snap.Tasks) {
		m.cursor = len(m.snap.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *tuiModel) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

func (m *tuiModel) clearStatus() {
	m.setStatus(statusNone, "")
}

func (m *tuiModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	switch m.screen {
	case screenLogin:
		m.writeLogin(&b)
	case screenTasks:
		m.writeTasks(&b)
	case screenAdd:
		m.writeAdd(&b)
	}
	return b.String()
}

func (m *tuiModel) writeLogin(b *strings.Builder) {
	writeTitle(b, loginTitle)
	if m.register {
		b.WriteString(subtitleStyle.Render("No account yet: the first login registers these credentials.") + "\n\n")
	}
	b.WriteString(m.username.view(m.loginFocus == 0) + "\n")
	b.WriteString(m.password.view(m.loginFocus == 1) + "\n\n")
	m.writeStatus(b)
	b.WriteString(helpStyle.Render("tab switch field | enter login | esc quit") + "\n")
}

func (m *tuiModel) writeTasks(b *strings.Builder) {
	writeTitle(b, tasksTitle)
	pending, done := m.snap.Counts()
	b.WriteString(fmt.Sprintf("  Todo: %d  Done: %d\n\n", pending, done))
	writeTable(b, m.snap.Tasks, m.cursor, m.descWidth())
	b.WriteString("\n")
	m.writeStatus(b)
	b.WriteString(helpStyle.Render("a add | d mark done | r refresh | w save | q save and exit") + "\n")
}

func (m *tuiModel) writeAdd(b *strings.Builder) {
	writeTitle(b, "Add Task")
	b.WriteString(m.description.view(m.addFocus == 0) + "\n")
	b.WriteString(m.deadline.view(m.addFocus == 1) + "\n\n")
	m.writeStatus(b)
	b.WriteString(helpStyle.Render("tab switch field | enter add | esc cancel") + "\n")
}

func (m *tuiModel) writeStatus(b *strings.Builder) {
	if m.status == "" {
		return
	}
	var style lipgloss.Style
	switch m.statusKind {
	case statusSuccess:
		style = successStyle
	case statusWarn:
		style = warnStyle
	case statusError:
		style = errorStyle
	default:
		style = subtitleStyle
	}
	b.WriteString(style.Render(m.status) + "\n\n")
}

func (m *tuiModel) descWidth() int {
	w := maxDescWidth
	if m.width > 0 {
		// cursor marker, deadline and status columns plus gaps
		if avail := m.width - deadlineWidth - 4 - 8; avail < w {
			w = avail
		}
	}
	if w < minDescWidth {
		w = minDescWidth
	}
	return w
}

func writeTitle(b *strings.Builder, title string) {
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeTable(b *strings.Builder, tasks []todo.Task, cursor, descWidth int) {
	header := "  " + pad("Description", descWidth) + "  " + pad("Deadline", deadlineWidth) + "  Status"
	b.WriteString(headerStyle.Render(header) + "\n")
	if len(tasks) == 0 {
		b.WriteString("  No tasks yet. Press a to add one.\n")
		return
	}
	for i, t := range tasks {
		marker := "  "
		if i == cursor {
			marker = "> "
		}
		status := todoStyle.Render("TODO")
		if t.Done {
			status = doneStyle.Render("DONE")
		}
		row := pad(truncate(t.Description, descWidth), descWidth) + "  " + pad(truncate(t.Deadline, deadlineWidth), deadlineWidth)
		if i == cursor {
			row = selectedStyle.Render(row)
		}
		b.WriteString(marker + row + "  " + status + "\n")
	}
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func indexOf(tasks []todo.Task, id todo.ID) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
