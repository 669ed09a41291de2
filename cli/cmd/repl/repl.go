package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/kay/lang"
	"github.com/ardnew/kay/log"
)

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

const helpMessage = `
: Commands (press Esc to toggle mode):

  help       Print this help
  vars       List variables
  run FILE   Run a script against the session
  edit       Edit and run the scratch buffer in $EDITOR
  clear      Clear screen
  quit       Exit

Usage:
  Type statements to run them; "run FILE" works in both modes
  Press Tab / Shift-Tab to cycle through completions
  Press Space to accept the current completion
  Use Up/Down for history, Shift+Up/Shift+Down within the current mode
  Press Ctrl+C to interrupt a running input or clear the line
  Press Ctrl+C on an empty line or Ctrl+D to exit
`

type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = suggestionStyle.Bold(true)
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)
)

// evalDoneMsg carries the outcome of an input evaluated in the background.
type evalDoneMsg struct {
	output string
	res    outcome
}

// editDoneMsg is sent when the scratch buffer was saved and parses.
type editDoneMsg struct{ source string }

type editCancelledMsg struct{}

type editErrorMsg struct{ err error }

// draft is the unsubmitted input of one mode.
type draft struct {
	text   string
	cursor int
}

type model struct {
	ctx     context.Context
	sess    Session
	logger  log.Logger
	history *History
	input   textinput.Model
	width   int

	mode       inputMode
	drafts     [2]draft
	historyIdx int

	names     []string
	matches   fuzzy.Matches
	wordStart int
	wordEnd   int
	suggIdx   int
	tabActive bool
	preTab    draft

	scratch  string
	busy     bool
	cancel   context.CancelFunc
	quitting bool
}

// Run starts the full-screen REPL and returns when the user quits.
func Run(ctx context.Context, sess Session, cacheDir string, logger log.Logger) error {
	history := NewHistory(filepath.Join(cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "history not loaded", slog.Any("error", err))
	}

	logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cacheDir),
		slog.Int("history", history.Len()))

	_, err := tea.NewProgram(newModel(ctx, sess, history, logger), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, sess Session, history *History, logger log.Logger) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	var names []string
	for name := range sess.Bindings() {
		names = append(names, name)
	}

	return model{
		ctx:        ctx,
		sess:       sess,
		logger:     logger,
		history:    history,
		input:      ti,
		width:      defaultWidth,
		historyIdx: history.Len(),
		names:      names,
		suggIdx:    -1,
	}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(evalPrompt) - 2

		return m, nil

	case evalDoneMsg:
		m.busy, m.cancel = false, nil
		m.names = msg.res.names

		return m, printOutcome(msg)

	case editDoneMsg:
		m.scratch = msg.source

		var run tea.Cmd

		m, run = m.startEval(msg.source)

		return m, tea.Sequence(tea.Println(hintStyle.Render("running scratch buffer")), run)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

// printOutcome prints captured output followed by the value or error.
func printOutcome(msg evalDoneMsg) tea.Cmd {
	var cmds []tea.Cmd

	if out := strings.TrimSuffix(msg.output, "\n"); out != "" {
		cmds = append(cmds, tea.Println(out))
	}

	switch {
	case msg.res.err != nil:
		cmds = append(cmds, tea.Println(errorStyle.Render("error: "+msg.res.err.Error())))
	case msg.res.result() != "":
		cmds = append(cmds, tea.Println(resultStyle.Render(msg.res.result())))
	}

	if len(cmds) == 0 {
		return nil
	}

	return tea.Sequence(cmds...)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.hintLine())
	b.WriteString("\n")

	return b.String()
}

// hintLine is the line under the input: progress, history position, a usage
// hint, a method signature or the completion bar.
func (m model) hintLine() string {
	input := m.input.Value()

	if m.busy {
		return hintStyle.Render("running... (Ctrl+C interrupts)")
	}

	if m.historyIdx < m.history.Len() {
		pos := lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx + 1))

		return hintStyle.Render(fmt.Sprintf("%s/%d", pos, m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeEval {
			return hintStyle.Render("Type statements or press Esc for commands")
		}

		return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")
	}

	if m.mode == modeEval && len(m.matches) == 0 {
		call := detectMethodCall(input, m.input.Position())
		if sig, ok := signatures[call.name]; ok && call.inCall {
			return sig.render(call.argIndex)
		}
	}

	return renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctx, "repl key", slog.String("key", msg.String()))

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.busy {
			m.cancel()

			return m, nil
		}

		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.refreshMatches(false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" && !m.busy {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.tabActive && len(m.matches) > 0 {
			m.tabActive = false
			m.refreshMatches(true)

			return m, nil
		}

		if m.busy {
			return m, nil
		}

		return m.submit()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyStep(-1, false), nil

	case tea.KeyDown:
		return m.historyStep(1, false), nil

	case tea.KeyShiftUp:
		return m.historyStep(-1, true), nil

	case tea.KeyShiftDown:
		return m.historyStep(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTab.text)
			m.input.SetCursor(m.preTab.cursor)
			m.refreshMatches(false)

			return m, nil
		}

		if m.mode == modeEval {
			return m.switchMode(modeCtrl), nil
		}

		return m.switchMode(modeEval), nil
	}

	typing := msg.Type == tea.KeyRunes
	if !typing || msg.String() == " " {
		m.tabActive = false
	}

	var cmd tea.Cmd

	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refreshMatches(typing)

	return m, cmd
}

// cycle moves the completion selection by step, starting a tab cycle when
// none is active. A single candidate is accepted immediately.
func (m model) cycle(step int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	if n == 1 {
		m.replaceWord(m.matches[0].Str)
		m.tabActive, m.suggIdx, m.matches = false, -1, nil

		return m
	}

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + step + n) % n
	case step > 0:
		m.suggIdx = 0
	default:
		m.suggIdx = n - 1
	}

	if !m.tabActive {
		m.tabActive = true
		m.preTab = draft{m.input.Value(), m.input.Position()}
	}

	m.replaceWord(m.matches[m.suggIdx].Str)

	return m
}

// replaceWord replaces the current word with s and moves the cursor after it.
func (m *model) replaceWord(s string) {
	input := m.input.Value()

	m.input.SetValue(input[:m.wordStart] + s + input[m.wordEnd:])
	m.input.SetCursor(m.wordStart + len(s))
	m.wordEnd = m.wordStart + len(s)
}

// refreshMatches recomputes completions. With accept set, a word that
// already equals its only candidate is accepted.
func (m *model) refreshMatches(accept bool) {
	m.matches, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !accept || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.tabActive, m.suggIdx, m.matches = false, -1, nil
	}
}

func (m model) submit() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.drafts = [2]draft{}
	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctx, "history not saved", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		return m.command(input)
	}

	m.logger.TraceContext(m.ctx, "repl eval", slog.String("input", input))

	echo := tea.Println(promptStyle.Render(evalPrompt) + inputStyle.Render(input))

	m, run := m.startEval(input)

	return m, tea.Sequence(echo, run)
}

// startEval evaluates input in the background. Ctrl+C cancels it.
func (m model) startEval(input string) (model, tea.Cmd) {
	ctx, cancel := context.WithCancel(m.ctx)
	m.busy, m.cancel = true, cancel

	sess, logger := m.sess, m.logger

	return m, func() tea.Msg {
		defer cancel()

		var buf bytes.Buffer

		res := evaluate(ctx, sess, &buf, input, logger)

		return evalDoneMsg{output: buf.String(), res: res}
	}
}

func (m model) command(input string) (model, tea.Cmd) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	m.logger.TraceContext(m.ctx, "repl command",
		slog.String("command", name),
		slog.String("arg", arg))

	echo := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input))

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage))

	case "c", "clear":
		return m, tea.ClearScreen
	}

	if m.busy {
		return m, tea.Sequence(echo, tea.Println(errorStyle.Render("busy (Ctrl+C interrupts)")))
	}

	switch name {
	case "v", "vars":
		return m, tea.Sequence(echo, tea.Println(m.varsView()))

	case "r", "run":
		if arg == "" {
			return m, tea.Sequence(echo, tea.Println(errorStyle.Render("usage: run FILE")))
		}

		m, run := m.startEval("run " + arg)

		return m, tea.Sequence(echo, run)

	case "e", "edit":
		return m, tea.Sequence(echo, m.edit())
	}

	return m, tea.Println(errorStyle.Render("unknown command: " + name + " (try 'help')"))
}

// edit suspends the program and opens the scratch buffer in $EDITOR.
func (m model) edit() tea.Cmd {
	cmd := &editCommand{ctx: m.ctx, scratch: m.scratch, logger: m.logger}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editCancelledMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.source == "":
			return editCancelledMsg{}
		}

		return editDoneMsg{source: cmd.source}
	})
}

const previewWidth = 48

func (m model) varsView() string {
	var b strings.Builder

	for name, v := range m.sess.Bindings() {
		preview := lang.Repr(v)
		if len(preview) > previewWidth {
			preview = preview[:previewWidth-3] + "..."
		}

		fmt.Fprintf(&b, "  %s %s %s\n", name, hintStyle.Render(v.Type()), preview)
	}

	if b.Len() == 0 {
		return hintStyle.Render("  no variables")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// historyStep moves through history by step. With sameMode set only entries
// of the current mode are visited; otherwise the mode follows the entry.
func (m model) historyStep(step int, sameMode bool) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil || sameMode && entry.Mode != m.mode {
			continue
		}

		if entry.Mode != m.mode {
			m = m.switchMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		m.refreshMatches(false)

		return m
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		m.refreshMatches(false)
	}

	return m
}

// switchMode saves the input of the current mode and restores that of mode.
func (m model) switchMode(mode inputMode) model {
	m.drafts[m.mode] = draft{m.input.Value(), m.input.Position()}
	m.mode = mode
	m.tabActive = false

	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.input.SetValue(m.drafts[mode].text)
	m.input.SetCursor(m.drafts[mode].cursor)
	m.refreshMatches(false)

	return m
}
