package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/revise/internal/app"
	"github.com/sokinpui/revise/model"
)

// --- Styles ---
var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")) // Mauve
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))            // Green
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))           // Red
	pathStyle     = lipgloss.NewStyle()
	faintStyle    = lipgloss.NewStyle().Faint(true)
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	deletedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("197")).Strikethrough(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	acceptedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true)
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("197")).Bold(true)
)

// Reviewer runs the stages of an interactive review.
type Reviewer interface {
	Prepare(ctx context.Context) (model.DiffEvent, error)
	Decide(ctx context.Context, eventID, lineID string, decision model.Decision) (model.DiffLine, error)
	Complete(ctx context.Context, eventID string, bulkAccept bool) (model.Summary, error)
	Abort(ctx context.Context, eventID string) error
}

// --- Messages ---
type eventMsg struct{ event model.DiffEvent }

type decidedMsg struct {
	index int
	line  model.DiffLine
}

type summaryMsg struct {
	model.Summary
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

// --- Model ---
type Model struct {
	reviewer    Reviewer
	ctx         context.Context
	spinner     spinner.Model
	noAnimation bool
	state       state
	event       model.DiffEvent
	cursor      int
	height      int
	notice      string
	summary     summaryMsg
	err         error
}

type state int

const (
	stateLoading state = iota
	stateReview
	stateFinalizing
	stateSummary
	stateError
)

func New(ctx context.Context, r Reviewer, noAnimation bool) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		reviewer:    r,
		ctx:         ctx,
		spinner:     s,
		noAnimation: noAnimation,
		state:       stateLoading,
		height:      20,
	}
}

func (m Model) Init() tea.Cmd {
	if m.noAnimation {
		return m.prepare
	}
	return tea.Batch(m.spinner.Tick, m.prepare)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 3)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		if msg.event.ID == "" {
			m.state = stateSummary
			m.summary = summaryMsg{model.Summary{Message: "Source is empty. Nothing to review."}}
			return m, tea.Quit
		}
		m.state = stateReview
		m.event = msg.event
		m.cursor = nextChange(m.event.Lines, -1, 1)
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case decidedMsg:
		m.event.Lines[msg.index] = msg.line
		m.notice = ""
		if next := nextChange(m.event.Lines, m.cursor, 1); next >= 0 {
			m.cursor = next
		}
		return m, nil

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg
		return m, tea.Quit

	case errorMsg:
		if m.state == stateReview {
			// A rejected decision keeps the review open.
			m.notice = msg.Error()
			return m, nil
		}
		m.state = stateError
		m.err = msg
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateLoading || m.state == stateFinalizing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state != stateReview {
		if msg.String() == "ctrl+c" || (m.state != stateLoading && m.state != stateFinalizing && msg.String() == "q") {
			return m, tea.Quit
		}
		return m, nil
	}

	lines := m.event.Lines
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, m.abort
	case "j", "down":
		if m.cursor < len(lines)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "n", "tab":
		if next := nextChange(lines, m.cursor, 1); next >= 0 {
			m.cursor = next
		}
	case "p", "shift+tab":
		if prev := nextChange(lines, m.cursor, -1); prev >= 0 {
			m.cursor = prev
		}
	case "a":
		return m, m.decide(model.DecisionAccepted)
	case "r":
		return m, m.decide(model.DecisionRejected)
	case "f", "enter", "A":
		m.state = stateFinalizing
		return m, m.complete(true)
	case "R":
		m.state = stateFinalizing
		return m, m.complete(false)
	}
	return m, nil
}

// nextChange finds the next non-equal line after from in direction dir, or -1.
func nextChange(lines []model.DiffLine, from, dir int) int {
	for i := from + dir; i >= 0 && i < len(lines); i += dir {
		if lines[i].Kind != model.OpEqual {
			return i
		}
	}
	return -1
}

func (m Model) prepare() tea.Msg {
	event, err := m.reviewer.Prepare(m.ctx)
	if err != nil {
		return m.failure(err)
	}
	return eventMsg{event}
}

func (m Model) decide(decision model.Decision) tea.Cmd {
	if len(m.event.Lines) == 0 {
		return nil
	}
	index := m.cursor
	eventID, lineID := m.event.ID, m.event.Lines[index].ID
	return func() tea.Msg {
		line, err := m.reviewer.Decide(m.ctx, eventID, lineID, decision)
		if err != nil {
			return errorMsg{err}
		}
		return decidedMsg{index: index, line: line}
	}
}

func (m Model) complete(bulkAccept bool) tea.Cmd {
	eventID := m.event.ID
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		summary, err := m.reviewer.Complete(m.ctx, eventID, bulkAccept)
		if err != nil {
			return m.failure(err)
		}
		return summaryMsg{summary}
	})
}

func (m Model) abort() tea.Msg {
	if err := m.reviewer.Abort(m.ctx, m.event.ID); err != nil {
		return errorMsg{err}
	}
	return summaryMsg{model.Summary{File: m.event.FileID, Message: "Review aborted. Nothing was changed."}}
}

func (m Model) failure(err error) tea.Msg {
	// Check for detailed error to print stack
	if e, ok := err.(*app.DetailedError); ok {
		// The TUI will exit, so we can print to stderr here for the stack trace.
		fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", e.Stack)
	}
	return errorMsg{err}
}

// Summary returns the outcome once the program has exited.
func (m Model) Summary() (model.Summary, error) {
	if m.state == stateError {
		return model.Summary{}, m.err
	}
	return m.summary.Summary, nil
}

func (m Model) View() string {
	switch m.state {
	case stateLoading:
		return fmt.Sprintf("%s Computing diff...", m.spinner.View())
	case stateFinalizing:
		return fmt.Sprintf("%s Recording version...", m.spinner.View())
	case stateReview:
		return m.renderReview()
	case stateError:
		return errorStyle.Render("Error: ", m.err.Error()) + "\n"
	case stateSummary:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m Model) renderReview() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Reviewing " + m.event.FileID))
	if m.event.Summary != "" {
		b.WriteString(faintStyle.Render("  " + m.event.Summary))
	}
	b.WriteString("\n\n")

	lines := m.event.Lines
	start := max(0, m.cursor-m.height/2)
	end := min(len(lines), start+m.height)
	for i := start; i < end; i++ {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		b.WriteString(cursor + renderLine(lines[i]) + "\n")
	}
	if len(lines) == 0 {
		b.WriteString(faintStyle.Render("  (empty)") + "\n")
	}

	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(errorStyle.Render(m.notice) + "\n")
	}
	b.WriteString(faintStyle.Render(fmt.Sprintf("%d/%d undecided  j/k move  n/p next change  a accept  r reject  f finish (accept rest)  R finish (reject rest)  q abort",
		undecided(lines), changes(lines))))
	return b.String()
}

func renderLine(l model.DiffLine) string {
	badge := "   "
	switch l.Decision {
	case model.DecisionAccepted:
		badge = acceptedStyle.Render("[a]")
	case model.DecisionRejected:
		badge = rejectedStyle.Render("[r]")
	}
	no := faintStyle.Render(fmt.Sprintf("%4d", l.LineNo))

	var text string
	switch l.Kind {
	case model.OpInsert:
		text = addedStyle.Render("+ " + *l.NewLine)
	case model.OpDelete:
		text = deletedStyle.Render("- " + *l.OldLine)
	case model.OpModify:
		text = deletedStyle.Render("~ "+*l.OldLine) + faintStyle.Render(" → ") + addedStyle.Render(*l.NewLine)
	default:
		text = faintStyle.Render("  " + *l.NewLine)
	}
	return fmt.Sprintf("%s %s %s", no, badge, text)
}

func changes(lines []model.DiffLine) int {
	n := 0
	for _, l := range lines {
		if l.Kind != model.OpEqual {
			n++
		}
	}
	return n
}

func undecided(lines []model.DiffLine) int {
	n := 0
	for _, l := range lines {
		if l.Kind != model.OpEqual && l.Decision == model.DecisionPending {
			n++
		}
	}
	return n
}

func (m Model) renderSummary() string {
	var b strings.Builder
	s := m.summary.Summary

	if s.Message != "" {
		b.WriteString(headerStyle.Render(s.Message))
		b.WriteString("\n\n")
	}
	if s.Version != "" {
		b.WriteString(successStyle.Render("Recorded version:"))
		b.WriteString(fmt.Sprintf(" %s\n", s.Version))
		b.WriteString(fmt.Sprintf("  %s  +%d ~%d -%d\n", pathStyle.Render(s.File), s.Added, s.Changed, s.Deleted))
	} else if s.Message == "" {
		b.WriteString(faintStyle.Render("Nothing to do."))
	}
	return b.String()
}
