package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"medassist/internal/domain"
)

// QAPort is the TUI-facing subset of the document pipeline.
type QAPort interface {
	Answer(ctx context.Context, question string) (domain.Answer, error)
	Ready() bool
}

type exchange struct {
	question string
	answer   domain.Answer
	err      error
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	pipeline    QAPort
	input       textinput.Model
	viewport    viewport.Model
	history     []exchange
	status      string
	showSources bool
	ready       bool
}

// New creates a new chat model. The summary line describes what was
// ingested at startup.
func New(pipeline QAPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your documents"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	status := summary
	if !pipeline.Ready() {
		status = "No documents indexed yet. Upload documents before asking questions."
	}
	return Model{pipeline: pipeline, input: ti, viewport: vp, status: status}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		vh := msg.Height - fh - qh - 3
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderHistory())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				answer, err := m.pipeline.Answer(context.Background(), q)
				m.history = append(m.history, exchange{question: q, answer: answer, err: err})
				if err != nil {
					m.status = "Error: " + err.Error()
				} else {
					m.status = fmt.Sprintf("Answered with %d sources. Press ctrl+s to toggle citations.", len(answer.Sources))
				}
				m.input.Reset()
				m.viewport.SetContent(m.renderHistory())
				m.viewport.GotoBottom()
				return m, nil
			}
		case "ctrl+s":
			m.showSources = !m.showSources
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoBottom()
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Medical Document Assistant")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "Ask a question to get started."
	}
	var b strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("You: " + ex.question))
		b.WriteString("\n")
		if ex.err != nil {
			b.WriteString(errorStyle.Render(ex.err.Error()))
			continue
		}
		b.WriteString(ex.answer.Text)
		if m.showSources && len(ex.answer.Sources) > 0 {
			b.WriteString("\n")
			for j, src := range ex.answer.Sources {
				b.WriteString(sourceStyle.Render(fmt.Sprintf("\nSource %d: %s (chunk %d)\n%s", j+1, src.Source, src.Chunk, src.Excerpt)))
			}
		}
	}
	return b.String()
}

var (
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
