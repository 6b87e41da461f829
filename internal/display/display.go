// Package display animates the frames of a transfer in a terminal.
package display

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// A Source produces frames forever.
type Source interface {
	Next() string
	Parts() int
}

// Model is a bubbletea model that shows the frames of a Source one
// after the other.
type Model struct {
	src      Source
	title    string
	interval time.Duration

	frame  string
	shown  int
	paused bool
	width  int
}

type tickMsg time.Time

// New returns a Model showing fps frames of src per second.
func New(src Source, title string, fps int) *Model {
	if fps <= 0 {
		fps = 1
	}
	m := &Model{
		src:      src,
		title:    title,
		interval: time.Second / time.Duration(fps),
	}
	m.advance()
	return m
}

func (m *Model) advance() {
	m.frame = m.src.Next()
	m.shown++
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		case "right", "n":
			m.advance()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		if !m.paused {
			m.advance()
		}
		return m, m.tick()
	}
	return m, nil
}

// Frame returns the frame currently shown.
func (m *Model) Frame() string { return m.frame }

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	style := frameStyle
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	b.WriteString(style.Render(m.frame))
	b.WriteString("\n")

	parts := m.src.Parts()
	status := fmt.Sprintf("frame %d, %d parts, %s per frame", m.shown, parts, m.interval)
	b.WriteString(statusStyle.Render(status))
	if m.paused {
		b.WriteString(" " + pausedStyle.Render("paused"))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space: pause  n: next  q: quit"))
	b.WriteString("\n")
	return b.String()
}
