// Package tui is a terminal viewer for recorded games. It loads a JSONL
// record and lets the user page through it with filters.
package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/deduction-bench/internal/gamelog"
	"github.com/tatianab/deduction-bench/internal/models"
)

type model struct {
	path      string
	records   []gamelog.Record
	shown     []gamelog.Record
	filter    gamelog.Filter
	filterErr string
	textInput textinput.Model
	viewport  viewport.Model
	ready     bool
	width     int
	height    int
}

var (
	privateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			PaddingLeft(1)

	publicStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	roundStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

func NewModel(path string, records []gamelog.Record) model {
	ti := textinput.New()
	ti.Placeholder = "type:VOTE_CAST player:2 round:3 public"
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 50

	m := model{path: path, records: records, textInput: ti}
	m.shown = records
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			f, err := ParseFilter(m.textInput.Value())
			if err != nil {
				m.filterErr = err.Error()
				return m, nil
			}
			m.filterErr = ""
			m.filter = f
			m.shown = gamelog.FilterRecords(m.records, f)
			m.viewport.SetContent(m.renderLog())
			m.viewport.GotoTop()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		logWidth := int(float64(msg.Width) * 0.72)
		if !m.ready {
			m.viewport = viewport.New(logWidth, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = logWidth
			m.viewport.Height = msg.Height - 6
		}
		m.viewport.SetContent(m.renderLog())
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if !m.ready {
		return "\n  Loading record...\n"
	}
	main := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), m.renderStats())
	help := helpStyle.Render("Filter with type:, player:, round: and public. Enter applies, arrows scroll, Esc quits.")
	parts := []string{main, "\n" + m.textInput.View()}
	if m.filterErr != "" {
		parts = append(parts, errStyle.Render(m.filterErr))
	}
	parts = append(parts, "\n"+help)
	return "\n" + lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func (m model) renderLog() string {
	width := m.viewport.Width
	var b strings.Builder
	round := -1
	for _, r := range m.shown {
		if r.Round != round {
			round = r.Round
			b.WriteString(roundStyle.Render(fmt.Sprintf("Round %d", round)) + "\n")
		}
		line := RenderRecord(r)
		if r.IsPrivate {
			b.WriteString(privateStyle.Width(width).Render(line))
		} else {
			b.WriteString(publicStyle.Width(width).Render(line))
		}
		b.WriteString("\n")
	}
	if len(m.shown) == 0 {
		b.WriteString(helpStyle.Render("(no matching entries)"))
	}
	return b.String()
}

func (m model) renderStats() string {
	all := gamelog.Summarize(m.records)
	content := titleStyle.Render("RECORD") + "\n" + m.path + "\n\n"
	content += titleStyle.Render("ENTRIES") + "\n"
	content += fmt.Sprintf("Total: %d\nPrivate: %d\nShown: %d\nGaps: %d\n\n",
		all.Total, all.Private, len(m.shown), gamelog.Gaps(m.records))
	content += titleStyle.Render("BY TYPE") + "\n"
	for _, t := range all.Types() {
		content += fmt.Sprintf("%s: %d\n", t, all.ByType[t])
	}
	if res := outcome(m.records); res != "" {
		content += "\n" + titleStyle.Render("OUTCOME") + "\n" + res + "\n"
	}
	stateWidth := int(float64(m.width) * 0.25)
	return statsStyle.Width(stateWidth).Height(m.viewport.Height).Render(content)
}

// outcome reads the winner from the GAME_END entry, if present.
func outcome(records []gamelog.Record) string {
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.EventType != models.EventGameEnd {
			continue
		}
		winner, _ := r.Data["winner"].(string)
		reason, _ := r.Data["reason"].(string)
		if winner == "" {
			return reason
		}
		return fmt.Sprintf("%s (%s)", winner, reason)
	}
	return ""
}

// RenderRecord formats one entry as a single line.
func RenderRecord(r gamelog.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", r.Seq, r.EventType)
	if r.PlayerID != nil {
		fmt.Fprintf(&b, " [player %d]", *r.PlayerID)
	}
	if r.IsPrivate {
		b.WriteString(" (private)")
	}
	keys := make([]string, 0, len(r.Data))
	for k := range r.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, r.Data[k])
	}
	return b.String()
}

// ParseFilter reads "type:X player:N round:N public" terms in any order.
func ParseFilter(s string) (gamelog.Filter, error) {
	var f gamelog.Filter
	for _, term := range strings.Fields(s) {
		key, val, ok := strings.Cut(term, ":")
		if !ok {
			if strings.EqualFold(term, "public") {
				f.PublicOnly = true
				continue
			}
			return gamelog.Filter{}, fmt.Errorf("unknown filter term %q", term)
		}
		switch strings.ToLower(key) {
		case "type":
			f.Type = models.EventType(strings.ToUpper(val))
		case "player":
			n, err := strconv.Atoi(val)
			if err != nil {
				return gamelog.Filter{}, fmt.Errorf("player must be a number, got %q", val)
			}
			f.Player = models.Target(models.PlayerID(n))
		case "round":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return gamelog.Filter{}, fmt.Errorf("round must be a positive number, got %q", val)
			}
			f.Round = n
		default:
			return gamelog.Filter{}, fmt.Errorf("unknown filter key %q", key)
		}
	}
	return f, nil
}

// Run loads the record at path and starts the viewer.
func Run(path string) error {
	records, err := gamelog.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := gamelog.Replay(records); err != nil {
		return err
	}
	p := tea.NewProgram(NewModel(path, records), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
