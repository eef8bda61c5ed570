// Package review lets a user accept or reject proposed fixes before the
// Corrector applies them.
package review

import (
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reloquent/schemaforge/internal/correction"
	"github.com/reloquent/schemaforge/internal/schema"
	"github.com/reloquent/schemaforge/internal/validation"
)

// ErrCancelled is returned when the user quits the review.
var ErrCancelled = errors.New("review cancelled")

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).BorderStyle(lipgloss.DoubleBorder()).BorderBottom(true).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// Model is the bubbletea model listing proposed fixes with a checkbox each.
// Every fix starts selected.
type Model struct {
	fixes     []correction.Fix
	selected  []bool
	cursor    int
	done      bool
	cancelled bool
	width     int
	height    int
}

// NewModel creates a review model for the given fixes.
func NewModel(fixes []correction.Fix) Model {
	sel := make([]bool, len(fixes))
	for i := range sel {
		sel[i] = true
	}
	return Model{
		fixes:    fixes,
		selected: sel,
		width:    100,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.done = true
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			m.done = true
			return m, tea.Quit

		case "j", "down":
			if m.cursor < len(m.fixes)-1 {
				m.cursor++
			}

		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}

		case " ", "x":
			if m.cursor < len(m.selected) {
				m.selected[m.cursor] = !m.selected[m.cursor]
			}

		case "a":
			m.setAll(true)

		case "n":
			m.setAll(false)
		}
	}

	return m, nil
}

func (m *Model) setAll(v bool) {
	sel := make([]bool, len(m.selected))
	for i := range sel {
		sel[i] = v
	}
	m.selected = sel
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Review proposed fixes"))
	b.WriteString("\n\n")

	if len(m.fixes) == 0 {
		b.WriteString("  No fixes to review.\n\n")
		b.WriteString(dimStyle.Render("  Press enter to continue • q to cancel\n"))
		return b.String()
	}

	maxVisible := m.height - 8
	if maxVisible < 5 {
		maxVisible = 5
	}
	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	end := min(start+maxVisible, len(m.fixes))

	for i := start; i < end; i++ {
		f := m.fixes[i]
		cursor := "  "
		if i == m.cursor {
			cursor = highlightStyle.Render("> ")
		}
		box := "[ ]"
		if m.selected[i] {
			box = successStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s%s %-20s %s", cursor, box, f.Type, f.Description)
		if f.Impact != "" {
			line += dimStyle.Render(" (" + f.Impact + ")")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %d of %d selected\n", m.count(), len(m.fixes)))
	b.WriteString(dimStyle.Render("  space toggle • a all • n none • enter apply • q cancel\n"))

	return b.String()
}

func (m Model) count() int {
	n := 0
	for _, s := range m.selected {
		if s {
			n++
		}
	}
	return n
}

// Decisions maps each fix key to whether it was accepted.
func (m Model) Decisions() map[string]bool {
	out := make(map[string]bool, len(m.fixes))
	for i, f := range m.fixes {
		out[f.Key()] = m.selected[i]
	}
	return out
}

// Done returns true when the model is finished.
func (m Model) Done() bool {
	return m.done
}

// Cancelled returns true if the user cancelled.
func (m Model) Cancelled() bool {
	return m.done && m.cancelled
}

// Prompter asks for a decision on each proposed fix, keyed by Fix.Key.
type Prompter func(fixes []correction.Fix) (map[string]bool, error)

// Terminal returns a Prompter that runs the review model on the given
// input and output.
func Terminal(in io.Reader, out io.Writer) Prompter {
	return func(fixes []correction.Fix) (map[string]bool, error) {
		p := tea.NewProgram(NewModel(fixes), tea.WithInput(in), tea.WithOutput(out))
		final, err := p.Run()
		if err != nil {
			return nil, fmt.Errorf("running review: %w", err)
		}
		m := final.(Model)
		if m.Cancelled() {
			return nil, ErrCancelled
		}
		return m.Decisions(), nil
	}
}

// maxRounds bounds the number of review rounds. Each round decides at
// least one new fix, so the bound is only reached on pathological input.
const maxRounds = 20

// Correct runs the Corrector with the user's decisions. Rejecting a rename
// can change the targets of later fixes; those fixes are new proposals
// and are put to the user in a further round.
func Correct(m *schema.Model, issues []validation.Issue, opts correction.Options, prompt Prompter) (*correction.Result, error) {
	decisions := make(map[string]bool)
	for range maxRounds {
		var pending []correction.Fix
		run := opts
		run.Accept = func(f correction.Fix) bool {
			ok, seen := decisions[f.Key()]
			if !seen {
				pending = append(pending, f)
				return true
			}
			return ok
		}
		res, err := correction.Correct(m, issues, run)
		if err != nil {
			return nil, err
		}
		if len(pending) == 0 {
			return res, nil
		}
		got, err := prompt(pending)
		if err != nil {
			return nil, err
		}
		for _, f := range pending {
			decisions[f.Key()] = got[f.Key()]
		}
	}
	return nil, fmt.Errorf("review did not settle after %d rounds", maxRounds)
}
