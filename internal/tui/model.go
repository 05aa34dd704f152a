// Package tui is a terminal front end for the intake form, used by staff
// taking enquiries over the phone.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kiliankoe/cdrintake/internal/intake"
)

type mode int

const (
	modeInput mode = iota
	modeOptions
	modeOverride
	modeCountry
	modeDone
)

// SubmitFunc receives the answers once the last step is committed.
type SubmitFunc func(intake.Submission) error

type Model struct {
	sess     *intake.Session
	steps    []intake.StepDefinition
	onSubmit SubmitFunc

	input   textinput.Model
	mode    mode
	cursor  int
	matches []intake.Country
	notice  string
	err     error

	styles Styles
}

func New(sess *intake.Session, steps []intake.StepDefinition, onSubmit SubmitFunc) Model {
	ti := textinput.New()
	ti.CharLimit = 500
	ti.Width = 60
	ti.Focus()
	m := Model{sess: sess, steps: steps, onSubmit: onSubmit, input: ti, styles: DefaultStyles()}
	m.enterStep(sess.Snapshot())
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Session() *intake.Session { return m.sess }

// enterStep prepares the widgets for the step the snapshot points at.
func (m *Model) enterStep(snap intake.Snapshot) {
	m.cursor = 0
	if snap.Complete || snap.Step == nil {
		m.mode = modeDone
		m.input.Blur()
		return
	}
	st := *snap.Step
	m.input.Placeholder = st.Placeholder
	if st.Kind == intake.KindPhone {
		m.input.Placeholder = snap.SelectedCountry.ExampleFormat
	}
	if st.Kind == intake.KindSelect {
		m.mode = modeOptions
		for i, o := range st.Options {
			if o == snap.Scratch {
				m.cursor = i
			}
		}
		m.input.SetValue(snap.Override)
		return
	}
	m.mode = modeInput
	m.input.SetValue(snap.Scratch)
	m.input.CursorEnd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+r":
		m.notice, m.err = "", nil
		m.enterStep(m.sess.Reset())
		return m, nil
	}
	switch m.mode {
	case modeDone:
		return m, tea.Quit
	case modeOptions:
		return m.updateOptions(key)
	case modeCountry:
		return m.updateCountry(key)
	default:
		return m.updateInput(key)
	}
}

func (m Model) updateInput(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.sess.Snapshot()
	switch key.String() {
	case "enter":
		if m.mode == modeOverride {
			_ = m.sess.UpdateScratch(intake.OtherOption)
			_ = m.sess.UpdateOverride(m.input.Value())
		} else {
			_ = m.sess.UpdateScratch(m.input.Value())
		}
		return m.advance()
	case "esc":
		if m.mode == modeOverride {
			m.mode = modeOptions
			return m, nil
		}
		return m.retreat()
	case "ctrl+k":
		if snap.Step != nil && snap.Step.Kind == intake.KindPhone {
			_ = m.sess.UpdateScratch(m.input.Value())
			if _, err := m.sess.OpenSelector(); err == nil {
				m.mode = modeCountry
				m.cursor = 0
				m.input.SetValue("")
				m.matches = m.sess.Snapshot().Selector.Matches
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

func (m Model) updateOptions(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.sess.Snapshot()
	if snap.Step == nil {
		return m, nil
	}
	opts := snap.Step.Options
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(opts)-1 {
			m.cursor++
		}
	case "esc":
		return m.retreat()
	case "enter":
		choice := opts[m.cursor]
		if choice == intake.OtherOption {
			m.mode = modeOverride
			m.input.Placeholder = "Your engineering field"
			m.input.CursorEnd()
			return m, nil
		}
		_ = m.sess.UpdateScratch(choice)
		_ = m.sess.UpdateOverride("")
		return m.advance()
	}
	return m, nil
}

func (m Model) updateCountry(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		_, _ = m.sess.CloseSelector()
		m.enterStep(m.sess.Snapshot())
		return m, nil
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.matches)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if len(m.matches) == 0 {
			return m, nil
		}
		if err := m.sess.SelectCountry(m.matches[m.cursor].Code); err != nil {
			m.err = err
		}
		m.enterStep(m.sess.Snapshot())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	view, _ := m.sess.SetSelectorQuery(m.input.Value())
	m.matches = view.Matches
	m.cursor = 0
	return m, cmd
}

func (m Model) advance() (tea.Model, tea.Cmd) {
	snap, err := m.sess.Advance()
	if err != nil {
		if errors.Is(err, intake.ErrInvalidStepValue) {
			m.notice = "Please fill this in before continuing."
		}
		return m, nil
	}
	m.notice = ""
	if snap.JustCompleted && m.onSubmit != nil && snap.Submission != nil {
		m.err = m.onSubmit(*snap.Submission)
	}
	m.enterStep(snap)
	return m, nil
}

func (m Model) retreat() (tea.Model, tea.Cmd) {
	snap, err := m.sess.Retreat()
	if err != nil {
		return m, nil
	}
	m.notice = ""
	m.enterStep(snap)
	return m, nil
}

func (m Model) View() string {
	snap := m.sess.Snapshot()
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("CDR consultation request"))
	b.WriteString("\n\n")

	if m.mode == modeDone {
		b.WriteString(m.styles.Done.Render("Thanks! Our CDR writers will be in touch."))
		b.WriteString("\n\n")
		for _, st := range m.steps {
			b.WriteString(fmt.Sprintf("  %-8s %s\n", st.ID, snap.Answers[st.ID]))
		}
		if m.err != nil {
			b.WriteString("\n" + m.styles.Error.Render("Could not save submission: "+m.err.Error()) + "\n")
		}
		b.WriteString("\n" + m.styles.Muted.Render("press any key to exit"))
		return b.String()
	}

	b.WriteString(m.styles.Progress.Render(fmt.Sprintf("Step %d of %d", snap.StepIndex+1, snap.StepCount)))
	b.WriteString("\n")
	b.WriteString(m.styles.Prompt.Render(snap.Step.Prompt))
	b.WriteString("\n\n")

	switch m.mode {
	case modeOptions:
		for i, o := range snap.Step.Options {
			line := "  " + o
			if i == m.cursor {
				line = m.styles.Selected.Render("> " + o)
			}
			b.WriteString(line + "\n")
		}
	case modeCountry:
		b.WriteString("Search country: " + m.input.View() + "\n")
		if len(m.matches) == 0 {
			b.WriteString(m.styles.Muted.Render("  no matches") + "\n")
		}
		for i, c := range m.matches {
			line := fmt.Sprintf("  %s %s (%s)", c.CallingCode, c.Name, c.Code)
			if i == m.cursor {
				line = m.styles.Selected.Render("> " + strings.TrimPrefix(line, "  "))
			}
			b.WriteString(line + "\n")
		}
	case modeOverride:
		b.WriteString("Other: " + m.input.View() + "\n")
	default:
		if snap.Step.Kind == intake.KindPhone {
			b.WriteString(snap.SelectedCountry.CallingCode + " ")
		}
		b.WriteString(m.input.View() + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + m.styles.Error.Render(m.notice) + "\n")
	}
	help := "enter continue • esc back • ctrl+r restart • ctrl+c quit"
	if snap.Step.Kind == intake.KindPhone && m.mode == modeInput {
		help = "ctrl+k change country • " + help
	}
	b.WriteString("\n" + m.styles.Muted.Render(help))
	return b.String()
}
