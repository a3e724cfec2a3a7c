package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// authForm is the sign in form, or the registration form when register is set.
type authForm struct {
	register bool
	inputs   []textinput.Model
	focus    int
	err      string
	pending  bool
}

func newTextInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func newAuthForm(register bool) authForm {
	labels := []string{"Username", "Password"}
	if register {
		labels = append(labels, "Confirm password")
	}

	inputs := make([]textinput.Model, len(labels))
	for i, label := range labels {
		inputs[i] = newTextInput(label, 32)
		if i > 0 {
			inputs[i].EchoMode = textinput.EchoPassword
			inputs[i].EchoCharacter = '•'
		}
	}
	inputs[0].Focus()

	return authForm{register: register, inputs: inputs}
}

func (f authForm) title() string {
	if f.register {
		return "Create an account"
	}
	return "Sign in"
}

func (f authForm) values() (username, password, confirm string) {
	username, password = f.inputs[0].Value(), f.inputs[1].Value()
	if f.register {
		confirm = f.inputs[2].Value()
	}
	return
}

// move shifts focus by delta, wrapping around.
func (f *authForm) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

// onLast reports whether the focused input is the final field.
func (f authForm) onLast() bool { return f.focus == len(f.inputs)-1 }

func (f authForm) update(msg tea.Msg) (authForm, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f authForm) view() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(f.title()))
	b.WriteString("\n")
	for _, in := range f.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if f.pending {
		b.WriteString("\n" + styles.help.Render("Contacting the server..."))
	}
	if f.err != "" {
		b.WriteString("\n" + styles.err.Render(f.err))
	}
	return b.String()
}
