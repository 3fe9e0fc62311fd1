package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/flix/internal/validation"
)

// field is one labelled input. key matches the json name used in validation errors.
type field struct {
	key   string
	label string
	input textinput.Model
}

// form is a vertical stack of text inputs with one focused at a time.
type form struct {
	title  string
	fields []field
	focus  int
	errs   validation.Errors
}

type fieldSpec struct {
	key         string
	label       string
	placeholder string
	value       string
	secret      bool
}

func newForm(title string, specs ...fieldSpec) *form {
	f := &form{title: title}
	for _, s := range specs {
		in := textinput.New()
		in.Placeholder = s.placeholder
		in.CharLimit = 128
		in.SetValue(s.value)
		if s.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.fields = append(f.fields, field{key: s.key, label: s.label, input: in})
	}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(i int) tea.Cmd {
	n := len(f.fields)
	if n == 0 {
		return nil
	}
	f.focus = ((i % n) + n) % n

	var cmd tea.Cmd
	for j := range f.fields {
		if j == f.focus {
			cmd = f.fields[j].input.Focus()
		} else {
			f.fields[j].input.Blur()
		}
	}
	return cmd
}

func (f *form) next() tea.Cmd { return f.setFocus(f.focus + 1) }
func (f *form) prev() tea.Cmd { return f.setFocus(f.focus - 1) }

// value returns the trimmed input for key. Secret fields are returned as typed.
func (f *form) value(key string) string {
	for _, fl := range f.fields {
		if fl.key == key {
			if fl.input.EchoMode == textinput.EchoPassword {
				return fl.input.Value()
			}
			return strings.TrimSpace(fl.input.Value())
		}
	}
	return ""
}

// set replaces the input for key.
func (f *form) set(key, v string) {
	for i := range f.fields {
		if f.fields[i].key == key {
			f.fields[i].input.SetValue(v)
		}
	}
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *form) view() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(f.title))
	b.WriteString("\n")

	for i, fl := range f.fields {
		label := fl.label
		if i == f.focus {
			label = styles.info.Render(label)
		}
		b.WriteString(label + "\n")
		b.WriteString(fl.input.View() + "\n")
		if msg := f.errs.Field(fl.key); msg != "" {
			b.WriteString(styles.err.Render(msg) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
