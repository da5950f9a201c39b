package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// textField is a single-line input that edits at the end of its value.
type textField struct {
	label       string
	placeholder string
	masked      bool
	value       []rune
}

func (f *textField) Value() string {
	return string(f.value)
}

func (f *textField) Reset() {
	f.value = f.value[:0]
}

// handleKey applies an editing key and reports whether it was consumed.
func (f *textField) handleKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if r == '\n' || r == '\r' {
				continue
			}
			f.value = append(f.value, r)
		}
		return true
	case tea.KeySpace:
		f.value = append(f.value, ' ')
		return true
	case tea.KeyBackspace:
		if len(f.value) > 0 {
			f.value = f.value[:len(f.value)-1]
		}
		return true
	case tea.KeyCtrlU:
		f.Reset()
		return true
	}
	return false
}

func (f *textField) view(focused bool) string {
	var b strings.Builder
	label := labelStyle.Render(f.label + ":")
	b.WriteString(label + " ")

	switch {
	case len(f.value) == 0 && f.placeholder != "":
		b.WriteString(placeholderStyle.Render(f.placeholder))
	case f.masked:
		b.WriteString(strings.Repeat("*", len(f.value)))
	default:
		b.WriteString(string(f.value))
	}
	if focused {
		b.WriteString(cursorStyle.Render("_"))
		return focusedFieldStyle.Render(b.String())
	}
	return fieldStyle.Render(b.String())
}
