package main

import (
	"fmt"
	"strings"

	"warranty-registration/models"
	"warranty-registration/wizard"

	"github.com/charmbracelet/lipgloss"
)

// viewRenderer draws a wizard view for the terminal in the merchant's colour
type viewRenderer struct {
	title   lipgloss.Style
	current lipgloss.Style
	muted   lipgloss.Style
	label   lipgloss.Style
	error   lipgloss.Style
	control lipgloss.Style
}

func newViewRenderer(branding models.Branding) viewRenderer {
	primary := lipgloss.Color(branding.PrimaryColor)
	muted := lipgloss.Color("245")
	return viewRenderer{
		title:   lipgloss.NewStyle().Bold(true).Foreground(primary),
		current: lipgloss.NewStyle().Bold(true).Foreground(primary),
		muted:   lipgloss.NewStyle().Foreground(muted),
		label:   lipgloss.NewStyle().Bold(true),
		error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		control: lipgloss.NewStyle().Foreground(primary).Padding(0, 1).Border(lipgloss.NormalBorder()).BorderForeground(primary),
	}
}

func (r viewRenderer) Render(v wizard.View) string {
	if v.Closed {
		return r.muted.Render("Registration closed.")
	}

	var b strings.Builder

	steps := make([]string, len(v.Steps))
	for i, step := range v.Steps {
		text := fmt.Sprintf("%d %s", i+1, step)
		if i+1 == v.Step {
			steps[i] = r.current.Render(text)
		} else {
			steps[i] = r.muted.Render(text)
		}
	}
	b.WriteString(strings.Join(steps, r.muted.Render("  >  ")))
	b.WriteString("\n\n")

	b.WriteString(r.title.Render(v.Title))
	b.WriteString("\n")
	for _, line := range v.Lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if v.Email != "" {
		b.WriteString(r.label.Render(v.Email))
		b.WriteString("\n")
	}

	if len(v.Fields) > 0 {
		b.WriteString("\n")
	}
	for _, f := range v.Fields {
		value := f.Value
		if value == "" {
			value = r.muted.Render(f.Placeholder)
		}
		fmt.Fprintf(&b, "%s (%s): %s\n", r.label.Render(f.Label), f.Field, value)
		if f.Error != "" {
			b.WriteString(r.error.Render("  " + f.Error))
			b.WriteString("\n")
		}
	}

	if len(v.Controls) > 0 {
		controls := make([]string, len(v.Controls))
		for i, c := range v.Controls {
			controls[i] = r.control.Render(fmt.Sprintf("%s [%s]", c.Label, c.Control))
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, controls...))
	}

	return b.String()
}
