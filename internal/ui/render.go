// Package ui provides terminal rendering helpers for the taskboard CLI.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/taskboard/internal/board"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Faint(true)

	statusStyles = map[board.Status]lipgloss.Style{
		board.StatusTodo:       lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		board.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		board.StatusReview:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		board.StatusDone:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}

	priorityStyles = map[board.Priority]lipgloss.Style{
		board.PriorityLow:    dimStyle,
		board.PriorityMedium: lipgloss.NewStyle(),
		board.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
)

// RenderPass renders a success marker.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn renders a warning marker.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderFail renders a failure marker.
func RenderFail(s string) string { return failStyle.Render(s) }

// RenderAccent renders accented text.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderDim renders de-emphasized text.
func RenderDim(s string) string { return dimStyle.Render(s) }

// RenderStatus renders a board column name in its color.
func RenderStatus(s board.Status) string {
	if style, ok := statusStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}

// RenderPriority renders a priority level in its color.
func RenderPriority(p board.Priority) string {
	if style, ok := priorityStyles[p]; ok {
		return style.Render(string(p))
	}
	return string(p)
}
