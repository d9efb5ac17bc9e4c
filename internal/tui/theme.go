package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bft-labs/icmprog/internal/app"
)

// Theme defines the color palette for the operator screen.
type Theme struct {
	TextPrimary lipgloss.Color
	TextDim     lipgloss.Color
	Border      lipgloss.Color
	Accent      lipgloss.Color
	Success     lipgloss.Color
	Warning     lipgloss.Color
	Error       lipgloss.Color
	Running     lipgloss.Color
	BadgeText   lipgloss.Color
}

// DefaultTheme is a dark palette readable from a distance on a line monitor.
var DefaultTheme = Theme{
	TextPrimary: lipgloss.Color("#c0caf5"),
	TextDim:     lipgloss.Color("#565f89"),
	Border:      lipgloss.Color("#414868"),
	Accent:      lipgloss.Color("#7aa2f7"),
	Success:     lipgloss.Color("#9ece6a"),
	Warning:     lipgloss.Color("#e0af68"),
	Error:       lipgloss.Color("#f7768e"),
	Running:     lipgloss.Color("#e0af68"),
	BadgeText:   lipgloss.Color("#1a1b26"),
}

// Styles provides pre-configured lipgloss styles using the theme.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Dim     lipgloss.Style
	Panel   lipgloss.Style
	Footer  lipgloss.Style
	Input   lipgloss.Style
	Message map[app.Level]lipgloss.Style

	badge lipgloss.Style
	theme Theme
}

// NewStyles creates a new Styles instance from a Theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true).
			Padding(0, 1),
		Label: lipgloss.NewStyle().
			Foreground(t.TextDim).
			Width(16),
		Value: lipgloss.NewStyle().
			Foreground(t.TextPrimary).
			Bold(true),
		Dim: lipgloss.NewStyle().Foreground(t.TextDim),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(1, 2),
		Footer: lipgloss.NewStyle().Foreground(t.TextDim),
		Input:  lipgloss.NewStyle().Foreground(t.Accent),
		Message: map[app.Level]lipgloss.Style{
			app.LevelInfo:    lipgloss.NewStyle().Foreground(t.TextPrimary),
			app.LevelSuccess: lipgloss.NewStyle().Foreground(t.Success),
			app.LevelWarn:    lipgloss.NewStyle().Foreground(t.Warning),
			app.LevelError:   lipgloss.NewStyle().Foreground(t.Error),
		},
		badge: lipgloss.NewStyle().
			Foreground(t.BadgeText).
			Bold(true).
			Padding(0, 2),
		theme: t,
	}
}

// DefaultStyles returns styles using the default theme.
var DefaultStyles = NewStyles(DefaultTheme)

// Badge renders the operator status with its color.
func (s Styles) Badge(status string) string {
	return s.badge.Background(s.BadgeColor(status)).Render(status)
}

// BadgeColor picks the badge background for a status.
func (s Styles) BadgeColor(status string) lipgloss.Color {
	switch status {
	case app.StatusPass:
		return s.theme.Success
	case app.StatusFail, app.StatusAlreadyProgrammed:
		return s.theme.Error
	case app.StatusRunning:
		return s.theme.Running
	case app.StatusScanUnit:
		return s.theme.Accent
	default:
		return s.theme.TextDim
	}
}
