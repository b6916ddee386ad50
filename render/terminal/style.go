package terminal

import "github.com/charmbracelet/lipgloss"

// duo pairs the light-terminal and dark-terminal variants of a color.
func duo(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// The palette leans on slate neutrals, with one accent per speaker role,
// violet for tool activity, and red for quota alerts.
var (
	inkUser      = duo("#1d4ed8", "#93c5fd")
	inkAssistant = duo("#047857", "#6ee7b7")
	inkSystem    = duo("#475569", "#94a3b8")
	inkStrong    = duo("#111827", "#f8fafc")
	inkFaint     = duo("#9ca3af", "#6b7280")
	inkTool      = duo("#6d28d9", "#c4b5fd")
	inkAlert     = duo("#b91c1c", "#fca5a5")
)

var (
	badgeUser      = lipgloss.NewStyle().Foreground(inkUser).Bold(true)
	badgeAssistant = lipgloss.NewStyle().Foreground(inkAssistant).Bold(true)
	badgeSystem    = lipgloss.NewStyle().Foreground(inkSystem).Bold(true)

	heading = lipgloss.NewStyle().Foreground(inkStrong).Bold(true)
	dim     = lipgloss.NewStyle().Foreground(inkFaint)
	rule    = lipgloss.NewStyle().Foreground(inkFaint)

	statValue = lipgloss.NewStyle().Foreground(inkStrong).Bold(true)
	statLabel = lipgloss.NewStyle().Foreground(inkFaint)

	toolName   = lipgloss.NewStyle().Foreground(inkTool).Bold(true)
	toolDetail = lipgloss.NewStyle().Foreground(inkFaint)

	alert = lipgloss.NewStyle().Foreground(inkAlert).Bold(true)
)
