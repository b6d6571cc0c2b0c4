// Package themes holds the TUI color schemes and the per-category
// presentation table.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Normal      lipgloss.Style
	Bold        lipgloss.Style
	Selected    lipgloss.Style
	RoundedBox  lipgloss.Style
	BorderedBox lipgloss.Style
	StatusError lipgloss.Style
	StatusInfo  lipgloss.Style
	Primary     lipgloss.Color
	Income      lipgloss.Color
	Expense     lipgloss.Color
	Muted       lipgloss.Color
	Border      lipgloss.Color
	Foreground  lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary:    lipgloss.Color("#4f46e5"),
	Income:     lipgloss.Color("#3b82f6"),
	Expense:    lipgloss.Color("#ef4444"),
	Foreground: lipgloss.Color("#fafafa"),
	Border:     lipgloss.Color("#404040"),
	Muted:      lipgloss.Color("#737373"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#4f46e5")).
		Foreground(lipgloss.Color("#fafafa")).
		Bold(true),
	BorderedBox: lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),
	RoundedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#4f46e5")).
		Padding(1, 2),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")).
		Bold(true),
}

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = Theme{
	Primary:    lipgloss.Color("#cba6f7"),
	Income:     lipgloss.Color("#89b4fa"),
	Expense:    lipgloss.Color("#f38ba8"),
	Foreground: lipgloss.Color("#cdd6f4"),
	Border:     lipgloss.Color("#45475a"),
	Muted:      lipgloss.Color("#6c7086"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#cdd6f4")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a6adc8")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#cdd6f4")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#cdd6f4")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#cba6f7")).
		Foreground(lipgloss.Color("#1e1e2e")).
		Bold(true),
	BorderedBox: lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#45475a")).
		Padding(0, 1),
	RoundedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#cba6f7")).
		Padding(1, 2),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f38ba8")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#89dceb")).
		Bold(true),
}

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}

// CategoryStyle is how a category is drawn.
type CategoryStyle struct {
	Icon  string
	Color lipgloss.Color
}

// categoryStyles is keyed by category id.
var categoryStyles = map[string]CategoryStyle{
	"food":         {Icon: "🍴", Color: lipgloss.Color("#f97316")},
	"daily":        {Icon: "🛍️", Color: lipgloss.Color("#22c55e")},
	"transport":    {Icon: "🚃", Color: lipgloss.Color("#3b82f6")},
	"fashion":      {Icon: "👕", Color: lipgloss.Color("#ec4899")},
	"social":       {Icon: "👥", Color: lipgloss.Color("#eab308")},
	"credit":       {Icon: "💳", Color: lipgloss.Color("#6366f1")},
	"hobby":        {Icon: "🎮", Color: lipgloss.Color("#a855f7")},
	"cafe":         {Icon: "☕", Color: lipgloss.Color("#a16207")},
	"other":        {Icon: "⋯", Color: lipgloss.Color("#6b7280")},
	"salary":       {Icon: "👛", Color: lipgloss.Color("#3b82f6")},
	"bonus":        {Icon: "📈", Color: lipgloss.Color("#10b981")},
	"other_income": {Icon: "⋯", Color: lipgloss.Color("#6b7280")},
}

var fallbackStyle = CategoryStyle{Icon: "⋯", Color: lipgloss.Color("#6b7280")}

// GetCategoryStyle returns the icon and color for a category id.
func GetCategoryStyle(categoryID string) CategoryStyle {
	if s, ok := categoryStyles[categoryID]; ok {
		return s
	}
	return fallbackStyle
}
