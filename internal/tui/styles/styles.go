package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	PlexOrange = lipgloss.Color("#E5A00D")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Input and button
var (
	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PlexOrange).
			Padding(0, 1)

	ButtonStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(PlexOrange).
			Bold(true).
			Padding(0, 2)

	ButtonBusyStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Background(SlateLight).
			Padding(0, 2)
)

// Notification markers
const (
	NoticeChar = "✓"
	ErrorChar  = "✗"
)

// Spinner style
var (
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PlexOrange)

	SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(PlexOrange)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)
