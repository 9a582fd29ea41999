package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/jsokolov/newsdeck/internal/config"
)

const AppName = "newsdeck"

const CompactLogo = `newsdeck ›`

// Current palette colors. ApplyPalette swaps these at runtime when the
// theme toggles; styles below are rebuilt from them.
var (
	PrimaryColor    = lipgloss.Color("#FF6B6B")
	SecondaryColor  = lipgloss.Color("#4ECDC4")
	AccentColor     = lipgloss.Color("#95E1D3")
	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
	MutedColor      = lipgloss.Color("#94A3B8")
	ErrorColor      = lipgloss.Color("#F87171")
	SuccessColor    = lipgloss.Color("#4ADE80")
)

var (
	LogoStyle         lipgloss.Style
	TitleStyle        lipgloss.Style
	HeaderStyle       lipgloss.Style
	StatusBarStyle    lipgloss.Style
	ItemTitleStyle    lipgloss.Style
	SelectedItemStyle lipgloss.Style
	HelpStyle         lipgloss.Style
	TimeStyle         lipgloss.Style
	ErrorMessageStyle lipgloss.Style
	SeparatorStyle    lipgloss.Style

	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
)

func init() {
	rebuildStyles()
}

// ApplyPalette installs the palette from config and rebuilds every style.
func ApplyPalette(p config.Palette) {
	PrimaryColor = lipgloss.Color(p.Primary)
	SecondaryColor = lipgloss.Color(p.Secondary)
	AccentColor = lipgloss.Color(p.Accent)
	BackgroundColor = lipgloss.Color(p.Background)
	SurfaceColor = lipgloss.Color(p.Surface)
	TextColor = lipgloss.Color(p.Text)
	MutedColor = lipgloss.Color(p.Muted)
	ErrorColor = lipgloss.Color(p.Error)
	SuccessColor = lipgloss.Color(p.Success)
	rebuildStyles()
}

func rebuildStyles() {
	LogoStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Padding(0, 1)

	ItemTitleStyle = lipgloss.NewStyle().
		Foreground(TextColor)

	SelectedItemStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(AccentColor).
		Bold(true)

	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	TimeStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Faint(true)

	ErrorMessageStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)

	SeparatorStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusInfoStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusSuccessStyle = lipgloss.NewStyle().
		Foreground(SuccessColor)

	StatusWarnStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor)

	StatusErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)
}

// ShowBanner prints the startup banner for the version subcommand.
func ShowBanner(version string) {
	tag := version
	if tag != "" && tag != "dev" && tag[0] != 'v' && tag[0] != 'V' {
		tag = "v" + tag
	}

	line := AppName
	if tag != "" {
		line = fmt.Sprintf("%s %s", AppName, tag)
	}

	banner := lipgloss.JoinVertical(
		lipgloss.Left,
		LogoStyle.Render(line),
		HelpStyle.Render("terminal news aggregation client"),
	)
	fmt.Println(banner)
}
