package styles

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/speakeasy-api/scaffold/internal/utils"
	"golang.org/x/term"
)

var (
	HeavilyEmphasized = lipgloss.
				NewStyle().
				Foreground(Colors.Yellow).
				Bold(true)

	Emphasized = HeavilyEmphasized.Foreground(Colors.WhiteBlackAdaptive)

	Info    = Emphasized.Foreground(Colors.Blue)
	Warning = Emphasized.Foreground(Colors.Yellow)
	Error   = Emphasized.Foreground(Colors.Red)
	Success = Emphasized.Foreground(Colors.Green)

	Dimmed       = lipgloss.NewStyle().Foreground(Colors.Grey)
	DimmedItalic = Dimmed.Italic(true)

	// Styles for the lines of a unified diff.
	DiffAdded   = lipgloss.NewStyle().Foreground(Colors.Green)
	DiffRemoved = lipgloss.NewStyle().Foreground(Colors.Red)
	DiffHunk    = lipgloss.NewStyle().Foreground(Colors.Blue)

	None = lipgloss.NewStyle()

	Colors = struct {
		Yellow, DimYellow, Red, DimRed, Green, DimGreen, Grey, WhiteBlackAdaptive, Blue, DimBlue lipgloss.AdaptiveColor
	}{
		Yellow:             lipgloss.AdaptiveColor{Dark: "#FBE331", Light: "#C0A802"},
		DimYellow:          lipgloss.AdaptiveColor{Dark: "#AF9A04", Light: "#AF9A04"},
		WhiteBlackAdaptive: lipgloss.AdaptiveColor{Dark: "#F3F0E3", Light: "#16150E"},
		Red:                lipgloss.AdaptiveColor{Dark: "#D93337", Light: "#54121B"},
		DimRed:             lipgloss.AdaptiveColor{Dark: "#54121B", Light: "#D93337"},
		Green:              lipgloss.AdaptiveColor{Dark: "#63AC67", Light: "#5B8537"},
		DimGreen:           lipgloss.AdaptiveColor{Dark: "#293D2A", Light: "#63AC67"},
		Grey:               lipgloss.AdaptiveColor{Dark: "#8A887D", Light: "#68675F"},
		Blue:               lipgloss.AdaptiveColor{Dark: "#679FE1", Light: "#1D2A3A"},
		DimBlue:            lipgloss.AdaptiveColor{Dark: "#1D2A3A", Light: "#679FE1"},
	}
)

func TerminalWidth() int {
	termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || termWidth <= 0 {
		return 80
	}
	return termWidth
}

func RenderSuccessMessage(heading string, additionalLines ...string) string {
	s := Success.Render(utils.CapitalizeFirst(heading))
	for _, line := range additionalLines {
		s += "\n" + Dimmed.Render(line)
	}

	return MakeBoxed(s, Colors.Green, lipgloss.Center)
}

func RenderErrorMessage(heading string, additionalLines ...string) string {
	s := lipgloss.NewStyle().Foreground(Colors.Red).Bold(true).Render(utils.CapitalizeFirst(heading))
	for _, line := range additionalLines {
		s += "\n" + lipgloss.NewStyle().Foreground(Colors.Red).Render(line)
	}

	return MakeBoxed(s, Colors.Red, lipgloss.Center)
}

func MakeBoxed(s string, borderColor lipgloss.AdaptiveColor, alignment lipgloss.Position) string {
	termWidth := TerminalWidth() - 2     // Leave room for padding (if the terminal is too small to fit, we need to wrap)
	stringWidth := lipgloss.Width(s) + 2 // Account for padding (on the other hand, if the terminal is wide enough, add back in the space so it doesn't needlessly wrap)
	w := min(termWidth, stringWidth)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		AlignHorizontal(alignment).
		Width(w).
		Render(s)
}

// MakeSection returns a string enclosed in a top and bottom border with a title
func MakeSection(title, content string, color lipgloss.AdaptiveColor) string {
	titleLine := MakeBreak(title, '─', color, true)
	footerLine := MakeBreak(title, '─', color, false)

	return fmt.Sprintf("%s\n\n%s\n\n%s", titleLine, content, footerLine)
}

func MakeBreak(heading string, character rune, color lipgloss.AdaptiveColor, isStart bool) string {
	termWidth := TerminalWidth()

	line := ""
	if heading == "" {
		line = strings.Repeat(string(character), termWidth)
	} else {
		separator := " ↑ "
		if isStart {
			separator = " ↓ "
		}
		borderWidth := max((termWidth-lipgloss.Width(heading)-2*lipgloss.Width(separator))/2, 2)
		borderString := strings.Repeat(string(character), borderWidth)
		line = fmt.Sprintf("%s%s%s%s%s", borderString, separator, heading, separator, borderString)
	}

	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(line)
}
