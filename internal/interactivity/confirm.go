package interactivity

import (
	"github.com/charmbracelet/huh"
	"github.com/speakeasy-api/scaffold/internal/charm/styles"
	"github.com/speakeasy-api/scaffold/internal/singleton"
)

// The theme queries the terminal, so it is only built once a prompt is shown.
var formTheme = singleton.New(newFormTheme)

func newFormTheme() *huh.Theme {
	t := huh.ThemeBase()

	f := &t.Focused
	f.Base = f.Base.BorderForeground(styles.Colors.Yellow)
	f.Title = f.Title.Foreground(styles.Colors.Yellow).Bold(true)
	f.Description = f.Description.Foreground(styles.Colors.Grey).Italic(true)
	f.FocusedButton = f.FocusedButton.Background(styles.Colors.Green)
	f.BlurredButton = f.BlurredButton.Background(styles.Colors.Grey)

	return t
}

// Confirm asks a yes/no question in the terminal. Callers check utils.IsInteractive first.
func Confirm(title, description string) (bool, error) {
	var value bool
	if err := huh.NewForm(huh.NewGroup(huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes.").
		Negative("No.").
		Value(&value))).WithTheme(formTheme()).Run(); err != nil {
		return false, err
	}

	return value, nil
}
