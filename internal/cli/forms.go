package cli

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/edboard/internal/cli/formatter"
	"github.com/alexanderramin/edboard/internal/domain"
)

// edboardHuhTheme returns a custom huh theme using the Gruvbox palette.
func edboardHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.MultiSelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.SelectedPrefix = lipgloss.NewStyle().Foreground(formatter.ColorGreen).SetString("[x] ")
	t.Focused.UnselectedPrefix = lipgloss.NewStyle().Foreground(formatter.ColorDim).SetString("[ ] ")
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	// Blurred state: dimmed
	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// areaOptions builds multi-select options for the known areas, marking the
// current selection.
func areaOptions(known, selected []string) []huh.Option[string] {
	sel := make(map[string]bool, len(selected))
	for _, a := range selected {
		sel[a] = true
	}
	opts := make([]huh.Option[string], 0, len(known))
	for _, a := range known {
		opts = append(opts, huh.NewOption(a, a).Selected(sel[a]))
	}
	return opts
}

func rotationOptions() []huh.Option[string] {
	allowed := domain.AllowedRotationSeconds()
	opts := make([]huh.Option[string], 0, len(allowed))
	for _, s := range allowed {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%d seconds", s), strconv.Itoa(s)))
	}
	return opts
}

// prefsSavedMsg reports the outcome of saving display preferences.
type prefsSavedMsg struct {
	areas     []string
	seconds   int
	persisted bool
	err       error
}

// newPreferencesForm edits the user's area filter and, when withRotation
// is set, the page rotation interval. Saving goes through the preferences
// cache; a failed write still applies the change for this session.
func newPreferencesForm(state *SharedState, withRotation bool) View {
	app := state.App
	ctx := context.Background()
	prefs := app.Preferences.Get(ctx, app.User)

	areas := prefs.AreaFilters
	seconds := strconv.Itoa(prefs.RotationSeconds)

	fields := []huh.Field{
		huh.NewMultiSelect[string]().
			Title("Areas").
			Description("None selected shows every area").
			Options(areaOptions(app.Preferences.KnownAreas(), prefs.AreaFilters)...).
			Value(&areas),
	}
	if withRotation {
		fields = append(fields, huh.NewSelect[string]().
			Title("Rotate pages every").
			Options(rotationOptions()...).
			Value(&seconds))
	}
	form := huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(edboardHuhTheme()).
		WithShowHelp(false)

	done := func() tea.Cmd {
		return func() tea.Msg {
			ctx := context.Background()
			persisted, err := app.Preferences.SetAreaFilters(ctx, app.User, areas)
			if err != nil {
				return prefsSavedMsg{err: err}
			}
			sec := prefs.RotationSeconds
			if withRotation {
				sec, _ = strconv.Atoi(seconds)
				ok, err := app.Preferences.SetRotationInterval(ctx, app.User, sec)
				if err != nil {
					return prefsSavedMsg{err: err}
				}
				persisted = persisted && ok
			}
			saved := app.Preferences.Get(ctx, app.User)
			return prefsSavedMsg{areas: saved.AreaFilters, seconds: sec, persisted: persisted}
		}
	}
	return newWizardView(state, "Preferences", form, done)
}
