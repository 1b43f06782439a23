package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/cinspect/internal/model"
	"github.com/theirongolddev/cinspect/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// filterValues holds the filter form inputs as typed text. Empty means
// unbounded.
type filterValues struct {
	MinMessages string
	MaxMessages string
	MinTokens   string
	MaxTokens   string
	Branch      string
	StartDate   string
	EndDate     string
}

func filterValuesFrom(f model.Filter) *filterValues {
	lower := func(n int64) string {
		if n == 0 {
			return ""
		}
		return strconv.FormatInt(n, 10)
	}
	upper := func(n *int64) string {
		if n == nil {
			return ""
		}
		return strconv.FormatInt(*n, 10)
	}
	return &filterValues{
		MinMessages: lower(f.Messages.Min),
		MaxMessages: upper(f.Messages.Max),
		MinTokens:   lower(f.TotalTokens.Min),
		MaxTokens:   upper(f.TotalTokens.Max),
		Branch:      f.Branch,
		StartDate:   f.StartDate,
		EndDate:     f.EndDate,
	}
}

// toFilter parses the inputs on top of base, which supplies the fields the
// form does not edit.
func (v filterValues) toFilter(base model.Filter) (model.Filter, error) {
	f := base
	for _, p := range []struct {
		r        *model.Range
		min, max string
	}{
		{&f.Messages, v.MinMessages, v.MaxMessages},
		{&f.TotalTokens, v.MinTokens, v.MaxTokens},
	} {
		lo, err := parseBound(p.min)
		if err != nil {
			return model.Filter{}, err
		}
		hi, err := parseBound(p.max)
		if err != nil {
			return model.Filter{}, err
		}
		p.r.Min = 0
		if lo != nil {
			p.r.Min = *lo
		}
		p.r.Max = hi
	}
	f.Branch = strings.TrimSpace(v.Branch)
	f.StartDate = strings.TrimSpace(v.StartDate)
	f.EndDate = strings.TrimSpace(v.EndDate)
	if err := f.Validate(); err != nil {
		return model.Filter{}, err
	}
	return f, nil
}

// parseBound returns nil for an empty input.
func parseBound(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%q is not a non-negative number", s)
	}
	return model.AtMost(n), nil
}

func validateBound(s string) error {
	_, err := parseBound(s)
	return err
}

func validateDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(model.DateLayout, s); err != nil {
		return fmt.Errorf("want YYYY-MM-DD")
	}
	return nil
}

func newFilterForm(vals *filterValues) *huh.Form {
	bound := func(title string, v *string) huh.Field {
		return huh.NewInput().Title(title).Placeholder("any").Value(v).Validate(validateBound)
	}
	date := func(title string, v *string) huh.Field {
		return huh.NewInput().Title(title).Placeholder("YYYY-MM-DD").Value(v).Validate(validateDate)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Filter sessions").
				Description("Empty fields are unbounded. Bounds are inclusive."),
			bound("Min messages", &vals.MinMessages),
			bound("Max messages", &vals.MaxMessages),
			bound("Min tokens", &vals.MinTokens),
			bound("Max tokens", &vals.MaxTokens),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Branch").
				Description("Case-insensitive substring").
				Value(&vals.Branch),
			date("From date", &vals.StartDate),
			date("To date", &vals.EndDate),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(true)
}

func (a App) openFilterForm() (tea.Model, tea.Cmd) {
	a.filterVals = filterValuesFrom(a.filter)
	a.filterForm = newFilterForm(a.filterVals)
	if a.width > 0 {
		a.filterForm = a.filterForm.WithWidth(min(a.width, 80)).WithHeight(a.height)
	}
	return a, a.filterForm.Init()
}

func (a App) updateFilterForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.filterForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.filterForm = f
	}

	switch a.filterForm.State {
	case huh.StateCompleted:
		f, err := a.filterVals.toFilter(a.filter)
		a.filterForm = nil
		if err != nil {
			a.notice = "filter: " + err.Error()
			return a, nil
		}
		return a, listCmd(a.ix, f)
	case huh.StateAborted:
		a.filterForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) viewFilterForm() string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderFocus).
		Padding(1, 2).
		Render(a.filterForm.View())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}
