package model

import (
	"fmt"
	"time"
)

// DateLayout is the format of Filter date bounds.
const DateLayout = "2006-01-02"

// Range is an inclusive numeric bound. A nil Max is unbounded; AtMost(0)
// matches only zero.
type Range struct {
	Min int64  `json:"min"`
	Max *int64 `json:"max,omitempty"`
}

// AtMost returns n as an upper bound for Range.Max.
func AtMost(n int64) *int64 { return &n }

// Contains reports whether n lies within the range.
func (r Range) Contains(n int64) bool {
	return n >= r.Min && (r.Max == nil || n <= *r.Max)
}

// Equal compares two ranges by their bound values.
func (r Range) Equal(o Range) bool {
	if r.Min != o.Min || (r.Max == nil) != (o.Max == nil) {
		return false
	}
	return r.Max == nil || *r.Max == *o.Max
}

// String formats the range as ">= min" or "min .. max".
func (r Range) String() string {
	if r.Max == nil {
		return fmt.Sprintf(">= %d", r.Min)
	}
	return fmt.Sprintf("%d .. %d", r.Min, *r.Max)
}

// Filter selects sessions for the list view.
type Filter struct {
	Messages     Range `json:"messages"`
	TotalTokens  Range `json:"total_tokens"`
	InputTokens  Range `json:"input_tokens"`
	OutputTokens Range `json:"output_tokens"`

	Branch    string `json:"branch,omitempty"`     // case-insensitive substring of git_branch
	StartDate string `json:"start_date,omitempty"` // inclusive, YYYY-MM-DD
	EndDate   string `json:"end_date,omitempty"`   // inclusive, YYYY-MM-DD
}

// DefaultFilter hides sessions without any user or assistant message.
func DefaultFilter() Filter {
	return Filter{Messages: Range{Min: 1}}
}

// Validate checks the date bounds.
func (f Filter) Validate() error {
	for _, d := range []string{f.StartDate, f.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, d); err != nil {
			return fmt.Errorf("invalid date %q: want YYYY-MM-DD", d)
		}
	}
	for _, r := range []Range{f.Messages, f.TotalTokens, f.InputTokens, f.OutputTokens} {
		if r.Min < 0 || (r.Max != nil && *r.Max < 0) {
			return fmt.Errorf("invalid range %s: bounds must not be negative", r)
		}
	}
	return nil
}

// Equal reports whether f and g select the same sessions.
func (f Filter) Equal(g Filter) bool {
	return f.Messages.Equal(g.Messages) &&
		f.TotalTokens.Equal(g.TotalTokens) &&
		f.InputTokens.Equal(g.InputTokens) &&
		f.OutputTokens.Equal(g.OutputTokens) &&
		f.Branch == g.Branch &&
		f.StartDate == g.StartDate &&
		f.EndDate == g.EndDate
}

// ActiveCount counts filters that differ from DefaultFilter. A range pair
// counts once, as do the two date bounds together.
func (f Filter) ActiveCount() int {
	def := DefaultFilter()
	n := 0
	for _, pair := range [][2]Range{
		{f.Messages, def.Messages},
		{f.TotalTokens, def.TotalTokens},
		{f.InputTokens, def.InputTokens},
		{f.OutputTokens, def.OutputTokens},
	} {
		if !pair[0].Equal(pair[1]) {
			n++
		}
	}
	if f.Branch != "" {
		n++
	}
	if f.StartDate != "" || f.EndDate != "" {
		n++
	}
	return n
}
