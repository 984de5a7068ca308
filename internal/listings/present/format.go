// Package present turns groupings into marker, panel and info-window
// descriptors for the map frontend.
package present

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Missing is rendered for unset values.
const Missing = "—"

// Formatter renders numbers with locale digit grouping.
type Formatter struct {
	p *message.Printer
}

// NewFormatter creates a formatter for tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{p: message.NewPrinter(tag)}
}

// Number groups digits and keeps at most three fraction digits.
func (f *Formatter) Number(v float64) string {
	return f.p.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(3)))
}

// Unit formats an optional value followed by unit, or Missing when unset.
func (f *Formatter) Unit(v *float64, unit string) string {
	if v == nil {
		return Missing
	}
	return f.Number(*v) + unit
}

// Signed prefixes non-negative values with "+".
func (f *Formatter) Signed(v float64, unit string) string {
	if v >= 0 {
		return "+" + f.Number(v) + unit
	}
	return f.Number(v) + unit
}

// Percent formats a rate with one decimal and a sign.
func (f *Formatter) Percent(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64) + "%"
	if v >= 0 {
		return "+" + s
	}
	return s
}

// Plain formats an optional value without grouping, for small counts.
func (f *Formatter) Plain(v *float64) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
