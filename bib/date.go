package bib

import (
	"fmt"
)

// DateVariable is the closed set of shapes a date variable can take:
// Date, DateRange or LiteralDate.
type DateVariable interface {
	// SortKey returns a string that orders chronologically when compared
	// lexicographically, regardless of rendering form.
	SortKey() string
	// IsUncertain reports the circa flag.
	IsUncertain() bool
}

// Date is a single, possibly partial date. Zero month/day/season mean
// "not specified". A date with all numeric parts zero is the nil date,
// used as the open end of a range.
type Date struct {
	Year   int
	Month  int
	Day    int
	Season int
	Circa  bool
}

// NewDate validates part consistency: a day without a month is malformed
// input and is rejected at construction time.
func NewDate(year, month, day int) (Date, error) {
	if day != 0 && month == 0 {
		return Date{}, fmt.Errorf("day %d specified without a month", day)
	}
	if month < 0 || month > 12 {
		return Date{}, fmt.Errorf("month out of range: %d", month)
	}
	if day < 0 || day > 31 {
		return Date{}, fmt.Errorf("day out of range: %d", day)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// IsNil reports whether all numeric parts are zero.
func (d Date) IsNil() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// SortKey encodes the date as "YYYYYMMDD" with the year offset by 10000
// so that BC years still order correctly as unsigned text.
func (d Date) SortKey() string {
	return fmt.Sprintf("%05d%02d%02d", d.Year+10000, d.Month, d.Day)
}

// IsUncertain reports the circa flag.
func (d Date) IsUncertain() bool { return d.Circa }

// DateRange is a pair of dates; a nil End means the range is open-ended.
type DateRange struct {
	Begin Date
	End   Date
	Circa bool
}

// SortKey orders ranges by begin date, then end date.
func (r DateRange) SortKey() string {
	return r.Begin.SortKey() + "-" + r.End.SortKey()
}

// IsUncertain reports the circa flag of the range itself.
func (r DateRange) IsUncertain() bool { return r.Circa }

// LiteralDate carries a date the source could not parse into parts; it is
// rendered verbatim and sorts as plain text.
type LiteralDate struct {
	Text string
}

// SortKey returns the literal text.
func (l LiteralDate) SortKey() string { return l.Text }

// IsUncertain is always false for literal dates.
func (l LiteralDate) IsUncertain() bool { return false }
