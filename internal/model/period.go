// Package model defines the domain types shared by the panel packages.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidPeriod is returned when a period key cannot be parsed.
var ErrInvalidPeriod = errors.New("invalid period")

// Period is a calendar month encoded as YYYYMM (e.g. 202203).
type Period int

// NewPeriod builds a period from a year and a month.
func NewPeriod(year int, month time.Month) Period {
	return Period(year*100 + int(month))
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return NewPeriod(t.Year(), t.Month())
}

// ParsePeriod accepts "202203" or "2022-03".
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	s = strings.Replace(s, "-", "", 1)
	if len(s) != 6 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	p := Period(n)
	if !p.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

// Year returns the calendar year.
func (p Period) Year() int { return int(p) / 100 }

// Month returns the calendar month.
func (p Period) Month() time.Month { return time.Month(int(p) % 100) }

// Valid reports whether the period encodes a real month.
func (p Period) Valid() bool {
	m := p.Month()
	return p.Year() > 0 && m >= time.January && m <= time.December
}

// Prev returns the immediately preceding period, rolling over the year.
func (p Period) Prev() Period {
	return p.Add(-1)
}

// Add moves the period by n months.
func (p Period) Add(n int) Period {
	idx := p.Year()*12 + int(p.Month()) - 1 + n
	return NewPeriod(idx/12, time.Month(idx%12+1))
}

// Lookback returns the n periods strictly before p, most recent first.
func (p Period) Lookback(n int) []Period {
	periods := make([]Period, 0, n)
	for i := 1; i <= n; i++ {
		periods = append(periods, p.Add(-i))
	}
	return periods
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year(), int(p.Month()))
}
