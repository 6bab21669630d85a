// Package timeparse converts free-form date/time text typed by chat users into
// wall-clock instants.
//
// Two shapes are accepted:
//
//	YYYY/MM/DD HH:MM   (or YYYY-MM-DD HH:MM)
//	MM/DD HH:MM        (year taken from the clock at parse time)
//
// Month, day, hour and minute may each be one or two digits.
// No zone conversion happens; values are built in the parser's location.
package timeparse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNotParseable is returned for text matching neither accepted shape or naming
// a date that does not exist.
var ErrNotParseable = errors.New("date/time not parseable")

var (
	fullPattern  = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})\s+(\d{1,2}):(\d{1,2})$`)
	shortPattern = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})\s+(\d{1,2}):(\d{1,2})$`)
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// Parser parses date/time text relative to a clock and location.
type Parser struct {
	clock Clock
	loc   *time.Location
}

// New creates a parser. A nil location means time.Local.
func New(clock Clock, loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{clock: clock, loc: loc}
}

// Parse returns the instant described by text, or ErrNotParseable.
func (p *Parser) Parse(text string) (time.Time, error) {
	text = strings.TrimSpace(text)

	if m := fullPattern.FindStringSubmatch(text); m != nil {
		return p.build(atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4]), atoi(m[5]))
	}
	if m := shortPattern.FindStringSubmatch(text); m != nil {
		year := p.clock.Now().In(p.loc).Year()
		return p.build(year, atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4]))
	}
	return time.Time{}, ErrNotParseable
}

// build rejects fields time.Date would silently normalize (Feb 30, 24:00).
func (p *Parser) build(year, month, day, hour, minute int) (time.Time, error) {
	if month < 1 || month > 12 || hour > 23 || minute > 59 || day < 1 {
		return time.Time{}, ErrNotParseable
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, p.loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, ErrNotParseable
	}
	return t, nil
}

// atoi is only called on regexp digit groups.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
