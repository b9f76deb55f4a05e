package timedelta

import (
	"fmt"
	"strconv"
	"time"

	"footage/internal/services"
)

const (
	daysPerYear  = 365
	daysPerMonth = 30
	bodyLength   = len("YYYYMMDD_HHMMSS")
)

// Delta is a signed calendar offset.
type Delta struct {
	Days    int
	Seconds int

	text string
}

// Parse decodes the compact [+|-]YYYYMMDD_HHMMSS form. The sign is required;
// any deviation from the fixed-width grammar is an ErrConfigParse.
func Parse(text string) (Delta, error) {
	if text == "" || (text[0] != '+' && text[0] != '-') {
		return Delta{}, malformed(text)
	}
	sign := 1
	if text[0] == '-' {
		sign = -1
	}
	body := text[1:]
	if len(body) != bodyLength || body[8] != '_' {
		return Delta{}, malformed(text)
	}
	fields := [6]int{}
	spans := [6][2]int{{0, 4}, {4, 6}, {6, 8}, {9, 11}, {11, 13}, {13, 15}}
	for i, span := range spans {
		value, ok := digits(body[span[0]:span[1]])
		if !ok {
			return Delta{}, malformed(text)
		}
		fields[i] = value
	}
	years, months, days := fields[0], fields[1], fields[2]
	hours, minutes, seconds := fields[3], fields[4], fields[5]
	return Delta{
		Days:    sign * (years*daysPerYear + months*daysPerMonth + days),
		Seconds: sign * (hours*3600 + minutes*60 + seconds),
		text:    text,
	}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(text string) Delta {
	d, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return d
}

// Apply shifts t by the delta's days, then its seconds.
func (d Delta) Apply(t time.Time) time.Time {
	return t.AddDate(0, 0, d.Days).Add(time.Duration(d.Seconds) * time.Second)
}

// IsZero reports whether the delta leaves timestamps unchanged.
func (d Delta) IsZero() bool {
	return d.Days == 0 && d.Seconds == 0
}

// String returns the text the delta was parsed from, or a canonical rendering
// with days in the day field when it was built directly.
func (d Delta) String() string {
	if d.text != "" {
		return d.text
	}
	return Format(d.Days, d.Seconds)
}

// Format renders days and seconds in the compact grammar. Mixed signs are not
// representable; the sign of the larger-magnitude component wins.
func Format(days, seconds int) string {
	sign := byte('+')
	if days < 0 || (days == 0 && seconds < 0) {
		sign = '-'
		days, seconds = -days, -seconds
	}
	if seconds < 0 {
		seconds = 0
	}
	years := days / daysPerYear
	days %= daysPerYear
	months := days / daysPerMonth
	days %= daysPerMonth
	hours := seconds / 3600
	minutes := seconds % 3600 / 60
	secs := seconds % 60
	return fmt.Sprintf("%c%04d%02d%02d_%02d%02d%02d", sign, years, months, days, hours, minutes, secs)
}

func digits(s string) (int, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

func malformed(text string) error {
	return services.Wrap(services.ErrConfigParse, "time adjustment", "parse", fmt.Sprintf("%q does not match [+|-]YYYYMMDD_HHMMSS", text), nil)
}
