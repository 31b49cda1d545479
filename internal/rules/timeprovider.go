package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/nleeper/goment"
	"github.com/sosodev/duration"
)

// DateLayout is the layout of TimeProvider.Value (YYYY/MM/DD).
const DateLayout = "2006/1/2"

// Duration is a calendar-aware step. Years, months and days are added on the
// calendar, Clock is added as elapsed time.
type Duration struct {
	Years  int
	Months int
	Days   int
	Clock  time.Duration
}

// IsZero reports whether d does not move a time.
func (d Duration) IsZero() bool {
	return d.Years == 0 && d.Months == 0 && d.Days == 0 && d.Clock == 0
}

func (d Duration) addTo(g *goment.Goment) {
	if d.Years != 0 {
		g.Add(d.Years, "years")
	}
	if d.Months != 0 {
		g.Add(d.Months, "months")
	}
	if d.Days != 0 {
		g.Add(d.Days, "days")
	}
	if d.Clock != 0 {
		g.Add(d.Clock)
	}
}

// ParseDuration parses an ISO-8601 duration such as "P7D" or "PT1H30M".
// Weeks are folded into days.
func ParseDuration(s string) (Duration, error) {
	iso, err := duration.Parse(strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return Duration{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d := Duration{
		Years:  int(iso.Years),
		Months: int(iso.Months),
		Days:   int(iso.Weeks)*7 + int(iso.Days),
		Clock: time.Duration(iso.Hours*float64(time.Hour)) +
			time.Duration(iso.Minutes*float64(time.Minute)) +
			time.Duration(iso.Seconds*float64(time.Second)),
	}
	if iso.Negative {
		d = Duration{Years: -d.Years, Months: -d.Months, Days: -d.Days, Clock: -d.Clock}
	}
	return d, nil
}

// UnmarshalJSON accepts milliseconds as a number or an ISO-8601 string.
func (d *Duration) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseDuration(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid duration %s: %w", data, err)
	}
	*d = Duration{Clock: time.Duration(ms * float64(time.Millisecond))}
	return nil
}

// resolve steps the date once per tag value above DurationOffset. A zero
// offset or duration leaves the date as is.
func (p *TimeProvider) resolve(ctx *Context) (string, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(p.Value), time.UTC)
	if err != nil {
		return "", &ConfigError{Kind: ProviderTime, Err: fmt.Errorf("invalid date %q: %w", p.Value, err)}
	}
	g, err := goment.New(t)
	if err != nil {
		return "", fmt.Errorf("date %q: %w", p.Value, err)
	}
	if p.Duration != nil && !p.Duration.IsZero() &&
		p.DurationOffset != nil && *p.DurationOffset != 0 && p.DurationTag != "" {
		if n, ok := leadingInt(ctx.Tags[p.DurationTag]); ok {
			for i := 0; i < n-*p.DurationOffset; i++ {
				p.Duration.addTo(g)
			}
		}
	}
	return FormatTime(g, p.Format), nil
}

// FormatTime renders g with a moment layout such as "DD.MM.YYYY".
// An empty layout yields ISO 8601.
func FormatTime(g *goment.Goment, layout string) string {
	if layout == "" {
		return g.Format()
	}
	return g.Format(layout)
}

// leadingInt parses the optional sign and leading decimal digits of s.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
