package temporal

import (
	"strconv"
	"strings"
	"time"

	"github.com/rohankatakam/gitintel/internal/errors"
)

// DateLayout is the calendar date format accepted on the command line and
// emitted in result documents
const DateLayout = "2006-01-02"

// Range bounds a query to [Since, Until). A nil bound is unbounded.
// Bounds are kept as Unix seconds because they feed cache keys directly.
type Range struct {
	Since *int64
	Until *int64
}

// Contains reports whether t falls inside the half-open range
func (r Range) Contains(t time.Time) bool {
	ts := t.Unix()
	if r.Since != nil && ts < *r.Since {
		return false
	}
	if r.Until != nil && ts >= *r.Until {
		return false
	}
	return true
}

// Validate rejects inverted ranges
func (r Range) Validate() error {
	if r.Since != nil && r.Until != nil && *r.Since >= *r.Until {
		return errors.InvalidParam("since", "--since date is after --until date (empty range)")
	}
	return nil
}

// ParseRange parses the --since and --until flag values relative to now.
// Empty strings leave the corresponding bound open.
func ParseRange(since, until string, now time.Time) (Range, error) {
	var r Range
	if since != "" {
		day, err := parseDay(since, "since", now)
		if err != nil {
			return Range{}, err
		}
		ts := day.Unix()
		r.Since = &ts
	}
	if until != "" {
		day, err := parseDay(until, "until", now)
		if err != nil {
			return Range{}, err
		}
		// until is inclusive of the named day
		ts := day.AddDate(0, 0, 1).Unix()
		r.Until = &ts
	}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// parseDay resolves YYYY-MM-DD or a relative Nd/Nw/Nm/Ny offset to midnight UTC
func parseDay(value, flag string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if day, ok := parseRelative(value, now); ok {
		return day, nil
	}
	day, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, errors.InvalidParam(flag,
			"invalid --%s date %q (expected YYYY-MM-DD or relative like 30d, 4w, 6m, 1y)", flag, value)
	}
	return day.UTC(), nil
}

func parseRelative(value string, now time.Time) (time.Time, bool) {
	if len(value) < 2 {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(value[:len(value)-1])
	if err != nil || n < 0 {
		return time.Time{}, false
	}
	today := StartOfDay(now)
	switch value[len(value)-1] {
	case 'd':
		return today.AddDate(0, 0, -n), true
	case 'w':
		return today.AddDate(0, 0, -7*n), true
	case 'm':
		return today.AddDate(0, -n, 0), true
	case 'y':
		return today.AddDate(-n, 0, 0), true
	}
	return time.Time{}, false
}

// StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FilterRange keeps the commits whose timestamp falls inside r
func FilterRange(commits []Commit, r Range) []Commit {
	out := make([]Commit, 0, len(commits))
	for _, c := range commits {
		if r.Contains(c.Timestamp) {
			out = append(out, c)
		}
	}
	return out
}
