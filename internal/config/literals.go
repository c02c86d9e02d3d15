// Package config resolves cobra flag values plus environment variables
// into the immutable WalkConfig, FilterSet, and OutputConfig values the
// rest of the program treats as read-only, per spec §4.5 and §6.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fenilsonani/hunt/internal/walker"
)

var sizeLiteralRe = regexp.MustCompile(`^([+-]?)(\d+(?:\.\d+)?)\s*([a-zA-Z]*)$`)

// ParseSizeLiteral parses "[+-]N[unit]" per spec §4.5: a leading "+" means
// at-least, "-" means at-most, and a bare number means exact equality.
// Units are B, K/M/G/T (decimal, SI) and Ki/Mi/Gi/Ti (binary) — the two
// families are distinct, matching fd's own disambiguation.
func ParseSizeLiteral(lit string) (walker.SizeConstraint, error) {
	m := sizeLiteralRe.FindStringSubmatch(strings.TrimSpace(lit))
	if m == nil {
		return walker.SizeConstraint{}, fmt.Errorf("invalid size literal %q", lit)
	}

	value, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return walker.SizeConstraint{}, fmt.Errorf("invalid size literal %q: %w", lit, err)
	}

	mult, err := sizeUnitMultiplier(m[3])
	if err != nil {
		return walker.SizeConstraint{}, fmt.Errorf("invalid size literal %q: %w", lit, err)
	}

	op := walker.SizeEqual
	switch m[1] {
	case "+":
		op = walker.SizeAtLeast
	case "-":
		op = walker.SizeAtMost
	}

	return walker.SizeConstraint{Op: op, Bytes: int64(value * float64(mult))}, nil
}

func sizeUnitMultiplier(unit string) (int64, error) {
	switch strings.ToLower(unit) {
	case "", "b":
		return 1, nil
	case "k":
		return 1_000, nil
	case "m":
		return 1_000_000, nil
	case "g":
		return 1_000_000_000, nil
	case "t":
		return 1_000_000_000_000, nil
	case "ki":
		return 1 << 10, nil
	case "mi":
		return 1 << 20, nil
	case "gi":
		return 1 << 30, nil
	case "ti":
		return 1 << 40, nil
	default:
		return 0, fmt.Errorf("unknown size unit %q", unit)
	}
}

var relativeDurationRe = regexp.MustCompile(`^(\d+)(s|m|h|d|weeks?|mo|y(?:ears?)?)$`)

// ParseTimeLiteral parses a point in time for mtime filters: absolute
// ISO-8601 (with "T" or a space separator), "@seconds" epoch form, or a
// relative duration resolved against now (Ns|Nm|Nh|Nd|Nweeks|Nmo|Nyears),
// honoring calendar variability for month/year per spec §4.5.
func ParseTimeLiteral(lit string, now time.Time) (time.Time, error) {
	lit = strings.TrimSpace(lit)

	if strings.HasPrefix(lit, "@") {
		secs, err := strconv.ParseInt(lit[1:], 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid epoch literal %q: %w", lit, err)
		}
		return time.Unix(secs, 0), nil
	}

	if m := relativeDurationRe.FindStringSubmatch(lit); m != nil {
		n, _ := strconv.Atoi(m[1])
		return resolveRelative(now, n, m[2]), nil
	}

	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(layout, lit, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid time literal %q", lit)
}

func resolveRelative(now time.Time, n int, unit string) time.Time {
	switch {
	case unit == "s":
		return now.Add(-time.Duration(n) * time.Second)
	case unit == "m":
		return now.Add(-time.Duration(n) * time.Minute)
	case unit == "h":
		return now.Add(-time.Duration(n) * time.Hour)
	case unit == "d":
		return now.AddDate(0, 0, -n)
	case strings.HasPrefix(unit, "week"):
		return now.AddDate(0, 0, -7*n)
	case unit == "mo":
		return now.AddDate(0, -n, 0)
	default: // y, year, years
		return now.AddDate(-n, 0, 0)
	}
}
