package models

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/karrick/tparse/v2"
)

var ErrInvalidDuration = errors.New("invalid duration")

var simpleDuration = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([a-z]+)$`)

var unitScale = map[string]time.Duration{
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
}

// ParseDuration parses compact duration notation: "30s", "10m", "2h", "1d",
// "1.5h", compound forms such as "1d12h", and bare numbers meaning seconds.
// Durations shorter than MinDuration are rejected.
func ParseDuration(input string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidDuration)
	}

	d, err := parseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, input)
	}
	if d < MinDuration {
		return 0, fmt.Errorf("%w: %q is shorter than %s", ErrInvalidDuration, input, MinDuration)
	}
	return d, nil
}

func parseDuration(s string) (time.Duration, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return scale(v, time.Second)
	}

	if m := simpleDuration.FindStringSubmatch(s); m != nil {
		if unit, ok := unitScale[m[2]]; ok {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return 0, err
			}
			return scale(v, unit)
		}
	}

	// compound forms like "1d12h" or "2h30m"
	now := time.Now()
	end, err := tparse.AddDuration(now, s)
	if err != nil {
		return 0, err
	}
	return end.Sub(now), nil
}

func scale(v float64, unit time.Duration) (time.Duration, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrInvalidDuration
	}
	total := v * float64(unit)
	if total > math.MaxInt64 {
		return 0, ErrInvalidDuration
	}
	return time.Duration(total), nil
}
