package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"10s", 10 * time.Second},
		{"10m", 10 * time.Minute},
		{"2h", 2 * time.Hour},
		{"1d", 24 * time.Hour},
		{"1.5h", 90 * time.Minute},
		{"0.5m", 30 * time.Second},
		{"45", 45 * time.Second},
		{" 3H ", 3 * time.Hour},
		{"2 hours", 2 * time.Hour},
		{"1h30m", 90 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDurationRejects(t *testing.T) {
	for _, in := range []string{"", "5s", "9", "abc", "-10m", "10x", "0.1m"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDuration(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDuration))
		})
	}
}

func TestEligibility(t *testing.T) {
	assert.True(t, Eligibility{}.Eligible())
	assert.True(t, Eligibility{Wins: 2, Vouches: 2}.Eligible())

	e := Eligibility{Wins: 3, Vouches: 1}
	assert.False(t, e.Eligible())
	assert.Equal(t, 2, e.Outstanding())
}

func TestGiveawayExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g := &Giveaway{EndsAt: now}
	assert.True(t, g.Expired(now))
	assert.False(t, g.Expired(now.Add(-time.Second)))
}
