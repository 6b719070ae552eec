package validation

import (
	"regexp"
	"strconv"

	"giveaway-tracker-bot/internal/common/errors"
)

// Discord snowflakes are unsigned 64-bit integers rendered in decimal.
var snowflakeRegex = regexp.MustCompile(`^[0-9]{1,20}$`)

// ValidateSnowflake checks that value is a Discord id.
func ValidateSnowflake(field, value string) error {
	if value == "" {
		return errors.NewValidationError(field, "cannot be empty")
	}
	if !snowflakeRegex.MatchString(value) {
		return errors.NewValidationError(field, "must be a Discord id")
	}
	if _, err := strconv.ParseUint(value, 10, 64); err != nil {
		return errors.NewValidationError(field, "must be a Discord id")
	}
	return nil
}

// ParseID parses a positive giveaway id.
func ParseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.NewValidationError(field, "must be a positive integer")
	}
	return id, nil
}
