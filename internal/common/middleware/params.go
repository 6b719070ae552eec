package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"giveaway-tracker-bot/internal/common/errors"
	"giveaway-tracker-bot/internal/common/validation"
)

// SnowflakeParams rejects requests whose named path params are not Discord
// ids. Params missing from the route are skipped.
func SnowflakeParams(logger zerolog.Logger, names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			value, ok := c.Params.Get(name)
			if !ok {
				continue
			}
			if err := validation.ValidateSnowflake(name, value); err != nil {
				appErr, _ := errors.AsAppError(err)
				sendErrorResponse(c, appErr, logger)
				return
			}
		}
		c.Next()
	}
}
