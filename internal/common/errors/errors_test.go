package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New(ErrCodeGiveawayClosed, "giveaway is closed")
	other := New(ErrCodeGiveawayClosed, "different text")

	assert.True(t, stderrors.Is(other, sentinel))
	assert.False(t, stderrors.Is(New(ErrCodeAlreadyClosed, "x"), sentinel))

	wrapped := fmt.Errorf("join: %w", other)
	assert.True(t, stderrors.Is(wrapped, sentinel))
}

func TestWithDetailDoesNotMutateReceiver(t *testing.T) {
	sentinel := New(ErrCodeNotEligible, "not eligible")
	detailed := sentinel.WithDetail("wins", 2)

	assert.Nil(t, sentinel.Details)
	assert.Equal(t, 2, detailed.Details["wins"])
	assert.True(t, stderrors.Is(detailed, sentinel))
}

func TestKinds(t *testing.T) {
	assert.True(t, New(ErrCodeNoSuchVouch, "").IsNotFound())
	assert.True(t, New(ErrCodeInvalidDuration, "").IsValidation())
	assert.True(t, New(ErrCodeVouchBlocked, "").IsConflict())
	assert.True(t, NewDatabaseError("close", stderrors.New("boom")).IsTransient())
	assert.False(t, New(ErrCodeGiveawayOpen, "").IsTransient())
}

func TestAsAppErrorUnwraps(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := fmt.Errorf("scan: %w", NewDatabaseError("list expired", cause))

	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeDatabaseError, appErr.Code)
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsTransient(err))

	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("plain")))
	_, ok = AsAppError(nil)
	assert.False(t, ok)
}
