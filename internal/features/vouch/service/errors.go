package service

import (
	apperrors "giveaway-tracker-bot/internal/common/errors"
)

var (
	ErrGiveawayNotFound = apperrors.New(apperrors.ErrCodeGiveawayNotFound, "giveaway not found")
	ErrNotAWinner       = apperrors.New(apperrors.ErrCodeNotAWinner, "only winners of this giveaway can vouch for it")
	ErrAlreadyVouched   = apperrors.New(apperrors.ErrCodeAlreadyVouched, "this win has already been vouched")
	ErrVouchBlocked     = apperrors.New(apperrors.ErrCodeVouchBlocked, "a moderator removed the vouch for this win, it can't be vouched again")
	ErrNoSuchVouch      = apperrors.New(apperrors.ErrCodeNoSuchVouch, "no vouch recorded for this win")
)
