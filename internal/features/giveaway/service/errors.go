package service

import (
	apperrors "giveaway-tracker-bot/internal/common/errors"
)

var (
	ErrInvalidDuration    = apperrors.New(apperrors.ErrCodeInvalidDuration, "duration must look like 30s, 10m, 2h or 1d and be at least 10 seconds")
	ErrInvalidWinnerCount = apperrors.New(apperrors.ErrCodeInvalidWinners, "winner count must be between 1 and 50")
	ErrInvalidPrize       = apperrors.New(apperrors.ErrCodeInvalidPrize, "prize must not be empty")

	ErrGiveawayNotFound   = apperrors.New(apperrors.ErrCodeGiveawayNotFound, "giveaway not found")
	ErrGiveawayClosed     = apperrors.New(apperrors.ErrCodeGiveawayClosed, "this giveaway has ended")
	ErrAlreadyClosed      = apperrors.New(apperrors.ErrCodeAlreadyClosed, "giveaway is already closed")
	ErrGiveawayOpen       = apperrors.New(apperrors.ErrCodeGiveawayOpen, "giveaway is still running, end it before rerolling")
	ErrAlreadyEntered     = apperrors.New(apperrors.ErrCodeAlreadyJoined, "you have already joined this giveaway")
	ErrNotEntered         = apperrors.New(apperrors.ErrCodeNotEntered, "you have not joined this giveaway")
	ErrNotEligible        = apperrors.New(apperrors.ErrCodeNotEligible, "you must vouch for your previous wins before joining")
	ErrNoEligibleEntrants = apperrors.New(apperrors.ErrCodeNoEligibleEntrants, "no eligible entrants left to reroll")
	ErrTargetNotEligible  = apperrors.New(apperrors.ErrCodeTargetNotEligible, "target user already won this giveaway")
	ErrAlreadyWinner      = apperrors.New(apperrors.ErrCodeAlreadyWinner, "user is already a winner of this giveaway")
	ErrNotAWinner         = apperrors.New(apperrors.ErrCodeNotAWinner, "user is not a winner of this giveaway")
)
