package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"giveaway-tracker-bot/internal/common/cache"
	"giveaway-tracker-bot/internal/common/config"
	apperrors "giveaway-tracker-bot/internal/common/errors"
	"giveaway-tracker-bot/internal/features/giveaway/models"
	"giveaway-tracker-bot/internal/features/giveaway/repository"
)

const (
	// PageSize is the number of leaderboard rows per page.
	PageSize = 25
	// MaxRanked caps the leaderboard to the top users.
	MaxRanked = 100
)

// StatsService is the read side over wins and vouches.
type StatsService interface {
	// Leaderboard returns one page of the guild ranking. Out of range pages
	// are clamped.
	Leaderboard(ctx context.Context, guildID string, page int) (*models.LeaderboardPage, error)
	UserWins(ctx context.Context, guildID, userID string) ([]models.WinRecord, error)
	UserVouches(ctx context.Context, guildID, userID string) ([]models.WinRecord, error)
	Giveaways(ctx context.Context, guildID string) ([]models.GiveawaySummary, error)
}

type statsService struct {
	repo   repository.Repository
	cache  cache.Cache
	config *config.Config
	logger zerolog.Logger
}

func NewStatsService(repo repository.Repository, cache cache.Cache, config *config.Config, logger zerolog.Logger) StatsService {
	return &statsService{
		repo:   repo,
		cache:  cache,
		config: config,
		logger: logger,
	}
}

func (s *statsService) view(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout())
	defer cancel()
	if err := s.repo.View(ctx, func(tx repository.Tx) error { return fn(ctx, tx) }); err != nil {
		return apperrors.NewDatabaseError(op, err)
	}
	return nil
}

func totalPages(total int) int {
	if total == 0 {
		return 1
	}
	return (total + PageSize - 1) / PageSize
}

func (s *statsService) Leaderboard(ctx context.Context, guildID string, page int) (*models.LeaderboardPage, error) {
	if page < 1 {
		page = 1
	}
	// The generation is read before the store so a write that invalidates
	// meanwhile moves readers to a fresh key.
	gen, err := s.cache.Generation(ctx, guildID)
	cacheable := err == nil
	if err != nil {
		s.logger.Warn().Err(err).Str("guild_id", guildID).Msg("Failed to read cache generation")
	}
	key := fmt.Sprintf("leaderboard:%d:%d", gen, page)

	if cacheable {
		var cached models.LeaderboardPage
		err := s.cache.Get(ctx, guildID, key, &cached)
		switch {
		case err == nil:
			return &cached, nil
		case !errors.Is(err, cache.ErrMiss):
			s.logger.Warn().Err(err).Str("guild_id", guildID).Msg("Failed to read leaderboard cache")
		}
	}

	result := &models.LeaderboardPage{GuildID: guildID, Entries: []models.LeaderboardEntry{}}
	err = s.view(ctx, "leaderboard", func(ctx context.Context, tx repository.Tx) error {
		total, err := tx.CountRanked(ctx, guildID)
		if err != nil {
			return err
		}
		if total > MaxRanked {
			total = MaxRanked
		}
		result.Total = total
		result.TotalPages = totalPages(total)
		if page > result.TotalPages {
			page = result.TotalPages
		}
		result.Page = page

		offset := (page - 1) * PageSize
		limit := PageSize
		if offset+limit > total {
			limit = total - offset
		}
		if limit <= 0 {
			return nil
		}
		entries, err := tx.TopWinners(ctx, guildID, limit, offset)
		if err != nil {
			return err
		}
		result.Entries = entries
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !cacheable {
		return result, nil
	}
	if err := s.cache.Set(ctx, guildID, key, result); err != nil {
		s.logger.Warn().Err(err).Str("guild_id", guildID).Msg("Failed to cache leaderboard")
	}
	return result, nil
}

func (s *statsService) UserWins(ctx context.Context, guildID, userID string) ([]models.WinRecord, error) {
	out := []models.WinRecord{}
	err := s.view(ctx, "user wins", func(ctx context.Context, tx repository.Tx) error {
		wins, err := tx.UserWins(ctx, guildID, userID)
		if err != nil {
			return err
		}
		out = append(out, wins...)
		return nil
	})
	return out, err
}

func (s *statsService) UserVouches(ctx context.Context, guildID, userID string) ([]models.WinRecord, error) {
	out := []models.WinRecord{}
	err := s.view(ctx, "user vouches", func(ctx context.Context, tx repository.Tx) error {
		vouches, err := tx.UserVouches(ctx, guildID, userID)
		if err != nil {
			return err
		}
		out = append(out, vouches...)
		return nil
	})
	return out, err
}

func (s *statsService) Giveaways(ctx context.Context, guildID string) ([]models.GiveawaySummary, error) {
	out := []models.GiveawaySummary{}
	err := s.view(ctx, "list giveaways", func(ctx context.Context, tx repository.Tx) error {
		giveaways, err := tx.ListGiveaways(ctx, guildID)
		if err != nil {
			return err
		}
		for _, g := range giveaways {
			entrants, err := tx.CountEntrants(ctx, g.ID)
			if err != nil {
				return err
			}
			winners, err := tx.ListWinners(ctx, g.ID)
			if err != nil {
				return err
			}
			out = append(out, models.GiveawaySummary{Giveaway: *g, Entrants: entrants, Winners: winners})
		}
		return nil
	})
	return out, err
}
