package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"giveaway-tracker-bot/internal/common/cache"
	"giveaway-tracker-bot/internal/common/config"
	apperrors "giveaway-tracker-bot/internal/common/errors"
	"giveaway-tracker-bot/internal/common/lock"
	"giveaway-tracker-bot/internal/features/giveaway/models"
	"giveaway-tracker-bot/internal/features/giveaway/repository"
	"giveaway-tracker-bot/internal/features/vouch/keyword"
)

type vouchService struct {
	repo    repository.Repository
	locker  lock.Locker
	cache   cache.Cache
	matcher *keyword.Matcher
	config  *config.Config
	logger  zerolog.Logger
	now     func() time.Time
}

type Option func(*vouchService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *vouchService) { s.now = now }
}

func NewVouchService(
	repo repository.Repository,
	locker lock.Locker,
	cache cache.Cache,
	config *config.Config,
	logger zerolog.Logger,
	opts ...Option,
) VouchService {
	s := &vouchService{
		repo:    repo,
		locker:  locker,
		cache:   cache,
		matcher: keyword.NewMatcher(config.Vouch.Keyword),
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Vouch writes for one user are serialized so a removal and a new vouch
// can't interleave.
func (s *vouchService) lock(ctx context.Context, guildID, userID string) (lock.Unlock, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout())
	defer cancel()
	return s.locker.Lock(lockCtx, fmt.Sprintf("vouch:%s:%s", guildID, userID))
}

func (s *vouchService) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout())
	defer cancel()
	return translate(op, s.repo.WithTx(ctx, func(tx repository.Tx) error { return fn(ctx, tx) }))
}

func (s *vouchService) view(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout())
	defer cancel()
	return translate(op, s.repo.View(ctx, func(tx repository.Tx) error { return fn(ctx, tx) }))
}

func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, repository.ErrGiveawayNotFound) {
		return ErrGiveawayNotFound
	}
	return apperrors.NewDatabaseError(op, err)
}

func (s *vouchService) invalidate(ctx context.Context, guildID string) {
	if err := s.cache.InvalidateGuild(ctx, guildID); err != nil {
		s.logger.Warn().Err(err).Str("guild_id", guildID).Msg("Failed to invalidate stats cache")
	}
}

// recordVouch checks the win in order: giveaway, block, winner, duplicate.
func (s *vouchService) recordVouch(ctx context.Context, tx repository.Tx, key models.VouchKey, source models.VouchSource) (*models.Vouch, error) {
	g, err := tx.GetGiveaway(ctx, key.GiveawayID)
	if err != nil {
		return nil, err
	}
	if g.GuildID != key.GuildID {
		return nil, ErrGiveawayNotFound
	}
	blocked, err := tx.HasVouchBlock(ctx, key)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrVouchBlocked
	}
	winner, err := tx.HasWinner(ctx, key.GiveawayID, key.UserID)
	if err != nil {
		return nil, err
	}
	if !winner {
		return nil, ErrNotAWinner
	}

	v := &models.Vouch{VouchKey: key, Source: source, CreatedAt: s.now().UTC()}
	added, err := tx.AddVouch(ctx, *v)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, ErrAlreadyVouched
	}
	return v, nil
}

func (s *vouchService) vouch(ctx context.Context, key models.VouchKey, source models.VouchSource) (*models.Vouch, error) {
	unlock, err := s.lock(ctx, key.GuildID, key.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var v *models.Vouch
	err = s.inTx(ctx, "record vouch", func(ctx context.Context, tx repository.Tx) error {
		var err error
		v, err = s.recordVouch(ctx, tx, key, source)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("guild_id", key.GuildID).
		Str("user_id", key.UserID).
		Int64("giveaway_id", key.GiveawayID).
		Str("source", string(source)).
		Msg("Vouch recorded")
	s.invalidate(ctx, key.GuildID)
	return v, nil
}

func (s *vouchService) Vouch(ctx context.Context, guildID string, giveawayID int64, userID string) (*models.Vouch, error) {
	return s.vouch(ctx, models.VouchKey{GuildID: guildID, UserID: userID, GiveawayID: giveawayID}, models.VouchSourceSelf)
}

func (s *vouchService) AddVouch(ctx context.Context, guildID string, giveawayID int64, userID string) (*models.Vouch, error) {
	return s.vouch(ctx, models.VouchKey{GuildID: guildID, UserID: userID, GiveawayID: giveawayID}, models.VouchSourceModerator)
}

func (s *vouchService) RemoveVouch(ctx context.Context, guildID string, giveawayID int64, userID string) error {
	unlock, err := s.lock(ctx, guildID, userID)
	if err != nil {
		return err
	}
	defer unlock()

	key := models.VouchKey{GuildID: guildID, UserID: userID, GiveawayID: giveawayID}
	err = s.inTx(ctx, "remove vouch", func(ctx context.Context, tx repository.Tx) error {
		removed, err := tx.RemoveVouch(ctx, key)
		if err != nil {
			return err
		}
		if !removed {
			return ErrNoSuchVouch
		}
		_, err = tx.AddVouchBlock(ctx, key)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("guild_id", guildID).
		Str("user_id", userID).
		Int64("giveaway_id", giveawayID).
		Msg("Vouch removed and blocked")
	s.invalidate(ctx, guildID)
	return nil
}

func (s *vouchService) Eligibility(ctx context.Context, guildID, userID string) (models.Eligibility, error) {
	var e models.Eligibility
	err := s.view(ctx, "load eligibility", func(ctx context.Context, tx repository.Tx) error {
		var err error
		e, err = repository.LoadEligibility(ctx, tx, guildID, userID)
		return err
	})
	return e, err
}

func (s *vouchService) HandleKeywordMessage(ctx context.Context, msg KeywordMessage) (*KeywordOutcome, error) {
	ignored := &KeywordOutcome{Kind: OutcomeIgnored}
	if msg.GuildID == "" || !s.matcher.Match(msg.Content) {
		return ignored, nil
	}
	channelID, err := s.VouchChannel(ctx, msg.GuildID)
	if err != nil {
		return nil, err
	}
	if channelID == "" || channelID != msg.ChannelID {
		return ignored, nil
	}

	unlock, err := s.lock(ctx, msg.GuildID, msg.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var outcome *KeywordOutcome
	err = s.inTx(ctx, "keyword vouch", func(ctx context.Context, tx repository.Tx) error {
		wins, err := tx.UserWins(ctx, msg.GuildID, msg.UserID)
		if err != nil {
			return err
		}
		if len(wins) == 0 {
			outcome = &KeywordOutcome{Kind: OutcomeNoWins}
			return nil
		}

		var pending, blocked []models.WinRecord
		for _, w := range wins {
			switch {
			case w.Vouched:
			case w.Blocked:
				blocked = append(blocked, w)
			default:
				pending = append(pending, w)
			}
		}

		switch {
		case len(pending) == 1:
			key := models.VouchKey{GuildID: msg.GuildID, UserID: msg.UserID, GiveawayID: pending[0].GiveawayID}
			v, err := s.recordVouch(ctx, tx, key, models.VouchSourceKeyword)
			if err != nil {
				return err
			}
			pending[0].Vouched = true
			outcome = &KeywordOutcome{Kind: OutcomeRecorded, Vouch: v, Wins: pending}
		case len(pending) > 1:
			outcome = &KeywordOutcome{Kind: OutcomeAmbiguous, Wins: pending}
		case len(blocked) > 0:
			outcome = &KeywordOutcome{Kind: OutcomeBlocked, Wins: blocked}
		default:
			outcome = &KeywordOutcome{Kind: OutcomeAllVouched, Wins: wins}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("guild_id", msg.GuildID).
		Str("user_id", msg.UserID).
		Str("outcome", string(outcome.Kind)).
		Msg("Keyword vouch handled")
	if outcome.Kind == OutcomeRecorded {
		s.invalidate(ctx, msg.GuildID)
	}
	return outcome, nil
}

func (s *vouchService) SetVouchChannel(ctx context.Context, guildID, channelID string) (*models.GuildConfig, error) {
	cfg := &models.GuildConfig{GuildID: guildID, VouchChannelID: channelID, UpdatedAt: s.now().UTC()}
	err := s.inTx(ctx, "set guild config", func(ctx context.Context, tx repository.Tx) error {
		return tx.SetGuildConfig(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("guild_id", guildID).Str("channel_id", channelID).Msg("Vouch channel updated")
	return cfg, nil
}

func (s *vouchService) VouchChannel(ctx context.Context, guildID string) (string, error) {
	var cfg *models.GuildConfig
	err := s.view(ctx, "get guild config", func(ctx context.Context, tx repository.Tx) error {
		var err error
		cfg, err = tx.GetGuildConfig(ctx, guildID)
		return err
	})
	if err != nil {
		return "", err
	}
	if cfg.VouchChannelID != "" {
		return cfg.VouchChannelID, nil
	}
	return s.config.Vouch.DefaultChannelID, nil
}
