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
	"giveaway-tracker-bot/internal/utils/random"
)

type giveawayService struct {
	repo      repository.Repository
	locker    lock.Locker
	cache     cache.Cache
	announcer Announcer
	config    *config.Config
	logger    zerolog.Logger
	now       func() time.Time
}

type Option func(*giveawayService)

// WithAnnouncer sets the platform announcer. Without it events are dropped.
func WithAnnouncer(a Announcer) Option {
	return func(s *giveawayService) { s.announcer = a }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *giveawayService) { s.now = now }
}

func NewGiveawayService(
	repo repository.Repository,
	locker lock.Locker,
	cache cache.Cache,
	config *config.Config,
	logger zerolog.Logger,
	opts ...Option,
) GiveawayService {
	s := &giveawayService{
		repo:      repo,
		locker:    locker,
		cache:     cache,
		announcer: NopAnnouncer{},
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func lockKey(id int64) string {
	return fmt.Sprintf("giveaway:%d", id)
}

// lock serializes mutations of one giveaway. Waiting is bounded by the
// store timeout.
func (s *giveawayService) lock(ctx context.Context, id int64) (lock.Unlock, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout())
	defer cancel()
	return s.locker.Lock(lockCtx, lockKey(id))
}

// announceContext keeps the caller's values but drops its deadline, so a
// slow chat API call is bounded by AnnounceTimeout instead of the
// interaction that triggered it.
func announceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), AnnounceTimeout)
}

func (s *giveawayService) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout())
	defer cancel()
	return translate(op, s.repo.WithTx(ctx, func(tx repository.Tx) error { return fn(ctx, tx) }))
}

func (s *giveawayService) view(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout())
	defer cancel()
	return translate(op, s.repo.View(ctx, func(tx repository.Tx) error { return fn(ctx, tx) }))
}

// translate keeps business errors and turns everything else into a
// transient database error.
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

// invalidate runs after a commit, so it outlives a cancelled caller.
func (s *giveawayService) invalidate(ctx context.Context, guildID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.StoreTimeout())
	defer cancel()
	if err := s.cache.InvalidateGuild(ctx, guildID); err != nil {
		s.logger.Warn().Err(err).Str("guild_id", guildID).Msg("Failed to invalidate stats cache")
	}
}

func (s *giveawayService) Start(ctx context.Context, input models.GiveawayCreate) (*models.Giveaway, error) {
	duration, err := models.ParseDuration(input.Duration)
	if err != nil {
		return nil, ErrInvalidDuration.WithDetail("input", input.Duration)
	}
	if input.WinnersCount < models.MinWinners || input.WinnersCount > models.MaxWinners {
		return nil, ErrInvalidWinnerCount
	}
	prize := models.NormalizePrize(input.Prize)
	if prize == "" {
		return nil, ErrInvalidPrize
	}

	now := s.now().UTC()
	g := &models.Giveaway{
		GuildID:      input.GuildID,
		ChannelID:    input.ChannelID,
		HostID:       input.HostID,
		Prize:        prize,
		WinnersCount: input.WinnersCount,
		EndsAt:       now.Add(duration),
		Status:       models.GiveawayStatusOpen,
		CreatedAt:    now,
	}

	err = s.inTx(ctx, "create giveaway", func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateGiveaway(ctx, g)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("giveaway_id", g.ID).
		Str("guild_id", g.GuildID).
		Str("prize", g.Prize).
		Int("winners", g.WinnersCount).
		Time("ends_at", g.EndsAt).
		Msg("Giveaway started")

	// The message id write shares the announcement context so an expired
	// interaction does not lose it.
	ctx, cancel := announceContext(ctx)
	defer cancel()
	messageID, err := s.announcer.GiveawayStarted(ctx, g)
	if err != nil {
		s.logger.Error().Err(err).Int64("giveaway_id", g.ID).Msg("Failed to announce giveaway")
		return g, nil
	}
	if messageID != "" {
		g.MessageID = messageID
		err = s.inTx(ctx, "set message id", func(ctx context.Context, tx repository.Tx) error {
			return tx.SetMessageID(ctx, g.ID, messageID)
		})
		if err != nil {
			s.logger.Error().Err(err).Int64("giveaway_id", g.ID).Msg("Failed to store entry message id")
		}
	}
	return g, nil
}

func (s *giveawayService) Get(ctx context.Context, guildID string, id int64) (*models.Giveaway, error) {
	var g *models.Giveaway
	err := s.view(ctx, "get giveaway", func(ctx context.Context, tx repository.Tx) error {
		var err error
		g, err = tx.GetGiveaway(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if g.GuildID != guildID {
		return nil, ErrGiveawayNotFound
	}
	return g, nil
}

func notEligible(e models.Eligibility) error {
	return apperrors.Newf(apperrors.ErrCodeNotEligible,
		"You can't join yet: you have %d win(s) but only %d vouch(es). Vouch for %d more win(s) with /gw vouch first.",
		e.Wins, e.Vouches, e.Outstanding()).
		WithDetail("wins", e.Wins).
		WithDetail("vouches", e.Vouches)
}

func (s *giveawayService) Join(ctx context.Context, id int64, userID string) (*models.EntryResult, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}

	var result *models.EntryResult
	err = s.inTx(ctx, "join giveaway", func(ctx context.Context, tx repository.Tx) error {
		g, err := tx.GetGiveaway(ctx, id)
		if err != nil {
			return err
		}
		if !g.IsOpen() || g.Expired(s.now()) {
			return ErrGiveawayClosed
		}
		entered, err := tx.HasEntrant(ctx, id, userID)
		if err != nil {
			return err
		}
		if entered {
			return ErrAlreadyEntered
		}
		eligibility, err := repository.LoadEligibility(ctx, tx, g.GuildID, userID)
		if err != nil {
			return err
		}
		if !eligibility.Eligible() {
			return notEligible(eligibility)
		}
		if _, err := tx.AddEntrant(ctx, id, userID); err != nil {
			return err
		}
		n, err := tx.CountEntrants(ctx, id)
		if err != nil {
			return err
		}
		result = &models.EntryResult{Giveaway: g, Entrants: n}
		return nil
	})
	unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int64("giveaway_id", id).Str("user_id", userID).Int("entrants", result.Entrants).Msg("User joined giveaway")
	s.announceEntries(ctx, result)
	return result, nil
}

func (s *giveawayService) Leave(ctx context.Context, id int64, userID string) (*models.EntryResult, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}

	var result *models.EntryResult
	err = s.inTx(ctx, "leave giveaway", func(ctx context.Context, tx repository.Tx) error {
		g, err := tx.GetGiveaway(ctx, id)
		if err != nil {
			return err
		}
		if !g.IsOpen() || g.Expired(s.now()) {
			return ErrGiveawayClosed
		}
		removed, err := tx.RemoveEntrant(ctx, id, userID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrNotEntered
		}
		n, err := tx.CountEntrants(ctx, id)
		if err != nil {
			return err
		}
		result = &models.EntryResult{Giveaway: g, Entrants: n}
		return nil
	})
	unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int64("giveaway_id", id).Str("user_id", userID).Int("entrants", result.Entrants).Msg("User left giveaway")
	s.announceEntries(ctx, result)
	return result, nil
}

func (s *giveawayService) announceEntries(ctx context.Context, result *models.EntryResult) {
	ctx, cancel := announceContext(ctx)
	defer cancel()
	if err := s.announcer.EntriesChanged(ctx, result.Giveaway, result.Entrants); err != nil {
		s.logger.Warn().Err(err).Int64("giveaway_id", result.Giveaway.ID).Msg("Failed to refresh entry count")
	}
}

// recordWinners inserts winner rows and bumps each new winner's guild win
// count in the caller's transaction.
func recordWinners(ctx context.Context, tx repository.Tx, g *models.Giveaway, winners []string) error {
	for _, userID := range winners {
		added, err := tx.AddWinner(ctx, g.ID, userID)
		if err != nil {
			return err
		}
		if !added {
			continue
		}
		if err := tx.AdjustWinCount(ctx, g.GuildID, userID, 1); err != nil {
			return err
		}
	}
	return nil
}

func (s *giveawayService) Close(ctx context.Context, id int64, reason models.CloseReason) (*models.DrawResult, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}

	var result *models.DrawResult
	err = s.inTx(ctx, "close giveaway", func(ctx context.Context, tx repository.Tx) error {
		g, err := tx.GetGiveawayForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !g.IsOpen() {
			return ErrAlreadyClosed
		}

		entrants, err := tx.ListEntrants(ctx, id)
		if err != nil {
			return err
		}
		winners, err := random.Sample(entrants, g.WinnersCount)
		if err != nil {
			return err
		}
		if err := recordWinners(ctx, tx, g, winners); err != nil {
			return err
		}

		closedAt := s.now().UTC()
		ok, err := tx.UpdateStatus(ctx, id, models.GiveawayStatusOpen, models.GiveawayStatusClosed, closedAt)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyClosed
		}
		g.Status = models.GiveawayStatusClosed
		g.ClosedAt = &closedAt

		all, err := tx.ListWinners(ctx, id)
		if err != nil {
			return err
		}
		result = &models.DrawResult{
			Giveaway:     g,
			Winners:      winners,
			AllWinners:   all,
			EntrantCount: len(entrants),
			Reason:       reason,
		}
		return nil
	})
	unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("giveaway_id", id).
		Str("guild_id", result.Giveaway.GuildID).
		Str("reason", string(reason)).
		Int("entrants", result.EntrantCount).
		Strs("winners", result.Winners).
		Msg("Giveaway closed")

	s.invalidate(ctx, result.Giveaway.GuildID)
	announceCtx, cancel := announceContext(ctx)
	defer cancel()
	if err := s.announcer.GiveawayClosed(announceCtx, result); err != nil {
		s.logger.Error().Err(err).Int64("giveaway_id", id).Msg("Failed to announce giveaway result")
	}
	return result, nil
}

func without(items, exclude []string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, v := range exclude {
		skip[v] = struct{}{}
	}
	out := make([]string, 0, len(items))
	for _, v := range items {
		if _, ok := skip[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func contains(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

func (s *giveawayService) Reroll(ctx context.Context, id int64, req models.RerollRequest) (*models.DrawResult, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}

	var result *models.DrawResult
	err = s.inTx(ctx, "reroll giveaway", func(ctx context.Context, tx repository.Tx) error {
		g, err := tx.GetGiveawayForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if g.IsOpen() {
			return ErrGiveawayOpen
		}
		count := req.Count
		if count == 0 {
			count = g.WinnersCount
		}
		if count < models.MinWinners || count > models.MaxWinners {
			return ErrInvalidWinnerCount
		}

		entrants, err := tx.ListEntrants(ctx, id)
		if err != nil {
			return err
		}
		prior, err := tx.ListWinners(ctx, id)
		if err != nil {
			return err
		}
		// A target joins the pool even without an entry; it is drawn like
		// everyone else.
		pool := without(entrants, prior)
		if req.TargetUserID != "" {
			if contains(prior, req.TargetUserID) {
				return ErrTargetNotEligible
			}
			if !contains(pool, req.TargetUserID) {
				pool = append(pool, req.TargetUserID)
			}
		}
		if len(pool) == 0 {
			return ErrNoEligibleEntrants
		}

		selected, err := random.Sample(pool, count)
		if err != nil {
			return err
		}

		if err := recordWinners(ctx, tx, g, selected); err != nil {
			return err
		}
		all, err := tx.ListWinners(ctx, id)
		if err != nil {
			return err
		}
		result = &models.DrawResult{
			Giveaway:     g,
			Winners:      selected,
			AllWinners:   all,
			EntrantCount: len(entrants),
			Reroll:       true,
		}
		return nil
	})
	unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("giveaway_id", id).
		Strs("winners", result.Winners).
		Str("target", req.TargetUserID).
		Msg("Giveaway rerolled")

	s.invalidate(ctx, result.Giveaway.GuildID)
	announceCtx, cancel := announceContext(ctx)
	defer cancel()
	if err := s.announcer.GiveawayRerolled(announceCtx, result); err != nil {
		s.logger.Error().Err(err).Int64("giveaway_id", id).Msg("Failed to announce reroll")
	}
	return result, nil
}

func (s *giveawayService) Delete(ctx context.Context, id int64) error {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return err
	}

	var guildID string
	err = s.inTx(ctx, "delete giveaway", func(ctx context.Context, tx repository.Tx) error {
		g, err := tx.GetGiveawayForUpdate(ctx, id)
		if err != nil {
			return err
		}
		guildID = g.GuildID
		deleted, err := tx.DeleteGiveaway(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrGiveawayNotFound
		}
		return nil
	})
	unlock()
	if err != nil {
		return err
	}

	s.logger.Info().Int64("giveaway_id", id).Str("guild_id", guildID).Msg("Giveaway deleted")
	s.invalidate(ctx, guildID)
	return nil
}

// RecordManualWin credits a win that happened outside the bot. The win is
// attached to the newest closed giveaway with the same prize, or to a new
// closed placeholder giveaway.
func (s *giveawayService) RecordManualWin(ctx context.Context, guildID, prize, userID string) (*models.Giveaway, error) {
	prize = models.NormalizePrize(prize)
	if prize == "" {
		return nil, ErrInvalidPrize
	}

	var g *models.Giveaway
	err := s.inTx(ctx, "record manual win", func(ctx context.Context, tx repository.Tx) error {
		var err error
		g, err = tx.FindGiveawayByPrize(ctx, guildID, prize)
		switch {
		case errors.Is(err, repository.ErrGiveawayNotFound) || (err == nil && g.IsOpen()):
			now := s.now().UTC()
			g = &models.Giveaway{
				GuildID:      guildID,
				Prize:        prize,
				WinnersCount: models.MinWinners,
				EndsAt:       now,
				Status:       models.GiveawayStatusClosed,
				CreatedAt:    now,
				ClosedAt:     &now,
			}
			if err := tx.CreateGiveaway(ctx, g); err != nil {
				return err
			}
		case err != nil:
			return err
		}

		added, err := tx.AddWinner(ctx, g.ID, userID)
		if err != nil {
			return err
		}
		if !added {
			return ErrAlreadyWinner
		}
		return tx.AdjustWinCount(ctx, guildID, userID, 1)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("giveaway_id", g.ID).Str("guild_id", guildID).Str("user_id", userID).Msg("Manual win recorded")
	s.invalidate(ctx, guildID)
	return g, nil
}

func (s *giveawayService) AdjustWins(ctx context.Context, id int64, userID string, action models.WinAdjustment) (*models.Giveaway, error) {
	if action != models.WinAdjustmentAdd && action != models.WinAdjustmentRemove {
		return nil, apperrors.NewValidationError("action", "must be add or remove")
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}

	var g *models.Giveaway
	err = s.inTx(ctx, "adjust wins", func(ctx context.Context, tx repository.Tx) error {
		var err error
		g, err = tx.GetGiveawayForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if action == models.WinAdjustmentAdd {
			added, err := tx.AddWinner(ctx, id, userID)
			if err != nil {
				return err
			}
			if !added {
				return ErrAlreadyWinner
			}
			return tx.AdjustWinCount(ctx, g.GuildID, userID, 1)
		}
		removed, err := tx.RemoveWinner(ctx, id, userID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrNotAWinner
		}
		return tx.AdjustWinCount(ctx, g.GuildID, userID, -1)
	})
	unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("giveaway_id", id).Str("user_id", userID).Str("action", string(action)).Msg("Wins adjusted")
	s.invalidate(ctx, g.GuildID)
	return g, nil
}

func (s *giveawayService) ListExpired(ctx context.Context, now time.Time) ([]*models.Giveaway, error) {
	var out []*models.Giveaway
	err := s.view(ctx, "list expired giveaways", func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListOpenExpired(ctx, now)
		return err
	})
	return out, err
}
