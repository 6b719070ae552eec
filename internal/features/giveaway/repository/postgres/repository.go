package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"giveaway-tracker-bot/internal/features/giveaway/models"
	"giveaway-tracker-bot/internal/features/giveaway/repository"
)

const giveawayColumns = `id, guild_id, channel_id, message_id, host_id, prize, winners_count, ends_at, status, created_at, closed_at`

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository is the PostgreSQL record store.
type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate applies Schema.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return r.run(ctx, nil, fn)
}

func (r *Repository) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	return r.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (r *Repository) run(ctx context.Context, opts *sql.TxOptions, fn func(tx repository.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&pgTx{q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

type pgTx struct {
	q dbtx
}

var _ repository.Tx = (*pgTx)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGiveaway(row rowScanner) (*models.Giveaway, error) {
	var (
		g        models.Giveaway
		status   string
		closedAt sql.NullTime
	)
	err := row.Scan(&g.ID, &g.GuildID, &g.ChannelID, &g.MessageID, &g.HostID, &g.Prize,
		&g.WinnersCount, &g.EndsAt, &status, &g.CreatedAt, &closedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}
	g.Status = models.GiveawayStatus(status)
	g.EndsAt = g.EndsAt.UTC()
	g.CreatedAt = g.CreatedAt.UTC()
	if closedAt.Valid {
		at := closedAt.Time.UTC()
		g.ClosedAt = &at
	}
	return &g, nil
}

func (t *pgTx) queryGiveaways(ctx context.Context, query string, args ...any) ([]*models.Giveaway, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Giveaway
	for rows.Next() {
		g, err := scanGiveaway(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (t *pgTx) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// affected runs an exec and reports whether any row changed.
func (t *pgTx) affected(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *pgTx) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	if err := t.q.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (t *pgTx) CreateGiveaway(ctx context.Context, g *models.Giveaway) error {
	const q = `
	INSERT INTO giveaways (guild_id, channel_id, message_id, host_id, prize, winners_count, ends_at, status, created_at, closed_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	RETURNING id`
	var closedAt sql.NullTime
	if g.ClosedAt != nil {
		closedAt = sql.NullTime{Time: *g.ClosedAt, Valid: true}
	}
	return t.q.QueryRowContext(ctx, q,
		g.GuildID, g.ChannelID, g.MessageID, g.HostID, g.Prize, g.WinnersCount, g.EndsAt, string(g.Status), g.CreatedAt, closedAt,
	).Scan(&g.ID)
}

func (t *pgTx) GetGiveaway(ctx context.Context, id int64) (*models.Giveaway, error) {
	return scanGiveaway(t.q.QueryRowContext(ctx, `SELECT `+giveawayColumns+` FROM giveaways WHERE id = $1`, id))
}

func (t *pgTx) GetGiveawayForUpdate(ctx context.Context, id int64) (*models.Giveaway, error) {
	return scanGiveaway(t.q.QueryRowContext(ctx, `SELECT `+giveawayColumns+` FROM giveaways WHERE id = $1 FOR UPDATE`, id))
}

func (t *pgTx) FindGiveawayByPrize(ctx context.Context, guildID, prize string) (*models.Giveaway, error) {
	return scanGiveaway(t.q.QueryRowContext(ctx,
		`SELECT `+giveawayColumns+` FROM giveaways WHERE guild_id = $1 AND prize = $2 ORDER BY id DESC LIMIT 1`, guildID, prize))
}

func (t *pgTx) SetMessageID(ctx context.Context, id int64, messageID string) error {
	ok, err := t.affected(ctx, `UPDATE giveaways SET message_id = $2 WHERE id = $1`, id, messageID)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrGiveawayNotFound
	}
	return nil
}

func (t *pgTx) UpdateStatus(ctx context.Context, id int64, from, to models.GiveawayStatus, closedAt time.Time) (bool, error) {
	var at sql.NullTime
	if to == models.GiveawayStatusClosed {
		at = sql.NullTime{Time: closedAt.UTC(), Valid: true}
	}
	return t.affected(ctx,
		`UPDATE giveaways SET status = $3, closed_at = COALESCE($4, closed_at) WHERE id = $1 AND status = $2`,
		id, string(from), string(to), at)
}

// DeleteGiveaway relies on ON DELETE CASCADE for entrants and winners.
func (t *pgTx) DeleteGiveaway(ctx context.Context, id int64) (bool, error) {
	return t.affected(ctx, `DELETE FROM giveaways WHERE id = $1`, id)
}

func (t *pgTx) ListOpenExpired(ctx context.Context, now time.Time) ([]*models.Giveaway, error) {
	return t.queryGiveaways(ctx,
		`SELECT `+giveawayColumns+` FROM giveaways WHERE status = 'open' AND ends_at <= $1 ORDER BY ends_at ASC`, now)
}

func (t *pgTx) ListGiveaways(ctx context.Context, guildID string) ([]*models.Giveaway, error) {
	return t.queryGiveaways(ctx,
		`SELECT `+giveawayColumns+` FROM giveaways WHERE guild_id = $1 ORDER BY id DESC`, guildID)
}

func (t *pgTx) AddEntrant(ctx context.Context, giveawayID int64, userID string) (bool, error) {
	return t.affected(ctx,
		`INSERT INTO giveaway_entrants (giveaway_id, user_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, giveawayID, userID)
}

func (t *pgTx) RemoveEntrant(ctx context.Context, giveawayID int64, userID string) (bool, error) {
	return t.affected(ctx,
		`DELETE FROM giveaway_entrants WHERE giveaway_id = $1 AND user_id = $2`, giveawayID, userID)
}

func (t *pgTx) HasEntrant(ctx context.Context, giveawayID int64, userID string) (bool, error) {
	return t.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM giveaway_entrants WHERE giveaway_id = $1 AND user_id = $2)`, giveawayID, userID)
}

func (t *pgTx) ListEntrants(ctx context.Context, giveawayID int64) ([]string, error) {
	return t.queryStrings(ctx,
		`SELECT user_id FROM giveaway_entrants WHERE giveaway_id = $1 ORDER BY joined_at, user_id`, giveawayID)
}

func (t *pgTx) CountEntrants(ctx context.Context, giveawayID int64) (int, error) {
	var n int
	err := t.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM giveaway_entrants WHERE giveaway_id = $1`, giveawayID).Scan(&n)
	return n, err
}

func (t *pgTx) AddWinner(ctx context.Context, giveawayID int64, userID string) (bool, error) {
	return t.affected(ctx,
		`INSERT INTO giveaway_winners (giveaway_id, user_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, giveawayID, userID)
}

func (t *pgTx) RemoveWinner(ctx context.Context, giveawayID int64, userID string) (bool, error) {
	return t.affected(ctx,
		`DELETE FROM giveaway_winners WHERE giveaway_id = $1 AND user_id = $2`, giveawayID, userID)
}

func (t *pgTx) HasWinner(ctx context.Context, giveawayID int64, userID string) (bool, error) {
	return t.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM giveaway_winners WHERE giveaway_id = $1 AND user_id = $2)`, giveawayID, userID)
}

func (t *pgTx) ListWinners(ctx context.Context, giveawayID int64) ([]string, error) {
	return t.queryStrings(ctx,
		`SELECT user_id FROM giveaway_winners WHERE giveaway_id = $1 ORDER BY won_at, user_id`, giveawayID)
}

func (t *pgTx) AdjustWinCount(ctx context.Context, guildID, userID string, delta int) error {
	const upsert = `
	INSERT INTO win_counts (guild_id, user_id, wins) VALUES ($1, $2, GREATEST($3, 0))
	ON CONFLICT (guild_id, user_id) DO UPDATE SET wins = GREATEST(win_counts.wins + $3, 0)`
	if _, err := t.q.ExecContext(ctx, upsert, guildID, userID, delta); err != nil {
		return err
	}
	_, err := t.q.ExecContext(ctx, `DELETE FROM win_counts WHERE guild_id = $1 AND user_id = $2 AND wins = 0`, guildID, userID)
	return err
}

func (t *pgTx) GetWinCount(ctx context.Context, guildID, userID string) (int, error) {
	var n int
	err := t.q.QueryRowContext(ctx,
		`SELECT COALESCE((SELECT wins FROM win_counts WHERE guild_id = $1 AND user_id = $2), 0)`, guildID, userID).Scan(&n)
	return n, err
}

func (t *pgTx) AddVouch(ctx context.Context, v models.Vouch) (bool, error) {
	source := v.Source
	if source == "" {
		source = models.VouchSourceSelf
	}
	createdAt := v.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return t.affected(ctx,
		`INSERT INTO vouches (guild_id, user_id, giveaway_id, source, created_at) VALUES ($1,$2,$3,$4,$5) ON CONFLICT DO NOTHING`,
		v.GuildID, v.UserID, v.GiveawayID, string(source), createdAt)
}

func (t *pgTx) RemoveVouch(ctx context.Context, key models.VouchKey) (bool, error) {
	return t.affected(ctx,
		`DELETE FROM vouches WHERE guild_id = $1 AND user_id = $2 AND giveaway_id = $3`, key.GuildID, key.UserID, key.GiveawayID)
}

func (t *pgTx) HasVouch(ctx context.Context, key models.VouchKey) (bool, error) {
	return t.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM vouches WHERE guild_id = $1 AND user_id = $2 AND giveaway_id = $3)`,
		key.GuildID, key.UserID, key.GiveawayID)
}

func (t *pgTx) CountVouches(ctx context.Context, guildID, userID string) (int, error) {
	var n int
	err := t.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM vouches WHERE guild_id = $1 AND user_id = $2`, guildID, userID).Scan(&n)
	return n, err
}

func (t *pgTx) AddVouchBlock(ctx context.Context, key models.VouchKey) (bool, error) {
	return t.affected(ctx,
		`INSERT INTO vouch_blocks (guild_id, user_id, giveaway_id) VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`,
		key.GuildID, key.UserID, key.GiveawayID)
}

func (t *pgTx) HasVouchBlock(ctx context.Context, key models.VouchKey) (bool, error) {
	return t.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM vouch_blocks WHERE guild_id = $1 AND user_id = $2 AND giveaway_id = $3)`,
		key.GuildID, key.UserID, key.GiveawayID)
}

func (t *pgTx) GetGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	cfg := &models.GuildConfig{GuildID: guildID}
	err := t.q.QueryRowContext(ctx,
		`SELECT vouch_channel_id, updated_at FROM guild_config WHERE guild_id = $1`, guildID,
	).Scan(&cfg.VouchChannelID, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (t *pgTx) SetGuildConfig(ctx context.Context, cfg *models.GuildConfig) error {
	_, err := t.q.ExecContext(ctx, `
	INSERT INTO guild_config (guild_id, vouch_channel_id, updated_at) VALUES ($1,$2,$3)
	ON CONFLICT (guild_id) DO UPDATE SET vouch_channel_id = EXCLUDED.vouch_channel_id, updated_at = EXCLUDED.updated_at`,
		cfg.GuildID, cfg.VouchChannelID, cfg.UpdatedAt)
	return err
}

func (t *pgTx) TopWinners(ctx context.Context, guildID string, limit, offset int) ([]models.LeaderboardEntry, error) {
	const q = `
	SELECT w.user_id, w.wins, COALESCE(v.cnt, 0) AS vouches
	FROM win_counts w
	LEFT JOIN (
		SELECT user_id, COUNT(*) AS cnt FROM vouches WHERE guild_id = $1 GROUP BY user_id
	) v ON v.user_id = w.user_id
	WHERE w.guild_id = $1 AND w.wins > 0
	ORDER BY w.wins DESC, vouches DESC, w.user_id ASC
	LIMIT $2 OFFSET $3`
	rows, err := t.q.QueryContext(ctx, q, guildID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.LeaderboardEntry{}
	for rows.Next() {
		e := models.LeaderboardEntry{Rank: offset + len(out) + 1}
		if err := rows.Scan(&e.UserID, &e.Wins, &e.Vouches); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (t *pgTx) CountRanked(ctx context.Context, guildID string) (int, error) {
	var n int
	err := t.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM win_counts WHERE guild_id = $1 AND wins > 0`, guildID).Scan(&n)
	return n, err
}

func (t *pgTx) UserWins(ctx context.Context, guildID, userID string) ([]models.WinRecord, error) {
	const q = `
	SELECT g.id, g.prize, g.status,
		EXISTS (SELECT 1 FROM vouches v WHERE v.guild_id = g.guild_id AND v.user_id = w.user_id AND v.giveaway_id = g.id),
		EXISTS (SELECT 1 FROM vouch_blocks b WHERE b.guild_id = g.guild_id AND b.user_id = w.user_id AND b.giveaway_id = g.id)
	FROM giveaway_winners w
	JOIN giveaways g ON g.id = w.giveaway_id
	WHERE g.guild_id = $1 AND w.user_id = $2
	ORDER BY g.id DESC`
	rows, err := t.q.QueryContext(ctx, q, guildID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WinRecord
	for rows.Next() {
		var (
			rec    models.WinRecord
			status string
		)
		if err := rows.Scan(&rec.GiveawayID, &rec.Prize, &status, &rec.Vouched, &rec.Blocked); err != nil {
			return nil, err
		}
		rec.Status = models.GiveawayStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (t *pgTx) UserVouches(ctx context.Context, guildID, userID string) ([]models.WinRecord, error) {
	const q = `
	SELECT v.giveaway_id, COALESCE(g.prize, ''), COALESCE(g.status, '')
	FROM vouches v
	LEFT JOIN giveaways g ON g.id = v.giveaway_id
	WHERE v.guild_id = $1 AND v.user_id = $2
	ORDER BY v.giveaway_id DESC`
	rows, err := t.q.QueryContext(ctx, q, guildID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.WinRecord{}
	for rows.Next() {
		rec := models.WinRecord{Vouched: true}
		var status string
		if err := rows.Scan(&rec.GiveawayID, &rec.Prize, &status); err != nil {
			return nil, err
		}
		rec.Status = models.GiveawayStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}
