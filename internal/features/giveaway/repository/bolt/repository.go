package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bbolt "go.etcd.io/bbolt"

	"giveaway-tracker-bot/internal/features/giveaway/models"
	"giveaway-tracker-bot/internal/features/giveaway/repository"
)

var (
	bucketGiveaways   = []byte("giveaways")
	bucketEntrants    = []byte("entrants")
	bucketWinners     = []byte("winners")
	bucketWinCounts   = []byte("win_counts")
	bucketVouches     = []byte("vouches")
	bucketVouchBlocks = []byte("vouch_blocks")
	bucketGuilds      = []byte("guild_config")

	topLevelBuckets = [][]byte{
		bucketGiveaways, bucketEntrants, bucketWinners, bucketWinCounts,
		bucketVouches, bucketVouchBlocks, bucketGuilds,
	}
)

// Repository is an embedded bbolt record store. bbolt allows a single
// writer at a time, so every WithTx call is serialized.
type Repository struct {
	db *bbolt.DB
}

// New wraps an open database and makes sure all buckets exist.
func New(db *bbolt.DB) (*Repository, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range topLevelBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (r *Repository) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.View(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.View(ctx, func(repository.Tx) error { return nil })
}

// Close is a no-op; the owner of the *bbolt.DB closes it.
func (r *Repository) Close() error {
	return nil
}

type boltTx struct {
	tx *bbolt.Tx
}

var _ repository.Tx = (*boltTx)(nil)

func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

// userKey orders a user's rows by giveaway id.
func userKey(userID string, giveawayID int64) []byte {
	return append([]byte(userID+"/"), itob(giveawayID)...)
}

func userPrefix(userID string) []byte {
	return []byte(userID + "/")
}

// nested returns the child bucket, creating it in writable transactions.
// nil means the child does not exist yet.
func (t *boltTx) nested(parent []byte, key []byte) (*bbolt.Bucket, error) {
	root := t.tx.Bucket(parent)
	if root == nil {
		return nil, fmt.Errorf("bucket %s missing", parent)
	}
	if b := root.Bucket(key); b != nil {
		return b, nil
	}
	if !t.tx.Writable() {
		return nil, nil
	}
	return root.CreateBucket(key)
}

func (t *boltTx) writable() error {
	if !t.tx.Writable() {
		return repository.ErrReadOnly
	}
	return nil
}

func (t *boltTx) putGiveaway(g *models.Giveaway) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal giveaway: %w", err)
	}
	return t.tx.Bucket(bucketGiveaways).Put(itob(g.ID), data)
}

func (t *boltTx) CreateGiveaway(_ context.Context, g *models.Giveaway) error {
	if err := t.writable(); err != nil {
		return err
	}
	seq, err := t.tx.Bucket(bucketGiveaways).NextSequence()
	if err != nil {
		return err
	}
	g.ID = int64(seq)
	return t.putGiveaway(g)
}

func (t *boltTx) GetGiveaway(_ context.Context, id int64) (*models.Giveaway, error) {
	v := t.tx.Bucket(bucketGiveaways).Get(itob(id))
	if v == nil {
		return nil, repository.ErrGiveawayNotFound
	}
	var g models.Giveaway
	if err := json.Unmarshal(v, &g); err != nil {
		return nil, fmt.Errorf("decode giveaway %d: %w", id, err)
	}
	return &g, nil
}

// GetGiveawayForUpdate needs no extra locking: the bbolt writer lock is held
// for the whole transaction.
func (t *boltTx) GetGiveawayForUpdate(ctx context.Context, id int64) (*models.Giveaway, error) {
	return t.GetGiveaway(ctx, id)
}

func (t *boltTx) FindGiveawayByPrize(_ context.Context, guildID, prize string) (*models.Giveaway, error) {
	var found *models.Giveaway
	err := t.eachGiveawayDesc(func(g *models.Giveaway) bool {
		if g.GuildID == guildID && g.Prize == prize {
			found = g
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, repository.ErrGiveawayNotFound
	}
	return found, nil
}

func (t *boltTx) SetMessageID(ctx context.Context, id int64, messageID string) error {
	if err := t.writable(); err != nil {
		return err
	}
	g, err := t.GetGiveaway(ctx, id)
	if err != nil {
		return err
	}
	g.MessageID = messageID
	return t.putGiveaway(g)
}

func (t *boltTx) UpdateStatus(ctx context.Context, id int64, from, to models.GiveawayStatus, closedAt time.Time) (bool, error) {
	if err := t.writable(); err != nil {
		return false, err
	}
	g, err := t.GetGiveaway(ctx, id)
	if err != nil {
		return false, err
	}
	if g.Status != from {
		return false, nil
	}
	g.Status = to
	if to == models.GiveawayStatusClosed {
		at := closedAt.UTC()
		g.ClosedAt = &at
	}
	return true, t.putGiveaway(g)
}

func (t *boltTx) DeleteGiveaway(_ context.Context, id int64) (bool, error) {
	if err := t.writable(); err != nil {
		return false, err
	}
	key := itob(id)
	giveaways := t.tx.Bucket(bucketGiveaways)
	if giveaways.Get(key) == nil {
		return false, nil
	}
	if err := giveaways.Delete(key); err != nil {
		return false, err
	}
	for _, name := range [][]byte{bucketEntrants, bucketWinners} {
		root := t.tx.Bucket(name)
		if root.Bucket(key) == nil {
			continue
		}
		if err := root.DeleteBucket(key); err != nil {
			return false, err
		}
	}
	return true, nil
}

// eachGiveawayDesc walks giveaways newest first until fn returns false.
func (t *boltTx) eachGiveawayDesc(fn func(g *models.Giveaway) bool) error {
	c := t.tx.Bucket(bucketGiveaways).Cursor()
	for k, v := c.Last(); k != nil; k, v = c.Prev() {
		var g models.Giveaway
		if err := json.Unmarshal(v, &g); err != nil {
			return fmt.Errorf("decode giveaway %d: %w", btoi(k), err)
		}
		if !fn(&g) {
			return nil
		}
	}
	return nil
}

func (t *boltTx) ListOpenExpired(_ context.Context, now time.Time) ([]*models.Giveaway, error) {
	var out []*models.Giveaway
	err := t.eachGiveawayDesc(func(g *models.Giveaway) bool {
		if g.IsOpen() && g.Expired(now) {
			out = append(out, g)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EndsAt.Before(out[j].EndsAt) })
	return out, err
}

func (t *boltTx) ListGiveaways(_ context.Context, guildID string) ([]*models.Giveaway, error) {
	var out []*models.Giveaway
	err := t.eachGiveawayDesc(func(g *models.Giveaway) bool {
		if g.GuildID == guildID {
			out = append(out, g)
		}
		return true
	})
	return out, err
}

// set helpers for the entrants/winners nested buckets

func (t *boltTx) setAdd(parent []byte, giveawayID int64, userID string) (bool, error) {
	if err := t.writable(); err != nil {
		return false, err
	}
	b, err := t.nested(parent, itob(giveawayID))
	if err != nil {
		return false, err
	}
	if b.Get([]byte(userID)) != nil {
		return false, nil
	}
	stamp, _ := time.Now().UTC().MarshalText()
	return true, b.Put([]byte(userID), stamp)
}

func (t *boltTx) setRemove(parent []byte, giveawayID int64, userID string) (bool, error) {
	if err := t.writable(); err != nil {
		return false, err
	}
	b := t.tx.Bucket(parent).Bucket(itob(giveawayID))
	if b == nil || b.Get([]byte(userID)) == nil {
		return false, nil
	}
	return true, b.Delete([]byte(userID))
}

func (t *boltTx) setHas(parent []byte, giveawayID int64, userID string) bool {
	b := t.tx.Bucket(parent).Bucket(itob(giveawayID))
	return b != nil && b.Get([]byte(userID)) != nil
}

func (t *boltTx) setList(parent []byte, giveawayID int64) []string {
	b := t.tx.Bucket(parent).Bucket(itob(giveawayID))
	if b == nil {
		return []string{}
	}
	out := []string{}
	_ = b.ForEach(func(k, _ []byte) error {
		out = append(out, string(k))
		return nil
	})
	return out
}

func (t *boltTx) AddEntrant(_ context.Context, giveawayID int64, userID string) (bool, error) {
	return t.setAdd(bucketEntrants, giveawayID, userID)
}

func (t *boltTx) RemoveEntrant(_ context.Context, giveawayID int64, userID string) (bool, error) {
	return t.setRemove(bucketEntrants, giveawayID, userID)
}

func (t *boltTx) HasEntrant(_ context.Context, giveawayID int64, userID string) (bool, error) {
	return t.setHas(bucketEntrants, giveawayID, userID), nil
}

func (t *boltTx) ListEntrants(_ context.Context, giveawayID int64) ([]string, error) {
	return t.setList(bucketEntrants, giveawayID), nil
}

func (t *boltTx) CountEntrants(_ context.Context, giveawayID int64) (int, error) {
	return len(t.setList(bucketEntrants, giveawayID)), nil
}

func (t *boltTx) AddWinner(_ context.Context, giveawayID int64, userID string) (bool, error) {
	return t.setAdd(bucketWinners, giveawayID, userID)
}

func (t *boltTx) RemoveWinner(_ context.Context, giveawayID int64, userID string) (bool, error) {
	return t.setRemove(bucketWinners, giveawayID, userID)
}

func (t *boltTx) HasWinner(_ context.Context, giveawayID int64, userID string) (bool, error) {
	return t.setHas(bucketWinners, giveawayID, userID), nil
}

func (t *boltTx) ListWinners(_ context.Context, giveawayID int64) ([]string, error) {
	return t.setList(bucketWinners, giveawayID), nil
}

func (t *boltTx) AdjustWinCount(_ context.Context, guildID, userID string, delta int) error {
	if err := t.writable(); err != nil {
		return err
	}
	b, err := t.nested(bucketWinCounts, []byte(guildID))
	if err != nil {
		return err
	}
	current := int64(0)
	if v := b.Get([]byte(userID)); v != nil {
		current = btoi(v)
	}
	next := current + int64(delta)
	if next <= 0 {
		return b.Delete([]byte(userID))
	}
	return b.Put([]byte(userID), itob(next))
}

func (t *boltTx) GetWinCount(_ context.Context, guildID, userID string) (int, error) {
	b := t.tx.Bucket(bucketWinCounts).Bucket([]byte(guildID))
	if b == nil {
		return 0, nil
	}
	v := b.Get([]byte(userID))
	if v == nil {
		return 0, nil
	}
	return int(btoi(v)), nil
}

func (t *boltTx) AddVouch(_ context.Context, v models.Vouch) (bool, error) {
	if err := t.writable(); err != nil {
		return false, err
	}
	b, err := t.nested(bucketVouches, []byte(v.GuildID))
	if err != nil {
		return false, err
	}
	key := userKey(v.UserID, v.GiveawayID)
	if b.Get(key) != nil {
		return false, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	return true, b.Put(key, data)
}

func (t *boltTx) RemoveVouch(_ context.Context, key models.VouchKey) (bool, error) {
	if err := t.writable(); err != nil {
		return false, err
	}
	b := t.tx.Bucket(bucketVouches).Bucket([]byte(key.GuildID))
	k := userKey(key.UserID, key.GiveawayID)
	if b == nil || b.Get(k) == nil {
		return false, nil
	}
	return true, b.Delete(k)
}

func (t *boltTx) HasVouch(_ context.Context, key models.VouchKey) (bool, error) {
	b := t.tx.Bucket(bucketVouches).Bucket([]byte(key.GuildID))
	return b != nil && b.Get(userKey(key.UserID, key.GiveawayID)) != nil, nil
}

// userGiveaways returns the giveaway ids keyed under the user's prefix in
// ascending order.
func (t *boltTx) userGiveaways(parent []byte, guildID, userID string) []int64 {
	b := t.tx.Bucket(parent).Bucket([]byte(guildID))
	if b == nil {
		return nil
	}
	prefix := userPrefix(userID)
	var ids []int64
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		ids = append(ids, btoi(k[len(prefix):]))
	}
	return ids
}

func (t *boltTx) CountVouches(_ context.Context, guildID, userID string) (int, error) {
	return len(t.userGiveaways(bucketVouches, guildID, userID)), nil
}

func (t *boltTx) AddVouchBlock(_ context.Context, key models.VouchKey) (bool, error) {
	if err := t.writable(); err != nil {
		return false, err
	}
	b, err := t.nested(bucketVouchBlocks, []byte(key.GuildID))
	if err != nil {
		return false, err
	}
	k := userKey(key.UserID, key.GiveawayID)
	if b.Get(k) != nil {
		return false, nil
	}
	stamp, _ := time.Now().UTC().MarshalText()
	return true, b.Put(k, stamp)
}

func (t *boltTx) HasVouchBlock(_ context.Context, key models.VouchKey) (bool, error) {
	b := t.tx.Bucket(bucketVouchBlocks).Bucket([]byte(key.GuildID))
	return b != nil && b.Get(userKey(key.UserID, key.GiveawayID)) != nil, nil
}

func (t *boltTx) GetGuildConfig(_ context.Context, guildID string) (*models.GuildConfig, error) {
	v := t.tx.Bucket(bucketGuilds).Get([]byte(guildID))
	if v == nil {
		return &models.GuildConfig{GuildID: guildID}, nil
	}
	var cfg models.GuildConfig
	if err := json.Unmarshal(v, &cfg); err != nil {
		return nil, fmt.Errorf("decode guild config %s: %w", guildID, err)
	}
	return &cfg, nil
}

func (t *boltTx) SetGuildConfig(_ context.Context, cfg *models.GuildConfig) error {
	if err := t.writable(); err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return t.tx.Bucket(bucketGuilds).Put([]byte(cfg.GuildID), data)
}

func (t *boltTx) ranked(guildID string) []models.LeaderboardEntry {
	b := t.tx.Bucket(bucketWinCounts).Bucket([]byte(guildID))
	if b == nil {
		return nil
	}
	var entries []models.LeaderboardEntry
	_ = b.ForEach(func(k, v []byte) error {
		wins := int(btoi(v))
		if wins <= 0 {
			return nil
		}
		entries = append(entries, models.LeaderboardEntry{
			UserID:  string(k),
			Wins:    wins,
			Vouches: len(t.userGiveaways(bucketVouches, guildID, string(k))),
		})
		return nil
	})
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Vouches != b.Vouches {
			return a.Vouches > b.Vouches
		}
		return a.UserID < b.UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func (t *boltTx) TopWinners(_ context.Context, guildID string, limit, offset int) ([]models.LeaderboardEntry, error) {
	entries := t.ranked(guildID)
	if offset >= len(entries) {
		return []models.LeaderboardEntry{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end], nil
}

func (t *boltTx) CountRanked(_ context.Context, guildID string) (int, error) {
	return len(t.ranked(guildID)), nil
}

func (t *boltTx) UserWins(ctx context.Context, guildID, userID string) ([]models.WinRecord, error) {
	var out []models.WinRecord
	err := t.eachGiveawayDesc(func(g *models.Giveaway) bool {
		if g.GuildID != guildID || !t.setHas(bucketWinners, g.ID, userID) {
			return true
		}
		key := models.VouchKey{GuildID: guildID, UserID: userID, GiveawayID: g.ID}
		vouched, _ := t.HasVouch(ctx, key)
		blocked, _ := t.HasVouchBlock(ctx, key)
		out = append(out, models.WinRecord{
			GiveawayID: g.ID,
			Prize:      g.Prize,
			Status:     g.Status,
			Vouched:    vouched,
			Blocked:    blocked,
		})
		return true
	})
	return out, err
}

func (t *boltTx) UserVouches(ctx context.Context, guildID, userID string) ([]models.WinRecord, error) {
	ids := t.userGiveaways(bucketVouches, guildID, userID)
	out := make([]models.WinRecord, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		rec := models.WinRecord{GiveawayID: ids[i], Vouched: true}
		g, err := t.GetGiveaway(ctx, ids[i])
		switch {
		case err == nil:
			rec.Prize = g.Prize
			rec.Status = g.Status
		case err != repository.ErrGiveawayNotFound:
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
