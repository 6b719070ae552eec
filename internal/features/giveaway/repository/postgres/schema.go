package postgres

// Schema creates every table the store needs. Statements are idempotent so
// it can run on each start. Vouches, blocks and win counts do not reference
// giveaways: they outlive a deleted giveaway.
const Schema = `
CREATE TABLE IF NOT EXISTS giveaways (
	id            BIGSERIAL PRIMARY KEY,
	guild_id      TEXT        NOT NULL,
	channel_id    TEXT        NOT NULL DEFAULT '',
	message_id    TEXT        NOT NULL DEFAULT '',
	host_id       TEXT        NOT NULL DEFAULT '',
	prize         TEXT        NOT NULL,
	winners_count INT         NOT NULL CHECK (winners_count BETWEEN 1 AND 50),
	ends_at       TIMESTAMPTZ NOT NULL,
	status        TEXT        NOT NULL DEFAULT 'open',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	closed_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS giveaways_open_ends_at_idx ON giveaways (ends_at) WHERE status = 'open';
CREATE INDEX IF NOT EXISTS giveaways_guild_idx ON giveaways (guild_id, id DESC);

CREATE TABLE IF NOT EXISTS giveaway_entrants (
	giveaway_id BIGINT      NOT NULL REFERENCES giveaways (id) ON DELETE CASCADE,
	user_id     TEXT        NOT NULL,
	joined_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (giveaway_id, user_id)
);

CREATE TABLE IF NOT EXISTS giveaway_winners (
	giveaway_id BIGINT      NOT NULL REFERENCES giveaways (id) ON DELETE CASCADE,
	user_id     TEXT        NOT NULL,
	won_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (giveaway_id, user_id)
);
CREATE INDEX IF NOT EXISTS giveaway_winners_user_idx ON giveaway_winners (user_id);

CREATE TABLE IF NOT EXISTS win_counts (
	guild_id TEXT NOT NULL,
	user_id  TEXT NOT NULL,
	wins     INT  NOT NULL CHECK (wins >= 0),
	PRIMARY KEY (guild_id, user_id)
);

CREATE TABLE IF NOT EXISTS vouches (
	guild_id    TEXT        NOT NULL,
	user_id     TEXT        NOT NULL,
	giveaway_id BIGINT      NOT NULL,
	source      TEXT        NOT NULL DEFAULT 'self',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (guild_id, user_id, giveaway_id)
);

CREATE TABLE IF NOT EXISTS vouch_blocks (
	guild_id    TEXT        NOT NULL,
	user_id     TEXT        NOT NULL,
	giveaway_id BIGINT      NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (guild_id, user_id, giveaway_id)
);

CREATE TABLE IF NOT EXISTS guild_config (
	guild_id         TEXT PRIMARY KEY,
	vouch_channel_id TEXT        NOT NULL DEFAULT '',
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
