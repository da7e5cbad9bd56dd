package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/domino14/tilegame/codec"
	"github.com/domino14/tilegame/game"
	"github.com/domino14/tilegame/registry"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	key           TEXT PRIMARY KEY,
	edition       TEXT NOT NULL,
	state         INTEGER NOT NULL,
	last_activity INTEGER NOT NULL,
	digest        INTEGER NOT NULL,
	codec         TEXT NOT NULL,
	data          BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS games_last_activity ON games(last_activity);
`

const writeAttempts = 5

// SQLiteStore keeps games in a single SQLite table. A save whose digest
// matches the stored row does not rewrite it.
type SQLiteStore struct {
	db    *sql.DB
	reg   *registry.Registry
	codec codec.Codec
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string, reg *registry.Registry, c codec.Codec) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	log.Info().Str("path", path).Str("codec", c.Name()).Msg("opened game store")
	return &SQLiteStore{db: db, reg: reg, codec: c}, nil
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// write runs fn, retrying while the database is locked by another writer.
func (s *SQLiteStore) write(ctx context.Context, fn func() error) error {
	logger := zerolog.Ctx(ctx)
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(writeAttempts),
		retry.Delay(20*time.Millisecond),
		retry.RetryIf(isBusy),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn().Err(err).Uint("n", n).Msg("store busy, trying again")
		}),
	)
}

func (s *SQLiteStore) Save(ctx context.Context, g *game.Game) error {
	data, err := codec.EncodeGame(s.codec, g)
	if err != nil {
		return fmt.Errorf("encoding game %s: %w", g.Key, err)
	}
	sum := summarise(g)
	return s.write(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `
INSERT INTO games (key, edition, state, last_activity, digest, codec, data)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	edition = excluded.edition,
	state = excluded.state,
	last_activity = excluded.last_activity,
	digest = excluded.digest,
	codec = excluded.codec,
	data = excluded.data
WHERE games.digest <> excluded.digest OR games.codec <> excluded.codec`,
			sum.Key, sum.Edition, int(sum.State), sum.LastActivity, int64(sum.Digest), s.codec.Name(), data)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		zerolog.Ctx(ctx).Debug().Str("game", g.Key).Int64("written", n).Msg("saved")
		return nil
	})
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (*game.Game, error) {
	var name string
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT codec, data FROM games WHERE key = ?`, key).
		Scan(&name, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	c, err := codec.ByName(name)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", key, err)
	}
	return codec.DecodeGame(c, s.reg, data)
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	return s.write(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE key = ?`, key)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil
	})
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, edition, state, last_activity, digest FROM games
		 ORDER BY last_activity DESC, key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Summary{}
	for rows.Next() {
		var sum Summary
		var state int
		var digest int64
		if err := rows.Scan(&sum.Key, &sum.Edition, &state, &sum.LastActivity, &digest); err != nil {
			return nil, err
		}
		sum.State = game.State(state)
		sum.Digest = uint64(digest)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
