package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/pressplay/backlog/internal/domain/model"
	"github.com/pressplay/backlog/pkg/metrics"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS games (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	platform       TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT '',
	awards         TEXT NOT NULL DEFAULT '[]',
	queue_position INTEGER,
	added_at       TEXT NOT NULL
);
`

// SQLiteStore persists the collection in a SQLite database. It backs
// signed-in sessions, where records must survive the process. Awards are
// stored as a JSON column and replaced wholesale on update, matching the
// whole-field replacement contract of Store.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteClock overrides the clock used for AddedAt stamps.
func WithSQLiteClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSQLiteStore opens (and if needed creates) the database at path.
// WAL mode keeps reads concurrent with the occasional write; busy_timeout
// covers lock contention from a second process on the same file.
func NewSQLiteStore(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// GetAll returns every game ordered by added_at then id for stable output.
func (s *SQLiteStore) GetAll(ctx context.Context) ([]model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, platform, status, awards, queue_position, added_at
		 FROM games ORDER BY added_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var out []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return out, nil
}

// Get returns the game with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Game, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, platform, status, awards, queue_position, added_at
		 FROM games WHERE id = ?`, id)
	g, err := scanGame(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Game{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
		}
		return model.Game{}, err
	}
	return g, nil
}

// Create inserts a new game, assigning an id when absent.
func (s *SQLiteStore) Create(ctx context.Context, g model.Game) (model.Game, error) {
	if strings.TrimSpace(g.Title) == "" {
		return model.Game{}, fmt.Errorf("create: missing title: %w", ErrInvalidGame)
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.AddedAt.IsZero() {
		g.AddedAt = s.now()
	}
	if g.Awards == nil {
		g.Awards = []model.Award{}
	}

	awardsJSON, err := json.Marshal(g.Awards)
	if err != nil {
		return model.Game{}, fmt.Errorf("marshal awards: %w", err)
	}
	var pos sql.NullInt64
	if g.QueuePosition != nil {
		pos = sql.NullInt64{Int64: int64(*g.QueuePosition), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO games (id, title, platform, status, awards, queue_position, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Title, g.Platform, g.Status, string(awardsJSON), pos, g.AddedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return model.Game{}, fmt.Errorf("insert game %s: %w", g.ID, err)
	}
	metrics.UpdateCollectionSize(s.Count(ctx))
	return g, nil
}

// Update applies the patch as a whole-field replacement and returns the
// updated record.
func (s *SQLiteStore) Update(ctx context.Context, id string, p Patch) (model.Game, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if p.Awards != nil {
		awardsJSON, err := json.Marshal(*p.Awards)
		if err != nil {
			return model.Game{}, fmt.Errorf("marshal awards: %w", err)
		}
		sets = append(sets, "awards = ?")
		args = append(args, string(awardsJSON))
	}
	if p.Queue != nil {
		sets = append(sets, "queue_position = ?")
		if p.Queue.Position == nil {
			args = append(args, nil)
		} else {
			args = append(args, *p.Queue.Position)
		}
	}
	if len(sets) == 0 {
		return s.Get(ctx, id)
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE games SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return model.Game{}, fmt.Errorf("update game %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Game{}, fmt.Errorf("update game %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return model.Game{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes the game with the given id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete game %s: rows affected: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	metrics.UpdateCollectionSize(s.Count(ctx))
	return nil
}

// Count returns the number of games in the collection.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGame(sc scanner) (model.Game, error) {
	var (
		g          model.Game
		awardsJSON string
		pos        sql.NullInt64
		addedAt    string
	)
	if err := sc.Scan(&g.ID, &g.Title, &g.Platform, &g.Status, &awardsJSON, &pos, &addedAt); err != nil {
		return model.Game{}, fmt.Errorf("scan game: %w", err)
	}
	if err := json.Unmarshal([]byte(awardsJSON), &g.Awards); err != nil {
		return model.Game{}, fmt.Errorf("unmarshal awards for %s: %w", g.ID, err)
	}
	if g.Awards == nil {
		g.Awards = []model.Award{}
	}
	if pos.Valid {
		p := int(pos.Int64)
		g.QueuePosition = &p
	}
	t, err := time.Parse(time.RFC3339Nano, addedAt)
	if err != nil {
		return model.Game{}, fmt.Errorf("parse added_at for %s: %w", g.ID, err)
	}
	g.AddedAt = t
	return g, nil
}
