// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Excalibur Contributors

package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/excalibur-srs/excalibur/internal/store"
	xerr "github.com/excalibur-srs/excalibur/pkg/errors"
	"github.com/excalibur-srs/excalibur/pkg/types"
)

// Compile-time interface check.
var _ store.SchedulingStore = (*SchedulingStore)(nil)

// SchedulingStore implements store.SchedulingStore backed by SQLite.
// A pid lock file next to the database refuses a second concurrent writer.
type SchedulingStore struct {
	db   *sql.DB
	lock *pidLock
}

// NewSchedulingStore opens (or creates) a SQLite database at dbPath,
// acquires the single-writer lock, and initialises the scheduling and
// review_log tables.
func NewSchedulingStore(dbPath string) (*SchedulingStore, error) {
	lock, err := acquirePidLock(dbPath + ".lock")
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		lock.release()
		return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure, "opening sqlite db")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		lock.release()
		return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure, "pinging sqlite db")
	}

	if err := migrate(db); err != nil {
		db.Close()
		lock.release()
		return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure, "migrating sqlite db")
	}

	return &SchedulingStore{db: db, lock: lock}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS scheduling (
	card_id          TEXT PRIMARY KEY,
	stability        REAL NOT NULL DEFAULT 0,
	difficulty       REAL NOT NULL DEFAULT 0,
	due_at           TEXT NOT NULL DEFAULT '',
	last_reviewed_at TEXT NOT NULL DEFAULT '',
	state            TEXT NOT NULL DEFAULT 'new',
	reps             INTEGER NOT NULL DEFAULT 0,
	lapses           INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS review_log (
	id              TEXT PRIMARY KEY,
	card_id         TEXT NOT NULL,
	rated_at        TEXT NOT NULL,
	rating          INTEGER NOT NULL,
	elapsed_days    REAL NOT NULL DEFAULT 0,
	stability_before  REAL NOT NULL DEFAULT 0,
	stability_after   REAL NOT NULL DEFAULT 0,
	difficulty_before REAL NOT NULL DEFAULT 0,
	difficulty_after  REAL NOT NULL DEFAULT 0,
	scheduled_days  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_review_log_card ON review_log(card_id, rated_at);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the database and releases the writer lock.
func (s *SchedulingStore) Close() error {
	err := s.db.Close()
	s.lock.release()
	return err
}

func (s *SchedulingStore) GetState(ctx context.Context, cardID string) (*store.SchedulingState, error) {
	if cardID == "" {
		return nil, xerr.New(xerr.CodeStoreInvalidInput, "get state: card id is required")
	}

	const q = `SELECT card_id, stability, difficulty, due_at, last_reviewed_at, state, reps, lapses
FROM scheduling WHERE card_id = ?`

	st, err := scanState(s.db.QueryRowContext(ctx, q, cardID))
	if err == sql.ErrNoRows {
		return store.NewState(cardID), nil
	}
	if err != nil {
		return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure, "getting state for card %s", cardID)
	}

	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *SchedulingStore) UpsertState(ctx context.Context, state *store.SchedulingState) error {
	if state == nil {
		return xerr.New(xerr.CodeStoreInvalidInput, "upsert state: state is required")
	}
	if err := state.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, upsertStateSQL, upsertStateArgs(state)...)
	if err != nil {
		return xerr.Wrap(err, xerr.CodeStoreWriteFailure, "upserting scheduling state",
			xerr.FieldCardID(state.CardID))
	}
	return nil
}

const upsertStateSQL = `INSERT INTO scheduling (card_id, stability, difficulty, due_at, last_reviewed_at, state, reps, lapses)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(card_id) DO UPDATE SET
	stability = excluded.stability,
	difficulty = excluded.difficulty,
	due_at = excluded.due_at,
	last_reviewed_at = excluded.last_reviewed_at,
	state = excluded.state,
	reps = excluded.reps,
	lapses = excluded.lapses`

func upsertStateArgs(state *store.SchedulingState) []any {
	return []any{
		state.CardID,
		state.Stability,
		state.Difficulty,
		formatTime(state.DueAt),
		formatTime(state.LastReviewedAt),
		string(state.LearningState),
		state.Reps,
		state.Lapses,
	}
}

func (s *SchedulingStore) AppendLog(ctx context.Context, entry *store.ReviewLogEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, appendLogSQL, appendLogArgs(entry)...)
	if err != nil {
		return xerr.Wrap(err, xerr.CodeStoreWriteFailure, "appending review log entry",
			xerr.FieldCardID(entry.CardID))
	}
	return nil
}

const appendLogSQL = `INSERT INTO review_log
(id, card_id, rated_at, rating, elapsed_days, stability_before, stability_after, difficulty_before, difficulty_after, scheduled_days)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func appendLogArgs(entry *store.ReviewLogEntry) []any {
	return []any{
		entry.ID,
		entry.CardID,
		formatTime(entry.RatedAt),
		int(entry.Rating),
		entry.ElapsedDays,
		entry.StabilityBefore,
		entry.StabilityAfter,
		entry.DifficultyBefore,
		entry.DifficultyAfter,
		entry.ScheduledDays,
	}
}

// CommitReview appends the log entry and upserts the state inside a single
// transaction, log first. On any failure the transaction rolls back and
// nothing is visible, so the caller may retry with the same inputs.
func (s *SchedulingStore) CommitReview(ctx context.Context, state *store.SchedulingState, entry *store.ReviewLogEntry) error {
	if state == nil {
		return xerr.New(xerr.CodeStoreInvalidInput, "commit review: state is required")
	}
	if err := state.Validate(); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return xerr.Wrap(err, xerr.CodeStoreWriteFailure, "starting review transaction",
			xerr.FieldCardID(state.CardID))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, appendLogSQL, appendLogArgs(entry)...); err != nil {
		return xerr.Wrap(err, xerr.CodeStoreWriteFailure, "appending review log entry",
			xerr.FieldCardID(entry.CardID))
	}
	if _, err := tx.ExecContext(ctx, upsertStateSQL, upsertStateArgs(state)...); err != nil {
		return xerr.Wrap(err, xerr.CodeStoreWriteFailure, "upserting scheduling state",
			xerr.FieldCardID(state.CardID))
	}

	if err := tx.Commit(); err != nil {
		return xerr.Wrap(err, xerr.CodeStoreWriteFailure, "committing review",
			xerr.FieldCardID(state.CardID))
	}
	return nil
}

// DueStates returns every record eligible at now. Time comparison happens in
// Go: RFC3339Nano strings truncate trailing zeros, so lexicographic SQL
// comparison is not safe.
func (s *SchedulingStore) DueStates(ctx context.Context, now time.Time) ([]*store.SchedulingState, error) {
	all, err := s.scanAll(ctx)
	if err != nil {
		return nil, err
	}

	var due []*store.SchedulingState
	for _, st := range all {
		if st.Reps == 0 || !st.DueAt.After(now) {
			due = append(due, st)
		}
	}
	return due, nil
}

func (s *SchedulingStore) AllStates(ctx context.Context) ([]*store.SchedulingState, error) {
	return s.scanAll(ctx)
}

func (s *SchedulingStore) scanAll(ctx context.Context) ([]*store.SchedulingState, error) {
	const q = `SELECT card_id, stability, difficulty, due_at, last_reviewed_at, state, reps, lapses
FROM scheduling ORDER BY card_id ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure, "listing scheduling states")
	}
	defer rows.Close()

	var states []*store.SchedulingState
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure, "scanning scheduling row")
		}
		if err := st.Validate(); err != nil {
			// Corrupt record: exclude from scheduling, leave in place
			// for repair, never default silently.
			slog.Warn("excluding corrupt scheduling record",
				"card_id", st.CardID, "error", err)
			continue
		}
		states = append(states, st)
	}

	if err := rows.Err(); err != nil {
		return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure, "iterating scheduling rows")
	}
	return states, nil
}

func (s *SchedulingStore) StateIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT card_id FROM scheduling ORDER BY card_id ASC`)
	if err != nil {
		return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure, "listing scheduling ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure, "scanning scheduling id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SchedulingStore) LogEntries(ctx context.Context, cardID string, limit int) ([]*store.ReviewLogEntry, error) {
	q := `SELECT id, card_id, rated_at, rating, elapsed_days, stability_before, stability_after, difficulty_before, difficulty_after, scheduled_days
FROM review_log`
	var args []any
	if cardID != "" {
		q += ` WHERE card_id = ?`
		args = append(args, cardID)
	}
	// Appends are monotonic by rated_at, so insertion order is time order.
	q += ` ORDER BY rowid ASC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure, "listing review log")
	}
	defer rows.Close()

	var entries []*store.ReviewLogEntry
	for rows.Next() {
		var e store.ReviewLogEntry
		var ratedAt string
		var rating int
		if err := rows.Scan(
			&e.ID,
			&e.CardID,
			&ratedAt,
			&rating,
			&e.ElapsedDays,
			&e.StabilityBefore,
			&e.StabilityAfter,
			&e.DifficultyBefore,
			&e.DifficultyAfter,
			&e.ScheduledDays,
		); err != nil {
			return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure, "scanning review log row")
		}
		e.RatedAt = parseTime(ratedAt)
		e.Rating = types.Rating(rating)
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

func (s *SchedulingStore) ReviewCounts(ctx context.Context) (store.RatingCounts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT rating, COUNT(*) FROM review_log GROUP BY rating`)
	if err != nil {
		return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure, "counting reviews")
	}
	defer rows.Close()

	counts := store.RatingCounts{}
	for rows.Next() {
		var rating int
		var n int64
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, xerr.Wrapf(err, xerr.CodeStoreDatabaseFailure, "scanning review count row")
		}
		counts[types.Rating(rating)] = n
	}
	return counts, rows.Err()
}

func (s *SchedulingStore) DeleteState(ctx context.Context, cardID string) error {
	if cardID == "" {
		return xerr.New(xerr.CodeStoreInvalidInput, "delete state: card id is required")
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM scheduling WHERE card_id = ?`, cardID)
	if err != nil {
		return xerr.Wrap(err, xerr.CodeStoreWriteFailure, "deleting scheduling state",
			xerr.FieldCardID(cardID))
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanState.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (*store.SchedulingState, error) {
	var st store.SchedulingState
	var dueAt, lastReviewed, state string

	if err := row.Scan(
		&st.CardID,
		&st.Stability,
		&st.Difficulty,
		&dueAt,
		&lastReviewed,
		&state,
		&st.Reps,
		&st.Lapses,
	); err != nil {
		return nil, err
	}

	st.DueAt = parseTime(dueAt)
	st.LastReviewedAt = parseTime(lastReviewed)
	st.LearningState = types.LearningState(state)
	return &st, nil
}

// formatTime serialises a time.Time to RFC3339 with nanosecond precision.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
