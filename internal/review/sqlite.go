package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mythictransfers/supportdesk/internal/crypto"
	"github.com/mythictransfers/supportdesk/internal/models"
	_ "modernc.org/sqlite"
)

const sqliteColumns = `id, status, created_at, payload, actioned_by, actioned_at, sent_message_id, send_error`

// SQLiteStore keeps items in a single-file SQLite database.
// Timestamps are stored as Unix nanoseconds so ordering is exact.
type SQLiteStore struct {
	db    *sql.DB
	codec codec
	now   func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func NewSQLiteStore(path string, sealer *crypto.Sealer) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection keeps ":memory:" shared and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, codec: codec{sealer: sealer}, now: time.Now}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS review_items (
		id              TEXT PRIMARY KEY,
		status          TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
		created_at      INTEGER NOT NULL,
		sender          TEXT NOT NULL DEFAULT '',
		payload         BLOB NOT NULL,
		actioned_by     TEXT,
		actioned_at     INTEGER,
		sent_message_id TEXT,
		send_error      TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_review_items_status_created_at ON review_items(status, created_at);
	`)
	return err
}

func (s *SQLiteStore) Enqueue(ctx context.Context, item *models.ReviewItem) error {
	data, err := s.codec.encode(item)
	if err != nil {
		return err
	}

	sender := ""
	if item.Email != nil {
		sender = item.Email.From
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO review_items (id, status, created_at, sender, payload) VALUES (?, ?, ?, ?, ?)`,
		item.ID, string(item.Status), item.CreatedAt.UnixNano(), sender, data)
	if err != nil {
		return fmt.Errorf("failed to insert review item: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.ReviewItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM review_items WHERE id = ?`, id)
	item, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review item: %w", err)
	}
	return item, nil
}

func (s *SQLiteStore) List(ctx context.Context, status models.ReviewStatus) ([]*models.ReviewItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM review_items WHERE status = ? ORDER BY created_at ASC, id ASC`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list review items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]*models.ReviewItem, 0)
	for rows.Next() {
		item, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review items: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) Transition(ctx context.Context, id string, from, to models.ReviewStatus, actor string) (*models.ReviewItem, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE review_items SET status = ?, actioned_by = ?, actioned_at = ? WHERE id = ? AND status = ?`,
		string(to), actor, s.now().UnixNano(), id, string(from))
	if err != nil {
		return nil, fmt.Errorf("failed to transition review item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to transition review item: %w", err)
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, item.Status)
	}
	return item, nil
}

func (s *SQLiteStore) RecordDelivery(ctx context.Context, id, messageID string, sendErr error) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE review_items SET sent_message_id = ?, send_error = ? WHERE id = ?`,
		messageID, errorText(sendErr), id)
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scan(row rowScanner) (*models.ReviewItem, error) {
	var (
		item          models.ReviewItem
		status        string
		createdAt     int64
		data          []byte
		actionedBy    sql.NullString
		actionedAt    sql.NullInt64
		sentMessageID sql.NullString
		sendError     sql.NullString
	)
	if err := row.Scan(&item.ID, &status, &createdAt, &data,
		&actionedBy, &actionedAt, &sentMessageID, &sendError); err != nil {
		return nil, err
	}

	item.Status = models.ReviewStatus(status)
	item.CreatedAt = time.Unix(0, createdAt).UTC()
	item.ActionedBy = actionedBy.String
	if actionedAt.Valid {
		t := time.Unix(0, actionedAt.Int64).UTC()
		item.ActionedAt = &t
	}
	item.SentMessageID = sentMessageID.String
	item.SendError = sendError.String

	if err := s.codec.decode(&item, data); err != nil {
		return nil, err
	}
	return &item, nil
}
