package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mythictransfers/supportdesk/internal/crypto"
	"github.com/mythictransfers/supportdesk/internal/models"
)

const postgresColumns = `id::text, status, created_at, payload, actioned_by, actioned_at, sent_message_id, send_error`

// PostgresStore keeps items in the review_items table.
// Customer content is sealed when a Sealer is given.
type PostgresStore struct {
	pool  *pgxpool.Pool
	codec codec
	now   func() time.Time
}

func NewPostgresStore(pool *pgxpool.Pool, sealer *crypto.Sealer) *PostgresStore {
	return &PostgresStore{pool: pool, codec: codec{sealer: sealer}, now: time.Now}
}

func (s *PostgresStore) Enqueue(ctx context.Context, item *models.ReviewItem) error {
	data, err := s.codec.encode(item)
	if err != nil {
		return err
	}

	sender := ""
	if item.Email != nil {
		sender = item.Email.From
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO review_items (id, status, created_at, sender, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ID, item.Status, item.CreatedAt, sender, data)
	if err != nil {
		return fmt.Errorf("failed to insert review item: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.ReviewItem, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	row := s.pool.QueryRow(ctx, `SELECT `+postgresColumns+` FROM review_items WHERE id = $1`, id)
	item, err := s.scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) List(ctx context.Context, status models.ReviewStatus) ([]*models.ReviewItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+postgresColumns+`
		FROM review_items
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list review items: %w", err)
	}
	defer rows.Close()

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

func (s *PostgresStore) Transition(ctx context.Context, id string, from, to models.ReviewStatus, actor string) (*models.ReviewItem, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE review_items
		SET status = $3, actioned_by = $4, actioned_at = $5
		WHERE id = $1 AND status = $2
		RETURNING `+postgresColumns,
		id, from, to, actor, s.now().UTC())
	item, err := s.scan(row)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to transition review item: %w", err)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, current.Status)
}

func (s *PostgresStore) RecordDelivery(ctx context.Context, id, messageID string, sendErr error) error {
	if !validID(id) {
		return ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE review_items SET sent_message_id = $2, send_error = $3 WHERE id = $1
	`, id, messageID, errorText(sendErr))
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close is a no-op; the pool belongs to the caller.
func (s *PostgresStore) Close() error { return nil }

func (s *PostgresStore) scan(row pgx.Row) (*models.ReviewItem, error) {
	var (
		item          models.ReviewItem
		data          []byte
		actionedBy    *string
		sentMessageID *string
		sendError     *string
	)
	if err := row.Scan(&item.ID, &item.Status, &item.CreatedAt, &data,
		&actionedBy, &item.ActionedAt, &sentMessageID, &sendError); err != nil {
		return nil, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.ActionedBy = deref(actionedBy)
	item.SentMessageID = deref(sentMessageID)
	item.SendError = deref(sendError)

	if err := s.codec.decode(&item, data); err != nil {
		return nil, err
	}
	return &item, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
