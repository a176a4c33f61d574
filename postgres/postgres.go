// Package postgres provides the thread store, the user directory, and
// the blob registry on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/threadsapp/threads-backend/api"
)

// Postgres provides storage in PostgreSQL.
type Postgres struct {
	bun *bun.DB
}

// Connect connects to the database and pings the DB to ensure the
// connection is working.
func Connect(ctx context.Context, connStr string) (*Postgres, error) {
	sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	db := bun.NewDB(sqlDB, pgdialect.New())
	return &Postgres{
		bun: db,
	}, nil
}

// InsertMessage inserts a message. Counters start at zero; the returned
// message holds the generated id.
func (pg *Postgres) InsertMessage(ctx context.Context, msg api.Message) (api.Message, error) {
	m := &message{
		ID:         uuid.NewString(),
		UserID:     msg.UserID,
		Content:    msg.Content,
		MediaRefs:  msg.MediaRefs(),
		WebsiteURL: msg.WebsiteURL,
		ParentID:   msg.ParentID,
		CreatedAt:  msg.CreatedAt,
	}
	if _, err := pg.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return api.Message{}, fmt.Errorf("insert: %w", err)
	}
	return m.APIMessage(), nil
}

// GetMessage returns the message with the given id, or nil when it does
// not exist.
func (pg *Postgres) GetMessage(ctx context.Context, id string) (*api.Message, error) {
	var m message
	err := pg.bun.NewSelect().
		Model(&m).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	out := m.APIMessage()
	return &out, nil
}

// ListThreads returns one newest-first page of messages. With an author
// filter it lists all of the author's messages; without one it lists
// top-level threads only.
func (pg *Postgres) ListThreads(ctx context.Context, opts api.ListOptions) (api.Page, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	var msgs []message
	q := pg.bun.NewSelect().
		Model(&msgs).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit + 1)

	if opts.AuthorID != "" {
		q = q.Where("user_id = ?", opts.AuthorID)
	} else {
		q = q.Where("parent_id IS NULL")
	}

	if opts.Cursor != "" {
		ts, id, err := decodeCursor(opts.Cursor)
		if err != nil {
			return api.Page{}, fmt.Errorf("decode cursor: %w", err)
		}
		q = q.Where("(created_at, id) < (?, ?)", ts, id)
	}

	if len(opts.ExcludeIDs) > 0 {
		q = q.Where("id NOT IN (?)", bun.In(opts.ExcludeIDs))
	}

	if err := q.Scan(ctx); err != nil {
		return api.Page{}, fmt.Errorf("scan: %w", err)
	}

	page := api.Page{IsDone: len(msgs) <= limit}
	if !page.IsDone {
		msgs = msgs[:limit]
	}
	page.Messages = make([]api.Message, len(msgs))
	for i, m := range msgs {
		page.Messages[i] = m.APIMessage()
	}
	if !page.IsDone && len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		page.ContinueCursor = encodeCursor(last.CreatedAt, last.ID)
	}

	return page, nil
}

// ListComments returns all replies to the given message, newest first.
func (pg *Postgres) ListComments(ctx context.Context, parentID string) ([]api.Message, error) {
	var msgs []message
	err := pg.bun.NewSelect().
		Model(&msgs).
		Where("parent_id = ?", parentID).
		OrderExpr("created_at DESC, id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	out := make([]api.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.APIMessage()
	}
	return out, nil
}

// IncrementCommentCount adds 1 to the message's comment counter. The
// increment happens in the database, so concurrent bumps do not lose
// updates.
func (pg *Postgres) IncrementCommentCount(ctx context.Context, id string) error {
	if _, err := pg.bun.NewUpdate().
		Model((*message)(nil)).
		Set("comment_count = comment_count + 1").
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

// IncrementLikeCount adds 1 to the message's like counter.
func (pg *Postgres) IncrementLikeCount(ctx context.Context, id string) error {
	if _, err := pg.bun.NewUpdate().
		Model((*message)(nil)).
		Set("like_count = like_count + 1").
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}
