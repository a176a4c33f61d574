package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/threadsapp/threads-backend/api"
)

// InsertUser inserts a directory record. Uniqueness of clerk_id and
// username is enforced by the table's unique indexes.
func (pg *Postgres) InsertUser(ctx context.Context, u api.User) (api.User, error) {
	row := &user{
		ID:             uuid.NewString(),
		ClerkID:        u.ClerkID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Username:       u.Username,
		ImageURL:       u.ImageURL,
		Bio:            u.Bio,
		WebsiteURL:     u.WebsiteURL,
		FollowersCount: u.FollowersCount,
		PushToken:      u.PushToken,
		CreatedAt:      u.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if _, err := pg.bun.NewInsert().Model(row).Exec(ctx); err != nil {
		return api.User{}, fmt.Errorf("insert: %w", err)
	}
	return row.APIUser(), nil
}

// GetUser returns the user with the given id, or nil when it does not
// exist.
func (pg *Postgres) GetUser(ctx context.Context, id string) (*api.User, error) {
	var row user
	err := pg.bun.NewSelect().
		Model(&row).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	out := row.APIUser()
	return &out, nil
}

// GetUserByClerkID returns the user bridged to the external identity
// id, or nil when none exists.
func (pg *Postgres) GetUserByClerkID(ctx context.Context, clerkID string) (*api.User, error) {
	var row user
	err := pg.bun.NewSelect().
		Model(&row).
		Where("clerk_id = ?", clerkID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	out := row.APIUser()
	return &out, nil
}

// UpdateUser applies a partial patch and returns the updated user, or
// nil when no user exists with the id.
func (pg *Postgres) UpdateUser(ctx context.Context, id string, patch api.UserPatch) (*api.User, error) {
	q := pg.bun.NewUpdate().
		Model((*user)(nil)).
		Where("id = ?", id)

	set := false
	if patch.Bio != nil {
		q = q.Set("bio = ?", *patch.Bio)
		set = true
	}
	if patch.WebsiteURL != nil {
		q = q.Set("website_url = ?", *patch.WebsiteURL)
		set = true
	}
	if patch.ImageURL != nil {
		q = q.Set("image_url = ?", *patch.ImageURL)
		set = true
	}
	if patch.PushToken != nil {
		q = q.Set("push_token = ?", *patch.PushToken)
		set = true
	}

	if set {
		res, err := q.Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("update: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, nil
		}
	}

	return pg.GetUser(ctx, id)
}

// DeleteUserByClerkID removes the user bridged to the external identity
// id and reports whether a record was deleted.
func (pg *Postgres) DeleteUserByClerkID(ctx context.Context, clerkID string) (bool, error) {
	res, err := pg.bun.NewDelete().
		Model((*user)(nil)).
		Where("clerk_id = ?", clerkID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// SearchUsers returns users whose username starts with the term,
// case-insensitive.
func (pg *Postgres) SearchUsers(ctx context.Context, term string) ([]api.User, error) {
	var rows []user
	err := pg.bun.NewSelect().
		Model(&rows).
		Where("username ILIKE ?", term+"%").
		Order("username ASC").
		Limit(20).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	out := make([]api.User, len(rows))
	for i, row := range rows {
		out[i] = row.APIUser()
	}
	return out, nil
}

// ListUsers returns every directory record.
func (pg *Postgres) ListUsers(ctx context.Context) ([]api.User, error) {
	var rows []user
	err := pg.bun.NewSelect().
		Model(&rows).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	out := make([]api.User, len(rows))
	for i, row := range rows {
		out[i] = row.APIUser()
	}
	return out, nil
}
