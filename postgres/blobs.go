package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/threadsapp/threads-backend/api"
)

// A BlobStore is the registry of uploaded media objects. It mints
// upload slots and resolves storage references to fetchable URLs; the
// object bytes themselves live behind the media base URL, outside this
// repository.
type BlobStore struct {
	pg      *Postgres
	baseURL string
}

// NewBlobStore creates a BlobStore deriving URLs from baseURL.
func NewBlobStore(pg *Postgres, baseURL string) *BlobStore {
	return &BlobStore{
		pg:      pg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// ResolveURL resolves a storage reference to its public URL. Unknown
// references are an error; callers decide whether that is fatal.
func (s *BlobStore) ResolveURL(ctx context.Context, ref string) (string, error) {
	var b blob
	err := s.pg.bun.NewSelect().
		Model(&b).
		Where("ref = ?", ref).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("unknown storage ref %q", ref)
		}
		return "", fmt.Errorf("scan: %w", err)
	}
	return s.baseURL + "/media/" + b.Ref, nil
}

// CreateUpload registers a new storage reference and returns it with
// the URL the client should upload the bytes to.
func (s *BlobStore) CreateUpload(ctx context.Context) (api.Upload, error) {
	b := &blob{Ref: uuid.NewString()}
	if _, err := s.pg.bun.NewInsert().Model(b).Exec(ctx); err != nil {
		return api.Upload{}, fmt.Errorf("insert: %w", err)
	}
	return api.Upload{
		Ref:       b.Ref,
		UploadURL: s.baseURL + "/upload/" + b.Ref,
	}, nil
}
