package postgres

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cursors are opaque to clients: base64 of "unixnano:id", pointing at
// the last row of the previous page. Pagination is keyset-based on
// (created_at, id) so inserts between calls cannot shift pages.

func encodeCursor(t time.Time, id string) string {
	raw := fmt.Sprintf("%d:%s", t.UnixNano(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid cursor: %w", err)
	}

	nanos, id, found := strings.Cut(string(raw), ":")
	if !found || id == "" {
		return time.Time{}, "", fmt.Errorf("invalid cursor %q", cursor)
	}

	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid cursor timestamp: %w", err)
	}

	return time.Unix(0, n), id, nil
}
