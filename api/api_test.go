package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

// Fakes for the API's storage, cache, blob, auth, and event
// dependencies. Each method delegates to an optional func field; unset
// fields return zero values so tests only wire what they assert.

type testdb struct {
	T                     *testing.T
	insertMessage         func(t *testing.T, msg Message) (Message, error)
	getMessage            func(t *testing.T, id string) (*Message, error)
	listThreads           func(t *testing.T, opts ListOptions) (Page, error)
	listComments          func(t *testing.T, parentID string) ([]Message, error)
	incrementCommentCount func(t *testing.T, id string) error
	incrementLikeCount    func(t *testing.T, id string) error
}

func (db *testdb) InsertMessage(_ context.Context, msg Message) (Message, error) {
	if db.insertMessage == nil {
		return msg, nil
	}
	return db.insertMessage(db.T, msg)
}

func (db *testdb) GetMessage(_ context.Context, id string) (*Message, error) {
	if db.getMessage == nil {
		return nil, nil
	}
	return db.getMessage(db.T, id)
}

func (db *testdb) ListThreads(_ context.Context, opts ListOptions) (Page, error) {
	if db.listThreads == nil {
		return Page{IsDone: true}, nil
	}
	return db.listThreads(db.T, opts)
}

func (db *testdb) ListComments(_ context.Context, parentID string) ([]Message, error) {
	if db.listComments == nil {
		return nil, nil
	}
	return db.listComments(db.T, parentID)
}

func (db *testdb) IncrementCommentCount(_ context.Context, id string) error {
	if db.incrementCommentCount == nil {
		return nil
	}
	return db.incrementCommentCount(db.T, id)
}

func (db *testdb) IncrementLikeCount(_ context.Context, id string) error {
	if db.incrementLikeCount == nil {
		return nil
	}
	return db.incrementLikeCount(db.T, id)
}

type testusers struct {
	T                   *testing.T
	insertUser          func(t *testing.T, user User) (User, error)
	getUser             func(t *testing.T, id string) (*User, error)
	getUserByClerkID    func(t *testing.T, clerkID string) (*User, error)
	updateUser          func(t *testing.T, id string, patch UserPatch) (*User, error)
	deleteUserByClerkID func(t *testing.T, clerkID string) (bool, error)
	searchUsers         func(t *testing.T, term string) ([]User, error)
	listUsers           func(t *testing.T) ([]User, error)
}

func (u *testusers) InsertUser(_ context.Context, user User) (User, error) {
	if u.insertUser == nil {
		return user, nil
	}
	return u.insertUser(u.T, user)
}

func (u *testusers) GetUser(_ context.Context, id string) (*User, error) {
	if u.getUser == nil {
		return nil, nil
	}
	return u.getUser(u.T, id)
}

func (u *testusers) GetUserByClerkID(_ context.Context, clerkID string) (*User, error) {
	if u.getUserByClerkID == nil {
		return nil, nil
	}
	return u.getUserByClerkID(u.T, clerkID)
}

func (u *testusers) UpdateUser(_ context.Context, id string, patch UserPatch) (*User, error) {
	if u.updateUser == nil {
		return nil, nil
	}
	return u.updateUser(u.T, id, patch)
}

func (u *testusers) DeleteUserByClerkID(_ context.Context, clerkID string) (bool, error) {
	if u.deleteUserByClerkID == nil {
		return false, nil
	}
	return u.deleteUserByClerkID(u.T, clerkID)
}

func (u *testusers) SearchUsers(_ context.Context, term string) ([]User, error) {
	if u.searchUsers == nil {
		return nil, nil
	}
	return u.searchUsers(u.T, term)
}

func (u *testusers) ListUsers(_ context.Context) ([]User, error) {
	if u.listUsers == nil {
		return nil, nil
	}
	return u.listUsers(u.T)
}

type testcache struct {
	T            *testing.T
	listThreads  func(t *testing.T) ([]Message, error)
	insertThread func(t *testing.T, msg Message) error
	removeThread func(t *testing.T, id string) error
}

func (c *testcache) ListThreads(_ context.Context) ([]Message, error) {
	if c.listThreads == nil {
		return nil, nil
	}
	return c.listThreads(c.T)
}

func (c *testcache) InsertThread(_ context.Context, msg Message) error {
	if c.insertThread == nil {
		return nil
	}
	return c.insertThread(c.T, msg)
}

func (c *testcache) RemoveThread(_ context.Context, id string) error {
	if c.removeThread == nil {
		return nil
	}
	return c.removeThread(c.T, id)
}

type testblobs struct {
	T            *testing.T
	resolveURL   func(t *testing.T, ref string) (string, error)
	createUpload func(t *testing.T) (Upload, error)
}

func (b *testblobs) ResolveURL(_ context.Context, ref string) (string, error) {
	if b.resolveURL == nil {
		return "https://media.test/" + ref, nil
	}
	return b.resolveURL(b.T, ref)
}

func (b *testblobs) CreateUpload(_ context.Context) (Upload, error) {
	if b.createUpload == nil {
		return Upload{}, nil
	}
	return b.createUpload(b.T)
}

// testauth resolves every request to the configured subject; an empty
// subject makes requests anonymous.
type testauth struct {
	subject string
}

func (a *testauth) Subject(_ *http.Request) (string, error) {
	if a.subject == "" {
		return "", errors.New("no token")
	}
	return a.subject, nil
}

type testevents struct {
	published []Message
	err       error
}

func (e *testevents) MessageCreated(msg Message) error {
	if e.err != nil {
		return e.err
	}
	e.published = append(e.published, msg)
	return nil
}

// authedUsers wires the identity subject "clerk_1" to a directory user,
// the common setup for tests of authenticated endpoints.
func authedUsers(t *testing.T) (*testauth, *testusers) {
	users := &testusers{
		T: t,
		getUserByClerkID: func(t *testing.T, clerkID string) (*User, error) {
			if clerkID != "clerk_1" {
				return nil, nil
			}
			return &User{ID: "user-1", ClerkID: "clerk_1", Username: "alice"}, nil
		},
	}
	return &testauth{subject: "clerk_1"}, users
}

func checkStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("Got HTTP status %d, want %d", got, want)
	}
}

func checkBody(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	if want == "" {
		return
	}
	gotBody := normalizeJSON(t, resp.Body)
	wantBody := normalizeJSON(t, bytes.NewReader([]byte(want)))
	if gotBody != wantBody {
		t.Errorf("Body does not match\nGot\n  %s\n\nWant\n  %s", gotBody, wantBody)
	}
}

func normalizeJSON(t *testing.T, r io.Reader) string {
	t.Helper()
	var buf bytes.Buffer
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Could not read JSON: %v", err)
	}
	if err := json.Indent(&buf, b, "  ", "  "); err != nil {
		t.Fatalf("Could not indent JSON: %v", err)
	}
	return strings.TrimSpace(buf.String())
}
