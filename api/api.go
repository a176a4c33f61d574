package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/threadsapp/threads-backend/api/validator"
)

// A DB provides the thread store: persisted messages and their
// denormalized engagement counters.
type DB interface {
	InsertMessage(ctx context.Context, msg Message) (Message, error)
	// GetMessage returns nil, nil when no message exists with the id.
	GetMessage(ctx context.Context, id string) (*Message, error)
	ListThreads(ctx context.Context, opts ListOptions) (Page, error)
	ListComments(ctx context.Context, parentID string) ([]Message, error)
	IncrementCommentCount(ctx context.Context, id string) error
	IncrementLikeCount(ctx context.Context, id string) error
}

// ListOptions selects one page of a newest-first message listing.
// AuthorID filters to a single author's messages (threads and replies);
// when empty the listing is restricted to top-level threads. ExcludeIDs
// drops messages already served from the cache.
type ListOptions struct {
	Limit      int
	Cursor     string
	AuthorID   string
	ExcludeIDs []string
}

// Users provides the user directory keyed by local id and by the
// identity provider's subject id.
type Users interface {
	InsertUser(ctx context.Context, user User) (User, error)
	// GetUser returns nil, nil when no user exists with the id.
	GetUser(ctx context.Context, id string) (*User, error)
	// GetUserByClerkID returns nil, nil when no user is bridged to the
	// external id.
	GetUserByClerkID(ctx context.Context, clerkID string) (*User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*User, error)
	// DeleteUserByClerkID reports whether a user was deleted.
	DeleteUserByClerkID(ctx context.Context, clerkID string) (bool, error)
	SearchUsers(ctx context.Context, term string) ([]User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// A Cache provides a storage layer that caches recent top-level threads
// for the default feed page.
type Cache interface {
	ListThreads(ctx context.Context) ([]Message, error)
	InsertThread(ctx context.Context, msg Message) error
	RemoveThread(ctx context.Context, id string) error
}

// Blobs resolves opaque storage references to fetchable URLs and mints
// upload slots for new media.
type Blobs interface {
	ResolveURL(ctx context.Context, ref string) (string, error)
	CreateUpload(ctx context.Context) (Upload, error)
}

// A Publisher emits domain events for other components (notification
// dispatch) to consume.
type Publisher interface {
	MessageCreated(msg Message) error
}

// Identity resolves the caller's identity-provider subject from a
// request. An error or empty subject means the request is anonymous.
type Identity interface {
	Subject(r *http.Request) (string, error)
}

// API provides the client-facing query/mutation surface and the
// identity-provider webhook.
type API struct {
	Logger *slog.Logger
	DB     DB
	Users  Users
	Cache  Cache
	Blobs  Blobs
	Auth   Identity
	Events Publisher // optional; nil disables event publishing
	Val    *validator.Validator

	once sync.Once
	mux  *chi.Mux
}

// pageSize defines the default number of items on a single page;
// maxPageSize caps the client-requested limit.
var (
	pageSize    = 10
	maxPageSize = 50
)

// errUnauthenticated is returned when no caller identity resolves to a
// directory user. It is the only error class the require-user entry
// points propagate; missing entities are nulls, not errors.
var errUnauthenticated = errors.New("not authenticated")

func (a *API) setupRoutes() {
	mux := chi.NewRouter()
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(chimiddleware.Recoverer)

	mux.Route("/api", func(r chi.Router) {
		r.Post("/threads", a.createThread)
		r.Get("/threads", a.listThreads)
		r.Get("/threads/{messageID}", a.getThread)
		r.Get("/threads/{messageID}/comments", a.listComments)
		r.Post("/threads/{messageID}/like", a.likeThread)
		r.Post("/storage/upload-url", a.createUpload)

		r.Get("/users", a.listUsers)
		r.Get("/users/me", a.getCurrentUser)
		r.Get("/users/search", a.searchUsers)
		r.Get("/users/clerk/{clerkID}", a.getUserByClerkID)
		r.Get("/users/{userID}", a.getUser)
		r.Patch("/users/{userID}", a.updateUser)
		r.Put("/users/{userID}/image", a.updateUserImage)
	})

	mux.Post("/webhooks/clerk", a.clerkWebhook)

	a.mux = mux
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.once.Do(a.setupRoutes)
	a.Logger.Info("Request received", "method", r.Method, "path", r.URL.Path)
	a.mux.ServeHTTP(w, r)
}

// currentUser resolves the authenticated caller to a directory user.
// Returns errUnauthenticated when no identity resolves or the subject
// has no user record.
func (a *API) currentUser(r *http.Request) (*User, error) {
	if a.Auth == nil {
		return nil, errUnauthenticated
	}
	subject, err := a.Auth.Subject(r)
	if err != nil || subject == "" {
		return nil, errUnauthenticated
	}
	user, err := a.Users.GetUserByClerkID(r.Context(), subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errUnauthenticated
	}
	return user, nil
}

func (a *API) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.Logger.Error("Could not encode JSON body", "error", err.Error())
	}
}

func (a *API) respondError(w http.ResponseWriter, status int, err error, msg string) {
	type response struct {
		Error string `json:"error"`
	}
	a.Logger.Error("Error", "error", err.Error())
	a.respond(w, status, response{Error: msg})
}

func (a *API) validateBody(w http.ResponseWriter, s interface{}) bool {
	errs := a.Val.ValidateStruct(s)
	type response struct {
		Errors []validator.ValidationError `json:"errors"`
	}

	if len(errs) > 0 {
		a.respond(w, http.StatusBadRequest, &response{
			Errors: errs,
		})
		return false
	}
	return true
}
