package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

func (a *API) createThread(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Content    string   `json:"content" validate:"required"`
		MediaFiles []string `json:"media_files"`
		WebsiteURL string   `json:"website_url"`
		ParentID   string   `json:"parent_id"`
	}

	user, err := a.currentUser(r)
	if err != nil {
		if errors.Is(err, errUnauthenticated) {
			a.respondError(w, http.StatusUnauthorized, err, "Not authenticated")
			return
		}
		a.respondError(w, http.StatusInternalServerError, err, "Could not resolve current user")
		return
	}

	var body request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Could not decode request body")
		return
	}

	if valid := a.validateBody(w, &body); !valid {
		return
	}

	media := make([]Media, len(body.MediaFiles))
	for i, ref := range body.MediaFiles {
		media[i] = Media{Ref: ref}
	}

	msg, err := a.DB.InsertMessage(r.Context(), Message{
		UserID:     user.ID,
		Content:    body.Content,
		MediaFiles: media,
		WebsiteURL: body.WebsiteURL,
		ParentID:   body.ParentID,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not insert message")
		return
	}

	if body.ParentID != "" {
		// Best effort: the reply is already persisted, a failed counter
		// bump is logged and not compensated.
		if err := a.DB.IncrementCommentCount(r.Context(), body.ParentID); err != nil {
			a.Logger.Error("Could not increment parent comment count", "parent_id", body.ParentID, "error", err.Error())
		}
		if err := a.Cache.RemoveThread(r.Context(), body.ParentID); err != nil {
			a.Logger.Error("Could not invalidate cached parent", "parent_id", body.ParentID, "error", err.Error())
		}
	} else {
		if err := a.Cache.InsertThread(r.Context(), msg); err != nil {
			a.Logger.Error("Could not cache thread", "error", err.Error())
		}
	}

	if a.Events != nil {
		if err := a.Events.MessageCreated(msg); err != nil {
			a.Logger.Error("Could not publish message created event", "error", err.Error())
		}
	}

	a.respond(w, http.StatusCreated, msg)
}

func (a *API) listThreads(w http.ResponseWriter, r *http.Request) {
	var (
		cursor   = r.URL.Query().Get("cursor")
		authorID = r.URL.Query().Get("user_id")
	)

	limit := pageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= maxPageSize {
			limit = n
		}
	}

	var cached []Message
	if cursor == "" && authorID == "" {
		// The default feed page is served cache-first; the remainder of
		// the page comes from the database.
		msgs, err := a.Cache.ListThreads(r.Context())
		if err != nil {
			a.respondError(w, http.StatusInternalServerError, err, "Could not list threads")
			return
		}
		a.Logger.Info("Got threads from cache", "count", len(msgs))
		cached = msgs
	}

	excludeIDs := make([]string, len(cached))
	for i, msg := range cached {
		excludeIDs[i] = msg.ID
	}

	page, err := a.DB.ListThreads(r.Context(), ListOptions{
		Limit:      limit,
		Cursor:     cursor,
		AuthorID:   authorID,
		ExcludeIDs: excludeIDs,
	})
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not list threads")
		return
	}

	a.Logger.Info("Got remaining threads from DB", "count", len(page.Messages))
	page.Messages = append(cached, page.Messages...)
	page.Messages = a.enrichAll(r.Context(), page.Messages)
	if page.Messages == nil {
		page.Messages = []Message{}
	}

	a.respond(w, http.StatusOK, page)
}

func (a *API) getThread(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")

	msg, err := a.DB.GetMessage(r.Context(), messageID)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not get thread")
		return
	}
	if msg == nil {
		// Absence is a null result, not an error.
		a.respond(w, http.StatusOK, nil)
		return
	}

	enriched := a.enrich(r.Context(), *msg)
	a.respond(w, http.StatusOK, enriched)
}

func (a *API) listComments(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Comments []Message `json:"comments"`
	}

	messageID := chi.URLParam(r, "messageID")

	comments, err := a.DB.ListComments(r.Context(), messageID)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not list comments")
		return
	}

	comments = a.enrichAll(r.Context(), comments)
	if comments == nil {
		comments = []Message{}
	}

	a.respond(w, http.StatusOK, response{Comments: comments})
}

func (a *API) likeThread(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Success bool `json:"success"`
	}

	if _, err := a.currentUser(r); err != nil {
		if errors.Is(err, errUnauthenticated) {
			a.respondError(w, http.StatusUnauthorized, err, "Not authenticated")
			return
		}
		a.respondError(w, http.StatusInternalServerError, err, "Could not resolve current user")
		return
	}

	messageID := chi.URLParam(r, "messageID")

	// No per-user dedup: repeated likes accumulate.
	if err := a.DB.IncrementLikeCount(r.Context(), messageID); err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not like thread")
		return
	}

	if err := a.Cache.RemoveThread(r.Context(), messageID); err != nil {
		a.Logger.Error("Could not invalidate cached thread", "message_id", messageID, "error", err.Error())
	}

	a.respond(w, http.StatusOK, response{Success: true})
}

func (a *API) createUpload(w http.ResponseWriter, r *http.Request) {
	if _, err := a.currentUser(r); err != nil {
		if errors.Is(err, errUnauthenticated) {
			a.respondError(w, http.StatusUnauthorized, err, "Not authenticated")
			return
		}
		a.respondError(w, http.StatusInternalServerError, err, "Could not resolve current user")
		return
	}

	upload, err := a.Blobs.CreateUpload(r.Context())
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not create upload URL")
		return
	}

	a.respond(w, http.StatusCreated, upload)
}
