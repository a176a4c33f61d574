package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *API) getCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.currentUser(r)
	if err != nil {
		if errors.Is(err, errUnauthenticated) {
			a.respondError(w, http.StatusUnauthorized, err, "Not authenticated")
			return
		}
		a.respondError(w, http.StatusInternalServerError, err, "Could not resolve current user")
		return
	}

	resolved := a.resolveAvatar(r.Context(), *user)
	a.respond(w, http.StatusOK, resolved)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := a.Users.GetUser(r.Context(), userID)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not get user")
		return
	}
	if user == nil {
		a.respond(w, http.StatusOK, nil)
		return
	}

	resolved := a.resolveAvatar(r.Context(), *user)
	a.respond(w, http.StatusOK, resolved)
}

func (a *API) getUserByClerkID(w http.ResponseWriter, r *http.Request) {
	clerkID := chi.URLParam(r, "clerkID")

	user, err := a.Users.GetUserByClerkID(r.Context(), clerkID)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not get user")
		return
	}
	if user == nil {
		a.respond(w, http.StatusOK, nil)
		return
	}

	resolved := a.resolveAvatar(r.Context(), *user)
	a.respond(w, http.StatusOK, resolved)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Users []User `json:"users"`
	}

	users, err := a.Users.ListUsers(r.Context())
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not list users")
		return
	}
	if users == nil {
		users = []User{}
	}

	a.respond(w, http.StatusOK, response{Users: users})
}

func (a *API) searchUsers(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Users []User `json:"users"`
	}

	term := r.URL.Query().Get("q")
	if term == "" {
		a.respond(w, http.StatusOK, response{Users: []User{}})
		return
	}

	users, err := a.Users.SearchUsers(r.Context(), term)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not search users")
		return
	}

	// Avatar resolution is best effort per item; a failed lookup keeps
	// the stored reference.
	for i, u := range users {
		users[i] = a.resolveAvatar(r.Context(), u)
	}
	if users == nil {
		users = []User{}
	}

	a.respond(w, http.StatusOK, response{Users: users})
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Bio            *string `json:"bio"`
		WebsiteURL     *string `json:"website_url"`
		ProfilePicture *string `json:"profile_picture"`
		PushToken      *string `json:"push_token"`
	}

	if _, err := a.currentUser(r); err != nil {
		if errors.Is(err, errUnauthenticated) {
			a.respondError(w, http.StatusUnauthorized, err, "Not authenticated")
			return
		}
		a.respondError(w, http.StatusInternalServerError, err, "Could not resolve current user")
		return
	}

	userID := chi.URLParam(r, "userID")

	var body request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Could not decode request body")
		return
	}

	user, err := a.Users.UpdateUser(r.Context(), userID, UserPatch{
		Bio:        body.Bio,
		WebsiteURL: body.WebsiteURL,
		ImageURL:   body.ProfilePicture,
		PushToken:  body.PushToken,
	})
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not update user")
		return
	}
	if user == nil {
		a.respond(w, http.StatusOK, nil)
		return
	}

	a.respond(w, http.StatusOK, user)
}

// updateUserImage patches only the avatar reference. Unlike updateUser
// it performs no caller check; the route is kept as the client expects
// it.
func (a *API) updateUserImage(w http.ResponseWriter, r *http.Request) {
	type request struct {
		StorageRef string `json:"storage_ref" validate:"required"`
	}

	userID := chi.URLParam(r, "userID")

	var body request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Could not decode request body")
		return
	}

	if valid := a.validateBody(w, &body); !valid {
		return
	}

	user, err := a.Users.UpdateUser(r.Context(), userID, UserPatch{
		ImageURL: &body.StorageRef,
	})
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err, "Could not update user image")
		return
	}
	if user == nil {
		a.respond(w, http.StatusOK, nil)
		return
	}

	a.respond(w, http.StatusOK, user)
}

// clerkWebhook ingests identity-provider events. The provider retries
// on non-2xx, so the handler acknowledges with 200 regardless of the
// internal outcome; malformed payloads are logged and dropped.
func (a *API) clerkWebhook(w http.ResponseWriter, r *http.Request) {
	type event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	var evt event
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		a.Logger.Error("Could not decode webhook body", "error", err.Error())
		w.WriteHeader(http.StatusOK)
		return
	}

	switch evt.Type {
	case "user.created":
		a.handleUserCreated(r, evt.Data)
	case "user.deleted":
		a.handleUserDeleted(r, evt.Data)
	default:
		a.Logger.Info("Ignoring webhook event", "type", evt.Type)
	}

	w.WriteHeader(http.StatusOK)
}

// clerkUserCreated is the validated mapping of a user.created payload.
// The raw webhook JSON is never copied field-by-field into the insert.
type clerkUserCreated struct {
	ID        string `json:"id" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Emails    []struct {
		EmailAddress string `json:"email_address" validate:"required,email"`
	} `json:"email_addresses" validate:"required,min=1,dive"`
	ImageURL string  `json:"image_url"`
	Username *string `json:"username"`
}

func (a *API) handleUserCreated(r *http.Request, data json.RawMessage) {
	var payload clerkUserCreated
	if err := json.Unmarshal(data, &payload); err != nil {
		a.Logger.Error("Could not decode user.created payload", "error", err.Error())
		return
	}
	if errs := a.Val.ValidateStruct(&payload); len(errs) > 0 {
		a.Logger.Error("Rejected malformed user.created payload", "errors", len(errs), "first_field", errs[0].Field)
		return
	}

	username := ""
	if payload.Username != nil {
		username = *payload.Username
	}
	if username == "" {
		username = payload.FirstName + payload.LastName
	}

	user, err := a.Users.InsertUser(r.Context(), User{
		ClerkID:        payload.ID,
		Email:          payload.Emails[0].EmailAddress,
		FirstName:      payload.FirstName,
		LastName:       payload.LastName,
		Username:       username,
		ImageURL:       payload.ImageURL,
		FollowersCount: 0,
	})
	if err != nil {
		a.Logger.Error("Could not create user from webhook", "clerk_id", payload.ID, "error", err.Error())
		return
	}
	a.Logger.Info("Created user from webhook", "user_id", user.ID, "clerk_id", user.ClerkID)
}

func (a *API) handleUserDeleted(r *http.Request, data json.RawMessage) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.ID == "" {
		a.Logger.Error("Could not decode user.deleted payload")
		return
	}

	deleted, err := a.Users.DeleteUserByClerkID(r.Context(), payload.ID)
	if err != nil {
		a.Logger.Error("Could not delete user from webhook", "clerk_id", payload.ID, "error", err.Error())
		return
	}
	if !deleted {
		a.Logger.Warn("No user to delete for webhook event", "clerk_id", payload.ID)
		return
	}
	a.Logger.Info("Deleted user from webhook", "clerk_id", payload.ID)
}
