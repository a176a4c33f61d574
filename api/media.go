package api

import (
	"context"
	"strings"
	"sync"
)

// enrich attaches the resolved creator and media URLs to a message.
// Enrichment is best effort: a missing or unloadable creator leaves
// Creator nil, and media failures are recorded per entry.
func (a *API) enrich(ctx context.Context, msg Message) Message {
	creator, err := a.Users.GetUser(ctx, msg.UserID)
	if err != nil {
		a.Logger.Error("Could not load message creator", "message_id", msg.ID, "user_id", msg.UserID, "error", err.Error())
	}
	if creator != nil {
		resolved := a.resolveAvatar(ctx, *creator)
		msg.Creator = &resolved
	}

	msg.MediaFiles = a.resolveMedia(ctx, msg.MediaFiles)
	return msg
}

func (a *API) enrichAll(ctx context.Context, msgs []Message) []Message {
	for i, msg := range msgs {
		msgs[i] = a.enrich(ctx, msg)
	}
	return msgs
}

// resolveMedia resolves each storage reference independently and in
// parallel. The result keeps positional correspondence with the input:
// entry i always carries ref i, with either its URL or the resolution
// error. References that already look like absolute URLs pass through.
func (a *API) resolveMedia(ctx context.Context, media []Media) []Media {
	if len(media) == 0 {
		return media
	}

	out := make([]Media, len(media))
	var wg sync.WaitGroup
	for i, m := range media {
		if isAbsoluteURL(m.Ref) {
			out[i] = Media{Ref: m.Ref, URL: m.Ref}
			continue
		}
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			url, err := a.Blobs.ResolveURL(ctx, ref)
			if err != nil {
				out[i] = Media{Ref: ref, Error: err.Error()}
				return
			}
			out[i] = Media{Ref: ref, URL: url}
		}(i, m.Ref)
	}
	wg.Wait()

	return out
}

// resolveAvatar applies the single avatar-resolution contract: an empty
// or already-absolute ImageURL passes through unchanged; otherwise the
// reference is looked up in blob storage, and a failed lookup keeps the
// original reference.
func (a *API) resolveAvatar(ctx context.Context, user User) User {
	if user.ImageURL == "" || isAbsoluteURL(user.ImageURL) {
		return user
	}

	url, err := a.Blobs.ResolveURL(ctx, user.ImageURL)
	if err != nil {
		a.Logger.Error("Could not resolve avatar", "user_id", user.ID, "ref", user.ImageURL, "error", err.Error())
		return user
	}

	user.ImageURL = url
	return user
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http")
}
