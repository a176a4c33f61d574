package redis

import (
	"strings"
	"time"

	"github.com/threadsapp/threads-backend/api"
)

// A thread represents a cached top-level message. Media is cached as
// raw storage references; resolution happens on read in the API layer.
type thread struct {
	ID           string    `redis:"id"`
	UserID       string    `redis:"user_id"`
	Content      string    `redis:"content"`
	MediaRefs    string    `redis:"media_refs"`
	WebsiteURL   string    `redis:"website_url"`
	LikeCount    int       `redis:"like_count"`
	CommentCount int       `redis:"comment_count"`
	RetweetCount int       `redis:"retweet_count"`
	CreatedAt    time.Time `redis:"created_at"`
}

// refSeparator joins media refs into one hash field. Refs are UUIDs, so
// the separator cannot collide.
const refSeparator = ","

func (t thread) APIMessage() api.Message {
	var media []api.Media
	if t.MediaRefs != "" {
		refs := strings.Split(t.MediaRefs, refSeparator)
		media = make([]api.Media, len(refs))
		for i, ref := range refs {
			media[i] = api.Media{Ref: ref}
		}
	} else {
		media = []api.Media{}
	}

	return api.Message{
		ID:           t.ID,
		UserID:       t.UserID,
		Content:      t.Content,
		MediaFiles:   media,
		WebsiteURL:   t.WebsiteURL,
		LikeCount:    t.LikeCount,
		CommentCount: t.CommentCount,
		RetweetCount: t.RetweetCount,
		CreatedAt:    t.CreatedAt,
	}
}

func cacheThread(msg api.Message) *thread {
	return &thread{
		ID:           msg.ID,
		UserID:       msg.UserID,
		Content:      msg.Content,
		MediaRefs:    strings.Join(msg.MediaRefs(), refSeparator),
		WebsiteURL:   msg.WebsiteURL,
		LikeCount:    msg.LikeCount,
		CommentCount: msg.CommentCount,
		RetweetCount: msg.RetweetCount,
		CreatedAt:    msg.CreatedAt,
	}
}
