package postgres

import (
	"time"

	"github.com/threadsapp/threads-backend/api"
)

// A message represents a thread or reply in the database. A NULL
// parent_id marks a top-level thread.
type message struct {
	ID           string    `bun:",pk,type:uuid"`
	UserID       string    `bun:"user_id,notnull,type:uuid"`
	Content      string    `bun:"content,notnull"`
	MediaRefs    []string  `bun:"media_refs,array"`
	WebsiteURL   string    `bun:"website_url"`
	ParentID     string    `bun:"parent_id,type:uuid,nullzero"`
	LikeCount    int       `bun:"like_count,notnull,default:0"`
	CommentCount int       `bun:"comment_count,notnull,default:0"`
	RetweetCount int       `bun:"retweet_count,notnull,default:0"`
	CreatedAt    time.Time `bun:",nullzero,default:now()"`
}

// A user represents a directory record in the database. clerk_id and
// username carry unique indexes; those indexes enforce the identity-id
// and username uniqueness invariants.
type user struct {
	ID             string    `bun:",pk,type:uuid"`
	ClerkID        string    `bun:"clerk_id,notnull,unique"`
	Email          string    `bun:",notnull"`
	FirstName      string    `bun:"first_name"`
	LastName       string    `bun:"last_name"`
	Username       string    `bun:",notnull,unique"`
	ImageURL       string    `bun:"image_url"`
	Bio            string    `bun:"bio"`
	WebsiteURL     string    `bun:"website_url"`
	FollowersCount int       `bun:"followers_count,notnull,default:0"`
	PushToken      string    `bun:"push_token"`
	CreatedAt      time.Time `bun:",nullzero,default:now()"`
}

// A blob is a registered storage object. The fetchable URL is derived
// from the registry base URL, not stored.
type blob struct {
	Ref       string    `bun:"ref,pk,type:uuid"`
	CreatedAt time.Time `bun:",nullzero,default:now()"`
}

func (m message) APIMessage() api.Message {
	media := make([]api.Media, len(m.MediaRefs))
	for i, ref := range m.MediaRefs {
		media[i] = api.Media{Ref: ref}
	}

	return api.Message{
		ID:           m.ID,
		UserID:       m.UserID,
		Content:      m.Content,
		MediaFiles:   media,
		WebsiteURL:   m.WebsiteURL,
		ParentID:     m.ParentID,
		LikeCount:    m.LikeCount,
		CommentCount: m.CommentCount,
		RetweetCount: m.RetweetCount,
		CreatedAt:    m.CreatedAt,
	}
}

func (u user) APIUser() api.User {
	return api.User{
		ID:             u.ID,
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
}
