package api

import "time"

// A Message is the unified record for both top-level threads and replies.
// A message with no ParentID is a thread; one with a ParentID is a reply
// to that message.
type Message struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Content      string    `json:"content"`
	MediaFiles   []Media   `json:"media_files"`
	WebsiteURL   string    `json:"website_url,omitempty"`
	ParentID     string    `json:"parent_id,omitempty"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	RetweetCount int       `json:"retweet_count"`
	CreatedAt    time.Time `json:"created_at"`

	// Creator is filled on reads by the enrichment step. It is nil on
	// writes and when the author record cannot be loaded.
	Creator *User `json:"creator,omitempty"`
}

// A Media pairs a storage reference with its resolution outcome. The
// slice returned to clients always has one entry per stored reference,
// in order; URL is empty and Error is set when resolution failed.
type Media struct {
	Ref   string `json:"ref"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// MediaRefs returns the raw storage references of the message's media.
func (m Message) MediaRefs() []string {
	refs := make([]string, len(m.MediaFiles))
	for i, f := range m.MediaFiles {
		refs[i] = f.Ref
	}
	return refs
}

// A Page is one page of a newest-first message listing. ContinueCursor
// is an opaque token for the next call; IsDone reports that no further
// pages exist.
type Page struct {
	Messages       []Message `json:"threads"`
	ContinueCursor string    `json:"continue_cursor,omitempty"`
	IsDone         bool      `json:"is_done"`
}

// A User is a directory record bridged from the identity provider.
// ClerkID is the provider's subject id; ImageURL holds either an
// absolute URL or a storage reference that is resolved on read.
type User struct {
	ID             string    `json:"id"`
	ClerkID        string    `json:"clerk_id"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	Username       string    `json:"username"`
	ImageURL       string    `json:"image_url,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	WebsiteURL     string    `json:"website_url,omitempty"`
	FollowersCount int       `json:"followers_count"`
	PushToken      string    `json:"push_token,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// A UserPatch is a partial profile update. Nil fields are left
// untouched.
type UserPatch struct {
	Bio        *string
	WebsiteURL *string
	ImageURL   *string
	PushToken  *string
}

// An Upload is a minted upload slot: the storage reference the client
// should attach to a message and the URL to PUT the bytes to.
type Upload struct {
	Ref       string `json:"ref"`
	UploadURL string `json:"upload_url"`
}
