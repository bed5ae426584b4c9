package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog post owned by exactly one author.
// JSON field names follow the shape the web client already consumes.
type Post struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  uuid.UUID `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostWithAuthor is a post joined with its author's public projection.
type PostWithAuthor struct {
	Post
	Author Author `json:"author"`
}

// FeedPage is one offset page of the public feed.
type FeedPage struct {
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Count int               `json:"count"`
	Blogs []*PostWithAuthor `json:"blogs"`
}
