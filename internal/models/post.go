package models

import "time"

// Post represents a social media post
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AuthorID  uint      `json:"author_id" gorm:"index;not null"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Body string `json:"body" validate:"required,min=1,max=280"`
}

// Repost is a user sharing another user's post on their own profile
type Repost struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"index;uniqueIndex:idx_repost_post_user"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_repost_post_user"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}
