package models

import "time"

// Comment is either a top-level comment on a post or a reply. A reply always
// carries ParentCommentID (the thread root) and, when it answers another
// reply, ParentReplyID as well.
type Comment struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	PostID          uint      `json:"post_id" gorm:"index;not null"`
	AuthorID        uint      `json:"author_id" gorm:"index;not null"`
	ParentCommentID *uint     `json:"parent_comment_id,omitempty" gorm:"index"`
	ParentReplyID   *uint     `json:"parent_reply_id,omitempty" gorm:"index"`
	Body            string    `json:"body"`
	CreatedAt       time.Time `json:"created_at" gorm:"index"`
}

func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil
}

// CreateCommentRequest defines the request body for commenting on a post or replying to a comment
type CreateCommentRequest struct {
	Body            string `json:"body" validate:"required,min=1,max=500"`
	ParentCommentID *uint  `json:"parent_comment_id,omitempty"`
	ParentReplyID   *uint  `json:"parent_reply_id,omitempty"`
}
