package models

import "time"

// EventKind discriminates the activity sources merged into the notifications feed
type EventKind string

const (
	EventFollow      EventKind = "follow"
	EventPostLike    EventKind = "post_like"
	EventCommentLike EventKind = "comment_like"
	EventComment     EventKind = "comment"
	EventReply       EventKind = "reply"
	EventRepost      EventKind = "repost"
)

// EventKinds lists every kind in feed tie-break order.
var EventKinds = []EventKind{
	EventFollow,
	EventPostLike,
	EventCommentLike,
	EventComment,
	EventReply,
	EventRepost,
}

// EventTarget references the object acted upon. Only the fields relevant to
// the event kind are set; they are used for navigation, never for ordering.
type EventTarget struct {
	PostID    uint `json:"post_id,omitempty"`
	CommentID uint `json:"comment_id,omitempty"`
	ReplyID   uint `json:"reply_id,omitempty"`
}

// Event is one derived activity addressed to RecipientID. Events are never
// stored; they are read from the rows of the underlying objects.
type Event struct {
	Kind        EventKind   `json:"kind"`
	ActorID     uint        `json:"actor_id"`
	RecipientID uint        `json:"recipient_id"`
	CreatedAt   time.Time   `json:"created_at"`
	Target      EventTarget `json:"target"`
}
