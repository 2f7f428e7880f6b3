package apperrors

var (
	ErrUserNotFound         = NotFound("user not found")
	ErrPostNotFound         = NotFound("post not found")
	ErrCommentNotFound      = NotFound("comment not found")
	ErrConversationNotFound = NotFound("conversation not found")
	ErrFollowNotFound       = NotFound("follow relationship not found")
	ErrLikeNotFound         = NotFound("like not found")
	ErrMessageNotFound      = NotFound("message not found")
	ErrNotParticipant       = Forbidden("user is not a participant of this conversation")
	ErrNotMessageSender     = Forbidden("only the sender can delete a message")
	ErrEmptyMessage         = InvalidArg("message body cannot be empty")
	ErrSelfFollow           = InvalidArg("cannot follow yourself")
	ErrAlreadyFollowing     = AlreadyExists("already following this user")
	ErrAlreadyLiked         = AlreadyExists("already liked")
	ErrAlreadyReposted      = AlreadyExists("post already reposted")
	ErrInvalidParent        = InvalidArg("reply parent does not belong to this post")
)
