package services

import (
	"context"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/anonto42/pulse/backend/pkg/apperrors"
	"github.com/rs/zerolog"
)

// ActivityService records the actions the notification sources read from:
// follows, posts, likes, comments, replies and reposts
type ActivityService struct {
	users        UserChecker
	follows      repositories.FollowRepository
	posts        repositories.PostRepository
	likes        repositories.LikeRepository
	comments     repositories.CommentRepository
	commentLikes repositories.CommentLikeRepository
	logger       zerolog.Logger
}

func NewActivityService(
	users UserChecker,
	follows repositories.FollowRepository,
	posts repositories.PostRepository,
	likes repositories.LikeRepository,
	comments repositories.CommentRepository,
	commentLikes repositories.CommentLikeRepository,
	logger zerolog.Logger,
) *ActivityService {
	return &ActivityService{
		users:        users,
		follows:      follows,
		posts:        posts,
		likes:        likes,
		comments:     comments,
		commentLikes: commentLikes,
		logger:       logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *ActivityService) Follow(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	if followerID == followingID {
		return nil, apperrors.ErrSelfFollow
	}
	exists, err := s.users.Exists(ctx, followingID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to resolve user", err)
	}
	if !exists {
		return nil, apperrors.ErrUserNotFound
	}

	following, err := s.follows.IsFollowing(ctx, followerID, followingID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check follow", err)
	}
	if following {
		return nil, apperrors.ErrAlreadyFollowing
	}

	follow := &models.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := s.follows.CreateFollow(ctx, follow); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to follow user", err)
	}
	s.logger.Debug().Uint("follower_id", followerID).Uint("following_id", followingID).Msg("follow created")
	return follow, nil
}

func (s *ActivityService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	return internal(s.follows.DeleteFollow(ctx, followerID, followingID), "failed to unfollow user")
}

func (s *ActivityService) CreatePost(ctx context.Context, authorID uint, body string) (*models.Post, error) {
	post := &models.Post{AuthorID: authorID, Body: body}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create post", err)
	}
	return post, nil
}

// DeletePost removes a post owned by userID along with its likes, comments and reposts
func (s *ActivityService) DeletePost(ctx context.Context, postID, userID uint) error {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return internal(err, "failed to load post")
	}
	if post.AuthorID != userID {
		return apperrors.Forbidden("you are not allowed to delete this post")
	}
	return internal(s.posts.DeletePost(ctx, postID), "failed to delete post")
}

func (s *ActivityService) LikePost(ctx context.Context, postID, userID uint) (*models.PostLike, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, internal(err, "failed to load post")
	}
	liked, err := s.likes.HasUserLikedPost(ctx, postID, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check like", err)
	}
	if liked {
		return nil, apperrors.ErrAlreadyLiked
	}

	like := &models.PostLike{PostID: postID, UserID: userID}
	if err := s.likes.CreateLike(ctx, like); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to like post", err)
	}
	return like, nil
}

func (s *ActivityService) UnlikePost(ctx context.Context, postID, userID uint) error {
	return internal(s.likes.DeleteLike(ctx, postID, userID), "failed to unlike post")
}

func (s *ActivityService) LikeComment(ctx context.Context, commentID, userID uint) (*models.CommentLike, error) {
	if _, err := s.comments.GetCommentByID(ctx, commentID); err != nil {
		return nil, internal(err, "failed to load comment")
	}
	liked, err := s.commentLikes.HasUserLikedComment(ctx, commentID, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check like", err)
	}
	if liked {
		return nil, apperrors.ErrAlreadyLiked
	}

	like := &models.CommentLike{CommentID: commentID, UserID: userID}
	if err := s.commentLikes.CreateCommentLike(ctx, like); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to like comment", err)
	}
	return like, nil
}

func (s *ActivityService) UnlikeComment(ctx context.Context, commentID, userID uint) error {
	return internal(s.commentLikes.DeleteCommentLike(ctx, commentID, userID), "failed to unlike comment")
}

// Comment adds a top-level comment, or a reply when req names a parent. A
// reply to a reply is attached to the same thread root as its parent.
func (s *ActivityService) Comment(ctx context.Context, postID, authorID uint, req models.CreateCommentRequest) (*models.Comment, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, internal(err, "failed to load post")
	}

	comment := &models.Comment{PostID: postID, AuthorID: authorID, Body: req.Body}

	if req.ParentReplyID != nil {
		parent, err := s.loadParent(ctx, postID, *req.ParentReplyID)
		if err != nil {
			return nil, err
		}
		if !parent.IsReply() {
			return nil, apperrors.ErrInvalidParent
		}
		if req.ParentCommentID != nil && *req.ParentCommentID != *parent.ParentCommentID {
			return nil, apperrors.ErrInvalidParent
		}
		root := *parent.ParentCommentID
		comment.ParentCommentID = &root
		comment.ParentReplyID = &parent.ID
	} else if req.ParentCommentID != nil {
		parent, err := s.loadParent(ctx, postID, *req.ParentCommentID)
		if err != nil {
			return nil, err
		}
		if parent.IsReply() {
			return nil, apperrors.ErrInvalidParent
		}
		comment.ParentCommentID = &parent.ID
	}

	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create comment", err)
	}
	s.logger.Debug().
		Uint("comment_id", comment.ID).
		Uint("post_id", postID).
		Bool("reply", comment.IsReply()).
		Msg("comment created")
	return comment, nil
}

func (s *ActivityService) loadParent(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	parent, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return nil, apperrors.ErrInvalidParent
		}
		return nil, internal(err, "failed to load parent comment")
	}
	if parent.PostID != postID {
		return nil, apperrors.ErrInvalidParent
	}
	return parent, nil
}

// DeleteComment removes a comment owned by userID together with its replies
func (s *ActivityService) DeleteComment(ctx context.Context, commentID, userID uint) error {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return internal(err, "failed to load comment")
	}
	if comment.AuthorID != userID {
		return apperrors.Forbidden("you are not allowed to delete this comment")
	}
	return internal(s.comments.DeleteComment(ctx, commentID), "failed to delete comment")
}

func (s *ActivityService) Repost(ctx context.Context, postID, userID uint) (*models.Repost, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, internal(err, "failed to load post")
	}
	reposted, err := s.posts.HasUserReposted(ctx, postID, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check repost", err)
	}
	if reposted {
		return nil, apperrors.ErrAlreadyReposted
	}

	repost := &models.Repost{PostID: postID, UserID: userID}
	if err := s.posts.CreateRepost(ctx, repost); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to repost", err)
	}
	s.logger.Debug().Uint("post_id", postID).Uint("user_id", userID).Msg("post reposted")
	return repost, nil
}

// internal passes application errors through and codes anything else as internal
func internal(err error, message string) error {
	if err == nil || apperrors.CodeOf(err) != apperrors.CodeUnknown {
		return err
	}
	return apperrors.Wrap(apperrors.CodeInternal, message, err)
}
