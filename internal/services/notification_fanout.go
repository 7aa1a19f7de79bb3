package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/readzone/readzone-server/internal/models"
)

// The Notify* helpers translate a social event into zero or more notification
// records. Every lookup or insert failure is logged and converted into a nil
// result; the caller is never blocked or failed by the fan-out path.

// NotifyFollow tells a user they gained a follower.
func (s *NotificationService) NotifyFollow(ctx context.Context, followingID, followerID string) *models.Notification {
	ctx = ensureContext(ctx)

	follower, err := loadActiveUser(ctx, s.db, followerID)
	if err != nil {
		s.log.Warn("follow fan-out: load follower", zap.String("follower_id", followerID), zap.Error(err))
		return nil
	}

	return s.Create(ctx, CreateNotificationInput{
		RecipientID: followingID,
		SenderID:    followerID,
		Type:        models.NotificationFollow,
		Title:       "You have a new follower",
		Content:     fmt.Sprintf("%s started following you.", follower.DisplayName()),
		RelatedID:   followerID,
	})
}

// NotifyLike tells a post owner their review was liked.
func (s *NotificationService) NotifyLike(ctx context.Context, postID, likerID string) *models.Notification {
	ctx = ensureContext(ctx)

	post, err := s.loadPostWithBook(ctx, postID)
	if err != nil {
		s.log.Warn("like fan-out: load post", zap.String("post_id", postID), zap.Error(err))
		return nil
	}

	liker, err := loadActiveUser(ctx, s.db, likerID)
	if err != nil {
		s.log.Warn("like fan-out: load liker", zap.String("liker_id", likerID), zap.Error(err))
		return nil
	}

	return s.Create(ctx, CreateNotificationInput{
		RecipientID: post.UserID,
		SenderID:    likerID,
		Type:        models.NotificationLike,
		Title:       "Your post received a like",
		Content:     fmt.Sprintf("%s liked your review of %q.", liker.DisplayName(), post.Book.Title),
		RelatedID:   postID,
	})
}

// NotifyGroupJoin tells a group creator someone joined their group.
func (s *NotificationService) NotifyGroupJoin(ctx context.Context, groupID, groupName, creatorID, joinerID string) *models.Notification {
	ctx = ensureContext(ctx)

	joiner, err := loadActiveUser(ctx, s.db, joinerID)
	if err != nil {
		s.log.Warn("group fan-out: load joiner", zap.String("joiner_id", joinerID), zap.Error(err))
		return nil
	}

	return s.Create(ctx, CreateNotificationInput{
		RecipientID: creatorID,
		SenderID:    joinerID,
		Type:        models.NotificationGroupJoin,
		Title:       "New group member",
		Content:     fmt.Sprintf("%s joined %q.", joiner.DisplayName(), groupName),
		RelatedID:   groupID,
	})
}

// NotifyComment tells a post owner about a new comment. When the comment is a
// reply it additionally notifies the parent comment's author. The two
// emissions are independent: failure of one does not prevent the other.
func (s *NotificationService) NotifyComment(ctx context.Context, postID, commenterID, content string, parentCommentID *string) *models.Notification {
	ctx = ensureContext(ctx)

	post, err := s.loadPostWithBook(ctx, postID)
	if err != nil {
		s.log.Warn("comment fan-out: load post", zap.String("post_id", postID), zap.Error(err))
		return nil
	}

	commenter, err := loadActiveUser(ctx, s.db, commenterID)
	if err != nil {
		s.log.Warn("comment fan-out: load commenter", zap.String("commenter_id", commenterID), zap.Error(err))
		return nil
	}

	preview := truncateContent(content, commentPreviewRunes)

	if parentCommentID != nil {
		var parent models.Comment
		err := s.db.WithContext(ctx).Where("id = ?", *parentCommentID).First(&parent).Error
		if err != nil {
			s.log.Warn("comment fan-out: load parent comment", zap.String("parent_id", *parentCommentID), zap.Error(err))
		} else if parent.UserID != commenterID {
			s.Create(ctx, CreateNotificationInput{
				RecipientID: parent.UserID,
				SenderID:    commenterID,
				Type:        models.NotificationComment,
				Title:       "New reply to your comment",
				Content:     fmt.Sprintf("%s replied to your comment: %q", commenter.DisplayName(), preview),
				RelatedID:   postID,
			})
		}
	}

	return s.Create(ctx, CreateNotificationInput{
		RecipientID: post.UserID,
		SenderID:    commenterID,
		Type:        models.NotificationComment,
		Title:       "New comment on your post",
		Content:     fmt.Sprintf("%s commented on your review of %q: %q", commenter.DisplayName(), post.Book.Title, preview),
		RelatedID:   postID,
	})
}

func (s *NotificationService) loadPostWithBook(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Scopes(models.Active).
		Preload("Book").
		Where("id = ?", postID).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	if post.Book == nil {
		return nil, fmt.Errorf("post %s has no book", postID)
	}
	return &post, nil
}
