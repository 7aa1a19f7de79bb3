package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/readzone/readzone-server/internal/models"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
)

func TestCommentService_CreateAndFanOut(t *testing.T) {
	db := newTestDB(t)
	notifier, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	svc, err := NewCommentService(db, notifier)
	require.NoError(t, err)
	svc.dispatch = syncDispatch

	author := createTestUser(t, db, "author")
	commenter := createTestUser(t, db, "commenter")
	book := createTestBook(t, db, "Dune", nil, nil)
	post := createTestPost(t, db, author, book)

	comment, err := svc.Create(context.Background(), commenter.ID, post.ID, CreateCommentInput{
		Content: "Loved this take.",
	})
	require.NoError(t, err)
	require.Nil(t, comment.ParentID)
	require.NotNil(t, comment.User)
	require.Equal(t, "commenter", comment.User.Username)

	rows := notificationsFor(t, db, author.ID)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationComment, rows[0].Type)
}

func TestCommentService_ReplyDepthLimit(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewCommentService(db, nil)
	require.NoError(t, err)

	author := createTestUser(t, db, "author")
	book := createTestBook(t, db, "Dune", nil, nil)
	post := createTestPost(t, db, author, book)

	top, err := svc.Create(context.Background(), author.ID, post.ID, CreateCommentInput{Content: "top"})
	require.NoError(t, err)

	reply, err := svc.Create(context.Background(), author.ID, post.ID, CreateCommentInput{
		Content:  "reply",
		ParentID: &top.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)

	_, err = svc.Create(context.Background(), author.ID, post.ID, CreateCommentInput{
		Content:  "too deep",
		ParentID: &reply.ID,
	})
	appErr := apperrors.FromError(err)
	require.Equal(t, apperrors.ErrBadRequest.Code, appErr.Code)
}

func TestCommentService_ReplyParentMustBelongToPost(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewCommentService(db, nil)
	require.NoError(t, err)

	author := createTestUser(t, db, "author")
	book := createTestBook(t, db, "Dune", nil, nil)
	postA := createTestPost(t, db, author, book)
	postB := createTestPost(t, db, author, book)

	top, err := svc.Create(context.Background(), author.ID, postA.ID, CreateCommentInput{Content: "on A"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), author.ID, postB.ID, CreateCommentInput{
		Content:  "cross-post reply",
		ParentID: &top.ID,
	})
	appErr := apperrors.FromError(err)
	require.Equal(t, apperrors.ErrNotFound.Code, appErr.Code)
}

func TestCommentService_ListForPost(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewCommentService(db, nil)
	require.NoError(t, err)

	author := createTestUser(t, db, "author")
	book := createTestBook(t, db, "Dune", nil, nil)
	post := createTestPost(t, db, author, book)

	first, err := svc.Create(context.Background(), author.ID, post.ID, CreateCommentInput{Content: "first"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), author.ID, post.ID, CreateCommentInput{Content: "second"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), author.ID, post.ID, CreateCommentInput{
		Content:  "a reply",
		ParentID: &first.ID,
	})
	require.NoError(t, err)

	comments, total, err := svc.ListForPost(context.Background(), post.ID, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total) // replies do not count as top-level
	require.Len(t, comments, 2)
	require.Equal(t, "first", comments[0].Content)
	require.Len(t, comments[0].Replies, 1)
	require.Equal(t, "a reply", comments[0].Replies[0].Content)
}

func TestCommentService_SoftDeleteHidesThread(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewCommentService(db, nil)
	require.NoError(t, err)

	author := createTestUser(t, db, "author")
	other := createTestUser(t, db, "other")
	book := createTestBook(t, db, "Dune", nil, nil)
	post := createTestPost(t, db, author, book)

	comment, err := svc.Create(context.Background(), author.ID, post.ID, CreateCommentInput{Content: "hmm"})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), other.ID, comment.ID)
	appErr := apperrors.FromError(err)
	require.Equal(t, apperrors.ErrForbidden.Code, appErr.Code)

	require.NoError(t, svc.Delete(context.Background(), author.ID, comment.ID))

	comments, total, err := svc.ListForPost(context.Background(), post.ID, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 0, total)
	require.Empty(t, comments)

	var raw models.Comment
	require.NoError(t, db.Where("id = ?", comment.ID).First(&raw).Error)
	require.Equal(t, models.StatusDeleted, raw.Status)
}

func TestCommentService_UpdateContent(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewCommentService(db, nil)
	require.NoError(t, err)

	author := createTestUser(t, db, "author")
	book := createTestBook(t, db, "Dune", nil, nil)
	post := createTestPost(t, db, author, book)

	comment, err := svc.Create(context.Background(), author.ID, post.ID, CreateCommentInput{Content: "tpyo"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), author.ID, comment.ID, "typo")
	require.NoError(t, err)
	require.Equal(t, "typo", updated.Content)
}
