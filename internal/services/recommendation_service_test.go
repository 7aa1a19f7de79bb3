package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/readzone/readzone-server/internal/models"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
)

func TestRecommendationService_Recommend(t *testing.T) {
	db := newTestDB(t)
	notifier, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	svc, err := NewRecommendationService(db, notifier)
	require.NoError(t, err)
	svc.dispatch = syncDispatch

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	book := createTestBook(t, db, "Dune", nil, nil)

	reco, err := svc.Recommend(context.Background(), alice.ID, RecommendInput{
		ToUserID: bob.ID,
		BookID:   book.ID,
		Reason:   "You like sandworms.",
	})
	require.NoError(t, err)
	require.Equal(t, alice.ID, reco.FromUserID)
	require.False(t, reco.IsRead)

	rows := notificationsFor(t, db, bob.ID)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationRecommendation, rows[0].Type)
	require.Contains(t, rows[0].Content, `alice recommended "Dune" to you.`)
}

func TestRecommendationService_SelfAndDuplicateRejected(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewRecommendationService(db, nil)
	require.NoError(t, err)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	book := createTestBook(t, db, "Dune", nil, nil)

	_, err = svc.Recommend(context.Background(), alice.ID, RecommendInput{ToUserID: alice.ID, BookID: book.ID})
	require.ErrorIs(t, err, apperrors.ErrSelfRecommend)

	_, err = svc.Recommend(context.Background(), alice.ID, RecommendInput{ToUserID: bob.ID, BookID: book.ID})
	require.NoError(t, err)

	_, err = svc.Recommend(context.Background(), alice.ID, RecommendInput{ToUserID: bob.ID, BookID: book.ID})
	appErr := apperrors.FromError(err)
	require.Equal(t, apperrors.ErrConflict.Code, appErr.Code)
}

func TestRecommendationService_FeedbackNotifiesSender(t *testing.T) {
	db := newTestDB(t)
	notifier, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	svc, err := NewRecommendationService(db, notifier)
	require.NoError(t, err)
	svc.dispatch = syncDispatch

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	book := createTestBook(t, db, "Dune", nil, nil)

	reco, err := svc.Recommend(context.Background(), alice.ID, RecommendInput{ToUserID: bob.ID, BookID: book.ID})
	require.NoError(t, err)

	// only the recipient may respond
	_, err = svc.SubmitFeedback(context.Background(), alice.ID, reco.ID, RecommendationFeedbackInput{Feedback: "nope"})
	appErr := apperrors.FromError(err)
	require.Equal(t, apperrors.ErrNotFound.Code, appErr.Code)

	rating := 4
	updated, err := svc.SubmitFeedback(context.Background(), bob.ID, reco.ID, RecommendationFeedbackInput{
		Rating:   &rating,
		Feedback: "Great pick!",
	})
	require.NoError(t, err)
	require.True(t, updated.IsRead)
	require.NotNil(t, updated.Rating)
	require.Equal(t, 4, *updated.Rating)

	rows := notificationsFor(t, db, alice.ID)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationRecommendationFeedback, rows[0].Type)
	require.Contains(t, rows[0].Content, `bob responded to your recommendation of "Dune".`)
}

func TestRecommendationService_MarkRead(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewRecommendationService(db, nil)
	require.NoError(t, err)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	book := createTestBook(t, db, "Dune", nil, nil)

	reco, err := svc.Recommend(context.Background(), alice.ID, RecommendInput{ToUserID: bob.ID, BookID: book.ID})
	require.NoError(t, err)
	require.False(t, reco.IsRead)

	// only the recipient may mark it read
	err = svc.MarkRead(context.Background(), alice.ID, reco.ID)
	appErr := apperrors.FromError(err)
	require.Equal(t, apperrors.ErrNotFound.Code, appErr.Code)

	require.NoError(t, svc.MarkRead(context.Background(), bob.ID, reco.ID))

	received, _, err := svc.ListReceived(context.Background(), bob.ID, 1, 10)
	require.NoError(t, err)
	require.True(t, received[0].IsRead)
}

func TestRecommendationService_ListSentAndReceived(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewRecommendationService(db, nil)
	require.NoError(t, err)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	dune := createTestBook(t, db, "Dune", nil, nil)
	lotr := createTestBook(t, db, "LOTR", nil, nil)

	_, err = svc.Recommend(context.Background(), alice.ID, RecommendInput{ToUserID: bob.ID, BookID: dune.ID})
	require.NoError(t, err)
	_, err = svc.Recommend(context.Background(), bob.ID, RecommendInput{ToUserID: alice.ID, BookID: lotr.ID})
	require.NoError(t, err)

	sent, total, err := svc.ListSent(context.Background(), alice.ID, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, dune.ID, sent[0].BookID)

	received, total, err := svc.ListReceived(context.Background(), alice.ID, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, lotr.ID, received[0].BookID)
}

func TestRecommendationService_PersonalizedScoring(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewRecommendationService(db, nil)
	require.NoError(t, err)

	alice := createTestUser(t, db, "alice")

	shelved := createTestBook(t, db, "Dune", []string{"Frank Herbert"}, []string{"Sci-Fi"})
	require.NoError(t, db.Create(&models.LibraryBook{
		UserID: alice.ID, BookID: shelved.ID, Status: models.LibraryCompleted,
	}).Error)

	sameAuthor := createTestBook(t, db, "Dune Messiah", []string{"Frank Herbert"}, []string{"Sci-Fi"})
	sameCategory := createTestBook(t, db, "Foundation", []string{"Isaac Asimov"}, []string{"Sci-Fi"})
	unrelated := createTestBook(t, db, "Cookbook", []string{"A Chef"}, []string{"Cooking"})

	results, err := svc.Personalized(context.Background(), alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// shared author (weight 2) plus shared category beats category alone
	require.Equal(t, sameAuthor.ID, results[0].Book.ID)
	require.Equal(t, 3, results[0].Score)
	require.Equal(t, sameCategory.ID, results[1].Book.ID)
	require.Equal(t, 1, results[1].Score)

	for _, result := range results {
		require.NotEqual(t, shelved.ID, result.Book.ID)
		require.NotEqual(t, unrelated.ID, result.Book.ID)
	}
}

func TestRecommendationService_PersonalizedPopularFallback(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewRecommendationService(db, nil)
	require.NoError(t, err)

	alice := createTestUser(t, db, "alice")
	reviewer := createTestUser(t, db, "reviewer")

	quiet := createTestBook(t, db, "Quiet Book", nil, nil)
	popular := createTestBook(t, db, "Popular Book", nil, nil)
	createTestPost(t, db, reviewer, popular)
	createTestPost(t, db, reviewer, popular)

	// empty library falls back to review-count ranking
	results, err := svc.Personalized(context.Background(), alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, popular.ID, results[0].Book.ID)
	require.Equal(t, quiet.ID, results[1].Book.ID)
}

func TestTopKeys(t *testing.T) {
	freq := map[string]int{"a": 3, "b": 3, "c": 1, "d": 5}
	top := topKeys(freq, 2)
	require.Len(t, top, 2)
	require.Contains(t, top, "d")
	require.Contains(t, top, "a") // ties resolve alphabetically
}
