package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/models"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
)

func newGroupService(t *testing.T, db *gorm.DB) (*GroupService, *NotificationService) {
	t.Helper()

	notifier, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	svc, err := NewGroupService(db, notifier)
	require.NoError(t, err)
	svc.dispatch = syncDispatch
	return svc, notifier
}

func TestGroupService_CreateMakesCreatorAdmin(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newGroupService(t, db)

	alice := createTestUser(t, db, "alice")

	group, err := svc.Create(context.Background(), alice.ID, CreateGroupInput{
		Name:        "Slow Readers",
		Description: "One chapter a week.",
	})
	require.NoError(t, err)
	require.Equal(t, alice.ID, group.CreatorID)
	require.True(t, group.IsPublic)

	var member models.GroupMember
	require.NoError(t, db.Where("group_id = ? AND user_id = ?", group.ID, alice.ID).First(&member).Error)
	require.Equal(t, models.GroupRoleAdmin, member.Role)
	require.Equal(t, models.MemberActive, member.Status)
	require.False(t, member.JoinedAt.IsZero())
}

func TestGroupService_JoinNotifiesCreator(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newGroupService(t, db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	group, err := svc.Create(context.Background(), alice.ID, CreateGroupInput{Name: "Slow Readers"})
	require.NoError(t, err)

	require.NoError(t, svc.Join(context.Background(), bob.ID, group.ID))

	rows := notificationsFor(t, db, alice.ID)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationGroupJoin, rows[0].Type)
	require.Contains(t, rows[0].Content, "bob")
	require.NotNil(t, rows[0].RelatedID)
	require.Equal(t, group.ID, *rows[0].RelatedID)
}

func TestGroupService_JoinConflictsAndCapacity(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newGroupService(t, db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	group, err := svc.Create(context.Background(), alice.ID, CreateGroupInput{
		Name:       "Tiny Circle",
		MaxMembers: 2,
	})
	require.NoError(t, err)

	// the creator occupies one of the two seats
	require.NoError(t, svc.Join(context.Background(), bob.ID, group.ID))

	err = svc.Join(context.Background(), bob.ID, group.ID)
	require.Equal(t, apperrors.ErrConflict.Code, apperrors.FromError(err).Code)

	err = svc.Join(context.Background(), carol.ID, group.ID)
	require.Equal(t, apperrors.ErrBadRequest.Code, apperrors.FromError(err).Code)
}

func TestGroupService_LeaveAndRejoinRevivesMembership(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newGroupService(t, db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	group, err := svc.Create(context.Background(), alice.ID, CreateGroupInput{Name: "Slow Readers"})
	require.NoError(t, err)

	require.NoError(t, svc.Join(context.Background(), bob.ID, group.ID))
	require.NoError(t, svc.Leave(context.Background(), bob.ID, group.ID))

	var member models.GroupMember
	require.NoError(t, db.Where("group_id = ? AND user_id = ?", group.ID, bob.ID).First(&member).Error)
	require.Equal(t, models.MemberLeft, member.Status)
	require.NotNil(t, member.LeftAt)

	// rejoin flips the same row back instead of inserting a second one
	require.NoError(t, svc.Join(context.Background(), bob.ID, group.ID))
	member = models.GroupMember{}
	require.NoError(t, db.Where("group_id = ? AND user_id = ?", group.ID, bob.ID).First(&member).Error)
	require.Equal(t, models.MemberActive, member.Status)
	require.Nil(t, member.LeftAt)

	var count int64
	require.NoError(t, db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", group.ID, bob.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestGroupService_CreatorCannotLeave(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newGroupService(t, db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	group, err := svc.Create(context.Background(), alice.ID, CreateGroupInput{Name: "Slow Readers"})
	require.NoError(t, err)

	err = svc.Leave(context.Background(), alice.ID, group.ID)
	require.Equal(t, apperrors.ErrBadRequest.Code, apperrors.FromError(err).Code)

	// non-members cannot leave either
	err = svc.Leave(context.Background(), bob.ID, group.ID)
	require.Equal(t, apperrors.ErrBadRequest.Code, apperrors.FromError(err).Code)
}

func TestGroupService_PrivateGroupHiddenFromOutsiders(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newGroupService(t, db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	private := false
	group, err := svc.Create(context.Background(), alice.ID, CreateGroupInput{
		Name:     "Secret Society",
		IsPublic: &private,
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), bob.ID, group.ID)
	require.Equal(t, apperrors.ErrForbidden.Code, apperrors.FromError(err).Code)

	// joining grants access
	require.NoError(t, svc.Join(context.Background(), bob.ID, group.ID))
	detail, err := svc.Get(context.Background(), bob.ID, group.ID)
	require.NoError(t, err)
	require.True(t, detail.IsMember)
	require.False(t, detail.IsCreator)
	require.Equal(t, 2, detail.MemberCount)
}

func TestGroupService_ListFilters(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newGroupService(t, db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	private := false
	_, err := svc.Create(context.Background(), alice.ID, CreateGroupInput{Name: "Mystery Club"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), bob.ID, CreateGroupInput{Name: "Poetry Corner"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), bob.ID, CreateGroupInput{Name: "Hidden Shelf", IsPublic: &private})
	require.NoError(t, err)

	all, total, err := svc.List(context.Background(), ListGroupsInput{ViewerID: alice.ID, Type: "all", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, all, 3)

	public, total, err := svc.List(context.Background(), ListGroupsInput{Type: "public", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	for _, g := range public {
		require.True(t, g.IsPublic)
	}

	mine, total, err := svc.List(context.Background(), ListGroupsInput{ViewerID: alice.ID, Type: "mine", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Mystery Club", mine[0].Name)
	require.True(t, mine[0].IsMember)

	// "mine" without a signed-in viewer yields nothing
	none, total, err := svc.List(context.Background(), ListGroupsInput{Type: "mine", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, none)

	matched, total, err := svc.List(context.Background(), ListGroupsInput{Query: "poetry", Type: "all", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Poetry Corner", matched[0].Name)
}
