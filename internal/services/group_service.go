package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/readzone/readzone-server/internal/models"
	apperrors "github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/logger"
)

const defaultGroupCapacity = 50

// CreateGroupInput describes a new reading group.
type CreateGroupInput struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	IsPublic    *bool  `json:"is_public"`
	MaxMembers  int    `json:"max_members" binding:"omitempty,min=2,max=500"`
}

// ListGroupsInput filters the group directory.
type ListGroupsInput struct {
	ViewerID string
	Query    string
	Type     string // all, public, or mine
	Page     int
	Limit    int
}

// GroupSummary is a directory row: the group plus derived membership facts.
type GroupSummary struct {
	models.Group
	MemberCount int64 `json:"member_count"`
	IsMember    bool  `json:"is_member"`
}

// GroupDetail is the full group page including the active member roster.
type GroupDetail struct {
	models.Group
	MemberCount int  `json:"member_count"`
	IsMember    bool `json:"is_member"`
	IsCreator   bool `json:"is_creator"`
}

// GroupService manages reading groups and their membership edges. Joins fan
// out a notification to the group creator through the shared notifier.
type GroupService struct {
	db       *gorm.DB
	notifier *NotificationService
	dispatch func(fn func())
	now      func() time.Time
	log      *zap.Logger
}

func NewGroupService(db *gorm.DB, notifier *NotificationService) (*GroupService, error) {
	if db == nil {
		return nil, errors.New("group service: db is required")
	}
	return &GroupService{
		db:       db,
		notifier: notifier,
		dispatch: func(fn func()) { go fn() },
		now:      time.Now,
		log:      logger.WithModule("groups"),
	}, nil
}

// Create opens a new group and enrolls the creator as its admin member.
func (s *GroupService) Create(ctx context.Context, creatorID string, input CreateGroupInput) (*models.Group, error) {
	ctx = ensureContext(ctx)

	group := models.Group{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		IsPublic:    true,
		IsActive:    true,
		MaxMembers:  input.MaxMembers,
		CreatorID:   creatorID,
	}
	if input.IsPublic != nil {
		group.IsPublic = *input.IsPublic
	}
	if group.MaxMembers <= 0 {
		group.MaxMembers = defaultGroupCapacity
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		member := models.GroupMember{
			GroupID:  group.ID,
			UserID:   creatorID,
			Role:     models.GroupRoleAdmin,
			Status:   models.MemberActive,
			JoinedAt: s.now(),
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "create group")
	}

	s.log.Info("group created",
		zap.String("group_id", group.ID),
		zap.String("creator_id", creatorID),
	)
	return &group, nil
}

// Get returns the group page as seen by viewerID. Private groups are only
// visible to their active members and the creator.
func (s *GroupService) Get(ctx context.Context, viewerID, groupID string) (*GroupDetail, error) {
	ctx = ensureContext(ctx)

	var group models.Group
	err := s.db.WithContext(ctx).
		Preload("Creator").
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.MemberActive).Order("joined_at ASC")
		}).
		Preload("Members.User").
		Where("id = ?", groupID).
		First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("Group not found")
		}
		return nil, apperrors.Wrap(err, "load group")
	}

	detail := &GroupDetail{
		Group:       group,
		MemberCount: len(group.Members),
		IsCreator:   viewerID != "" && viewerID == group.CreatorID,
	}
	for _, member := range group.Members {
		if viewerID != "" && member.UserID == viewerID {
			detail.IsMember = true
			break
		}
	}

	if !group.IsPublic && !detail.IsMember && !detail.IsCreator {
		return nil, apperrors.ErrForbidden.WithMessage("This group is private")
	}
	return detail, nil
}

// List returns the group directory. Type "public" restricts to public groups,
// "mine" to groups the viewer created or belongs to, anything else lists all
// active groups.
func (s *GroupService) List(ctx context.Context, input ListGroupsInput) ([]GroupSummary, int64, error) {
	ctx = ensureContext(ctx)
	page, limit := normalisePage(input.Page, input.Limit)

	base := s.db.WithContext(ctx).
		Model(&models.Group{}).
		Where("is_active = ?", true)

	if query := strings.TrimSpace(input.Query); query != "" {
		pattern := "%" + query + "%"
		base = base.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	switch input.Type {
	case "public":
		base = base.Where("is_public = ?", true)
	case "mine":
		if input.ViewerID == "" {
			return []GroupSummary{}, 0, nil
		}
		base = base.Where(
			"creator_id = ? OR id IN (?)",
			input.ViewerID,
			s.db.Model(&models.GroupMember{}).
				Select("group_id").
				Where("user_id = ? AND status = ?", input.ViewerID, models.MemberActive),
		)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "count groups")
	}

	var groups []models.Group
	if err := base.
		Preload("Creator").
		Order("created_at DESC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		Find(&groups).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "list groups")
	}

	summaries := make([]GroupSummary, 0, len(groups))
	for _, group := range groups {
		summary := GroupSummary{Group: group}
		err := s.db.WithContext(ctx).
			Model(&models.GroupMember{}).
			Where("group_id = ? AND status = ?", group.ID, models.MemberActive).
			Count(&summary.MemberCount).Error
		if err != nil {
			return nil, 0, apperrors.Wrap(err, "count members")
		}
		if input.ViewerID != "" {
			member, err := s.activeMember(ctx, group.ID, input.ViewerID)
			if err != nil {
				return nil, 0, err
			}
			summary.IsMember = member != nil
		}
		summaries = append(summaries, summary)
	}
	return summaries, total, nil
}

// Join enrolls the actor in a group. A previously left membership is revived
// rather than duplicated; the creator gets a notification.
func (s *GroupService) Join(ctx context.Context, actorID, groupID string) error {
	ctx = ensureContext(ctx)

	var group models.Group
	err := s.db.WithContext(ctx).Where("id = ?", groupID).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound.WithMessage("Group not found")
		}
		return apperrors.Wrap(err, "load group")
	}
	if !group.IsActive {
		return apperrors.NewBadRequest("This group is closed")
	}

	var existing models.GroupMember
	err = s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, actorID).
		First(&existing).Error
	if err == nil && existing.Status == models.MemberActive {
		return apperrors.ErrConflict.WithMessage("You are already a member of this group")
	}

	var activeCount int64
	countErr := s.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_id = ? AND status = ?", groupID, models.MemberActive).
		Count(&activeCount).Error
	if countErr != nil {
		return apperrors.Wrap(countErr, "count members")
	}
	if activeCount >= int64(group.MaxMembers) {
		return apperrors.NewBadRequest("This group is full")
	}

	switch {
	case err == nil:
		updates := map[string]interface{}{
			"status":    models.MemberActive,
			"joined_at": s.now(),
			"left_at":   nil,
		}
		if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return apperrors.Wrap(err, "rejoin group")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		member := models.GroupMember{
			GroupID:  groupID,
			UserID:   actorID,
			Role:     models.GroupRoleMember,
			Status:   models.MemberActive,
			JoinedAt: s.now(),
		}
		if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
			if isUniqueConstraintError(err) {
				return apperrors.ErrConflict.WithMessage("You are already a member of this group")
			}
			return apperrors.Wrap(err, "join group")
		}
	default:
		return apperrors.Wrap(err, "load membership")
	}

	s.log.Info("group joined", zap.String("group_id", groupID), zap.String("user_id", actorID))

	if s.notifier != nil {
		creatorID := group.CreatorID
		groupName := group.Name
		s.dispatch(func() {
			s.notifier.NotifyGroupJoin(context.Background(), groupID, groupName, creatorID, actorID)
		})
	}
	return nil
}

// Leave withdraws the actor from a group. The creator cannot leave their own
// group; they have to close it instead.
func (s *GroupService) Leave(ctx context.Context, actorID, groupID string) error {
	ctx = ensureContext(ctx)

	var group models.Group
	err := s.db.WithContext(ctx).Where("id = ?", groupID).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound.WithMessage("Group not found")
		}
		return apperrors.Wrap(err, "load group")
	}
	if group.CreatorID == actorID {
		return apperrors.NewBadRequest("The group creator cannot leave; close the group instead")
	}

	member, err := s.activeMember(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if member == nil {
		return apperrors.NewBadRequest("You are not a member of this group")
	}

	now := s.now()
	updates := map[string]interface{}{
		"status":  models.MemberLeft,
		"left_at": &now,
	}
	if err := s.db.WithContext(ctx).Model(member).Updates(updates).Error; err != nil {
		return apperrors.Wrap(err, "leave group")
	}

	s.log.Info("group left", zap.String("group_id", groupID), zap.String("user_id", actorID))
	return nil
}

// activeMember returns the live membership row, or nil when there is none.
func (s *GroupService) activeMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	var member models.GroupMember
	err := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, models.MemberActive).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "load membership")
	}
	return &member, nil
}

