package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// GroupService manages the group lifecycle: creation, member invitations, and
// deletion with full reversal of financial side effects.
type GroupService struct {
	store storage.Store
	locks *LockSet
}

// NewGroupService creates a GroupService sharing the given lock set with the
// other writers.
func NewGroupService(store storage.Store, locks *LockSet) *GroupService {
	return &GroupService{store: store, locks: locks}
}

// CreateGroup creates a group and adds the creator as a joined admin.
func (s *GroupService) CreateGroup(ctx context.Context, name, creatorID, tripID string) (*models.Group, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: group name required", ErrValidation)
	}
	group := &models.Group{Name: name, CreatedBy: creatorID, TripID: tripID}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	err := s.store.AddMember(ctx, &models.Member{
		GroupID: group.ID,
		UserID:  creatorID,
		Role:    models.RoleAdmin,
		Status:  models.MemberJoined,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("group created", "group_id", group.ID, "name", group.Name, "created_by", creatorID)
	return group, nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.store.GetGroup(ctx, groupID)
}

// ListGroups retrieves the groups a user belongs to.
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	return s.store.ListGroupsByUser(ctx, userID)
}

// ListMembers retrieves a group's member rows.
func (s *GroupService) ListMembers(ctx context.Context, groupID string) ([]*models.Member, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, groupID)
}

// InviteMember adds a user to the group in invited status. Only existing
// joined members may invite.
func (s *GroupService) InviteMember(ctx context.Context, groupID, inviterID, userID string) error {
	inviter, err := s.store.GetMember(ctx, groupID, inviterID)
	if err != nil {
		return err
	}
	if inviter.Status != models.MemberJoined {
		return fmt.Errorf("%w: inviter has not joined the group", ErrNotAuthorized)
	}
	err = s.store.AddMember(ctx, &models.Member{
		GroupID: groupID,
		UserID:  userID,
		Role:    models.RoleMember,
		Status:  models.MemberInvited,
	})
	if err != nil {
		return err
	}

	slog.Info("member invited", "group_id", groupID, "user_id", userID, "invited_by", inviterID)
	return nil
}

// AcceptInvite transitions a member from invited to joined.
func (s *GroupService) AcceptInvite(ctx context.Context, groupID, userID string) error {
	return s.resolveInvite(ctx, groupID, userID, models.MemberJoined)
}

// RejectInvite transitions a member from invited to rejected.
func (s *GroupService) RejectInvite(ctx context.Context, groupID, userID string) error {
	return s.resolveInvite(ctx, groupID, userID, models.MemberRejected)
}

func (s *GroupService) resolveInvite(ctx context.Context, groupID, userID string, to models.MemberStatus) error {
	member, err := s.store.GetMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member.Status != models.MemberInvited {
		return fmt.Errorf("%w: member status is %s, expected %s", ErrValidation, member.Status, models.MemberInvited)
	}
	if err := s.store.UpdateMemberStatus(ctx, groupID, userID, to); err != nil {
		return err
	}

	slog.Info("invite resolved", "group_id", groupID, "user_id", userID, "status", to)
	return nil
}

// DeleteGroup deletes a group and everything in it: splits, transactions,
// member rows, and the group itself, reverting every affected account balance
// on the way. Only admins may delete.
//
// Balance reversal mirrors transaction creation: expenses are added back,
// income is subtracted. Transfer-type transactions are skipped; they net to
// zero across their two accounts, so reversing one side would corrupt the
// other (see DESIGN.md).
func (s *GroupService) DeleteGroup(ctx context.Context, groupID, requesterID string) error {
	requester, err := s.store.GetMember(ctx, groupID, requesterID)
	if err != nil {
		return err
	}
	if requester.Role != models.RoleAdmin {
		return fmt.Errorf("%w: only group admins can delete a group", ErrNotAuthorized)
	}

	unlock := s.locks.Lock(groupID)
	defer unlock()

	txns, err := s.store.ListTransactionsByGroup(ctx, groupID)
	if err != nil {
		return err
	}

	var reversals []storage.AccountDelta
	for _, txn := range txns {
		if delta := creationDelta(txn); delta != nil {
			reversals = append(reversals, storage.AccountDelta{
				AccountID: delta.AccountID,
				Delta:     delta.Delta.Neg(),
			})
		}
	}

	if err := s.store.DeleteGroupCascade(ctx, groupID, reversals); err != nil {
		return err
	}

	slog.Info("group deleted",
		"group_id", groupID,
		"requested_by", requesterID,
		"transactions_reverted", len(reversals),
	)
	return nil
}
