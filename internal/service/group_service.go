package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/ledgerrpc"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	store storage.GroupStore
}

var _ ledgerrpc.GroupServiceHandler = (*GroupService)(nil)

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.GroupStore) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a new group. The creator is always a member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[ledgerrpc.CreateGroupRequest]) (*connect.Response[ledgerrpc.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	if req.Msg.Name == "" {
		return nil, toConnectError("CreateGroup", invalidArgument("name required"))
	}

	creator := actor(ctx, req.Msg.CreatedBy)
	members := cleanNames(append([]string{creator}, req.Msg.Members...))
	if len(members) == 0 {
		return nil, toConnectError("CreateGroup", invalidArgument("at least one member required"))
	}

	group := &models.Group{
		Name:      req.Msg.Name,
		CreatedBy: creator,
		Members:   members,
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, toConnectError("CreateGroup", err)
	}

	slog.Info("Group created", "group_id", group.ID, "created_by", creator)

	return connect.NewResponse(&ledgerrpc.CreateGroupResponse{Group: toRPCGroup(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[ledgerrpc.GetGroupRequest]) (*connect.Response[ledgerrpc.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("GetGroup", err)
	}

	return connect.NewResponse(&ledgerrpc.GetGroupResponse{Group: toRPCGroup(group)}), nil
}

// ListGroups lists groups. Authenticated callers only see their own groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[ledgerrpc.ListGroupsRequest]) (*connect.Response[ledgerrpc.ListGroupsResponse], error) {
	member := actor(ctx, req.Msg.Member)
	slog.Info("ListGroups request received", "member", member)

	groups, err := s.store.ListGroups(ctx, member)
	if err != nil {
		return nil, toConnectError("ListGroups", err)
	}

	out := make([]*ledgerrpc.Group, len(groups))
	for i, group := range groups {
		out[i] = toRPCGroup(group)
	}

	slog.Info("ListGroups successful", "count", len(groups))

	return connect.NewResponse(&ledgerrpc.ListGroupsResponse{Groups: out}), nil
}

func (s *GroupService) RenameGroup(ctx context.Context, req *connect.Request[ledgerrpc.RenameGroupRequest]) (*connect.Response[ledgerrpc.RenameGroupResponse], error) {
	slog.Info("RenameGroup request received", "group_id", req.Msg.GroupID, "name", req.Msg.Name)

	if req.Msg.Name == "" {
		return nil, toConnectError("RenameGroup", invalidArgument("name required"))
	}

	group, err := s.update(ctx, req.Msg.GroupID, func(g *models.Group) error {
		g.Name = req.Msg.Name
		return nil
	})
	if err != nil {
		return nil, toConnectError("RenameGroup", err)
	}

	return connect.NewResponse(&ledgerrpc.RenameGroupResponse{Group: toRPCGroup(group)}), nil
}

// AddMembers appends new members. Names already in the group are ignored.
func (s *GroupService) AddMembers(ctx context.Context, req *connect.Request[ledgerrpc.AddMembersRequest]) (*connect.Response[ledgerrpc.AddMembersResponse], error) {
	slog.Info("AddMembers request received",
		"group_id", req.Msg.GroupID,
		"members_count", len(req.Msg.Members),
	)

	group, err := s.update(ctx, req.Msg.GroupID, func(g *models.Group) error {
		g.Members = cleanNames(append(g.Members, req.Msg.Members...))
		return nil
	})
	if err != nil {
		return nil, toConnectError("AddMembers", err)
	}

	slog.Info("Members added", "group_id", group.ID, "members_count", len(group.Members))

	return connect.NewResponse(&ledgerrpc.AddMembersResponse{Group: toRPCGroup(group)}), nil
}

// RemoveMember drops a member from the group. Their expenses and payments
// stay, so balances keep reflecting them.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[ledgerrpc.RemoveMemberRequest]) (*connect.Response[ledgerrpc.RemoveMemberResponse], error) {
	slog.Info("RemoveMember request received", "group_id", req.Msg.GroupID, "member", req.Msg.Member)

	group, err := s.update(ctx, req.Msg.GroupID, func(g *models.Group) error {
		if req.Msg.Member == g.CreatedBy {
			return invalidArgument("the creator %q cannot be removed", g.CreatedBy)
		}
		if !g.HasMember(req.Msg.Member) {
			return fmt.Errorf("member %q: %w", req.Msg.Member, storage.ErrNotFound)
		}
		kept := make([]string, 0, len(g.Members)-1)
		for _, m := range g.Members {
			if m != req.Msg.Member {
				kept = append(kept, m)
			}
		}
		g.Members = kept
		return nil
	})
	if err != nil {
		return nil, toConnectError("RemoveMember", err)
	}

	slog.Info("Member removed", "group_id", group.ID, "member", req.Msg.Member)

	return connect.NewResponse(&ledgerrpc.RemoveMemberResponse{Group: toRPCGroup(group)}), nil
}

// DeleteGroup removes a group with its whole history.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[ledgerrpc.DeleteGroupRequest]) (*connect.Response[ledgerrpc.DeleteGroupResponse], error) {
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	group, err := loadGroup(ctx, s.store, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("DeleteGroup", err)
	}

	if err := s.store.DeleteGroup(ctx, group.ID); err != nil {
		return nil, toConnectError("DeleteGroup", err)
	}

	slog.Info("Group deleted", "group_id", group.ID)

	return connect.NewResponse(&ledgerrpc.DeleteGroupResponse{}), nil
}

// update loads a group, checks the caller, applies fn and saves the result.
func (s *GroupService) update(ctx context.Context, groupID string, fn func(*models.Group) error) (*models.Group, error) {
	group, err := loadGroup(ctx, s.store, groupID)
	if err != nil {
		return nil, err
	}
	if err := fn(group); err != nil {
		return nil, err
	}
	if err := s.store.UpdateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}
