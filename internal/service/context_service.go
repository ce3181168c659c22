package service

import (
	"auticonnect/internal/model"
	"auticonnect/internal/repository"
	"context"
	"fmt"
)

// ContextService assembles user and group contexts from stored records. Missing records never fail; they
// produce placeholder contexts so prompt composition always has something well-formed to work with.
type ContextService struct {
	users       repository.UserRepo
	groups      repository.GroupRepo
	messages    repository.MessageRepo
	groupWindow int
	userWindow  int
}

// NewContextService creates a new context service
func NewContextService(users repository.UserRepo, groups repository.GroupRepo, messages repository.MessageRepo, groupWindow, userWindow int) *ContextService {
	return &ContextService{
		users:       users,
		groups:      groups,
		messages:    messages,
		groupWindow: groupWindow,
		userWindow:  userWindow,
	}
}

// UserContext builds the view of one user
func (s *ContextService) UserContext(ctx context.Context, userID string) (model.UserContext, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return model.UserContext{}, fmt.Errorf("get user %s: %w", userID, err)
	}

	uc := model.UserContext{
		ID:            userID,
		DisplayName:   model.PlaceholderUserName,
		Role:          model.RoleUnknown,
		Interests:     []string{},
		Groups:        []string{},
		RecentHistory: s.history(model.ScopeUser, userID, s.userWindow),
	}
	if user == nil {
		return uc, nil
	}

	if user.Name != "" {
		uc.DisplayName = user.Name
	}
	uc.Role = model.NormalizeRole(user.Role)
	uc.Interests = append(uc.Interests, user.Interests...)
	uc.Groups = append(uc.Groups, user.Groups...)
	return uc, nil
}

// GroupContext builds the view of one group with its members resolved
func (s *ContextService) GroupContext(ctx context.Context, groupID string) (model.GroupContext, error) {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return model.GroupContext{}, fmt.Errorf("get group %s: %w", groupID, err)
	}

	gc := model.GroupContext{
		ID:            groupID,
		Name:          model.PlaceholderGroupName,
		Theme:         model.PlaceholderTheme,
		Members:       []model.Member{},
		RecentHistory: s.history(model.ScopeGroup, groupID, s.groupWindow),
	}
	if group == nil {
		return gc, nil
	}

	if group.Name != "" {
		gc.Name = group.Name
	}
	if group.Theme != "" {
		gc.Theme = group.Theme
	}
	gc.Description = group.Description
	gc.CreatedBy = group.CreatedBy

	for _, memberID := range group.Members {
		user, err := s.users.Get(ctx, memberID)
		if err != nil {
			return model.GroupContext{}, fmt.Errorf("get member %s: %w", memberID, err)
		}
		// Members without a profile are left out, as if they had not joined.
		if user == nil {
			continue
		}
		name := user.Name
		if name == "" {
			name = model.PlaceholderUserName
		}
		gc.Members = append(gc.Members, model.Member{
			ID:          memberID,
			DisplayName: name,
			Role:        model.NormalizeRole(user.Role),
		})
	}
	return gc, nil
}

func (s *ContextService) history(scope model.Scope, id string, window int) model.History {
	if s.messages == nil {
		return model.NewHistory(window, nil)
	}
	return model.NewHistory(window, func(ctx context.Context, limit int) ([]model.Message, error) {
		return s.messages.Recent(ctx, scope, id, limit)
	})
}
