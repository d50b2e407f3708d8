// Package organizations is the typed client for the organization and
// membership endpoints.
package organizations

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-taskmaster/policy"
	"github.com/jrsteele09/go-taskmaster/transport"
)

// Organization is the top-level tenant grouping projects and members.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Member is a user's membership within an organization; the role lives on the
// membership, not on the user.
type Member struct {
	UserID   string      `json:"userId"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Role     policy.Role `json:"role"`
	JoinedAt time.Time   `json:"joinedAt"`
}

// Invitation invites a user into an organization. Owners cannot be invited,
// ownership is transferred, never granted on entry.
type Invitation struct {
	Email string      `json:"email"`
	Role  policy.Role `json:"role"`
}

// Service is the organization API client.
type Service struct {
	client *transport.Client
}

// NewService creates the organization service.
func NewService(client *transport.Client) (*Service, error) {
	if client == nil {
		return nil, errors.New("[organizations.NewService] client is required")
	}
	return &Service{client: client}, nil
}

// List returns the caller's organizations.
func (s *Service) List(ctx context.Context, page transport.Page) ([]Organization, transport.PaginationMeta, error) {
	var resp transport.Paginated[Organization]
	if err := s.client.Get(ctx, "/organizations", page.Values(), &resp); err != nil {
		return nil, transport.PaginationMeta{}, errors.Wrap(err, "[Service.List] organizations")
	}
	return resp.Data, resp.Meta, nil
}

// Get returns one organization.
func (s *Service) Get(ctx context.Context, id string) (*Organization, error) {
	var org Organization
	if err := s.client.Get(ctx, "/organizations/"+id, nil, &org); err != nil {
		return nil, errors.Wrapf(err, "[Service.Get] organization %s", id)
	}
	return &org, nil
}

// Create creates an organization; the caller becomes its owner.
func (s *Service) Create(ctx context.Context, name string) (*Organization, error) {
	if name == "" {
		return nil, errors.New("[Service.Create] name is required")
	}
	var org Organization
	if err := s.client.Post(ctx, "/organizations", map[string]string{"name": name}, &org); err != nil {
		return nil, errors.Wrap(err, "[Service.Create] organization")
	}
	return &org, nil
}

// Update renames an organization.
func (s *Service) Update(ctx context.Context, id, name string) (*Organization, error) {
	var org Organization
	if err := s.client.Put(ctx, "/organizations/"+id, map[string]string{"name": name}, &org); err != nil {
		return nil, errors.Wrapf(err, "[Service.Update] organization %s", id)
	}
	return &org, nil
}

// Delete removes an organization and everything under it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, "/organizations/"+id); err != nil {
		return errors.Wrapf(err, "[Service.Delete] organization %s", id)
	}
	return nil
}

// Members lists an organization's members with their roles.
func (s *Service) Members(ctx context.Context, orgID string, page transport.Page) ([]Member, transport.PaginationMeta, error) {
	var resp transport.Paginated[Member]
	if err := s.client.Get(ctx, fmt.Sprintf("/organizations/%s/members", orgID), page.Values(), &resp); err != nil {
		return nil, transport.PaginationMeta{}, errors.Wrapf(err, "[Service.Members] organization %s", orgID)
	}
	return resp.Data, resp.Meta, nil
}

// Invite sends an invitation. Only admin and member roles can be granted this
// way.
func (s *Service) Invite(ctx context.Context, orgID string, invite Invitation) error {
	if invite.Role != policy.RoleAdmin && invite.Role != policy.RoleMember {
		return errors.Errorf("[Service.Invite] role %q cannot be granted by invitation", invite.Role)
	}
	if err := s.client.Post(ctx, fmt.Sprintf("/organizations/%s/invite", orgID), invite, nil); err != nil {
		return errors.Wrapf(err, "[Service.Invite] organization %s", orgID)
	}
	return nil
}

// UpdateMemberRole changes a member's role.
func (s *Service) UpdateMemberRole(ctx context.Context, orgID, userID string, role policy.Role) (*Member, error) {
	if !role.Valid() {
		return nil, errors.Errorf("[Service.UpdateMemberRole] unknown role %q", role)
	}
	var member Member
	path := fmt.Sprintf("/organizations/%s/members/%s", orgID, userID)
	if err := s.client.Put(ctx, path, map[string]policy.Role{"role": role}, &member); err != nil {
		return nil, errors.Wrapf(err, "[Service.UpdateMemberRole] member %s", userID)
	}
	return &member, nil
}

// RemoveMember removes a member from the organization.
func (s *Service) RemoveMember(ctx context.Context, orgID, userID string) error {
	if err := s.client.Delete(ctx, fmt.Sprintf("/organizations/%s/members/%s", orgID, userID)); err != nil {
		return errors.Wrapf(err, "[Service.RemoveMember] member %s", userID)
	}
	return nil
}

// RoleOf finds the viewer's own role in the member list, "" when absent.
func RoleOf(members []Member, userID string) policy.Role {
	for _, m := range members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return ""
}
