package admins

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/arbor-commerce/arbor/internal/auth"
	"github.com/arbor-commerce/arbor/internal/rbac"
	"github.com/arbor-commerce/arbor/internal/shared"
)

// ErrUnknownGrant indicates a permission outside the catalog.
var ErrUnknownGrant = errors.New("admins: unknown resource or action")

// ErrSelfDeactivation indicates an admin trying to remove their own access.
var ErrSelfDeactivation = errors.New("admins: cannot deactivate own account")

// Service orchestrates admin account management. Every mutation records an
// audit entry attributed to the acting principal.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns admins matching the filters plus the total count.
func (s *Service) List(ctx context.Context, filters ListAdminsFilters) ([]Admin, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches one admin.
func (s *Service) Get(ctx context.Context, id int64) (Admin, error) {
	return s.repo.Get(ctx, id)
}

// Register creates a new admin account. Only SUPER_ADMIN reaches this (role
// gate on the route); the service revalidates the role and grants anyway.
func (s *Service) Register(ctx context.Context, actor *auth.Principal, req CreateAdminRequest) (Admin, error) {
	role := auth.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if !auth.ValidRole(role) {
		return Admin{}, ErrUnknownGrant
	}
	permissions, err := normalizeGrants(req.Permissions)
	if err != nil {
		return Admin{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Admin{}, err
	}

	admin, err := s.repo.Create(ctx, strings.ToLower(strings.TrimSpace(req.Email)), string(hash), role, permissions)
	if err != nil {
		return Admin{}, err
	}

	s.record(ctx, actor, "admin.create", admin.ID, map[string]any{"role": string(role)})
	return admin, nil
}

// Update changes role, grants or the active flag.
func (s *Service) Update(ctx context.Context, actor *auth.Principal, id int64, req UpdateAdminRequest) (Admin, error) {
	var role *auth.Role
	if req.Role != nil {
		r := auth.Role(strings.ToUpper(strings.TrimSpace(*req.Role)))
		if !auth.ValidRole(r) {
			return Admin{}, ErrUnknownGrant
		}
		role = &r
	}

	var permissions *auth.PermissionSet
	if req.Permissions != nil {
		normalized, err := normalizeGrants(*req.Permissions)
		if err != nil {
			return Admin{}, err
		}
		permissions = &normalized
	}

	if req.IsActive != nil && !*req.IsActive && actor != nil && actor.ID == id {
		return Admin{}, ErrSelfDeactivation
	}

	admin, err := s.repo.Update(ctx, id, role, permissions, req.IsActive)
	if err != nil {
		return Admin{}, err
	}

	meta := map[string]any{}
	if role != nil {
		meta["role"] = string(*role)
	}
	if permissions != nil {
		meta["permissions_changed"] = true
	}
	if req.IsActive != nil {
		meta["is_active"] = *req.IsActive
	}
	s.record(ctx, actor, "admin.update", id, meta)
	return admin, nil
}

// Delete terminally removes the account's ability to authenticate. The row
// is kept because audit records reference it.
func (s *Service) Delete(ctx context.Context, actor *auth.Principal, id int64) error {
	if actor != nil && actor.ID == id {
		return ErrSelfDeactivation
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor, "admin.delete", id, nil)
	return nil
}

// ResetPassword replaces the password for an active account identified by
// email. Used by the OTP password-reset flow.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordByEmail(ctx, strings.ToLower(strings.TrimSpace(email)), string(hash))
}

// History returns recent audit entries for one admin account.
func (s *Service) History(ctx context.Context, id int64, limit int) ([]shared.AuditLog, error) {
	return s.audit.RecentForEntity(ctx, "admin", strconv.FormatInt(id, 10), limit)
}

func (s *Service) record(ctx context.Context, actor *auth.Principal, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if actor != nil {
		actorID = actor.ID
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "admin",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

func normalizeGrants(grants map[string][]string) (auth.PermissionSet, error) {
	normalized := auth.PermissionSet{}
	for resource, actions := range grants {
		resource = strings.ToLower(strings.TrimSpace(resource))
		for _, action := range actions {
			action = strings.ToLower(strings.TrimSpace(action))
			if !rbac.Granted(resource, action) {
				return nil, ErrUnknownGrant
			}
			if !normalized.Allows(resource, action) {
				normalized[resource] = append(normalized[resource], action)
			}
		}
	}
	return normalized, nil
}
