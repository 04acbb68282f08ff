package admins

import (
	"time"

	"github.com/arbor-commerce/arbor/internal/auth"
)

// Admin is the management view of an administrative account. Password hashes
// never leave the repository layer in responses.
type Admin struct {
	ID          int64              `json:"id"`
	Email       string             `json:"email"`
	Role        auth.Role          `json:"role"`
	Permissions auth.PermissionSet `json:"permissions"`
	IsActive    bool               `json:"is_active"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
