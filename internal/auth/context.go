package auth

import (
	"context"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"google.golang.org/grpc/metadata"
)

const (
	RoleAdmin  = "ADMIN"
	RoleSystem = "SYSTEM"
	RoleVendor = "VENDOR"
)

type UserContext struct {
	VendorID string
	UserID   string
	Role     string
	Language string
}

type userKey struct{}

// SystemUser is used by background consumers that post on behalf of the platform.
var SystemUser = UserContext{UserID: "system", Role: RoleSystem}

func WithUser(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromContext returns the user put there by WithUser, falling back to incoming
// grpc metadata (x-vendor-id, x-user-id, x-role, accept-language).
func FromContext(ctx context.Context) UserContext {
	if u, ok := ctx.Value(userKey{}).(UserContext); ok {
		return u
	}

	var u UserContext
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		u.VendorID = first(md, "x-vendor-id")
		u.UserID = first(md, "x-user-id")
		u.Role = first(md, "x-role")
		u.Language = first(md, "accept-language")
	}
	return u
}

func GetVendorID(ctx context.Context) string {
	return FromContext(ctx).VendorID
}

// UserID returns nil when the caller is anonymous.
func UserID(ctx context.Context) *string {
	id := FromContext(ctx).UserID
	if id == "" || id == "unknown" {
		return nil
	}
	return &id
}

// RequireRole fails with ErrForbidden unless the caller holds one of roles.
func RequireRole(ctx context.Context, roles ...string) error {
	role := FromContext(ctx).Role
	for _, r := range roles {
		if role == r {
			return nil
		}
	}
	return apperr.ErrForbidden
}

func first(md metadata.MD, key string) string {
	if val := md.Get(key); len(val) > 0 {
		return val[0]
	}
	return ""
}

// RequireVendorAccess lets ADMIN and SYSTEM act on any vendor and a VENDOR
// user only on their own.
func RequireVendorAccess(ctx context.Context, vendorID string) error {
	u := FromContext(ctx)
	switch u.Role {
	case RoleAdmin, RoleSystem:
		return nil
	case RoleVendor:
		if u.VendorID != "" && u.VendorID == vendorID {
			return nil
		}
	}
	return apperr.ErrForbidden
}

// ResolveVendorID returns requested, or the caller's own vendor when it is empty.
func ResolveVendorID(ctx context.Context, requested string) string {
	if requested != "" {
		return requested
	}
	return GetVendorID(ctx)
}
