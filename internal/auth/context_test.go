package auth

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"
)

func TestFromContext_Metadata(t *testing.T) {
	md := metadata.Pairs("x-vendor-id", "v-1", "x-user-id", "u-1", "x-role", RoleAdmin, "accept-language", "id")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	u := FromContext(ctx)
	assert.Equal(t, "v-1", u.VendorID)
	assert.Equal(t, "u-1", u.UserID)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.Equal(t, "id", u.Language)
	assert.NoError(t, RequireRole(ctx, RoleAdmin))
}

func TestFromContext_ValueWins(t *testing.T) {
	md := metadata.Pairs("x-role", RoleAdmin)
	ctx := metadata.NewIncomingContext(context.Background(), md)
	ctx = WithUser(ctx, UserContext{UserID: "u-2", Role: RoleVendor})

	assert.Equal(t, "u-2", *UserID(ctx))
	assert.ErrorIs(t, RequireRole(ctx, RoleAdmin, RoleSystem), apperr.ErrForbidden)
}

func TestUserID_Anonymous(t *testing.T) {
	assert.Nil(t, UserID(context.Background()))
	assert.Nil(t, UserID(WithUser(context.Background(), UserContext{UserID: "unknown"})))
}

func TestRequireVendorAccess(t *testing.T) {
	admin := WithUser(context.Background(), UserContext{Role: RoleAdmin})
	owner := WithUser(context.Background(), UserContext{Role: RoleVendor, VendorID: "v-1"})

	assert.NoError(t, RequireVendorAccess(admin, "v-9"))
	assert.NoError(t, RequireVendorAccess(owner, "v-1"))
	assert.ErrorIs(t, RequireVendorAccess(owner, "v-2"), apperr.ErrForbidden)
	assert.ErrorIs(t, RequireVendorAccess(context.Background(), "v-1"), apperr.ErrForbidden)
}
