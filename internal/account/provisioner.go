// Package account is the boundary to the identity service that owns user
// accounts. Capital flows only need to create and revoke them.
package account

import (
	"context"

	"github.com/google/uuid"
)

type Request struct {
	Email    string
	Name     string
	Role     string
	VendorID string
}

type Provisioner interface {
	// Provision creates the account and returns its user id. It fails with
	// apperr.ErrDuplicateAccount when the email is already taken.
	Provision(ctx context.Context, req Request) (string, error)
	Revoke(ctx context.Context, userID string) error
}

// NopProvisioner hands out fresh ids without contacting anything. Used when no
// identity service is configured.
type NopProvisioner struct{}

func (NopProvisioner) Provision(ctx context.Context, req Request) (string, error) {
	return uuid.New().String(), nil
}

func (NopProvisioner) Revoke(ctx context.Context, userID string) error {
	return nil
}
