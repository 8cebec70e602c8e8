package order

import "context"

type Repository interface {
	// MarkApplied records that the order was applied and fails with
	// apperr.ErrAlreadyApplied the second time.
	MarkApplied(ctx context.Context, vendorID, orderID string) error
	IsApplied(ctx context.Context, vendorID, orderID string) (bool, error)
}
