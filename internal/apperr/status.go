package apperr

import (
	"errors"

	"github.com/fekuna/omnipos-capital-service/pkg/i18n"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MessageInternal is shown for every error outside the domain taxonomy. The
// underlying detail stays in the server log.
const MessageInternal = "internal_error"

// ToStatus converts err into a gRPC status with a message localized for lang.
func ToStatus(err error, lang string) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && !isAppErr(err) {
		return err
	}

	var e *Error
	if !errors.As(err, &e) {
		return status.Error(codes.Internal, i18n.Localize(lang, MessageInternal, nil))
	}

	msg := i18n.Localize(lang, e.MessageID, nil)
	return status.Error(grpcCode(e.Kind), msg)
}

func isAppErr(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

func grpcCode(k Kind) codes.Code {
	switch k {
	case KindValidation:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindConsistency:
		return codes.FailedPrecondition
	case KindConflict:
		return codes.Aborted
	case KindForbidden:
		return codes.PermissionDenied
	default:
		return codes.Internal
	}
}
