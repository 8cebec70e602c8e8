package middleware

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/auth"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// ContextInterceptor resolves the caller from metadata once so handlers read it from ctx.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		return handler(auth.WithUser(ctx, auth.FromContext(ctx)), req)
	}
}

// ErrorInterceptor logs failures and converts domain errors into localized statuses.
func ErrorInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			fields := []zap.Field{
				zap.String("method", info.FullMethod),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			}
			// the client only sees a generic message for these
			if apperr.KindOf(err) == apperr.KindInternal {
				log.Error("grpc request failed", fields...)
			} else {
				log.Warn("grpc request failed", fields...)
			}
			return nil, apperr.ToStatus(err, auth.FromContext(ctx).Language)
		}
		return resp, nil
	}
}
