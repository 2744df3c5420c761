package grpc

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"liyu1981.xyz/field-presence-service/pkg/auth"
	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/tracker"
)

type identityKey struct{}

// CreateAuthInterceptor admits only active managers, identified by the bearer
// token in the authorization metadata, and applies the per-manager rate
// limit. Methods in publicMethods pass through untouched.
func (p *PresenceServer) CreateAuthInterceptor(publicMethods []string) grpc.UnaryServerInterceptor {
	public := common.Reducer(publicMethods,
		func(m map[string]bool, method string) map[string]bool {
			m[method] = true
			return m
		},
		map[string]bool{},
	)

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if public[info.FullMethod] {
			return handler(ctx, req)
		}

		var token string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				token = values[0]
			}
		}

		identity, err := p.Tracker.Authenticate(ctx, tracker.Credentials{Token: token, Role: auth.RoleManager})
		if err != nil {
			return nil, toStatus(err)
		}

		if !p.CheckManagerLimiter(identity.ID) {
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded")
		}

		return handler(context.WithValue(ctx, identityKey{}, identity), req)
	}
}

func toStatus(err error) error {
	var authErr *tracker.AuthError
	var validationErr *tracker.ValidationError

	switch {
	case errors.As(err, &authErr):
		if authErr.Forbidden() {
			return status.Error(codes.PermissionDenied, authErr.Error())
		}
		return status.Error(codes.Unauthenticated, authErr.Error())
	case errors.As(err, &validationErr):
		return status.Error(codes.InvalidArgument, validationErr.Error())
	default:
		getLogger().Error("Request failed", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
