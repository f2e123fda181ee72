package grpc

import (
	"context"

	"github.com/dmitrijs2005/xconnect/internal/api"
	"github.com/dmitrijs2005/xconnect/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// publicMethods may be called without an access token.
var publicMethods = map[string]bool{
	api.FullMethod(api.MethodPing): true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if !publicMethods[info.FullMethod] {

		var accessToken string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(api.AccessTokenKey)
			if len(values) > 0 {
				accessToken = values[0]
			}
		}
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		userId, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
		if err != nil {
			s.logger.Warn(ctx, "rejected access token", "method", info.FullMethod, "error", err)
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		ctx = context.WithValue(ctx, userIDKey, userId)

	}

	return handler(ctx, req)
}

// ownerFrom returns the authenticated user id placed by the interceptor.
func ownerFrom(ctx context.Context) (string, error) {
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return id, nil
}
