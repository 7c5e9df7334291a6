package interceptors

import (
	"context"

	"github.com/webitel/screens-rating/internal/domain/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const (
	// ScreenletHeader optionally pins the identity results are routed to.
	ScreenletHeader = "x-screenlet-id"

	identityContextKey contextKey = "screenlet_identity"
)

// NewIdentityInterceptor reads the screenlet identity from call metadata.
// Calls without the header keep going and get an allocated identity downstream.
func NewIdentityInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, req)
		}
		values := md.Get(ScreenletHeader)
		if len(values) == 0 {
			return handler(ctx, req)
		}

		identity, err := model.ParseIdentity(values[0])
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "%s: %v", ScreenletHeader, err)
		}

		// [ENRICHMENT] Inject the identity into the context for downstream handlers
		return handler(context.WithValue(ctx, identityContextKey, identity), req)
	}
}

// IdentityFromContext is a helper to extract the identity from context safely.
func IdentityFromContext(ctx context.Context) (model.OperationIdentity, bool) {
	identity, ok := ctx.Value(identityContextKey).(model.OperationIdentity)
	return identity, ok
}
