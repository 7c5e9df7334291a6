package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/webitel/screens-rating/infra/server/grpc/interceptors"
	"github.com/webitel/screens-rating/internal/domain/model"
	"github.com/webitel/screens-rating/internal/service"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName        = "screens.rating.v1.Screenlets"
	DeleteRatingMethod = "/" + ServiceName + "/DeleteRating"
)

// ScreenletsServer is the gRPC face of the delete-rating screen.
// Messages are google.protobuf.Struct so clients need no generated stubs:
// request {"screenletId": 42, "className": "...", "classPK": 1001},
// response {"identity": 42, "deleted": true}. Ids of 2^53 or more must be sent
// as decimal strings.
type ScreenletsServer interface {
	DeleteRating(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScreenletsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "DeleteRating", Handler: deleteRatingHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func deleteRatingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScreenletsServer).DeleteRating(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DeleteRatingMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScreenletsServer).DeleteRating(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var _ ScreenletsServer = (*ScreenletsService)(nil)

type ScreenletsService struct {
	logger  *slog.Logger
	screens service.Screener
	wait    time.Duration
}

func NewScreenletsService(logger *slog.Logger, screens service.Screener, wait time.Duration) *ScreenletsService {
	return &ScreenletsService{logger: logger, screens: screens, wait: wait}
}

// DeleteRating dispatches and waits for the listener, like the HTTP long-poll.
func (s *ScreenletsService) DeleteRating(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()

	screenletID, err := int64Field(fields, "screenletId")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	identity := model.OperationIdentity(screenletID)
	if id, ok := interceptors.IdentityFromContext(ctx); ok {
		identity = id
	}
	className := fields["className"].GetStringValue()
	classPK, err := int64Field(fields, "classPK")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	outcomes := service.NewChanListener(1)
	it, err := s.screens.Open(identity, outcomes)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	defer it.Close()

	if err := it.DeleteRating(ctx, className, classPK); err != nil {
		return nil, status.Error(dispatchCode(err), err.Error())
	}

	select {
	case <-ctx.Done():
		return nil, status.FromContextError(ctx.Err()).Err()
	case <-time.After(s.wait):
		s.logger.Warn("DELETE_WAIT_TIMEOUT", "identity", it.GetIdentity(), "wait", s.wait)
		return nil, status.Error(codes.DeadlineExceeded, "no result from portal yet")
	case o := <-outcomes:
		if o.Err != nil {
			re := model.AsRemoteError(o.Err)
			return nil, status.Error(remoteCode(re), re.Error())
		}
		return structpb.NewStruct(map[string]any{
			"identity": float64(it.GetIdentity()),
			"deleted":  true,
		})
	}
}

// maxExactInteger is the first magnitude at which float64 stops telling neighbouring integers apart.
const maxExactInteger = 1 << 53

// int64Field reads an integer sent as a JSON number or a decimal string.
// A missing or null field reads as zero.
func int64Field(fields map[string]*structpb.Value, name string) (int64, error) {
	v, ok := fields[name]
	if !ok {
		return 0, nil
	}
	switch kind := v.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return 0, nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, fmt.Errorf("%s: %v is not a whole number", name, n)
		}
		if math.Abs(n) >= maxExactInteger {
			return 0, fmt.Errorf("%s: %v is too large for a number, send it as a string", name, n)
		}
		return int64(n), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not an integer", name, kind.StringValue)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s: must be a number or a decimal string", name)
	}
}

func dispatchCode(err error) codes.Code {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return codes.InvalidArgument
	case errors.Is(err, model.ErrNoSession):
		return codes.Unauthenticated
	case errors.Is(err, model.ErrTooManyInFlight):
		return codes.ResourceExhausted
	default:
		return codes.Unavailable
	}
}

func remoteCode(re *model.RemoteError) codes.Code {
	switch re.Kind {
	case model.RemoteNotFound:
		return codes.NotFound
	case model.RemotePermissionDenied:
		return codes.PermissionDenied
	case model.RemoteNetwork, model.RemoteServer:
		return codes.Unavailable
	default:
		return codes.Unknown
	}
}
