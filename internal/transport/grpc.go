package transport

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Handler serves one unary method over Struct messages.
type Handler func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

type Method struct {
	Name    string
	Handler Handler
}

// Register exposes methods as the unary gRPC service name. Requests and
// responses are google.protobuf.Struct, so no generated stubs are needed.
func Register(s grpc.ServiceRegistrar, name string, methods ...Method) {
	desc := &grpc.ServiceDesc{
		ServiceName: name,
		HandlerType: (*interface{})(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    name,
	}
	for _, m := range methods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: m.Name,
			Handler:    unaryHandler("/"+name+"/"+m.Name, m.Handler),
		})
	}
	s.RegisterService(desc, struct{}{})
}

func unaryHandler(fullMethod string, h Handler) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return h(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return h(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}

// Unary adapts a typed endpoint to a Handler.
func Unary[Req any, Resp any](m *ErrorMapper, fn func(context.Context, *Req) (Resp, error)) Handler {
	return func(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		req := new(Req)
		if err := Decode(in, req); err != nil {
			return nil, m.GRPC(ctx, err)
		}
		resp, err := fn(ctx, req)
		if err != nil {
			return nil, m.GRPC(ctx, err)
		}
		out, err := Encode(resp)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "build response: %v", err)
		}
		return out, nil
	}
}
