// Package grpc содержит межсервисный gRPC API filmorate.
// Сообщения построены на well-known типах protobuf, поэтому описание сервиса задано вручную.
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName полное имя gRPC сервиса.
const ServiceName = "filmorate.v1.InterService"

// Полные имена методов, используются клиентом.
const (
	CheckFilmExistsMethod = "/" + ServiceName + "/CheckFilmExists"
	CheckUserExistsMethod = "/" + ServiceName + "/CheckUserExists"
	GetFilmInfoMethod     = "/" + ServiceName + "/GetFilmInfo"
	GetUserMethod         = "/" + ServiceName + "/GetUser"
)

// InterServiceServer серверная часть filmorate.v1.InterService.
type InterServiceServer interface {
	CheckFilmExists(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
	CheckUserExists(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
	GetFilmInfo(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	GetUser(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
}

// InterServiceDesc описание сервиса для grpc.Server.
var InterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckFilmExists", Handler: unaryHandler(CheckFilmExistsMethod, InterServiceServer.CheckFilmExists)},
		{MethodName: "CheckUserExists", Handler: unaryHandler(CheckUserExistsMethod, InterServiceServer.CheckUserExists)},
		{MethodName: "GetFilmInfo", Handler: unaryHandler(GetFilmInfoMethod, InterServiceServer.GetFilmInfo)},
		{MethodName: "GetUser", Handler: unaryHandler(GetUserMethod, InterServiceServer.GetUser)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "filmorate/v1/inter_service.proto",
}

// RegisterInterServiceServer регистрирует реализацию на сервере.
func RegisterInterServiceServer(s grpc.ServiceRegistrar, srv InterServiceServer) {
	s.RegisterService(&InterServiceDesc, srv)
}

func unaryHandler[Resp any](fullMethod string, call func(InterServiceServer, context.Context, *wrapperspb.Int64Value) (Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(wrapperspb.Int64Value)
		if err := dec(in); err != nil {
			return nil, err
		}
		impl := srv.(InterServiceServer)
		if interceptor == nil {
			resp, err := call(impl, ctx, in)
			return resp, err
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			resp, err := call(impl, ctx, req.(*wrapperspb.Int64Value))
			return resp, err
		}
		return interceptor(ctx, in, info, handler)
	}
}
