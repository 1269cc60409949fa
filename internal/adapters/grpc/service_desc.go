package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "floodfill.v1.LabelService"

// labelServiceServer is the server API of floodfill.v1.LabelService.
// Every method takes and returns a google.protobuf.Struct.
type labelServiceServer interface {
	RunBatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CancelRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListRuns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(srv labelServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(labelServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(method),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(labelServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

var labelServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*labelServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("RunBatch", labelServiceServer.RunBatch),
		unaryHandler("GetRun", labelServiceServer.GetRun),
		unaryHandler("CancelRun", labelServiceServer.CancelRun),
		unaryHandler("ListRuns", labelServiceServer.ListRuns),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "floodfill/v1/label_service.proto",
}
