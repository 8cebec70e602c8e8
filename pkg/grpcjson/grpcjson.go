// Package grpcjson serves plain Go structs over gRPC with a JSON codec, so
// services can be described without generated stubs. Clients select it with
// grpc.CallContentSubtype(grpcjson.Name).
package grpcjson

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const Name = "json"

func init() {
	encoding.RegisterCodec(codec{})
}

type codec struct{}

func (codec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (codec) Name() string {
	return Name
}

// Method binds fn as a unary method. Server interceptors run around it as they
// do for generated services.
func Method[Req any, Resp any](service, name string, fn func(ctx context.Context, req *Req) (Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, req, info, func(ctx context.Context, r interface{}) (interface{}, error) {
				return fn(ctx, r.(*Req))
			})
		},
	}
}

// Register adds a service made of Method descriptors to s.
func Register(s grpc.ServiceRegistrar, service string, impl interface{}, methods ...grpc.MethodDesc) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: service,
		HandlerType: (*interface{})(nil),
		Methods:     methods,
		Streams:     []grpc.StreamDesc{},
		Metadata:    service,
	}, impl)
}

// Invoke calls a unary method with the JSON codec.
func Invoke(ctx context.Context, cc grpc.ClientConnInterface, service, method string, req, resp interface{}, opts ...grpc.CallOption) error {
	opts = append(opts, grpc.CallContentSubtype(Name))
	return cc.Invoke(ctx, "/"+service+"/"+method, req, resp, opts...)
}
