// Package demo defines a small gRPC service used by the example client and
// server. It speaks gob instead of protobuf, which keeps the example free
// of generated code.
package demo

import (
	"bytes"
	"context"
	"encoding/gob"

	"github.com/stairlin/relay/ctx/bcast"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// Lang is a request-scoped entry propagated from the client to the server
var Lang = bcast.NewStringKey("demo.Lang")

type gobCodec struct{}

func (gobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (gobCodec) Name() string {
	return "gob"
}

func init() {
	encoding.RegisterCodec(gobCodec{})
}

// Request is the demo request message
type Request struct {
	Msg string
}

// Response is the demo response message
type Response struct {
	Msg string
}

// DemoServer is the server API for the Demo service
type DemoServer interface {
	Hello(context.Context, *Request) (*Response, error)
}

// RegisterDemoServer registers the service implementation onto a gRPC server
func RegisterDemoServer(s *grpc.Server, srv DemoServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// DemoClient is the client API for the Demo service
type DemoClient struct {
	cc *grpc.ClientConn
}

func NewDemoClient(cc *grpc.ClientConn) *DemoClient {
	return &DemoClient{cc: cc}
}

func (c *DemoClient) Hello(
	ctx context.Context, in *Request, opts ...grpc.CallOption,
) (*Response, error) {
	out := new(Response)
	opts = append(opts, grpc.CallContentSubtype("gob"))
	err := c.cc.Invoke(ctx, "/relay.example.Demo/Hello", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func _Demo_Hello_Handler(
	srv interface{},
	ctx context.Context,
	dec func(interface{}) error,
	interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	in := new(Request)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DemoServer).Hello(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/relay.example.Demo/Hello",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DemoServer).Hello(ctx, req.(*Request))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the grpc.ServiceDesc for the Demo service
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "relay.example.Demo",
	HandlerType: (*DemoServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Hello",
			Handler:    _Demo_Hello_Handler,
		},
	},
	Streams: []grpc.StreamDesc{},
}
