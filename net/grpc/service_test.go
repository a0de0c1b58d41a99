package grpc_test

import (
	"bytes"
	"context"
	"encoding/gob"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// The test service speaks gob instead of protobuf, which keeps the wire
// codec self-contained

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

// Request is the test request message
type Request struct {
	Msg string
}

// Response is the test response message
type Response struct {
	Msg string
}

// TestServer is the server API for the Test service
type TestServer interface {
	Hello(context.Context, *Request) (*Response, error)
}

// TestClient is the client API for the Test service
type TestClient struct {
	cc *grpc.ClientConn
}

func NewTestClient(cc *grpc.ClientConn) *TestClient {
	return &TestClient{cc: cc}
}

func (c *TestClient) Hello(
	ctx context.Context, in *Request, opts ...grpc.CallOption,
) (*Response, error) {
	out := new(Response)
	opts = append(opts, grpc.CallContentSubtype("gob"))
	err := c.cc.Invoke(ctx, "/relay.test.Test/Hello", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func _Test_Hello_Handler(
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
		return srv.(TestServer).Hello(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/relay.test.Test/Hello",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TestServer).Hello(ctx, req.(*Request))
	}
	return interceptor(ctx, in, info, handler)
}

var _Test_serviceDesc = grpc.ServiceDesc{
	ServiceName: "relay.test.Test",
	HandlerType: (*TestServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Hello",
			Handler:    _Test_Hello_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "test",
}
