// Command server starts a demo gRPC server that restores the context
// envelope sent by clients and echoes the propagated entries back.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/stairlin/relay"
	"github.com/stairlin/relay/ctx/bcast"
	"github.com/stairlin/relay/ctx/journey"
	"github.com/stairlin/relay/example/grpc/demo"
	"github.com/stairlin/relay/log"
	lgrpc "github.com/stairlin/relay/net/grpc"
	"github.com/stairlin/relay/retry"
	"google.golang.org/grpc"
)

func main() {
	if err := start(); err != nil {
		fmt.Println("App error", err)
		os.Exit(1)
	}
}

type AppConfig struct {
	Foo string `json:"foo"`
}

func start() error {
	config := &AppConfig{}
	app, err := relay.New("grpc-server", config)
	if err != nil {
		return errors.Wrap(err, "problem initialising relay")
	}
	app.Config().Request.AllowContext = true

	port, err := strconv.Atoi(os.Getenv("GRPC_PORT"))
	if err != nil {
		return errors.Wrap(err, "problem parsing port")
	}

	s := lgrpc.NewServer()
	s.AppendUnaryMiddleware(traceMiddleware)
	s.Handle(func(gs *grpc.Server) {
		demo.RegisterDemoServer(gs, &gRPCServer{
			node: os.Getenv("NODE_NAME"),
		})
	})

	err = app.RegisterService(&relay.ServiceRegistration{
		Name:   "grpc.demo",
		Host:   "127.0.0.1",
		Port:   uint16(port),
		Server: s,
	})
	if err != nil {
		return errors.Wrap(err, "problem registering service")
	}

	return app.Serve()
}

type gRPCServer struct {
	node string
}

func (s *gRPCServer) Hello(
	c context.Context, req *demo.Request,
) (*demo.Response, error) {
	ctx, ok := c.(journey.Ctx)
	if !ok {
		return nil, errors.New("context is not a journey")
	}

	lang := "unknown"
	if v, ok := bcast.Get(ctx, demo.Lang); ok {
		lang = v.(string)
	}
	fields := []log.Field{
		log.String("node", s.node),
		log.String("lang", lang),
	}
	if budget, ok := retry.FromContext(ctx); ok {
		fields = append(fields, log.Uint("attempt", uint(budget)))
	}
	ctx.Trace("grpc.hello", "Calling Hello", fields...)

	return &demo.Response{Msg: s.node + " speaks " + lang}, nil
}

func traceMiddleware(next lgrpc.UnaryHandler) lgrpc.UnaryHandler {
	return func(ctx journey.Ctx, req interface{}) (interface{}, error) {
		ctx.Trace("grpc.trace.start", "Start call")
		res, err := next(ctx, req)
		ctx.Trace("grpc.trace.end", "End call")
		return res, err
	}
}
