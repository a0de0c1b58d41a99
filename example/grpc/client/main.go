// Command client calls the demo server a few times with a propagated
// context. It shows context entries, a delegation-table override, and the
// retry budget travelling with the request.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/stairlin/relay"
	"github.com/stairlin/relay/ctx/bcast"
	"github.com/stairlin/relay/ctx/journey"
	"github.com/stairlin/relay/dtab"
	"github.com/stairlin/relay/example/grpc/demo"
	lgrpc "github.com/stairlin/relay/net/grpc"
	"github.com/stairlin/relay/retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
)

func main() {
	if err := start(); err != nil {
		fmt.Println("App error:", err)
		os.Exit(1)
	}
}

type AppConfig struct {
	Foo string `json:"foo"`
}

func start() error {
	config := &AppConfig{}
	app, err := relay.New("grpc-client", config)
	if err != nil {
		return errors.Wrap(err, "error initialising relay")
	}

	c, err := lgrpc.NewClient(
		app.Ctx(),
		os.Getenv("GRPC_TARGET"),
		grpc.WithInsecure(),
		grpc.WithBlock(),
	)
	if err != nil {
		return errors.Wrap(err, "error connecting to server")
	}
	defer c.Close()
	c.PropagateContext = true
	c.AppendUnaryMiddleware(lgrpc.WithRetries(retry.Policy{
		Max:       3,
		Backoff:   func(attempt int) time.Duration { return 50 * time.Millisecond },
		Retryable: lgrpc.RetryableCodes(codes.Unavailable),
	}))

	demoSvc := demo.NewDemoClient(c.GRPC)

	for i := 0; i < 3; i++ {
		ctx := journey.New(app.Ctx())
		ctx.Trace("prepare", "Prepare context")

		// Attach request-scoped entries to the outgoing context
		req := bcast.With(ctx, demo.Lang, "en_GB")

		// Route lookups of the demo service to its canary for this
		// request only
		d, err := dtab.Parse("/disco/grpc.demo=>/disco/grpc.demo-canary")
		if err != nil {
			return err
		}
		req = dtab.With(req, d)

		res, err := demoSvc.Hello(req, &demo.Request{Msg: "Ping"})
		if err != nil {
			return errors.Wrap(err, "grpc call failed")
		}
		fmt.Println("Hello service returned", res.Msg)
		ctx.End()
	}
	return nil
}
