package grpc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"

	"github.com/stairlin/relay/crypto"
	"github.com/stairlin/relay/ctx/app"
	"github.com/stairlin/relay/ctx/journey"
	"github.com/stairlin/relay/log"
)

// Client is a wrapper for the grpc client.
type Client struct {
	unaryMiddlewares []UnaryClientMiddleware

	// GRPC is the standard grpc client connection
	GRPC *grpc.ClientConn
	// PropagateContext tells whether the broadcast context should be sent
	// ahead of outbound requests.
	//
	// This should be activated when the upstream endpoint is a relay service
	// or another relay-compatible service. The context can potentially leak
	// sensitive information, so do not activate it for services that you
	// don't trust.
	PropagateContext bool
	// Crypto encrypts the context envelope before it leaves the process.
	// Both ends of the connection must share the rotor keys
	Crypto *crypto.Rotor
}

// NewClient dials the given target and returns a client
func NewClient(
	appCtx app.Ctx, target string, opts ...grpc.DialOption,
) (*Client, error) {
	appCtx.Trace("c.grpc.dial", "Dialing...", log.String("target", target))
	client := &Client{}

	// Add default dial options
	opts = append(opts,
		grpc.WithUnaryInterceptor(client.unaryInterceptor),
	)

	// Dial GRPC connection
	conn, err := grpc.DialContext(context.Background(), target, opts...)
	if err != nil {
		return nil, err
	}
	client.GRPC = conn
	return client, nil
}

// AppendUnaryMiddleware appends an unary middleware to the call chain
func (c *Client) AppendUnaryMiddleware(m UnaryClientMiddleware) {
	c.unaryMiddlewares = append(c.unaryMiddlewares, m)
}

// WaitForStateReady waits until the connection is ready or the context
// times out
func (c *Client) WaitForStateReady(ctx journey.Ctx) error {
	s := c.GRPC.GetState()
	if s == connectivity.Ready {
		return nil
	}

	ctx.Trace("c.grpc.wait", "Wait for connection to be ready",
		log.Stringer("state", s),
	)
	if !c.GRPC.WaitForStateChange(ctx, s) {
		// ctx got timeout or canceled.
		return ctx.Err()
	}
	return nil
}

// Close closes the underlying connection
func (c *Client) Close() error {
	return c.GRPC.Close()
}

// WithTLS returns a dial option for the GRPC client that activates
// TLS. This must be used when the server has TLS activated.
func WithTLS(
	certFile, serverNameOverride string,
) (grpc.DialOption, error) {
	creds, err := credentials.NewClientTLSFromFile(certFile, serverNameOverride)
	if err != nil {
		return nil, errors.Wrap(err, "could not load certificate")
	}
	return grpc.WithTransportCredentials(creds), nil
}

// WithMutualTLS returns a dial option for the GRPC client that activates
// a mutual TLS authentication between the server and the client.
func WithMutualTLS(
	serverName, certFile, keyFile, caFile string,
) (grpc.DialOption, error) {
	certificate, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, errors.Wrap(err, "could not load client key pair")
	}

	// Create a certificate pool from the certificate authority
	certPool := x509.NewCertPool()
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, errors.Wrap(err, "could not read ca certificate")
	}
	if ok := certPool.AppendCertsFromPEM(ca); !ok {
		return nil, errors.New("failed to append ca certs")
	}

	creds := credentials.NewTLS(&tls.Config{
		ServerName:   serverName,
		Certificates: []tls.Certificate{certificate},
		RootCAs:      certPool,
	})
	return grpc.WithTransportCredentials(creds), nil
}

// MustDialOption panics if it receives an error
func MustDialOption(opt grpc.DialOption, err error) grpc.DialOption {
	if err != nil {
		panic(err)
	}
	return opt
}

// unaryInterceptor intercepts the execution of a unary RPC on the client.
//
// The journey identity is attached before the middleware chain runs, and
// the broadcast context is snapshotted after it, so middlewares that scope
// entries per attempt (e.g. retries) are captured on the wire
func (c *Client) unaryInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	next := invoker
	if c.PropagateContext {
		ctx = propagateJourney(ctx)
		next = c.embed(next)
	}

	// Build middleware chain and then call it
	for i := len(c.unaryMiddlewares) - 1; i >= 0; i-- {
		next = c.unaryMiddlewares[i](next)
	}
	return next(ctx, method, req, reply, cc, opts...)
}

// embed snapshots the broadcast context into the outbound metadata, right
// before the call leaves the process
func (c *Client) embed(next grpc.UnaryInvoker) grpc.UnaryInvoker {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		opts ...grpc.CallOption,
	) error {
		ctx, err := EmbedContext(ctx, c.Crypto)
		if err != nil {
			return err
		}
		return next(ctx, method, req, reply, cc, opts...)
	}
}

// UnaryClientMiddleware wraps the invocation of a unary RPC
type UnaryClientMiddleware func(grpc.UnaryInvoker) grpc.UnaryInvoker
