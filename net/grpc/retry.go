package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/stairlin/relay/retry"
)

// WithRetries returns a client middleware that retries failed calls
// according to the given policy.
//
// Each attempt scopes its 0-based attempt number on the broadcast context,
// so the callee knows how many times the call was tried before. A client
// without this middleware sends no attempt number at all
func WithRetries(p retry.Policy) UnaryClientMiddleware {
	return func(next grpc.UnaryInvoker) grpc.UnaryInvoker {
		return func(
			ctx context.Context,
			method string,
			req, reply interface{},
			cc *grpc.ClientConn,
			opts ...grpc.CallOption,
		) error {
			return retry.Do(ctx, p, func(ctx context.Context) error {
				return next(ctx, method, req, reply, cc, opts...)
			})
		}
	}
}

// RetryableCodes builds a policy predicate that retries only the given
// gRPC codes
func RetryableCodes(retryable ...codes.Code) func(err error) bool {
	return func(err error) bool {
		c := status.Code(err)
		for _, rc := range retryable {
			if c == rc {
				return true
			}
		}
		return false
	}
}
