// Package interceptors provides the unary client interceptors of the inventory client:
// per-call timeout, retry of transient failures and a circuit breaker.
package interceptors

import (
	"context"
	"time"

	"github.com/abgdnv/storemanager/pkg/config"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// transientCodes are retried and count against the breaker. NotFound and other
// answers about the data itself are neither.
var transientCodes = []codes.Code{codes.Unavailable, codes.ResourceExhausted, codes.Aborted}

// IsTransient reports whether err is worth retrying. Errors without a gRPC status are.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return true
	}
	for _, c := range transientCodes {
		if st.Code() == c {
			return true
		}
	}
	return false
}

// Chain installs retry, breaker and timeout in that order: every retry attempt
// passes the breaker and gets its own deadline.
func Chain(name string, client config.GrpcClientConfig, res config.ResilienceConfig) grpc.DialOption {
	return grpc.WithChainUnaryInterceptor(
		NewRetryInterceptor(res.Retry),
		NewCircuitBreaker(name, res.CircuitBreaker),
		NewTimeoutInterceptor(client.Timeout),
	)
}

func NewRetryInterceptor(cfg config.RetryConfig) grpc.UnaryClientInterceptor {
	return retry.UnaryClientInterceptor(
		retry.WithCodes(transientCodes...),
		retry.WithMax(cfg.MaxAttempts),
		retry.WithBackoff(retry.BackoffExponential(cfg.InitialBackoff)),
	)
}

// NewCircuitBreaker opens after more than ConsecutiveFailures transient failures in a row,
// or when the transient failure rate exceeds ErrorRatePercent over more than
// ConsecutiveFailures calls.
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig) grpc.UnaryClientInterceptor {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures > cfg.ConsecutiveFailures {
				return true
			}
			total := counts.TotalSuccesses + counts.TotalFailures
			if cfg.ErrorRatePercent == 0 || total <= cfg.ConsecutiveFailures {
				return false
			}
			return float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent)
		},
		IsSuccessful: func(err error) bool { return !IsTransient(err) },
	})
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		_, err := cb.Execute(func() (struct{}, error) {
			return struct{}{}, invoker(ctx, method, req, reply, cc, opts...)
		})
		return err
	}
}

// NewTimeoutInterceptor bounds every unary call with timeout.
func NewTimeoutInterceptor(timeout time.Duration) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return invoker(callCtx, method, req, reply, cc, opts...)
	}
}
