package server

import (
	"context"
	"log/slog"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// RegistrationFunc registers a service on the server.
type RegistrationFunc func(*grpc.Server)

// NewGRPCServer builds a traced server with call logging, panic recovery and the standard
// health service, then applies every registration. Reflection is opt-in.
func NewGRPCServer(logger *slog.Logger, enableReflection bool, registrations ...RegistrationFunc) *grpc.Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			logging.UnaryServerInterceptor(InterceptorLogger(logger),
				logging.WithLogOnEvents(logging.FinishCall),
				logging.WithLevels(codeLevel),
			),
			recovery.UnaryServerInterceptor(recovery.WithRecoveryHandlerContext(func(ctx context.Context, p any) error {
				logger.ErrorContext(ctx, "Panic recovered in gRPC handler", "panic", p)
				return status.Error(codes.Internal, "internal error")
			})),
		),
	)

	healthpb.RegisterHealthServer(srv, health.NewServer())
	if enableReflection {
		reflection.Register(srv)
	}
	for _, register := range registrations {
		register(srv)
	}
	return srv
}

// codeLevel logs caller mistakes such as NotFound or FailedPrecondition at info and server faults at error.
func codeLevel(code codes.Code) logging.Level {
	switch code {
	case codes.OK, codes.Canceled, codes.InvalidArgument, codes.NotFound, codes.AlreadyExists,
		codes.FailedPrecondition, codes.OutOfRange:
		return logging.LevelInfo
	case codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Unavailable:
		return logging.LevelWarn
	default:
		return logging.LevelError
	}
}

// InterceptorLogger adapts slog to the go-grpc-middleware logging interface.
func InterceptorLogger(l *slog.Logger) logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		l.Log(ctx, slog.Level(lvl), msg, fields...)
	})
}
