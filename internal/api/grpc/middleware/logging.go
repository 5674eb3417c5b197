package middleware

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/blogauth-server/internal/logger"
)

// Logging logs ops gRPC calls. Health probes are frequent and go to debug.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging interceptor.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// HandleGRPC is a unary server interceptor.
func (l *Logging) HandleGRPC(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	l.log(info.FullMethod, start, err)
	return resp, err
}

// HandleStream is a stream server interceptor.
func (l *Logging) HandleStream(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	l.log(info.FullMethod, start, err)
	return err
}

func (l *Logging) log(method string, start time.Time, err error) {
	code := codeOf(err)
	args := []any{
		"method", method,
		"duration_ms", time.Since(start).Milliseconds(),
		"status", code.String(),
	}

	switch {
	case err != nil && code != codes.Canceled:
		l.logger.Warn("Ops gRPC: call failed", append(args, "error", err.Error())...)
	case strings.HasPrefix(method, "/grpc.health.v1.Health/"):
		l.logger.Debug("Ops gRPC: call completed", args...)
	default:
		l.logger.Info("Ops gRPC: call completed", args...)
	}
}

func codeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	return codes.Internal
}
