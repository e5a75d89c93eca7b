package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"careerarc/internal/logging"
	"careerarc/pkg/utils"
)

// requestIDKey is the metadata key callers may use to pass a request id
const requestIDKey = "x-request-id"

// LoggingInterceptor logs the outcome and duration of unary calls. Health
// probes succeed quietly at debug level.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(ctx, info.FullMethod, start, err)
		return resp, err
	}
}

// StreamLoggingInterceptor logs streaming calls when they end
func StreamLoggingInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(ss.Context(), info.FullMethod, start, err)
		return err
	}
}

func logCall(ctx context.Context, method string, start time.Time, err error) {
	logger := logging.GetGlobalLogger()
	fields := map[string]interface{}{
		"request_id":      incomingRequestID(ctx),
		"method":          method,
		"processing_time": time.Since(start).String(),
		"status_code":     statusCode(err).String(),
	}
	if err != nil {
		fields["error"] = err.Error()
		logger.Error("gRPC request failed", fields)
		return
	}
	logger.Debug("gRPC request completed", fields)
}

func incomingRequestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(requestIDKey); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return utils.GenerateRequestID()
}

func statusCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Internal
}
