package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDKey contextKey = "requestID"
	identityKey  contextKey = "identity"
)

// requestIdentity is filled in by RequireAuth so the access log can name the caller
type requestIdentity struct {
	userID int64
	role   domain.Role
}

func recordIdentity(ctx context.Context, userID int64, role domain.Role) {
	if id, ok := ctx.Value(identityKey).(*requestIdentity); ok {
		id.userID = userID
		id.role = role
	}
}

// RequestLogger tags every request with an id and logs one structured line
// per request: request_id, method, endpoint, status_code, duration_ms and,
// once authenticated, user_id and role.
func RequestLogger(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		identity := &requestIdentity{}
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = context.WithValue(ctx, identityKey, identity)

		next.ServeHTTP(recorder, r.WithContext(ctx))

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("endpoint", r.URL.Path),
			zap.Int("status_code", recorder.statusCode),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if identity.userID != 0 {
			fields = append(fields, zap.Int64("user_id", identity.userID), zap.String("role", string(identity.role)))
		}
		if recorder.statusCode >= http.StatusInternalServerError {
			logger.Error("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	})
}

// GetRequestID extracts the request id from request context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
