package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Claims carried by access tokens. Subject is the numeric user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// cacheEntry stores verified claims keyed by JTI (JWT ID)
type cacheEntry struct {
	token  string
	claims *Claims
	exp    int64
}

// AuthMiddleware issues and validates HS256 access tokens and resolves the
// caller behind them. Verified claims are cached by JTI.
type AuthMiddleware struct {
	secret   []byte
	ttl      time.Duration
	resolver ports.ScopeResolver
	logger   *zap.Logger
	// L1 cache: in-memory cache keyed by JTI for fast lookups
	cache sync.Map
	// Background janitor for cache cleanup
	janitorStop chan bool
	stopOnce    sync.Once
}

const CacheCleanupInterval = 10 * time.Minute

var _ ports.TokenIssuer = (*AuthMiddleware)(nil)

// NewAuthMiddleware creates a new JWT authentication middleware
func NewAuthMiddleware(secret string, ttl time.Duration, resolver ports.ScopeResolver, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &AuthMiddleware{
		secret:      []byte(secret),
		ttl:         ttl,
		resolver:    resolver,
		logger:      logger,
		janitorStop: make(chan bool),
	}

	go m.startJanitor(CacheCleanupInterval)

	return m
}

// Context keys for storing user information
type contextKey string

const (
	UserIDKey contextKey = "userID"
	CallerKey contextKey = "caller"
)

var (
	ErrTokenMissing = errors.New("Authorization token is missing")
	ErrTokenExpired = errors.New("Token has expired")
)

// IssueToken signs an access token for user
func (m *AuthMiddleware) IssueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(user.UserType),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken verifies the signature and expiry. Expired tokens return
// ErrTokenExpired; every other failure is returned as is.
func (m *AuthMiddleware) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	// Peek at the JTI without verifying the signature; a hit must match the exact token
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err == nil && claims.ID != "" {
		if entry, ok := m.cache.Load(claims.ID); ok {
			cached := entry.(cacheEntry)
			if cached.token == tokenString {
				if time.Now().Unix() < cached.exp {
					return cached.claims, nil
				}
				m.cache.Delete(claims.ID)
				return nil, ErrTokenExpired
			}
		}
	}

	verified := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, verified, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if verified.ID != "" {
		m.cache.Store(verified.ID, cacheEntry{token: tokenString, claims: verified, exp: verified.ExpiresAt.Unix()})
	}
	return verified, nil
}

// Authenticate validates a token and returns the user id and role it carries
func (m *AuthMiddleware) Authenticate(tokenString string) (int64, domain.Role, error) {
	if tokenString == "" {
		return 0, "", ErrTokenMissing
	}
	claims, err := m.ParseToken(tokenString)
	if err != nil {
		return 0, "", err
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, "", errors.New("missing or invalid user ID claim")
	}
	role := domain.Role(claims.Role)
	if !role.Valid() {
		return 0, "", errors.New("missing or invalid role claim")
	}
	return userID, role, nil
}

// BearerToken extracts the token from the Authorization header
func BearerToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return ""
	}
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// WriteAuthError answers an authentication failure:
// missing and expired tokens are 401, anything else 422
func WriteAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTokenMissing):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": ErrTokenMissing.Error()})
	case errors.Is(err, ErrTokenExpired):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": ErrTokenExpired.Error()})
	default:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Invalid token", "message": err.Error()})
	}
}

// RequireAuth validates the bearer token and adds the user id to the context
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, err := m.Authenticate(BearerToken(r))
		if err != nil {
			m.logger.Debug("token validation failed", zap.String("endpoint", r.URL.Path), zap.Error(err))
			WriteAuthError(w, err)
			return
		}

		recordIdentity(r.Context(), userID, role)
		next(w, r.WithContext(context.WithValue(r.Context(), UserIDKey, userID)))
	}
}

// RequireCaller authenticates the request and resolves the caller's elder scope
func (m *AuthMiddleware) RequireCaller(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := GetUserID(r.Context())
		caller, err := m.resolver.ResolveCaller(r.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidRole) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
				return
			}
			m.logger.Error("failed to resolve caller", zap.Int64("user_id", userID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		next(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// startJanitor periodically cleans up expired cache entries
func (m *AuthMiddleware) startJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now().Unix()
			deleted := 0
			m.cache.Range(func(key, value interface{}) bool {
				if entry, ok := value.(cacheEntry); ok && now >= entry.exp {
					m.cache.Delete(key)
					deleted++
				}
				return true
			})
			if deleted > 0 {
				m.logger.Debug("token cache janitor purged expired entries", zap.Int("deleted", deleted))
			}
		case <-m.janitorStop:
			return
		}
	}
}

// Stop stops the background janitor (for graceful shutdown)
func (m *AuthMiddleware) Stop() {
	m.stopOnce.Do(func() { close(m.janitorStop) })
}

// WithCaller stores the resolved caller in ctx
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// GetCaller extracts the resolved caller from request context
func GetCaller(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(domain.Caller)
	return caller, ok
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
