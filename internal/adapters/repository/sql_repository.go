package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/lib/pq"
	"github.com/sony/gobreaker"
)

// SQLRepository implements every persistence port on PostgreSQL.
// Includes retry logic and circuit breakers for resilience.
type SQLRepository struct {
	db         *sql.DB
	identityCB *gobreaker.CircuitBreaker
	careCB     *gobreaker.CircuitBreaker
	maxRetries int
	retryDelay time.Duration
}

var (
	_ ports.UserRepository             = (*SQLRepository)(nil)
	_ ports.MedicationRepository       = (*SQLRepository)(nil)
	_ ports.HealthRecordRepository     = (*SQLRepository)(nil)
	_ ports.MealRepository             = (*SQLRepository)(nil)
	_ ports.AppointmentRepository      = (*SQLRepository)(nil)
	_ ports.EmergencyContactRepository = (*SQLRepository)(nil)
	_ ports.NotificationRepository     = (*SQLRepository)(nil)
	_ ports.LocationRepository         = (*SQLRepository)(nil)
)

// Option tweaks an SQLRepository
type Option func(*SQLRepository)

// WithRetry sets how often transient failures are retried and the pause between attempts
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(r *SQLRepository) {
		if maxRetries < 1 {
			maxRetries = 1
		}
		r.maxRetries = maxRetries
		r.retryDelay = delay
	}
}

// NewSQLRepository creates a new PostgreSQL repository with circuit breakers.
// Identity lookups and care records trip independently.
func NewSQLRepository(db *sql.DB, settings gobreaker.Settings, opts ...Option) *SQLRepository {
	identity := settings
	identity.Name = settings.Name + "-identity"
	care := settings
	care.Name = settings.Name + "-care"

	r := &SQLRepository{
		db:         db,
		identityCB: gobreaker.NewCircuitBreaker(identity),
		careCB:     gobreaker.NewCircuitBreaker(care),
		maxRetries: 3,
		retryDelay: 1 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// execute runs a read behind the breaker with retries for transient errors.
// Expected outcomes (no rows, constraint violations) do not count as breaker failures.
func execute[T any](ctx context.Context, r *SQLRepository, cb *gobreaker.CircuitBreaker, operation func() (T, error)) (T, error) {
	return guarded(ctx, r, cb, r.maxRetries, operation)
}

// mutate runs a write behind the breaker exactly once. Writes are never replayed.
func mutate(ctx context.Context, r *SQLRepository, cb *gobreaker.CircuitBreaker, operation func() error) error {
	_, err := guarded(ctx, r, cb, 1, func() (struct{}, error) {
		return struct{}{}, operation()
	})
	return err
}

func guarded[T any](ctx context.Context, r *SQLRepository, cb *gobreaker.CircuitBreaker, attempts int, operation func() (T, error)) (T, error) {
	var result T
	var opErr error
	_, err := cb.Execute(func() (interface{}, error) {
		opErr = r.executeWithRetry(ctx, attempts, func() error {
			var err error
			result, err = operation()
			return err
		})
		if opErr != nil && !isExpected(opErr) {
			return nil, opErr
		}
		return nil, nil
	})
	if err != nil {
		var zero T
		return zero, translate(err)
	}
	if opErr != nil {
		var zero T
		return zero, translate(opErr)
	}
	return result, nil
}

// executeWithRetry executes a database operation, retrying only on lost connections
func (r *SQLRepository) executeWithRetry(ctx context.Context, attempts int, operation func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTransient(err) || attempts == 1 {
			return err
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}
	}
	return fmt.Errorf("operation failed after %d attempts: %w", attempts, lastErr)
}

// withTx runs fn in a transaction, rolling back on any error
func (r *SQLRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 08: connection exception
		return strings.HasPrefix(string(pqErr.Code), "08")
	}
	return false
}

func isExpected(err error) bool {
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 23: integrity constraint violation
		return strings.HasPrefix(string(pqErr.Code), "23")
	}
	return false
}

// translate maps driver errors onto domain error kinds
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: record not found", domain.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Message)
		case "foreign_key_violation":
			return fmt.Errorf("%w: referenced record not found", domain.ErrNotFound)
		case "check_violation", "not_null_violation":
			return fmt.Errorf("%w: %s", domain.ErrValidation, pqErr.Message)
		}
	}
	return err
}

// nullString stores empty strings as NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullDate(d *domain.Date) sql.NullTime {
	if d == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.Time, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func datePtr(nt sql.NullTime) *domain.Date {
	if !nt.Valid {
		return nil
	}
	return &domain.Date{Time: nt.Time.UTC()}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func float64Ptr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
