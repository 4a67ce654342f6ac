package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// schema is applied in order on startup. Every statement is idempotent so
// restarts never touch existing data.
var schema = []struct {
	name string
	ddl  string
}{
	{"users", `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL,
		phone TEXT,
		user_type TEXT NOT NULL CHECK (user_type IN ('elder', 'caretaker')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`},
	{"elder_profiles", `
	CREATE TABLE IF NOT EXISTS elder_profiles (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL UNIQUE REFERENCES users(id),
		caretaker_id BIGINT REFERENCES users(id),
		date_of_birth DATE,
		address TEXT,
		emergency_contact TEXT,
		medical_conditions TEXT
	)`},
	{"caretaker_profiles", `
	CREATE TABLE IF NOT EXISTS caretaker_profiles (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL UNIQUE REFERENCES users(id),
		specialization TEXT,
		experience_years INTEGER,
		certification TEXT
	)`},
	{"medications", `
	CREATE TABLE IF NOT EXISTS medications (
		id BIGSERIAL PRIMARY KEY,
		elder_id BIGINT NOT NULL REFERENCES elder_profiles(id),
		name TEXT NOT NULL,
		dosage TEXT,
		frequency TEXT,
		time TEXT,
		instructions TEXT,
		start_date DATE,
		end_date DATE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`},
	{"medication_logs", `
	CREATE TABLE IF NOT EXISTS medication_logs (
		id BIGSERIAL PRIMARY KEY,
		medication_id BIGINT NOT NULL REFERENCES medications(id),
		taken_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		status TEXT NOT NULL CHECK (status IN ('taken', 'missed', 'skipped')),
		notes TEXT
	)`},
	{"health_records", `
	CREATE TABLE IF NOT EXISTS health_records (
		id BIGSERIAL PRIMARY KEY,
		elder_id BIGINT NOT NULL REFERENCES elder_profiles(id),
		record_type TEXT NOT NULL,
		value TEXT NOT NULL,
		unit TEXT,
		notes TEXT,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`},
	{"meals", `
	CREATE TABLE IF NOT EXISTS meals (
		id BIGSERIAL PRIMARY KEY,
		elder_id BIGINT NOT NULL REFERENCES elder_profiles(id),
		meal_type TEXT,
		meal_name TEXT,
		calories INTEGER,
		protein DOUBLE PRECISION,
		carbs DOUBLE PRECISION,
		fats DOUBLE PRECISION,
		consumed BOOLEAN NOT NULL DEFAULT FALSE,
		consumed_at TIMESTAMPTZ,
		scheduled_time TIMESTAMPTZ,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`},
	{"appointments", `
	CREATE TABLE IF NOT EXISTS appointments (
		id BIGSERIAL PRIMARY KEY,
		elder_id BIGINT NOT NULL REFERENCES elder_profiles(id),
		title TEXT NOT NULL,
		doctor_name TEXT,
		location TEXT,
		appointment_date TIMESTAMPTZ NOT NULL,
		duration_minutes INTEGER NOT NULL DEFAULT 30,
		status TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'completed', 'cancelled')),
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`},
	{"emergency_contacts", `
	CREATE TABLE IF NOT EXISTS emergency_contacts (
		id BIGSERIAL PRIMARY KEY,
		elder_id BIGINT NOT NULL REFERENCES elder_profiles(id),
		name TEXT NOT NULL,
		relationship TEXT,
		phone TEXT NOT NULL,
		email TEXT,
		is_primary BOOLEAN NOT NULL DEFAULT FALSE
	)`},
	{"notifications", `
	CREATE TABLE IF NOT EXISTS notifications (
		id BIGSERIAL PRIMARY KEY,
		elder_id BIGINT REFERENCES elder_profiles(id),
		recipient_user_id BIGINT NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		notification_type TEXT,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`},
	{"location_logs", `
	CREATE TABLE IF NOT EXISTS location_logs (
		id BIGSERIAL PRIMARY KEY,
		elder_id BIGINT NOT NULL REFERENCES elder_profiles(id),
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		accuracy DOUBLE PRECISION,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`},
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_elder_profiles_caretaker_id ON elder_profiles(caretaker_id)",
	"CREATE INDEX IF NOT EXISTS idx_medications_elder_id ON medications(elder_id)",
	"CREATE INDEX IF NOT EXISTS idx_medication_logs_medication_id ON medication_logs(medication_id, taken_at)",
	"CREATE INDEX IF NOT EXISTS idx_health_records_elder_id ON health_records(elder_id, recorded_at)",
	"CREATE INDEX IF NOT EXISTS idx_meals_elder_id ON meals(elder_id)",
	"CREATE INDEX IF NOT EXISTS idx_appointments_elder_id ON appointments(elder_id, appointment_date)",
	"CREATE INDEX IF NOT EXISTS idx_emergency_contacts_elder_id ON emergency_contacts(elder_id)",
	"CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_user_id, created_at)",
	"CREATE INDEX IF NOT EXISTS idx_location_logs_elder_id ON location_logs(elder_id, recorded_at)",
}

// InitDatabase creates missing tables and indexes
func InitDatabase(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	for _, table := range schema {
		if _, err := db.ExecContext(ctx, table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			logger.Warn("failed to create index", zap.String("statement", indexSQL), zap.Error(err))
		}
	}

	logger.Info("database schema initialized", zap.Int("tables", len(schema)))
	return nil
}

// ConnectDatabase establishes a connection to PostgreSQL with retry logic
func ConnectDatabase(databaseURL string, maxRetries int, retryDelay time.Duration, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			logger.Warn("failed to open database connection",
				zap.Int("attempt", i+1), zap.Int("max_attempts", maxRetries), zap.Error(err))
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
		}

		if err = db.Ping(); err != nil {
			logger.Warn("failed to ping database",
				zap.Int("attempt", i+1), zap.Int("max_attempts", maxRetries), zap.Error(err))
			db.Close()
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to ping database after %d attempts: %w", maxRetries, err)
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		logger.Info("database connection established")
		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database: %w", err)
}
