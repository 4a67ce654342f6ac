package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
)

const userColumns = `id, email, password_hash, full_name, COALESCE(phone, ''), user_type, created_at`

const elderProfileColumns = `e.id, e.user_id, e.caretaker_id, e.date_of_birth,
	COALESCE(e.address, ''), COALESCE(e.emergency_contact, ''), COALESCE(e.medical_conditions, ''),
	u.full_name`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.UserType = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func scanElderProfile(row interface{ Scan(...any) error }) (*domain.ElderProfile, error) {
	var p domain.ElderProfile
	var caretakerID sql.NullInt64
	var dob sql.NullTime
	if err := row.Scan(&p.ID, &p.UserID, &caretakerID, &dob,
		&p.Address, &p.EmergencyContact, &p.MedicalConditions, &p.FullName); err != nil {
		return nil, err
	}
	p.CaretakerID = int64Ptr(caretakerID)
	p.DateOfBirth = timePtr(dob)
	return &p, nil
}

// UserRepository implementation

func (r *SQLRepository) CreateUser(ctx context.Context, user *domain.User) error {
	return mutate(ctx, r, r.identityCB, func() error {
		return r.withTx(ctx, func(tx *sql.Tx) error {
			err := tx.QueryRowContext(ctx,
				`INSERT INTO users (email, password_hash, full_name, phone, user_type, created_at)
				VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
				user.Email, user.PasswordHash, user.FullName, nullString(user.Phone), string(user.UserType), user.CreatedAt,
			).Scan(&user.ID)
			if err != nil {
				return err
			}

			switch user.UserType {
			case domain.RoleElder:
				_, err = tx.ExecContext(ctx, `INSERT INTO elder_profiles (user_id) VALUES ($1)`, user.ID)
			case domain.RoleCaretaker:
				_, err = tx.ExecContext(ctx, `INSERT INTO caretaker_profiles (user_id) VALUES ($1)`, user.ID)
			default:
				err = fmt.Errorf("%w: unknown user type %q", domain.ErrValidation, user.UserType)
			}
			return err
		})
	})
}

func (r *SQLRepository) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	return execute(ctx, r, r.identityCB, func() (*domain.User, error) {
		return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	})
}

func (r *SQLRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return execute(ctx, r, r.identityCB, func() (*domain.User, error) {
		return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	})
}

func (r *SQLRepository) GetCaretakerByEmail(ctx context.Context, email string) (*domain.User, error) {
	return execute(ctx, r, r.identityCB, func() (*domain.User, error) {
		return scanUser(r.db.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1 AND user_type = 'caretaker'`, email))
	})
}

func (r *SQLRepository) GetElderProfileByUserID(ctx context.Context, userID int64) (*domain.ElderProfile, error) {
	return execute(ctx, r, r.identityCB, func() (*domain.ElderProfile, error) {
		return scanElderProfile(r.db.QueryRowContext(ctx,
			`SELECT `+elderProfileColumns+` FROM elder_profiles e JOIN users u ON u.id = e.user_id WHERE e.user_id = $1`, userID))
	})
}

func (r *SQLRepository) GetElderProfile(ctx context.Context, elderID int64) (*domain.ElderProfile, error) {
	return execute(ctx, r, r.identityCB, func() (*domain.ElderProfile, error) {
		return scanElderProfile(r.db.QueryRowContext(ctx,
			`SELECT `+elderProfileColumns+` FROM elder_profiles e JOIN users u ON u.id = e.user_id WHERE e.id = $1`, elderID))
	})
}

func (r *SQLRepository) GetCaretakerProfileByUserID(ctx context.Context, userID int64) (*domain.CaretakerProfile, error) {
	return execute(ctx, r, r.identityCB, func() (*domain.CaretakerProfile, error) {
		var p domain.CaretakerProfile
		var years sql.NullInt64
		err := r.db.QueryRowContext(ctx,
			`SELECT id, user_id, COALESCE(specialization, ''), experience_years, COALESCE(certification, '')
			FROM caretaker_profiles WHERE user_id = $1`, userID,
		).Scan(&p.ID, &p.UserID, &p.Specialization, &years, &p.Certification)
		if err != nil {
			return nil, err
		}
		p.ExperienceYears = intPtr(years)
		return &p, nil
	})
}

func (r *SQLRepository) ListElderProfilesByCaretaker(ctx context.Context, caretakerUserID int64) ([]*domain.ElderProfile, error) {
	return execute(ctx, r, r.identityCB, func() ([]*domain.ElderProfile, error) {
		rows, err := r.db.QueryContext(ctx,
			`SELECT `+elderProfileColumns+` FROM elder_profiles e JOIN users u ON u.id = e.user_id
			WHERE e.caretaker_id = $1 ORDER BY e.id`, caretakerUserID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		profiles := []*domain.ElderProfile{}
		for rows.Next() {
			p, err := scanElderProfile(rows)
			if err != nil {
				return nil, err
			}
			profiles = append(profiles, p)
		}
		return profiles, rows.Err()
	})
}

func (r *SQLRepository) LinkCaretaker(ctx context.Context, elderID int64, caretakerUserID int64) error {
	return mutate(ctx, r, r.identityCB, func() error {
		res, err := r.db.ExecContext(ctx, `UPDATE elder_profiles SET caretaker_id = $1 WHERE id = $2`, caretakerUserID, elderID)
		if err != nil {
			return err
		}
		return requireAffected(res, "elder profile")
	})
}

// requireAffected turns an update that touched nothing into ErrNotFound
func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s not found", domain.ErrNotFound, what)
	}
	return nil
}
