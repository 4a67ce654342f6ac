package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/lib/pq"
)

// HealthRecordRepository implementation

func (r *SQLRepository) CreateHealthRecord(ctx context.Context, record *domain.HealthRecord) error {
	return mutate(ctx, r, r.careCB, func() error {
		return r.db.QueryRowContext(ctx,
			`INSERT INTO health_records (elder_id, record_type, value, unit, notes, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			record.ElderID, record.RecordType, record.Value, nullString(record.Unit), nullString(record.Notes), record.RecordedAt,
		).Scan(&record.ID)
	})
}

func (r *SQLRepository) ListHealthRecords(ctx context.Context, filter ports.HealthRecordFilter) ([]*domain.HealthRecord, error) {
	return execute(ctx, r, r.careCB, func() ([]*domain.HealthRecord, error) {
		rows, err := r.db.QueryContext(ctx,
			`SELECT id, elder_id, record_type, value, COALESCE(unit, ''), COALESCE(notes, ''), recorded_at
			FROM health_records
			WHERE elder_id = ANY($1) AND ($2 = '' OR record_type = $2) AND recorded_at >= $3
			ORDER BY recorded_at DESC, id DESC`,
			pq.Array(filter.ElderIDs), filter.RecordType, filter.Since)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		records := []*domain.HealthRecord{}
		for rows.Next() {
			var h domain.HealthRecord
			if err := rows.Scan(&h.ID, &h.ElderID, &h.RecordType, &h.Value, &h.Unit, &h.Notes, &h.RecordedAt); err != nil {
				return nil, err
			}
			h.RecordedAt = h.RecordedAt.UTC()
			records = append(records, &h)
		}
		return records, rows.Err()
	})
}

// MealRepository implementation

const mealColumns = `id, elder_id, COALESCE(meal_type, ''), COALESCE(meal_name, ''), calories, protein, carbs, fats,
	consumed, consumed_at, scheduled_time, COALESCE(notes, ''), created_at`

func scanMeal(row interface{ Scan(...any) error }) (*domain.Meal, error) {
	var m domain.Meal
	var calories sql.NullInt64
	var protein, carbs, fats sql.NullFloat64
	var consumedAt, scheduled sql.NullTime
	if err := row.Scan(&m.ID, &m.ElderID, &m.MealType, &m.MealName, &calories, &protein, &carbs, &fats,
		&m.Consumed, &consumedAt, &scheduled, &m.Notes, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Calories = intPtr(calories)
	m.Protein = float64Ptr(protein)
	m.Carbs = float64Ptr(carbs)
	m.Fats = float64Ptr(fats)
	m.ConsumedAt = timePtr(consumedAt)
	m.ScheduledTime = timePtr(scheduled)
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

func (r *SQLRepository) CreateMeal(ctx context.Context, meal *domain.Meal) error {
	return mutate(ctx, r, r.careCB, func() error {
		var calories sql.NullInt64
		if meal.Calories != nil {
			calories = sql.NullInt64{Int64: int64(*meal.Calories), Valid: true}
		}
		return r.db.QueryRowContext(ctx,
			`INSERT INTO meals (elder_id, meal_type, meal_name, calories, protein, carbs, fats, consumed, scheduled_time, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
			meal.ElderID, nullString(meal.MealType), nullString(meal.MealName), calories,
			meal.Protein, meal.Carbs, meal.Fats, meal.Consumed, nullTime(meal.ScheduledTime),
			nullString(meal.Notes), meal.CreatedAt,
		).Scan(&meal.ID)
	})
}

func (r *SQLRepository) GetMeal(ctx context.Context, mealID int64) (*domain.Meal, error) {
	return execute(ctx, r, r.careCB, func() (*domain.Meal, error) {
		return scanMeal(r.db.QueryRowContext(ctx, `SELECT `+mealColumns+` FROM meals WHERE id = $1`, mealID))
	})
}

func (r *SQLRepository) ListMeals(ctx context.Context, elderIDs []int64, date *time.Time) ([]*domain.Meal, error) {
	return execute(ctx, r, r.careCB, func() ([]*domain.Meal, error) {
		var day sql.NullTime
		if date != nil {
			day = sql.NullTime{Time: *date, Valid: true}
		}
		rows, err := r.db.QueryContext(ctx,
			`SELECT `+mealColumns+` FROM meals
			WHERE elder_id = ANY($1) AND ($2::date IS NULL OR (created_at AT TIME ZONE 'UTC')::date = $2::date)
			ORDER BY scheduled_time DESC NULLS LAST, id DESC`,
			pq.Array(elderIDs), day)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		meals := []*domain.Meal{}
		for rows.Next() {
			m, err := scanMeal(rows)
			if err != nil {
				return nil, err
			}
			meals = append(meals, m)
		}
		return meals, rows.Err()
	})
}

func (r *SQLRepository) ConsumeMeal(ctx context.Context, mealID int64, consumedAt time.Time) error {
	return mutate(ctx, r, r.careCB, func() error {
		res, err := r.db.ExecContext(ctx, `UPDATE meals SET consumed = TRUE, consumed_at = $1 WHERE id = $2`, consumedAt, mealID)
		if err != nil {
			return err
		}
		return requireAffected(res, "meal")
	})
}

// AppointmentRepository implementation

const appointmentColumns = `a.id, a.elder_id, u.full_name, a.title, COALESCE(a.doctor_name, ''), COALESCE(a.location, ''),
	a.appointment_date, a.duration_minutes, a.status, COALESCE(a.notes, ''), a.created_at`

const appointmentFrom = ` FROM appointments a
	JOIN elder_profiles e ON e.id = a.elder_id
	JOIN users u ON u.id = e.user_id`

func scanAppointment(row interface{ Scan(...any) error }) (*domain.Appointment, error) {
	var a domain.Appointment
	var status string
	if err := row.Scan(&a.ID, &a.ElderID, &a.ElderName, &a.Title, &a.DoctorName, &a.Location,
		&a.AppointmentDate, &a.DurationMinutes, &status, &a.Notes, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Status = domain.AppointmentStatus(status)
	a.AppointmentDate = a.AppointmentDate.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func (r *SQLRepository) CreateAppointment(ctx context.Context, appointment *domain.Appointment) error {
	return mutate(ctx, r, r.careCB, func() error {
		return r.db.QueryRowContext(ctx,
			`INSERT INTO appointments (elder_id, title, doctor_name, location, appointment_date, duration_minutes, status, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
			appointment.ElderID, appointment.Title, nullString(appointment.DoctorName), nullString(appointment.Location),
			appointment.AppointmentDate, appointment.DurationMinutes, string(appointment.Status),
			nullString(appointment.Notes), appointment.CreatedAt,
		).Scan(&appointment.ID)
	})
}

func (r *SQLRepository) GetAppointment(ctx context.Context, appointmentID int64) (*domain.Appointment, error) {
	return execute(ctx, r, r.careCB, func() (*domain.Appointment, error) {
		return scanAppointment(r.db.QueryRowContext(ctx,
			`SELECT `+appointmentColumns+appointmentFrom+` WHERE a.id = $1`, appointmentID))
	})
}

func (r *SQLRepository) ListAppointments(ctx context.Context, elderIDs []int64) ([]*domain.Appointment, error) {
	return execute(ctx, r, r.careCB, func() ([]*domain.Appointment, error) {
		rows, err := r.db.QueryContext(ctx,
			`SELECT `+appointmentColumns+appointmentFrom+`
			WHERE a.elder_id = ANY($1) ORDER BY a.appointment_date, a.id`,
			pq.Array(elderIDs))
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		appts := []*domain.Appointment{}
		for rows.Next() {
			a, err := scanAppointment(rows)
			if err != nil {
				return nil, err
			}
			appts = append(appts, a)
		}
		return appts, rows.Err()
	})
}

func (r *SQLRepository) UpdateAppointmentStatus(ctx context.Context, appointmentID int64, status domain.AppointmentStatus) error {
	return mutate(ctx, r, r.careCB, func() error {
		res, err := r.db.ExecContext(ctx, `UPDATE appointments SET status = $1 WHERE id = $2`, string(status), appointmentID)
		if err != nil {
			return err
		}
		return requireAffected(res, "appointment")
	})
}

// EmergencyContactRepository implementation

func (r *SQLRepository) CreateEmergencyContact(ctx context.Context, contact *domain.EmergencyContact) error {
	return mutate(ctx, r, r.careCB, func() error {
		return r.db.QueryRowContext(ctx,
			`INSERT INTO emergency_contacts (elder_id, name, relationship, phone, email, is_primary)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			contact.ElderID, contact.Name, nullString(contact.Relationship), contact.Phone,
			nullString(contact.Email), contact.IsPrimary,
		).Scan(&contact.ID)
	})
}

func (r *SQLRepository) ListEmergencyContacts(ctx context.Context, elderIDs []int64) ([]*domain.EmergencyContact, error) {
	return execute(ctx, r, r.careCB, func() ([]*domain.EmergencyContact, error) {
		rows, err := r.db.QueryContext(ctx,
			`SELECT id, elder_id, name, COALESCE(relationship, ''), phone, COALESCE(email, ''), is_primary
			FROM emergency_contacts WHERE elder_id = ANY($1)
			ORDER BY is_primary DESC, id`,
			pq.Array(elderIDs))
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		contacts := []*domain.EmergencyContact{}
		for rows.Next() {
			var c domain.EmergencyContact
			if err := rows.Scan(&c.ID, &c.ElderID, &c.Name, &c.Relationship, &c.Phone, &c.Email, &c.IsPrimary); err != nil {
				return nil, err
			}
			contacts = append(contacts, &c)
		}
		return contacts, rows.Err()
	})
}

// NotificationRepository implementation

const notificationColumns = `id, elder_id, recipient_user_id, title, message, COALESCE(notification_type, ''), is_read, created_at`

func scanNotification(row interface{ Scan(...any) error }) (*domain.Notification, error) {
	var n domain.Notification
	var elderID sql.NullInt64
	if err := row.Scan(&n.ID, &elderID, &n.RecipientUserID, &n.Title, &n.Message,
		&n.NotificationType, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.ElderID = int64Ptr(elderID)
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

func (r *SQLRepository) ListNotifications(ctx context.Context, recipientUserID int64, limit int) ([]*domain.Notification, error) {
	return execute(ctx, r, r.careCB, func() ([]*domain.Notification, error) {
		rows, err := r.db.QueryContext(ctx,
			`SELECT `+notificationColumns+` FROM notifications
			WHERE recipient_user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
			recipientUserID, limit)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		notifications := []*domain.Notification{}
		for rows.Next() {
			n, err := scanNotification(rows)
			if err != nil {
				return nil, err
			}
			notifications = append(notifications, n)
		}
		return notifications, rows.Err()
	})
}

func (r *SQLRepository) GetNotification(ctx context.Context, notificationID int64) (*domain.Notification, error) {
	return execute(ctx, r, r.careCB, func() (*domain.Notification, error) {
		return scanNotification(r.db.QueryRowContext(ctx,
			`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, notificationID))
	})
}

func (r *SQLRepository) MarkNotificationRead(ctx context.Context, notificationID int64) error {
	return mutate(ctx, r, r.careCB, func() error {
		res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, notificationID)
		if err != nil {
			return err
		}
		return requireAffected(res, "notification")
	})
}

// LocationRepository implementation

func (r *SQLRepository) CreateLocation(ctx context.Context, location *domain.LocationLog) error {
	return mutate(ctx, r, r.careCB, func() error {
		return r.db.QueryRowContext(ctx,
			`INSERT INTO location_logs (elder_id, latitude, longitude, accuracy, recorded_at)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			location.ElderID, location.Latitude, location.Longitude, location.Accuracy, location.RecordedAt,
		).Scan(&location.ID)
	})
}

func (r *SQLRepository) LatestLocation(ctx context.Context, elderID int64) (*domain.LocationLog, error) {
	return execute(ctx, r, r.careCB, func() (*domain.LocationLog, error) {
		var l domain.LocationLog
		var accuracy sql.NullFloat64
		err := r.db.QueryRowContext(ctx,
			`SELECT id, elder_id, latitude, longitude, accuracy, recorded_at
			FROM location_logs WHERE elder_id = $1
			ORDER BY recorded_at DESC, id DESC LIMIT 1`, elderID,
		).Scan(&l.ID, &l.ElderID, &l.Latitude, &l.Longitude, &accuracy, &l.RecordedAt)
		if err != nil {
			return nil, err
		}
		l.Accuracy = float64Ptr(accuracy)
		l.RecordedAt = l.RecordedAt.UTC()
		return &l, nil
	})
}
