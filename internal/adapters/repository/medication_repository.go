package repository

import (
	"context"
	"database/sql"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/lib/pq"
)

const medicationColumns = `m.id, m.elder_id, u.full_name, m.name, COALESCE(m.dosage, ''), COALESCE(m.frequency, ''),
	COALESCE(m.time, ''), COALESCE(m.instructions, ''), m.start_date, m.end_date, m.is_active, m.created_at`

const medicationFrom = ` FROM medications m
	JOIN elder_profiles e ON e.id = m.elder_id
	JOIN users u ON u.id = e.user_id`

func scanMedication(row interface{ Scan(...any) error }) (*domain.Medication, error) {
	var m domain.Medication
	var start, end sql.NullTime
	if err := row.Scan(&m.ID, &m.ElderID, &m.ElderName, &m.Name, &m.Dosage, &m.Frequency,
		&m.Time, &m.Instructions, &start, &end, &m.IsActive, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.StartDate = datePtr(start)
	m.EndDate = datePtr(end)
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

// MedicationRepository implementation

func (r *SQLRepository) CreateMedication(ctx context.Context, medication *domain.Medication) error {
	return mutate(ctx, r, r.careCB, func() error {
		return r.db.QueryRowContext(ctx,
			`INSERT INTO medications (elder_id, name, dosage, frequency, time, instructions, start_date, end_date, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
			medication.ElderID, medication.Name, nullString(medication.Dosage), nullString(medication.Frequency),
			nullString(medication.Time), nullString(medication.Instructions),
			nullDate(medication.StartDate), nullDate(medication.EndDate), medication.IsActive, medication.CreatedAt,
		).Scan(&medication.ID)
	})
}

func (r *SQLRepository) GetMedication(ctx context.Context, medicationID int64) (*domain.Medication, error) {
	return execute(ctx, r, r.careCB, func() (*domain.Medication, error) {
		return scanMedication(r.db.QueryRowContext(ctx,
			`SELECT `+medicationColumns+medicationFrom+` WHERE m.id = $1`, medicationID))
	})
}

func (r *SQLRepository) ListMedications(ctx context.Context, elderIDs []int64, includeInactive bool) ([]*domain.Medication, error) {
	return execute(ctx, r, r.careCB, func() ([]*domain.Medication, error) {
		rows, err := r.db.QueryContext(ctx,
			`SELECT `+medicationColumns+medicationFrom+`
			WHERE m.elder_id = ANY($1) AND ($2 OR m.is_active)
			ORDER BY m.created_at, m.id`,
			pq.Array(elderIDs), includeInactive)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		meds := []*domain.Medication{}
		for rows.Next() {
			m, err := scanMedication(rows)
			if err != nil {
				return nil, err
			}
			meds = append(meds, m)
		}
		return meds, rows.Err()
	})
}

func (r *SQLRepository) UpdateMedication(ctx context.Context, medication *domain.Medication) error {
	return mutate(ctx, r, r.careCB, func() error {
		res, err := r.db.ExecContext(ctx,
			`UPDATE medications SET name = $1, dosage = $2, frequency = $3, time = $4, instructions = $5, is_active = $6
			WHERE id = $7`,
			medication.Name, nullString(medication.Dosage), nullString(medication.Frequency),
			nullString(medication.Time), nullString(medication.Instructions), medication.IsActive, medication.ID)
		if err != nil {
			return err
		}
		return requireAffected(res, "medication")
	})
}

func (r *SQLRepository) ListMedicationLogs(ctx context.Context, medicationIDs []int64) ([]*domain.MedicationLog, error) {
	return execute(ctx, r, r.careCB, func() ([]*domain.MedicationLog, error) {
		rows, err := r.db.QueryContext(ctx,
			`SELECT id, medication_id, taken_at, status, COALESCE(notes, '')
			FROM medication_logs WHERE medication_id = ANY($1)
			ORDER BY taken_at, id`,
			pq.Array(medicationIDs))
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		logs := []*domain.MedicationLog{}
		for rows.Next() {
			var l domain.MedicationLog
			var status string
			if err := rows.Scan(&l.ID, &l.MedicationID, &l.TakenAt, &status, &l.Notes); err != nil {
				return nil, err
			}
			l.Status = domain.LogStatus(status)
			l.TakenAt = l.TakenAt.UTC()
			logs = append(logs, &l)
		}
		return logs, rows.Err()
	})
}

// LogMedication writes the log and its notification atomically
func (r *SQLRepository) LogMedication(ctx context.Context, log *domain.MedicationLog, notification *domain.Notification) error {
	return mutate(ctx, r, r.careCB, func() error {
		return r.withTx(ctx, func(tx *sql.Tx) error {
			err := tx.QueryRowContext(ctx,
				`INSERT INTO medication_logs (medication_id, taken_at, status, notes) VALUES ($1, $2, $3, $4) RETURNING id`,
				log.MedicationID, log.TakenAt, string(log.Status), nullString(log.Notes),
			).Scan(&log.ID)
			if err != nil {
				return err
			}
			if notification == nil {
				return nil
			}
			return insertNotification(ctx, tx, notification)
		})
	})
}

func insertNotification(ctx context.Context, tx *sql.Tx, n *domain.Notification) error {
	var elderID sql.NullInt64
	if n.ElderID != nil {
		elderID = sql.NullInt64{Int64: *n.ElderID, Valid: true}
	}
	return tx.QueryRowContext(ctx,
		`INSERT INTO notifications (elder_id, recipient_user_id, title, message, notification_type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		elderID, n.RecipientUserID, n.Title, n.Message, nullString(n.NotificationType), n.IsRead, n.CreatedAt,
	).Scan(&n.ID)
}
