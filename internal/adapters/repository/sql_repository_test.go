package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/lib/pq"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewSQLRepository(db, gobreaker.Settings{Name: "test"}, WithRetry(2, time.Millisecond))
	return repo, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestCreateUser_InsertsUserAndProfileInOneTx(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO users")).
		WithArgs("alice@example.com", "hash", "Alice", sqlmock.AnyArg(), "elder", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectExec(q("INSERT INTO elder_profiles (user_id) VALUES ($1)")).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &domain.User{Email: "alice@example.com", PasswordHash: "hash", FullName: "Alice", UserType: domain.RoleElder, CreatedAt: time.Now()}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	assert.Equal(t, int64(10), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_DuplicateEmailIsConflict(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.CreateUser(context.Background(), &domain.User{Email: "a@x", UserType: domain.RoleCaretaker})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByID_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(q("FROM users WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "phone", "user_type", "created_at"}))

	user, err := repo.GetUserByID(context.Background(), 99)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetElderProfile_ScansNullableColumns(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(q("FROM elder_profiles e JOIN users u ON u.id = e.user_id WHERE e.id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "caretaker_id", "date_of_birth", "address", "emergency_contact", "medical_conditions", "full_name"}).
			AddRow(1, 10, nil, nil, "", "", "", "Alice"))

	profile, err := repo.GetElderProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, profile.CaretakerID)
	assert.Nil(t, profile.DateOfBirth)
	assert.Equal(t, "Alice", profile.FullName)
}

func TestLinkCaretaker_UnknownElder(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(q("UPDATE elder_profiles SET caretaker_id = $1 WHERE id = $2")).
		WithArgs(int64(20), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.LinkCaretaker(context.Background(), 5, 20)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLogMedication_WritesLogAndNotificationTogether(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO medication_logs")).
		WithArgs(int64(7), sqlmock.AnyArg(), "taken", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(33))
	mock.ExpectQuery(q("INSERT INTO notifications")).
		WithArgs(sqlmock.AnyArg(), int64(20), "Medication Taken", "Alice took Aspirin", sqlmock.AnyArg(), false, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectCommit()

	elderID := int64(1)
	entry := &domain.MedicationLog{MedicationID: 7, TakenAt: time.Now(), Status: domain.LogStatusTaken}
	n := &domain.Notification{ElderID: &elderID, RecipientUserID: 20, Title: "Medication Taken", Message: "Alice took Aspirin", NotificationType: "medication"}

	require.NoError(t, repo.LogMedication(context.Background(), entry, n))
	assert.Equal(t, int64(33), entry.ID)
	assert.Equal(t, int64(4), n.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogMedication_RollsBackWhenNotificationFails(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("INSERT INTO medication_logs")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(33))
	mock.ExpectQuery(q("INSERT INTO notifications")).
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})
	mock.ExpectRollback()

	err := repo.LogMedication(context.Background(),
		&domain.MedicationLog{MedicationID: 7, Status: domain.LogStatusMissed},
		&domain.Notification{RecipientUserID: 999, Title: "t", Message: "m"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMedications_FiltersByScope(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q("WHERE m.elder_id = ANY($1) AND ($2 OR m.is_active)")).
		WithArgs(sqlmock.AnyArg(), false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "elder_id", "full_name", "name", "dosage", "frequency", "time", "instructions", "start_date", "end_date", "is_active", "created_at"}).
			AddRow(7, 1, "Alice", "Aspirin", "81mg", "Daily", "Morning", "", created, nil, true, created))

	meds, err := repo.ListMedications(context.Background(), []int64{1}, false)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "Alice", meds[0].ElderName)
	require.NotNil(t, meds[0].StartDate)
	assert.Nil(t, meds[0].EndDate)
}

func TestListMedicationLogs_RetriesConnectionErrors(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(q("FROM medication_logs")).
		WillReturnError(&pq.Error{Code: "08006", Message: "connection failure"})
	mock.ExpectQuery(q("FROM medication_logs")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "medication_id", "taken_at", "status", "notes"}).
			AddRow(1, 7, time.Now(), "taken", ""))

	logs, err := repo.ListMedicationLogs(context.Background(), []int64{7})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.LogStatusTaken, logs[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListHealthRecords(t *testing.T) {
	repo, mock := newMockRepository(t)
	since := time.Now().AddDate(0, 0, -30)

	mock.ExpectQuery(q("FROM health_records")).
		WithArgs(sqlmock.AnyArg(), "weight", since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "elder_id", "record_type", "value", "unit", "notes", "recorded_at"}).
			AddRow(3, 1, "weight", "70", "kg", "", time.Now()))

	records, err := repo.ListHealthRecords(context.Background(), ports.HealthRecordFilter{
		ElderIDs: []int64{1}, RecordType: "weight", Since: since,
	})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestConsumeMeal_UnknownMeal(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(q("UPDATE meals SET consumed = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ConsumeMeal(context.Background(), 404, time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLatestLocation_NoHistory(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(q("FROM location_logs WHERE elder_id = $1")).
		WithArgs(int64(1)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.LatestLocation(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	repo, mock := newMockRepository(t)

	for i := 0; i < 8; i++ {
		mock.ExpectQuery(q("FROM notifications WHERE id = $1")).WillReturnError(sql.ErrNoRows)
	}
	for i := 0; i < 8; i++ {
		_, err := repo.GetNotification(context.Background(), 1)
		require.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, repo.careCB.State())
}

func TestListMeals_FiltersByUTCCalendarDay(t *testing.T) {
	repo, mock := newMockRepository(t)

	created := time.Date(2026, 10, 18, 2, 0, 0, 0, time.UTC)
	mock.ExpectQuery(q("WHERE elder_id = ANY($1) AND ($2::date IS NULL OR (created_at AT TIME ZONE 'UTC')::date = $2::date)")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "elder_id", "meal_type", "meal_name", "calories", "protein", "carbs", "fats",
			"consumed", "consumed_at", "scheduled_time", "notes", "created_at"}).
			AddRow(3, 1, "breakfast", "Oatmeal", 300, nil, nil, nil, false, nil, nil, "", created))

	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	meals, err := repo.ListMeals(context.Background(), []int64{1}, &day)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, created, meals[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMedication_ConnectionErrorIsNotReplayed(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(q("INSERT INTO medications")).
		WillReturnError(&pq.Error{Code: "08006", Message: "connection failure"})
	mock.ExpectQuery(q("INSERT INTO medications")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	err := repo.CreateMedication(context.Background(), &domain.Medication{ElderID: 1, Name: "Aspirin", IsActive: true, CreatedAt: time.Now()})
	require.Error(t, err)
	assert.Error(t, mock.ExpectationsWereMet(), "the second insert must never be attempted")
}

func TestLinkCaretaker_ConnectionErrorIsNotReplayed(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(q("UPDATE elder_profiles SET caretaker_id = $1 WHERE id = $2")).
		WillReturnError(&pq.Error{Code: "08006", Message: "connection failure"})
	mock.ExpectExec(q("UPDATE elder_profiles SET caretaker_id = $1 WHERE id = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.LinkCaretaker(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Error(t, mock.ExpectationsWereMet(), "the second update must never be attempted")
}
