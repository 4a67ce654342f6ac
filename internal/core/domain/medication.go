package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LogStatus is the outcome recorded for a scheduled dose
type LogStatus string

const (
	LogStatusTaken   LogStatus = "taken"
	LogStatusMissed  LogStatus = "missed"
	LogStatusSkipped LogStatus = "skipped"
)

// StatusPending is the derived status of a medication without any log
const StatusPending = "pending"

// IsValidLogStatus checks if a log status is one of taken, missed or skipped
func IsValidLogStatus(s LogStatus) bool {
	switch s {
	case LogStatusTaken, LogStatusMissed, LogStatusSkipped:
		return true
	}
	return false
}

// Date is a calendar date serialized as YYYY-MM-DD
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// UnmarshalJSON accepts a plain date or a full RFC 3339 timestamp
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ParseDate parses YYYY-MM-DD or an ISO date-time and truncates to the day
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseTimestamp parses RFC 3339 or a zone-less ISO date-time (treated as UTC)
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", ErrValidation, s)
}

// Medication is a prescribed drug for an elder.
// Status and LastTaken are projected from the log history at read time and
// are never persisted.
type Medication struct {
	ID           int64     `json:"id"`
	ElderID      int64     `json:"elder_id"`
	ElderName    string    `json:"elder_name,omitempty"`
	Name         string    `json:"name"`
	Dosage       string    `json:"dosage"`
	Frequency    string    `json:"frequency"`
	Time         string    `json:"time"` // schedule label, e.g. "Morning" or "8:00 AM"
	Instructions string    `json:"instructions"`
	StartDate    *Date     `json:"start_date"`
	EndDate      *Date     `json:"end_date"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`

	Status    string     `json:"status"`
	LastTaken *time.Time `json:"last_taken"`
}

// MedicationLog records one dose outcome
type MedicationLog struct {
	ID           int64     `json:"id"`
	MedicationID int64     `json:"medication_id"`
	TakenAt      time.Time `json:"taken_at"`
	Status       LogStatus `json:"status"`
	Notes        string    `json:"notes,omitempty"`
}

// ProjectStatus derives a medication's display status from its logs.
// The latest log wins by TakenAt; equal timestamps fall back to the higher id
// so concurrent writers still produce a deterministic answer.
func ProjectStatus(logs []*MedicationLog) (string, *time.Time) {
	var latest *MedicationLog
	for _, l := range logs {
		if l == nil {
			continue
		}
		if latest == nil || l.TakenAt.After(latest.TakenAt) ||
			(l.TakenAt.Equal(latest.TakenAt) && l.ID > latest.ID) {
			latest = l
		}
	}
	if latest == nil {
		return StatusPending, nil
	}
	takenAt := latest.TakenAt
	return string(latest.Status), &takenAt
}

// ApplyProjection fills Status and LastTaken on m from logs
func (m *Medication) ApplyProjection(logs []*MedicationLog) {
	m.Status, m.LastTaken = ProjectStatus(logs)
}

// LogNotificationTitle returns the persisted notification title for a log status
func LogNotificationTitle(s LogStatus) string {
	switch s {
	case LogStatusMissed:
		return "Medication Missed"
	case LogStatusSkipped:
		return "Medication Skipped"
	default:
		return "Medication Taken"
	}
}

// LogNotificationMessage returns the persisted notification message for a log
func LogNotificationMessage(elderName, medicationName string, s LogStatus) string {
	switch s {
	case LogStatusMissed:
		return fmt.Sprintf("%s missed %s", elderName, medicationName)
	case LogStatusSkipped:
		return fmt.Sprintf("%s skipped %s", elderName, medicationName)
	default:
		return fmt.Sprintf("%s took %s", elderName, medicationName)
	}
}
