package domain

import (
	"strconv"
	"time"
)

// Real-time event names pushed to a caretaker's room
const (
	EventElderLinked       = "elder_linked"
	EventMedicationAdded   = "medication_added"
	EventMedicationLogged  = "medication_logged"
	EventHealthRecordAdded = "health_record_added"
	EventMealConsumed      = "meal_consumed"
	EventAppointmentAdded  = "appointment_added"
	EventLocationUpdated   = "location_updated"
)

// Event is a named real-time message with an event specific payload
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// RoomName returns the per-user room key
func RoomName(userID int64) string {
	return "user_" + strconv.FormatInt(userID, 10)
}

type ElderLinkedPayload struct {
	ElderID   int64  `json:"elder_id"`
	ElderName string `json:"elder_name"`
}

type MedicationAddedPayload struct {
	MedicationID int64  `json:"medication_id"`
	ElderID      int64  `json:"elder_id"`
	Name         string `json:"name"`
}

type MedicationLoggedPayload struct {
	MedicationID   int64     `json:"medication_id"`
	ElderID        int64     `json:"elder_id"`
	ElderName      string    `json:"elder_name"`
	MedicationName string    `json:"medication_name"`
	Status         LogStatus `json:"status"`
	Time           time.Time `json:"time"`
}

type HealthRecordAddedPayload struct {
	ElderID   int64  `json:"elder_id"`
	ElderName string `json:"elder_name"`
	Type      string `json:"type"`
	Value     string `json:"value"`
	Unit      string `json:"unit"`
}

type MealConsumedPayload struct {
	MealID    int64  `json:"meal_id"`
	ElderID   int64  `json:"elder_id"`
	ElderName string `json:"elder_name"`
	MealType  string `json:"meal_type"`
	MealName  string `json:"meal_name"`
}

type AppointmentAddedPayload struct {
	AppointmentID int64     `json:"appointment_id"`
	ElderID       int64     `json:"elder_id"`
	Title         string    `json:"title"`
	Date          time.Time `json:"date"`
}

type LocationUpdatedPayload struct {
	ElderID   int64     `json:"elder_id"`
	ElderName string    `json:"elder_name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}
