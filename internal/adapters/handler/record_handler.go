package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"go.uber.org/zap"
)

// RecordHandler handles HTTP requests for the elder scoped care records:
// health records, meals, appointments and emergency contacts
type RecordHandler struct {
	healthService      ports.HealthRecordService
	mealService        ports.MealService
	appointmentService ports.AppointmentService
	contactService     ports.EmergencyContactService
	logger             *zap.Logger
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(
	healthService ports.HealthRecordService,
	mealService ports.MealService,
	appointmentService ports.AppointmentService,
	contactService ports.EmergencyContactService,
	logger *zap.Logger,
) *RecordHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordHandler{
		healthService:      healthService,
		mealService:        mealService,
		appointmentService: appointmentService,
		contactService:     contactService,
		logger:             logger,
	}
}

// ListHealthRecords handles GET /health-records?elder_id=&type=&days=
func (h *RecordHandler) ListHealthRecords(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	elderID, err := queryID(r, "elder_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	days := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		if days, err = strconv.Atoi(raw); err != nil {
			writeError(w, r, h.logger, badRequest("days must be a number"))
			return
		}
	}

	records, err := h.healthService.ListHealthRecords(r.Context(), caller, ports.HealthRecordQuery{
		ElderID:    elderID,
		RecordType: r.URL.Query().Get("type"),
		Days:       days,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// CreateHealthRecord handles POST /health-records
func (h *RecordHandler) CreateHealthRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req ports.CreateHealthRecordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	record, err := h.healthService.CreateHealthRecord(r.Context(), caller, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Health record added successfully",
		"record_id": record.ID,
	})
}

// ListMeals handles GET /meals?elder_id=&date=YYYY-MM-DD
func (h *RecordHandler) ListMeals(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	elderID, err := queryID(r, "elder_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	meals, err := h.mealService.ListMeals(r.Context(), caller, ports.MealQuery{
		ElderID: elderID,
		Date:    r.URL.Query().Get("date"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meals": meals})
}

// CreateMeal handles POST /meals
func (h *RecordHandler) CreateMeal(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req ports.CreateMealRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	meal, err := h.mealService.CreateMeal(r.Context(), caller, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Meal added successfully",
		"meal_id": meal.ID,
	})
}

// ConsumeMeal handles POST /meals/{meal_id}/consume
func (h *RecordHandler) ConsumeMeal(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "meal_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if _, err := h.mealService.ConsumeMeal(r.Context(), caller, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Meal marked as consumed"})
}

// ListAppointments handles GET /appointments?elder_id=
func (h *RecordHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	elderID, err := queryID(r, "elder_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	appts, err := h.appointmentService.ListAppointments(r.Context(), caller, elderID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

// CreateAppointment handles POST /appointments
func (h *RecordHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req ports.CreateAppointmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	appt, err := h.appointmentService.CreateAppointment(r.Context(), caller, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":        "Appointment added successfully",
		"appointment_id": appt.ID,
	})
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status"`
}

// UpdateAppointmentStatus handles PUT /appointments/{appointment_id}/status
func (h *RecordHandler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "appointment_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req UpdateAppointmentStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	appt, err := h.appointmentService.UpdateAppointmentStatus(r.Context(), caller, id, req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Appointment updated successfully",
		"appointment": appt,
	})
}

// ListEmergencyContacts handles GET /emergency-contacts?elder_id=
func (h *RecordHandler) ListEmergencyContacts(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	elderID, err := queryID(r, "elder_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	contacts, err := h.contactService.ListEmergencyContacts(r.Context(), caller, elderID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

// CreateEmergencyContact handles POST /emergency-contacts
func (h *RecordHandler) CreateEmergencyContact(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req ports.CreateEmergencyContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	contact, err := h.contactService.CreateEmergencyContact(r.Context(), caller, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Emergency contact added successfully",
		"contact_id": contact.ID,
	})
}
