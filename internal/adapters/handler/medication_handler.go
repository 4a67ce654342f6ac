package handler

import (
	"net/http"

	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"go.uber.org/zap"
)

// MedicationHandler handles HTTP requests for medications and their dose logs
type MedicationHandler struct {
	medService ports.MedicationService
	logger     *zap.Logger
}

// NewMedicationHandler creates a new medication handler
func NewMedicationHandler(medService ports.MedicationService, logger *zap.Logger) *MedicationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MedicationHandler{medService: medService, logger: logger}
}

// ListMedications handles GET /medications?elder_id=&include_inactive=
func (h *MedicationHandler) ListMedications(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	elderID, err := queryID(r, "elder_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	meds, err := h.medService.ListMedications(r.Context(), caller, ports.MedicationFilter{
		ElderID:         elderID,
		IncludeInactive: r.URL.Query().Get("include_inactive") == "true",
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"medications": meds})
}

// CreateMedication handles POST /medications
func (h *MedicationHandler) CreateMedication(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var req ports.CreateMedicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	med, err := h.medService.CreateMedication(r.Context(), caller, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "Medication added successfully",
		"medication_id": med.ID,
	})
}

// UpdateMedication handles PUT /medications/{medication_id}
func (h *MedicationHandler) UpdateMedication(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "medication_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req ports.UpdateMedicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	med, err := h.medService.UpdateMedication(r.Context(), caller, id, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Medication updated successfully",
		"medication": med,
	})
}

// DeleteMedication handles DELETE /medications/{medication_id}, a soft delete
func (h *MedicationHandler) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "medication_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.medService.DeactivateMedication(r.Context(), caller, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Medication deleted successfully"})
}

// LogMedication handles POST /medications/{medication_id}/log
func (h *MedicationHandler) LogMedication(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "medication_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req ports.LogMedicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entry, err := h.medService.LogMedication(r.Context(), caller, id, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Medication logged successfully",
		"log_id":  entry.ID,
	})
}

// ListMedicationLogs handles GET /medications/{medication_id}/logs
func (h *MedicationHandler) ListMedicationLogs(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "medication_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	logs, err := h.medService.ListMedicationLogs(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}
