package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/medtrack-api/api"
	"github.com/linesmerrill/medtrack-api/api/scheduler"
	"github.com/linesmerrill/medtrack-api/clock"
	"github.com/linesmerrill/medtrack-api/databases"
	"github.com/linesmerrill/medtrack-api/models"
	"github.com/linesmerrill/medtrack-api/recurrence"
)

// defaultUpcomingHours is the look-ahead of GET /medications/upcoming
const defaultUpcomingHours = 24

// ReminderService applies reminder transitions and sends test reminders
type ReminderService interface {
	UpdateReminder(ctx context.Context, patientID, medicationID, reminderID string, change scheduler.ReminderChange) (*models.Medication, error)
	TriggerTestReminder(ctx context.Context, patientID, medicationID, reminderID string) (*models.ReminderPayload, error)
}

// Medication exposes a patient's medication schedule and its reminders
type Medication struct {
	DB        databases.MedicationDatabase
	Reminders ReminderService
	Clock     clock.Clock
}

// CreateMedicationHandler adds a medication for the calling patient and
// generates its reminders
func (h Medication) CreateMedicationHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.IdentityFrom(r.Context())

	var req models.MedicationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid medication", err)
		return
	}

	now := h.Clock.Now()
	start := now
	if req.StartDate != nil {
		start = *req.StartDate
	}
	times, err := recurrence.Generate(start, req.EndDate, req.Frequency, req.FirstDoseTime)
	if err != nil {
		writeError(w, "invalid schedule", err)
		return
	}

	med := &models.Medication{
		ID:           primitive.NewObjectID(),
		Patient:      caller.ID,
		DrugID:       req.DrugID,
		BrandName:    req.BrandName,
		GenericName:  req.GenericName,
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		StartDate:    start,
		EndDate:      req.EndDate,
		Instructions: req.Instructions,
		Notes:        req.Notes,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	med.SetReminders(times)
	med.RecomputeNextReminder(now)

	if err := h.DB.Insert(r.Context(), med); err != nil {
		writeError(w, "failed to save medication", err)
		return
	}
	zap.S().Infow("medication added",
		"medicationID", med.ID.Hex(),
		"patient", med.Patient,
		"frequency", med.Frequency,
		"reminders", len(med.Reminders))
	writeJSON(w, http.StatusCreated, med)
}

// ListMedicationsHandler lists the calling patient's medications ordered by
// their next reminder. ?active=true|false filters on the active flag and
// ?upcoming=true keeps only those with a reminder still ahead.
func (h Medication) ListMedicationsHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.IdentityFrom(r.Context())
	q := r.URL.Query()

	active := q.Get("active")
	meds, err := h.DB.FindByPatient(r.Context(), caller.ID, active == "true")
	if err != nil {
		writeError(w, "failed to get medications", err)
		return
	}

	now := h.Clock.Now()
	upcoming := q.Get("upcoming") == "true"
	filtered := make([]models.Medication, 0, len(meds))
	for _, m := range meds {
		if active == "false" && m.Active {
			continue
		}
		if upcoming && (m.NextReminder == nil || m.NextReminder.Before(now)) {
			continue
		}
		filtered = append(filtered, m)
	}
	sortByNextReminder(filtered)
	writeJSON(w, http.StatusOK, filtered)
}

// PatientMedicationsHandler is the pharmacy view of a patient's medications
func (h Medication) PatientMedicationsHandler(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patientId"]
	meds, err := h.DB.FindByPatient(r.Context(), patientID, false)
	if err != nil {
		writeError(w, "failed to get patient medications", err)
		return
	}
	sortByNextReminder(meds)
	writeJSON(w, http.StatusOK, meds)
}

// UpcomingRemindersHandler returns the calling patient's open reminders
// falling within the next ?hours (default 24)
func (h Medication) UpcomingRemindersHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.IdentityFrom(r.Context())

	hours := defaultUpcomingHours
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "hours must be a positive integer", fmt.Errorf("hours %q: %w", v, models.ErrValidation))
			return
		}
		hours = n
	}

	now := h.Clock.Now()
	to := now.Add(time.Duration(hours) * time.Hour)
	meds, err := h.DB.FindUpcoming(r.Context(), caller.ID, now, to)
	if err != nil {
		writeError(w, "failed to get upcoming reminders", err)
		return
	}

	result := make([]models.UpcomingReminders, 0, len(meds))
	for _, m := range meds {
		var reminders []models.Reminder
		for _, rem := range m.Reminders {
			if rem.Status.Terminal() {
				continue
			}
			if t := rem.EffectiveTime(); t.Before(now) || t.After(to) {
				continue
			}
			reminders = append(reminders, rem)
		}
		if len(reminders) == 0 {
			continue
		}
		sort.Slice(reminders, func(i, j int) bool {
			return reminders[i].EffectiveTime().Before(reminders[j].EffectiveTime())
		})
		result = append(result, models.UpcomingReminders{
			MedicationID: m.ID,
			BrandName:    m.BrandName,
			GenericName:  m.GenericName,
			Dosage:       m.Dosage,
			Instructions: m.Instructions,
			Reminders:    reminders,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

// MedicationByIDHandler returns one medication to its patient, a pharmacy or an admin
func (h Medication) MedicationByIDHandler(w http.ResponseWriter, r *http.Request) {
	med, ok := h.load(w, r, models.RolePharmacy, models.RoleAdmin)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, med)
}

// UpdateMedicationHandler changes a medication. With regenerateReminders the
// past reminders are kept and the future ones are generated again from the
// updated schedule.
func (h Medication) UpdateMedicationHandler(w http.ResponseWriter, r *http.Request) {
	var req models.MedicationUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid medication update", err)
		return
	}

	med, ok := h.load(w, r, models.RolePharmacy, models.RoleAdmin)
	if !ok {
		return
	}

	if req.Dosage != nil {
		med.Dosage = *req.Dosage
	}
	if req.Frequency != nil {
		med.Frequency = *req.Frequency
	}
	if req.ClearEndDate {
		med.EndDate = nil
	} else if req.EndDate != nil {
		med.EndDate = req.EndDate
	}
	if req.Instructions != nil {
		med.Instructions = *req.Instructions
	}
	if req.Active != nil {
		med.Active = *req.Active
	}
	if req.Notes != nil {
		med.Notes = *req.Notes
	}

	now := h.Clock.Now()
	if req.RegenerateReminders {
		start := med.StartDate
		if start.Before(now) {
			start = now
		}
		times, err := recurrence.Generate(start, med.EndDate, med.Frequency, nil)
		if err != nil {
			writeError(w, "invalid schedule", err)
			return
		}
		med.RegenerateReminders(times, now)
	}
	med.RecomputeNextReminder(now)
	med.UpdatedAt = now

	if err := h.DB.Save(r.Context(), med); err != nil {
		writeError(w, "failed to update medication", err)
		return
	}
	writeJSON(w, http.StatusOK, med)
}

// DeleteMedicationHandler removes a medication and its reminders
func (h Medication) DeleteMedicationHandler(w http.ResponseWriter, r *http.Request) {
	med, ok := h.load(w, r, models.RoleAdmin)
	if !ok {
		return
	}
	if _, err := h.DB.Delete(r.Context(), med.ID.Hex()); err != nil {
		writeError(w, "failed to delete medication", err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "medication deleted"})
}

// UpdateReminderStatusHandler applies a status change sent by the patient
func (h Medication) UpdateReminderStatusHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.IdentityFrom(r.Context())
	vars := mux.Vars(r)

	var req models.ReminderStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "invalid reminder update", err)
		return
	}

	med, err := h.Reminders.UpdateReminder(r.Context(), caller.ID, vars["medicationId"], vars["reminderId"], scheduler.ReminderChange{
		Status:        req.Status,
		SnoozeMinutes: req.SnoozeMinutes,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(w, "failed to update reminder", err)
		return
	}
	writeJSON(w, http.StatusOK, med)
}

// TestReminderHandler pushes a reminder to the patient right away. Without a
// reminderId a synthetic reminder due now is sent.
func (h Medication) TestReminderHandler(w http.ResponseWriter, r *http.Request) {
	caller, _ := api.IdentityFrom(r.Context())
	vars := mux.Vars(r)

	patientID := caller.ID
	if caller.HasRole(models.RoleAdmin) {
		patientID = ""
	}

	payload, err := h.Reminders.TriggerTestReminder(r.Context(), patientID, vars["medicationId"], vars["reminderId"])
	if err != nil {
		if errors.Is(err, models.ErrUpstreamUnavailable) {
			zap.S().Infow("test reminder not delivered", "medicationID", vars["medicationId"], "error", err)
			writeJSON(w, http.StatusBadRequest, successResponse{Success: false, Message: "patient is not connected"})
			return
		}
		writeError(w, "failed to send test reminder", err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "test reminder sent", Data: payload})
}

// load fetches the {id} medication and checks the caller is its patient or
// holds one of roles
func (h Medication) load(w http.ResponseWriter, r *http.Request, roles ...models.Role) (*models.Medication, bool) {
	caller, _ := api.IdentityFrom(r.Context())
	id := mux.Vars(r)["id"]

	med, err := h.DB.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, "medication not found", err)
		return nil, false
	}
	if med.Patient != caller.ID && !caller.HasRole(roles...) {
		writeError(w, "access denied", fmt.Errorf("medication %s: %w", id, models.ErrForbidden))
		return nil, false
	}
	return med, true
}

// sortByNextReminder orders medications by their next reminder, those
// without one last
func sortByNextReminder(meds []models.Medication) {
	sort.SliceStable(meds, func(i, j int) bool {
		a, b := meds[i].NextReminder, meds[j].NextReminder
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
}
