package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/medtrack-api/api"
	"github.com/linesmerrill/medtrack-api/clock"
	"github.com/linesmerrill/medtrack-api/databases/mocks"
	"github.com/linesmerrill/medtrack-api/models"
)

func newMedicationHandler(t *testing.T) (Medication, *mocks.MedicationDatabase, *fakeReminders) {
	db := mocks.NewMedicationDatabase(t)
	rem := &fakeReminders{}
	return Medication{DB: db, Reminders: rem, Clock: clock.NewManaged(t0)}, db, rem
}

func storedMedication(patientID string, offsets ...time.Duration) *models.Medication {
	med := &models.Medication{
		ID:        primitive.NewObjectID(),
		Patient:   patientID,
		BrandName: "Lipitor",
		Dosage:    "10mg",
		Frequency: models.FrequencyDaily,
		StartDate: t0.Add(-48 * time.Hour),
		Active:    true,
	}
	for _, off := range offsets {
		med.Reminders = append(med.Reminders, models.Reminder{
			ID:     primitive.NewObjectID(),
			Time:   t0.Add(off),
			Status: models.ReminderActive,
		})
	}
	med.RecomputeNextReminder(t0)
	return med
}

func TestCreateMedicationHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		insertErr      error
		expectInsert   bool
		expectedStatus int
	}{
		{
			name: "twice daily over two days",
			body: map[string]interface{}{
				"drugId":    "d-1",
				"brandName": "Amoxil",
				"dosage":    "500mg",
				"frequency": "twice_daily",
				"startDate": "2026-01-01T00:00:00Z",
				"endDate":   "2026-01-03T00:00:00Z",
			},
			expectInsert:   true,
			expectedStatus: http.StatusCreated,
		},
		{
			name: "unknown frequency",
			body: map[string]interface{}{
				"drugId": "d-1", "brandName": "Amoxil", "dosage": "500mg", "frequency": "hourly",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "end before start",
			body: map[string]interface{}{
				"drugId": "d-1", "brandName": "Amoxil", "dosage": "500mg", "frequency": "daily",
				"startDate": "2026-01-05T00:00:00Z", "endDate": "2026-01-01T00:00:00Z",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing required fields",
			body:           map[string]interface{}{"drugId": "d"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			body:           "{not json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "store failure",
			body: map[string]interface{}{
				"drugId": "d-1", "brandName": "Amoxil", "dosage": "500mg", "frequency": "once",
			},
			insertErr:      errors.New("connection reset"),
			expectInsert:   true,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, db, _ := newMedicationHandler(t)
			if tt.expectInsert {
				db.On("Insert", mock.Anything, mock.AnythingOfType("*models.Medication")).Return(tt.insertErr)
			}

			rr := httptest.NewRecorder()
			h.CreateMedicationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/medications", tt.body, patient, nil))

			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
			assert.True(t, json.Valid(rr.Body.Bytes()), rr.Body.String())
			if !tt.expectInsert {
				db.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCreateMedicationHandlerGeneratesReminders(t *testing.T) {
	h, db, _ := newMedicationHandler(t)
	var stored *models.Medication
	db.On("Insert", mock.Anything, mock.AnythingOfType("*models.Medication")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*models.Medication) }).
		Return(nil)

	rr := httptest.NewRecorder()
	h.CreateMedicationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/medications", map[string]interface{}{
		"drugId":    "d-1",
		"brandName": "Amoxil",
		"dosage":    "500mg",
		"frequency": "twice_daily",
		"startDate": "2026-01-01T00:00:00Z",
		"endDate":   "2026-01-03T00:00:00Z",
	}, patient, nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	require.NotNil(t, stored)
	assert.Equal(t, "patient-1", stored.Patient)
	assert.True(t, stored.Active)
	require.Len(t, stored.Reminders, 4)
	for _, r := range stored.Reminders {
		assert.Equal(t, models.ReminderActive, r.Status)
	}
	assert.Equal(t, time.Date(2026, time.January, 2, 21, 0, 0, 0, time.UTC), stored.Reminders[3].Time)
	require.NotNil(t, stored.NextReminder)
	assert.Equal(t, time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC), *stored.NextReminder)
}

func TestListMedicationsHandler(t *testing.T) {
	later := storedMedication("patient-1", 5*time.Hour)
	sooner := storedMedication("patient-1", time.Hour)
	done := storedMedication("patient-1", -time.Hour)
	done.Active = false
	done.RecomputeNextReminder(t0)

	tests := []struct {
		name       string
		query      string
		activeOnly bool
		expected   []primitive.ObjectID
	}{
		{"all sorted by next reminder", "", false, []primitive.ObjectID{sooner.ID, later.ID, done.ID}},
		{"inactive only", "?active=false", false, []primitive.ObjectID{done.ID}},
		{"upcoming only", "?upcoming=true", false, []primitive.ObjectID{sooner.ID, later.ID}},
		{"active only", "?active=true", true, []primitive.ObjectID{sooner.ID, later.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, db, _ := newMedicationHandler(t)
			meds := []models.Medication{*later, *done, *sooner}
			if tt.activeOnly {
				meds = []models.Medication{*later, *sooner}
			}
			db.On("FindByPatient", mock.Anything, "patient-1", tt.activeOnly).Return(meds, nil)

			rr := httptest.NewRecorder()
			h.ListMedicationsHandler(rr, newRequest(t, http.MethodGet, "/api/v1/medications"+tt.query, nil, patient, nil))
			require.Equal(t, http.StatusOK, rr.Code)

			var got []models.Medication
			decode(t, rr, &got)
			ids := make([]primitive.ObjectID, len(got))
			for i, m := range got {
				ids[i] = m.ID
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestUpcomingRemindersHandler(t *testing.T) {
	h, db, _ := newMedicationHandler(t)
	med := storedMedication("patient-1", -time.Hour, 2*time.Hour, 30*time.Hour)
	med.Reminders = append(med.Reminders, models.Reminder{ID: primitive.NewObjectID(), Time: t0.Add(3 * time.Hour), Status: models.ReminderCompleted})
	db.On("FindUpcoming", mock.Anything, "patient-1", t0, t0.Add(24*time.Hour)).Return([]models.Medication{*med}, nil)

	rr := httptest.NewRecorder()
	h.UpcomingRemindersHandler(rr, newRequest(t, http.MethodGet, "/api/v1/medications/upcoming", nil, patient, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got []models.UpcomingReminders
	decode(t, rr, &got)
	require.Len(t, got, 1)
	require.Len(t, got[0].Reminders, 1)
	assert.Equal(t, med.Reminders[1].ID, got[0].Reminders[0].ID)

	rr = httptest.NewRecorder()
	h.UpcomingRemindersHandler(rr, newRequest(t, http.MethodGet, "/api/v1/medications/upcoming?hours=-3", nil, patient, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMedicationByIDHandlerAccess(t *testing.T) {
	med := storedMedication("patient-1", time.Hour)
	tests := []struct {
		name     string
		caller   api.Identity
		expected int
	}{
		{"owner", patient, http.StatusOK},
		{"pharmacy", pharmacy, http.StatusOK},
		{"admin", admin, http.StatusOK},
		{"another patient", stranger, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, db, _ := newMedicationHandler(t)
			db.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)

			rr := httptest.NewRecorder()
			req := newRequest(t, http.MethodGet, "/api/v1/medications/"+med.ID.Hex(), nil, tt.caller, map[string]string{"id": med.ID.Hex()})
			h.MedicationByIDHandler(rr, req)
			assert.Equal(t, tt.expected, rr.Code)
		})
	}

	t.Run("unknown id", func(t *testing.T) {
		h, db, _ := newMedicationHandler(t)
		db.On("FindByID", mock.Anything, "nope").Return(nil, models.ErrNotFound)

		rr := httptest.NewRecorder()
		h.MedicationByIDHandler(rr, newRequest(t, http.MethodGet, "/api/v1/medications/nope", nil, patient, map[string]string{"id": "nope"}))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUpdateMedicationHandlerRegeneratesFutureReminders(t *testing.T) {
	h, db, _ := newMedicationHandler(t)
	med := storedMedication("patient-1", -26*time.Hour, -2*time.Hour, 22*time.Hour, 46*time.Hour)
	med.Reminders[1].Status = models.ReminderCompleted
	past := []primitive.ObjectID{med.Reminders[0].ID, med.Reminders[1].ID}

	db.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)
	db.On("Save", mock.Anything, med).Return(nil)

	end := t0.Add(3 * 24 * time.Hour)
	rr := httptest.NewRecorder()
	h.UpdateMedicationHandler(rr, newRequest(t, http.MethodPut, "/api/v1/medications/"+med.ID.Hex(), map[string]interface{}{
		"dosage":              "20mg",
		"frequency":           "twice_daily",
		"endDate":             end,
		"regenerateReminders": true,
	}, patient, map[string]string{"id": med.ID.Hex()}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Equal(t, "20mg", med.Dosage)
	assert.Equal(t, models.FrequencyTwiceDaily, med.Frequency)
	assert.Equal(t, past, []primitive.ObjectID{med.Reminders[0].ID, med.Reminders[1].ID})
	assert.Equal(t, models.ReminderCompleted, med.Reminders[1].Status)
	for _, r := range med.Reminders[2:] {
		assert.True(t, r.Time.After(t0))
		assert.Contains(t, []int{9, 21}, r.Time.Hour())
		assert.False(t, r.Time.After(end))
	}
	require.NotNil(t, med.NextReminder)
	assert.Equal(t, time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC), *med.NextReminder)
}

func TestDeleteMedicationHandler(t *testing.T) {
	med := storedMedication("patient-1", time.Hour)

	t.Run("owner", func(t *testing.T) {
		h, db, _ := newMedicationHandler(t)
		db.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)
		db.On("Delete", mock.Anything, med.ID.Hex()).Return(med, nil)

		rr := httptest.NewRecorder()
		h.DeleteMedicationHandler(rr, newRequest(t, http.MethodDelete, "/", nil, patient, map[string]string{"id": med.ID.Hex()}))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("pharmacy cannot delete", func(t *testing.T) {
		h, db, _ := newMedicationHandler(t)
		db.On("FindByID", mock.Anything, med.ID.Hex()).Return(med, nil)

		rr := httptest.NewRecorder()
		h.DeleteMedicationHandler(rr, newRequest(t, http.MethodDelete, "/", nil, pharmacy, map[string]string{"id": med.ID.Hex()}))
		assert.Equal(t, http.StatusForbidden, rr.Code)
		db.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestUpdateReminderStatusHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		err            error
		expectedStatus int
	}{
		{"snooze", map[string]interface{}{"status": "snoozed", "snoozeMinutes": 30}, nil, http.StatusOK},
		{"bad status", map[string]interface{}{"status": "active"}, nil, http.StatusBadRequest},
		{"not owner", map[string]interface{}{"status": "completed"}, models.ErrForbidden, http.StatusForbidden},
		{"unknown reminder", map[string]interface{}{"status": "missed"}, models.ErrNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, rem := newMedicationHandler(t)
			rem.med = storedMedication("patient-1", time.Hour)
			rem.err = tt.err

			rr := httptest.NewRecorder()
			h.UpdateReminderStatusHandler(rr, newRequest(t, http.MethodPatch, "/", tt.body, patient,
				map[string]string{"medicationId": "m", "reminderId": "r"}))
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}

	t.Run("forwards the change", func(t *testing.T) {
		h, _, rem := newMedicationHandler(t)
		rem.med = storedMedication("patient-1", time.Hour)

		rr := httptest.NewRecorder()
		h.UpdateReminderStatusHandler(rr, newRequest(t, http.MethodPatch, "/", map[string]interface{}{
			"status": "snoozed", "snoozeMinutes": 30, "notes": "with food",
		}, patient, map[string]string{"medicationId": "m", "reminderId": "r"}))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "patient-1", rem.patientID)
		assert.Equal(t, models.ReminderSnoozed, rem.change.Status)
		assert.Equal(t, 30, rem.change.SnoozeMinutes)
		require.NotNil(t, rem.change.Notes)
		assert.Equal(t, "with food", *rem.change.Notes)
	})
}

func TestTestReminderHandler(t *testing.T) {
	t.Run("delivered", func(t *testing.T) {
		h, _, rem := newMedicationHandler(t)
		rem.payload = &models.ReminderPayload{ID: "test-reminder", IsTestReminder: true}

		rr := httptest.NewRecorder()
		h.TestReminderHandler(rr, newRequest(t, http.MethodPost, "/", nil, patient, map[string]string{"medicationId": "m"}))
		require.Equal(t, http.StatusOK, rr.Code)

		var got struct {
			Success bool                   `json:"success"`
			Data    models.ReminderPayload `json:"data"`
		}
		decode(t, rr, &got)
		assert.True(t, got.Success)
		assert.True(t, got.Data.IsTestReminder)
		assert.Equal(t, "patient-1", rem.patientID)
	})

	t.Run("patient offline", func(t *testing.T) {
		h, _, rem := newMedicationHandler(t)
		rem.err = models.ErrUpstreamUnavailable

		rr := httptest.NewRecorder()
		h.TestReminderHandler(rr, newRequest(t, http.MethodPost, "/", nil, patient, map[string]string{"medicationId": "m"}))
		require.Equal(t, http.StatusBadRequest, rr.Code)

		var got successResponse
		decode(t, rr, &got)
		assert.False(t, got.Success)
		assert.NotEmpty(t, got.Message)
	})

	t.Run("admin may test any patient", func(t *testing.T) {
		h, _, rem := newMedicationHandler(t)
		rem.payload = &models.ReminderPayload{ID: "r"}

		rr := httptest.NewRecorder()
		h.TestReminderHandler(rr, newRequest(t, http.MethodPost, "/", nil, admin, map[string]string{"medicationId": "m", "reminderId": "r"}))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "", rem.patientID)
	})
}
