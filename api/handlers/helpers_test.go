package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/medtrack-api/api"
	"github.com/linesmerrill/medtrack-api/api/scheduler"
	"github.com/linesmerrill/medtrack-api/models"
)

var t0 = time.Date(2026, time.January, 1, 8, 0, 0, 0, time.UTC)

var (
	patient  = api.Identity{ID: "patient-1", Role: models.RolePatient, Name: "pat"}
	stranger = api.Identity{ID: "patient-2", Role: models.RolePatient, Name: "other"}
	pharmacy = api.Identity{ID: "pharmacy-1", Role: models.RolePharmacy, Name: "corner"}
	admin    = api.Identity{ID: "admin-1", Role: models.RoleAdmin, Name: "root"}
)

// newRequest builds a request carrying caller and the given path variables
func newRequest(t *testing.T, method, target string, body interface{}, caller api.Identity, vars map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req = req.WithContext(api.WithIdentity(req.Context(), caller))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

// fakeReminders records the calls made to the reminder service
type fakeReminders struct {
	change    scheduler.ReminderChange
	patientID string
	med       *models.Medication
	payload   *models.ReminderPayload
	err       error
}

func (f *fakeReminders) UpdateReminder(ctx context.Context, patientID, medicationID, reminderID string, change scheduler.ReminderChange) (*models.Medication, error) {
	f.patientID = patientID
	f.change = change
	return f.med, f.err
}

func (f *fakeReminders) TriggerTestReminder(ctx context.Context, patientID, medicationID, reminderID string) (*models.ReminderPayload, error) {
	f.patientID = patientID
	return f.payload, f.err
}
