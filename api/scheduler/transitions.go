package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/medtrack-api/models"
	"github.com/linesmerrill/medtrack-api/realtime"
)

// DefaultSnoozeMinutes applies when a snooze does not name a duration
const DefaultSnoozeMinutes = 15

// MaxSnoozeMinutes caps a single snooze at one day
const MaxSnoozeMinutes = 24 * 60

// TestReminderID identifies the synthetic reminder sent by TriggerTestReminder
const TestReminderID = "test-reminder"

// ReminderChange describes one update to a reminder. A zero Status leaves the
// state alone.
type ReminderChange struct {
	Status        models.ReminderStatus
	SnoozeMinutes int
	Notes         *string
}

// MarkCompleted records the dose as taken. patientID, when set, must own the
// medication.
func (s *Scheduler) MarkCompleted(ctx context.Context, patientID, medicationID, reminderID string) (*models.Medication, error) {
	return s.UpdateReminder(ctx, patientID, medicationID, reminderID, ReminderChange{Status: models.ReminderCompleted})
}

// Snooze postpones the reminder by minutes, DefaultSnoozeMinutes when not
// positive and at most MaxSnoozeMinutes
func (s *Scheduler) Snooze(ctx context.Context, patientID, medicationID, reminderID string, minutes int) (*models.Medication, error) {
	return s.UpdateReminder(ctx, patientID, medicationID, reminderID, ReminderChange{Status: models.ReminderSnoozed, SnoozeMinutes: minutes})
}

// MarkMissed records the dose as missed
func (s *Scheduler) MarkMissed(ctx context.Context, patientID, medicationID, reminderID string) (*models.Medication, error) {
	return s.UpdateReminder(ctx, patientID, medicationID, reminderID, ReminderChange{Status: models.ReminderMissed})
}

// UpdateReminder applies change to one reminder, recomputes the medication's
// next reminder and saves it. A state change on a completed or missed reminder
// is ignored and reports no error.
func (s *Scheduler) UpdateReminder(ctx context.Context, patientID, medicationID, reminderID string, change ReminderChange) (*models.Medication, error) {
	switch change.Status {
	case "", models.ReminderCompleted, models.ReminderSnoozed, models.ReminderMissed:
	default:
		return nil, fmt.Errorf("cannot move reminder to %q: %w", change.Status, models.ErrValidation)
	}

	med, err := s.MedDB.FindByID(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if patientID != "" && med.Patient != patientID {
		return nil, fmt.Errorf("medication %s: %w", medicationID, models.ErrForbidden)
	}
	reminder := med.FindReminder(reminderID)
	if reminder == nil {
		return nil, fmt.Errorf("reminder %s of medication %s: %w", reminderID, medicationID, models.ErrNotFound)
	}

	now := s.clock.Now()
	changed := false

	if change.Status != "" {
		if reminder.Status.Terminal() {
			zap.S().Debugw("ignoring transition of settled reminder",
				"medicationID", medicationID,
				"reminderID", reminderID,
				"status", reminder.Status,
				"requested", change.Status)
		} else {
			s.transition(med, reminder, change, now)
			changed = true
		}
	}
	if change.Notes != nil && *change.Notes != reminder.Notes {
		reminder.Notes = *change.Notes
		changed = true
	}
	if !changed {
		return med, nil
	}

	med.RecomputeNextReminder(now)
	med.UpdatedAt = now
	if err := s.MedDB.Save(ctx, med); err != nil {
		return nil, err
	}
	zap.S().Infow("reminder updated",
		"medicationID", medicationID,
		"reminderID", reminderID,
		"status", reminder.Status)
	return med, nil
}

func (s *Scheduler) transition(med *models.Medication, r *models.Reminder, change ReminderChange, now time.Time) {
	switch change.Status {
	case models.ReminderSnoozed:
		minutes := change.SnoozeMinutes
		switch {
		case minutes <= 0:
			minutes = DefaultSnoozeMinutes
		case minutes > MaxSnoozeMinutes:
			minutes = MaxSnoozeMinutes
		}
		until := now.Add(time.Duration(minutes) * time.Minute)
		r.Status = models.ReminderSnoozed
		r.SnoozeUntil = &until
		// the snoozed reminder must be deliverable again once it elapses
		s.Ledger.Forget(LedgerKey(med.ID.Hex(), r.ID.Hex()))
	default:
		r.Status = change.Status
		r.SnoozeUntil = nil
	}
}

// TriggerTestReminder sends a reminder for the medication right away, outside
// the sweep. Without a reminderID a synthetic reminder due now is sent. The
// patient must be connected, otherwise ErrUpstreamUnavailable is returned.
func (s *Scheduler) TriggerTestReminder(ctx context.Context, patientID, medicationID, reminderID string) (*models.ReminderPayload, error) {
	med, err := s.MedDB.FindByID(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if patientID != "" && med.Patient != patientID {
		return nil, fmt.Errorf("medication %s: %w", medicationID, models.ErrForbidden)
	}

	var payload models.ReminderPayload
	if reminderID == "" {
		payload = reminderPayload(med, models.Reminder{Time: s.clock.Now(), Status: models.ReminderActive}, true)
		payload.ID = TestReminderID
	} else {
		r := med.FindReminder(reminderID)
		if r == nil {
			return nil, fmt.Errorf("reminder %s of medication %s: %w", reminderID, medicationID, models.ErrNotFound)
		}
		payload = reminderPayload(med, *r, true)
	}

	if !s.Presence.IsOnline(med.Patient) {
		return nil, fmt.Errorf("patient %s is not connected: %w", med.Patient, models.ErrUpstreamUnavailable)
	}
	if s.Bus.Publish(realtime.UserTopic(med.Patient), models.EventMedicationReminder, payload) == 0 {
		return nil, fmt.Errorf("no connection of patient %s accepted the reminder: %w", med.Patient, models.ErrUpstreamUnavailable)
	}
	zap.S().Infow("test reminder sent", "medicationID", medicationID, "reminderID", payload.ID, "patient", med.Patient)
	return &payload, nil
}
