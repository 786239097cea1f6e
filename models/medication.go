package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Frequency is the recurrence rule of a medication schedule
type Frequency string

// Supported recurrence rules
const (
	FrequencyOnce            Frequency = "once"
	FrequencyDaily           Frequency = "daily"
	FrequencyTwiceDaily      Frequency = "twice_daily"
	FrequencyThreeTimesDaily Frequency = "three_times_daily"
	FrequencyFourTimesDaily  Frequency = "four_times_daily"
	FrequencyWeekly          Frequency = "weekly"
	FrequencyMonthly         Frequency = "monthly"
	FrequencyAsNeeded        Frequency = "as_needed"
)

// Valid reports whether f is a known recurrence rule
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyTwiceDaily, FrequencyThreeTimesDaily,
		FrequencyFourTimesDaily, FrequencyWeekly, FrequencyMonthly, FrequencyAsNeeded:
		return true
	}
	return false
}

// ReminderStatus is the lifecycle state of a single reminder
type ReminderStatus string

// Reminder states. Completed and missed are terminal.
const (
	ReminderActive    ReminderStatus = "active"
	ReminderSnoozed   ReminderStatus = "snoozed"
	ReminderCompleted ReminderStatus = "completed"
	ReminderMissed    ReminderStatus = "missed"
)

// Terminal reports whether no further transition is accepted from s
func (s ReminderStatus) Terminal() bool {
	return s == ReminderCompleted || s == ReminderMissed
}

// Reminder is one scheduled dose notification embedded in a medication
type Reminder struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Time        time.Time          `json:"time" bson:"time"`
	Status      ReminderStatus     `json:"status" bson:"status"`
	SnoozeUntil *time.Time         `json:"snoozeUntil,omitempty" bson:"snoozeUntil,omitempty"`
	Notes       string             `json:"notes,omitempty" bson:"notes,omitempty"`
}

// EffectiveTime is when the reminder is next available for delivery: the
// snooze deadline for snoozed reminders, the due time otherwise.
func (r Reminder) EffectiveTime() time.Time {
	if r.Status == ReminderSnoozed && r.SnoozeUntil != nil {
		return *r.SnoozeUntil
	}
	return r.Time
}

// Medication holds the structure for the medications collection in mongo
type Medication struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	Patient      string             `json:"patient" bson:"patient"`
	DrugID       string             `json:"drugId" bson:"drugId"`
	BrandName    string             `json:"brandName" bson:"brandName"`
	GenericName  string             `json:"genericName,omitempty" bson:"genericName,omitempty"`
	Dosage       string             `json:"dosage" bson:"dosage"`
	Frequency    Frequency          `json:"frequency" bson:"frequency"`
	StartDate    time.Time          `json:"startDate" bson:"startDate"`
	EndDate      *time.Time         `json:"endDate,omitempty" bson:"endDate,omitempty"`
	Instructions string             `json:"instructions" bson:"instructions"`
	Active       bool               `json:"active" bson:"active"`
	Reminders    []Reminder         `json:"reminders" bson:"reminders"`
	NextReminder *time.Time         `json:"nextReminder,omitempty" bson:"nextReminder,omitempty"`
	Notes        string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// FindReminder returns a pointer into m.Reminders for the given hex id, or nil
func (m *Medication) FindReminder(id string) *Reminder {
	for i := range m.Reminders {
		if m.Reminders[i].ID.Hex() == id {
			return &m.Reminders[i]
		}
	}
	return nil
}

// SetReminders replaces every reminder with fresh active ones at the given times
func (m *Medication) SetReminders(times []time.Time) {
	m.Reminders = newReminders(times)
}

// RegenerateReminders keeps reminders that are already due (time <= now) and
// replaces every future-dated one with fresh active reminders at times.
func (m *Medication) RegenerateReminders(times []time.Time, now time.Time) {
	kept := make([]Reminder, 0, len(m.Reminders)+len(times))
	for _, r := range m.Reminders {
		if !r.Time.After(now) {
			kept = append(kept, r)
		}
	}
	m.Reminders = append(kept, newReminders(times)...)
}

func newReminders(times []time.Time) []Reminder {
	reminders := make([]Reminder, 0, len(times))
	for _, t := range times {
		reminders = append(reminders, Reminder{
			ID:     primitive.NewObjectID(),
			Time:   t,
			Status: ReminderActive,
		})
	}
	return reminders
}

// RecomputeNextReminder sets NextReminder to the earliest effective time of a
// non-terminal reminder strictly after now, or clears it when there is none.
func (m *Medication) RecomputeNextReminder(now time.Time) {
	var next *time.Time
	for _, r := range m.Reminders {
		if r.Status.Terminal() {
			continue
		}
		t := r.EffectiveTime()
		if !t.After(now) {
			continue
		}
		if next == nil || t.Before(*next) {
			t := t
			next = &t
		}
	}
	m.NextReminder = next
}

// DueReminders returns the reminders a sweep at now should deliver: active
// reminders due within [now, now+window] and snoozed reminders whose snooze
// elapsed within [now-window, now].
func (m *Medication) DueReminders(now time.Time, window time.Duration) []Reminder {
	var due []Reminder
	horizon := now.Add(window)
	for _, r := range m.Reminders {
		switch r.Status {
		case ReminderActive:
			if !r.Time.Before(now) && !r.Time.After(horizon) {
				due = append(due, r)
			}
		case ReminderSnoozed:
			if r.SnoozeUntil == nil {
				continue
			}
			if !r.SnoozeUntil.After(now) && !r.SnoozeUntil.Before(now.Add(-window)) {
				due = append(due, r)
			}
		}
	}
	return due
}

// ReminderNotes returns the reminder's own notes, falling back to the medication's
func (m *Medication) ReminderNotes(r Reminder) string {
	if r.Notes != "" {
		return r.Notes
	}
	return m.Notes
}

// MedicationRequest is the body accepted when a patient adds a medication
type MedicationRequest struct {
	DrugID        string     `json:"drugId" validate:"required"`
	BrandName     string     `json:"brandName" validate:"required"`
	GenericName   string     `json:"genericName"`
	Dosage        string     `json:"dosage" validate:"required"`
	Frequency     Frequency  `json:"frequency" validate:"required,oneof=once daily twice_daily three_times_daily four_times_daily weekly monthly as_needed"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	Instructions  string     `json:"instructions"`
	Notes         string     `json:"notes"`
	FirstDoseTime *time.Time `json:"firstDoseTime"`
}

// MedicationUpdateRequest is the body accepted when a medication is updated.
// Nil fields are left untouched.
type MedicationUpdateRequest struct {
	Dosage              *string    `json:"dosage"`
	Frequency           *Frequency `json:"frequency" validate:"omitempty,oneof=once daily twice_daily three_times_daily four_times_daily weekly monthly as_needed"`
	EndDate             *time.Time `json:"endDate"`
	ClearEndDate        bool       `json:"clearEndDate"`
	Instructions        *string    `json:"instructions"`
	Active              *bool      `json:"active"`
	Notes               *string    `json:"notes"`
	RegenerateReminders bool       `json:"regenerateReminders"`
}

// ReminderStatusRequest is the body of a reminder status change
type ReminderStatusRequest struct {
	Status        ReminderStatus `json:"status" validate:"omitempty,oneof=completed snoozed missed"`
	SnoozeMinutes int            `json:"snoozeMinutes" validate:"omitempty,min=1,max=1440"`
	Notes         *string        `json:"notes"`
}

// UpcomingReminders groups a medication's reminders falling in a time range
type UpcomingReminders struct {
	MedicationID primitive.ObjectID `json:"medicationId"`
	BrandName    string             `json:"brandName"`
	GenericName  string             `json:"genericName,omitempty"`
	Dosage       string             `json:"dosage"`
	Instructions string             `json:"instructions,omitempty"`
	Reminders    []Reminder         `json:"reminders"`
}
