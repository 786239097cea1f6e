package models

import "time"

// Events pushed to connected clients
const (
	EventMedicationReminder     = "medication_reminder"
	EventNewMessage             = "new_message"
	EventNewMessageNotification = "new_message_notification"
	EventMessagesRead           = "messages_read"
	EventReminderUpdate         = "reminder_update"
	EventReminderError          = "reminder_error"
	EventShowPopup              = "show_popup"
	EventClosePopup             = "close_popup"
	EventPopupResponse          = "popup_response"
	EventPharmacyVerified       = "pharmacy_verified"
	EventError                  = "error"
)

// Events sent by connected clients
const (
	EventJoinConversation        = "join_conversation"
	EventLeaveConversation       = "leave_conversation"
	EventReminderResponse        = "reminder_response"
	EventPatientPopupRequest     = "patient_popup_request"
	EventPatientPopupCancel      = "patient_popup_cancel"
	EventPharmacistPopupResponse = "pharmacist_popup_response"
)

// ReminderPayload is the medication_reminder event body
type ReminderPayload struct {
	ID             string    `json:"id"`
	MedicationID   string    `json:"medicationId"`
	MedicationName string    `json:"medicationName"`
	GenericName    string    `json:"genericName,omitempty"`
	Dosage         string    `json:"dosage"`
	Time           time.Time `json:"time"`
	Instructions   string    `json:"instructions,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	IsTestReminder bool      `json:"isTestReminder,omitempty"`
}

// MessageEvent is the body of new_message and new_message_notification
type MessageEvent struct {
	ConversationID string   `json:"conversationId"`
	Message        *Message `json:"message"`
}

// MessagesReadPayload is the messages_read event body
type MessagesReadPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// ReminderUpdatePayload is the reminder_update event body
type ReminderUpdatePayload struct {
	MedicationID string         `json:"medicationId"`
	ReminderID   string         `json:"reminderId"`
	Status       ReminderStatus `json:"status"`
}

// ReminderErrorPayload is the reminder_error event body
type ReminderErrorPayload struct {
	MedicationID string `json:"medicationId"`
	ReminderID   string `json:"reminderId"`
	Error        string `json:"error"`
}

// Reminder responses a client can send back for a delivered reminder
const (
	ReminderActionTaken  = "taken"
	ReminderActionSnooze = "snooze"
	ReminderActionMissed = "missed"
)

// ReminderResponse is the reminder_response client event body
type ReminderResponse struct {
	MedicationID  string `json:"medicationId"`
	ReminderID    string `json:"reminderId"`
	Action        string `json:"action"`
	SnoozeMinutes int    `json:"snoozeMinutes"`
}

// ConversationRef is the body of join_conversation and leave_conversation
type ConversationRef struct {
	ConversationID string `json:"conversationId"`
}

// ClosePopupPayload is the close_popup event body. ClosedBy is the pharmacy
// that answered, empty when the patient cancelled.
type ClosePopupPayload struct {
	PatientID string `json:"patientId"`
	ClosedBy  string `json:"closedBy,omitempty"`
}

// PharmacyVerifiedPayload is the pharmacy_verified event body
type PharmacyVerifiedPayload struct {
	PharmacyID string `json:"pharmacyId"`
	Verified   bool   `json:"verified"`
}
