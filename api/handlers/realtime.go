package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/medtrack-api/api"
	"github.com/linesmerrill/medtrack-api/models"
	"github.com/linesmerrill/medtrack-api/realtime"
)

// eventTimeout bounds the storage work done for one client event
const eventTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ConversationJoiner authorizes conversation topic subscriptions
type ConversationJoiner interface {
	CanJoin(ctx context.Context, conversationID, userID string) error
}

// ReminderResponder applies the answers a patient gives to a delivered reminder
type ReminderResponder interface {
	MarkCompleted(ctx context.Context, patientID, medicationID, reminderID string) (*models.Medication, error)
	Snooze(ctx context.Context, patientID, medicationID, reminderID string, minutes int) (*models.Medication, error)
	MarkMissed(ctx context.Context, patientID, medicationID, reminderID string) (*models.Medication, error)
}

// Realtime serves the /ws endpoint
type Realtime struct {
	Auth      *api.Auth
	Presence  *realtime.Registry
	Bus       *realtime.Bus
	Chat      ConversationJoiner
	Reminders ReminderResponder
}

// WebSocketHandler authenticates the handshake, upgrades the connection and
// serves client events until the socket closes
func (h Realtime) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := h.Auth.Authenticate(r)
	if err != nil {
		zap.S().Warnw("websocket handshake rejected", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "unauthorized"}`))
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		zap.S().Warnw("websocket upgrade failed", "userID", caller.ID, "error", err)
		return
	}
	conn := realtime.NewWSConn(ws)
	h.connect(caller, conn)
	defer h.disconnect(caller, conn)

	done := make(chan struct{})
	defer close(done)
	go keepAlive(conn, done)

	for {
		in, err := conn.ReadEvent()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.S().Debugw("websocket closed unexpectedly", "userID", caller.ID, "error", err)
			}
			return
		}
		h.handleEvent(r.Context(), caller, conn, in)
	}
}

func keepAlive(conn *realtime.WSConn, done <-chan struct{}) {
	ticker := time.NewTicker(realtime.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				// the read loop sees the broken socket and cleans up
				conn.Close()
				return
			}
		}
	}
}

func (h Realtime) connect(caller api.Identity, conn realtime.Conn) {
	// a connection only ever listens on the topic of the user it is registered to
	if previous, _, ok := h.Presence.Lookup(conn); ok && previous != caller.ID {
		h.Bus.Unsubscribe(conn, realtime.UserTopic(previous))
	}
	h.Presence.Register(caller.ID, caller.Role, conn)
	h.Bus.Subscribe(conn, realtime.UserTopic(caller.ID))
	zap.S().Infow("user connected", "userID", caller.ID, "role", caller.Role, "connID", conn.ID())
}

func (h Realtime) disconnect(caller api.Identity, conn realtime.Conn) {
	h.Bus.UnsubscribeAll(conn)
	h.Presence.Unregister(conn)
	conn.Close()
	zap.S().Infow("user disconnected", "userID", caller.ID, "connID", conn.ID())
}

// handleEvent dispatches one client event. Malformed or unauthorized events
// are answered with an error event and never close the connection.
func (h Realtime) handleEvent(ctx context.Context, caller api.Identity, conn realtime.Conn, in realtime.IncomingEvent) {
	ctx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()

	var err error
	switch in.Name {
	case models.EventJoinConversation:
		err = h.joinConversation(ctx, caller, conn, in.Data)
	case models.EventLeaveConversation:
		err = h.leaveConversation(conn, in.Data)
	case models.EventReminderResponse:
		h.reminderResponse(ctx, caller, conn, in.Data)
	case models.EventPatientPopupRequest:
		err = h.popupRequest(caller, in.Data)
	case models.EventPatientPopupCancel:
		err = h.popupCancel(caller)
	case models.EventPharmacistPopupResponse:
		err = h.popupResponse(caller, in.Data)
	default:
		err = fmt.Errorf("unknown event %q: %w", in.Name, models.ErrValidation)
	}
	if err != nil {
		zap.S().Debugw("client event rejected", "event", in.Name, "userID", caller.ID, "error", err)
		conn.Send(realtime.Event{Name: models.EventError, Data: map[string]string{
			"event": in.Name,
			"error": err.Error(),
		}})
	}
}

// conversationID accepts both {"conversationId": "..."} and a bare string
func conversationID(data json.RawMessage) (string, error) {
	var ref models.ConversationRef
	if err := json.Unmarshal(data, &ref); err != nil {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return "", fmt.Errorf("conversation id is required: %w", models.ErrValidation)
		}
		ref.ConversationID = id
	}
	if ref.ConversationID == "" {
		return "", fmt.Errorf("conversation id is required: %w", models.ErrValidation)
	}
	return ref.ConversationID, nil
}

func (h Realtime) joinConversation(ctx context.Context, caller api.Identity, conn realtime.Conn, data json.RawMessage) error {
	id, err := conversationID(data)
	if err != nil {
		return err
	}
	if err := h.Chat.CanJoin(ctx, id, caller.ID); err != nil {
		return err
	}
	h.Bus.Subscribe(conn, realtime.ConversationTopic(id))
	zap.S().Debugw("joined conversation", "userID", caller.ID, "conversationID", id)
	return nil
}

func (h Realtime) leaveConversation(conn realtime.Conn, data json.RawMessage) error {
	id, err := conversationID(data)
	if err != nil {
		return err
	}
	h.Bus.Unsubscribe(conn, realtime.ConversationTopic(id))
	return nil
}

// reminderResponse applies the patient's answer and echoes the resulting
// status back on the same connection
func (h Realtime) reminderResponse(ctx context.Context, caller api.Identity, conn realtime.Conn, data json.RawMessage) {
	var resp models.ReminderResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		conn.Send(realtime.Event{Name: models.EventReminderError, Data: models.ReminderErrorPayload{
			Error: "malformed reminder response",
		}})
		return
	}

	var (
		med *models.Medication
		err error
	)
	switch resp.Action {
	case models.ReminderActionTaken:
		med, err = h.Reminders.MarkCompleted(ctx, caller.ID, resp.MedicationID, resp.ReminderID)
	case models.ReminderActionSnooze:
		med, err = h.Reminders.Snooze(ctx, caller.ID, resp.MedicationID, resp.ReminderID, resp.SnoozeMinutes)
	case models.ReminderActionMissed:
		med, err = h.Reminders.MarkMissed(ctx, caller.ID, resp.MedicationID, resp.ReminderID)
	default:
		err = fmt.Errorf("unknown reminder action %q: %w", resp.Action, models.ErrValidation)
	}
	if err != nil {
		zap.S().Warnw("failed to process reminder response",
			"userID", caller.ID,
			"medicationID", resp.MedicationID,
			"reminderID", resp.ReminderID,
			"action", resp.Action,
			"error", err)
		conn.Send(realtime.Event{Name: models.EventReminderError, Data: models.ReminderErrorPayload{
			MedicationID: resp.MedicationID,
			ReminderID:   resp.ReminderID,
			Error:        "Failed to process reminder response",
		}})
		return
	}

	update := models.ReminderUpdatePayload{MedicationID: resp.MedicationID, ReminderID: resp.ReminderID}
	if r := med.FindReminder(resp.ReminderID); r != nil {
		update.Status = r.Status
	}
	conn.Send(realtime.Event{Name: models.EventReminderUpdate, Data: update})
}

// popupRequest shows the patient's request on every connected pharmacy
func (h Realtime) popupRequest(caller api.Identity, data json.RawMessage) error {
	if caller.Role != models.RolePatient {
		return fmt.Errorf("only patients can request a popup: %w", models.ErrForbidden)
	}
	popup := map[string]interface{}{}
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &popup); err != nil {
			return fmt.Errorf("popup data must be an object: %w", models.ErrValidation)
		}
	}
	popup["patientId"] = caller.ID
	n := realtime.Broadcast(h.Presence.OnlineUsersOfRole(models.RolePharmacy), models.EventShowPopup, popup)
	zap.S().Debugw("popup shown", "patientID", caller.ID, "pharmacies", n)
	return nil
}

func (h Realtime) popupCancel(caller api.Identity) error {
	if caller.Role != models.RolePatient {
		return fmt.Errorf("only patients can cancel a popup: %w", models.ErrForbidden)
	}
	realtime.Broadcast(h.Presence.OnlineUsersOfRole(models.RolePharmacy), models.EventClosePopup,
		models.ClosePopupPayload{PatientID: caller.ID})
	return nil
}

// popupResponse forwards a pharmacy's answer to the patient and closes the
// popup on every other pharmacy
func (h Realtime) popupResponse(caller api.Identity, data json.RawMessage) error {
	if caller.Role != models.RolePharmacy {
		return fmt.Errorf("only pharmacies can answer a popup: %w", models.ErrForbidden)
	}
	response := map[string]interface{}{}
	if err := json.Unmarshal(data, &response); err != nil {
		return fmt.Errorf("popup response must be an object: %w", models.ErrValidation)
	}
	patientID, _ := response["patientId"].(string)
	if patientID == "" {
		return fmt.Errorf("patientId is required: %w", models.ErrValidation)
	}
	response["pharmacyId"] = caller.ID

	h.Bus.Publish(realtime.UserTopic(patientID), models.EventPopupResponse, response)
	realtime.Broadcast(h.Presence.OnlineUsersOfRole(models.RolePharmacy), models.EventClosePopup,
		models.ClosePopupPayload{PatientID: patientID, ClosedBy: caller.ID})
	return nil
}
