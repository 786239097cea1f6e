package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/medtrack-api/api"
	"github.com/linesmerrill/medtrack-api/chat"
	"github.com/linesmerrill/medtrack-api/clock"
	"github.com/linesmerrill/medtrack-api/databases/mocks"
	"github.com/linesmerrill/medtrack-api/models"
	"github.com/linesmerrill/medtrack-api/realtime"
	"github.com/linesmerrill/medtrack-api/realtime/realtimetest"
)

type chatFixture struct {
	h        Chat
	convs    *mocks.ConversationDatabase
	msgs     *mocks.MessageDatabase
	users    *mocks.UserDatabase
	bus      *realtime.Bus
	presence *realtime.Registry
}

func newChatFixture(t *testing.T) *chatFixture {
	f := &chatFixture{
		convs:    mocks.NewConversationDatabase(t),
		msgs:     mocks.NewMessageDatabase(t),
		users:    mocks.NewUserDatabase(t),
		bus:      realtime.NewBus(),
		presence: realtime.NewRegistry(),
	}
	f.h = Chat{
		Manager: chat.NewManager(f.convs, f.msgs, f.bus, f.presence, clock.NewManaged(t0)),
		Users:   f.users,
	}
	return f
}

func (f *chatFixture) connect(id string, role models.Role) *realtimetest.Conn {
	conn := realtimetest.NewConn()
	f.presence.Register(id, role, conn)
	f.bus.Subscribe(conn, realtime.UserTopic(id))
	return conn
}

func pharmacyUser(id string, verified bool) *models.User {
	return &models.User{ID: id, Details: models.UserDetails{
		UserType:     models.RolePharmacy,
		PharmacyName: "Corner Drugs",
		Email:        "corner@example.com",
		Verified:     verified,
	}}
}

func conversation() *models.Conversation {
	return &models.Conversation{ID: primitive.NewObjectID(), Patient: patient.ID, Pharmacy: pharmacy.ID}
}

func TestRequireVerifiedPharmacy(t *testing.T) {
	tests := []struct {
		name     string
		caller   api.Identity
		user     *models.User
		expected int
	}{
		{"verified pharmacy", pharmacy, pharmacyUser(pharmacy.ID, true), http.StatusTeapot},
		{"unverified pharmacy", pharmacy, pharmacyUser(pharmacy.ID, false), http.StatusForbidden},
		{"patient skips the check", patient, nil, http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(t)
			if tt.user != nil {
				f.users.On("FindByID", mock.Anything, tt.caller.ID).Return(tt.user, nil)
			}
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			})

			rr := httptest.NewRecorder()
			f.h.RequireVerifiedPharmacy(next).ServeHTTP(rr, newRequest(t, http.MethodGet, "/api/v1/chat/conversations", nil, tt.caller, nil))
			assert.Equal(t, tt.expected, rr.Code)
		})
	}
}

func TestPharmaciesHandler(t *testing.T) {
	f := newChatFixture(t)
	f.connect("pharmacy-1", models.RolePharmacy)
	f.users.On("FindPharmacies", mock.Anything, true).Return([]models.User{
		*pharmacyUser("pharmacy-1", true),
		*pharmacyUser("pharmacy-2", true),
	}, nil)

	rr := httptest.NewRecorder()
	f.h.PharmaciesHandler(rr, newRequest(t, http.MethodGet, "/api/v1/chat/pharmacies", nil, patient, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got []pharmacyListing
	decode(t, rr, &got)
	require.Len(t, got, 2)
	assert.True(t, got[0].Online)
	assert.False(t, got[1].Online)
	assert.Equal(t, "Corner Drugs", got[0].PharmacyName)
}

func TestConversationWithPharmacyHandler(t *testing.T) {
	t.Run("not a pharmacy", func(t *testing.T) {
		f := newChatFixture(t)
		f.users.On("FindByID", mock.Anything, "patient-2").Return(&models.User{ID: "patient-2", Details: models.UserDetails{UserType: models.RolePatient}}, nil)

		rr := httptest.NewRecorder()
		f.h.ConversationWithPharmacyHandler(rr, newRequest(t, http.MethodGet, "/", nil, patient, map[string]string{"pharmacyId": "patient-2"}))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("existing conversation", func(t *testing.T) {
		f := newChatFixture(t)
		conv := conversation()
		f.users.On("FindByID", mock.Anything, pharmacy.ID).Return(pharmacyUser(pharmacy.ID, true), nil)
		f.convs.On("FindByParticipants", mock.Anything, patient.ID, pharmacy.ID).Return(conv, nil)

		rr := httptest.NewRecorder()
		f.h.ConversationWithPharmacyHandler(rr, newRequest(t, http.MethodGet, "/", nil, patient, map[string]string{"pharmacyId": pharmacy.ID}))
		require.Equal(t, http.StatusOK, rr.Code)

		var got models.Conversation
		decode(t, rr, &got)
		assert.Equal(t, conv.ID, got.ID)
	})
}

func TestSendMessageHandler(t *testing.T) {
	t.Run("relays to the conversation", func(t *testing.T) {
		f := newChatFixture(t)
		conv := conversation()
		pharmacyConn := f.connect(pharmacy.ID, models.RolePharmacy)
		f.bus.Subscribe(pharmacyConn, realtime.ConversationTopic(conv.ID.Hex()))

		f.convs.On("FindByID", mock.Anything, conv.ID.Hex()).Return(conv, nil)
		f.msgs.On("Insert", mock.Anything, mock.AnythingOfType("*models.Message")).Return(nil)
		f.convs.On("RecordMessage", mock.Anything, mock.AnythingOfType("*models.Message"), false).Return(nil)

		rr := httptest.NewRecorder()
		f.h.SendMessageHandler(rr, newRequest(t, http.MethodPost, "/", models.SendMessageRequest{Message: "  is this refillable?  "},
			patient, map[string]string{"id": conv.ID.Hex()}))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var got models.SentMessageResponse
		decode(t, rr, &got)
		assert.True(t, got.ReceiverOnline)
		assert.Equal(t, "is this refillable?", got.Message.Message)
		assert.Equal(t, pharmacy.ID, got.Receiver)
		assert.Len(t, pharmacyConn.Named(models.EventNewMessage), 1)
		assert.Len(t, pharmacyConn.Named(models.EventNewMessageNotification), 1)
	})

	t.Run("empty message", func(t *testing.T) {
		f := newChatFixture(t)
		rr := httptest.NewRecorder()
		f.h.SendMessageHandler(rr, newRequest(t, http.MethodPost, "/", models.SendMessageRequest{}, patient, map[string]string{"id": "c"}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("outsider", func(t *testing.T) {
		f := newChatFixture(t)
		conv := conversation()
		f.convs.On("FindByID", mock.Anything, conv.ID.Hex()).Return(conv, nil)

		rr := httptest.NewRecorder()
		f.h.SendMessageHandler(rr, newRequest(t, http.MethodPost, "/", models.SendMessageRequest{Message: "hi"}, stranger, map[string]string{"id": conv.ID.Hex()}))
		assert.Equal(t, http.StatusForbidden, rr.Code)
		f.msgs.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})
}

func TestMessagesHandler(t *testing.T) {
	f := newChatFixture(t)
	conv := conversation()
	newer := models.Message{ID: primitive.NewObjectID(), Message: "second", CreatedAt: t0.Add(1)}
	older := models.Message{ID: primitive.NewObjectID(), Message: "first", CreatedAt: t0}

	f.convs.On("FindByID", mock.Anything, conv.ID.Hex()).Return(conv, nil)
	f.msgs.On("CountByConversation", mock.Anything, conv.ID).Return(int64(3), nil)
	f.msgs.On("FindByConversation", mock.Anything, conv.ID, int64(1), int64(2)).Return([]models.Message{newer, older}, nil)

	rr := httptest.NewRecorder()
	f.h.MessagesHandler(rr, newRequest(t, http.MethodGet, "/?page=1&limit=2", nil, pharmacy, map[string]string{"id": conv.ID.Hex()}))
	require.Equal(t, http.StatusOK, rr.Code)

	var got models.MessagesPage
	decode(t, rr, &got)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "first", got.Messages[0].Message)
	assert.Equal(t, int64(2), got.Pagination.TotalPages)
}

func TestMarkReadHandler(t *testing.T) {
	f := newChatFixture(t)
	conv := conversation()
	patientConn := f.connect(patient.ID, models.RolePatient)
	f.bus.Subscribe(patientConn, realtime.ConversationTopic(conv.ID.Hex()))

	f.convs.On("FindByID", mock.Anything, conv.ID.Hex()).Return(conv, nil)
	f.convs.On("ResetUnread", mock.Anything, conv.ID, false).Return(nil)
	f.msgs.On("MarkRead", mock.Anything, conv.ID, pharmacy.ID).Return(int64(2), nil)

	rr := httptest.NewRecorder()
	f.h.MarkReadHandler(rr, newRequest(t, http.MethodPut, "/", nil, pharmacy, map[string]string{"id": conv.ID.Hex()}))
	require.Equal(t, http.StatusOK, rr.Code)

	events := patientConn.Named(models.EventMessagesRead)
	require.Len(t, events, 1)
	assert.Equal(t, models.MessagesReadPayload{ConversationID: conv.ID.Hex(), UserID: pharmacy.ID}, events[0].Data)
}

func TestOnlineStatusHandler(t *testing.T) {
	f := newChatFixture(t)
	f.connect(pharmacy.ID, models.RolePharmacy)

	rr := httptest.NewRecorder()
	f.h.OnlineStatusHandler(rr, newRequest(t, http.MethodPost, "/", models.OnlineStatusRequest{UserIDs: []string{pharmacy.ID, "ghost"}}, patient, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got map[string]map[string]bool
	decode(t, rr, &got)
	assert.Equal(t, map[string]bool{pharmacy.ID: true, "ghost": false}, got["onlineStatus"])
}
